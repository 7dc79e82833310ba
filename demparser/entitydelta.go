package demparser

import (
	"sort"

	"github.com/icza/tf2rep/bitstream"
	"github.com/icza/tf2rep/dem"
	"github.com/icza/tf2rep/dem/demmsg"
	"github.com/icza/tf2rep/dem/democore"
)

// decodePropUpdate runs the property-index delta update loop of §4.7
// against raw, and returns the decoded SendProp list. Used for lazily
// parsing a static baseline (§4.7 step 3, §4.8); PacketEntities and
// TempEntities updates call applyPropUpdate on their own reader instead.
func decodePropUpdate(raw []byte, flat []*dem.FlatProp) ([]*dem.SendProp, error) {
	r := bitstream.NewReader(raw)
	var props []*dem.SendProp
	if err := applyPropUpdate(r, flat, &props); err != nil {
		return nil, err
	}
	return props, nil
}

// applyPropUpdate reads the "has more" / "consecutive" / value loop of
// §4.7's property-index delta update directly from r, upserting into
// *props by flattened-prop identifier.
func applyPropUpdate(r *bitstream.Reader, flat []*dem.FlatProp, props *[]*dem.SendProp) error {
	propIndex := -1
	for {
		more, err := r.ReadBool()
		if err != nil {
			return wrapErr(ErrReadError, "prop update has-more bit", err)
		}
		if !more {
			return nil
		}

		consecutive, err := r.ReadBool()
		if err != nil {
			return wrapErr(ErrReadError, "prop update consecutive bit", err)
		}
		if consecutive {
			propIndex++
		} else {
			diff, err := r.ReadBitVar()
			if err != nil {
				return wrapErr(ErrReadError, "prop update index stride", err)
			}
			propIndex += int(diff) + 1
		}

		if propIndex < 0 || propIndex >= len(flat) {
			return newErr(ErrPropIndexOutOfBounds, "")
		}
		fp := flat[propIndex]

		value, err := decodePropValue(r, fp.RawPropDef)
		if err != nil {
			return err
		}

		upsertProp(props, &dem.SendProp{Prop: fp, Value: value})
	}
}

// encodePropUpdate writes the symmetric counterpart of applyPropUpdate:
// props in ascending flat-index order, as a consecutive/stride delta
// followed by a final "no more" bit. Every prop must resolve to a flat
// index via its Identifier, since encodePropUpdate has no baseline of
// its own to diff against (props is always the full explicit set to
// write, not a delta from some other set of props).
func encodePropUpdate(w *bitstream.Writer, flat []*dem.FlatProp, props []*dem.SendProp) error {
	indexByID := make(map[uint64]int, len(flat))
	for i, fp := range flat {
		indexByID[fp.Identifier] = i
	}

	type indexed struct {
		index int
		prop  *dem.SendProp
	}
	entries := make([]indexed, 0, len(props))
	for _, p := range props {
		idx, ok := indexByID[p.Prop.Identifier]
		if !ok {
			return newErr(ErrPropIndexOutOfBounds, "prop not present in flat schema")
		}
		entries = append(entries, indexed{idx, p})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].index < entries[j].index })

	propIndex := -1
	for _, e := range entries {
		if err := w.WriteBool(true); err != nil {
			return err
		}
		if e.index == propIndex+1 {
			if err := w.WriteBool(true); err != nil {
				return err
			}
		} else {
			if err := w.WriteBool(false); err != nil {
				return err
			}
			if err := w.WriteBitVar(uint32(e.index - propIndex - 1)); err != nil {
				return err
			}
		}
		propIndex = e.index

		if err := encodePropValue(w, flat[e.index].RawPropDef, e.prop.Value); err != nil {
			return err
		}
	}
	return w.WriteBool(false)
}

// encodeEntityEnter writes the symmetric counterpart of readEntityEnter's
// Enter-transition prelude (class id, serial number) followed by the
// entity's full property set, encoded as if every prop were explicit
// (entityEnter's baseline seeding is a decode-side convenience; the
// encoder has no baseline to diff against, so it always writes every
// prop of ent.Props as an update against an implicit empty baseline).
func encodeEntityEnter(w *bitstream.Writer, s *State, ent *demmsg.PacketEntity) error {
	bits := bitstream.BitsForCount(len(s.ServerClasses)-1) + 1
	if err := w.WriteBits(uint64(ent.ServerClass), bits); err != nil {
		return err
	}
	if err := w.WriteBits(uint64(ent.SerialNumber), 10); err != nil {
		return err
	}
	schema := s.SchemaForClass(ent.ServerClass)
	if schema == nil {
		return newErr(ErrUnknownServerClass, "")
	}
	return encodePropUpdate(w, schema.Flat, ent.Props)
}

// upsertProp replaces the existing entry for prop.Prop.Identifier, if
// any, or appends a new one, preserving prior relative order.
func upsertProp(props *[]*dem.SendProp, prop *dem.SendProp) {
	for i, existing := range *props {
		if existing.Prop.Identifier == prop.Prop.Identifier {
			(*props)[i] = prop
			return
		}
	}
	*props = append(*props, prop)
}

// skipPacketEntities consumes a PacketEntitiesMessage's envelope and
// raw payload bits without decoding any entity or applying any state
// mutation (Config.SkipEntities, §6). The returned message carries only
// the envelope fields; Entities and RemovedEntities are always empty.
func skipPacketEntities(r *bitstream.Reader) (*demmsg.PacketEntitiesMessage, error) {
	maxEntries, err := r.ReadBits(11)
	if err != nil {
		return nil, wrapErr(ErrReadError, "packet entities max_entries", err)
	}
	hasDelta, err := r.ReadBool()
	if err != nil {
		return nil, wrapErr(ErrReadError, "packet entities has-delta bit", err)
	}
	var delta *uint32
	if hasDelta {
		d, err := r.ReadBits(32)
		if err != nil {
			return nil, wrapErr(ErrReadError, "packet entities delta", err)
		}
		dv := uint32(d)
		delta = &dv
	}
	baseLine, err := r.ReadBits(1)
	if err != nil {
		return nil, wrapErr(ErrReadError, "packet entities base_line", err)
	}
	updatedEntries, err := r.ReadBits(11)
	if err != nil {
		return nil, wrapErr(ErrReadError, "packet entities updated_entries", err)
	}
	length, err := r.ReadBits(20)
	if err != nil {
		return nil, wrapErr(ErrReadError, "packet entities payload length", err)
	}
	updatedBaseLine, err := r.ReadBool()
	if err != nil {
		return nil, wrapErr(ErrReadError, "packet entities updated_base_line bit", err)
	}
	if err := r.Skip(length); err != nil {
		return nil, wrapErr(ErrReadError, "packet entities payload", err)
	}

	return &demmsg.PacketEntitiesMessage{
		MaxEntries:      uint16(maxEntries),
		Delta:           delta,
		BaseLine:        byte(baseLine),
		UpdatedEntries:  uint16(updatedEntries),
		UpdatedBaseLine: updatedBaseLine,
	}, nil
}

// decodePacketEntities decodes a PacketEntitiesMessage body (§4.7)
// against state, mutating state's entity→class map and instance
// baselines as entities enter, leave, are preserved, or are deleted.
func decodePacketEntities(r *bitstream.Reader, s *State) (*demmsg.PacketEntitiesMessage, error) {
	maxEntries, err := r.ReadBits(11)
	if err != nil {
		return nil, wrapErr(ErrReadError, "packet entities max_entries", err)
	}
	hasDelta, err := r.ReadBool()
	if err != nil {
		return nil, wrapErr(ErrReadError, "packet entities has-delta bit", err)
	}
	var delta *uint32
	if hasDelta {
		d, err := r.ReadBits(32)
		if err != nil {
			return nil, wrapErr(ErrReadError, "packet entities delta", err)
		}
		dv := uint32(d)
		delta = &dv
	}
	baseLine, err := r.ReadBits(1)
	if err != nil {
		return nil, wrapErr(ErrReadError, "packet entities base_line", err)
	}
	updatedEntries, err := r.ReadBits(11)
	if err != nil {
		return nil, wrapErr(ErrReadError, "packet entities updated_entries", err)
	}
	length, err := r.ReadBits(20)
	if err != nil {
		return nil, wrapErr(ErrReadError, "packet entities payload length", err)
	}
	updatedBaseLine, err := r.ReadBool()
	if err != nil {
		return nil, wrapErr(ErrReadError, "packet entities updated_base_line bit", err)
	}

	payload, err := r.ReadSubStream(length)
	if err != nil {
		return nil, wrapErr(ErrReadError, "packet entities payload", err)
	}

	msg := &demmsg.PacketEntitiesMessage{
		MaxEntries:      uint16(maxEntries),
		Delta:           delta,
		BaseLine:        byte(baseLine),
		UpdatedEntries:  uint16(updatedEntries),
		UpdatedBaseLine: updatedBaseLine,
	}

	touched := make(map[democore.EntityID]struct{}, updatedEntries)

	lastIndex := -1
	for i := uint64(0); i < updatedEntries; i++ {
		diff, err := payload.ReadBitVar()
		if err != nil {
			return nil, wrapErr(ErrReadError, "packet entities index stride", err)
		}
		lastIndex += int(diff) + 1
		entityIndex := democore.EntityID(lastIndex)

		pvsBits, err := payload.ReadBits(2)
		if err != nil {
			return nil, wrapErr(ErrReadError, "packet entities pvs", err)
		}
		pvs := demmsg.PVS(pvsBits)
		touched[entityIndex] = struct{}{}

		switch pvs {
		case demmsg.PVSEnter:
			ent, err := readEntityEnter(payload, s, entityIndex, int(baseLine))
			if err != nil {
				return nil, err
			}
			s.entityClasses[entityIndex] = ent.ServerClass
			s.instanceBaselines[baseLine][entityIndex] = toSendProps(ent.Props)
			msg.Entities = append(msg.Entities, ent)

		case demmsg.PVSPreserve:
			class, ok := s.entityClasses[entityIndex]
			if !ok {
				return nil, newErr(ErrUnknownEntity, "")
			}
			schema := s.SchemaForClass(class)
			if schema == nil {
				return nil, newErr(ErrUnknownServerClass, "")
			}
			props := fromSendProps(s.instanceBaselines[baseLine][entityIndex])
			if err := applyPropUpdate(payload, schema.Flat, &props); err != nil {
				return nil, err
			}
			s.instanceBaselines[baseLine][entityIndex] = toSendProps(props)
			msg.Entities = append(msg.Entities, &demmsg.PacketEntity{
				ServerClass: class,
				EntityIndex: entityIndex,
				Props:       toSendProps(props),
				InPVS:       true,
				PVS:         pvs,
			})

		case demmsg.PVSLeave:
			if class, ok := s.entityClasses[entityIndex]; ok {
				msg.Entities = append(msg.Entities, &demmsg.PacketEntity{
					ServerClass: class,
					EntityIndex: entityIndex,
					PVS:         pvs,
				})
			}

		case demmsg.PVSDelete:
			delete(s.entityClasses, entityIndex)
			for i := range s.instanceBaselines {
				delete(s.instanceBaselines[i], entityIndex)
			}
		}
	}

	if delta != nil {
		for {
			more, err := payload.ReadBool()
			if err != nil {
				return nil, wrapErr(ErrReadError, "packet entities removed-more bit", err)
			}
			if !more {
				break
			}
			idx, err := payload.ReadBits(11)
			if err != nil {
				return nil, wrapErr(ErrReadError, "packet entities removed index", err)
			}
			eid := democore.EntityID(idx)
			msg.RemovedEntities = append(msg.RemovedEntities, eid)
			delete(s.entityClasses, eid)
			for i := range s.instanceBaselines {
				delete(s.instanceBaselines[i], eid)
			}
		}
	}

	if payload.BitsLeft() > 7 {
		return nil, newErr(ErrDataRemaining, "")
	}

	if updatedBaseLine {
		other := 1 - baseLine
		for eid := range touched {
			if props, ok := s.instanceBaselines[baseLine][eid]; ok {
				s.instanceBaselines[other][eid] = props
			}
		}
	}

	return msg, nil
}

// readEntityEnter decodes the Enter-transition prelude (class id,
// serial number) and seeds the entity's property set from the
// appropriate baseline (§4.7 step 3), then applies the following
// property-index delta update.
func readEntityEnter(r *bitstream.Reader, s *State, entityIndex democore.EntityID, baselineSlot int) (*demmsg.PacketEntity, error) {
	bits := bitstream.BitsForCount(len(s.ServerClasses)-1) + 1
	classBits, err := r.UBitInt(bits)
	if err != nil {
		return nil, wrapErr(ErrReadError, "entity enter class id", err)
	}
	class := democore.ClassID(classBits)

	serial, err := r.ReadBits(10)
	if err != nil {
		return nil, wrapErr(ErrReadError, "entity enter serial", err)
	}

	schema := s.SchemaForClass(class)
	if schema == nil {
		return nil, newErr(ErrUnknownServerClass, "")
	}

	var seed []*dem.SendProp
	if baseline, ok := s.instanceBaselines[baselineSlot][entityIndex]; ok {
		seed = append([]*dem.SendProp(nil), baseline...)
	} else {
		sb, err := s.staticBaseline(class)
		if err != nil {
			return nil, err
		}
		seed = append([]*dem.SendProp(nil), sb...)
	}

	props := fromSendProps(seed)
	if err := applyPropUpdate(r, schema.Flat, &props); err != nil {
		return nil, err
	}

	return &demmsg.PacketEntity{
		ServerClass:  class,
		EntityIndex:  entityIndex,
		Props:        toSendProps(props),
		InPVS:        true,
		PVS:          demmsg.PVSEnter,
		SerialNumber: uint32(serial),
	}, nil
}

// encodePacketEntities writes the symmetric counterpart of
// decodePacketEntities: the envelope fields, then one entity-index
// stride/PVS/data group per msg.Entities, then the removed-entity list
// when msg.Delta is set. It does not mutate s; callers that need the
// entity/baseline bookkeeping decodePacketEntities performs must apply
// it separately.
func encodePacketEntities(w *bitstream.Writer, s *State, msg *demmsg.PacketEntitiesMessage) error {
	if err := w.WriteBits(uint64(msg.MaxEntries), 11); err != nil {
		return err
	}
	if err := w.WriteBool(msg.Delta != nil); err != nil {
		return err
	}
	if msg.Delta != nil {
		if err := w.WriteBits(uint64(*msg.Delta), 32); err != nil {
			return err
		}
	}
	if err := w.WriteBits(uint64(msg.BaseLine), 1); err != nil {
		return err
	}
	if err := w.WriteBits(uint64(msg.UpdatedEntries), 11); err != nil {
		return err
	}

	payload := bitstream.NewWriter()
	lastIndex := -1
	for _, ent := range msg.Entities {
		if err := payload.WriteBitVar(uint32(int(ent.EntityIndex) - lastIndex - 1)); err != nil {
			return err
		}
		lastIndex = int(ent.EntityIndex)
		if err := payload.WriteBits(uint64(ent.PVS), 2); err != nil {
			return err
		}
		switch ent.PVS {
		case demmsg.PVSEnter:
			if err := encodeEntityEnter(payload, s, ent); err != nil {
				return err
			}
		case demmsg.PVSPreserve:
			schema := s.SchemaForClass(ent.ServerClass)
			if schema == nil {
				return newErr(ErrUnknownServerClass, "")
			}
			if err := encodePropUpdate(payload, schema.Flat, ent.Props); err != nil {
				return err
			}
		case demmsg.PVSLeave, demmsg.PVSDelete:
			// No additional payload.
		}
	}
	if msg.Delta != nil {
		for _, eid := range msg.RemovedEntities {
			if err := payload.WriteBool(true); err != nil {
				return err
			}
			if err := payload.WriteBits(uint64(eid), 11); err != nil {
				return err
			}
		}
		if err := payload.WriteBool(false); err != nil {
			return err
		}
	}

	if err := w.WriteBits(payload.BitLen(), 20); err != nil {
		return err
	}
	if err := w.WriteBool(msg.UpdatedBaseLine); err != nil {
		return err
	}
	return w.Append(payload)
}

func fromSendProps(props []*dem.SendProp) []*dem.SendProp {
	return append([]*dem.SendProp(nil), props...)
}

func toSendProps(props []*dem.SendProp) []*dem.SendProp {
	return append([]*dem.SendProp(nil), props...)
}
