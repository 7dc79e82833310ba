package demparser

import (
	"github.com/icza/tf2rep/bitstream"
	"github.com/icza/tf2rep/dem"
	"github.com/icza/tf2rep/dem/demmsg"
	"github.com/icza/tf2rep/dem/democore"
)

// fireDelayBits is the width of a TempEntities event's optional fire-delay
// field, scaled by fireDelayScale (§4.7 "TempEntities").
const (
	fireDelayBits  = 16
	fireDelayScale = 100.0
)

// decodeTempEntities decodes a TempEntitiesMessage (§4.7): a
// version-dependent event count, then that many fired effects, each
// keyed by server class and decoded against that class's flattened
// schema exactly like an entity's property-index delta update, but
// seeded empty (temp entities carry no baseline).
func decodeTempEntities(r *bitstream.Reader, s *State) (*demmsg.TempEntitiesMessage, error) {
	var count uint64
	var err error
	if s.ProtocolVersion > 23 {
		v, e := r.VarInt32()
		count, err = uint64(v), e
	} else {
		v, e := r.ReadBits(17)
		count, err = v, e
	}
	if err != nil {
		return nil, wrapErr(ErrReadError, "temp entities count", err)
	}

	msg := &demmsg.TempEntitiesMessage{}
	lastClass := -1
	for i := uint64(0); i < count; i++ {
		reliable := true
		if i > 0 {
			reliable, err = r.ReadBool()
			if err != nil {
				return nil, wrapErr(ErrReadError, "temp entities reliable bit", err)
			}
		}

		hasDelay, err := r.ReadBool()
		if err != nil {
			return nil, wrapErr(ErrReadError, "temp entities has-delay bit", err)
		}
		var delay float32
		if hasDelay {
			raw, err := r.ReadBits(fireDelayBits)
			if err != nil {
				return nil, wrapErr(ErrReadError, "temp entities fire delay", err)
			}
			delay = float32(raw) / fireDelayScale
		}

		sameClass, err := r.ReadBool()
		if err != nil {
			return nil, wrapErr(ErrReadError, "temp entities same-class bit", err)
		}
		var classID int
		if sameClass && lastClass >= 0 {
			classID = lastClass
		} else {
			bits := bitstream.BitsForCount(len(s.ServerClasses)-1) + 1
			v, err := r.UBitInt(bits)
			if err != nil {
				return nil, wrapErr(ErrReadError, "temp entities class id", err)
			}
			classID = int(v)
		}
		lastClass = classID

		schema := s.SchemaForClass(democore.ClassID(classID))
		if schema == nil {
			return nil, newErr(ErrUnknownServerClass, "")
		}

		var props []*dem.SendProp
		if err := applyPropUpdate(r, schema.Flat, &props); err != nil {
			return nil, err
		}

		msg.Events = append(msg.Events, &demmsg.EventInfo{
			ClassID:   democore.ClassID(classID),
			FireDelay: delay,
			Reliable:  reliable,
			Props:     props,
		})
	}

	return msg, nil
}

// encodeTempEntities writes the symmetric counterpart of
// decodeTempEntities.
func encodeTempEntities(w *bitstream.Writer, s *State, msg *demmsg.TempEntitiesMessage) error {
	count := uint64(len(msg.Events))
	if s.ProtocolVersion > 23 {
		if err := w.WriteVarInt32(uint32(count)); err != nil {
			return err
		}
	} else {
		if err := w.WriteBits(count, 17); err != nil {
			return err
		}
	}

	lastClass := -1
	for i, ev := range msg.Events {
		if i > 0 {
			if err := w.WriteBool(ev.Reliable); err != nil {
				return err
			}
		}

		hasDelay := ev.FireDelay != 0
		if err := w.WriteBool(hasDelay); err != nil {
			return err
		}
		if hasDelay {
			raw := uint64(ev.FireDelay * fireDelayScale)
			if err := w.WriteBits(raw, fireDelayBits); err != nil {
				return err
			}
		}

		classID := int(ev.ClassID)
		sameClass := i > 0 && classID == lastClass
		if err := w.WriteBool(sameClass); err != nil {
			return err
		}
		if !sameClass {
			bits := bitstream.BitsForCount(len(s.ServerClasses)-1) + 1
			if err := w.WriteBits(uint64(classID), bits); err != nil {
				return err
			}
		}
		lastClass = classID

		schema := s.SchemaForClass(ev.ClassID)
		if schema == nil {
			return newErr(ErrUnknownServerClass, "")
		}
		if err := encodePropUpdate(w, schema.Flat, ev.Props); err != nil {
			return err
		}
	}

	return nil
}
