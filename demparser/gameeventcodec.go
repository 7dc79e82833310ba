package demparser

import (
	"github.com/icza/tf2rep/bitstream"
	"github.com/icza/tf2rep/dem"
	"github.com/icza/tf2rep/dem/demmsg"
)

// gameEventIDBits is the width of a game-event id, both in its
// GameEventList definition and in a GameEvent message's own id field
// (§4.3).
const gameEventIDBits = 9

// decodeGameEventList decodes the GameEventList message (§4.3): a
// 9-bit definition count, a 20-bit total payload length, then that many
// definitions, each a 9-bit id, a name, and a run of (type, name) entry
// pairs terminated by a None-typed entry.
func decodeGameEventList(r *bitstream.Reader, s *State) (*demmsg.GameEventListMessage, error) {
	count, err := r.ReadBits(gameEventIDBits)
	if err != nil {
		return nil, wrapErr(ErrReadError, "game event list count", err)
	}
	length, err := r.ReadBits(20)
	if err != nil {
		return nil, wrapErr(ErrReadError, "game event list payload length", err)
	}
	payload, err := r.ReadSubStream(length)
	if err != nil {
		return nil, wrapErr(ErrReadError, "game event list payload", err)
	}

	defs := make([]*dem.GameEventDefinition, 0, count)
	for i := uint64(0); i < count; i++ {
		id, err := payload.ReadBits(gameEventIDBits)
		if err != nil {
			return nil, wrapErr(ErrReadError, "game event definition id", err)
		}
		name, err := payload.ReadString()
		if err != nil {
			return nil, wrapErr(ErrReadError, "game event definition name", err)
		}
		def := &dem.GameEventDefinition{ID: int(id), Name: name}
		for {
			typeBits, err := payload.ReadBits(3)
			if err != nil {
				return nil, wrapErr(ErrReadError, "game event entry type", err)
			}
			etype := dem.GameEventValueType(typeBits)
			if etype == dem.GameEventValueNone {
				break
			}
			ename, err := payload.ReadString()
			if err != nil {
				return nil, wrapErr(ErrReadError, "game event entry name", err)
			}
			def.Entries = append(def.Entries, dem.GameEventEntry{Name: ename, Type: etype})
		}
		defs = append(defs, def)
		s.eventDefs[def.ID] = def
	}

	return &demmsg.GameEventListMessage{Definitions: defs}, nil
}

// encodeGameEventList writes the symmetric counterpart of
// decodeGameEventList, and registers each definition into s.eventDefs
// the same way decoding does, so a subsequent encodeGameEvent call in
// the same stream can resolve its field list.
func encodeGameEventList(w *bitstream.Writer, s *State, msg *demmsg.GameEventListMessage) error {
	if err := w.WriteBits(uint64(len(msg.Definitions)), gameEventIDBits); err != nil {
		return err
	}

	payload := bitstream.NewWriter()
	for _, def := range msg.Definitions {
		if err := payload.WriteBits(uint64(def.ID), gameEventIDBits); err != nil {
			return err
		}
		if err := payload.WriteString(def.Name); err != nil {
			return err
		}
		for _, e := range def.Entries {
			if err := payload.WriteBits(uint64(e.Type), 3); err != nil {
				return err
			}
			if err := payload.WriteString(e.Name); err != nil {
				return err
			}
		}
		if err := payload.WriteBits(uint64(dem.GameEventValueNone), 3); err != nil {
			return err
		}
		s.eventDefs[def.ID] = def
	}

	if err := w.WriteBits(payload.BitLen(), 20); err != nil {
		return err
	}
	return w.Append(payload)
}

// decodeGameEvent decodes a GameEvent message (§4.3): an 11-bit payload
// length, a 9-bit event id, then one value per field of the matching
// definition, in definition order. An id with no known definition
// decodes to an Unknown event, since the engine may reference
// definitions sent in an earlier, unretained GameEventList (§9).
func decodeGameEvent(r *bitstream.Reader, s *State) (*demmsg.GameEventMessage, error) {
	length, err := r.ReadBits(11)
	if err != nil {
		return nil, wrapErr(ErrReadError, "game event payload length", err)
	}
	payload, err := r.ReadSubStream(length)
	if err != nil {
		return nil, wrapErr(ErrReadError, "game event payload", err)
	}

	id, err := payload.ReadBits(gameEventIDBits)
	if err != nil {
		return nil, wrapErr(ErrReadError, "game event id", err)
	}

	def, ok := s.eventDefs[int(id)]
	if !ok {
		return &demmsg.GameEventMessage{Event: &dem.GameEvent{ID: int(id), Unknown: true}}, nil
	}

	values := make(map[string]dem.GameEventValue, len(def.Entries))
	for _, entry := range def.Entries {
		v, err := decodeGameEventValue(payload, entry.Type)
		if err != nil {
			return nil, err
		}
		values[entry.Name] = v
	}

	return &demmsg.GameEventMessage{Event: &dem.GameEvent{ID: def.ID, Name: def.Name, Values: values}}, nil
}

// encodeGameEvent writes the symmetric counterpart of decodeGameEvent.
// An Unknown event (no locally registered definition) has no field list
// to encode and writes only its id, matching how decode leaves it
// field-less.
func encodeGameEvent(w *bitstream.Writer, s *State, msg *demmsg.GameEventMessage) error {
	payload := bitstream.NewWriter()
	ev := msg.Event
	if err := payload.WriteBits(uint64(ev.ID), gameEventIDBits); err != nil {
		return err
	}

	if !ev.Unknown {
		def, ok := s.eventDefs[ev.ID]
		if !ok {
			return newErr(ErrInvalidGameEvent, "no registered definition for event id")
		}
		for _, entry := range def.Entries {
			v := ev.Values[entry.Name]
			if err := encodeGameEventValue(payload, entry.Type, v); err != nil {
				return err
			}
		}
	}

	if err := w.WriteBits(payload.BitLen(), 11); err != nil {
		return err
	}
	return w.Append(payload)
}

func encodeGameEventValue(w *bitstream.Writer, t dem.GameEventValueType, v dem.GameEventValue) error {
	switch t {
	case dem.GameEventValueString:
		return w.WriteString(v.Str)
	case dem.GameEventValueFloat:
		return w.WriteFloat32(v.F32)
	case dem.GameEventValueLong:
		return w.WriteBits(uint64(v.U32), 32)
	case dem.GameEventValueShort:
		return w.WriteBits(uint64(v.U16), 16)
	case dem.GameEventValueByte:
		return w.WriteBits(uint64(v.U8), 8)
	case dem.GameEventValueBoolean:
		return w.WriteBool(v.Bool)
	case dem.GameEventValueLocal:
		return nil
	default:
		return newErr(ErrInvalidGameEvent, "unexpected entry type")
	}
}

func decodeGameEventValue(r *bitstream.Reader, t dem.GameEventValueType) (dem.GameEventValue, error) {
	switch t {
	case dem.GameEventValueString:
		v, err := r.ReadString()
		if err != nil {
			return dem.GameEventValue{}, wrapErr(ErrReadError, "game event string value", err)
		}
		return dem.GameEventValue{Type: t, Str: v}, nil
	case dem.GameEventValueFloat:
		v, err := r.ReadFloat32()
		if err != nil {
			return dem.GameEventValue{}, wrapErr(ErrReadError, "game event float value", err)
		}
		return dem.GameEventValue{Type: t, F32: v}, nil
	case dem.GameEventValueLong:
		v, err := r.ReadBits(32)
		if err != nil {
			return dem.GameEventValue{}, wrapErr(ErrReadError, "game event long value", err)
		}
		return dem.GameEventValue{Type: t, U32: uint32(v)}, nil
	case dem.GameEventValueShort:
		v, err := r.ReadBits(16)
		if err != nil {
			return dem.GameEventValue{}, wrapErr(ErrReadError, "game event short value", err)
		}
		return dem.GameEventValue{Type: t, U16: uint16(v)}, nil
	case dem.GameEventValueByte:
		v, err := r.ReadBits(8)
		if err != nil {
			return dem.GameEventValue{}, wrapErr(ErrReadError, "game event byte value", err)
		}
		return dem.GameEventValue{Type: t, U8: uint8(v)}, nil
	case dem.GameEventValueBoolean:
		v, err := r.ReadBool()
		if err != nil {
			return dem.GameEventValue{}, wrapErr(ErrReadError, "game event bool value", err)
		}
		return dem.GameEventValue{Type: t, Bool: v}, nil
	case dem.GameEventValueLocal:
		return dem.GameEventValue{Type: t}, nil
	default:
		return dem.GameEventValue{}, newErr(ErrInvalidGameEvent, "unexpected entry type")
	}
}
