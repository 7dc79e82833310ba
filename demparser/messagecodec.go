package demparser

import (
	"github.com/icza/tf2rep/bitstream"
	"github.com/icza/tf2rep/dem/demmsg"
	"github.com/icza/tf2rep/dem/democore"
)

// messageTagBits is the width of the message-type tag prefixing every
// message inside a Signon/Message packet (§4.3).
const messageTagBits = 6

// decodeMessages decodes every message packed into a Signon/Message
// packet's payload (§4.2/§4.3), threading state updates through C8 and
// routing each decoded message to cfg's Handler.
func decodeMessages(payload []byte, s *State, tick democore.Tick, cfg Config) error {
	h := cfg.handler()
	r := bitstream.NewReader(payload)
	for r.BitsLeft() > 7 {
		tagBits, err := r.ReadBits(messageTagBits)
		if err != nil {
			return wrapErr(ErrReadError, "message tag", err)
		}
		mtype := demmsg.TypeByID(byte(tagBits))
		if mtype == nil {
			return newErr(ErrInvalidMessageType, "")
		}

		msg, err := decodeOneMessage(r, mtype, s, cfg)
		if err != nil {
			return err
		}

		if demmsg.Stateful(mtype) {
			if err := applyStatefulMessage(s, mtype, msg); err != nil {
				return err
			}
		}

		if h != nil && h.Handles(mtype) && msg != nil {
			h.OnMessage(msg, tick, s)
		}
	}
	if r.BitsLeft() > 7 {
		return newErr(ErrDataRemaining, "")
	}
	return nil
}

// decodeOneMessage decodes a single message body, dispatching on mtype
// (§4.3).
func decodeOneMessage(r *bitstream.Reader, mtype *demmsg.MessageType, s *State, cfg Config) (demmsg.Message, error) {
	switch mtype.ID {
	case demmsg.IDEmpty:
		return demmsg.EmptyMessage{}, nil

	case demmsg.IDFile:
		transferID, err := r.ReadBits(32)
		if err != nil {
			return nil, wrapErr(ErrReadError, "file transfer id", err)
		}
		name, err := r.ReadString()
		if err != nil {
			return nil, wrapErr(ErrReadError, "file name", err)
		}
		requested, err := r.ReadBool()
		if err != nil {
			return nil, wrapErr(ErrReadError, "file requested bit", err)
		}
		return demmsg.FileMessage{TransferID: uint32(transferID), Filename: name, Requested: requested}, nil

	case demmsg.IDNetTick:
		tick, err := r.ReadBits(32)
		if err != nil {
			return nil, wrapErr(ErrReadError, "nettick tick", err)
		}
		ft, err := r.ReadBits(16)
		if err != nil {
			return nil, wrapErr(ErrReadError, "nettick frametime", err)
		}
		fstd, err := r.ReadBits(16)
		if err != nil {
			return nil, wrapErr(ErrReadError, "nettick frametime stddev", err)
		}
		return demmsg.NetTickMessage{Tick: uint32(tick), HostFrameTime: uint16(ft), HostFrameTimeStdDev: uint16(fstd)}, nil

	case demmsg.IDStringCmd:
		cmd, err := r.ReadString()
		if err != nil {
			return nil, wrapErr(ErrReadError, "string cmd", err)
		}
		return demmsg.StringCmdMessage{Command: cmd}, nil

	case demmsg.IDSetConVar:
		return decodeSetConVar(r)

	case demmsg.IDSigOnState:
		state, err := r.ReadBits(8)
		if err != nil {
			return nil, wrapErr(ErrReadError, "sigonstate", err)
		}
		count, err := r.ReadBits(32)
		if err != nil {
			return nil, wrapErr(ErrReadError, "sigonstate count", err)
		}
		spawn, err := r.ReadBits(32)
		if err != nil {
			return nil, wrapErr(ErrReadError, "sigonstate spawncount", err)
		}
		return demmsg.SigOnStateMessage{State: byte(state), Count: uint32(count), SpawnCount: uint32(spawn)}, nil

	case demmsg.IDPrint:
		v, err := r.ReadString()
		if err != nil {
			return nil, wrapErr(ErrReadError, "print", err)
		}
		return demmsg.PrintMessage{Value: v}, nil

	case demmsg.IDServerInfo:
		return decodeServerInfo(r, s)

	case demmsg.IDClassInfo:
		return decodeClassInfo(r)

	case demmsg.IDSetPause:
		paused, err := r.ReadBool()
		if err != nil {
			return nil, wrapErr(ErrReadError, "setpause", err)
		}
		return demmsg.SetPauseMessage{Paused: paused}, nil

	case demmsg.IDCreateStringTable:
		return decodeCreateStringTable(r)

	case demmsg.IDUpdateStringTable:
		return decodeUpdateStringTable(r, s)

	case demmsg.IDVoiceInit:
		return decodeVoiceInit(r)

	case demmsg.IDVoiceData:
		return decodeVoiceData(r)

	case demmsg.IDParseSounds:
		return decodeParseSounds(r)

	case demmsg.IDSetView:
		idx, err := r.ReadBitsSigned(11)
		if err != nil {
			return nil, wrapErr(ErrReadError, "setview", err)
		}
		return demmsg.SetViewMessage{EntityIndex: int32(idx)}, nil

	case demmsg.IDFixAngle:
		return decodeFixAngle(r)

	case demmsg.IDBspDecal:
		return decodeBSPDecal(r)

	case demmsg.IDUserMessage:
		return decodeUserMessage(r)

	case demmsg.IDEntityMessage:
		n, err := r.ReadBits(11)
		if err != nil {
			return nil, wrapErr(ErrReadError, "entitymessage length", err)
		}
		data, err := readBitsAsBytes(r, n)
		if err != nil {
			return nil, err
		}
		return demmsg.EntityMessage{Data: data}, nil

	case demmsg.IDGameEvent:
		return decodeGameEvent(r, s)

	case demmsg.IDPacketEntities:
		if cfg.SkipEntities {
			return skipPacketEntities(r)
		}
		return decodePacketEntities(r, s)

	case demmsg.IDTempEntities:
		return decodeTempEntities(r, s)

	case demmsg.IDPreFetch:
		bits := uint(13)
		if s.ProtocolVersion > 22 {
			bits = 14
		}
		idx, err := r.ReadBits(bits)
		if err != nil {
			return nil, wrapErr(ErrReadError, "prefetch", err)
		}
		return demmsg.PreFetchMessage{Index: uint16(idx)}, nil

	case demmsg.IDMenu:
		mtypeVal, err := r.ReadBitsSigned(16)
		if err != nil {
			return nil, wrapErr(ErrReadError, "menu type", err)
		}
		length, err := r.ReadBits(16)
		if err != nil {
			return nil, wrapErr(ErrReadError, "menu length", err)
		}
		data, err := readBitsAsBytes(r, length*8)
		if err != nil {
			return nil, err
		}
		return demmsg.MenuMessage{MenuType: int16(mtypeVal), Data: data}, nil

	case demmsg.IDGameEventList:
		return decodeGameEventList(r, s)

	case demmsg.IDGetCvarValue:
		cookie, err := r.ReadBits(32)
		if err != nil {
			return nil, wrapErr(ErrReadError, "getcvarvalue cookie", err)
		}
		name, err := r.ReadString()
		if err != nil {
			return nil, wrapErr(ErrReadError, "getcvarvalue name", err)
		}
		return demmsg.GetCvarValueMessage{Cookie: int32(cookie), CvarName: name}, nil

	case demmsg.IDCmdKeyValues:
		length, err := r.ReadBits(32)
		if err != nil {
			return nil, wrapErr(ErrReadError, "cmdkeyvalues length", err)
		}
		data, err := readBitsAsBytes(r, length*8)
		if err != nil {
			return nil, err
		}
		return demmsg.CmdKeyValuesMessage{Data: data}, nil

	default:
		return nil, newErr(ErrInvalidMessageType, "")
	}
}

// encodeMessages writes the symmetric counterpart of decodeMessages: one
// tag-prefixed message body per entry of msgs, in order. It does not
// replay stateful updates or call a Handler; callers that need those
// apply them before or after encoding, same as decodeMessages does while
// decoding.
func encodeMessages(msgs []demmsg.Message, s *State, cfg Config) ([]byte, error) {
	w := bitstream.NewWriter()
	for _, msg := range msgs {
		mtype := msg.Type()
		if err := w.WriteBits(uint64(mtype.ID), messageTagBits); err != nil {
			return nil, err
		}
		if err := encodeOneMessage(w, mtype, msg, s, cfg); err != nil {
			return nil, err
		}
	}
	return w.Bytes(), nil
}

// encodeOneMessage writes a single message body, dispatching on mtype
// the same way decodeOneMessage does.
func encodeOneMessage(w *bitstream.Writer, mtype *demmsg.MessageType, msg demmsg.Message, s *State, cfg Config) error {
	switch m := msg.(type) {
	case demmsg.EmptyMessage:
		return nil

	case demmsg.FileMessage:
		if err := w.WriteBits(uint64(m.TransferID), 32); err != nil {
			return err
		}
		if err := w.WriteString(m.Filename); err != nil {
			return err
		}
		return w.WriteBool(m.Requested)

	case demmsg.NetTickMessage:
		if err := w.WriteBits(uint64(m.Tick), 32); err != nil {
			return err
		}
		if err := w.WriteBits(uint64(m.HostFrameTime), 16); err != nil {
			return err
		}
		return w.WriteBits(uint64(m.HostFrameTimeStdDev), 16)

	case demmsg.StringCmdMessage:
		return w.WriteString(m.Command)

	case demmsg.SetConVarMessage:
		return encodeSetConVar(w, m)

	case demmsg.SigOnStateMessage:
		if err := w.WriteBits(uint64(m.State), 8); err != nil {
			return err
		}
		if err := w.WriteBits(uint64(m.Count), 32); err != nil {
			return err
		}
		return w.WriteBits(uint64(m.SpawnCount), 32)

	case demmsg.PrintMessage:
		return w.WriteString(m.Value)

	case demmsg.ServerInfoMessage:
		return encodeServerInfo(w, s, m)

	case demmsg.ClassInfoMessage:
		return encodeClassInfo(w, m)

	case demmsg.SetPauseMessage:
		return w.WriteBool(m.Paused)

	case *demmsg.CreateStringTableMessage:
		return encodeCreateStringTable(w, m)

	case *demmsg.UpdateStringTableMessage:
		meta := s.StringTableMetaByID(int(m.TableID))
		if meta == nil {
			return newErr(ErrStringTableNotFound, "")
		}
		return encodeUpdateStringTable(w, meta, m)

	case demmsg.VoiceInitMessage:
		return encodeVoiceInit(w, m)

	case demmsg.VoiceDataMessage:
		return encodeVoiceData(w, m)

	case demmsg.ParseSoundsMessage:
		return encodeParseSounds(w, m)

	case demmsg.SetViewMessage:
		return w.WriteBitsSigned(int64(m.EntityIndex), 11)

	case demmsg.FixAngleMessage:
		return encodeFixAngle(w, m)

	case demmsg.BSPDecalMessage:
		return encodeBSPDecal(w, m)

	case *demmsg.UserMessage:
		return encodeUserMessage(w, m)

	case demmsg.EntityMessage:
		if err := w.WriteBits(uint64(len(m.Data)*8), 11); err != nil {
			return err
		}
		return writeBytesAsBits(w, uint(len(m.Data)*8), m.Data)

	case *demmsg.GameEventMessage:
		return encodeGameEvent(w, s, m)

	case *demmsg.PacketEntitiesMessage:
		return encodePacketEntities(w, s, m)

	case *demmsg.TempEntitiesMessage:
		return encodeTempEntities(w, s, m)

	case demmsg.PreFetchMessage:
		bits := uint(13)
		if s.ProtocolVersion > 22 {
			bits = 14
		}
		return w.WriteBits(uint64(m.Index), bits)

	case demmsg.MenuMessage:
		if err := w.WriteBitsSigned(int64(m.MenuType), 16); err != nil {
			return err
		}
		if err := w.WriteBits(uint64(len(m.Data)), 16); err != nil {
			return err
		}
		return writeBytesAsBits(w, uint(len(m.Data)*8), m.Data)

	case *demmsg.GameEventListMessage:
		return encodeGameEventList(w, s, m)

	case demmsg.GetCvarValueMessage:
		if err := w.WriteBits(uint64(uint32(m.Cookie)), 32); err != nil {
			return err
		}
		return w.WriteString(m.CvarName)

	case demmsg.CmdKeyValuesMessage:
		if err := w.WriteBits(uint64(len(m.Data)), 32); err != nil {
			return err
		}
		return writeBytesAsBits(w, uint(len(m.Data)*8), m.Data)

	default:
		return newErr(ErrInvalidMessageType, "")
	}
}

// writeBytesAsBits writes the low n bits of data, the symmetric
// counterpart of readBitsAsBytes (which unpacks the same byte-aligned
// form readExtraDataBits produces).
func writeBytesAsBits(w *bitstream.Writer, n uint, data []byte) error {
	return writeExtraDataBits(w, n, data)
}

func readBitsAsBytes(r *bitstream.Reader, n uint64) ([]byte, error) {
	sub, err := r.ReadSubStream(n)
	if err != nil {
		return nil, wrapErr(ErrReadError, "sub-payload", err)
	}
	return readExtraDataBits(sub, uint(n))
}

func decodeSetConVar(r *bitstream.Reader) (demmsg.SetConVarMessage, error) {
	count, err := r.ReadBits(8)
	if err != nil {
		return demmsg.SetConVarMessage{}, wrapErr(ErrReadError, "setconvar count", err)
	}
	vars := make([]demmsg.ConVar, 0, count)
	for i := uint64(0); i < count; i++ {
		key, _, valid, err := r.ReadText()
		if err != nil {
			return demmsg.SetConVarMessage{}, wrapErr(ErrReadError, "setconvar key", err)
		}
		if !valid {
			key = "Malformed cvar name"
		}
		value, _, valid, err := r.ReadText()
		if err != nil {
			return demmsg.SetConVarMessage{}, wrapErr(ErrReadError, "setconvar value", err)
		}
		if !valid {
			value = "Malformed cvar value"
		}
		vars = append(vars, demmsg.ConVar{Key: key, Value: value})
	}
	return demmsg.SetConVarMessage{Vars: vars}, nil
}

func decodeClassInfo(r *bitstream.Reader) (demmsg.ClassInfoMessage, error) {
	count, err := r.ReadBits(16)
	if err != nil {
		return demmsg.ClassInfoMessage{}, wrapErr(ErrReadError, "classinfo count", err)
	}
	create, err := r.ReadBool()
	if err != nil {
		return demmsg.ClassInfoMessage{}, wrapErr(ErrReadError, "classinfo create bit", err)
	}
	msg := demmsg.ClassInfoMessage{Create: create}
	if !create {
		bits := bitstream.BitsForCount(int(count) - 1)
		msg.Entries = make([]demmsg.ClassInfoEntry, 0, count)
		for i := uint64(0); i < count; i++ {
			id, err := r.ReadBits(bits)
			if err != nil {
				return demmsg.ClassInfoMessage{}, wrapErr(ErrReadError, "classinfo entry id", err)
			}
			cname, err := r.ReadString()
			if err != nil {
				return demmsg.ClassInfoMessage{}, wrapErr(ErrReadError, "classinfo entry class name", err)
			}
			tname, err := r.ReadString()
			if err != nil {
				return demmsg.ClassInfoMessage{}, wrapErr(ErrReadError, "classinfo entry table name", err)
			}
			msg.Entries = append(msg.Entries, demmsg.ClassInfoEntry{
				ClassID: uint16(id), ClassName: cname, TableName: tname,
			})
		}
	}
	return msg, nil
}

func encodeSetConVar(w *bitstream.Writer, m demmsg.SetConVarMessage) error {
	if err := w.WriteBits(uint64(len(m.Vars)), 8); err != nil {
		return err
	}
	for _, v := range m.Vars {
		if err := w.WriteString(v.Key); err != nil {
			return err
		}
		if err := w.WriteString(v.Value); err != nil {
			return err
		}
	}
	return nil
}

func encodeClassInfo(w *bitstream.Writer, m demmsg.ClassInfoMessage) error {
	if err := w.WriteBits(uint64(len(m.Entries)), 16); err != nil {
		return err
	}
	if err := w.WriteBool(m.Create); err != nil {
		return err
	}
	if m.Create {
		return nil
	}
	bits := bitstream.BitsForCount(len(m.Entries) - 1)
	for _, e := range m.Entries {
		if err := w.WriteBits(uint64(e.ClassID), bits); err != nil {
			return err
		}
		if err := w.WriteString(e.ClassName); err != nil {
			return err
		}
		if err := w.WriteString(e.TableName); err != nil {
			return err
		}
	}
	return nil
}

func encodeServerInfo(w *bitstream.Writer, s *State, m demmsg.ServerInfoMessage) error {
	if err := w.WriteBits(uint64(m.Version), 16); err != nil {
		return err
	}
	if err := w.WriteBits(uint64(m.ServerCount), 32); err != nil {
		return err
	}
	if err := w.WriteBool(m.STV); err != nil {
		return err
	}
	if err := w.WriteBool(m.Dedicated); err != nil {
		return err
	}
	if err := w.WriteBits(uint64(m.MaxCRC), 32); err != nil {
		return err
	}
	if err := w.WriteBits(uint64(m.MaxClasses), 16); err != nil {
		return err
	}

	if s.ProtocolVersion > 17 {
		if err := w.WriteBytes(m.MapHash[:]); err != nil {
			return err
		}
	} else {
		v := uint32(m.MapHash[0]) | uint32(m.MapHash[1])<<8 | uint32(m.MapHash[2])<<16 | uint32(m.MapHash[3])<<24
		if err := w.WriteBits(uint64(v), 32); err != nil {
			return err
		}
	}

	if err := w.WriteBits(uint64(m.PlayerSlot), 8); err != nil {
		return err
	}
	if err := w.WriteBits(uint64(m.MaxPlayerCount), 8); err != nil {
		return err
	}
	if err := w.WriteFloat32(m.IntervalPerTick); err != nil {
		return err
	}
	if err := w.WriteFixedString(m.Platform, 1); err != nil {
		return err
	}
	if err := w.WriteString(m.Game); err != nil {
		return err
	}
	if err := w.WriteString(m.Map); err != nil {
		return err
	}
	if err := w.WriteString(m.Skybox); err != nil {
		return err
	}
	if err := w.WriteString(m.ServerName); err != nil {
		return err
	}
	if s.ProtocolVersion > 15 {
		return w.WriteBool(m.Replay)
	}
	return nil
}

func decodeVoiceInit(r *bitstream.Reader) (demmsg.VoiceInitMessage, error) {
	codec, err := r.ReadString()
	if err != nil {
		return demmsg.VoiceInitMessage{}, wrapErr(ErrReadError, "voiceinit codec", err)
	}
	quality, err := r.ReadBits(8)
	if err != nil {
		return demmsg.VoiceInitMessage{}, wrapErr(ErrReadError, "voiceinit quality", err)
	}
	var extra uint64
	if quality == 255 {
		extra, err = r.ReadBits(16)
		if err != nil {
			return demmsg.VoiceInitMessage{}, wrapErr(ErrReadError, "voiceinit extra data", err)
		}
	} else if codec == "vaudio_celt" {
		extra = 11025
	}
	return demmsg.VoiceInitMessage{Codec: codec, Quality: byte(quality), ExtraData: uint16(extra)}, nil
}

func encodeVoiceInit(w *bitstream.Writer, m demmsg.VoiceInitMessage) error {
	if err := w.WriteString(m.Codec); err != nil {
		return err
	}
	if err := w.WriteBits(uint64(m.Quality), 8); err != nil {
		return err
	}
	if m.Quality == 255 {
		return w.WriteBits(uint64(m.ExtraData), 16)
	}
	return nil
}

func decodeVoiceData(r *bitstream.Reader) (demmsg.VoiceDataMessage, error) {
	client, err := r.ReadBits(8)
	if err != nil {
		return demmsg.VoiceDataMessage{}, wrapErr(ErrReadError, "voicedata client", err)
	}
	proximity, err := r.ReadBits(8)
	if err != nil {
		return demmsg.VoiceDataMessage{}, wrapErr(ErrReadError, "voicedata proximity", err)
	}
	length, err := r.ReadBits(16)
	if err != nil {
		return demmsg.VoiceDataMessage{}, wrapErr(ErrReadError, "voicedata length", err)
	}
	data, err := readBitsAsBytes(r, length)
	if err != nil {
		return demmsg.VoiceDataMessage{}, err
	}
	return demmsg.VoiceDataMessage{Client: byte(client), Proximity: byte(proximity), Data: data}, nil
}

func encodeVoiceData(w *bitstream.Writer, m demmsg.VoiceDataMessage) error {
	if err := w.WriteBits(uint64(m.Client), 8); err != nil {
		return err
	}
	if err := w.WriteBits(uint64(m.Proximity), 8); err != nil {
		return err
	}
	if err := w.WriteBits(uint64(len(m.Data)*8), 16); err != nil {
		return err
	}
	return writeBytesAsBits(w, uint(len(m.Data)*8), m.Data)
}

func decodeParseSounds(r *bitstream.Reader) (demmsg.ParseSoundsMessage, error) {
	reliable, err := r.ReadBool()
	if err != nil {
		return demmsg.ParseSoundsMessage{}, wrapErr(ErrReadError, "parsesounds reliable", err)
	}
	var count uint64 = 1
	if !reliable {
		count, err = r.ReadBits(8)
		if err != nil {
			return demmsg.ParseSoundsMessage{}, wrapErr(ErrReadError, "parsesounds count", err)
		}
	}
	var length uint64
	if reliable {
		length, err = r.ReadBits(8)
	} else {
		length, err = r.ReadBits(16)
	}
	if err != nil {
		return demmsg.ParseSoundsMessage{}, wrapErr(ErrReadError, "parsesounds length", err)
	}
	data, err := readBitsAsBytes(r, length)
	if err != nil {
		return demmsg.ParseSoundsMessage{}, err
	}
	return demmsg.ParseSoundsMessage{Reliable: reliable, Count: byte(count), Data: data}, nil
}

func encodeParseSounds(w *bitstream.Writer, m demmsg.ParseSoundsMessage) error {
	if err := w.WriteBool(m.Reliable); err != nil {
		return err
	}
	if !m.Reliable {
		if err := w.WriteBits(uint64(m.Count), 8); err != nil {
			return err
		}
	}
	lengthBits := uint(8)
	if !m.Reliable {
		lengthBits = 16
	}
	n := uint64(len(m.Data)) * 8
	if err := w.WriteBits(n, lengthBits); err != nil {
		return err
	}
	return writeBytesAsBits(w, uint(n), m.Data)
}

func decodeFixAngle(r *bitstream.Reader) (demmsg.FixAngleMessage, error) {
	relative, err := r.ReadBool()
	if err != nil {
		return demmsg.FixAngleMessage{}, wrapErr(ErrReadError, "fixangle relative", err)
	}
	x, err := r.ReadBitCoord()
	if err != nil {
		return demmsg.FixAngleMessage{}, wrapErr(ErrReadError, "fixangle x", err)
	}
	y, err := r.ReadBitCoord()
	if err != nil {
		return demmsg.FixAngleMessage{}, wrapErr(ErrReadError, "fixangle y", err)
	}
	z, err := r.ReadBitCoord()
	if err != nil {
		return demmsg.FixAngleMessage{}, wrapErr(ErrReadError, "fixangle z", err)
	}
	return demmsg.FixAngleMessage{Relative: relative, X: x, Y: y, Z: z}, nil
}

func encodeFixAngle(w *bitstream.Writer, m demmsg.FixAngleMessage) error {
	if err := w.WriteBool(m.Relative); err != nil {
		return err
	}
	if err := w.WriteBitCoord(m.X); err != nil {
		return err
	}
	if err := w.WriteBitCoord(m.Y); err != nil {
		return err
	}
	return w.WriteBitCoord(m.Z)
}

func decodeServerInfo(r *bitstream.Reader, s *State) (demmsg.ServerInfoMessage, error) {
	var m demmsg.ServerInfoMessage

	version, err := r.ReadBits(16)
	if err != nil {
		return m, wrapErr(ErrReadError, "serverinfo version", err)
	}
	m.Version = uint16(version)
	serverCount, err := r.ReadBits(32)
	if err != nil {
		return m, wrapErr(ErrReadError, "serverinfo server_count", err)
	}
	m.ServerCount = uint32(serverCount)
	m.STV, err = r.ReadBool()
	if err != nil {
		return m, wrapErr(ErrReadError, "serverinfo stv", err)
	}
	m.Dedicated, err = r.ReadBool()
	if err != nil {
		return m, wrapErr(ErrReadError, "serverinfo dedicated", err)
	}
	maxCRC, err := r.ReadBits(32)
	if err != nil {
		return m, wrapErr(ErrReadError, "serverinfo max_crc", err)
	}
	m.MaxCRC = uint32(maxCRC)
	maxClasses, err := r.ReadBits(16)
	if err != nil {
		return m, wrapErr(ErrReadError, "serverinfo max_classes", err)
	}
	m.MaxClasses = uint16(maxClasses)

	if s.ProtocolVersion > 17 {
		hash, err := r.ReadBytes(16)
		if err != nil {
			return m, wrapErr(ErrReadError, "serverinfo map hash", err)
		}
		copy(m.MapHash[:], hash)
	} else {
		crc, err := r.ReadBits(32)
		if err != nil {
			return m, wrapErr(ErrReadError, "serverinfo legacy crc", err)
		}
		binaryLittleEndianPutUint32(m.MapHash[:4], uint32(crc))
	}

	playerSlot, err := r.ReadBits(8)
	if err != nil {
		return m, wrapErr(ErrReadError, "serverinfo player_slot", err)
	}
	m.PlayerSlot = byte(playerSlot)
	maxPlayers, err := r.ReadBits(8)
	if err != nil {
		return m, wrapErr(ErrReadError, "serverinfo max_player_count", err)
	}
	m.MaxPlayerCount = byte(maxPlayers)
	m.IntervalPerTick, err = r.ReadFloat32()
	if err != nil {
		return m, wrapErr(ErrReadError, "serverinfo interval_per_tick", err)
	}
	m.Platform, err = r.ReadFixedString(1)
	if err != nil {
		return m, wrapErr(ErrReadError, "serverinfo platform", err)
	}
	m.Game, err = r.ReadString()
	if err != nil {
		return m, wrapErr(ErrReadError, "serverinfo game", err)
	}
	m.Map, err = r.ReadString()
	if err != nil {
		return m, wrapErr(ErrReadError, "serverinfo map", err)
	}
	m.Skybox, err = r.ReadString()
	if err != nil {
		return m, wrapErr(ErrReadError, "serverinfo skybox", err)
	}
	m.ServerName, err = r.ReadString()
	if err != nil {
		return m, wrapErr(ErrReadError, "serverinfo server_name", err)
	}

	if s.ProtocolVersion > 15 {
		m.Replay, err = r.ReadBool()
		if err != nil {
			return m, wrapErr(ErrReadError, "serverinfo replay", err)
		}
	}

	return m, nil
}

func binaryLittleEndianPutUint32(dst []byte, v uint32) {
	dst[0] = byte(v)
	dst[1] = byte(v >> 8)
	dst[2] = byte(v >> 16)
	dst[3] = byte(v >> 24)
}
