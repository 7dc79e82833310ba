package demparser

import (
	"encoding/binary"

	"github.com/icza/tf2rep/bitstream"
	"github.com/icza/tf2rep/dem"
	"github.com/icza/tf2rep/dem/democore"
)

// cmdInfoSize is the byte size of one CmdInfo block: a 4-byte flags
// field followed by two view/origin/angles triples (primary and
// split-screen secondary), each three Vectors of 3 float32s (§3
// "Packet").
const cmdInfoSize = 4 + 2*3*12

// runFrames reads and dispatches every packet in a demo body in order,
// starting right after the 1072-byte header, until a Stop packet is
// reached or the buffer is exhausted (C2, §4.2). It mutates s in place
// and returns the first decode error, or nil.
func runFrames(body []byte, s *State, cfg Config) error {
	pos := 0
	bo := binary.LittleEndian

	readU8 := func() (byte, error) {
		if pos >= len(body) {
			return 0, newErr(ErrReadError, "packet type: end of buffer")
		}
		b := body[pos]
		pos++
		return b, nil
	}
	readI32 := func() (int32, error) {
		if pos+4 > len(body) {
			return 0, newErr(ErrReadError, "end of buffer")
		}
		v := int32(bo.Uint32(body[pos:]))
		pos += 4
		return v, nil
	}
	readU32 := func() (uint32, error) {
		if pos+4 > len(body) {
			return 0, newErr(ErrReadError, "end of buffer")
		}
		v := bo.Uint32(body[pos:])
		pos += 4
		return v, nil
	}
	readBytes := func(n int) ([]byte, error) {
		if pos+n > len(body) {
			return nil, newErr(ErrReadError, "end of buffer")
		}
		b := body[pos : pos+n]
		pos += n
		return b, nil
	}
	readCmdInfo := func() (*dem.CmdInfo, error) {
		raw, err := readBytes(cmdInfoSize)
		if err != nil {
			return nil, err
		}
		r := bitstream.NewReader(raw)
		ci := &dem.CmdInfo{}
		flags, _ := r.ReadBitsSigned(32)
		ci.Flags = int32(flags)
		readVec := func() (democore.Vector, error) {
			x, err := r.ReadFloat32()
			if err != nil {
				return democore.Vector{}, err
			}
			y, err := r.ReadFloat32()
			if err != nil {
				return democore.Vector{}, err
			}
			z, err := r.ReadFloat32()
			if err != nil {
				return democore.Vector{}, err
			}
			return democore.Vector{X: x, Y: y, Z: z}, nil
		}
		var err error
		if ci.ViewOrigin, err = readVec(); err != nil {
			return nil, err
		}
		if ci.ViewAngles, err = readVec(); err != nil {
			return nil, err
		}
		if ci.LocalViewAngles, err = readVec(); err != nil {
			return nil, err
		}
		if ci.ViewOrigin2, err = readVec(); err != nil {
			return nil, err
		}
		if ci.ViewAngles2, err = readVec(); err != nil {
			return nil, err
		}
		if ci.LocalViewAngles2, err = readVec(); err != nil {
			return nil, err
		}
		return ci, nil
	}

	for pos < len(body) {
		typeID, err := readU8()
		if err != nil {
			return err
		}
		ptype := dem.PacketTypeByID(typeID)
		if ptype == nil {
			return newErr(ErrInvalidPacketType, "")
		}

		tick, err := readI32()
		if err != nil {
			return wrapErr(ErrReadError, "packet tick", err)
		}
		s.Tick = democore.Tick(tick)

		pkt := &dem.Packet{Type: ptype, Tick: s.Tick}

		switch typeID {
		case dem.PacketIDSignon, dem.PacketIDMessage:
			ci, err := readCmdInfo()
			if err != nil {
				return wrapErr(ErrReadError, "cmdinfo", err)
			}
			seqIn, err := readI32()
			if err != nil {
				return wrapErr(ErrReadError, "sequence in", err)
			}
			seqOut, err := readI32()
			if err != nil {
				return wrapErr(ErrReadError, "sequence out", err)
			}
			length, err := readU32()
			if err != nil {
				return wrapErr(ErrReadError, "message length", err)
			}
			data, err := readBytes(int(length))
			if err != nil {
				return wrapErr(ErrReadError, "message data", err)
			}
			pkt.CmdInfo, pkt.SequenceIn, pkt.SequenceOut, pkt.MessageData = ci, seqIn, seqOut, data

			if err := decodeMessages(data, s, s.Tick, cfg); err != nil {
				return err
			}

		case dem.PacketIDSyncTick:
			// No payload.

		case dem.PacketIDConsoleCmd:
			length, err := readU32()
			if err != nil {
				return wrapErr(ErrReadError, "console cmd length", err)
			}
			data, err := readBytes(int(length))
			if err != nil {
				return wrapErr(ErrReadError, "console cmd data", err)
			}
			pkt.ConsoleCmd = cString(data)

		case dem.PacketIDUserCmd:
			seq, err := readI32()
			if err != nil {
				return wrapErr(ErrReadError, "usercmd sequence", err)
			}
			length, err := readU32()
			if err != nil {
				return wrapErr(ErrReadError, "usercmd length", err)
			}
			data, err := readBytes(int(length))
			if err != nil {
				return wrapErr(ErrReadError, "usercmd data", err)
			}
			pkt.UserCmdSequence, pkt.UserCmdData = seq, data

		case dem.PacketIDDataTables:
			length, err := readU32()
			if err != nil {
				return wrapErr(ErrReadError, "data tables length", err)
			}
			data, err := readBytes(int(length))
			if err != nil {
				return wrapErr(ErrReadError, "data tables data", err)
			}
			dt, err := parseDataTables(bitstream.NewReader(data))
			if err != nil {
				return err
			}
			pkt.DataTables = dt
			if err := s.installSchema(dt.Tables, dt.ServerClasses); err != nil {
				return err
			}
			cfg.handler().OnDataTables(dt, s.Tick, s)

		case dem.PacketIDStop:
			return nil

		case dem.PacketIDStringTables:
			length, err := readU32()
			if err != nil {
				return wrapErr(ErrReadError, "string tables length", err)
			}
			data, err := readBytes(int(length))
			if err != nil {
				return wrapErr(ErrReadError, "string tables data", err)
			}
			st, err := decodeStringTablesPacket(bitstream.NewReader(data), s)
			if err != nil {
				return err
			}
			pkt.StringTables = st
			cfg.handler().OnStringEntry(st, s.Tick, s)
		}
	}

	return nil
}

// encodeStringTablesPacket writes the symmetric counterpart of
// decodeStringTablesPacket.
func encodeStringTablesPacket(w *bitstream.Writer, pkt *dem.StringTablesPacket) error {
	if err := w.WriteBits(uint64(len(pkt.Tables)), 8); err != nil {
		return err
	}
	for _, t := range pkt.Tables {
		if err := w.WriteString(t.Name); err != nil {
			return err
		}
		if err := w.WriteBits(uint64(t.MaxEntries), 16); err != nil {
			return err
		}
		if err := w.WriteBits(uint64(len(t.Entries)), 16); err != nil {
			return err
		}
		hasFixed := t.FixedUserdataSize != nil
		if err := w.WriteBool(hasFixed); err != nil {
			return err
		}
		if hasFixed {
			if err := w.WriteBits(uint64(t.FixedUserdataSize.Size), 12); err != nil {
				return err
			}
			if err := w.WriteBits(uint64(t.FixedUserdataSize.Bits), 4); err != nil {
				return err
			}
		}
		if err := encodeStringTableEntries(w, t.MaxEntries, t.Entries, t.FixedUserdataSize); err != nil {
			return err
		}
	}
	return nil
}

// EncodePacket writes one demo packet back to its wire form: the type
// byte and tick prefix every packet carries, followed by the
// type-specific payload (§3 "Packet"). Signon/Message and UserCmd
// packets replay their stored raw payload bytes verbatim (Signon/Message
// after re-encoding their parsed CmdInfo and sequence numbers); a
// ConsoleCmd payload is rebuilt as the command string plus a NUL
// terminator; DataTables and StringTables packets are re-encoded
// structurally from their parsed form, since no raw copy of those is kept.
func EncodePacket(pkt *dem.Packet) ([]byte, error) {
	w := bitstream.NewWriter()
	if err := w.WriteBits(uint64(pkt.Type.ID), 8); err != nil {
		return nil, err
	}
	if err := w.WriteBits(uint64(uint32(pkt.Tick)), 32); err != nil {
		return nil, err
	}

	bo := binary.LittleEndian
	writeLenPrefixed := func(data []byte) error {
		var lenBuf [4]byte
		bo.PutUint32(lenBuf[:], uint32(len(data)))
		if err := w.WriteBytes(lenBuf[:]); err != nil {
			return err
		}
		return w.WriteBytes(data)
	}

	switch pkt.Type.ID {
	case dem.PacketIDSignon, dem.PacketIDMessage:
		if err := encodeCmdInfo(w, pkt.CmdInfo); err != nil {
			return nil, err
		}
		if err := w.WriteBits(uint64(uint32(pkt.SequenceIn)), 32); err != nil {
			return nil, err
		}
		if err := w.WriteBits(uint64(uint32(pkt.SequenceOut)), 32); err != nil {
			return nil, err
		}
		if err := writeLenPrefixed(pkt.MessageData); err != nil {
			return nil, err
		}

	case dem.PacketIDSyncTick, dem.PacketIDStop:
		// No payload.

	case dem.PacketIDConsoleCmd:
		data := append([]byte(pkt.ConsoleCmd), 0)
		if err := writeLenPrefixed(data); err != nil {
			return nil, err
		}

	case dem.PacketIDUserCmd:
		if err := w.WriteBits(uint64(uint32(pkt.UserCmdSequence)), 32); err != nil {
			return nil, err
		}
		if err := writeLenPrefixed(pkt.UserCmdData); err != nil {
			return nil, err
		}

	case dem.PacketIDDataTables:
		body := bitstream.NewWriter()
		if err := encodeDataTables(body, pkt.DataTables); err != nil {
			return nil, err
		}
		if err := writeLenPrefixed(body.Bytes()); err != nil {
			return nil, err
		}

	case dem.PacketIDStringTables:
		body := bitstream.NewWriter()
		if err := encodeStringTablesPacket(body, pkt.StringTables); err != nil {
			return nil, err
		}
		if err := writeLenPrefixed(body.Bytes()); err != nil {
			return nil, err
		}
	}

	return w.Bytes(), nil
}

// encodeCmdInfo writes the symmetric counterpart of readCmdInfo's
// closure inside runFrames.
func encodeCmdInfo(w *bitstream.Writer, ci *dem.CmdInfo) error {
	if err := w.WriteBitsSigned(int64(ci.Flags), 32); err != nil {
		return err
	}
	writeVec := func(v democore.Vector) error {
		if err := w.WriteFloat32(v.X); err != nil {
			return err
		}
		if err := w.WriteFloat32(v.Y); err != nil {
			return err
		}
		return w.WriteFloat32(v.Z)
	}
	for _, v := range []democore.Vector{ci.ViewOrigin, ci.ViewAngles, ci.LocalViewAngles, ci.ViewOrigin2, ci.ViewAngles2, ci.LocalViewAngles2} {
		if err := writeVec(v); err != nil {
			return err
		}
	}
	return nil
}

// EncodeDemo reassembles a full demo body from header h and the given
// packet sequence, writing the 1072-byte header followed by each
// packet's wire form in order (§6 "byte-for-byte re-encoding... must
// reproduce the original demo", §8 re-encode scenarios). Callers
// typically build packets from a Result's Handler trace or its final
// State, then pass the original Header back in unchanged.
func EncodeDemo(h *dem.Header, packets []*dem.Packet) ([]byte, error) {
	out := writeHeader(h)
	for _, pkt := range packets {
		b, err := EncodePacket(pkt)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

// decodeStringTablesPacket decodes the out-of-band StringTables packet
// (§4.2 "StringTables"): a table count followed by that many complete
// tables, each encoded the same way a CreateStringTable message encodes
// its entries (§4.6), since this packet exists to seed the tables a
// recording client needs before the signon stream starts sending
// updates against them.
func decodeStringTablesPacket(r *bitstream.Reader, s *State) (*dem.StringTablesPacket, error) {
	tableCount, err := r.ReadBits(8)
	if err != nil {
		return nil, wrapErr(ErrReadError, "string tables count", err)
	}

	pkt := &dem.StringTablesPacket{}
	for i := uint64(0); i < tableCount; i++ {
		name, err := r.ReadString()
		if err != nil {
			return nil, wrapErr(ErrReadError, "string table name", err)
		}
		maxEntries, err := r.ReadBits(16)
		if err != nil {
			return nil, wrapErr(ErrReadError, "string table max entries", err)
		}
		numEntries, err := r.ReadBits(16)
		if err != nil {
			return nil, wrapErr(ErrReadError, "string table num entries", err)
		}
		hasFixed, err := r.ReadBool()
		if err != nil {
			return nil, wrapErr(ErrReadError, "string table has-fixed bit", err)
		}
		var fixed *dem.FixedUserdataSize
		if hasFixed {
			size, err := r.ReadBits(12)
			if err != nil {
				return nil, wrapErr(ErrReadError, "string table fixed size", err)
			}
			bits, err := r.ReadBits(4)
			if err != nil {
				return nil, wrapErr(ErrReadError, "string table fixed bits", err)
			}
			fixed = &dem.FixedUserdataSize{Size: uint16(size), Bits: uint8(bits)}
		}

		entries, err := decodeStringTableEntries(r, uint32(maxEntries), int(numEntries), fixed, nil)
		if err != nil {
			return nil, err
		}

		s.registerStringTable(&dem.StringTableMeta{Name: name, MaxEntries: uint32(maxEntries), FixedUserdataSize: fixed})
		meta := s.StringTableMetaByName(name)
		for idx, e := range entries {
			if e != nil {
				s.setEntry(meta.ID, idx, e)
			}
		}

		pkt.Tables = append(pkt.Tables, &dem.StringTable{
			Name:              name,
			MaxEntries:        uint32(maxEntries),
			FixedUserdataSize: fixed,
			Entries:           entries,
		})
	}

	return pkt, nil
}
