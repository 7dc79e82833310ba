package demparser

import (
	"bytes"
	"encoding/binary"

	"github.com/icza/tf2rep/bitstream"
	"github.com/icza/tf2rep/dem"
	"github.com/icza/tf2rep/dem/demmsg"
	"github.com/klauspost/compress/snappy"
)

// historySlots is the size of the wrap-around back-reference ring the
// string-table codec maintains while decoding one entry batch (§4.6).
const historySlots = 32

// snapMagic is the 4-byte tag preceding a SNAP-framed CreateStringTable
// payload (§4.3, §4.6).
var snapMagic = [4]byte{'S', 'N', 'A', 'P'}

// decodeCreateStringTable decodes a CreateStringTableMessage (§4.3),
// including its SNAP decompression branch, and expands its entries via
// decodeStringTableEntries (§4.6).
func decodeCreateStringTable(r *bitstream.Reader) (*demmsg.CreateStringTableMessage, error) {
	name, err := r.ReadString()
	if err != nil {
		return nil, wrapErr(ErrReadError, "string table name", err)
	}
	maxEntriesBits, err := r.ReadBits(16)
	if err != nil {
		return nil, wrapErr(ErrReadError, "string table max_entries", err)
	}
	maxEntries := uint32(maxEntriesBits)

	numEntriesBits, err := r.ReadBits(bitstream.BitsForCount(int(maxEntries)-1) + 1)
	if err != nil {
		return nil, wrapErr(ErrReadError, "string table n_entries", err)
	}

	bitLen, err := r.VarInt32()
	if err != nil {
		return nil, wrapErr(ErrReadError, "string table payload bit length", err)
	}

	hasFixed, err := r.ReadBool()
	if err != nil {
		return nil, wrapErr(ErrReadError, "string table has_fixed_userdata_size", err)
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

	compressed, err := r.ReadBool()
	if err != nil {
		return nil, wrapErr(ErrReadError, "string table compressed flag", err)
	}

	payload, err := r.ReadSubStream(uint64(bitLen))
	if err != nil {
		return nil, wrapErr(ErrReadError, "string table payload", err)
	}

	msg := &demmsg.CreateStringTableMessage{
		Name:              name,
		MaxEntries:        maxEntries,
		EncodeUsingDict:   compressed,
		UserDataFixedSize: hasFixed,
		NumEntries:        uint16(numEntriesBits),
	}
	if fixed != nil {
		msg.UserDataSize, msg.UserDataSizeBits = fixed.Size, fixed.Bits
	}

	entryReader := payload
	if compressed {
		decompressed, err := decompressSnap(payload)
		if err != nil {
			return nil, err
		}
		entryReader = bitstream.NewReader(decompressed)
	}

	entries, err := decodeStringTableEntries(entryReader, maxEntries, int(numEntriesBits), fixed, nil)
	if err != nil {
		return nil, err
	}
	msg.Entries = entries
	return msg, nil
}

// encodeCreateStringTable writes the symmetric counterpart of
// decodeCreateStringTable. It always emits the uncompressed branch
// (compressed=false): re-compressing through the SNAP framing would
// need to reproduce the original encoder's exact snappy block choices
// to round-trip byte for byte, which isn't recoverable from the
// decoded entries alone.
func encodeCreateStringTable(w *bitstream.Writer, msg *demmsg.CreateStringTableMessage) error {
	if err := w.WriteString(msg.Name); err != nil {
		return err
	}
	if err := w.WriteBits(uint64(msg.MaxEntries), 16); err != nil {
		return err
	}
	if err := w.WriteBits(uint64(msg.NumEntries), bitstream.BitsForCount(int(msg.MaxEntries)-1)+1); err != nil {
		return err
	}

	hdr := bitstream.NewWriter()
	if err := hdr.WriteBool(msg.UserDataFixedSize); err != nil {
		return err
	}
	if msg.UserDataFixedSize {
		if err := hdr.WriteBits(uint64(msg.UserDataSize), 12); err != nil {
			return err
		}
		if err := hdr.WriteBits(uint64(msg.UserDataSizeBits), 4); err != nil {
			return err
		}
	}
	if err := hdr.WriteBool(false); err != nil { // compressed
		return err
	}

	var fixed *dem.FixedUserdataSize
	if msg.UserDataFixedSize {
		fixed = &dem.FixedUserdataSize{Size: msg.UserDataSize, Bits: msg.UserDataSizeBits}
	}
	payload := bitstream.NewWriter()
	if err := encodeStringTableEntries(payload, msg.MaxEntries, msg.Entries, fixed); err != nil {
		return err
	}

	if err := w.WriteVarInt32(uint32(payload.BitLen())); err != nil {
		return err
	}
	if err := w.Append(hdr); err != nil {
		return err
	}
	return w.Append(payload)
}

// encodeUpdateStringTable writes the symmetric counterpart of
// decodeUpdateStringTable.
func encodeUpdateStringTable(w *bitstream.Writer, meta *dem.StringTableMeta, msg *demmsg.UpdateStringTableMessage) error {
	if err := w.WriteBits(uint64(msg.TableID), 5); err != nil {
		return err
	}
	hasExplicitCount := msg.NumChanged != 1
	if err := w.WriteBool(hasExplicitCount); err != nil {
		return err
	}
	if hasExplicitCount {
		if err := w.WriteBits(uint64(msg.NumChanged), 16); err != nil {
			return err
		}
	}

	payload := bitstream.NewWriter()
	if err := encodeStringTableEntries(payload, meta.MaxEntries, msg.Entries, meta.FixedUserdataSize); err != nil {
		return err
	}

	if err := w.WriteBits(payload.BitLen(), 20); err != nil {
		return err
	}
	return w.Append(payload)
}

// encodeStringTableEntries writes the symmetric counterpart of
// decodeStringTableEntries. Every entry is written with its literal text,
// as a sequential entry (one bit) when it directly follows the previous
// one and with an absolute index otherwise (the fromHistory back-reference branch is
// a decode-side space optimization with no bearing on decoded meaning,
// so the encoder never emits it).
func encodeStringTableEntries(w *bitstream.Writer, maxEntries uint32, entries []*dem.StringTableEntry, fixed *dem.FixedUserdataSize) error {
	entryBits := bitstream.BitsForCount(int(maxEntries) - 1)

	lastIndex := -1
	for idx, e := range entries {
		if e == nil {
			continue
		}
		sequential := idx == lastIndex+1
		if err := w.WriteBool(sequential); err != nil {
			return err
		}
		if !sequential {
			if err := w.WriteBits(uint64(idx), entryBits); err != nil {
				return err
			}
		}
		lastIndex = idx

		if err := w.WriteBool(true); err != nil { // has-text
			return err
		}
		if err := w.WriteBool(false); err != nil { // from-history
			return err
		}
		if err := w.WriteString(e.Text); err != nil {
			return err
		}

		hasExtra := e.ExtraData != nil
		if err := w.WriteBool(hasExtra); err != nil {
			return err
		}
		if hasExtra {
			var nbits uint
			if fixed != nil {
				nbits = uint(fixed.Bits)
			} else {
				nbits = uint(len(e.ExtraData)) * 8
				if err := w.WriteBits(uint64(len(e.ExtraData)), 14); err != nil {
					return err
				}
			}
			if err := writeExtraDataBits(w, nbits, e.ExtraData); err != nil {
				return err
			}
		}
	}
	return nil
}

// decompressSnap implements the SNAP decompression framing of §4.6: a
// 4-byte uncompressed size, the "SNAP" magic, a 4-byte compressed size,
// then the SNAP-framed bytes themselves.
func decompressSnap(r *bitstream.Reader) ([]byte, error) {
	header, err := r.ReadBytes(12)
	if err != nil {
		return nil, wrapErr(ErrReadError, "snap header", err)
	}
	uncompressedSize := binary.LittleEndian.Uint32(header[0:4])
	if !bytes.Equal(header[4:8], snapMagic[:]) {
		return nil, newErr(ErrUnexpectedCompressionType, "missing SNAP magic")
	}
	compressedSize := binary.LittleEndian.Uint32(header[8:12])

	compressed, err := r.ReadBytes(int(compressedSize))
	if err != nil {
		return nil, wrapErr(ErrReadError, "snap payload", err)
	}

	decompressed, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, wrapErr(ErrSnap, "snappy decode", err)
	}
	if uint32(len(decompressed)) != uncompressedSize {
		return nil, newErr(ErrUnexpectedDecompressedSize, "")
	}
	return decompressed, nil
}

// decodeUpdateStringTable decodes an UpdateStringTableMessage (§4.3)
// against the meta and current entries registered for TableID.
func decodeUpdateStringTable(r *bitstream.Reader, s *State) (*demmsg.UpdateStringTableMessage, error) {
	tableIDBits, err := r.ReadBits(5)
	if err != nil {
		return nil, wrapErr(ErrReadError, "update string table id", err)
	}
	tableID := byte(tableIDBits)

	meta := s.StringTableMetaByID(int(tableID))
	if meta == nil {
		return nil, newErr(ErrStringTableNotFound, "")
	}

	hasExplicitCount, err := r.ReadBool()
	if err != nil {
		return nil, wrapErr(ErrReadError, "update string table has-count bit", err)
	}
	numChanged := uint16(1)
	if hasExplicitCount {
		n, err := r.ReadBits(16)
		if err != nil {
			return nil, wrapErr(ErrReadError, "update string table count", err)
		}
		numChanged = uint16(n)
	}

	bitLen, err := r.ReadBits(20)
	if err != nil {
		return nil, wrapErr(ErrReadError, "update string table payload length", err)
	}
	payload, err := r.ReadSubStream(bitLen)
	if err != nil {
		return nil, wrapErr(ErrReadError, "update string table payload", err)
	}

	existing := s.tableEntries[int(tableID)]
	entries, err := decodeStringTableEntries(payload, meta.MaxEntries, int(numChanged), meta.FixedUserdataSize, existing)
	if err != nil {
		return nil, err
	}

	for i, e := range entries {
		if e != nil {
			s.setEntry(int(tableID), i, e)
		}
	}

	return &demmsg.UpdateStringTableMessage{
		TableID:    tableID,
		NumChanged: numChanged,
		Entries:    entries,
	}, nil
}

// decodeStringTableEntries implements §4.6's shared entry-batch codec:
// a 32-slot history ring for substring back-references, shared by
// CreateStringTable (existing == nil) and UpdateStringTable (existing is
// the table's current entries). The ring starts empty on every call.
func decodeStringTableEntries(r *bitstream.Reader, maxEntries uint32, numEntries int, fixed *dem.FixedUserdataSize, existing []*dem.StringTableEntry) ([]*dem.StringTableEntry, error) {
	entryBits := bitstream.BitsForCount(int(maxEntries) - 1)

	out := append([]*dem.StringTableEntry(nil), existing...)
	grow := func(n int) {
		if n >= len(out) {
			grown := make([]*dem.StringTableEntry, n+1)
			copy(grown, out)
			out = grown
		}
	}

	var history [historySlots]string
	historyLen := 0
	pushHistory := func(s string) {
		history[historyLen%historySlots] = s
		historyLen++
	}

	lastIndex := -1
	for i := 0; i < numEntries; i++ {
		sequential, err := r.ReadBool()
		if err != nil {
			return nil, wrapErr(ErrReadError, "string table entry index bit", err)
		}
		var index int
		if sequential {
			index = lastIndex + 1
		} else {
			idx, err := r.ReadBits(entryBits)
			if err != nil {
				return nil, wrapErr(ErrReadError, "string table entry absolute index", err)
			}
			index = int(idx)
		}
		lastIndex = index
		if index >= int(maxEntries) {
			return nil, newErr(ErrStringTableNotFound, "entry index beyond max_entries")
		}
		grow(index)

		hasText, err := r.ReadBool()
		if err != nil {
			return nil, wrapErr(ErrReadError, "string table entry has-text bit", err)
		}
		var text string
		textSet := false
		if hasText {
			fromHistory, err := r.ReadBool()
			if err != nil {
				return nil, wrapErr(ErrReadError, "string table entry from-history bit", err)
			}
			if fromHistory {
				slot, err := r.ReadBits(5)
				if err != nil {
					return nil, wrapErr(ErrReadError, "string table history slot", err)
				}
				count, err := r.ReadBits(5)
				if err != nil {
					return nil, wrapErr(ErrReadError, "string table history byte count", err)
				}
				tail, _, valid, err := r.ReadText()
				if err != nil {
					return nil, wrapErr(ErrReadError, "string table history tail", err)
				}
				if !valid {
					tail = "-- Malformed utf8 --"
				}
				prefixSrc := history[slot%historySlots]
				n := int(count)
				if n > len(prefixSrc) {
					n = len(prefixSrc)
				}
				text = prefixSrc[:n] + tail
			} else {
				value, _, valid, err := r.ReadText()
				if err != nil {
					return nil, wrapErr(ErrReadError, "string table entry text", err)
				}
				if !valid {
					value = "-- Malformed utf8 --"
				}
				text = value
			}
			textSet = true
		}

		hasExtra, err := r.ReadBool()
		if err != nil {
			return nil, wrapErr(ErrReadError, "string table entry has-extra bit", err)
		}
		var extra []byte
		extraSet := false
		if hasExtra {
			var nbits uint
			if fixed != nil {
				nbits = uint(fixed.Bits)
			} else {
				length, err := r.ReadBits(14)
				if err != nil {
					return nil, wrapErr(ErrReadError, "string table entry extra length", err)
				}
				nbits = uint(length) * 8
			}
			bytesOut, err := readExtraDataBits(r, nbits)
			if err != nil {
				return nil, err
			}
			extra = bytesOut
			extraSet = true
		}

		prior := out[index]
		entry := &dem.StringTableEntry{}
		switch {
		case textSet:
			entry.Text = text
		case prior != nil:
			entry.Text = prior.Text
		}
		switch {
		case extraSet:
			entry.ExtraData = extra
		case prior != nil:
			entry.ExtraData = prior.ExtraData
		}
		out[index] = entry

		pushHistory(entry.Text)
	}

	return out, nil
}

// writeExtraDataBits writes the low n bits of data (packed the same
// byte-aligned way readExtraDataBits returns them) as the symmetric
// counterpart of readExtraDataBits.
func writeExtraDataBits(w *bitstream.Writer, n uint, data []byte) error {
	var filled uint
	for filled < n {
		take := uint(8)
		if n-filled < 8 {
			take = n - filled
		}
		if err := w.WriteBits(uint64(data[filled/8]), take); err != nil {
			return err
		}
		filled += take
	}
	return nil
}

// readExtraDataBits reads n bits of entry extra-data and packs them
// byte-aligned (partial trailing bits are zero-padded into the final byte).
func readExtraDataBits(r *bitstream.Reader, n uint) ([]byte, error) {
	nbytes := (n + 7) / 8
	out := make([]byte, nbytes)
	var filled uint
	for filled < n {
		take := uint(8)
		if n-filled < 8 {
			take = n - filled
		}
		v, err := r.ReadBits(take)
		if err != nil {
			return nil, wrapErr(ErrReadError, "string table extra data", err)
		}
		out[filled/8] = byte(v)
		filled += take
	}
	return out, nil
}
