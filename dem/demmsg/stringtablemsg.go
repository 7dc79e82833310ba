package demmsg

import "github.com/icza/tf2rep/dem"

// CreateStringTableMessage introduces a new string table and its
// initial contents in one shot (§4.3, §4.6). Decoding its entry list
// requires the 32-slot history ring described in §4.6; demparser
// produces the flattened dem.StringTable from the raw fields here.
type CreateStringTableMessage struct {
	Name              string
	MaxEntries        uint32
	EncodeUsingDict   bool // SNAP-compressed payload, see §4.6
	UserDataFixedSize bool
	UserDataSize      uint16
	UserDataSizeBits  uint8

	// NumEntries is the wire entry count. Data is not populated by
	// demparser: its string-table codec (C6) decodes the (SNAP-decompressed,
	// when EncodeUsingDict is set) entry list straight into Entries.
	NumEntries uint16
	Data       []byte

	Entries []*dem.StringTableEntry
}

// Type implements Message.
func (CreateStringTableMessage) Type() *MessageType { return TypeByID(IDCreateStringTable) }

// UpdateStringTableMessage applies incremental entry changes to a table
// previously introduced by a CreateStringTableMessage (§4.3, §4.6). The
// table is identified by TableID against the parser's StringTableMeta
// registry (§4.8), not by name.
type UpdateStringTableMessage struct {
	TableID    byte
	NumChanged uint16
	Data       []byte

	Entries []*dem.StringTableEntry
}

// Type implements Message.
func (UpdateStringTableMessage) Type() *MessageType { return TypeByID(IDUpdateStringTable) }
