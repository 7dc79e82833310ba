package dem

import "github.com/icza/tf2rep/dem/democore"

// PacketType identifies one of the eight demo packet variants (§3 "Packet").
type PacketType struct {
	democore.Enum

	// ID as it appears in the demo.
	ID byte
}

// Packet type IDs, in wire order.
const (
	PacketIDSignon        byte = 1
	PacketIDMessage       byte = 2
	PacketIDSyncTick      byte = 3
	PacketIDConsoleCmd    byte = 4
	PacketIDUserCmd       byte = 5
	PacketIDDataTables    byte = 6
	PacketIDStop          byte = 7
	PacketIDStringTables  byte = 8
)

// PacketTypes enumerates the possible packet types.
var PacketTypes = []*PacketType{
	{democore.Enum{Name: "Signon"}, PacketIDSignon},
	{democore.Enum{Name: "Message"}, PacketIDMessage},
	{democore.Enum{Name: "SyncTick"}, PacketIDSyncTick},
	{democore.Enum{Name: "ConsoleCmd"}, PacketIDConsoleCmd},
	{democore.Enum{Name: "UserCmd"}, PacketIDUserCmd},
	{democore.Enum{Name: "DataTables"}, PacketIDDataTables},
	{democore.Enum{Name: "Stop"}, PacketIDStop},
	{democore.Enum{Name: "StringTables"}, PacketIDStringTables},
}

// PacketTypeByID returns the PacketType for id, or nil if id is unknown
// (unlike most other enums in this module, an unknown packet type is fatal
// per §2/§4.2, so callers must check for nil).
func PacketTypeByID(id byte) *PacketType {
	for _, pt := range PacketTypes {
		if pt.ID == id {
			return pt
		}
	}
	return nil
}

// CmdInfo carries the view/origin/angles frame and I/O sequence numbers
// that prefix every Signon/Message packet (§3 "Packet").
type CmdInfo struct {
	Flags int32

	ViewOrigin      democore.Vector
	ViewAngles      democore.Vector
	LocalViewAngles democore.Vector

	// Secondary view, used for split-screen recordings; zero-valued for
	// the overwhelmingly common single-view case.
	ViewOrigin2      democore.Vector
	ViewAngles2      democore.Vector
	LocalViewAngles2 democore.Vector
}

// Packet is the closed sum type over the eight demo packet variants (§3).
// Exactly one of the fields is non-nil, selected by Type.
type Packet struct {
	Type *PacketType
	Tick democore.Tick

	// Signon/Message payload.
	CmdInfo      *CmdInfo
	SequenceIn   int32
	SequenceOut  int32
	MessageData  []byte // raw bit-packed payload, decoded by demparser's message codec

	// DataTables payload.
	DataTables *DataTablesPacket

	// StringTables payload.
	StringTables *StringTablesPacket

	// ConsoleCmd payload: the raw console command string.
	ConsoleCmd string

	// UserCmd payload.
	UserCmdSequence int32
	UserCmdData     []byte

	// SyncTick and Stop carry no additional payload.
}

// DataTablesPacket is the parsed form of the DataTables packet (§4.4):
// the raw SendTable schema plus the server-class list, before flattening.
type DataTablesPacket struct {
	Tables        []*SendTableDef
	ServerClasses []*ServerClass
}

// ServerClass binds a network entity type to its SendTable (§3).
type ServerClass struct {
	ID          democore.ClassID
	Name        string
	DataTable   string
}

// StringTablesPacket is the parsed form of the out-of-band StringTables
// packet (§4.3's description of the StringTables variant).
type StringTablesPacket struct {
	Tables []*StringTable
}
