package dem

import (
	"hash/fnv"
)

// SendPropType identifies the wire type of a SendProp definition (§3).
type SendPropType byte

// Possible SendPropType values.
const (
	SendPropTypeInt SendPropType = iota
	SendPropTypeFloat
	SendPropTypeVector
	SendPropTypeVectorXY
	SendPropTypeString
	SendPropTypeArray
	SendPropTypeDataTable
)

func (t SendPropType) String() string {
	switch t {
	case SendPropTypeInt:
		return "Int"
	case SendPropTypeFloat:
		return "Float"
	case SendPropTypeVector:
		return "Vector"
	case SendPropTypeVectorXY:
		return "VectorXY"
	case SendPropTypeString:
		return "String"
	case SendPropTypeArray:
		return "Array"
	case SendPropTypeDataTable:
		return "DataTable"
	default:
		return "Unknown"
	}
}

// SendPropFlag is a bitset of the annotation flags a RawPropDef carries (§3).
type SendPropFlag uint32

// SendPropFlag bits, in the order the Source engine defines them.
const (
	SendPropFlagUnsigned SendPropFlag = 1 << iota
	SendPropFlagCoord
	SendPropFlagNoScale
	SendPropFlagRoundDown
	SendPropFlagRoundUp
	SendPropFlagNormal
	SendPropFlagExclude
	SendPropFlagXYZE
	SendPropFlagInsideArray
	SendPropFlagProxyAlwaysYes
	SendPropFlagIsAVectorElement
	SendPropFlagCollapsible
	SendPropFlagCoordMp
	SendPropFlagCoordMpLowPrecision
	SendPropFlagCoordMpIntegral
	SendPropFlagCellCoord
	SendPropFlagCellCoordLowPrecision
	SendPropFlagCellCoordIntegral
	SendPropFlagChangesOften
	SendPropFlagVarInt
)

// Has reports whether f is set in the flag set.
func (f SendPropFlag) Has(bit SendPropFlag) bool {
	return f&bit != 0
}

// RawPropDef is the parse form of one SendTable property (§3).
type RawPropDef struct {
	Owner string // owning table's name
	Name  string
	Type  SendPropType
	Flags SendPropFlag

	Bits      uint
	LowValue  float32
	HighValue float32

	NumElements int // Array element count
	TableName   string // referenced table, for DataTable-typed / Array props

	Priority byte

	// Element is the template prop consumed from the preceding
	// InsideArray-flagged prop, set only on Array-typed props (§4.4's
	// InsideArray pairing convention).
	Element *RawPropDef
}

// PriorityChangesOften is the implicit priority assigned to ChangesOften
// props during flattening (§3 "SendTable (flattened form)").
const PriorityChangesOften = 64

// SendTableDef is the parse form of one SendTable (§3).
type SendTableDef struct {
	Name          string
	NeedsDecoder  bool
	Props         []*RawPropDef

	flattened []*FlatProp // never populated; flattened lists live in ServerClassSchema.Flat
}

// FlatProp is one entry of a server class's flattened property list (§3
// "SendTable (flattened form)"): the wire-index domain for entity updates.
type FlatProp struct {
	*RawPropDef

	// Identifier is a stable 64-bit key for (owner table, prop name),
	// used by analysers to correlate props across demos and as the
	// static-baseline cache key (§9 "Stable cross-run identifiers").
	Identifier uint64
}

// PropIdentifier computes the stable cross-run identifier for a
// (owner table, prop name) pair (§9).
func PropIdentifier(owner, name string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(owner))
	h.Write([]byte{0})
	h.Write([]byte(name))
	return h.Sum64()
}

// ServerClassSchema is the fully-resolved schema for one server class: its
// flattened property list, cached for the lifetime of the demo (§9
// "Recursive, cross-referenced schema").
type ServerClassSchema struct {
	Class *ServerClass
	Table *SendTableDef
	Flat  []*FlatProp
}
