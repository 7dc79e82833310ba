package dem

// GameEventValueType identifies the wire type of one game-event field (§3).
type GameEventValueType byte

// Possible GameEventValueType values.
const (
	GameEventValueString GameEventValueType = iota
	GameEventValueFloat
	GameEventValueLong
	GameEventValueShort
	GameEventValueByte
	GameEventValueBoolean
	GameEventValueLocal
	GameEventValueNone
)

// GameEventEntry describes one field of a GameEventDefinition.
type GameEventEntry struct {
	Name string
	Type GameEventValueType
}

// GameEventDefinition is one entry of the GameEventList catalogue (§3).
type GameEventDefinition struct {
	ID      int
	Name    string
	Entries []GameEventEntry
}

// GameEventValue is a tagged union over one decoded game-event field value.
type GameEventValue struct {
	Type GameEventValueType

	Str  string
	F32  float32
	U32  uint32
	U16  uint16
	U8   uint8
	Bool bool
}

// GameEvent is a decoded GameEvent message payload: the matched
// definition's id/name plus the field values in definition order.
type GameEvent struct {
	ID     int
	Name   string // empty ("") for an id with no known definition
	Values map[string]GameEventValue

	// Unknown is true when ID had no matching GameEventDefinition; Values
	// is empty and the caller only has ID to go on (§4.3, §9).
	Unknown bool
}
