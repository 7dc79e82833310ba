package demmsg

// EmptyMessage carries no payload (§4.3).
type EmptyMessage struct{}

// Type implements Message.
func (EmptyMessage) Type() *MessageType { return TypeByID(IDEmpty) }

// FileMessage references an external file the client should load
// (e.g. a custom sound or model), by transfer ID and path.
type FileMessage struct {
	TransferID uint32
	Filename   string
	Requested  bool // true if the server is requesting the file FROM the client
}

// Type implements Message.
func (FileMessage) Type() *MessageType { return TypeByID(IDFile) }

// NetTickMessage reports the server's current tick and frame timing;
// it is one of the stateful message types (advances democore.Tick, §4.8).
type NetTickMessage struct {
	Tick              uint32
	HostFrameTime     uint16
	HostFrameTimeStdDev uint16
}

// Type implements Message.
func (NetTickMessage) Type() *MessageType { return TypeByID(IDNetTick) }

// StringCmdMessage is a console command string echoed from the server.
type StringCmdMessage struct {
	Command string
}

// Type implements Message.
func (StringCmdMessage) Type() *MessageType { return TypeByID(IDStringCmd) }

// ConVar is one key/value pair of a SetConVarMessage.
type ConVar struct {
	Key   string
	Value string
}

// SetConVarMessage carries a batch of console variable assignments. A
// malformed key or value string is recovered with a placeholder rather
// than aborting the whole message (mirrors the Rust original's
// unwrap_or_else fallback).
type SetConVarMessage struct {
	Vars []ConVar
}

// Type implements Message.
func (SetConVarMessage) Type() *MessageType { return TypeByID(IDSetConVar) }

// SigOnStateMessage reports a signon-state transition during connect.
type SigOnStateMessage struct {
	State        byte
	Count        uint32
	SpawnCount   uint32
}

// Type implements Message.
func (SigOnStateMessage) Type() *MessageType { return TypeByID(IDSigOnState) }

// PrintMessage is a plain text string printed to the client console.
type PrintMessage struct {
	Value string
}

// Type implements Message.
func (PrintMessage) Type() *MessageType { return TypeByID(IDPrint) }

// SetPauseMessage toggles whether the server simulation is paused.
type SetPauseMessage struct {
	Paused bool
}

// Type implements Message.
func (SetPauseMessage) Type() *MessageType { return TypeByID(IDSetPause) }

// VoiceInitMessage announces the voice codec used for subsequent
// VoiceDataMessages (§4.3).
type VoiceInitMessage struct {
	Codec     string
	Quality   byte
	ExtraData uint16
}

// Type implements Message.
func (VoiceInitMessage) Type() *MessageType { return TypeByID(IDVoiceInit) }

// VoiceDataMessage carries one frame of compressed voice audio. Payload
// bytes are kept raw; decoding the codec itself is out of scope (§4, Non-goals).
type VoiceDataMessage struct {
	Client     byte
	Proximity  byte
	Data       []byte
}

// Type implements Message.
func (VoiceDataMessage) Type() *MessageType { return TypeByID(IDVoiceData) }

// ParseSoundsMessage carries one or more sound-play events; Data holds
// the raw, still-bit-packed sound info block (decoding individual sound
// entries is out of scope, §4 Non-goals).
type ParseSoundsMessage struct {
	Reliable bool
	Count    byte
	Data     []byte
}

// Type implements Message.
func (ParseSoundsMessage) Type() *MessageType { return TypeByID(IDParseSounds) }

// SetViewMessage sets the entity the client's camera is attached to.
type SetViewMessage struct {
	EntityIndex int32
}

// Type implements Message.
func (SetViewMessage) Type() *MessageType { return TypeByID(IDSetView) }

// FixAngleMessage forces the client's view angle, e.g. after a teleport.
type FixAngleMessage struct {
	Relative bool
	X, Y, Z  float32
}

// Type implements Message.
func (FixAngleMessage) Type() *MessageType { return TypeByID(IDFixAngle) }

// EntityMessage carries an arbitrary, still bit-packed entity-scoped
// event; Data holds the raw payload (§4, Non-goals: not decoded further).
type EntityMessage struct {
	Data []byte
}

// Type implements Message.
func (EntityMessage) Type() *MessageType { return TypeByID(IDEntityMessage) }

// PreFetchMessage tells the client to precache a resource by index. The
// index's bit width depends on the demo's protocol version (§4.3).
type PreFetchMessage struct {
	Index uint16
}

// Type implements Message.
func (PreFetchMessage) Type() *MessageType { return TypeByID(IDPreFetch) }

// MenuMessage opens a client-side menu; Data holds the still bit-packed
// menu body (§4, Non-goals: contents not decoded further).
type MenuMessage struct {
	MenuType int16
	Data     []byte
}

// Type implements Message.
func (MenuMessage) Type() *MessageType { return TypeByID(IDMenu) }

// GetCvarValueMessage asks the client to report one console variable's
// current value back to the server.
type GetCvarValueMessage struct {
	Cookie   int32
	CvarName string
}

// Type implements Message.
func (GetCvarValueMessage) Type() *MessageType { return TypeByID(IDGetCvarValue) }

// CmdKeyValuesMessage carries an opaque KeyValues-encoded blob (used by
// some mods for custom handshake data); not decoded further (§4, Non-goals).
type CmdKeyValuesMessage struct {
	Data []byte
}

// Type implements Message.
func (CmdKeyValuesMessage) Type() *MessageType { return TypeByID(IDCmdKeyValues) }

// ClassInfoEntry maps one server class id to its name and owning table,
// present only when a ClassInfoMessage carries Create=false.
type ClassInfoEntry struct {
	ClassID   uint16
	ClassName string
	TableName string
}

// ClassInfoMessage is a legacy (pre-DataTables) way of enumerating
// server classes; rarely seen in modern TF2 demos (§4.3).
type ClassInfoMessage struct {
	Create  bool
	Entries []ClassInfoEntry
}

// Type implements Message.
func (ClassInfoMessage) Type() *MessageType { return TypeByID(IDClassInfo) }
