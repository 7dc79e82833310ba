// Package demmsg contains the message variants carried inside Signon/Message
// packets (C3, §4.3): the TF2-domain generalization of screp's rep/repcmd
// package, which plays the analogous role for StarCraft command variants.
package demmsg

import "github.com/icza/tf2rep/dem/democore"

// MessageType identifies one of the message variants (§4.3).
type MessageType struct {
	democore.Enum

	// ID is the 6-bit tag as it appears on the wire.
	ID byte
}

// Message type IDs, in the order the Source engine defines them.
const (
	IDEmpty             byte = 0
	IDFile              byte = 2
	IDNetTick           byte = 3
	IDStringCmd         byte = 4
	IDSetConVar         byte = 5
	IDSigOnState        byte = 6
	IDPrint             byte = 7
	IDServerInfo        byte = 8
	IDClassInfo         byte = 10
	IDSetPause          byte = 11
	IDCreateStringTable byte = 12
	IDUpdateStringTable byte = 13
	IDVoiceInit         byte = 14
	IDVoiceData         byte = 15
	IDParseSounds       byte = 17
	IDSetView           byte = 18
	IDFixAngle          byte = 19
	IDBspDecal          byte = 21
	IDUserMessage       byte = 23
	IDEntityMessage     byte = 24
	IDGameEvent         byte = 25
	IDPacketEntities    byte = 26
	IDTempEntities      byte = 27
	IDPreFetch          byte = 28
	IDMenu              byte = 29
	IDGameEventList     byte = 30
	IDGetCvarValue      byte = 31
	IDCmdKeyValues      byte = 32
)

func e(name string, id byte) *MessageType {
	return &MessageType{democore.Enum{Name: name}, id}
}

// Types enumerates the possible message types.
var Types = []*MessageType{
	e("Empty", IDEmpty),
	e("File", IDFile),
	e("NetTick", IDNetTick),
	e("StringCmd", IDStringCmd),
	e("SetConVar", IDSetConVar),
	e("SigOnState", IDSigOnState),
	e("Print", IDPrint),
	e("ServerInfo", IDServerInfo),
	e("ClassInfo", IDClassInfo),
	e("SetPause", IDSetPause),
	e("CreateStringTable", IDCreateStringTable),
	e("UpdateStringTable", IDUpdateStringTable),
	e("VoiceInit", IDVoiceInit),
	e("VoiceData", IDVoiceData),
	e("ParseSounds", IDParseSounds),
	e("SetView", IDSetView),
	e("FixAngle", IDFixAngle),
	e("BspDecal", IDBspDecal),
	e("UserMessage", IDUserMessage),
	e("EntityMessage", IDEntityMessage),
	e("GameEvent", IDGameEvent),
	e("PacketEntities", IDPacketEntities),
	e("TempEntities", IDTempEntities),
	e("PreFetch", IDPreFetch),
	e("Menu", IDMenu),
	e("GameEventList", IDGameEventList),
	e("GetCvarValue", IDGetCvarValue),
	e("CmdKeyValues", IDCmdKeyValues),
}

var typesByID = func() map[byte]*MessageType {
	m := make(map[byte]*MessageType, len(Types))
	for _, t := range Types {
		m[t.ID] = t
	}
	return m
}()

// TypeByID returns the MessageType for id, or nil if id is unrecognized
// (unknown message tags are fatal per §4.3).
func TypeByID(id byte) *MessageType {
	return typesByID[id]
}

// Message is the interface implemented by every decoded message variant.
type Message interface {
	// Type returns the message's MessageType.
	Type() *MessageType
}

// Stateful reports whether the parser state (C8) mutates in response to
// this message type, per §4.8's "stateful" channel list.
func Stateful(t *MessageType) bool {
	switch t.ID {
	case IDServerInfo, IDNetTick, IDGameEventList, IDCreateStringTable,
		IDUpdateStringTable, IDPacketEntities:
		return true
	default:
		return false
	}
}
