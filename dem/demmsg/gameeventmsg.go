package demmsg

import "github.com/icza/tf2rep/dem"

// GameEventListMessage is the catalogue of GameEvent shapes used by the
// rest of the demo, sent once near the start of the signon packet
// (§4.3, §4.8). It is stateful: demparser registers the definitions in
// the parser state so later GameEventMessages can be decoded.
type GameEventListMessage struct {
	Definitions []*dem.GameEventDefinition
}

// Type implements Message.
func (GameEventListMessage) Type() *MessageType { return TypeByID(IDGameEventList) }

// GameEventMessage carries one fired event, decoded against the
// definition catalogue registered by GameEventListMessage (§4.3). If
// the referenced definition id is unknown, Event.Unknown is true and
// Event.Values is empty (§9 "Unknown enumerants").
type GameEventMessage struct {
	Event *dem.GameEvent
}

// Type implements Message.
func (GameEventMessage) Type() *MessageType { return TypeByID(IDGameEvent) }
