package demmsg

import (
	"github.com/icza/tf2rep/dem"
	"github.com/icza/tf2rep/dem/democore"
)

// EventInfo is one fired temp-entity effect (a one-shot, non-networked
// entity such as a muzzle flash or blood splatter) within a
// TempEntitiesMessage (§4.7, "TempEntities").
type EventInfo struct {
	ClassID   democore.ClassID
	FireDelay float32
	Reliable  bool
	Props     []*dem.SendProp
}

// TempEntitiesMessage carries a batch of fired temp-entity events
// (§4.7). Its payload length field is protocol-version-dependent: demos
// with protocol_version > 23 encode it as a VarInt32, earlier demos as
// a fixed 17-bit integer (§8, scenario 6). A wire Count of 0 is a
// shorthand for exactly one Reliable event.
type TempEntitiesMessage struct {
	Events []*EventInfo
}

// Type implements Message.
func (TempEntitiesMessage) Type() *MessageType { return TypeByID(IDTempEntities) }
