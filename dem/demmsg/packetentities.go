package demmsg

import (
	"github.com/icza/tf2rep/dem"
	"github.com/icza/tf2rep/dem/democore"
)

// PVS classifies how an entity transitions within one PacketEntities
// update (§4.7): whether it enters, leaves, is preserved, or deleted
// from the client's potentially-visible set.
type PVS byte

// Possible PVS values; the 2-bit wire discriminant matches this order.
const (
	PVSPreserve PVS = iota
	PVSLeave
	PVSEnter
	PVSDelete
)

func (p PVS) String() string {
	switch p {
	case PVSPreserve:
		return "Preserve"
	case PVSLeave:
		return "Leave"
	case PVSEnter:
		return "Enter"
	case PVSDelete:
		return "Delete"
	default:
		return "Unknown"
	}
}

// PacketEntity is one entity's decoded state within a PacketEntities
// update (§4.7): its server class, current property values, and PVS
// transition for this packet.
type PacketEntity struct {
	ServerClass  democore.ClassID
	EntityIndex  democore.EntityID
	Props        []*dem.SendProp
	InPVS        bool
	PVS          PVS
	SerialNumber uint32

	// Delay is not read from the wire by demparser's PacketEntities
	// decoder and is always nil in decoded entities.
	Delay *uint32
}

// PacketEntitiesMessage is the core per-tick entity-delta envelope
// (§4.7, the busiest message type in any demo). UpdatedEntries gives the
// wire-level count of entity transitions baked into the payload;
// Entities is the result after C7 has applied them against parser state.
type PacketEntitiesMessage struct {
	MaxEntries      uint16
	Delta           *uint32 // non-nil: this update is relative to tick Delta
	BaseLine        byte    // selects which of the 2 baseline slots to read/write
	UpdatedEntries  uint16
	UpdatedBaseLine bool

	Entities        []*PacketEntity
	RemovedEntities []democore.EntityID
}

// Type implements Message.
func (PacketEntitiesMessage) Type() *MessageType { return TypeByID(IDPacketEntities) }
