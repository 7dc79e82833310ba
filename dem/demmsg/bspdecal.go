package demmsg

import "github.com/icza/tf2rep/dem/democore"

// BSPDecalMessage places a decal (bullet hole, scorch mark, ...) in the
// world, optionally attached to an entity/model pair (§4.3). Each
// position component is a BitCoord on the wire, with no separate
// has-X/Y/Z flag bits; a BitCoord with neither part present decodes to 0.
type BSPDecalMessage struct {
	Position     democore.Vector
	TextureIndex uint16
	EntIndex     uint16
	ModelIndex   uint16
	LowPriority  bool
}

// Type implements Message.
func (BSPDecalMessage) Type() *MessageType { return TypeByID(IDBspDecal) }
