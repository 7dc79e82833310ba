// Package democore contains the small shared value types used throughout
// the dem and demparser packages: the TF2-domain generalization of
// screp's rep/repcore package (Enum, Frame, Point).
package democore

import (
	"fmt"
	"time"

	"github.com/icza/gox/timex"
)

// Enum is the base / common part of enum-like wire value types, mirroring
// repcore.Enum: a named value plus (in the embedding type) its wire ID.
type Enum struct {
	// Name of the entity.
	Name string
}

// String returns the name.
func (e Enum) String() string {
	return e.Name
}

// UnknownEnum constructs an Enum for an unrecognized wire value, preserving
// the ID in the name the way repcore.UnknownEnum does.
func UnknownEnum(id any) Enum {
	return Enum{Name: fmt.Sprintf("Unknown 0x%x", id)}
}

// Tick is the demo's basic time unit: one simulation step.
// The generalization of repcore.Frame to the Source engine's tick clock.
type Tick int32

// Duration converts t to a time.Duration given the demo's interval per
// tick (read from the ServerInfo message, kept as demparser.State.IntervalPerTick),
// the direct generalization of repcore.Frame.Duration(). The raw product
// is rounded to the nearest millisecond with timex.Round, matching the
// millisecond granularity screp reports replay times at.
func (t Tick) Duration(intervalPerTick float32) time.Duration {
	raw := time.Duration(float64(t) * float64(intervalPerTick) * float64(time.Second))
	return timex.Round(raw, time.Millisecond)
}

// EntityID identifies an entity slot (§3 "Entity slot").
// Distinct type per the teacher's convention of wrapping wire identifiers
// (repcmd.UnitTag) rather than passing raw integers around.
type EntityID uint32

// ClassID identifies a server class (§3 "SendTable (parse form)").
type ClassID uint16

// Point is a 2D integer coordinate, the TF2-domain analogue of repcore.Point.
type Point struct {
	X, Y uint16
}

func (p Point) String() string {
	return fmt.Sprintf("x=%d, y=%d", p.X, p.Y)
}

// Vector is a decoded 3-component SendProp value (§3 "SendProp value").
type Vector struct {
	X, Y, Z float32
}

func (v Vector) String() string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", v.X, v.Y, v.Z)
}

// VectorXY is a decoded 2-component SendProp value.
type VectorXY struct {
	X, Y float32
}

func (v VectorXY) String() string {
	return fmt.Sprintf("(%.2f, %.2f)", v.X, v.Y)
}

// Text is a string that remembers whether it decoded as valid UTF-8,
// ported from original_source's MaybeUtf8String (SPEC_FULL.md §3) so a
// malformed chat message or player name doesn't silently lose its raw
// bytes when the placeholder substitution (§7 MalformedUTF8) kicks in.
type Text struct {
	Value string
	Raw   []byte
	Valid bool
}

// NewText builds a Text from a decoded value/raw/valid triple, as returned
// by bitstream.Reader.ReadText.
func NewText(value string, raw []byte, valid bool) Text {
	return Text{Value: value, Raw: raw, Valid: valid}
}

// String returns the best-effort display value: the decoded text if valid,
// or a placeholder otherwise (§7 MalformedUTF8 recovery policy).
func (t Text) String() string {
	if t.Valid {
		return t.Value
	}
	return "-- Malformed utf8 --"
}
