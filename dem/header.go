// Package dem models a parsed TF2 demo: the header, packet stream, schema
// (SendTables), string tables and game-event catalogue. It is the
// TF2-domain generalization of screp's rep package.
package dem

// Header models the fixed 1072-byte demo prelude (§3 "Demo header").
type Header struct {
	// Magic is the 8-byte ASCII tag with its NUL terminator stripped
	// (HeaderMagic, "HL2DEMO").
	Magic string

	// DemoProtocol is the demo file format version.
	DemoProtocol uint32

	// NetworkProtocol is the network protocol version (§6: 15-24 supported).
	NetworkProtocol uint32

	// Server is the server's hostname/address.
	Server string

	// Nick is the recording client's name.
	Nick string

	// Map is the map name.
	Map string

	// Game is the game directory (e.g. "tf").
	Game string

	// PlaybackSeconds is the total playback duration.
	PlaybackSeconds float32

	// Ticks is the total tick count.
	Ticks uint32

	// Frames is the total frame count.
	Frames uint32

	// SignonLength is the length in bytes of the signon data.
	SignonLength uint32
}

const (
	// HeaderMagic is the expected value of Header.Magic.
	HeaderMagic = "HL2DEMO"

	// HeaderSize is the fixed byte size of the header prelude (§3).
	HeaderSize = 1072

	fixedStringSize = 260
)
