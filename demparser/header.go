package demparser

import (
	"encoding/binary"
	"math"

	"github.com/icza/tf2rep/dem"
)

// Byte offsets of the header's fixed-size fields (§3 "Demo header").
const (
	offMagic           = 0x000
	offDemoProtocol    = 0x008
	offNetworkProtocol = 0x00c
	offServer          = 0x010
	offNick            = offServer + fixedStringSize
	offMap             = offNick + fixedStringSize
	offGame            = offMap + fixedStringSize
	offPlaybackSeconds = offGame + fixedStringSize
	offTicks           = offPlaybackSeconds + 4
	offFrames          = offTicks + 4
	offSignonLength    = offFrames + 4
)

// parseHeader decodes the fixed 1072-byte demo header (§3, §8 "header
// round-trip law"). data must be at least dem.HeaderSize bytes.
func parseHeader(data []byte) (*dem.Header, error) {
	if len(data) < dem.HeaderSize {
		return nil, newErr(ErrReadError, "header shorter than 1072 bytes")
	}
	bo := binary.LittleEndian

	h := &dem.Header{
		Magic:           cString(data[offMagic : offMagic+8]),
		DemoProtocol:    bo.Uint32(data[offDemoProtocol:]),
		NetworkProtocol: bo.Uint32(data[offNetworkProtocol:]),
		Server:          cString(data[offServer : offServer+fixedStringSize]),
		Nick:            cString(data[offNick : offNick+fixedStringSize]),
		Map:             cString(data[offMap : offMap+fixedStringSize]),
		Game:            cString(data[offGame : offGame+fixedStringSize]),
		PlaybackSeconds: math.Float32frombits(bo.Uint32(data[offPlaybackSeconds:])),
	}
	h.Ticks = bo.Uint32(data[offTicks:])
	h.Frames = bo.Uint32(data[offFrames:])
	h.SignonLength = bo.Uint32(data[offSignonLength:])

	if h.Magic != dem.HeaderMagic {
		return nil, newErr(ErrInvalidDemo, "bad magic: "+h.Magic)
	}

	return h, nil
}

// writeHeader encodes h back into its fixed 1072-byte wire form,
// matching parseHeader byte for byte on a demo that round-trips cleanly
// (§8 "header round-trip law").
func writeHeader(h *dem.Header) []byte {
	buf := make([]byte, dem.HeaderSize)
	bo := binary.LittleEndian

	copy(buf[offMagic:], dem.HeaderMagic)
	bo.PutUint32(buf[offDemoProtocol:], h.DemoProtocol)
	bo.PutUint32(buf[offNetworkProtocol:], h.NetworkProtocol)
	copy(buf[offServer:offServer+fixedStringSize], h.Server)
	copy(buf[offNick:offNick+fixedStringSize], h.Nick)
	copy(buf[offMap:offMap+fixedStringSize], h.Map)
	copy(buf[offGame:offGame+fixedStringSize], h.Game)
	bo.PutUint32(buf[offPlaybackSeconds:], math.Float32bits(h.PlaybackSeconds))
	bo.PutUint32(buf[offTicks:], h.Ticks)
	bo.PutUint32(buf[offFrames:], h.Frames)
	bo.PutUint32(buf[offSignonLength:], h.SignonLength)

	return buf
}

// cString returns the NUL-terminated prefix of data as a string (the
// demo header's fixed-size fields are NUL-padded, not NUL-required, so
// a field that fills its whole width has no terminator at all).
func cString(data []byte) string {
	for i, b := range data {
		if b == 0 {
			return string(data[:i])
		}
	}
	return string(data)
}
