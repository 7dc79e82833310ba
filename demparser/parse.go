/*

Package demparser implements TF2 demo (.dem) parsing: the Source-engine
bit-packed packet stream recorded by the game's client-side demo
recorder.

Information sources:

Valve Developer Community, Demo File Format:

https://developer.valvesoftware.com/wiki/Demo_File_Format

demostf/parser (Rust), whose wire-level behavior this package mirrors
where the above is silent on a detail:

https://github.com/demostf/parser

*/
package demparser

import (
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/icza/tf2rep/dem"
)

// Version is a Semver2-compatible version of the parser.
const Version = "v0.1.0"

// ErrNotDemoFile indicates the given file (or byte slice) is shorter
// than the 1072-byte demo header (§3, §7 InvalidDemo). A full-length
// header with the wrong magic is reported by parseHeader as its own
// InvalidDemo ParseError instead.
var ErrNotDemoFile = newErr(ErrInvalidDemo, "missing HL2DEMO magic")

// ErrParsing indicates that parsing recovered from a panic; this may be
// due to a corrupt/truncated demo or an implementation bug. It wraps
// the recovered value's text via Error(), the same way repparser's
// ErrParsing does.
var ErrParsing = newErr(ErrInvalidDemo, "panic during parsing")

// Result is everything Parse/ParseFile hand back once a demo's frame
// stream has been fully walked: the header, and the parser State as it
// stood at the final Stop packet (schema, string tables, event
// catalogue, tick). Per-message output is delivered incrementally to
// Config.Handler as parsing proceeds, not accumulated here (C9, §4.9).
type Result struct {
	Header *dem.Header
	State  *State
}

// ParseFile parses a demo file, decoding every message type and every
// PacketEntities delta (the zero Config).
func ParseFile(name string) (*Result, error) {
	return ParseFileConfig(name, Config{})
}

// ParseFileConfig parses a demo file according to cfg.
func ParseFileConfig(name string, cfg Config) (*Result, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	return ParseConfig(data, cfg)
}

// Parse parses a demo from the given byte slice (the zero Config).
func Parse(data []byte) (*Result, error) {
	return ParseConfig(data, Config{})
}

// ParseConfig parses a demo from the given byte slice according to cfg.
func ParseConfig(data []byte, cfg Config) (r *Result, err error) {
	return parseProtected(data, cfg)
}

// parseProtected calls parse, but protects the call from panics (the
// way repparser.parseProtected protects SC:BW replay parsing): untrusted
// demo data, and demparser's own bit-cursor arithmetic, both get one
// shot to misbehave without taking the caller's process down with them.
func parseProtected(data []byte, cfg Config) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("demparser: parsing error: %v", r)
			buf := make([]byte, 2000)
			n := runtime.Stack(buf, false)
			log.Printf("demparser: stack: %s", buf[:n])
			err = fmt.Errorf("%w: %v", ErrParsing, r)
		}
	}()

	return parse(data, cfg)
}

func parse(data []byte, cfg Config) (*Result, error) {
	if len(data) < dem.HeaderSize {
		return nil, ErrNotDemoFile
	}

	h, err := parseHeader(data[:dem.HeaderSize])
	if err != nil {
		return nil, err
	}

	s := NewState()
	s.ProtocolVersion = h.NetworkProtocol
	s.NetworkProtocol = h.NetworkProtocol
	s.IntervalPerTick = 1.0 / 66.0 // overwritten once ServerInfo decodes (§4.8)

	if err := runFrames(data[dem.HeaderSize:], s, cfg); err != nil {
		return nil, err
	}

	return &Result{Header: h, State: s}, nil
}
