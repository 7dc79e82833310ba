package demparser

import (
	"github.com/icza/tf2rep/dem"
	"github.com/icza/tf2rep/dem/demmsg"
	"github.com/icza/tf2rep/dem/democore"
)

// Handler receives decoded messages and out-of-band packets as the
// parser streams through a demo (C9, §4.9). Implementations are
// called synchronously from Parse/ParseFile; a Handler that needs to
// retain data across calls must copy what it's given, since slices
// and pointers may be reused or discarded after the call returns.
type Handler interface {
	// Handles reports whether the handler wants messages of type t
	// decoded and delivered at all; returning false lets the parser
	// skip OnMessage for every instance of t (it still applies
	// stateful side effects, since those are never optional).
	Handles(t *demmsg.MessageType) bool

	// OnMessage is called once per decoded message that Handles opted
	// into, with the tick it was received on and the parser state as
	// it stood immediately after the message's own stateful update (if
	// any) was applied.
	OnMessage(msg demmsg.Message, tick democore.Tick, s *State)

	// OnDataTables is called once per DataTables packet, after its
	// schema has been installed into s, with the raw SendTable
	// definitions and server-class list it carried.
	OnDataTables(dt *dem.DataTablesPacket, tick democore.Tick, s *State)

	// OnStringEntry is called once per out-of-band StringTables
	// packet, after its tables have been registered and their
	// entries seeded into s, with the decoded tables themselves.
	OnStringEntry(st *dem.StringTablesPacket, tick democore.Tick, s *State)
}

// AllMessagesHandler is a Handler that accepts every message type,
// useful for tests and for analysers that need the full stream.
type AllMessagesHandler struct{}

// Handles implements Handler.
func (AllMessagesHandler) Handles(*demmsg.MessageType) bool { return true }

// OnMessage implements Handler; embedders override it.
func (AllMessagesHandler) OnMessage(demmsg.Message, democore.Tick, *State) {}

// OnDataTables implements Handler; embedders override it.
func (AllMessagesHandler) OnDataTables(*dem.DataTablesPacket, democore.Tick, *State) {}

// OnStringEntry implements Handler; embedders override it.
func (AllMessagesHandler) OnStringEntry(*dem.StringTablesPacket, democore.Tick, *State) {}

// NoopHandler discards every message; useful when a caller only wants
// the final parser State (e.g. to inspect the schema) and not a
// message-by-message trace.
type NoopHandler struct{}

// Handles implements Handler.
func (NoopHandler) Handles(*demmsg.MessageType) bool { return false }

// OnMessage implements Handler.
func (NoopHandler) OnMessage(demmsg.Message, democore.Tick, *State) {}

// OnDataTables implements Handler.
func (NoopHandler) OnDataTables(*dem.DataTablesPacket, democore.Tick, *State) {}

// OnStringEntry implements Handler.
func (NoopHandler) OnStringEntry(*dem.StringTablesPacket, democore.Tick, *State) {}

// FuncHandler adapts a plain function to Handler, accepting every
// message type; it discards DataTables and StringTables packets, since
// a caller that needs those wants a Handler of its own rather than a
// bare OnMessage callback.
type FuncHandler func(msg demmsg.Message, tick democore.Tick, s *State)

// Handles implements Handler.
func (FuncHandler) Handles(*demmsg.MessageType) bool { return true }

// OnMessage implements Handler.
func (f FuncHandler) OnMessage(msg demmsg.Message, tick democore.Tick, s *State) {
	f(msg, tick, s)
}

// OnDataTables implements Handler.
func (FuncHandler) OnDataTables(*dem.DataTablesPacket, democore.Tick, *State) {}

// OnStringEntry implements Handler.
func (FuncHandler) OnStringEntry(*dem.StringTablesPacket, democore.Tick, *State) {}
