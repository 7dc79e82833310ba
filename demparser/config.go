package demparser

// Config selects what a Parse/ParseFile call actually decodes (§6
// "Configuration"). The zero value decodes everything.
type Config struct {
	// SkipEntities, when true, parses PacketEntities messages only far
	// enough to stay framed on the bitstream (the envelope fields) and
	// does not decode per-entity property deltas or maintain entity/
	// baseline tracking in State. Use this when a caller only needs
	// the message stream (chat, game events, round state) and not
	// world-state snapshots, since entity decoding dominates parse time
	// on most demos.
	SkipEntities bool

	// Handler receives every decoded message Handler.Handles opts into.
	// A nil Handler is equivalent to NoopHandler{}.
	Handler Handler
}

func (c Config) handler() Handler {
	if c.Handler == nil {
		return NoopHandler{}
	}
	return c.Handler
}
