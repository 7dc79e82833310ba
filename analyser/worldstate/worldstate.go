/*

Package worldstate turns the live demparser message stream into
per-tick entity snapshots and, optionally, pushes them to a spectating
client over a websocket connection (SPEC_FULL.md §2, §6's second
output mode: a consumer that wants "what does the world look like at
tick N" rather than a flat message trace).

*/
package worldstate

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/icza/tf2rep/dem"
	"github.com/icza/tf2rep/dem/demmsg"
	"github.com/icza/tf2rep/dem/democore"
	"github.com/icza/tf2rep/demparser"
)

// EntitySnapshot is the JSON-friendly reduction of one PacketEntity:
// its server class and decoded properties keyed by name, rather than
// by the internal FlatProp identifier demparser uses.
type EntitySnapshot struct {
	ClassID democore.ClassID      `json:"classId"`
	PVS     string                `json:"pvs"`
	Props   map[string]any        `json:"props,omitempty"`
}

// Snapshot is one tick's worth of entity deltas, in the shape a
// websocket consumer receives them.
type Snapshot struct {
	Tick            democore.Tick                        `json:"tick"`
	Entities        map[democore.EntityID]EntitySnapshot `json:"entities,omitempty"`
	RemovedEntities []democore.EntityID                  `json:"removedEntities,omitempty"`
}

// propValues reduces a SendProp list to a name->value map, using the
// scalar field that SendPropValue.Kind selects (dem.SendPropValue is a
// tagged union; Array values are flattened to a []any of the same).
func propValues(props []*dem.SendProp) map[string]any {
	out := make(map[string]any, len(props))
	for _, p := range props {
		out[p.Prop.Name] = scalarValue(p.Value)
	}
	return out
}

func scalarValue(v dem.SendPropValue) any {
	switch v.Kind {
	case dem.SendPropTypeInt:
		return v.Int
	case dem.SendPropTypeFloat:
		return v.Float
	case dem.SendPropTypeString:
		return v.Str
	case dem.SendPropTypeVector:
		return v.Vector
	case dem.SendPropTypeVectorXY:
		return v.VectorXY
	case dem.SendPropTypeArray:
		arr := make([]any, len(v.Array))
		for i, e := range v.Array {
			arr[i] = scalarValue(e)
		}
		return arr
	default:
		return nil
	}
}

// ToSnapshot reduces one decoded PacketEntitiesMessage to a Snapshot.
func ToSnapshot(tick democore.Tick, m *demmsg.PacketEntitiesMessage) Snapshot {
	snap := Snapshot{Tick: tick, RemovedEntities: m.RemovedEntities}
	if len(m.Entities) > 0 {
		snap.Entities = make(map[democore.EntityID]EntitySnapshot, len(m.Entities))
		for _, e := range m.Entities {
			snap.Entities[e.EntityIndex] = EntitySnapshot{
				ClassID: e.ServerClass,
				PVS:     e.PVS.String(),
				Props:   propValues(e.Props),
			}
		}
	}
	return snap
}

// Streamer pushes a Snapshot per PacketEntitiesMessage to a single
// connected websocket client, the way a live-tail spectator view
// would consume a demo being parsed off a growing file. A Streamer
// implements demparser.Handler directly: pass it as Config.Handler.
type Streamer struct {
	conn *websocket.Conn

	mu      sync.Mutex
	onError func(error)
}

// NewStreamer wraps an already-established websocket connection
// (the HTTP upgrade itself is the caller's concern, e.g. via
// websocket.Upgrader in an HTTP handler).
func NewStreamer(conn *websocket.Conn) *Streamer {
	return &Streamer{conn: conn}
}

// OnError sets a callback invoked each time a write to the client fails
// (e.g. the spectator disconnected). A failed write does not stop the
// Streamer: later snapshots are still written to the same connection.
func (s *Streamer) OnError(f func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onError = f
}

// Handles implements demparser.Handler: only PacketEntities messages
// carry a world-state delta worth streaming.
func (s *Streamer) Handles(t *demmsg.MessageType) bool {
	return t.ID == demmsg.IDPacketEntities
}

// OnMessage implements demparser.Handler, pushing one Snapshot per
// PacketEntitiesMessage as a JSON text frame.
func (s *Streamer) OnMessage(msg demmsg.Message, tick democore.Tick, _ *demparser.State) {
	pe, ok := msg.(*demmsg.PacketEntitiesMessage)
	if !ok {
		return
	}
	snap := ToSnapshot(tick, pe)

	data, err := json.Marshal(snap)
	if err != nil {
		s.reportError(err)
		return
	}

	s.mu.Lock()
	err = s.conn.WriteMessage(websocket.TextMessage, data)
	s.mu.Unlock()
	if err != nil {
		s.reportError(err)
	}
}

// OnDataTables implements demparser.Handler; the world-state stream has
// nothing to push until entities start arriving.
func (s *Streamer) OnDataTables(*dem.DataTablesPacket, democore.Tick, *demparser.State) {}

// OnStringEntry implements demparser.Handler; string tables carry no
// entity delta worth streaming to a spectator.
func (s *Streamer) OnStringEntry(*dem.StringTablesPacket, democore.Tick, *demparser.State) {}

func (s *Streamer) reportError(err error) {
	s.mu.Lock()
	cb := s.onError
	s.mu.Unlock()
	if cb != nil {
		cb(err)
	}
}

// Close closes the underlying websocket connection.
func (s *Streamer) Close() error {
	return s.conn.Close()
}
