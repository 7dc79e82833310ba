/*

Package matchsummary builds a condensed, human-consumable summary of a
parsed TF2 demo: the chat log, the round timeline and per-player kill
tally, derived from the GameEvent and SayText2 UserMessage stream
rather than from the full entity snapshot (SPEC_FULL.md §2, the
analyser-layer consumer of demparser.Config.Handler).

This is the generalization of screp's cmd/screp reporting of parsed
replay commands into a narrower, purpose-built summary, the way a box
score is a narrower view of a full play-by-play.

*/
package matchsummary

import (
	"github.com/google/uuid"

	"github.com/icza/tf2rep/dem"
	"github.com/icza/tf2rep/dem/demmsg"
	"github.com/icza/tf2rep/dem/democore"
	"github.com/icza/tf2rep/demparser"
)

// ChatLine is one decoded chat message, in stream order.
type ChatLine struct {
	Tick democore.Tick
	Kind demmsg.ChatMessageKind
	From string
	Text string
}

// Kill is one player_death game event, with the fields the TF2 game
// event definition carries reduced to the ones a box score needs.
// Attacker/Victim are the string-table userid fields as reported by
// the event; resolving them to player names requires the string
// table that carries "userinfo", left to callers that already have a
// full State (demparser.State.StringTableMetaByName("userinfo")).
type Kill struct {
	Tick     democore.Tick
	Victim   uint32
	Attacker uint32
	Weapon   string
}

// RoundEvent is one round-lifecycle game event (teamplay_round_start,
// teamplay_round_win, teamplay_round_stalemate, ...), kept generically
// since the set of round event names varies by TF2 game mode.
type RoundEvent struct {
	Tick   democore.Tick
	Name   string
	Values map[string]dem.GameEventValue
}

// Summary is the result of Summarize: a condensed view of one demo.
type Summary struct {
	// MatchID is a synthetic identifier minted for this parse, stable
	// only for the lifetime of the process (no two demos decoded in
	// the same run collide); callers that persist summaries should
	// mint their own durable ID instead of relying on this one.
	MatchID uuid.UUID

	Header *dem.Header

	Chat   []ChatLine
	Kills  []Kill
	Rounds []RoundEvent
}

// roundEventNames is the set of GameEvent names treated as round
// lifecycle events. TF2's competitive and casual game modes both use
// the "teamplay_round_*" family; ranges are not validated further
// since fetching the full TF2 game event schema is out of scope (§4,
// Non-goals).
var roundEventNames = map[string]bool{
	"teamplay_round_start":     true,
	"teamplay_round_win":       true,
	"teamplay_round_stalemate": true,
	"teamplay_game_over":       true,
	"tf_game_over":             true,
}

// Summarize parses a demo from data and reduces its message stream to
// a Summary, without retaining the full entity/world-state trace
// (Config.SkipEntities is set, since a box score never needs per-tick
// hitboxes).
func Summarize(data []byte) (*Summary, error) {
	sum := &Summary{MatchID: uuid.New()}

	cfg := demparser.Config{
		SkipEntities: true,
		Handler: demparser.FuncHandler(func(msg demmsg.Message, tick democore.Tick, s *demparser.State) {
			record(sum, msg, tick)
		}),
	}

	res, err := demparser.ParseConfig(data, cfg)
	if err != nil {
		return nil, err
	}
	sum.Header = res.Header
	return sum, nil
}

func record(sum *Summary, msg demmsg.Message, tick democore.Tick) {
	switch m := msg.(type) {
	case *demmsg.UserMessage:
		if m.SayText2 != nil {
			sum.Chat = append(sum.Chat, ChatLine{
				Tick: tick,
				Kind: m.SayText2.Kind,
				From: m.SayText2.From,
				Text: m.SayText2.Text,
			})
		}
	case *demmsg.GameEventMessage:
		recordGameEvent(sum, m.Event, tick)
	}
}

func recordGameEvent(sum *Summary, ev *dem.GameEvent, tick democore.Tick) {
	if ev == nil || ev.Unknown {
		return
	}
	switch ev.Name {
	case "player_death":
		k := Kill{Tick: tick}
		if v, ok := ev.Values["userid"]; ok {
			k.Victim = uint32(v.U16)
		}
		if v, ok := ev.Values["attacker"]; ok {
			k.Attacker = uint32(v.U16)
		}
		if v, ok := ev.Values["weapon"]; ok {
			k.Weapon = v.Str
		}
		sum.Kills = append(sum.Kills, k)
	default:
		if roundEventNames[ev.Name] {
			sum.Rounds = append(sum.Rounds, RoundEvent{Tick: tick, Name: ev.Name, Values: ev.Values})
		}
	}
}
