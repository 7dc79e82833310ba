/*

Package messagetypes tallies how many of each demmsg.MessageType (and,
for UserMessage, each demmsg.UserMessageType) a demo's message stream
contains: a quick per-type histogram, the kind of summary cmd/screp
prints per BW command type before a full decode.

*/
package messagetypes

import (
	"fmt"
	"sort"
	"strings"

	"github.com/icza/tf2rep/dem/demmsg"
	"github.com/icza/tf2rep/dem/democore"
	"github.com/icza/tf2rep/demparser"
)

// Tally counts decoded messages by type name. The zero value is ready
// to use as a demparser.Handler via Handler().
type Tally struct {
	counts     map[string]int
	userCounts map[string]int
}

// NewTally returns an empty Tally.
func NewTally() *Tally {
	return &Tally{counts: map[string]int{}, userCounts: map[string]int{}}
}

// Handler returns a demparser.Handler that feeds every decoded message
// into t.
func (t *Tally) Handler() demparser.Handler {
	return demparser.FuncHandler(func(msg demmsg.Message, _ democore.Tick, _ *demparser.State) {
		t.Record(msg)
	})
}

// Record adds one message to the tally; exported so callers composing
// their own Handler can still drive a Tally directly.
func (t *Tally) Record(msg demmsg.Message) {
	if t.counts == nil {
		t.counts, t.userCounts = map[string]int{}, map[string]int{}
	}
	mtype := msg.Type()
	t.counts[mtype.Name]++
	if um, ok := msg.(*demmsg.UserMessage); ok && um.SubType != nil {
		t.userCounts[um.SubType.Name]++
	}
}

// Counts returns the message-type tally as name->count, sorted by
// descending count then name for stable, readable output.
func (t *Tally) Counts() []Count {
	return sortedCounts(t.counts)
}

// UserMessageCounts returns the UserMessage sub-type tally the same way.
func (t *Tally) UserMessageCounts() []Count {
	return sortedCounts(t.userCounts)
}

// Count is one (name, occurrences) pair.
type Count struct {
	Name  string
	Count int
}

func sortedCounts(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for name, n := range m {
		out = append(out, Count{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// String renders the tally as a simple aligned report.
func (t *Tally) String() string {
	var b strings.Builder
	for _, c := range t.Counts() {
		fmt.Fprintf(&b, "%-20s %d\n", c.Name, c.Count)
	}
	if len(t.userCounts) > 0 {
		b.WriteString("UserMessage sub-types:\n")
		for _, c := range t.UserMessageCounts() {
			fmt.Fprintf(&b, "  %-18s %d\n", c.Name, c.Count)
		}
	}
	return b.String()
}
