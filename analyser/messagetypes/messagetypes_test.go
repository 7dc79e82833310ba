package messagetypes

import (
	"testing"

	"github.com/icza/tf2rep/dem/demmsg"
)

func TestTallyCounts(t *testing.T) {
	tally := NewTally()
	tally.Record(demmsg.EmptyMessage{})
	tally.Record(demmsg.EmptyMessage{})
	tally.Record(demmsg.PrintMessage{})

	counts := tally.Counts()
	if len(counts) != 2 {
		t.Fatalf("expected 2 distinct message types, got %d", len(counts))
	}
	if counts[0].Count != 2 {
		t.Errorf("expected the most frequent type to have count 2, got %d", counts[0].Count)
	}
}

func TestTallyUserMessageCounts(t *testing.T) {
	tally := NewTally()
	tally.Record(&demmsg.UserMessage{SubType: demmsg.UserMessageTypeByID(demmsg.UserMsgIDSayText2)})
	tally.Record(&demmsg.UserMessage{SubType: demmsg.UserMessageTypeByID(demmsg.UserMsgIDSayText2)})

	counts := tally.UserMessageCounts()
	if len(counts) != 1 || counts[0].Name != "SayText2" || counts[0].Count != 2 {
		t.Fatalf("unexpected user message counts: %+v", counts)
	}
}
