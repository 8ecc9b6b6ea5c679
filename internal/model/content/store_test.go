package content

import (
	"testing"

	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/moodflow/backend/internal/model/session"
)

func TestSeedCoversEveryMoodAndStep(t *testing.T) {
	store := NewMemoryStore(Seed())
	for _, mood := range session.Moods() {
		for _, step := range session.Steps() {
			if msgs := store.Lookup(mood, step); len(msgs) == 0 {
				t.Fatalf("no content for %s/%d", mood, step)
			}
		}
	}
	if got := len(store.Moods()); got != 3 {
		t.Fatalf("expected 3 moods, got %d", got)
	}
}

func TestLookupStressedFirstStep(t *testing.T) {
	store := NewMemoryStore(Seed())
	msgs := store.Lookup(session.MoodStressed, 1)
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[0].Role != schema.System {
		t.Fatalf("expected first line from system, got %s", msgs[0].Role)
	}
	if msgs[2].Role != schema.User {
		t.Fatalf("expected last line from user, got %s", msgs[2].Role)
	}
}

func TestFromSchemaListMapsRoles(t *testing.T) {
	wire := FromSchemaList(NewMemoryStore(Seed()).Lookup(session.MoodStressed, 1))
	if len(wire) != 3 || wire[0].Sender != SenderSystem || wire[2].Sender != SenderUser {
		t.Fatalf("unexpected wire messages %+v", wire)
	}
	if empty := FromSchemaList(nil); empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", empty)
	}
}

func TestLookupMissingPairIsEmpty(t *testing.T) {
	store := NewMemoryStore(Seed())
	if msgs := store.Lookup(session.MoodHappy, 4); msgs == nil || len(msgs) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", msgs)
	}
	if msgs := store.Lookup("sad", 1); len(msgs) != 0 {
		t.Fatalf("expected empty list for unknown mood, got %d", len(msgs))
	}
}

func TestLookupReturnsFreshSlices(t *testing.T) {
	store := NewMemoryStore(Seed())
	first := store.Lookup(session.MoodOkay, 2)
	first[0].Content = "mutated"

	again := store.Lookup(session.MoodOkay, 2)
	if again[0].Content == "mutated" {
		t.Fatal("lookup leaked shared state")
	}
}
