package events

import (
	"context"
	"testing"
	"time"

	"github.com/zhouzirui/moodflow/backend/internal/model/session"
	sessionservice "github.com/zhouzirui/moodflow/backend/internal/service/session"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case evt := <-ch:
		return evt
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestPublishingStoreAnnouncesMutations(t *testing.T) {
	broker := NewBroker(4, nil)
	store := Wrap(sessionservice.NewMemoryStore(), broker)
	events, cancel := broker.Subscribe()
	defer cancel()

	ctx := context.Background()
	created, err := store.Create(ctx, session.New{Mood: session.MoodOkay})
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}
	evt := receive(t, events)
	if evt.Type != TypeSessionCreated || evt.Session.ID != created.ID || evt.ID == "" {
		t.Fatalf("unexpected event: %+v", evt)
	}

	if _, err := store.Update(ctx, created.ID, session.Patch{Step: session.StepPtr(2)}); err != nil {
		t.Fatalf("Update err: %v", err)
	}
	evt = receive(t, events)
	if evt.Type != TypeSessionUpdated || evt.Session.StepValue() != 2 {
		t.Fatalf("unexpected event: %+v", evt)
	}
}

func TestPublishingStoreSkipsFailedMutations(t *testing.T) {
	broker := NewBroker(4, nil)
	store := Wrap(sessionservice.NewMemoryStore(), broker)
	events, cancel := broker.Subscribe()
	defer cancel()

	if _, err := store.Update(context.Background(), 9, session.Patch{Completed: session.BoolPtr(true)}); err == nil {
		t.Fatal("expected not found error")
	}

	select {
	case evt := <-events:
		t.Fatalf("unexpected event %+v", evt)
	default:
	}
}

func TestBrokerDropsForSlowSubscriber(t *testing.T) {
	broker := NewBroker(1, nil)
	events, cancel := broker.Subscribe()

	broker.Publish(TypeSessionCreated, session.Session{ID: 1})
	broker.Publish(TypeSessionCreated, session.Session{ID: 2})

	evt := receive(t, events)
	if evt.Session.ID != 1 {
		t.Fatalf("expected first event to be kept, got %d", evt.Session.ID)
	}

	cancel()
	cancel()
	if broker.Subscribers() != 0 {
		t.Fatalf("expected no subscribers after cancel, got %d", broker.Subscribers())
	}
	if _, ok := <-events; ok {
		t.Fatal("expected channel to be closed")
	}
}
