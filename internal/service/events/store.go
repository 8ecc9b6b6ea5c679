package events

import (
	"context"

	"github.com/zhouzirui/moodflow/backend/internal/model/session"
	sessionservice "github.com/zhouzirui/moodflow/backend/internal/service/session"
)

// PublishingStore wraps a session store and publishes every successful mutation.
type PublishingStore struct {
	sessionservice.Store
	broker *Broker
}

// Wrap decorates store so creates and updates reach broker subscribers.
func Wrap(store sessionservice.Store, broker *Broker) *PublishingStore {
	return &PublishingStore{Store: store, broker: broker}
}

// Create stores the session and announces it.
func (s *PublishingStore) Create(ctx context.Context, in session.New) (session.Session, error) {
	created, err := s.Store.Create(ctx, in)
	if err != nil {
		return created, err
	}
	s.broker.Publish(TypeSessionCreated, created)
	return created, nil
}

// Update patches the session and announces the merged record.
func (s *PublishingStore) Update(ctx context.Context, id int64, patch session.Patch) (session.Session, error) {
	updated, err := s.Store.Update(ctx, id, patch)
	if err != nil {
		return updated, err
	}
	s.broker.Publish(TypeSessionUpdated, updated)
	return updated, nil
}
