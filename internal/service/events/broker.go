package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zhouzirui/moodflow/backend/internal/model/session"
)

// Type names a session lifecycle change.
type Type string

const (
	TypeSessionCreated Type = "session.created"
	TypeSessionUpdated Type = "session.updated"
)

// Event is broadcast to live subscribers after a successful store mutation.
type Event struct {
	ID        string          `json:"id"`
	Type      Type            `json:"type"`
	Session   session.Session `json:"session"`
	Timestamp time.Time       `json:"timestamp"`
}

// Broker fans events out to subscribers. Slow subscribers lose events instead of blocking writers.
type Broker struct {
	mu     sync.RWMutex
	subs   map[string]chan Event
	buffer int
	logger *zap.Logger
}

// NewBroker creates a broker whose subscriber channels hold buffer events.
func NewBroker(buffer int, logger *zap.Logger) *Broker {
	if buffer <= 0 {
		buffer = 16
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broker{
		subs:   make(map[string]chan Event),
		buffer: buffer,
		logger: logger,
	}
}

// Subscribe registers a listener. The returned cancel func closes the channel.
func (b *Broker) Subscribe() (<-chan Event, func()) {
	id := uuid.NewString()
	ch := make(chan Event, b.buffer)

	b.mu.Lock()
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			close(ch)
			b.mu.Unlock()
		})
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber without blocking.
func (b *Broker) Publish(typ Type, sess session.Session) {
	evt := Event{
		ID:        uuid.NewString(),
		Type:      typ,
		Session:   sess.Clone(),
		Timestamp: time.Now().UTC(),
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subs {
		select {
		case ch <- evt:
		default:
			b.logger.Warn("dropping session event for slow subscriber",
				zap.String("subscriber", id),
				zap.String("type", string(typ)),
				zap.Int64("session", sess.ID))
		}
	}
}

// Subscribers reports how many listeners are attached.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
