package content

import (
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/moodflow/backend/internal/model/session"
)

// Store exposes scripted content retrieval for the controller and HTTP handlers.
type Store interface {
	Moods() []session.Mood
	Lookup(mood session.Mood, step session.Step) []*schema.Message
}

// MemoryStore implements Store over an immutable in-memory table.
type MemoryStore struct {
	items Table
}

// NewMemoryStore returns a MemoryStore over the supplied table.
func NewMemoryStore(items Table) *MemoryStore {
	copied := make(Table, len(items))
	for mood, steps := range items {
		inner := make(map[session.Step][]*schema.Message, len(steps))
		for step, msgs := range steps {
			inner[step] = append([]*schema.Message(nil), msgs...)
		}
		copied[mood] = inner
	}
	return &MemoryStore{items: copied}
}

// Moods returns the moods that have content, in display order.
func (s *MemoryStore) Moods() []session.Mood {
	out := make([]session.Mood, 0, len(s.items))
	for _, mood := range session.Moods() {
		if _, ok := s.items[mood]; ok {
			out = append(out, mood)
		}
	}
	return out
}

// Lookup returns the scripted messages for (mood, step). Unknown pairs yield an empty list.
func (s *MemoryStore) Lookup(mood session.Mood, step session.Step) []*schema.Message {
	return CloneList(s.items[mood][step])
}
