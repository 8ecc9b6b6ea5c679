package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/zhouzirui/moodflow/backend/internal/model/session"
)

// MemoryStore keeps sessions for the lifetime of the process.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]session.Session
	nextID   int64
	now      func() time.Time
}

// NewMemoryStore bootstraps an empty in-memory store. Ids start at 1.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[int64]session.Session),
		nextID:   1,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new session. Step defaults to 1 unless the caller asked for a null step.
func (s *MemoryStore) Create(_ context.Context, in session.New) (session.Session, error) {
	if err := validateNew(in); err != nil {
		return session.Session{}, err
	}

	step := in.InitialStep()

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	record := session.Session{
		ID:               s.nextID,
		Mood:             in.Mood,
		Step:             step,
		Completed:        in.Completed,
		TimestampCreated: now,
		TimestampUpdated: now,
	}
	s.nextID++
	s.sessions[record.ID] = record.Clone()

	return record.Clone(), nil
}

// Update merges the present patch fields into an existing session.
func (s *MemoryStore) Update(_ context.Context, id int64, patch session.Patch) (session.Session, error) {
	if err := validatePatch(patch); err != nil {
		return session.Session{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.sessions[id]
	if !ok {
		return session.Session{}, ErrSessionNotFound
	}

	updated := patch.Apply(current)
	updated.TimestampUpdated = s.now()
	if updated.TimestampUpdated.Before(current.TimestampUpdated) {
		updated.TimestampUpdated = current.TimestampUpdated
	}
	s.sessions[id] = updated

	return updated.Clone(), nil
}

// Get retrieves a session by identifier.
func (s *MemoryStore) Get(_ context.Context, id int64) (session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.sessions[id]
	if !ok {
		return session.Session{}, ErrSessionNotFound
	}
	return record.Clone(), nil
}

// List returns every session in creation order.
func (s *MemoryStore) List(_ context.Context) ([]session.Session, error) {
	return s.filter(func(session.Session) bool { return true }), nil
}

// ListByMood returns sessions started with the given mood.
func (s *MemoryStore) ListByMood(_ context.Context, mood session.Mood) ([]session.Session, error) {
	return s.filter(func(rec session.Session) bool { return rec.Mood == mood }), nil
}

// ListByStep returns sessions currently at the given step.
func (s *MemoryStore) ListByStep(_ context.Context, step session.Step) ([]session.Session, error) {
	return s.filter(func(rec session.Session) bool { return rec.Step != nil && *rec.Step == step }), nil
}

// ListCompleted returns sessions marked completed.
func (s *MemoryStore) ListCompleted(_ context.Context) ([]session.Session, error) {
	return s.filter(func(rec session.Session) bool { return rec.Completed }), nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) filter(keep func(session.Session) bool) []session.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]session.Session, 0, len(s.sessions))
	for _, rec := range s.sessions {
		if keep(rec) {
			out = append(out, rec.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
