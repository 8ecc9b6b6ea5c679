package session

import (
	"context"
	"errors"

	"github.com/zhouzirui/moodflow/backend/internal/model/session"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrMoodRequired    = errors.New("mood is required")
)

// Store is the authoritative collection of session records.
//
// Ids are assigned by the store from a monotonic counter starting at 1 and are
// never reused. Every read-modify-write on a single id is serializable.
type Store interface {
	Create(ctx context.Context, in session.New) (session.Session, error)
	Update(ctx context.Context, id int64, patch session.Patch) (session.Session, error)
	Get(ctx context.Context, id int64) (session.Session, error)
	List(ctx context.Context) ([]session.Session, error)
	ListByMood(ctx context.Context, mood session.Mood) ([]session.Session, error)
	ListByStep(ctx context.Context, step session.Step) ([]session.Session, error)
	ListCompleted(ctx context.Context) ([]session.Session, error)
	Close() error
}

func validateNew(in session.New) error {
	if in.Mood == "" {
		return ErrMoodRequired
	}
	if !in.Mood.Valid() {
		return session.ErrInvalidMood
	}
	if in.Step != nil && !in.Step.Valid() {
		return session.ErrInvalidStep
	}
	return nil
}

func validatePatch(p session.Patch) error {
	if p.Step != nil && !p.Step.Valid() {
		return session.ErrInvalidStep
	}
	return nil
}
