package session

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidMood = errors.New("mood must be one of happy, okay, stressed")
	ErrInvalidStep = errors.New("step must be 1, 2 or 3")
)

// Mood is the self-reported state chosen when a session starts.
type Mood string

const (
	MoodHappy    Mood = "happy"
	MoodOkay     Mood = "okay"
	MoodStressed Mood = "stressed"
)

// Moods lists every supported mood in display order.
func Moods() []Mood {
	return []Mood{MoodHappy, MoodOkay, MoodStressed}
}

// Valid reports whether m is one of the supported moods.
func (m Mood) Valid() bool {
	switch m {
	case MoodHappy, MoodOkay, MoodStressed:
		return true
	}
	return false
}

func (m Mood) String() string { return string(m) }

// ParseMood converts user input into a Mood.
func ParseMood(raw string) (Mood, error) {
	m := Mood(strings.ToLower(strings.TrimSpace(raw)))
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMood, raw)
	}
	return m, nil
}

// Step is the wizard position. Zero means the wizard has not started.
type Step int

const (
	StepNone  Step = 0
	StepFirst Step = 1
	StepLast  Step = 3
)

// Valid reports whether s is a real wizard step.
func (s Step) Valid() bool {
	return s >= StepFirst && s <= StepLast
}

// Steps lists the wizard steps in order.
func Steps() []Step {
	return []Step{1, 2, 3}
}

// ParseStep converts a path or flag value into a Step.
func ParseStep(raw string) (Step, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || !Step(n).Valid() {
		return StepNone, fmt.Errorf("%w: %q", ErrInvalidStep, raw)
	}
	return Step(n), nil
}

// Session records a single walk through the mood wizard.
type Session struct {
	ID               int64     `json:"id" yaml:"id"`
	Mood             Mood      `json:"mood" yaml:"mood"`
	Step             *Step     `json:"step" yaml:"step"`
	Completed        bool      `json:"completed" yaml:"completed"`
	TimestampCreated time.Time `json:"timestampCreated" yaml:"timestampCreated"`
	TimestampUpdated time.Time `json:"timestampUpdated" yaml:"timestampUpdated"`
}

// Clone returns a copy that shares no memory with s.
func (s Session) Clone() Session {
	if s.Step != nil {
		step := *s.Step
		s.Step = &step
	}
	return s
}

// StepValue returns the current step or StepNone when unset.
func (s Session) StepValue() Step {
	if s.Step == nil {
		return StepNone
	}
	return *s.Step
}

// New describes the fields a caller may supply when creating a session.
type New struct {
	Mood Mood
	Step *Step
	// NullStep keeps the step empty when Step is nil instead of starting at step 1.
	NullStep  bool
	Completed bool
}

// InitialStep returns the step a new record starts at.
func (n New) InitialStep() *Step {
	switch {
	case n.Step != nil:
		return StepPtr(*n.Step)
	case n.NullStep:
		return nil
	default:
		return StepPtr(StepFirst)
	}
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Step      *Step `json:"step,omitempty"`
	Completed *bool `json:"completed,omitempty"`
}

// Empty reports whether the patch carries no fields.
func (p Patch) Empty() bool {
	return p.Step == nil && p.Completed == nil
}

// Merge overlays next on p; fields present in next win.
func (p Patch) Merge(next Patch) Patch {
	if next.Step != nil {
		step := *next.Step
		p.Step = &step
	}
	if next.Completed != nil {
		done := *next.Completed
		p.Completed = &done
	}
	return p
}

// Apply merges the patch into s and returns the result.
func (p Patch) Apply(s Session) Session {
	out := s.Clone()
	if p.Step != nil {
		step := *p.Step
		out.Step = &step
	}
	if p.Completed != nil {
		out.Completed = *p.Completed
	}
	return out
}

// StepPtr is a convenience for building patches.
func StepPtr(s Step) *Step { return &s }

// BoolPtr is a convenience for building patches.
func BoolPtr(v bool) *bool { return &v }
