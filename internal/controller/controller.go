package controller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/zhouzirui/moodflow/backend/internal/model/content"
	"github.com/zhouzirui/moodflow/backend/internal/model/session"
)

var (
	ErrInvalidTransition = errors.New("transition not allowed from current state")
	ErrNoSession         = errors.New("no active session to record")
)

const (
	msgCreateFailed = "Failed to create session record. Please try again."
	msgUpdateFailed = "Failed to update session record. Please try again."
	msgRecorded     = "Session recorded successfully"
	msgNoSession    = "No active session to record"

	DefaultCompleteDelay = 2 * time.Second
)

// SessionAPI is the subset of the session API the wizard mirrors its state to.
type SessionAPI interface {
	CreateSession(ctx context.Context, mood session.Mood) (session.Session, error)
	UpdateSession(ctx context.Context, id int64, patch session.Patch) (session.Session, error)
}

// Phase is the coarse wizard state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseInProgress
)

func (p Phase) String() string {
	if p == PhaseInProgress {
		return "in_progress"
	}
	return "idle"
}

// Snapshot is an immutable view of the wizard.
type Snapshot struct {
	Phase      Phase
	Mood       *session.Mood
	Step       session.Step
	SessionID  int64
	HasSession bool
	Messages   []*schema.Message
}

// Controller drives the mood wizard. Navigation is always local; the backend
// record is a best-effort mirror updated asynchronously.
type Controller struct {
	api           SessionAPI
	contents      content.Store
	notifier      Notifier
	logger        *zap.Logger
	completeDelay time.Duration

	mu         sync.Mutex
	gen        uint64
	mood       *session.Mood
	step       session.Step
	sessionID  int64
	hasSession bool
	completing bool
	messages   []*schema.Message
	mirror     *syncer

	wg sync.WaitGroup
}

// Option customises a Controller.
type Option func(*Controller)

// WithNotifier routes user-facing notifications to n.
func WithNotifier(n Notifier) Option {
	return func(c *Controller) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithCompleteDelay sets how long Complete waits before resetting to Idle.
func WithCompleteDelay(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.completeDelay = d
		}
	}
}

// New creates an idle controller.
func New(api SessionAPI, contents content.Store, opts ...Option) *Controller {
	c := &Controller{
		api:           api,
		contents:      contents,
		notifier:      nopNotifier{},
		logger:        zap.NewNop(),
		completeDelay: DefaultCompleteDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("controller")
	return c
}

// State returns the current snapshot.
func (c *Controller) State() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Phase:      PhaseIdle,
		Step:       c.step,
		SessionID:  c.sessionID,
		HasSession: c.hasSession,
		Messages:   content.CloneList(c.messages),
	}
	if c.mood != nil {
		mood := *c.mood
		snap.Mood = &mood
		snap.Phase = PhaseInProgress
	}
	return snap
}

// SelectMood starts the wizard at step 1 and creates the backend session in the background.
func (c *Controller) SelectMood(mood session.Mood) error {
	if !mood.Valid() {
		return session.ErrInvalidMood
	}

	c.mu.Lock()
	if c.mood != nil {
		c.mu.Unlock()
		return ErrInvalidTransition
	}
	c.gen++
	gen := c.gen
	c.mood = &mood
	c.step = session.StepFirst
	c.messages = c.contents.Lookup(mood, c.step)
	c.mu.Unlock()

	c.logger.Debug("mood selected", zap.String("mood", string(mood)))

	c.wg.Add(1)
	go c.create(gen, mood)
	return nil
}

// Advance moves to the next step. It is a no-op at the last step.
func (c *Controller) Advance() error {
	return c.move(1)
}

// Retreat moves to the previous step. It is a no-op at the first step.
func (c *Controller) Retreat() error {
	return c.move(-1)
}

func (c *Controller) move(delta int) error {
	c.mu.Lock()
	next := c.step + session.Step(delta)
	if c.mood == nil || !next.Valid() {
		c.mu.Unlock()
		return ErrInvalidTransition
	}
	c.step = next
	c.messages = c.contents.Lookup(*c.mood, next)
	s := c.mirror
	c.mu.Unlock()

	if s != nil {
		c.enqueue(s, session.Patch{Step: session.StepPtr(next)})
	}
	return nil
}

// Complete marks the session completed and resets to Idle after the completion delay.
// The returned channel is closed once the delay has elapsed, whether or not the
// reset still applied. It never waits for the backend.
func (c *Controller) Complete() (<-chan struct{}, error) {
	c.mu.Lock()
	if !c.hasSession {
		c.mu.Unlock()
		return nil, ErrNoSession
	}
	if c.completing {
		c.mu.Unlock()
		return nil, ErrInvalidTransition
	}
	c.completing = true
	gen := c.gen
	s := c.mirror
	c.mu.Unlock()

	c.enqueue(s, session.Patch{Completed: session.BoolPtr(true)})
	c.notifier.Notify(KindSuccess, msgRecorded)

	reset := make(chan struct{})
	c.wg.Add(1)
	time.AfterFunc(c.completeDelay, func() {
		defer c.wg.Done()
		defer close(reset)
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.gen == gen {
			c.resetLocked()
		}
	})
	return reset, nil
}

// LogSession marks the current session completed without leaving the wizard.
func (c *Controller) LogSession() error {
	c.mu.Lock()
	s := c.mirror
	c.mu.Unlock()

	if s == nil {
		c.notifier.Notify(KindError, msgNoSession)
		return ErrNoSession
	}

	c.enqueue(s, session.Patch{Completed: session.BoolPtr(true)})
	c.notifier.Notify(KindSuccess, msgRecorded)
	return nil
}

// Restart returns to Idle immediately. Requests already in flight are left to finish.
func (c *Controller) Restart() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

// Wait blocks until background requests and pending resets have finished.
func (c *Controller) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) resetLocked() {
	c.gen++
	c.mood = nil
	c.step = session.StepNone
	c.sessionID = 0
	c.hasSession = false
	c.completing = false
	c.messages = nil
	c.mirror = nil
}

func (c *Controller) create(gen uint64, mood session.Mood) {
	defer c.wg.Done()

	created, err := c.api.CreateSession(context.Background(), mood)
	if err != nil {
		c.mu.Lock()
		current := c.gen == gen
		c.mu.Unlock()
		c.logger.Warn("failed to create session", zap.String("mood", string(mood)), zap.Error(err))
		if current {
			c.notifier.Notify(KindError, msgCreateFailed)
		}
		return
	}

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		c.logger.Debug("discarding session created for abandoned wizard", zap.Int64("id", created.ID))
		return
	}
	c.sessionID = created.ID
	c.hasSession = true
	c.mirror = newSyncer(created.ID, c.update)
	s := c.mirror
	step := c.step
	c.mu.Unlock()

	c.logger.Debug("session created", zap.Int64("id", created.ID))

	// Navigation that happened before the id was known is mirrored now.
	if step != created.StepValue() {
		c.enqueue(s, session.Patch{Step: session.StepPtr(step)})
	}
}

func (c *Controller) enqueue(s *syncer, patch session.Patch) {
	if s.enqueue(patch) {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			s.run(patch)
		}()
	}
}

func (c *Controller) update(id int64, patch session.Patch) {
	if _, err := c.api.UpdateSession(context.Background(), id, patch); err != nil {
		c.logger.Warn("failed to update session", zap.Int64("id", id), zap.Error(err))
		c.notifier.Notify(KindError, msgUpdateFailed)
	}
}
