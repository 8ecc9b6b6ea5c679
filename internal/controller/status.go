package controller

import (
	"sync"
	"time"
)

// Kind classifies a status notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
)

// Notification is a transient message shown to the user.
type Notification struct {
	Kind Kind
	Text string
}

// Notifier receives notifications emitted by the controller.
type Notifier interface {
	Notify(kind Kind, text string)
}

type nopNotifier struct{}

func (nopNotifier) Notify(Kind, string) {}

const (
	DefaultVisible = 3 * time.Second
	DefaultFade    = 300 * time.Millisecond
)

// Status is what the board currently displays. A fading status is present but no longer visible.
type Status struct {
	Notification
	Visible bool
}

// StatusBoard holds at most one notification. It stays visible for a fixed
// window, then fades and clears. A newer notification replaces the older one
// and restarts the window.
type StatusBoard struct {
	mu       sync.Mutex
	current  *Status
	seq      uint64
	visible  time.Duration
	fade     time.Duration
	listener func(Notification)
	timer    *time.Timer
}

// BoardOption customises a StatusBoard.
type BoardOption func(*StatusBoard)

// WithTiming overrides the visible and fade windows.
func WithTiming(visible, fade time.Duration) BoardOption {
	return func(b *StatusBoard) {
		b.visible = visible
		b.fade = fade
	}
}

// WithListener registers fn to be called synchronously for every new notification.
func WithListener(fn func(Notification)) BoardOption {
	return func(b *StatusBoard) {
		b.listener = fn
	}
}

// NewStatusBoard creates a board with the default 3s visible and 300ms fade windows.
func NewStatusBoard(opts ...BoardOption) *StatusBoard {
	b := &StatusBoard{visible: DefaultVisible, fade: DefaultFade}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Notify implements Notifier.
func (b *StatusBoard) Notify(kind Kind, text string) {
	b.Show(Notification{Kind: kind, Text: text})
}

// Show displays n, superseding whatever was shown before.
func (b *StatusBoard) Show(n Notification) {
	b.mu.Lock()
	b.seq++
	seq := b.seq
	b.current = &Status{Notification: n, Visible: true}
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.visible, func() { b.hide(seq) })
	listener := b.listener
	b.mu.Unlock()

	if listener != nil {
		listener(n)
	}
}

// Current returns the displayed status, if any.
func (b *StatusBoard) Current() (Status, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return Status{}, false
	}
	return *b.current, true
}

func (b *StatusBoard) hide(seq uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if seq != b.seq || b.current == nil {
		return
	}
	b.current.Visible = false
	b.timer = time.AfterFunc(b.fade, func() { b.clear(seq) })
}

func (b *StatusBoard) clear(seq uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if seq != b.seq {
		return
	}
	b.current = nil
	b.timer = nil
}
