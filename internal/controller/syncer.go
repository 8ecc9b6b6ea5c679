package controller

import (
	"sync"

	"github.com/zhouzirui/moodflow/backend/internal/model/session"
)

// syncer mirrors local wizard changes for one session id. At most one send
// is in flight; patches requested meanwhile are merged into a single pending
// slot and sent once the current request resolves.
type syncer struct {
	id   int64
	send func(id int64, patch session.Patch)

	mu       sync.Mutex
	inFlight bool
	pending  *session.Patch
}

func newSyncer(id int64, send func(int64, session.Patch)) *syncer {
	return &syncer{id: id, send: send}
}

// enqueue records patch. It reports true when the caller must start run.
func (s *syncer) enqueue(patch session.Patch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inFlight {
		merged := patch
		if s.pending != nil {
			merged = s.pending.Merge(patch)
		}
		s.pending = &merged
		return false
	}
	s.inFlight = true
	return true
}

// run sends patch and then drains the pending slot until it is empty.
func (s *syncer) run(patch session.Patch) {
	for {
		s.send(s.id, patch)

		s.mu.Lock()
		if s.pending == nil {
			s.inFlight = false
			s.mu.Unlock()
			return
		}
		patch = *s.pending
		s.pending = nil
		s.mu.Unlock()
	}
}
