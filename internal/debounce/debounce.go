package debounce

import (
	"sync"
	"time"
)

// #region scheduler

// Scheduler coalesces bursts of trigger calls into a single deferred firing:
// each Trigger re-arms the timer, so only a quiet period of the configured
// length lets the function run (trailing-edge debounce).
type Scheduler struct {
	mu    sync.Mutex
	quiet time.Duration
	fn    func()
	timer *time.Timer
}

// New creates a scheduler that invokes fn once per burst after quiet elapses.
func New(quiet time.Duration, fn func()) *Scheduler {
	return &Scheduler{quiet: quiet, fn: fn}
}

// #endregion scheduler

// #region trigger

// Trigger (re)arms the timer. A pending firing is cancelled and the wait
// restarts from now.
func (s *Scheduler) Trigger() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.quiet, s.fire)
}

func (s *Scheduler) fire() {
	s.mu.Lock()
	s.timer = nil
	s.mu.Unlock()
	s.fn()
}

// #endregion trigger

// #region cancel

// Cancel drops any pending firing. Returns true if a firing was pending.
func (s *Scheduler) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer == nil {
		return false
	}
	stopped := s.timer.Stop()
	s.timer = nil
	return stopped
}

// Pending reports whether a firing is armed.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// #endregion cancel
