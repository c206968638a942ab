// Package scheduler coalesces bursts of feed snapshots into single merges.
//
// Every submitted snapshot replaces the pending one and restarts a short
// debounce timer; when the timer fires the pending snapshot is drained. A
// steady periodic tick drains as well, so a feed that never pauses long
// enough for the debounce still reaches the UI within one interval.
package scheduler

import (
	"sync"
	"time"

	"livebets/livematch/internal/entity"
)

const (
	DefaultDebounce = 50 * time.Millisecond
	DefaultInterval = 500 * time.Millisecond
)

type State int

const (
	Idle State = iota
	Pending
	Draining
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Draining:
		return "draining"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

type Timer interface {
	Stop() bool
}

// Clock schedules callbacks. Tests use ManualClock to avoid wall-clock waits.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type RealClock struct{}

func (RealClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// DrainFunc receives the most recent snapshot of a burst.
type DrainFunc func(snapshot *entity.Snapshot)

type Scheduler struct {
	clock    Clock
	debounce time.Duration
	interval time.Duration
	drain    DrainFunc

	mu            sync.Mutex
	state         State
	pending       *entity.Snapshot
	debounceTimer Timer
	tickTimer     Timer

	// drainMu serializes drains between the debounce and the periodic tick.
	drainMu sync.Mutex
}

func New(clock Clock, debounce, interval time.Duration, drain DrainFunc) *Scheduler {
	if clock == nil {
		clock = RealClock{}
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		clock:    clock,
		debounce: debounce,
		interval: interval,
		drain:    drain,
	}
}

// Start arms the periodic drain.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Stopped || s.tickTimer != nil {
		return
	}
	s.tickTimer = s.clock.AfterFunc(s.interval, s.onTick)
}

func (s *Scheduler) onTick() {
	s.Flush()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Stopped {
		return
	}
	s.tickTimer = s.clock.AfterFunc(s.interval, s.onTick)
}

// Submit hands over the latest snapshot, replacing any undrained one.
func (s *Scheduler) Submit(snapshot *entity.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Stopped {
		return
	}

	s.pending = snapshot
	if s.state == Idle {
		s.state = Pending
	}

	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}
	s.debounceTimer = s.clock.AfterFunc(s.debounce, func() { s.Flush() })
}

// Flush drains the pending snapshot now. It reports whether a drain ran.
func (s *Scheduler) Flush() bool {
	s.drainMu.Lock()
	defer s.drainMu.Unlock()

	s.mu.Lock()
	if s.state == Stopped || s.pending == nil {
		s.mu.Unlock()
		return false
	}
	snapshot := s.pending
	s.pending = nil
	s.state = Draining
	s.mu.Unlock()

	s.drain(snapshot)

	s.mu.Lock()
	if s.state == Draining {
		if s.pending != nil {
			s.state = Pending
		} else {
			s.state = Idle
		}
	}
	s.mu.Unlock()

	return true
}

// Stop cancels both timers, discards the pending snapshot and waits for a
// running drain to finish. No drain starts after Stop returns.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.state = Stopped
	s.pending = nil
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
		s.debounceTimer = nil
	}
	if s.tickTimer != nil {
		s.tickTimer.Stop()
		s.tickTimer = nil
	}
	s.mu.Unlock()

	s.drainMu.Lock()
	s.drainMu.Unlock()
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}
