// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package ctk

import (
	"sync"
	"time"
)

// A TimerSource emits periodic ticks to a handler. It starts idle: nothing
// fires until the source has both a schedule ([TimerSource.Schedule]) and has
// been resumed ([TimerSource.Resume]). Once armed it fires at the first
// deadline and then every interval thereafter, drifting from the nominal
// schedule by at most scheduling latency. [TimerSource.Suspend] pauses
// delivery without discarding the schedule, and [TimerSource.Cancel] is
// terminal.
//
// Firing is driven by an explicit [Scheduler] and delivered on an explicit
// [Executor], both supplied at construction.
//
// Ownership contract: the owner must hold the source, and must not Cancel it
// or Stop its Scheduler, for as long as firing is desired. A discarded or
// canceled source emits no further events; nothing keeps it alive
// implicitly.
type TimerSource struct {
	sched *Scheduler
	exec  Executor

	mu         sync.Mutex
	handler    func()
	interval   time.Duration
	next       time.Time
	configured bool
	armed      bool
	canceled   bool
	gen        uint64 // invalidates scheduler events from superseded schedules
	queued     bool   // an event for the current gen is queued on the scheduler
}

// NewTimerSource creates an idle timer source driven by sched and delivering
// on executor. A nil executor defaults to [GoExecutor]. Panics if sched is
// nil.
func NewTimerSource(sched *Scheduler, executor Executor) *TimerSource {
	if sched == nil {
		panic("scheduler must be non-nil")
	}
	if executor == nil {
		executor = GoExecutor{}
	}
	return &TimerSource{sched: sched, exec: executor}
}

// Schedule sets the firing schedule: the first tick at first, subsequent
// ticks every interval. An interval of zero makes the source one-shot. The
// schedule has no effect until the source is resumed. Calling Schedule again
// replaces any previous schedule.
//
// Returns [ErrInvalidInterval] if interval is negative, or
// [ErrSourceCanceled] if the source has been canceled.
func (ts *TimerSource) Schedule(first time.Time, interval time.Duration) error {
	if interval < 0 {
		return ErrInvalidInterval
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.canceled {
		return ErrSourceCanceled
	}
	ts.interval = interval
	ts.next = first
	ts.configured = true
	ts.gen++
	ts.queued = false
	if ts.armed {
		ts.enqueueLocked()
	}
	return nil
}

// SetHandler replaces the tick callback. Safe to call in any state; a nil
// handler silently drops ticks.
func (ts *TimerSource) SetHandler(handler func()) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.handler = handler
}

// Resume arms the source. If a schedule is configured, firing starts (or
// continues) at the next scheduled deadline; deadlines that passed while the
// source was suspended are skipped, not replayed, and the schedule keeps its
// original phase. Resuming an armed source is a no-op.
//
// Returns [ErrSourceCanceled] if the source has been canceled.
func (ts *TimerSource) Resume() error {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.canceled {
		return ErrSourceCanceled
	}
	if ts.armed {
		return nil
	}
	ts.armed = true
	if ts.configured && !ts.queued {
		ts.catchUpLocked(time.Now())
		ts.enqueueLocked()
	}
	return nil
}

// Suspend pauses delivery. Deadlines already queued on the scheduler are not
// canceled, only suppressed at delivery time; no tick reaches the handler
// until the source is resumed. Suspending an idle or suspended source is a
// no-op.
func (ts *TimerSource) Suspend() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.armed = false
	ts.gen++
	ts.queued = false
}

// Cancel terminally stops the source. No further ticks fire, and subsequent
// calls to Schedule, Resume, or Cancel itself are accepted but have no
// effect beyond returning [ErrSourceCanceled] where applicable.
func (ts *TimerSource) Cancel() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.canceled = true
	ts.armed = false
	ts.gen++
	ts.queued = false
}

// catchUpLocked advances the next deadline past instants that elapsed while
// the source was suspended, preserving the schedule's phase.
func (ts *TimerSource) catchUpLocked(now time.Time) {
	if !ts.next.Before(now) {
		return
	}
	if ts.interval <= 0 {
		// One-shot deadline in the past fires immediately.
		return
	}
	missed := now.Sub(ts.next) / ts.interval
	ts.next = ts.next.Add((missed + 1) * ts.interval)
}

func (ts *TimerSource) enqueueLocked() {
	ts.queued = true
	gen := ts.gen
	ts.sched.schedule(ts.next, func() { ts.fired(gen) })
}

func (ts *TimerSource) fired(gen uint64) {
	ts.mu.Lock()
	if ts.canceled || !ts.armed || gen != ts.gen {
		// Stale event from a superseded schedule or a suspended source.
		ts.mu.Unlock()
		return
	}
	ts.queued = false
	handler := ts.handler
	if ts.interval > 0 {
		// Skip, don't replay, intervals that elapsed while this fire was
		// delayed; the schedule keeps its phase.
		ts.next = ts.next.Add(ts.interval)
		ts.catchUpLocked(time.Now())
		ts.enqueueLocked()
	}
	ts.mu.Unlock()

	if handler != nil {
		ts.exec.Execute(handler)
	}
}
