// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package ctk

import "sync"

// An Accumulator coalesces posted integer deltas into handler deliveries.
// Each [Accumulator.Post] adds its delta to a running total; when delivery is
// enabled, a handler invocation is scheduled that drains the total and
// carries it as its argument. Posts arriving before a scheduled delivery
// actually runs fold into that delivery rather than producing one each —
// callers must not assume one delivery per post.
//
// [Accumulator.Suspend] defers delivery without discarding anything: posts
// keep accumulating, and [Accumulator.Resume] flushes whatever built up in a
// single delivery. Across the source's lifetime the sum of delivered values
// equals the sum of posted deltas.
//
// Deliveries run on the executor supplied at construction. With a concurrent
// executor such as [GoExecutor], two deliveries may overlap; use a
// [SerialExecutor] when the handler requires serialized invocations.
type Accumulator struct {
	exec Executor

	mu          sync.Mutex
	handler     func(total int)
	accumulated int
	suspended   bool
	pending     bool // a delivery is scheduled but has not yet drained
	canceled    bool
}

// NewAccumulator creates an active (non-suspended) accumulator delivering on
// executor. A nil executor defaults to [GoExecutor].
func NewAccumulator(executor Executor) *Accumulator {
	if executor == nil {
		executor = GoExecutor{}
	}
	return &Accumulator{exec: executor}
}

// SetHandler replaces the delivery callback. If the accumulator is active and
// holds an undelivered total, a delivery is scheduled for the new handler.
func (a *Accumulator) SetHandler(handler func(total int)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.handler = handler
	a.maybeScheduleLocked()
}

// Post adds delta to the accumulated total. Delta may be negative; the
// canonical use is positive increments. If delivery is enabled, a handler
// invocation carrying the drained total is scheduled.
//
// Returns [ErrSourceCanceled] if the accumulator has been canceled; the
// delta is discarded.
func (a *Accumulator) Post(delta int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.canceled {
		return ErrSourceCanceled
	}
	a.accumulated += delta
	a.maybeScheduleLocked()
	return nil
}

// Suspend defers handler delivery. Further posts keep growing the
// accumulated total; nothing is dropped.
func (a *Accumulator) Suspend() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.suspended = true
}

// Resume re-enables delivery. If a non-zero total accumulated while
// suspended, a single delivery carrying it is scheduled.
func (a *Accumulator) Resume() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.suspended = false
	a.maybeScheduleLocked()
}

// Cancel terminally stops the accumulator. Any undelivered total is
// discarded and subsequent posts fail with [ErrSourceCanceled].
func (a *Accumulator) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.canceled = true
	a.accumulated = 0
}

// maybeScheduleLocked schedules at most one outstanding delivery. The
// delivery drains the total at the moment it runs, which is what coalesces
// rapid successive posts into one invocation.
func (a *Accumulator) maybeScheduleLocked() {
	if a.suspended || a.canceled || a.pending || a.handler == nil || a.accumulated == 0 {
		return
	}
	a.pending = true
	a.exec.Execute(a.deliver)
}

func (a *Accumulator) deliver() {
	a.mu.Lock()
	a.pending = false
	if a.suspended || a.canceled || a.handler == nil || a.accumulated == 0 {
		// Suspended or canceled between scheduling and delivery. The total
		// stays put (or was discarded by Cancel); a later resume flushes it.
		a.mu.Unlock()
		return
	}
	total := a.accumulated
	a.accumulated = 0
	handler := a.handler
	a.mu.Unlock()

	handler(total)
}
