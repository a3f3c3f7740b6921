// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package ctk

import (
	"context"
	"sync"

	"github.com/gammazero/deque"
)

// A BarrierQueue is a long-lived concurrent execution context. Operations
// submitted with [BarrierQueue.Submit] run concurrently with one another, but
// an operation submitted with [BarrierQueue.SubmitExclusive] runs as a
// barrier: it waits for every operation submitted before it to finish, runs
// with no other submitted operation executing, and only then releases the
// operations submitted after it. After each barrier episode the queue returns
// to unrestricted concurrent execution.
//
// The queue moves through three states per barrier episode: unrestricted
// (no barrier outstanding), barrier-pending (a barrier has been submitted and
// is draining earlier operations), and barrier-active (earlier operations
// drained, barrier running exclusively).
//
// Submission order among non-barrier operations determines which side of a
// barrier they fall on, but does not otherwise constrain their relative
// interleaving.
type BarrierQueue struct {
	executor Executor

	mu      sync.Mutex
	entries deque.Deque[*barrierEntry] // submitted but not yet started, in order
	running int                        // started, unfinished non-barrier ops
	active  *barrierEntry              // barrier currently running, if any
}

type barrierEntry struct {
	op        func()
	exclusive bool
	done      chan struct{} // closed when an exclusive op finishes
}

// NewBarrierQueue creates a queue that runs operations on executor. A nil
// executor defaults to [GoExecutor].
func NewBarrierQueue(executor Executor) *BarrierQueue {
	if executor == nil {
		executor = GoExecutor{}
	}
	return &BarrierQueue{executor: executor}
}

// Submit schedules op for concurrent execution with all other non-barrier
// operations currently eligible to run. If a barrier is pending or active, op
// is held and does not start until the barrier finishes.
func (q *BarrierQueue) Submit(op func()) {
	if op == nil {
		panic("operation must be non-nil")
	}
	q.mu.Lock()
	q.entries.PushBack(&barrierEntry{op: op})
	q.dispatchLocked()
	q.mu.Unlock()
}

// SubmitExclusive schedules op as a barrier: it starts only after every
// operation submitted before it has finished, runs alone, and operations
// submitted after it are held until it finishes. Multiple barriers run in
// submission order.
func (q *BarrierQueue) SubmitExclusive(op func()) {
	q.submitExclusive(op)
}

// SubmitExclusiveAndWait schedules op exactly as [BarrierQueue.SubmitExclusive]
// does, and additionally blocks the calling goroutine until op has finished
// or ctx is done. If ctx expires first, the error is returned but op remains
// scheduled and will still run.
//
// Calling this from an operation that is itself running inside the same queue
// deadlocks: the submitted barrier cannot start until the caller's operation
// finishes, and the caller is blocked waiting on the barrier. The queue does
// not detect this; it is a caller responsibility.
func (q *BarrierQueue) SubmitExclusiveAndWait(ctx context.Context, op func()) error {
	e := q.submitExclusive(op)
	select {
	case <-e.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *BarrierQueue) submitExclusive(op func()) *barrierEntry {
	if op == nil {
		panic("operation must be non-nil")
	}
	e := &barrierEntry{op: op, exclusive: true, done: make(chan struct{})}
	q.mu.Lock()
	q.entries.PushBack(e)
	q.dispatchLocked()
	q.mu.Unlock()
	return e
}

// dispatchLocked starts every entry that is eligible to run. Entries start
// strictly in submission order; a barrier entry at the front starts only once
// nothing else is running, and while it runs nothing behind it starts.
func (q *BarrierQueue) dispatchLocked() {
	for q.active == nil && q.entries.Len() > 0 {
		e := q.entries.Front()
		if e.exclusive {
			if q.running > 0 {
				return // barrier-pending: drain earlier ops first
			}
			q.entries.PopFront()
			q.active = e
			q.executor.Execute(func() {
				e.op()
				q.exclusiveDone(e)
			})
			return
		}
		q.entries.PopFront()
		q.running++
		q.executor.Execute(func() {
			e.op()
			q.opDone()
		})
	}
}

func (q *BarrierQueue) opDone() {
	q.mu.Lock()
	q.running--
	q.dispatchLocked()
	q.mu.Unlock()
}

func (q *BarrierQueue) exclusiveDone(e *barrierEntry) {
	q.mu.Lock()
	q.active = nil
	q.dispatchLocked()
	q.mu.Unlock()
	close(e.done)
}
