// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package ctk

import (
	"context"
	"sync"
)

// A JoinGroup tracks a dynamic count of in-flight entries and lets callers
// synchronize on the group becoming quiescent (no entries outstanding). It is
// the fan-in half of a fan-out/fan-in pattern: each piece of outstanding work
// is bracketed by [JoinGroup.Enter] and [JoinGroup.Leave], and consumers
// observe quiescence either by blocking in [JoinGroup.Wait] or by registering
// an asynchronous callback with [JoinGroup.Notify].
//
// Wait and Notify are independent consumers of the same quiescence event: a
// blocked Wait never delays registered Notify callbacks, and vice versa.
//
// A group may be reused: after reaching quiescence it can be re-populated
// with Enter, and the next transition back to zero fires notifications again.
//
// The zero value is an empty, quiescent group ready for use.
type JoinGroup struct {
	mu       sync.Mutex
	pending  int
	quiesce  chan struct{} // non-nil while pending > 0; closed on transition to 0
	handlers []completion
}

// Enter adds one outstanding entry to the group. Every Enter must be matched
// by exactly one [JoinGroup.Leave].
func (g *JoinGroup) Enter() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending++
	if g.pending == 1 {
		g.quiesce = make(chan struct{})
	}
}

// Leave removes one outstanding entry. If this drops the count to zero, all
// blocked [JoinGroup.Wait] callers are released and every handler registered
// via [JoinGroup.Notify] is dispatched exactly once.
//
// Returns [ErrUnbalancedLeave] if the count is already zero; the group is
// left unchanged.
func (g *JoinGroup) Leave() error {
	g.mu.Lock()
	if g.pending == 0 {
		g.mu.Unlock()
		return ErrUnbalancedLeave
	}
	g.pending--
	if g.pending > 0 {
		g.mu.Unlock()
		return nil
	}
	quiesce := g.quiesce
	g.quiesce = nil
	handlers := g.handlers
	g.handlers = nil
	g.mu.Unlock()

	// Release waiters and fire notifications outside the lock. Both observe
	// happens-after semantics relative to the final decrement above.
	close(quiesce)
	for _, h := range handlers {
		h.dispatch()
	}
	return nil
}

// Pending returns the current count of outstanding entries.
func (g *JoinGroup) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending
}

// Wait blocks the calling goroutine until the group is quiescent or ctx is
// done. Returns true if quiescence was reached, or false and the context's
// error otherwise. If the group is already quiescent, Wait returns true
// immediately.
//
// Bound the wait with [context.WithTimeout] or [context.WithDeadline].
func (g *JoinGroup) Wait(ctx context.Context) (bool, error) {
	g.mu.Lock()
	if g.pending == 0 {
		g.mu.Unlock()
		return true, nil
	}
	quiesce := g.quiesce
	g.mu.Unlock()

	select {
	case <-quiesce:
		return true, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Notify registers handler to run on executor the next time the pending count
// transitions to zero. Registration is independent of the group's current
// state: a handler registered while the group is already quiescent does not
// fire immediately — it waits for a subsequent enter/leave cycle to produce a
// future transition. Each registration fires exactly once.
//
// A nil executor runs the handler inline on the goroutine whose [JoinGroup.Leave]
// produced the transition.
func (g *JoinGroup) Notify(executor Executor, handler func()) {
	if handler == nil {
		panic("notify handler must be non-nil")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.handlers = append(g.handlers, completion{executor: executor, fn: handler})
}
