// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package waitq provides a FIFO queue of parked waiters for primitives that
// grant wakeups one at a time, such as a counting semaphore.
//
// A Queue is not self-synchronized: the owning primitive must hold its own
// mutex around every Queue operation. Grants are therefore atomic with the
// owner's state transitions, which is what makes the "canceled after grant"
// race resolvable — once the owner holds its lock, a waiter is either still
// queued or has already been granted, never in between.
package waitq

import "github.com/gammazero/deque"

// A Waiter represents one parked caller. Its Ready channel is closed exactly
// once, when the waiter is granted. A waiter that gives up (for instance
// because its context was canceled) must be removed from the queue by the
// owner while holding the owner's lock; if removal fails, the waiter was
// already granted and the owner must dispose of the grant itself.
type Waiter struct {
	ready chan struct{}
}

// Ready returns the channel closed when this waiter is granted.
func (w *Waiter) Ready() <-chan struct{} {
	return w.ready
}

// A Queue is an unbounded FIFO of waiters. The zero value is ready to use.
type Queue struct {
	q deque.Deque[*Waiter]
}

// Add appends a new waiter to the back of the queue.
func (q *Queue) Add() *Waiter {
	w := &Waiter{ready: make(chan struct{})}
	q.q.PushBack(w)
	return w
}

// Grant removes the waiter at the front of the queue and closes its Ready
// channel. Returns false if the queue is empty.
func (q *Queue) Grant() bool {
	if q.q.Len() == 0 {
		return false
	}
	w := q.q.PopFront()
	close(w.ready)
	return true
}

// Remove deletes w from the queue without granting it. Returns false if w is
// no longer queued, which means it has already been granted.
func (q *Queue) Remove(w *Waiter) bool {
	i := q.q.Index(func(x *Waiter) bool { return x == w })
	if i < 0 {
		return false
	}
	q.q.Remove(i)
	return true
}

// Len returns the number of queued waiters.
func (q *Queue) Len() int {
	return q.q.Len()
}
