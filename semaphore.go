// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package ctk

import (
	"context"
	"sync"

	"github.com/petenewcomb/ctk-go/internal/waitq"
)

// A Semaphore is a counting semaphore: a pool of permission tokens consumed
// by [Semaphore.Acquire] and replenished by [Semaphore.Release]. Initialized
// with zero tokens it acts as a pure blocking gate; initialized with a
// positive count it acts as a concurrency limiter.
//
// Blocked acquirers are woken in strict FIFO order: each Release hands its
// token directly to the longest-waiting acquirer, so a token can never be
// stolen by a later arrival while an earlier one is parked.
//
// The semaphore does not track ownership. Every successful Acquire should
// eventually be matched by exactly one Release; the primitive does not
// enforce this. In particular, acquiring on the goroutine that is expected to
// perform the matching release deadlocks — the semaphore does not detect
// this, it is a caller responsibility.
type Semaphore struct {
	mu      sync.Mutex
	tokens  int
	waiters waitq.Queue
}

// NewSemaphore creates a semaphore holding initial tokens. Initial must not
// be negative; zero is valid and useful purely as a blocking gate.
func NewSemaphore(initial int) *Semaphore {
	if initial < 0 {
		panic("initial token count must not be negative")
	}
	return &Semaphore{tokens: initial}
}

// Acquire blocks the calling goroutine until a token is available, then
// consumes it and returns nil. If ctx is done first, no token is consumed and
// the context's error is returned.
//
// Bound the wait with [context.WithTimeout] to obtain the timed variant.
func (s *Semaphore) Acquire(ctx context.Context) error {
	s.mu.Lock()
	if s.tokens > 0 && s.waiters.Len() == 0 {
		s.tokens--
		s.mu.Unlock()
		return nil
	}
	// Fast-fail before queueing behind other waiters.
	if err := ctx.Err(); err != nil {
		s.mu.Unlock()
		return err
	}
	w := s.waiters.Add()
	s.mu.Unlock()

	select {
	case <-w.Ready():
		return nil
	case <-ctx.Done():
		s.mu.Lock()
		if !s.waiters.Remove(w) {
			// Granted between cancellation and reacquiring the lock. The
			// caller is giving up, so pass the token on rather than leak it.
			s.releaseLocked()
		}
		s.mu.Unlock()
		return ctx.Err()
	}
}

// TryAcquire consumes a token and returns true if one is immediately
// available and no earlier acquirer is waiting for it. It never blocks.
func (s *Semaphore) TryAcquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tokens > 0 && s.waiters.Len() == 0 {
		s.tokens--
		return true
	}
	return false
}

// Release produces one token. If acquirers are blocked, the token passes
// directly to the longest-waiting one; otherwise it is added to the pool.
func (s *Semaphore) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseLocked()
}

func (s *Semaphore) releaseLocked() {
	if !s.waiters.Grant() {
		s.tokens++
	}
}

// Tokens returns the number of tokens currently in the pool. It is a
// point-in-time snapshot useful for inspection and tests; another goroutine
// may change the count immediately after it returns.
func (s *Semaphore) Tokens() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens
}
