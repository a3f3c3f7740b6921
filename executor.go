// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package ctk

import (
	"context"
	"sync"

	"github.com/gammazero/deque"
)

// An Executor is a handle to an execution substrate onto which the toolkit's
// primitives dispatch user callbacks. The toolkit never consults ambient
// global state to run code asynchronously; wherever a primitive needs to run
// a callback off the calling goroutine, the caller supplies an Executor.
//
// Execute must not block waiting for fn to complete, and must eventually run
// fn exactly once. Implementations decide where and with what concurrency.
type Executor interface {
	Execute(fn func())
}

// GoExecutor is the trivial [Executor]: each submission runs in its own new
// goroutine. It is the zero-configuration substrate used by examples and is a
// reasonable default anywhere submission order and concurrency do not matter.
type GoExecutor struct{}

func (GoExecutor) Execute(fn func()) {
	go fn()
}

// SerialExecutor runs submissions one at a time in submission order. It owns
// no permanent goroutine: a drain goroutine is spawned when work arrives and
// exits when the queue empties.
//
// The zero value is ready to use.
type SerialExecutor struct {
	mu       sync.Mutex
	queue    deque.Deque[func()]
	draining bool
}

func (e *SerialExecutor) Execute(fn func()) {
	if fn == nil {
		panic("executor function must be non-nil")
	}
	e.mu.Lock()
	e.queue.PushBack(fn)
	if e.draining {
		e.mu.Unlock()
		return
	}
	e.draining = true
	e.mu.Unlock()
	go e.drain()
}

func (e *SerialExecutor) drain() {
	for {
		e.mu.Lock()
		if e.queue.Len() == 0 {
			e.draining = false
			e.mu.Unlock()
			return
		}
		fn := e.queue.PopFront()
		e.mu.Unlock()
		fn()
	}
}

// LimitedExecutor bounds the number of submissions running concurrently on an
// inner [Executor] using a [Semaphore]. Submissions beyond the limit are held
// until a running submission finishes.
//
// LimitedExecutor is itself an example of composing the toolkit's siblings:
// it pairs a Semaphore with any inner substrate without either primitive
// knowing about the other.
type LimitedExecutor struct {
	inner Executor
	sem   *Semaphore
}

// NewLimitedExecutor creates a [LimitedExecutor] that allows at most limit
// submissions to run concurrently on inner. A nil inner defaults to
// [GoExecutor]. Limit must be positive.
func NewLimitedExecutor(inner Executor, limit int) *LimitedExecutor {
	if limit <= 0 {
		panic("executor limit must be positive")
	}
	if inner == nil {
		inner = GoExecutor{}
	}
	return &LimitedExecutor{
		inner: inner,
		sem:   NewSemaphore(limit),
	}
}

func (e *LimitedExecutor) Execute(fn func()) {
	if fn == nil {
		panic("executor function must be non-nil")
	}
	e.inner.Execute(func() {
		// Background context: a queued submission always runs eventually, so
		// the token wait is bounded by the work ahead of it.
		_ = e.sem.Acquire(context.Background())
		defer e.sem.Release()
		fn()
	})
}
