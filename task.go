// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package ctk

import (
	"context"
	"sync"
	"sync/atomic"
)

// A Priority is an advisory hint attached to a [Task] at creation time. The
// toolkit itself never inspects it; it is carried for the benefit of
// executors or schedulers that order work by priority.
type Priority int

const (
	PriorityLow    Priority = -1
	PriorityNormal Priority = 0
	PriorityHigh   Priority = 1
)

// A Task is a unit of deferred work with an advisory cancel flag and
// post-completion notification. The body never runs at creation; the caller
// later runs it inline with [Task.RunInline] or hands it to an executor with
// [Task.Submit].
//
// Cancellation is advisory, never preemptive: [Task.Cancel] sets a flag that
// the body may observe via [Task.Canceled] to shortcut its own work, but a
// body that is already running is never interrupted. Callers may rely on
// in-flight work running to completion.
type Task struct {
	body     func(context.Context)
	priority Priority
	canceled atomic.Bool

	mu        sync.Mutex
	started   bool
	completed bool
	handlers  []completion
}

type completion struct {
	executor Executor
	fn       func()
}

// NewTask wraps body as a pending [Task] with [PriorityNormal]. The body is
// not executed. Panics if body is nil.
func NewTask(body func(context.Context)) *Task {
	return NewTaskWithPriority(body, PriorityNormal)
}

// NewTaskWithPriority is [NewTask] with an explicit priority hint.
func NewTaskWithPriority(body func(context.Context), priority Priority) *Task {
	if body == nil {
		panic("task body must be non-nil")
	}
	return &Task{body: body, priority: priority}
}

// Priority returns the hint the task was created with.
func (t *Task) Priority() Priority {
	return t.priority
}

// Cancel sets the task's cancel flag. It is idempotent and always succeeds:
// canceling an already-canceled or already-completed task is an accepted
// no-op. The flag is write-once — once set it never reverts.
//
// Cancel does not interrupt a running body. If the body is already executing
// it will run to completion unless it polls [Task.Canceled] itself.
func (t *Task) Cancel() {
	t.canceled.Store(true)
}

// Canceled reports whether [Task.Cancel] has been called. Task bodies poll
// this to honor advisory cancellation.
func (t *Task) Canceled() bool {
	return t.canceled.Load()
}

// RunInline executes the task body synchronously on the calling goroutine,
// then fires any registered completion handlers. The body is invoked even if
// the task has already been canceled — observing the flag is the body's own
// responsibility. A task runs at most once; RunInline on a completed task is
// a no-op.
func (t *Task) RunInline(ctx context.Context) {
	t.run(ctx, false)
}

// Submit hands the task to executor for asynchronous execution. Unlike
// [Task.RunInline], if the task has been canceled by the time the executor
// actually starts it, the body is skipped; completion handlers still fire
// after the skip.
//
// If executor implements ExecuteWithPriority(Priority, func()), the task's
// priority hint is passed through.
func (t *Task) Submit(ctx context.Context, executor Executor) {
	if executor == nil {
		panic("executor must be non-nil")
	}
	run := func() { t.run(ctx, true) }
	if pe, ok := executor.(interface {
		ExecuteWithPriority(Priority, func())
	}); ok {
		pe.ExecuteWithPriority(t.priority, run)
		return
	}
	executor.Execute(run)
}

func (t *Task) run(ctx context.Context, skipIfCanceled bool) {
	t.mu.Lock()
	if t.started {
		t.mu.Unlock()
		return
	}
	t.started = true
	t.mu.Unlock()

	if !(skipIfCanceled && t.canceled.Load()) {
		t.body(ctx)
	}

	// Completion becomes visible only after the body has returned, so a
	// handler registered while the body was executing lands in the queue
	// drained here rather than firing early. The flag makes later
	// registrations fire immediately from OnCompletion, so each registration
	// runs exactly once either way.
	t.mu.Lock()
	t.completed = true
	handlers := t.handlers
	t.handlers = nil
	t.mu.Unlock()
	for _, h := range handlers {
		h.dispatch()
	}
}

// OnCompletion registers handler to run on executor after the task body (or
// its skip) finishes. If the task has already completed, the handler is
// dispatched immediately. Each registration fires at most once. A nil
// executor runs the handler inline on whichever goroutine completes the task.
func (t *Task) OnCompletion(executor Executor, handler func()) {
	if handler == nil {
		panic("completion handler must be non-nil")
	}
	c := completion{executor: executor, fn: handler}
	t.mu.Lock()
	if !t.completed {
		t.handlers = append(t.handlers, c)
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()
	c.dispatch()
}

func (c completion) dispatch() {
	if c.executor == nil {
		c.fn()
		return
	}
	c.executor.Execute(c.fn)
}
