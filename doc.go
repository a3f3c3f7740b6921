// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package ctk provides a toolkit of low-level concurrency coordination
// primitives: a cancellable deferred task ([Task]), a dynamic join group for
// fan-out/fan-in synchronization ([JoinGroup]), a counting semaphore with FIFO
// fairness ([Semaphore]), a concurrent execution queue with barrier episodes
// ([BarrierQueue]), and two event sources — a periodic timer ([TimerSource])
// and a coalescing accumulator ([Accumulator]).
//
// The primitives are siblings: none depends on another at the interface
// level, and they are composed only by the caller. All of them are safe for
// concurrent use from independent goroutines without caller-side locking.
//
// Rather than referencing an ambient global scheduler, every primitive that
// runs user code asynchronously accepts an explicit [Executor]. An Executor
// is a handle to whatever parallel-execution substrate the caller already
// has: the trivial [GoExecutor] spawns a goroutine per submission, while
// [SerialExecutor] and [LimitedExecutor] impose ordering and concurrency
// constraints on top of an inner substrate. Timer-driven sources similarly
// take an explicit caller-constructed [Scheduler] instead of sharing a
// package-level timer goroutine.
//
// Cancellation throughout the package is advisory: [Task.Cancel] sets a flag
// that the task body may poll, and never preemptively interrupts running
// code. Blocking operations ([JoinGroup.Wait], [Semaphore.Acquire],
// [BarrierQueue.SubmitExclusiveAndWait]) park the calling goroutine and
// accept a [context.Context] so that no wait need be unbounded.
package ctk
