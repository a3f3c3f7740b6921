// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package ctk

import (
	"cmp"
	"sync"
	"time"

	"github.com/addrummond/heap"

	"github.com/petenewcomb/ctk-go/internal/timerp"
)

// A Scheduler multiplexes the deadlines of any number of [TimerSource]
// instances onto a single goroutine and a deadline min-heap, so that each
// armed source does not cost a goroutine of its own. Callers construct a
// Scheduler explicitly and pass it to [NewTimerSource]; there is no ambient
// package-level scheduler.
//
// A Scheduler runs until [Scheduler.Stop] is called. Stopping the scheduler
// silently abandons any deadlines still queued on it.
type Scheduler struct {
	mu      sync.Mutex
	events  heap.Heap[timerEvent, heap.Min]
	wake    chan struct{}
	seq     uint64
	stopped bool
}

type timerEvent struct {
	when time.Time
	seq  uint64 // breaks ties so ordering is total
	fire func()
}

func (a *timerEvent) Cmp(b *timerEvent) int {
	if c := a.when.Compare(b.when); c != 0 {
		return c
	}
	return cmp.Compare(a.seq, b.seq)
}

// NewScheduler creates a scheduler and starts its timer goroutine.
func NewScheduler() *Scheduler {
	s := &Scheduler{wake: make(chan struct{}, 1)}
	go s.loop()
	return s
}

// Stop terminates the scheduler's goroutine. Deadlines still queued are
// dropped without firing. Stop is idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.signal()
}

// schedule queues fire to be invoked at or shortly after when. The callback
// runs on the scheduler goroutine and must return quickly; sources use it
// only to hand the real handler to an executor.
func (s *Scheduler) schedule(when time.Time, fire func()) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.seq++
	heap.PushOrderable(&s.events, timerEvent{when: when, seq: s.seq, fire: fire})
	s.mu.Unlock()

	// Wake the loop in case the new event is now the earliest deadline.
	s.signal()
}

func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) loop() {
	for {
		s.mu.Lock()
		if s.stopped {
			s.mu.Unlock()
			return
		}
		next, ok := heap.Peek(&s.events)
		if ok {
			now := time.Now()
			if !next.when.After(now) {
				ev, _ := heap.PopOrderable(&s.events)
				s.mu.Unlock()
				ev.fire()
				continue
			}
			delay := next.when.Sub(now)
			s.mu.Unlock()

			t := timerp.Get(delay)
			select {
			case <-t.C:
			case <-s.wake:
			}
			timerp.Put(t)
			continue
		}
		s.mu.Unlock()
		<-s.wake
	}
}
