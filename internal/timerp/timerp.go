// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package timerp pools [time.Timer] values for the scheduler loop, which
// arms a fresh delay on every iteration.
//
// This implementation relies on [Go 1.23+ behavior] — Reset and Stop discard
// any unreceived fire, so returned timers need no channel draining — and is
// therefore not much more than a type-safe wrapper over [sync.Pool].
//
// [Go 1.23+ behavior]: https://pkg.go.dev/time#NewTimer
package timerp

import (
	"sync"
	"time"
)

var pool = sync.Pool{
	New: func() any {
		t := time.NewTimer(time.Hour)
		t.Stop()
		return t
	},
}

// Get returns a timer armed to fire after d.
func Get(d time.Duration) *time.Timer {
	t := pool.Get().(*time.Timer)
	t.Reset(d)
	return t
}

// Put stops t and returns it to the pool. Safe whether or not t has fired.
func Put(t *time.Timer) {
	t.Stop()
	pool.Put(t)
}
