// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package ctk_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/petenewcomb/ctk-go"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestJoinGroupWaitAlreadyQuiescent(t *testing.T) {
	chk := require.New(t)
	var g ctk.JoinGroup

	ok, err := g.Wait(context.Background())
	chk.NoError(err)
	chk.True(ok)
}

func TestJoinGroupUnbalancedLeave(t *testing.T) {
	chk := require.New(t)
	var g ctk.JoinGroup

	chk.ErrorIs(g.Leave(), ctk.ErrUnbalancedLeave)

	// The failed leave must not corrupt the counter.
	g.Enter()
	chk.Equal(1, g.Pending())
	chk.NoError(g.Leave())
	chk.Equal(0, g.Pending())
	chk.ErrorIs(g.Leave(), ctk.ErrUnbalancedLeave)
}

func TestJoinGroupWaitTimeout(t *testing.T) {
	chk := require.New(t)
	var g ctk.JoinGroup
	g.Enter()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	ok, err := g.Wait(ctx)
	chk.False(ok)
	chk.ErrorIs(err, context.DeadlineExceeded)

	chk.NoError(g.Leave())
}

func TestJoinGroupFanOutFanIn(t *testing.T) {
	chk := require.New(t)
	var g ctk.JoinGroup
	var notified atomic.Int32

	g.Enter()
	g.Enter()
	g.Notify(nil, func() { notified.Add(1) })

	for _, delay := range []time.Duration{10 * time.Millisecond, 30 * time.Millisecond} {
		go func() {
			time.Sleep(delay)
			chk.NoError(g.Leave())
		}()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ok, err := g.Wait(ctx)
	chk.NoError(err)
	chk.True(ok)

	// The notify handler fires exactly once for the transition to zero.
	chk.Eventually(func() bool { return notified.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	chk.Equal(int32(1), notified.Load())
}

func TestJoinGroupNotifyWhileQuiescentWaitsForNextCycle(t *testing.T) {
	chk := require.New(t)
	var g ctk.JoinGroup
	var notified atomic.Int32

	// Registered while already quiescent: must not fire until a future
	// transition to zero.
	g.Notify(nil, func() { notified.Add(1) })
	time.Sleep(20 * time.Millisecond)
	chk.Equal(int32(0), notified.Load())

	g.Enter()
	chk.NoError(g.Leave())
	chk.Equal(int32(1), notified.Load())
}

func TestJoinGroupNotifyOncePerRegistration(t *testing.T) {
	chk := require.New(t)
	var g ctk.JoinGroup
	var notified atomic.Int32

	g.Enter()
	g.Notify(nil, func() { notified.Add(1) })
	chk.NoError(g.Leave())
	chk.Equal(int32(1), notified.Load())

	// The group is reusable, but a consumed registration does not re-fire on
	// the next quiescence event.
	g.Enter()
	chk.NoError(g.Leave())
	chk.Equal(int32(1), notified.Load())
}

func TestJoinGroupWaitDoesNotBlockNotify(t *testing.T) {
	chk := require.New(t)
	var g ctk.JoinGroup
	notified := make(chan struct{})

	g.Enter()
	g.Notify(ctk.GoExecutor{}, func() { close(notified) })

	waited := make(chan struct{})
	go func() {
		defer close(waited)
		ok, err := g.Wait(context.Background())
		chk.NoError(err)
		chk.True(ok)
	}()

	time.Sleep(10 * time.Millisecond)
	chk.NoError(g.Leave())

	// Both consumers of the quiescence event complete independently.
	for _, ch := range []chan struct{}{notified, waited} {
		select {
		case <-ch:
		case <-time.After(5 * time.Second):
			t.Fatal("quiescence consumer did not complete")
		}
	}
}

func TestJoinGroupCounterModel(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		chk := require.New(t)
		var g ctk.JoinGroup
		pending := 0
		transitions := 0
		var notified atomic.Int32

		ops := rapid.SliceOfN(rapid.Bool(), 1, 200).Draw(t, "ops")
		for _, enter := range ops {
			if enter {
				if pending == 0 {
					g.Notify(nil, func() { notified.Add(1) })
				}
				g.Enter()
				pending++
			} else {
				err := g.Leave()
				if pending == 0 {
					chk.ErrorIs(err, ctk.ErrUnbalancedLeave)
				} else {
					chk.NoError(err)
					pending--
					if pending == 0 {
						transitions++
					}
				}
			}
			chk.Equal(pending, g.Pending())
		}

		// Quiescence is reached exactly when enters == leaves, and each
		// handler registered before a cycle fired exactly once per
		// transition to zero.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		ok, err := g.Wait(ctx)
		cancel()
		chk.Equal(pending == 0, ok)
		if pending > 0 {
			chk.ErrorIs(err, context.DeadlineExceeded)
		}
		chk.Equal(int32(transitions), notified.Load())
	})
}
