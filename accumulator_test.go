// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package ctk_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/petenewcomb/ctk-go"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestAccumulatorDeliversPostedTotal(t *testing.T) {
	chk := require.New(t)
	delivered := make(chan int, 1)
	acc := ctk.NewAccumulator(nil)
	acc.SetHandler(func(total int) { delivered <- total })

	chk.NoError(acc.Post(5))
	select {
	case total := <-delivered:
		chk.Equal(5, total)
	case <-time.After(5 * time.Second):
		t.Fatal("no delivery")
	}
}

func TestAccumulatorSuspendBuffersResumeFlushesOnce(t *testing.T) {
	chk := require.New(t)
	var deliveries atomic.Int32
	var sum atomic.Int64
	acc := ctk.NewAccumulator(nil)
	acc.SetHandler(func(total int) {
		deliveries.Add(1)
		sum.Add(int64(total))
	})

	acc.Suspend()
	chk.NoError(acc.Post(1))
	chk.NoError(acc.Post(2))
	chk.NoError(acc.Post(3))

	// Suspension defers delivery; it never discards posted values.
	time.Sleep(50 * time.Millisecond)
	chk.Equal(int32(0), deliveries.Load())

	acc.Resume()
	chk.Eventually(func() bool { return sum.Load() == 6 }, 5*time.Second, time.Millisecond)
	chk.Equal(int32(1), deliveries.Load())
}

func TestAccumulatorCoalescesPostsBehindBusyHandler(t *testing.T) {
	chk := require.New(t)
	gate := make(chan struct{})
	var totals []int
	done := make(chan struct{})

	// A serial executor keeps the second delivery queued behind the first,
	// so posts made while the handler is busy coalesce into one value.
	acc := ctk.NewAccumulator(&ctk.SerialExecutor{})
	acc.SetHandler(func(total int) {
		totals = append(totals, total)
		if len(totals) == 1 {
			<-gate
			return
		}
		close(done)
	})

	chk.NoError(acc.Post(1))
	time.Sleep(20 * time.Millisecond) // let the first delivery start
	chk.NoError(acc.Post(2))
	chk.NoError(acc.Post(3))
	close(gate)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("second delivery never arrived")
	}
	chk.Equal([]int{1, 5}, totals)
}

func TestAccumulatorZeroSumDeliversNothing(t *testing.T) {
	chk := require.New(t)
	var deliveries atomic.Int32
	acc := ctk.NewAccumulator(nil)
	acc.SetHandler(func(int) { deliveries.Add(1) })

	acc.Suspend()
	chk.NoError(acc.Post(5))
	chk.NoError(acc.Post(-5))
	acc.Resume()

	time.Sleep(50 * time.Millisecond)
	chk.Equal(int32(0), deliveries.Load())
}

func TestAccumulatorCancelIsTerminal(t *testing.T) {
	chk := require.New(t)
	acc := ctk.NewAccumulator(nil)
	acc.Cancel()
	chk.ErrorIs(acc.Post(1), ctk.ErrSourceCanceled)
}

func TestAccumulatorHandlerInstalledLate(t *testing.T) {
	chk := require.New(t)
	delivered := make(chan int, 1)
	acc := ctk.NewAccumulator(nil)

	// Posts before any handler accumulate; installing the handler flushes.
	chk.NoError(acc.Post(4))
	chk.NoError(acc.Post(6))
	acc.SetHandler(func(total int) { delivered <- total })

	select {
	case total := <-delivered:
		chk.Equal(10, total)
	case <-time.After(5 * time.Second):
		t.Fatal("no delivery")
	}
}

// No posted value is ever lost: across any interleaving of posts with
// suspend/resume, the values delivered to the handler sum to the values
// posted.
func TestAccumulatorConservation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		chk := require.New(t)
		var deliveredSum atomic.Int64
		acc := ctk.NewAccumulator(&ctk.SerialExecutor{})
		acc.SetHandler(func(total int) { deliveredSum.Add(int64(total)) })

		postedSum := 0
		ops := rapid.SliceOfN(rapid.IntRange(0, 2), 1, 100).Draw(t, "ops")
		for _, op := range ops {
			switch op {
			case 0:
				delta := rapid.IntRange(-10, 10).Draw(t, "delta")
				chk.NoError(acc.Post(delta))
				postedSum += delta
			case 1:
				acc.Suspend()
			case 2:
				acc.Resume()
			}
		}

		acc.Resume()
		chk.Eventually(func() bool {
			return deliveredSum.Load() == int64(postedSum)
		}, 5*time.Second, time.Millisecond)
	})
}
