// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package ctk

type constError string

func (e constError) Error() string {
	return string(e)
}

// ErrUnbalancedLeave is returned by [JoinGroup.Leave] when the group's pending
// count is already zero, meaning the call has no matching [JoinGroup.Enter].
// This is a programming error that corrupts the group's counter invariant, so
// it is surfaced to the caller rather than absorbed.
const ErrUnbalancedLeave = constError("join group leave without matching enter")

// ErrInvalidInterval is returned by [TimerSource.Schedule] when the requested
// repeat interval is negative.
const ErrInvalidInterval = constError("timer interval must not be negative")

// ErrSourceCanceled is returned by operations on a [TimerSource] or
// [Accumulator] that has been canceled. Cancellation is terminal; a canceled
// source cannot be rescheduled, resumed, or posted to.
const ErrSourceCanceled = constError("event source canceled")
