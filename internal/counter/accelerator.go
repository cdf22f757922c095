package counter

import (
	"context"
	"time"
)

// Accelerator is the press-and-hold repeat schedule: after HoldDelay the
// action repeats, starting every Start and speeding up by Step per repeat
// until it reaches Floor.
type Accelerator struct {
	HoldDelay time.Duration
	Start     time.Duration
	Step      time.Duration
	Floor     time.Duration
}

// DefaultAccelerator matches the on-screen counter buttons.
var DefaultAccelerator = Accelerator{
	HoldDelay: 500 * time.Millisecond,
	Start:     100 * time.Millisecond,
	Step:      10 * time.Millisecond,
	Floor:     30 * time.Millisecond,
}

// Interval returns the wait before repeat n (0-based).
func (a Accelerator) Interval(n int) time.Duration {
	d := a.Start - time.Duration(n)*a.Step
	if d < a.Floor {
		return a.Floor
	}
	return d
}

// Schedule returns the offsets from the start of the hold at which the
// first n repeats fire.
func (a Accelerator) Schedule(n int) []time.Duration {
	out := make([]time.Duration, n)
	at := a.HoldDelay
	for i := 0; i < n; i++ {
		at += a.Interval(i)
		out[i] = at
	}
	return out
}

// Repeat calls fn on the schedule until ctx is done or fn returns false.
// It returns the number of calls made.
func (a Accelerator) Repeat(ctx context.Context, fn func() bool) int {
	timer := time.NewTimer(a.HoldDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return 0
	case <-timer.C:
	}

	calls := 0
	for {
		timer.Reset(a.Interval(calls))
		select {
		case <-ctx.Done():
			return calls
		case <-timer.C:
		}
		calls++
		if !fn() {
			return calls
		}
	}
}
