package engine

import "sync/atomic"

// Clock hands out the logical seq numbers that order evaluations inside a
// session. History is keyed on these, not on wall time, so a replayed
// session sorts identically. Safe for concurrent use.
type Clock struct {
	seq atomic.Int64
}

// NewClock returns a clock whose first Next is 1.
func NewClock() *Clock {
	return NewClockAt(0)
}

// NewClockAt returns a clock that continues after last, typically the
// highest seq already stored for a session.
func NewClockAt(last int64) *Clock {
	var c Clock
	c.seq.Store(last)
	return &c
}

// Next advances the clock and returns the new seq.
func (c *Clock) Next() int64 { return c.seq.Add(1) }

// Current reports the last seq handed out, or the starting point.
func (c *Clock) Current() int64 { return c.seq.Load() }
