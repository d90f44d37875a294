package trace

import "sync/atomic"

// Sequencer hands out monotonically increasing sequence numbers.
type Sequencer interface {
	Next() int64
	Current() int64
}

// Clock is a lock-free logical clock. The first call to Next returns 1.
type Clock struct {
	seq atomic.Int64
}

// NewClock returns a clock starting at zero.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt returns a clock whose next value is start+1. Used to continue
// numbering after the highest seq already in a store.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next advances the clock and returns the new value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last value handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
