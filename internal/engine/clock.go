package engine

// Clock is the logical clock stamping journal entries.
//
// Journal order uses seq, never wall-clock time: two changes in the same
// nanosecond, or a clock stepping backwards, still produce a total order.
//
// Not safe for concurrent use; the Watcher is single-actor.
type Clock struct {
	seq int64
}

// NewClock creates a clock starting at 0. The first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock resuming after start, the last persisted seq.
func NewClockAt(start int64) *Clock {
	return &Clock{seq: start}
}

// Next advances the clock and returns the new seq.
func (c *Clock) Next() int64 {
	c.seq++
	return c.seq
}

// Current returns the last issued seq without advancing.
func (c *Clock) Current() int64 {
	return c.seq
}

// rewind gives back the last seq after a failed write so the journal has no
// gaps.
func (c *Clock) rewind(seq int64) {
	if c.seq == seq {
		c.seq--
	}
}
