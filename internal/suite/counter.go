package suite

import "sync/atomic"

// Counter hands out result-line ordinals.
//
// A run keeps one cumulative count; each context starts its counter at
// that count so ordinals stay unique across the whole report.
type Counter struct {
	seq atomic.Int64
}

// NewCounterAt creates a counter whose first Next returns start+1.
func NewCounterAt(start int64) *Counter {
	c := &Counter{}
	c.seq.Store(start)
	return c
}

// Next returns the next ordinal and advances the counter.
func (c *Counter) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last ordinal handed out without advancing.
func (c *Counter) Current() int64 {
	return c.seq.Load()
}
