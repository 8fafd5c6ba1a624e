// ABOUTME: Monotonic update cursor ("highest consumed sequence + 1")
// ABOUTME: Advance ignores values that would move the cursor backwards

package poller

import "sync/atomic"

// Cursor tracks the next unconsumed sequence number. Only the poller
// advances it; reads are safe from any goroutine.
type Cursor struct {
	v atomic.Int64
}

// NewCursor creates a cursor starting at start.
func NewCursor(start int64) *Cursor {
	c := &Cursor{}
	c.v.Store(start)
	return c
}

// Current returns the cursor value.
func (c *Cursor) Current() int64 {
	return c.v.Load()
}

// Advance moves the cursor to n if n is greater than the current value and
// reports whether it moved. Lower or equal values are ignored.
func (c *Cursor) Advance(n int64) bool {
	for {
		cur := c.v.Load()
		if n <= cur {
			return false
		}
		if c.v.CompareAndSwap(cur, n) {
			return true
		}
	}
}
