package correlate

import (
	"sync/atomic"
	"time"
)

// Clock issues strictly increasing ingestion timestamps. It is safe for
// concurrent use.
type Clock struct {
	now  func() time.Time
	last atomic.Int64
}

// NewClock creates a clock backed by time.Now.
func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// newClockAt creates a clock backed by a custom source.
func newClockAt(now func() time.Time) *Clock {
	return &Clock{now: now}
}

// Now returns the current time, nudged forward by a nanosecond when the
// wall clock has not advanced past the previously issued instant.
func (c *Clock) Now() time.Time {
	for {
		prev := c.last.Load()
		next := c.now().UnixNano()
		if next <= prev {
			next = prev + 1
		}
		if c.last.CompareAndSwap(prev, next) {
			return time.Unix(0, next).UTC()
		}
	}
}
