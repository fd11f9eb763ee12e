package testfixtures

import (
	"sync/atomic"
	"time"
)

// Clock is a manually driven time source. Instants are kept in UTC.
type Clock struct {
	nanos atomic.Int64
}

// NewClock starts a clock at start, or at ReferenceTime when start is zero.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	c := &Clock{}
	c.nanos.Store(start.UnixNano())
	return c
}

func (c *Clock) Now() time.Time {
	return time.Unix(0, c.nanos.Load()).UTC()
}

// NowFunc adapts the clock to the func() time.Time the services take. A nil
// clock falls back to the wall clock.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

func (c *Clock) Set(t time.Time) {
	c.nanos.Store(t.UnixNano())
}

// Advance moves the clock by d and returns the new instant.
func (c *Clock) Advance(d time.Duration) time.Time {
	return time.Unix(0, c.nanos.Add(int64(d))).UTC()
}
