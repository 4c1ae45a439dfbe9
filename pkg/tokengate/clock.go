package tokengate

import (
	"sync"
	"time"
)

// Clock supplies the current instant to the limiter. Injecting it keeps
// refill math deterministic under test and out of the buckets themselves.
//
// Implementations must be monotonic: successive Now calls never return a
// decreasing instant. The system clock qualifies because time.Now carries
// Go's monotonic reading and time.Time.Sub computes with it.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the real process clock. This is the default time
// source for limiters that are not given one explicitly.
func SystemClock() Clock { return systemClock{} }

// ManualClock is a Clock controlled by the test that owns it. Time stands
// still until Advance is called.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock creates a ManualClock frozen at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the clock's current instant.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d. Negative durations are ignored so
// the clock stays monotonic.
func (c *ManualClock) Advance(d time.Duration) {
	if d < 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
