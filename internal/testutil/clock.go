// Package testutil provides deterministic seams for tests: a fixed
// clock and scripted generator clients.
package testutil

import (
	"sync"
	"time"
)

// FixedClock is a TimeSource pinned to a settable instant. Unlike the
// system clock it only moves when Advance is called, which makes
// timestamp assertions exact.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixedClock creates a clock pinned to t.
func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{now: t}
}

// Now returns the pinned instant.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
