package timeutil

import (
	"sync"
	"time"
)

// Clock supplies the reference time for every time-sensitive decision.
type Clock interface {
	Now() time.Time
}

type systemClock struct {
	loc *time.Location
}

// NewClock returns a wall clock reporting times in loc.
func NewClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return systemClock{loc: loc}
}

func (c systemClock) Now() time.Time {
	return time.Now().In(c.loc)
}

// ManagedClock is a hand-driven clock for tests.
type ManagedClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewManaged(start time.Time) *ManagedClock {
	return &ManagedClock{now: start}
}

func (c *ManagedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// WarpForward moves the clock forward and returns the new time.
func (c *ManagedClock) WarpForward(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}
