package clock

import (
	"sync"
	"time"
)

// Real returns a clock backed by the system time.
func Real() *RealClock {
	return &RealClock{}
}

// RealClock reads time.Now.
type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now().UTC()
}

// Fixed returns a clock stopped at t. Tests use it to pin "today".
func Fixed(t time.Time) *FixedClock {
	return &FixedClock{now: t}
}

// FixedClock always reports the same instant until Set moves it.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t.
func (c *FixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
