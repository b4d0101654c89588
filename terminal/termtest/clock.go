package termtest

import (
	"sync"
	"time"
)

// MockClock is a controllable time source; Sleep advances it instead of blocking
type MockClock struct {
	mu  sync.RWMutex
	now time.Time
}

// NewMockClock creates a mock clock at start
func NewMockClock(start time.Time) *MockClock {
	return &MockClock{now: start}
}

// Now returns the current mocked time
func (c *MockClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// Advance moves the clock forward by d
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Sleep is Advance, letting code under test wait in virtual time
func (c *MockClock) Sleep(d time.Duration) {
	if d > 0 {
		c.Advance(d)
	}
}

// RealClock is the wall clock
type RealClock struct{}

func (RealClock) Now() time.Time        { return time.Now() }
func (RealClock) Sleep(d time.Duration) { time.Sleep(d) }
