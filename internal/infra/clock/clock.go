// Package clock implements the Clock port. The adjustable clock backs the
// dev tools: shifting "today" forward makes the recurring engine generate
// occurrences that would otherwise need wall-clock days to become due.
package clock

import (
	"sync"
	"time"
)

// System returns the real wall-clock time.
type System struct{}

// Now returns time.Now.
func (System) Now() time.Time { return time.Now() }

// Adjustable is a clock whose "today" can be pinned to a simulated date.
// When unset it behaves like System.
type Adjustable struct {
	mu        sync.RWMutex
	simulated *time.Time
}

// NewAdjustable creates an adjustable clock following wall-clock time.
func NewAdjustable() *Adjustable {
	return &Adjustable{}
}

// Now returns the simulated date if one is set, otherwise wall-clock time.
func (c *Adjustable) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.simulated != nil {
		return *c.simulated
	}
	return time.Now()
}

// Set pins the clock to the given instant.
func (c *Adjustable) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.simulated = &t
}

// Clear returns the clock to wall-clock time.
func (c *Adjustable) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.simulated = nil
}

// Simulated reports the pinned instant, if any.
func (c *Adjustable) Simulated() (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.simulated == nil {
		return time.Time{}, false
	}
	return *c.simulated, true
}
