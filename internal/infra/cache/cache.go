// Package cache provides a small in-memory TTL cache. The CEP lookup is
// its main consumer: address forms re-resolve the same postal code many
// times in a row, and ViaCEP has no reason to see more than one of those.
package cache

import (
	"sync"
	"time"
)

type item[T any] struct {
	value   T
	expires time.Time
}

// InMemory is a thread-safe TTL cache. Expired entries are invisible to
// Get immediately and reclaimed by a background janitor.
type InMemory[T any] struct {
	mu      sync.RWMutex
	entries map[string]item[T]
	ttl     time.Duration
}

// New creates a cache whose entries live for ttl.
func New[T any](ttl time.Duration) *InMemory[T] {
	c := &InMemory[T]{
		entries: make(map[string]item[T]),
		ttl:     ttl,
	}
	go c.janitor()
	return c
}

// Get returns the cached value, or false when absent or expired.
func (c *InMemory[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	it, ok := c.entries[key]
	if !ok || time.Now().After(it.expires) {
		var zero T
		return zero, false
	}
	return it.value, true
}

// Set stores value under key for the configured TTL.
func (c *InMemory[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = item[T]{value: value, expires: time.Now().Add(c.ttl)}
}

// Delete evicts one key.
func (c *InMemory[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *InMemory[T]) janitor() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		c.mu.Lock()
		for key, it := range c.entries {
			if now.After(it.expires) {
				delete(c.entries, key)
			}
		}
		c.mu.Unlock()
	}
}
