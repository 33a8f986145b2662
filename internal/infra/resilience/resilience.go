// Package resilience provides the fault-tolerance building blocks shared
// by the external integrations: retry with backoff for CEP lookups, a
// circuit breaker around outbound HTTP, and a bulkhead that serializes
// document-parser calls (the extraction API tolerates exactly one
// in-flight request per key).
package resilience

import (
	"context"
	"math/rand"
	"time"

	"github.com/sony/gobreaker"
)

// Config holds the retry and concurrency parameters.
type Config struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int
}

// RetryWithBackoff runs fn up to MaxRetries+1 times, doubling the wait
// between attempts and adding up to 50% jitter. Context cancellation cuts
// both the waits and further attempts short.
func RetryWithBackoff(ctx context.Context, cfg Config, fn func() error) error {
	var lastErr error
	backoff := cfg.InitialBackoff
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt >= cfg.MaxRetries {
			return lastErr
		}

		wait := backoff
		if wait > 0 {
			wait += time.Duration(rand.Int63n(int64(wait/2) + 1))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		backoff *= 2
	}
}

// NewCircuitBreaker builds a breaker tuned for slow external HTTP APIs:
// it trips after 5+ requests fail at a 60% ratio, probes with 3 requests
// when half-open, and resets its counters every 30s while closed.
func NewCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && ratio >= 0.6
		},
	})
}

// Bulkhead caps how many callers may hold a resource at once.
type Bulkhead struct {
	slots chan struct{}
}

// NewBulkhead creates a bulkhead with size slots.
func NewBulkhead(size int) *Bulkhead {
	return &Bulkhead{slots: make(chan struct{}, size)}
}

// Acquire takes a slot, blocking until one frees up or ctx is done.
func (b *Bulkhead) Acquire(ctx context.Context) error {
	select {
	case b.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a slot taken by Acquire.
func (b *Bulkhead) Release() {
	<-b.slots
}
