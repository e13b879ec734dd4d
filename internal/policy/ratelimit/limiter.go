// Package ratelimit enforces a minimum interval between outbound requests.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/nepaliabroad/resources/internal/metrics"
)

// Limiter spaces outbound requests by a fixed minimum interval. The first
// Wait never blocks; each later Wait blocks until the interval has elapsed
// since the previous release. Safe for concurrent use.
type Limiter struct {
	limiter *rate.Limiter
}

// New creates a Limiter with the given minimum inter-request interval.
// A non-positive interval disables limiting.
func New(minInterval time.Duration) *Limiter {
	if minInterval <= 0 {
		return &Limiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Limiter{limiter: rate.NewLimiter(rate.Every(minInterval), 1)}
}

// Wait blocks until the limiter releases a slot, respecting the context.
func (l *Limiter) Wait(ctx context.Context) error {
	start := time.Now()
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	if delay := time.Since(start); delay > time.Millisecond {
		metrics.ObserveRateLimitDelay(delay)
	}
	return nil
}
