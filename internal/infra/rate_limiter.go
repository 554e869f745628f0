package infra

import (
	"context"
	"sync"
	"time"
)

// RateLimiter implements a token bucket rate limiter.
// Thread-safe and suitable for concurrent API calls.
type RateLimiter struct {
	mu         sync.Mutex
	now        func() time.Time
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

// NewRateLimiter creates a new rate limiter.
// maxRequests: maximum burst size
// perSecond: refill rate (requests per second)
func NewRateLimiter(maxRequests int, perSecond float64) *RateLimiter {
	return newRateLimiter(maxRequests, perSecond, time.Now)
}

func newRateLimiter(maxRequests int, perSecond float64, now func() time.Time) *RateLimiter {
	return &RateLimiter{
		now:        now,
		tokens:     float64(maxRequests),
		maxTokens:  float64(maxRequests),
		refillRate: perSecond,
		lastRefill: now(),
	}
}

// Wait blocks until a token is available or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		delay := r.reserve()
		if delay == 0 {
			return nil
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// TryAcquire attempts to acquire a token without blocking.
func (r *RateLimiter) TryAcquire() bool {
	return r.reserve() == 0
}

// reserve takes a token if one is available and returns 0, otherwise it
// returns how long until the next token.
func (r *RateLimiter) reserve() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refill()
	if r.tokens >= 1 {
		r.tokens--
		return 0
	}
	missing := 1 - r.tokens
	return max(time.Duration(missing/r.refillRate*float64(time.Second)), time.Nanosecond)
}

// refill adds tokens based on elapsed time.
// Must be called with mutex held.
func (r *RateLimiter) refill() {
	now := r.now()
	elapsed := now.Sub(r.lastRefill).Seconds()
	r.tokens += elapsed * r.refillRate
	if r.tokens > r.maxTokens {
		r.tokens = r.maxTokens
	}
	r.lastRefill = now
}
