// Package ratelimit provides token bucket rate limiting for lvlup operations.
// The HTTP API and the MCP server share one set of per-operation limits.
package ratelimit

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrRateLimited is returned by Check when an operation is over its limit.
var ErrRateLimited = errors.New("rate limit exceeded")

// Operation names used as limiter keys.
const (
	OpUpdate  = "update"
	OpStats   = "stats"
	OpHistory = "history"
)

// Limiter implements a per-key token bucket. Each key gets its own bucket
// that starts full. Safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64          // tokens per second
	burst   int              // bucket capacity
	nowFunc func() time.Time // injectable clock for testing
}

type bucket struct {
	tokens    float64
	lastCheck time.Time
}

// refill adds tokens for the time elapsed since the last check, capped at burst.
func (b *bucket) refill(now time.Time, rate float64, burst int) {
	elapsed := now.Sub(b.lastCheck).Seconds()
	if elapsed <= 0 {
		return
	}
	b.tokens = min(b.tokens+rate*elapsed, float64(burst))
	b.lastCheck = now
}

// NewLimiter creates a limiter refilling at rate tokens per second with the
// given burst capacity.
func NewLimiter(rate float64, burst int) *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		burst:   burst,
		nowFunc: time.Now,
	}
}

// PerMinute creates a limiter allowing n requests per minute with a burst
// of a tenth of that, but at least one.
func PerMinute(n int) *Limiter {
	return NewLimiter(float64(n)/60.0, max(n/10, 1))
}

// Allow takes a token for key and reports whether one was available.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(l.burst), lastCheck: now}
		l.buckets[key] = b
	}
	b.refill(now, l.rate, l.burst)

	if b.tokens < 1.0 {
		return false
	}
	b.tokens--
	return true
}

// Limits maps operation names to limiters. Operations without an entry are
// unlimited. A nil Limits disables limiting.
type Limits map[string]*Limiter

// NewLimits creates the default limits. Mutations are capped at
// updatesPerMinute; reads get a generous fixed budget. A non-positive
// updatesPerMinute disables the mutation limit.
func NewLimits(updatesPerMinute int) Limits {
	limits := Limits{
		OpStats:   NewLimiter(10.0, 50), // 600/minute, burst 50
		OpHistory: NewLimiter(2.0, 10),  // 120/minute, burst 10
	}
	if updatesPerMinute > 0 {
		limits[OpUpdate] = PerMinute(updatesPerMinute)
	}
	return limits
}

// Check takes a token for op. It returns an error wrapping ErrRateLimited
// when the operation is over its limit.
func (ls Limits) Check(op string) error {
	limiter, ok := ls[op]
	if !ok {
		return nil
	}
	if !limiter.Allow(op) {
		return fmt.Errorf("%w for %s, please try again shortly", ErrRateLimited, op)
	}
	return nil
}
