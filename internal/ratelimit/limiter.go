// Package ratelimit implements per-resource sliding-window call accounting.
package ratelimit

import (
	"sync"
	"time"

	"github.com/mselser95/polymarket-paper/pkg/types"
)

// Default limits applied when a caller has no specific budget.
const (
	DefaultMaxCalls = 100
	DefaultWindow   = 60 * time.Second
)

// Limiter records call timestamps per resource and rejects calls once a
// resource has maxCalls inside the trailing window. Timestamps that fall
// out of the window are pruned lazily on each check.
type Limiter struct {
	mu    sync.Mutex
	calls map[string][]time.Time
	now   func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// New creates a Limiter.
func New(opts ...Option) *Limiter {
	l := &Limiter{
		calls: make(map[string][]time.Time),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CheckLimit records a call against resource, or returns a
// *types.RateLimitError if the window already holds maxCalls calls.
// The prune, count and record steps run under a single lock.
func (l *Limiter) CheckLimit(resource string, maxCalls int, window time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	recent := prune(l.calls[resource], now, window)

	if len(recent) >= maxCalls {
		l.calls[resource] = recent
		RejectedTotal.WithLabelValues(resource).Inc()
		return &types.RateLimitError{Resource: resource}
	}

	l.calls[resource] = append(recent, now)
	AllowedTotal.WithLabelValues(resource).Inc()
	WindowUsage.WithLabelValues(resource).Set(float64(len(recent) + 1))

	return nil
}

// Count returns how many calls for resource are inside the trailing window.
func (l *Limiter) Count(resource string, window time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	recent := prune(l.calls[resource], l.now(), window)
	l.calls[resource] = recent
	return len(recent)
}

// prune drops timestamps at or beyond window age. Timestamps are appended
// in order, so everything before the first recent one is stale.
func prune(calls []time.Time, now time.Time, window time.Duration) []time.Time {
	i := 0
	for i < len(calls) && now.Sub(calls[i]) >= window {
		i++
	}
	if i == 0 {
		return calls
	}
	return append(calls[:0:0], calls[i:]...)
}
