// Package ratelimit provides per-identifier request throttling.
//
// Two limiters cover the two needs of the API: an in-memory window
// limiter for cheap per-endpoint throttles, and a durable limiter with a
// penalty block for the contact form.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Decision is the outcome of an Allow call.
type Decision struct {
	Allowed   bool
	Remaining int
	// RetryAfter is how long the caller should wait before retrying.
	// Zero when Allowed.
	RetryAfter time.Duration
}

// Limiter decides whether a request identified by id may proceed.
type Limiter interface {
	Allow(ctx context.Context, id string) (Decision, error)
}

const maxTrackedIdentifiers = 10000

type windowEntry struct {
	count   int
	resetAt time.Time
}

// SlidingWindowLimiter is an in-memory per-identifier limiter. State does
// not survive a restart, which is acceptable for the abuse ceilings it
// enforces.
type SlidingWindowLimiter struct {
	mu      sync.Mutex
	entries map[string]*windowEntry
	max     int
	window  time.Duration
	now     func() time.Time
}

// NewSlidingWindowLimiter creates a limiter allowing max requests per window
// per identifier.
func NewSlidingWindowLimiter(max int, window time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		entries: make(map[string]*windowEntry),
		max:     max,
		window:  window,
		now:     time.Now,
	}
}

// Allow records an attempt and reports whether it is within the limit.
func (l *SlidingWindowLimiter) Allow(_ context.Context, id string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, ok := l.entries[id]
	if !ok || now.After(entry.resetAt) {
		if len(l.entries) >= maxTrackedIdentifiers {
			l.prune(now)
		}
		l.entries[id] = &windowEntry{count: 1, resetAt: now.Add(l.window)}
		return Decision{Allowed: true, Remaining: l.max - 1}, nil
	}

	if entry.count >= l.max {
		return Decision{Allowed: false, RetryAfter: entry.resetAt.Sub(now)}, nil
	}
	entry.count++
	return Decision{Allowed: true, Remaining: l.max - entry.count}, nil
}

// prune drops expired windows. Caller holds the lock.
func (l *SlidingWindowLimiter) prune(now time.Time) {
	for id, entry := range l.entries {
		if now.After(entry.resetAt) {
			delete(l.entries, id)
		}
	}
}
