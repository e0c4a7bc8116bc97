package models

import "time"

// RateLimitRecord is the durable state of the blocking rate limiter for one
// identifier (a purpose tag plus client IP or normalized email).
type RateLimitRecord struct {
	ID           string  `json:"id"`
	Attempts     []int64 `json:"attempts"` // epoch-millisecond timestamps, newest last
	BlockedUntil int64   `json:"blockedUntil,omitempty"`
	LastUpdated  int64   `json:"lastUpdated"`
}

// Blocked reports whether the identifier is inside an active block.
func (r *RateLimitRecord) Blocked(now time.Time) bool {
	return r.BlockedUntil > 0 && r.BlockedUntil > now.UnixMilli()
}

// PruneAttempts drops attempt timestamps older than the window.
func (r *RateLimitRecord) PruneAttempts(now time.Time, window time.Duration) {
	cutoff := now.Add(-window).UnixMilli()
	kept := r.Attempts[:0]
	for _, ts := range r.Attempts {
		if ts > cutoff {
			kept = append(kept, ts)
		}
	}
	r.Attempts = kept
}
