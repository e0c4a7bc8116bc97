package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmarin/portfolio-api/internal/models"
	"github.com/dmarin/portfolio-api/internal/repository"
)

// BlockingWindowLimiter is a sliding-window limiter backed by durable storage.
// Exceeding the limit starts a penalty block; once the block lapses the
// identifier gets a fresh window. Store failures fail open so a storage
// outage never takes the contact form down with it.
type BlockingWindowLimiter struct {
	repo   repository.RateLimitRepository
	max    int
	window time.Duration
	block  time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewBlockingWindowLimiter creates a durable limiter allowing max attempts per
// window, blocking for the given duration on overflow.
func NewBlockingWindowLimiter(repo repository.RateLimitRepository, max int, window, block time.Duration, logger *slog.Logger) *BlockingWindowLimiter {
	return &BlockingWindowLimiter{
		repo:   repo,
		max:    max,
		window: window,
		block:  block,
		now:    time.Now,
		logger: logger,
	}
}

// Allow records an attempt for id and reports whether it may proceed.
func (l *BlockingWindowLimiter) Allow(ctx context.Context, id string) (Decision, error) {
	now := l.now()

	record, err := l.repo.Get(ctx, id)
	if err != nil {
		l.logger.Warn("rate limit store read failed, allowing request",
			"id", id, "error", err)
		return Decision{Allowed: true, Remaining: l.max - 1}, nil
	}
	if record == nil {
		record = &models.RateLimitRecord{ID: id}
	}

	if record.Blocked(now) {
		return Decision{
			Allowed:    false,
			RetryAfter: time.Duration(record.BlockedUntil-now.UnixMilli()) * time.Millisecond,
		}, nil
	}

	// A lapsed block means a fresh window.
	if record.BlockedUntil > 0 && record.BlockedUntil <= now.UnixMilli() {
		record.BlockedUntil = 0
		record.Attempts = nil
	}

	record.PruneAttempts(now, l.window)
	record.Attempts = append(record.Attempts, now.UnixMilli())
	record.LastUpdated = now.UnixMilli()

	decision := Decision{Allowed: true, Remaining: l.max - len(record.Attempts)}
	if len(record.Attempts) > l.max {
		record.BlockedUntil = now.Add(l.block).UnixMilli()
		decision = Decision{Allowed: false, RetryAfter: l.block}
	}

	if err := l.repo.Put(ctx, record); err != nil {
		l.logger.Warn("rate limit store write failed, allowing request",
			"id", id, "error", err)
		return Decision{Allowed: true, Remaining: l.max - 1}, nil
	}
	return decision, nil
}
