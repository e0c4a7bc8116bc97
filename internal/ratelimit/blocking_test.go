package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmarin/portfolio-api/internal/models"
	"github.com/dmarin/portfolio-api/internal/repository"
)

func newTestBlockingWindowLimiter(t *testing.T, max int) (*BlockingWindowLimiter, *repository.MemoryRateLimitRepository) {
	t.Helper()
	repo := repository.NewMemoryRateLimitRepository()
	logger := slog.New(slog.DiscardHandler)
	return NewBlockingWindowLimiter(repo, max, time.Hour, 2*time.Hour, logger), repo
}

func TestBlockingWindowLimiterBlocksAfterMax(t *testing.T) {
	l, _ := newTestBlockingWindowLimiter(t, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := l.Allow(ctx, "contact:email:a@b.com")
		require.NoError(t, err)
		assert.True(t, d.Allowed, "attempt %d should be allowed", i+1)
	}

	d, err := l.Allow(ctx, "contact:email:a@b.com")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 2*time.Hour, d.RetryAfter)
}

func TestBlockingWindowLimiterStaysBlocked(t *testing.T) {
	l, _ := newTestBlockingWindowLimiter(t, 1)
	ctx := context.Background()

	now := time.Now()
	l.now = func() time.Time { return now }

	_, err := l.Allow(ctx, "contact:ip:1.2.3.4")
	require.NoError(t, err)
	d, err := l.Allow(ctx, "contact:ip:1.2.3.4")
	require.NoError(t, err)
	require.False(t, d.Allowed)

	// One minute into the block it is still refused, with the remaining
	// block time as the retry hint.
	l.now = func() time.Time { return now.Add(time.Minute) }
	d, err = l.Allow(ctx, "contact:ip:1.2.3.4")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.InDelta(t, (2*time.Hour - time.Minute).Milliseconds(), d.RetryAfter.Milliseconds(), 1)
}

func TestBlockingWindowLimiterFreshWindowAfterBlock(t *testing.T) {
	l, _ := newTestBlockingWindowLimiter(t, 1)
	ctx := context.Background()

	now := time.Now()
	l.now = func() time.Time { return now }

	_, err := l.Allow(ctx, "contact:ip:1.2.3.4")
	require.NoError(t, err)
	d, err := l.Allow(ctx, "contact:ip:1.2.3.4")
	require.NoError(t, err)
	require.False(t, d.Allowed)

	// Just past the block the identifier starts over with a clean window.
	l.now = func() time.Time { return now.Add(2*time.Hour + time.Millisecond) }
	d, err = l.Allow(ctx, "contact:ip:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestBlockingWindowLimiterSlidingWindow(t *testing.T) {
	l, _ := newTestBlockingWindowLimiter(t, 2)
	ctx := context.Background()

	now := time.Now()
	l.now = func() time.Time { return now }

	_, err := l.Allow(ctx, "contact:ip:1.2.3.4")
	require.NoError(t, err)
	_, err = l.Allow(ctx, "contact:ip:1.2.3.4")
	require.NoError(t, err)

	// Old attempts age out of the window, so a later attempt is allowed.
	l.now = func() time.Time { return now.Add(time.Hour + time.Minute) }
	d, err := l.Allow(ctx, "contact:ip:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

type failingRateLimitRepo struct{}

func (failingRateLimitRepo) Get(context.Context, string) (*models.RateLimitRecord, error) {
	return nil, errors.New("store down")
}

func (failingRateLimitRepo) Put(context.Context, *models.RateLimitRecord) error {
	return errors.New("store down")
}

func TestBlockingWindowLimiterFailsOpen(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	l := NewBlockingWindowLimiter(failingRateLimitRepo{}, 1, time.Hour, 2*time.Hour, logger)

	for i := 0; i < 5; i++ {
		d, err := l.Allow(context.Background(), "contact:ip:1.2.3.4")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	}
}
