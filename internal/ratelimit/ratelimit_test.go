package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlidingWindowAllowsUpToMax(t *testing.T) {
	l := NewSlidingWindowLimiter(3, 5*time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, d.Allowed, "attempt %d should be allowed", i+1)
		assert.Equal(t, 2-i, d.Remaining)
	}

	d, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Greater(t, d.RetryAfter, time.Duration(0))
}

func TestSlidingWindowIsolatesIdentifiers(t *testing.T) {
	l := NewSlidingWindowLimiter(1, time.Minute)
	ctx := context.Background()

	d, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	d, err = l.Allow(ctx, "5.6.7.8")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestSlidingWindowResets(t *testing.T) {
	l := NewSlidingWindowLimiter(1, time.Minute)
	ctx := context.Background()

	now := time.Now()
	l.now = func() time.Time { return now }

	d, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	l.now = func() time.Time { return now.Add(time.Minute + time.Millisecond) }
	d, err = l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestSlidingWindowPrunesExpiredEntries(t *testing.T) {
	l := NewSlidingWindowLimiter(1, time.Minute)
	ctx := context.Background()

	now := time.Now()
	l.now = func() time.Time { return now }

	for i := 0; i < maxTrackedIdentifiers; i++ {
		_, err := l.Allow(ctx, string(rune(i))+"-ip")
		require.NoError(t, err)
	}
	assert.Len(t, l.entries, maxTrackedIdentifiers)

	// Once every window has lapsed, the next new identifier triggers a prune.
	l.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, err := l.Allow(ctx, "fresh-ip")
	require.NoError(t, err)
	assert.Len(t, l.entries, 1)
}
