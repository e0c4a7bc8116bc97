package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmarin/portfolio-api/internal/config"
	apierrors "github.com/dmarin/portfolio-api/internal/pkg/errors"
	"github.com/dmarin/portfolio-api/internal/ratelimit"
	"github.com/dmarin/portfolio-api/internal/repository"
)

func newTestContactService(t *testing.T, ipMax, emailMax int) (*ContactService, *repository.MemoryContactRepository, *mockSender) {
	t.Helper()
	repo := repository.NewMemoryContactRepository()
	sender := &mockSender{}
	logger := slog.New(slog.DiscardHandler)
	limits := repository.NewMemoryRateLimitRepository()
	ipLimiter := ratelimit.NewBlockingWindowLimiter(limits, ipMax, time.Hour, 2*time.Hour, logger)
	emailLimiter := ratelimit.NewBlockingWindowLimiter(limits, emailMax, time.Hour, 2*time.Hour, logger)
	cfg := config.EmailConfig{To: "owner@example.com"}
	return NewContactService(repo, sender, ipLimiter, emailLimiter, cfg, logger, true), repo, sender
}

func validContactInput() ContactInput {
	return ContactInput{
		Name:    "Ada",
		Email:   "Ada@Example.com",
		Subject: "Hello",
		Message: "I enjoyed the post about Terraform.",
	}
}

func TestContactSubmitStoresAndNotifies(t *testing.T) {
	svc, repo, sender := newTestContactService(t, 5, 3)

	require.NoError(t, svc.Submit(context.Background(), validContactInput(), "1.2.3.4"))

	messages := repo.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "ada@example.com", messages[0].Email)
	assert.False(t, messages[0].Read)
	assert.False(t, messages[0].Timestamp.IsZero())

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "owner@example.com", sender.sent[0].to)
	assert.Contains(t, sender.sent[0].subject, "Hello")
}

func TestContactEmailRateLimit(t *testing.T) {
	svc, repo, _ := newTestContactService(t, 100, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		input := validContactInput()
		require.NoError(t, svc.Submit(ctx, input, "1.2.3.4"))
	}

	// The email limiter keys on the lowercased address, so changing the
	// case does not evade it.
	input := validContactInput()
	input.Email = "ADA@EXAMPLE.COM"
	err := svc.Submit(ctx, input, "9.9.9.9")
	require.Error(t, err)
	apiErr := apierrors.AsAPIError(err)
	assert.Equal(t, 429, apiErr.StatusCode)
	assert.Greater(t, apiErr.RetryAfter, 0)

	assert.Len(t, repo.Messages(), 3)
}

func TestContactIPRateLimit(t *testing.T) {
	svc, _, _ := newTestContactService(t, 5, 100)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		input := validContactInput()
		input.Email = string(rune('a'+i)) + "@example.com"
		require.NoError(t, svc.Submit(ctx, input, "1.2.3.4"))
	}

	input := validContactInput()
	input.Email = "fresh@example.com"
	err := svc.Submit(ctx, input, "1.2.3.4")
	require.Error(t, err)
	assert.Equal(t, 429, apierrors.AsAPIError(err).StatusCode)
}

func TestContactNotificationFailureIsNotFatal(t *testing.T) {
	svc, repo, sender := newTestContactService(t, 5, 3)
	sender.sendFunc = func(context.Context, string, string, string, string) error {
		return assert.AnError
	}

	require.NoError(t, svc.Submit(context.Background(), validContactInput(), "1.2.3.4"))
	assert.Len(t, repo.Messages(), 1)
}

func TestContactWithoutRecipientStillStores(t *testing.T) {
	svc, repo, sender := newTestContactService(t, 5, 3)
	svc.cfg.To = ""

	require.NoError(t, svc.Submit(context.Background(), validContactInput(), "1.2.3.4"))
	assert.Len(t, repo.Messages(), 1)
	assert.Empty(t, sender.sent)
}
