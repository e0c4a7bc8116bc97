package service

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmarin/portfolio-api/internal/auth"
	"github.com/dmarin/portfolio-api/internal/config"
	"github.com/dmarin/portfolio-api/internal/models"
	apierrors "github.com/dmarin/portfolio-api/internal/pkg/errors"
	"github.com/dmarin/portfolio-api/internal/repository"
)

type sentEmail struct {
	to       string
	subject  string
	htmlBody string
	textBody string
}

type mockSender struct {
	sendFunc func(ctx context.Context, to, subject, htmlBody, textBody string) error
	sent     []sentEmail
}

func (m *mockSender) Send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	m.sent = append(m.sent, sentEmail{to, subject, htmlBody, textBody})
	if m.sendFunc != nil {
		return m.sendFunc(ctx, to, subject, htmlBody, textBody)
	}
	return nil
}

var displayCodeRe = regexp.MustCompile(`[A-Z0-9]{4}(?:-[A-Z0-9]{4}){4}`)

func newTestAuthService(t *testing.T) (*AuthService, *repository.MemoryCodeRepository, *mockSender) {
	t.Helper()
	codes := repository.NewMemoryCodeRepository()
	sender := &mockSender{}
	sessions := auth.NewSessionManager("test-secret", 24*time.Hour)
	cfg := config.AuthConfig{
		CodeExpiry:    5 * time.Minute,
		SessionExpiry: 24 * time.Hour,
		AdminEmail:    "admin@example.com",
	}
	logger := slog.New(slog.DiscardHandler)
	return NewAuthService(codes, sender, sessions, cfg, logger, true), codes, sender
}

func TestRequestCodeSendsEmail(t *testing.T) {
	svc, _, sender := newTestAuthService(t)

	expiresIn, err := svc.RequestCode(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 300, expiresIn)

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "admin@example.com", sender.sent[0].to)
	assert.Regexp(t, displayCodeRe, sender.sent[0].textBody)
}

func TestRequestCodeWithoutAdminEmail(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	svc.cfg.AdminEmail = ""

	_, err := svc.RequestCode(context.Background())
	require.Error(t, err)
	assert.Equal(t, 500, apierrors.AsAPIError(err).StatusCode)
	assert.Equal(t, "configuration_error", apierrors.AsAPIError(err).Code)
}

func TestVerifyCodeEndToEnd(t *testing.T) {
	svc, _, sender := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.RequestCode(ctx)
	require.NoError(t, err)

	display := displayCodeRe.FindString(sender.sent[0].textBody)
	require.NotEmpty(t, display)

	// Verification tolerates hyphens and lowercase.
	token, expiresIn, err := svc.VerifyCode(ctx, "  "+strings.ToLower(display)+"  ")
	require.NoError(t, err)
	assert.Equal(t, 86400, expiresIn)
	assert.True(t, svc.ValidateSession(token))
}

func TestVerifyCodeSingleUse(t *testing.T) {
	svc, _, sender := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.RequestCode(ctx)
	require.NoError(t, err)
	display := displayCodeRe.FindString(sender.sent[0].textBody)

	_, _, err = svc.VerifyCode(ctx, display)
	require.NoError(t, err)

	// The record is deleted on first use, so the retry reads as invalid,
	// not used.
	_, _, err = svc.VerifyCode(ctx, display)
	require.Error(t, err)
	assert.Equal(t, "code_invalid", apierrors.AsAPIError(err).Code)
}

func TestVerifyCodeFormat(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	for _, input := range []string{"", "short", "ABCD-1234", "!!!!"} {
		_, _, err := svc.VerifyCode(context.Background(), input)
		require.Error(t, err)
		assert.Equal(t, "code_format", apierrors.AsAPIError(err).Code)
		assert.Equal(t, 400, apierrors.AsAPIError(err).StatusCode)
	}
}

func TestVerifyCodeUnknown(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	_, _, err := svc.VerifyCode(context.Background(), "ABCD1234EFGH5678IJKL")
	require.Error(t, err)
	assert.Equal(t, "code_invalid", apierrors.AsAPIError(err).Code)
}

func TestVerifyCodeUsedRecord(t *testing.T) {
	svc, codes, _ := newTestAuthService(t)
	ctx := context.Background()

	// Older deployments flagged codes instead of deleting them.
	require.NoError(t, codes.Put(ctx, &models.AuthCode{
		Code:      "ABCD1234EFGH5678IJKL",
		ExpiresAt: time.Now().Add(5 * time.Minute).UnixMilli(),
		CreatedAt: time.Now().UnixMilli(),
		Used:      true,
	}))

	_, _, err := svc.VerifyCode(ctx, "ABCD1234EFGH5678IJKL")
	require.Error(t, err)
	assert.Equal(t, "code_used", apierrors.AsAPIError(err).Code)
}

func TestVerifyCodeExpired(t *testing.T) {
	svc, codes, _ := newTestAuthService(t)
	ctx := context.Background()

	require.NoError(t, codes.Put(ctx, &models.AuthCode{
		Code:      "ABCD1234EFGH5678IJKL",
		ExpiresAt: time.Now().Add(-time.Minute).UnixMilli(),
		CreatedAt: time.Now().Add(-10 * time.Minute).UnixMilli(),
	}))

	_, _, err := svc.VerifyCode(ctx, "ABCD1234EFGH5678IJKL")
	require.Error(t, err)
	assert.Equal(t, "code_expired", apierrors.AsAPIError(err).Code)

	// The take deleted the record, so the retry is invalid, not expired.
	_, _, err = svc.VerifyCode(ctx, "ABCD1234EFGH5678IJKL")
	require.Error(t, err)
	assert.Equal(t, "code_invalid", apierrors.AsAPIError(err).Code)
}
