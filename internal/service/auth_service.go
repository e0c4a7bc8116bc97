// Package service implements the business logic between handlers and storage.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmarin/portfolio-api/internal/auth"
	"github.com/dmarin/portfolio-api/internal/config"
	"github.com/dmarin/portfolio-api/internal/models"
	"github.com/dmarin/portfolio-api/internal/notify"
	apierrors "github.com/dmarin/portfolio-api/internal/pkg/errors"
	"github.com/dmarin/portfolio-api/internal/repository"
)

// AuthService implements the one-time-code login flow.
type AuthService struct {
	codes       repository.CodeRepository
	sender      notify.Sender
	sessions    *auth.SessionManager
	cfg         config.AuthConfig
	logger      *slog.Logger
	development bool
	now         func() time.Time
}

// NewAuthService creates an auth service.
func NewAuthService(
	codes repository.CodeRepository,
	sender notify.Sender,
	sessions *auth.SessionManager,
	cfg config.AuthConfig,
	logger *slog.Logger,
	development bool,
) *AuthService {
	return &AuthService{
		codes:       codes,
		sender:      sender,
		sessions:    sessions,
		cfg:         cfg,
		logger:      logger,
		development: development,
		now:         time.Now,
	}
}

// RequestCode mints a one-time code, stores it and emails it to the admin.
// Returns the code's lifetime in seconds.
func (s *AuthService) RequestCode(ctx context.Context) (int, error) {
	if s.cfg.AdminEmail == "" {
		return 0, apierrors.NewConfigurationError("Admin email is not configured")
	}

	code, err := auth.GenerateCode()
	if err != nil {
		s.logger.Error("failed to generate auth code", "error", err)
		return 0, apierrors.NewUpstreamError("Failed to generate code", err, s.development)
	}

	now := s.now()
	record := &models.AuthCode{
		Code:      code,
		ExpiresAt: now.Add(s.cfg.CodeExpiry).UnixMilli(),
		CreatedAt: now.UnixMilli(),
	}
	if err := s.codes.Put(ctx, record); err != nil {
		s.logger.Error("failed to store auth code", "error", err)
		return 0, apierrors.NewUpstreamError("Failed to store code", err, s.development)
	}

	subject, htmlBody, textBody := notify.AuthCodeEmail(auth.FormatCode(code), s.cfg.CodeExpiry)
	if err := s.sender.Send(ctx, s.cfg.AdminEmail, subject, htmlBody, textBody); err != nil {
		s.logger.Error("failed to send auth code email", "error", err)
		return 0, apierrors.NewUpstreamError("Failed to send code", err, s.development)
	}

	s.logger.Info("auth code issued", "expires_in", int(s.cfg.CodeExpiry.Seconds()))
	return int(s.cfg.CodeExpiry.Seconds()), nil
}

// VerifyCode consumes a one-time code and, when it is live, mints a session
// token. The code is deleted atomically on first read so two concurrent
// verifications can never both succeed. Returns the token and its lifetime
// in seconds.
func (s *AuthService) VerifyCode(ctx context.Context, input string) (string, int, error) {
	code := auth.NormalizeCode(input)
	if !auth.ValidCodeLength(code) {
		return "", 0, apierrors.ErrCodeFormat
	}

	record, err := s.codes.Take(ctx, code)
	if err != nil {
		s.logger.Error("failed to take auth code", "error", err)
		return "", 0, apierrors.NewUpstreamError("Failed to verify code", err, s.development)
	}
	if record == nil {
		return "", 0, apierrors.ErrCodeInvalid
	}
	if record.Used {
		return "", 0, apierrors.ErrCodeUsed
	}
	if record.Expired(s.now()) {
		return "", 0, apierrors.ErrCodeExpired
	}

	token, err := s.sessions.Mint()
	if err != nil {
		s.logger.Error("failed to mint session token", "error", err)
		return "", 0, apierrors.NewUpstreamError("Failed to create session", err, s.development)
	}

	s.logger.Info("admin session issued")
	return token, int(s.cfg.SessionExpiry.Seconds()), nil
}

// ValidateSession reports whether a bearer token is a live session.
func (s *AuthService) ValidateSession(token string) bool {
	return s.sessions.Validate(token)
}
