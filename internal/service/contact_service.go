package service

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/dmarin/portfolio-api/internal/config"
	"github.com/dmarin/portfolio-api/internal/models"
	"github.com/dmarin/portfolio-api/internal/notify"
	apierrors "github.com/dmarin/portfolio-api/internal/pkg/errors"
	"github.com/dmarin/portfolio-api/internal/pkg/ident"
	"github.com/dmarin/portfolio-api/internal/ratelimit"
	"github.com/dmarin/portfolio-api/internal/repository"
)

// ContactInput is a validated contact form submission.
type ContactInput struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required,max=300"`
	Message string `json:"message" validate:"required,max=10000"`
}

// ContactService stores contact messages and notifies the operator.
// Submissions are throttled per client IP and per normalized sender email
// with the durable blocking limiter.
type ContactService struct {
	repo         repository.ContactRepository
	sender       notify.Sender
	ipLimiter    ratelimit.Limiter
	emailLimiter ratelimit.Limiter
	cfg          config.EmailConfig
	logger       *slog.Logger
	development  bool
	now          func() time.Time
}

// NewContactService creates a contact service.
func NewContactService(
	repo repository.ContactRepository,
	sender notify.Sender,
	ipLimiter, emailLimiter ratelimit.Limiter,
	cfg config.EmailConfig,
	logger *slog.Logger,
	development bool,
) *ContactService {
	return &ContactService{
		repo:         repo,
		sender:       sender,
		ipLimiter:    ipLimiter,
		emailLimiter: emailLimiter,
		cfg:          cfg,
		logger:       logger,
		development:  development,
		now:          time.Now,
	}
}

// Submit stores a contact message and emails the operator.
func (s *ContactService) Submit(ctx context.Context, input ContactInput, clientIP string) error {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	if d, err := s.ipLimiter.Allow(ctx, "contact:ip:"+clientIP); err == nil && !d.Allowed {
		return rateLimited(d)
	}
	if d, err := s.emailLimiter.Allow(ctx, "contact:email:"+email); err == nil && !d.Allowed {
		return rateLimited(d)
	}

	msg := &models.ContactMessage{
		ID:        ident.New("msg"),
		Name:      input.Name,
		Email:     email,
		Subject:   input.Subject,
		Message:   input.Message,
		Timestamp: s.now(),
	}
	if err := s.repo.Put(ctx, msg); err != nil {
		s.logger.Error("failed to store contact message", "error", err)
		return apierrors.NewUpstreamError("Failed to store message", err, s.development)
	}

	if s.cfg.To == "" {
		s.logger.Warn("contact notification skipped, no recipient configured", "id", msg.ID)
		return nil
	}

	subject, htmlBody, textBody := notify.ContactEmail(msg)
	if err := s.sender.Send(ctx, s.cfg.To, subject, htmlBody, textBody); err != nil {
		// The message is already stored; delivery failure is not the
		// submitter's problem.
		s.logger.Error("failed to send contact notification", "id", msg.ID, "error", err)
		return nil
	}

	s.logger.Info("contact message received", "id", msg.ID)
	return nil
}

func rateLimited(d ratelimit.Decision) error {
	seconds := int(math.Ceil(d.RetryAfter.Seconds()))
	return apierrors.NewRateLimitError("Too many requests. Please try again later.", seconds)
}
