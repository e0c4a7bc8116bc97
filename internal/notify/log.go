package notify

import (
	"context"
	"log/slog"
)

// LogSender writes email to the log instead of delivering it. Used in
// development so the login flow works without SES credentials.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a log-backed sender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the email instead of sending it.
func (s *LogSender) Send(_ context.Context, to, subject, _ string, textBody string) error {
	s.logger.Info("email (log sender)",
		"to", to,
		"subject", subject,
		"body", textBody,
	)
	return nil
}
