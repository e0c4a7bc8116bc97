// Package notify delivers outbound email for login codes and contact
// form notifications.
package notify

import "context"

// Sender delivers a single email.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody, textBody string) error
}
