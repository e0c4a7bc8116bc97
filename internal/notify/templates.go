package notify

import (
	"fmt"
	"html"
	"time"

	"github.com/dmarin/portfolio-api/internal/models"
)

// AuthCodeEmail renders the login code email. The code arrives in its
// hyphenated display form.
func AuthCodeEmail(displayCode string, expiry time.Duration) (subject, htmlBody, textBody string) {
	minutes := int(expiry.Minutes())
	subject = "Your admin login code"

	htmlBody = fmt.Sprintf(`<html>
<body style="font-family: sans-serif; max-width: 480px; margin: 0 auto;">
  <h2>Admin login</h2>
  <p>Use this code to sign in:</p>
  <p style="font-size: 24px; font-weight: bold; letter-spacing: 2px; font-family: monospace;">%s</p>
  <p>The code expires in %d minutes and can be used once.</p>
  <p>If you did not request this code, you can ignore this email.</p>
</body>
</html>`, html.EscapeString(displayCode), minutes)

	textBody = fmt.Sprintf(
		"Your admin login code: %s\n\nThe code expires in %d minutes and can be used once.\nIf you did not request this code, you can ignore this email.\n",
		displayCode, minutes)
	return subject, htmlBody, textBody
}

// ContactEmail renders the notification sent when someone submits the
// contact form.
func ContactEmail(msg *models.ContactMessage) (subject, htmlBody, textBody string) {
	subject = fmt.Sprintf("Contact form: %s", msg.Subject)

	htmlBody = fmt.Sprintf(`<html>
<body style="font-family: sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>New contact message</h2>
  <p><strong>From:</strong> %s &lt;%s&gt;</p>
  <p><strong>Subject:</strong> %s</p>
  <p><strong>Received:</strong> %s</p>
  <hr>
  <p style="white-space: pre-wrap;">%s</p>
</body>
</html>`,
		html.EscapeString(msg.Name),
		html.EscapeString(msg.Email),
		html.EscapeString(msg.Subject),
		msg.Timestamp.UTC().Format(time.RFC3339),
		html.EscapeString(msg.Message))

	textBody = fmt.Sprintf(
		"New contact message\n\nFrom: %s <%s>\nSubject: %s\nReceived: %s\n\n%s\n",
		msg.Name, msg.Email, msg.Subject, msg.Timestamp.UTC().Format(time.RFC3339), msg.Message)
	return subject, htmlBody, textBody
}
