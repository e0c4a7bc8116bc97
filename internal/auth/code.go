// Package auth implements one-time login codes and signed session tokens.
package auth

import (
	"crypto/rand"
	"fmt"
	"strings"
)

const (
	codeLength  = 20
	codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// GenerateCode returns a random 20-character code drawn from A-Z0-9.
func GenerateCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	for i, b := range buf {
		buf[i] = codeCharset[int(b)%len(codeCharset)]
	}
	return string(buf), nil
}

// FormatCode inserts a hyphen every four characters for display,
// XXXX-XXXX-XXXX-XXXX-XXXX. The stored form never carries hyphens.
func FormatCode(code string) string {
	var b strings.Builder
	for i := 0; i < len(code); i += 4 {
		if i > 0 {
			b.WriteByte('-')
		}
		end := i + 4
		if end > len(code) {
			end = len(code)
		}
		b.WriteString(code[i:end])
	}
	return b.String()
}

// NormalizeCode uppercases the input and strips every non-alphanumeric
// character, so users may paste codes with or without hyphens or spaces.
func NormalizeCode(input string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(input) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidCodeLength reports whether a normalized code has the expected length.
func ValidCodeLength(code string) bool {
	return len(code) == codeLength
}
