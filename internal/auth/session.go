package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SessionManager mints and validates stateless HMAC-signed session tokens.
//
// A token is "{issuedAtMillis}-{nonce}.{signature}" where the signature is
// hex-encoded HMAC-SHA256 of the payload under the configured secret.
// There is no server-side session state and no revocation list; a token is
// good until it expires.
type SessionManager struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewSessionManager creates a session manager with the given signing
// secret and token lifetime.
func NewSessionManager(secret string, expiry time.Duration) *SessionManager {
	return &SessionManager{
		secret: []byte(secret),
		expiry: expiry,
		now:    time.Now,
	}
}

// Mint issues a new session token.
func (m *SessionManager) Mint() (string, error) {
	nonce := make([]byte, 32)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate session nonce: %w", err)
	}
	payload := fmt.Sprintf("%d-%s", m.now().UnixMilli(), hex.EncodeToString(nonce))
	return payload + "." + m.sign(payload), nil
}

// Validate checks a token's signature and age. The signature comparison is
// constant-time; the timestamp is only parsed after the signature holds, so
// forged payloads never influence behavior.
func (m *SessionManager) Validate(token string) bool {
	dot := strings.LastIndex(token, ".")
	if dot < 0 {
		return false
	}
	payload, signature := token[:dot], token[dot+1:]

	expected := m.sign(payload)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return false
	}

	dash := strings.Index(payload, "-")
	if dash < 0 {
		return false
	}
	issued, err := strconv.ParseInt(payload[:dash], 10, 64)
	if err != nil {
		return false
	}

	age := m.now().UnixMilli() - issued
	return age >= 0 && age < m.expiry.Milliseconds()
}

func (m *SessionManager) sign(payload string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
