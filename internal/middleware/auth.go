package middleware

import (
	"net/http"
	"strings"

	"github.com/dmarin/portfolio-api/internal/pkg/response"
)

// BearerToken extracts the token from an Authorization: Bearer header.
// Returns "" when the header is absent or malformed.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// RequireSession returns a middleware rejecting requests that do not carry
// a valid bearer session token. The 401 message does not distinguish a
// missing token from a forged or expired one.
func RequireSession(validate func(token string) bool) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" || !validate(token) {
				response.Unauthorized(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
