package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	apierrors "github.com/dmarin/portfolio-api/internal/pkg/errors"
	"github.com/dmarin/portfolio-api/internal/pkg/response"
	"github.com/dmarin/portfolio-api/internal/ratelimit"
)

// RateLimit returns a middleware throttling requests per client IP with the
// given limiter. The purpose tag keeps separate endpoints from sharing one
// budget and labels the rejection metric.
func RateLimit(limiter ratelimit.Limiter, purpose string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := purpose + ":" + getRealIP(r)

			decision, err := limiter.Allow(r.Context(), id)
			if err != nil {
				// Limiter failures never block the request.
				next.ServeHTTP(w, r)
				return
			}

			if !decision.Allowed {
				rateLimitRejectionsTotal.WithLabelValues(purpose).Inc()
				seconds := int(math.Ceil(decision.RetryAfter.Seconds()))
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("X-RateLimit-Reset",
					strconv.FormatInt(time.Now().Add(decision.RetryAfter).Unix(), 10))
				response.Error(w, apierrors.NewRateLimitError(
					"Too many requests. Please try again later.", seconds))
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			next.ServeHTTP(w, r)
		})
	}
}

// getRealIP extracts the real client IP, considering proxies.
func getRealIP(r *http.Request) string {
	// Check X-Forwarded-For header
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}

	// Check X-Real-IP header
	if xrip := r.Header.Get("X-Real-IP"); xrip != "" {
		return xrip
	}

	return r.RemoteAddr
}

// ClientIP is the exported form of the IP extraction used by handlers that
// key limiters on something beyond the request path.
func ClientIP(r *http.Request) string {
	return getRealIP(r)
}
