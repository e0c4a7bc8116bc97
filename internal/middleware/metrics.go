package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portfolio_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Domain metrics
	blogViewsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "portfolio_blog_views_total",
			Help: "Total blog view increments recorded",
		},
	)

	authCodesIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "portfolio_auth_codes_issued_total",
			Help: "Total one-time login codes issued",
		},
	)

	emailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_emails_sent_total",
			Help: "Total emails sent by kind",
		},
		[]string{"kind"},
	)

	rateLimitRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_rate_limit_rejections_total",
			Help: "Total requests rejected by a rate limiter",
		},
		[]string{"purpose"},
	)
)

// RecordBlogView bumps the view counter metric.
func RecordBlogView() {
	blogViewsTotal.Inc()
}

// RecordAuthCodeIssued bumps the issued-code metric.
func RecordAuthCodeIssued() {
	authCodesIssuedTotal.Inc()
}

// RecordEmailSent bumps the sent-email metric for a kind ("auth_code",
// "contact").
func RecordEmailSent(kind string) {
	emailsSentTotal.WithLabelValues(kind).Inc()
}

// Metrics returns a middleware that records Prometheus metrics.
func Metrics() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &metricsResponseWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			path := normalizePath(r)
			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.status)

			httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
		})
	}
}

// normalizePath returns the chi route pattern so per-post paths do not
// explode metric cardinality.
func normalizePath(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	// Fall back to the first path segment
	parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 2)
	return "/" + parts[0]
}

type metricsResponseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (mw *metricsResponseWriter) WriteHeader(code int) {
	if mw.wroteHeader {
		return
	}
	mw.status = code
	mw.wroteHeader = true
	mw.ResponseWriter.WriteHeader(code)
}
