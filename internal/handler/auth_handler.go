// Package handler provides HTTP handlers for the portfolio API.
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmarin/portfolio-api/internal/middleware"
	apierrors "github.com/dmarin/portfolio-api/internal/pkg/errors"
	"github.com/dmarin/portfolio-api/internal/pkg/response"
	"github.com/dmarin/portfolio-api/internal/ratelimit"
	"github.com/dmarin/portfolio-api/internal/service"
)

const (
	prodSessionCookie = "__Host-admin_session"
	devSessionCookie  = "admin_session"
)

// AuthHandler handles the admin login flow.
type AuthHandler struct {
	authService    *service.AuthService
	requestLimiter ratelimit.Limiter
	verifyLimiter  ratelimit.Limiter
	sessionExpiry  time.Duration
	development    bool
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(
	authService *service.AuthService,
	requestLimiter, verifyLimiter ratelimit.Limiter,
	sessionExpiry time.Duration,
	development bool,
) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		requestLimiter: requestLimiter,
		verifyLimiter:  verifyLimiter,
		sessionExpiry:  sessionExpiry,
		development:    development,
	}
}

// Register attaches the admin auth routes. The admin page shells live on
// the same subtree, so registration composes onto a shared router instead
// of returning a fresh one.
func (h *AuthHandler) Register(r chi.Router) {
	r.With(middleware.RateLimit(h.requestLimiter, "request-code")).Post("/request-code", h.RequestCode)
	r.With(middleware.RateLimit(h.verifyLimiter, "verify-code")).Post("/verify-code", h.VerifyCode)
	r.Post("/logout", h.Logout)
}

// RequestCode handles POST /admin/request-code
func (h *AuthHandler) RequestCode(w http.ResponseWriter, r *http.Request) {
	expiresIn, err := h.authService.RequestCode(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}

	middleware.RecordAuthCodeIssued()
	middleware.RecordEmailSent("auth_code")

	response.OK(w, map[string]any{
		"success":   true,
		"message":   "Authentication code sent",
		"expiresIn": expiresIn,
	})
}

// VerifyCodeRequest is the HTTP request body for verifying a code.
type VerifyCodeRequest struct {
	Code string `json:"code"`
}

// VerifyCode handles POST /admin/verify-code
func (h *AuthHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req VerifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierrors.ErrBadRequest)
		return
	}

	token, expiresIn, err := h.authService.VerifyCode(r.Context(), req.Code)
	if err != nil {
		response.Error(w, err)
		return
	}

	http.SetCookie(w, h.sessionCookie(token, int(h.sessionExpiry.Seconds())))

	response.OK(w, map[string]any{
		"success":      true,
		"sessionToken": token,
		"expiresIn":    expiresIn,
	})
}

// Logout handles POST /admin/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.sessionCookie("", -1))
	response.OK(w, map[string]any{"success": true})
}

// sessionCookie builds the session cookie. The __Host- prefix requires
// Secure and path=/, which only holds in production deployments behind TLS.
func (h *AuthHandler) sessionCookie(value string, maxAge int) *http.Cookie {
	name := prodSessionCookie
	if h.development {
		name = devSessionCookie
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   !h.development,
		SameSite: http.SameSiteStrictMode,
	}
}

// SessionCookieName returns the cookie name for the environment.
func SessionCookieName(development bool) string {
	if development {
		return devSessionCookie
	}
	return prodSessionCookie
}
