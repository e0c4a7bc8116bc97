package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dmarin/portfolio-api/internal/middleware"
	apierrors "github.com/dmarin/portfolio-api/internal/pkg/errors"
	"github.com/dmarin/portfolio-api/internal/pkg/response"
	"github.com/dmarin/portfolio-api/internal/ratelimit"
	"github.com/dmarin/portfolio-api/internal/service"
)

// BlogHandler handles blog content and engagement requests.
type BlogHandler struct {
	blogService   *service.BlogService
	authService   *service.AuthService
	createLimiter ratelimit.Limiter
}

// NewBlogHandler creates a new blog handler.
func NewBlogHandler(blogService *service.BlogService, authService *service.AuthService, createLimiter ratelimit.Limiter) *BlogHandler {
	return &BlogHandler{
		blogService:   blogService,
		authService:   authService,
		createLimiter: createLimiter,
	}
}

// Routes returns a chi router with the blog routes.
func (h *BlogHandler) Routes() chi.Router {
	r := chi.NewRouter()
	requireSession := middleware.RequireSession(h.authService.ValidateSession)

	r.Get("/", h.List)
	r.With(middleware.RateLimit(h.createLimiter, "create-blog"), requireSession).Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Post("/{id}", h.Action)
	r.With(requireSession).Put("/{id}", h.Update)
	r.With(requireSession).Delete("/{id}", h.Delete)

	return r
}

// List handles GET /blogs
func (h *BlogHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.ValidationError(w, "limit", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	// A valid session widens the listing to drafts.
	includeDrafts := false
	if token := middleware.BearerToken(r); token != "" {
		includeDrafts = h.authService.ValidateSession(token)
	}

	result, err := h.blogService.List(r.Context(), service.ListParams{
		Limit:         limit,
		LastKey:       q.Get("lastKey"),
		Query:         q.Get("q"),
		Tag:           q.Get("tag"),
		IncludeDrafts: includeDrafts,
	})
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, result)
}

// Get handles GET /blogs/{id}
func (h *BlogHandler) Get(w http.ResponseWriter, r *http.Request) {
	post, err := h.blogService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, post)
}

// Create handles POST /blogs
func (h *BlogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.CreateBlogInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Error(w, apierrors.ErrBadRequest)
		return
	}

	post, err := h.blogService.Create(r.Context(), input)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Created(w, map[string]any{
		"success": true,
		"blog":    post,
	})
}

// Update handles PUT /blogs/{id}
func (h *BlogHandler) Update(w http.ResponseWriter, r *http.Request) {
	var input service.UpdateBlogInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Error(w, apierrors.ErrBadRequest)
		return
	}

	post, err := h.blogService.Update(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, map[string]any{
		"success": true,
		"blog":    post,
	})
}

// Delete handles DELETE /blogs/{id}
func (h *BlogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.blogService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, map[string]any{"success": true})
}

// ReactRequest is the HTTP request body for a reaction.
type ReactRequest struct {
	Emoji string `json:"emoji"`
}

// CommentRequest is the HTTP request body for a comment. Website is a
// hidden honeypot field; genuine clients never fill it.
type CommentRequest struct {
	Name    string `json:"name"`
	Content string `json:"content"`
	Website string `json:"website"`
}

// Action handles POST /blogs/{id}?action=view|react|comment
func (h *BlogHandler) Action(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	switch r.URL.Query().Get("action") {
	case "view":
		views, err := h.blogService.RecordView(r.Context(), id)
		if err != nil {
			response.Error(w, err)
			return
		}
		middleware.RecordBlogView()
		response.OK(w, map[string]any{
			"success": true,
			"views":   views,
		})

	case "react":
		var req ReactRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, apierrors.ErrBadRequest)
			return
		}
		reactions, err := h.blogService.React(r.Context(), id, req.Emoji)
		if err != nil {
			response.Error(w, err)
			return
		}
		response.OK(w, map[string]any{
			"success":   true,
			"reactions": reactions,
		})

	case "comment":
		var req CommentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, apierrors.ErrBadRequest)
			return
		}
		comments, stored, err := h.blogService.AddComment(r.Context(), id, req.Name, req.Content, req.Website)
		if err != nil {
			response.Error(w, err)
			return
		}
		if !stored {
			// Honeypot hit: answer success-shaped so form bots cannot
			// tell they were filtered.
			response.Accepted(w, map[string]any{"success": true})
			return
		}
		response.Created(w, map[string]any{
			"success":  true,
			"comments": comments,
		})

	default:
		response.BadRequest(w, "Unknown action, expected view, react or comment")
	}
}
