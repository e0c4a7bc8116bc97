package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmarin/portfolio-api/internal/auth"
	"github.com/dmarin/portfolio-api/internal/config"
	"github.com/dmarin/portfolio-api/internal/middleware"
	"github.com/dmarin/portfolio-api/internal/ratelimit"
	"github.com/dmarin/portfolio-api/internal/repository"
	"github.com/dmarin/portfolio-api/internal/service"
)

type capturedEmail struct {
	to       string
	subject  string
	textBody string
}

type captureSender struct {
	sent []capturedEmail
}

func (s *captureSender) Send(_ context.Context, to, subject, _ string, textBody string) error {
	s.sent = append(s.sent, capturedEmail{to, subject, textBody})
	return nil
}

type testAPI struct {
	router *chi.Mux
	sender *captureSender
}

// newTestAPI wires the full router the way cmd/server does, on memory
// storage, with the request-code limiter capped at requestCodeMax.
func newTestAPI(t *testing.T, requestCodeMax int) *testAPI {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	sender := &captureSender{}
	sessions := auth.NewSessionManager("test-secret", 24*time.Hour)

	authCfg := config.AuthConfig{
		CodeExpiry:    5 * time.Minute,
		SessionExpiry: 24 * time.Hour,
		AdminEmail:    "admin@example.com",
	}

	authService := service.NewAuthService(
		repository.NewMemoryCodeRepository(), sender, sessions, authCfg, logger, true)
	blogService := service.NewBlogService(
		repository.NewMemoryBlogRepository(), logger, true)

	limits := repository.NewMemoryRateLimitRepository()
	contactService := service.NewContactService(
		repository.NewMemoryContactRepository(), sender,
		ratelimit.NewBlockingWindowLimiter(limits, 5, time.Hour, 2*time.Hour, logger),
		ratelimit.NewBlockingWindowLimiter(limits, 3, time.Hour, 2*time.Hour, logger),
		config.EmailConfig{To: "owner@example.com"}, logger, true)

	authHandler := NewAuthHandler(authService,
		ratelimit.NewSlidingWindowLimiter(requestCodeMax, 5*time.Minute),
		ratelimit.NewSlidingWindowLimiter(5, 5*time.Minute),
		24*time.Hour, true)
	blogHandler := NewBlogHandler(blogService, authService,
		ratelimit.NewSlidingWindowLimiter(10, time.Hour))
	contactHandler := NewContactHandler(contactService)
	pages := NewAdminPagesHandler(true)

	r := chi.NewRouter()
	r.Route("/admin", func(ar chi.Router) {
		ar.Use(middleware.SecurityHeaders)
		authHandler.Register(ar)
		pages.Register(ar)
	})
	r.Mount("/blogs", blogHandler.Routes())
	r.Mount("/contact", contactHandler.Routes())

	return &testAPI{router: r, sender: sender}
}

func (api *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(raw))
	} else {
		reader = strings.NewReader("")
	}
	r := httptest.NewRequest(method, path, reader)
	r.Header.Set("Content-Type", "application/json")
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, r)
	return w
}

var testCodeRe = regexp.MustCompile(`[A-Z0-9]{4}(?:-[A-Z0-9]{4}){4}`)

// login runs the full request-code/verify-code flow and returns the token.
func (api *testAPI) login(t *testing.T) string {
	t.Helper()
	w := api.do(t, http.MethodPost, "/admin/request-code", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	code := testCodeRe.FindString(api.sender.sent[len(api.sender.sent)-1].textBody)
	require.NotEmpty(t, code)

	w = api.do(t, http.MethodPost, "/admin/verify-code", "", map[string]string{"code": code})
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		SessionToken string `json:"sessionToken"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(t, body.SessionToken)
	return body.SessionToken
}

func TestRequestCode(t *testing.T) {
	api := newTestAPI(t, 3)

	w := api.do(t, http.MethodPost, "/admin/request-code", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success   bool `json:"success"`
		ExpiresIn int  `json:"expiresIn"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 300, body.ExpiresIn)

	require.Len(t, api.sender.sent, 1)
	assert.Equal(t, "admin@example.com", api.sender.sent[0].to)
}

func TestRequestCodeRateLimited(t *testing.T) {
	api := newTestAPI(t, 3)

	for i := 0; i < 3; i++ {
		w := api.do(t, http.MethodPost, "/admin/request-code", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := api.do(t, http.MethodPost, "/admin/request-code", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestVerifyCodeBadFormat(t *testing.T) {
	api := newTestAPI(t, 3)

	w := api.do(t, http.MethodPost, "/admin/verify-code", "", map[string]string{"code": "too-short"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerifyCodeSetsCookie(t *testing.T) {
	api := newTestAPI(t, 3)

	w := api.do(t, http.MethodPost, "/admin/request-code", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	code := testCodeRe.FindString(api.sender.sent[0].textBody)

	// Mixed case and hyphens still verify.
	w = api.do(t, http.MethodPost, "/admin/verify-code", "",
		map[string]string{"code": strings.ToLower(code)})
	require.Equal(t, http.StatusOK, w.Code)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "admin_session", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookies[0].SameSite)
	assert.NotEmpty(t, cookies[0].Value)
}

func TestLogoutClearsCookie(t *testing.T) {
	api := newTestAPI(t, 3)

	w := api.do(t, http.MethodPost, "/admin/logout", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestCreateBlogRequiresAuth(t *testing.T) {
	api := newTestAPI(t, 3)

	w := api.do(t, http.MethodPost, "/blogs", "", map[string]string{
		"title": "t", "excerpt": "e", "content": "c",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(t, http.MethodPost, "/blogs", "forged-token", map[string]string{
		"title": "t", "excerpt": "e", "content": "c",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateAndFetchBlog(t *testing.T) {
	api := newTestAPI(t, 3)
	token := api.login(t)

	w := api.do(t, http.MethodPost, "/blogs", token, map[string]any{
		"title": "Hello", "excerpt": "ex", "content": "body", "tags": []string{"go"},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Success bool `json:"success"`
		Blog    struct {
			ID     string `json:"id"`
			Status string `json:"status"`
			Views  int64  `json:"views"`
		} `json:"blog"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.True(t, created.Success)
	assert.True(t, strings.HasPrefix(created.Blog.ID, "blog_"))
	assert.Equal(t, "published", created.Blog.Status)

	w = api.do(t, http.MethodGet, "/blogs/"+created.Blog.ID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var post struct {
		Title string `json:"title"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &post))
	assert.Equal(t, "Hello", post.Title)
}

func TestGetBlogNotFound(t *testing.T) {
	api := newTestAPI(t, 3)

	w := api.do(t, http.MethodGet, "/blogs/blog_missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListHidesDraftsWithoutSession(t *testing.T) {
	api := newTestAPI(t, 3)
	token := api.login(t)

	w := api.do(t, http.MethodPost, "/blogs", token, map[string]string{
		"title": "draft post", "excerpt": "e", "content": "c", "status": "draft",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var list struct {
		Count int `json:"count"`
	}

	w = api.do(t, http.MethodGet, "/blogs", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 0, list.Count)

	w = api.do(t, http.MethodGet, "/blogs", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)
}

func TestUpdateBlogEmptyBody(t *testing.T) {
	api := newTestAPI(t, 3)
	token := api.login(t)

	w := api.do(t, http.MethodPost, "/blogs", token, map[string]string{
		"title": "t", "excerpt": "e", "content": "c",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Blog struct {
			ID string `json:"id"`
		} `json:"blog"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = api.do(t, http.MethodPut, "/blogs/"+created.Blog.ID, token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodPut, "/blogs/"+created.Blog.ID, token, map[string]string{"title": "t2"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestViewAction(t *testing.T) {
	api := newTestAPI(t, 3)
	token := api.login(t)

	w := api.do(t, http.MethodPost, "/blogs", token, map[string]string{
		"title": "t", "excerpt": "e", "content": "c",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Blog struct {
			ID string `json:"id"`
		} `json:"blog"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = api.do(t, http.MethodPost, "/blogs/"+created.Blog.ID+"?action=view", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var viewed struct {
		Views int64 `json:"views"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &viewed))
	assert.Equal(t, int64(1), viewed.Views)
}

func TestReactActionMissingEmoji(t *testing.T) {
	api := newTestAPI(t, 3)
	token := api.login(t)

	w := api.do(t, http.MethodPost, "/blogs", token, map[string]string{
		"title": "t", "excerpt": "e", "content": "c",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Blog struct {
			ID string `json:"id"`
		} `json:"blog"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = api.do(t, http.MethodPost, "/blogs/"+created.Blog.ID+"?action=react", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCommentHoneypot(t *testing.T) {
	api := newTestAPI(t, 3)
	token := api.login(t)

	w := api.do(t, http.MethodPost, "/blogs", token, map[string]string{
		"title": "t", "excerpt": "e", "content": "c",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Blog struct {
			ID string `json:"id"`
		} `json:"blog"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = api.do(t, http.MethodPost, "/blogs/"+created.Blog.ID+"?action=comment", "", map[string]string{
		"name": "bot", "content": "spam", "website": "https://spam.example",
	})
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)

	// The post's comments are untouched.
	w = api.do(t, http.MethodGet, "/blogs/"+created.Blog.ID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var post struct {
		Comments []any `json:"comments"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &post))
	assert.Empty(t, post.Comments)
}

func TestActionsOnMissingBlog(t *testing.T) {
	api := newTestAPI(t, 3)

	w := api.do(t, http.MethodPost, "/blogs/blog_missing?action=view", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, http.MethodPost, "/blogs/blog_missing?action=react", "",
		map[string]string{"emoji": "🔥"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, http.MethodPost, "/blogs/blog_missing?action=comment", "",
		map[string]string{"name": "Ada", "content": "hi"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUnknownAction(t *testing.T) {
	api := newTestAPI(t, 3)

	w := api.do(t, http.MethodPost, "/blogs/blog_x?action=explode", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestContactSubmit(t *testing.T) {
	api := newTestAPI(t, 3)

	w := api.do(t, http.MethodPost, "/contact", "", map[string]string{
		"name": "Ada", "email": "ada@example.com", "subject": "Hi", "message": "Hello there",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)

	// One notification to the operator.
	require.Len(t, api.sender.sent, 1)
	assert.Equal(t, "owner@example.com", api.sender.sent[0].to)
}

func TestContactValidation(t *testing.T) {
	api := newTestAPI(t, 3)

	w := api.do(t, http.MethodPost, "/contact", "", map[string]string{
		"name": "Ada", "email": "not-an-email", "subject": "Hi", "message": "Hello",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodPost, "/contact", "", map[string]string{
		"email": "ada@example.com",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminPages(t *testing.T) {
	api := newTestAPI(t, 3)

	w := api.do(t, http.MethodGet, "/admin", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))

	// No cookie: the guarded page redirects to the login page.
	w = api.do(t, http.MethodGet, "/admin/dashboard", "", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/admin", w.Header().Get("Location"))
}
