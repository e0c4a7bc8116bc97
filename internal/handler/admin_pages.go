package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmarin/portfolio-api/internal/middleware"
)

// AdminPagesHandler serves the minimal admin page shells. The pages are
// static HTML whose scripts talk to the JSON API; everything under the
// guarded subtree redirects to the login page when no session cookie is
// present.
type AdminPagesHandler struct {
	cookieName string
}

// NewAdminPagesHandler creates a new admin pages handler.
func NewAdminPagesHandler(development bool) *AdminPagesHandler {
	return &AdminPagesHandler{cookieName: SessionCookieName(development)}
}

// Register attaches the admin page routes.
func (h *AdminPagesHandler) Register(r chi.Router) {
	r.Get("/", h.LoginPage)

	r.Group(func(g chi.Router) {
		g.Use(middleware.AdminGuard(h.cookieName, "/admin"))
		g.Get("/dashboard", h.DashboardPage)
	})
}

// LoginPage handles GET /admin
func (h *AdminPagesHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	writeHTML(w, loginPageHTML)
}

// DashboardPage handles GET /admin/dashboard
func (h *AdminPagesHandler) DashboardPage(w http.ResponseWriter, r *http.Request) {
	writeHTML(w, dashboardPageHTML)
}

func writeHTML(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}

const loginPageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Admin Login</title>
  <style>
    body { font-family: sans-serif; max-width: 420px; margin: 10vh auto; padding: 0 1rem; }
    input, button { font-size: 1rem; padding: .5rem; width: 100%; box-sizing: border-box; margin-top: .5rem; }
    #status { margin-top: 1rem; color: #555; }
  </style>
</head>
<body>
  <h1>Admin login</h1>
  <button id="request">Email me a code</button>
  <form id="verify">
    <input id="code" placeholder="XXXX-XXXX-XXXX-XXXX-XXXX" autocomplete="one-time-code">
    <button type="submit">Sign in</button>
  </form>
  <p id="status"></p>
  <script>
    const status = document.getElementById('status');
    document.getElementById('request').addEventListener('click', async () => {
      const res = await fetch('/admin/request-code', { method: 'POST' });
      const body = await res.json();
      status.textContent = res.ok ? 'Code sent. Check your inbox.' : (body.error || 'Request failed.');
    });
    document.getElementById('verify').addEventListener('submit', async (e) => {
      e.preventDefault();
      const res = await fetch('/admin/verify-code', {
        method: 'POST',
        headers: { 'Content-Type': 'application/json' },
        body: JSON.stringify({ code: document.getElementById('code').value })
      });
      const body = await res.json();
      if (res.ok) {
        sessionStorage.setItem('sessionToken', body.sessionToken);
        location.href = '/admin/dashboard';
      } else {
        status.textContent = body.error || 'Verification failed.';
      }
    });
  </script>
</body>
</html>
`

const dashboardPageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Admin Dashboard</title>
  <style>
    body { font-family: sans-serif; max-width: 720px; margin: 5vh auto; padding: 0 1rem; }
    table { width: 100%; border-collapse: collapse; margin-top: 1rem; }
    td, th { text-align: left; padding: .4rem; border-bottom: 1px solid #ddd; }
  </style>
</head>
<body>
  <h1>Dashboard</h1>
  <button id="logout">Log out</button>
  <table id="posts"><thead><tr><th>Title</th><th>Status</th><th>Views</th></tr></thead><tbody></tbody></table>
  <script>
    const token = sessionStorage.getItem('sessionToken');
    fetch('/blogs', { headers: token ? { 'Authorization': 'Bearer ' + token } : {} })
      .then(r => r.json())
      .then(data => {
        const tbody = document.querySelector('#posts tbody');
        for (const post of data.blogs || []) {
          const row = document.createElement('tr');
          row.innerHTML = '<td>' + post.title + '</td><td>' + post.status + '</td><td>' + post.views + '</td>';
          tbody.appendChild(row);
        }
      });
    document.getElementById('logout').addEventListener('click', async () => {
      await fetch('/admin/logout', { method: 'POST' });
      sessionStorage.removeItem('sessionToken');
      location.href = '/admin';
    });
  </script>
</body>
</html>
`
