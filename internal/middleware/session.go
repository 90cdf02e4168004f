package middleware // middleware provides shared request processing for handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pm-log-viewer/internal/repository"
)

// SessionCookie is the name of the cookie carrying the opaque session
// token.
const SessionCookie = "session_id"

// publicPaths never require a session. The login page and the
// auth-status probe must stay reachable for the login flow itself, and
// login/logout manage sessions rather than consume them.
var publicPaths = map[string]bool{
	"/login.html":      true,
	"/api/auth-status": true,
	"/api/login":       true,
	"/api/logout":      true,
	"/healthz":         true,
}

// SessionGate returns the middleware guarding every protected route. When
// authentication is disabled process-wide all requests pass. A missing or
// expired session bounces page-load paths to the login page with a 302
// and answers API paths with a 401. On success the owning user id is
// stored in the context under "user_id".
func SessionGate(authEnabled bool, sessions *repository.SessionRepo) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !authEnabled || publicPaths[c.Request().URL.Path] {
				return next(c)
			}
			uid, ok := validateCookie(c, sessions)
			if !ok {
				if isPageLoad(c.Request().URL.Path) {
					return c.Redirect(http.StatusFound, "/login.html")
				}
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized"})
			}
			c.Set("user_id", uid)
			return next(c)
		}
	}
}

// isPageLoad distinguishes HTML navigation from API calls: the root, the
// index page and the file-retrieval family get redirected to the login
// page instead of receiving a bare 401.
func isPageLoad(path string) bool {
	return path == "/" || path == "/index.html" || strings.HasPrefix(path, "/file")
}

// validateCookie reads the session cookie and asks the store to validate
// and renew it. Any failure, including a missing cookie, reads as
// unauthenticated.
func validateCookie(c echo.Context, sessions *repository.SessionRepo) (int64, bool) {
	cookie, err := c.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return 0, false
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	uid, err := sessions.Validate(ctx, cookie.Value)
	if err != nil {
		return 0, false
	}
	return uid, true
}
