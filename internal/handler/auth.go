package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pm-log-viewer/internal/config"
	"github.com/iliyamo/pm-log-viewer/internal/middleware"
	"github.com/iliyamo/pm-log-viewer/internal/queue"
	"github.com/iliyamo/pm-log-viewer/internal/repository"
	queue_publisher "github.com/iliyamo/pm-log-viewer/internal/service"
)

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Sessions *repository.SessionRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, s *repository.SessionRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Sessions: s}
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login verifies credentials, mints a session and sets the session
// cookie. Returns 400 when authentication is disabled process-wide, and
// 401 with a generic message on any credential mismatch.
func (h *AuthHandler) Login(c echo.Context) error {
	if !h.Cfg.AuthEnabled {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Authentication not enabled"})
	}
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Users.VerifyCredentials(ctx, req.Username, req.Password)
	if err != nil {
		if err == repository.ErrInvalidCredentials {
			h.audit(c, "login.failed", req.Username, 0)
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}
	token, err := h.Sessions.Create(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create session failed"})
	}
	c.SetCookie(sessionCookie(token, 0))
	h.audit(c, "login.ok", req.Username, uid)
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Logout deletes the server-side session when a cookie is present and
// clears the cookie. It always reports success, so repeating a logout is
// harmless.
func (h *AuthHandler) Logout(c echo.Context) error {
	if h.Cfg.AuthEnabled {
		if cookie, err := c.Cookie(middleware.SessionCookie); err == nil && cookie.Value != "" {
			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()
			if err := h.Sessions.Delete(ctx, cookie.Value); err != nil {
				c.Logger().Warnf("logout: delete session: %v", err)
			}
			h.audit(c, "logout", "", 0)
		}
	}
	c.SetCookie(sessionCookie("", -1))
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// AuthStatus reports whether authentication is enabled and whether the
// caller holds a valid session. With authentication disabled every caller
// counts as authenticated. Always public.
func (h *AuthHandler) AuthStatus(c echo.Context) error {
	authenticated := true
	if h.Cfg.AuthEnabled {
		authenticated = false
		if cookie, err := c.Cookie(middleware.SessionCookie); err == nil && cookie.Value != "" {
			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()
			if _, err := h.Sessions.Validate(ctx, cookie.Value); err == nil {
				authenticated = true
			}
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"enabled":       h.Cfg.AuthEnabled,
		"authenticated": authenticated,
	})
}

// sessionCookie builds the session cookie. maxAge -1 clears it on the
// client.
func sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}

// audit fires an event at the broker without blocking the request.
// Publishing is best-effort; failures only hit the process log.
func (h *AuthHandler) audit(c echo.Context, event, username string, uid int64) {
	if !h.Cfg.AuditEvents {
		return
	}
	ev := queue.AuthEvent{
		Event:    event,
		Username: username,
		UserID:   uid,
		RemoteIP: c.RealIP(),
		At:       time.Now().Format(queue.TimeLayout),
	}
	url := h.Cfg.AMQPURL
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := queue_publisher.PublishAuthEvent(ctx, url, ev); err != nil {
			log.Printf("audit: publish %s failed: %v", ev.Event, err)
		}
	}()
}
