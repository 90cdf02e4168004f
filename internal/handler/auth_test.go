package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/pm-log-viewer/internal/config"
	"github.com/iliyamo/pm-log-viewer/internal/database"
	"github.com/iliyamo/pm-log-viewer/internal/handler"
	"github.com/iliyamo/pm-log-viewer/internal/logs"
	"github.com/iliyamo/pm-log-viewer/internal/middleware"
	"github.com/iliyamo/pm-log-viewer/internal/repository"
	"github.com/iliyamo/pm-log-viewer/internal/router"
)

// testServer is a fully wired Echo instance backed by a throwaway
// database and log directory.
type testServer struct {
	e      *echo.Echo
	users  *repository.UserRepo
	logDir string
}

func newTestServer(t *testing.T, authEnabled bool) *testServer {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logDir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(logDir, "app.log"),
		[]byte("[25-12-2023 13:45:10] started\n[25-12-2023 13:45:11] ready\n"), 0o644))

	cfg := config.Config{AuthEnabled: authEnabled, SessionTimeout: time.Hour}
	users := repository.NewUserRepo(db)
	sessions := repository.NewSessionRepo(db, cfg.SessionTimeout)

	e := echo.New()
	e.Logger.SetOutput(os.Stderr)
	router.RegisterRoutes(e, cfg,
		handler.NewAuthHandler(cfg, users, sessions),
		handler.NewLogsHandler(logs.NewReader(logDir)),
		sessions, nil, config.LoginLimitConfig{})
	return &testServer{e: e, users: users, logDir: logDir}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func jsonReq(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

// login creates the user if needed and returns the session cookie from a
// successful login.
func (s *testServer) login(t *testing.T) *http.Cookie {
	t.Helper()
	if _, err := s.users.Create(t.Context(), "alice", "secret1"); err != nil {
		require.ErrorIs(t, err, repository.ErrUserExists)
	}
	rec := s.do(jsonReq(http.MethodPost, "/api/login",
		`{"username":"alice","password":"secret1"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == middleware.SessionCookie && cookie.Value != "" {
			return cookie
		}
	}
	t.Fatal("login response carries no session cookie")
	return nil
}

func TestLogin_Success(t *testing.T) {
	srv := newTestServer(t, true)
	_, err := srv.users.Create(t.Context(), "alice", "secret1")
	require.NoError(t, err)

	rec := srv.do(jsonReq(http.MethodPost, "/api/login",
		`{"username":"alice","password":"secret1"}`))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middleware.SessionCookie, cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestLogin_WrongCredentials(t *testing.T) {
	srv := newTestServer(t, true)
	_, err := srv.users.Create(t.Context(), "alice", "secret1")
	require.NoError(t, err)

	for _, body := range []string{
		`{"username":"alice","password":"wrong"}`,
		`{"username":"nobody","password":"secret1"}`,
	} {
		rec := srv.do(jsonReq(http.MethodPost, "/api/login", body))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"Invalid credentials"}`, rec.Body.String())
		assert.Empty(t, rec.Result().Cookies())
	}
}

func TestLogin_AuthDisabled(t *testing.T) {
	srv := newTestServer(t, false)
	rec := srv.do(jsonReq(http.MethodPost, "/api/login",
		`{"username":"alice","password":"secret1"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProtectedRoutes_WithoutSession(t *testing.T) {
	srv := newTestServer(t, true)

	// API paths answer 401; page-load paths, /files and the whole /file
	// family included, bounce to the login page.
	for _, target := range []string{"/api/other"} {
		rec := srv.do(httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
		assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
	}
	for _, target := range []string{"/", "/index.html", "/files", "/file/app.log"} {
		rec := srv.do(httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusFound, rec.Code, target)
		assert.Equal(t, "/login.html", rec.Header().Get(echo.HeaderLocation), target)
	}
}

func TestProtectedRoutes_WithSession(t *testing.T) {
	srv := newTestServer(t, true)
	cookie := srv.login(t)

	req := httptest.NewRequest(http.MethodGet, "/files", nil)
	req.AddCookie(cookie)
	rec := srv.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	var files []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &files))
	assert.Equal(t, []string{"app.log"}, files)

	req = httptest.NewRequest(http.MethodGet, "/file/app.log", nil)
	req.AddCookie(cookie)
	rec = srv.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	var lines []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lines))
	assert.Equal(t, []string{
		"[25-12-2023 13:45:11] ready",
		"[25-12-2023 13:45:10] started",
	}, lines)
}

func TestLogout_RevokesSession(t *testing.T) {
	srv := newTestServer(t, true)
	cookie := srv.login(t)

	req := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	req.AddCookie(cookie)
	rec := srv.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Empty(t, cleared[0].Value)
	assert.Equal(t, -1, cleared[0].MaxAge)

	// The old cookie no longer opens protected routes.
	req = httptest.NewRequest(http.MethodGet, "/file/app.log", nil)
	req.AddCookie(cookie)
	rec = srv.do(req)
	assert.Equal(t, http.StatusFound, rec.Code)

	// Repeating the logout still succeeds.
	req = httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	req.AddCookie(cookie)
	rec = srv.do(req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthStatus(t *testing.T) {
	type status struct {
		Enabled       bool `json:"enabled"`
		Authenticated bool `json:"authenticated"`
	}
	read := func(t *testing.T, rec *httptest.ResponseRecorder) status {
		t.Helper()
		require.Equal(t, http.StatusOK, rec.Code)
		var st status
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
		return st
	}

	t.Run("disabled", func(t *testing.T) {
		srv := newTestServer(t, false)
		st := read(t, srv.do(httptest.NewRequest(http.MethodGet, "/api/auth-status", nil)))
		assert.Equal(t, status{Enabled: false, Authenticated: true}, st)
	})

	t.Run("enabled without session", func(t *testing.T) {
		srv := newTestServer(t, true)
		st := read(t, srv.do(httptest.NewRequest(http.MethodGet, "/api/auth-status", nil)))
		assert.Equal(t, status{Enabled: true, Authenticated: false}, st)
	})

	t.Run("enabled with session", func(t *testing.T) {
		srv := newTestServer(t, true)
		req := httptest.NewRequest(http.MethodGet, "/api/auth-status", nil)
		req.AddCookie(srv.login(t))
		st := read(t, srv.do(req))
		assert.Equal(t, status{Enabled: true, Authenticated: true}, st)
	})
}

func TestAuthDisabled_OpensEverything(t *testing.T) {
	srv := newTestServer(t, false)

	rec := srv.do(httptest.NewRequest(http.MethodGet, "/files", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(httptest.NewRequest(http.MethodGet, "/file/app.log", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthz_IsPublic(t *testing.T) {
	srv := newTestServer(t, true)
	rec := srv.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
