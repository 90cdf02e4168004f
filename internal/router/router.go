// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/pm-log-viewer/internal/config"
	"github.com/iliyamo/pm-log-viewer/internal/handler"
	"github.com/iliyamo/pm-log-viewer/internal/middleware"
	"github.com/iliyamo/pm-log-viewer/internal/repository"
)

// RegisterRoutes wires every endpoint onto the Echo instance. The session
// gate runs on all routes and decides internally which paths are public;
// the login endpoint additionally sits behind the Redis rate limiter.
// When a web directory is configured the login page and dashboard are
// served statically from it.
func RegisterRoutes(
	e *echo.Echo,
	cfg config.Config,
	a *handler.AuthHandler,
	l *handler.LogsHandler,
	sessions *repository.SessionRepo,
	rdb *redis.Client,
	rlCfg config.LoginLimitConfig,
) {
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(middleware.SessionGate(cfg.AuthEnabled, sessions))

	e.GET("/healthz", handler.Health)

	e.GET("/api/auth-status", a.AuthStatus)
	e.POST("/api/login", a.Login, middleware.LoginRateLimit(rlCfg, rdb))
	e.POST("/api/logout", a.Logout)

	e.GET("/files", l.ListFiles)
	e.GET("/file/*", l.GetFile)

	if cfg.WebDir != "" {
		e.Static("/", cfg.WebDir)
	}
}
