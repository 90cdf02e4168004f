package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/pm-log-viewer/internal/config"
	"github.com/iliyamo/pm-log-viewer/internal/database"
	"github.com/iliyamo/pm-log-viewer/internal/handler"
	"github.com/iliyamo/pm-log-viewer/internal/logs"
	"github.com/iliyamo/pm-log-viewer/internal/queue"
	"github.com/iliyamo/pm-log-viewer/internal/repository"
	"github.com/iliyamo/pm-log-viewer/internal/router"
)

func main() {
	// .env is optional; deployments usually set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	sessions := repository.NewSessionRepo(db, cfg.SessionTimeout)
	reader := logs.NewReader(cfg.LogDir)

	if cfg.AuthEnabled {
		if err := bootstrapAdmin(cfg, users); err != nil {
			log.Fatalf("bootstrap admin: %v", err)
		}
	}

	var rdb *redis.Client
	rlCfg := config.LoadLoginLimitConfig()
	if cfg.AuthEnabled && rlCfg.Enabled {
		rdb = config.NewRedisClient()
		if rdb == nil {
			log.Printf("redis unavailable; login rate limiting disabled")
		}
	}

	if cfg.AuditEvents {
		go func() {
			if err := queue.StartAuthConsumer(cfg.AMQPURL, cfg.LogDir); err != nil {
				log.Printf("auth consumer stopped: %v", err)
			}
		}()
	}

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e, cfg,
		handler.NewAuthHandler(cfg, users, sessions),
		handler.NewLogsHandler(reader),
		sessions, rdb, rlCfg)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (auth=%v, logs=%s)", addr, cfg.AuthEnabled, cfg.LogDir)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

// bootstrapAdmin seeds the first account when the users table is empty.
// Credentials come from ADMIN_USERNAME and ADMIN_PASSWORD and default to
// admin/changeme.
func bootstrapAdmin(cfg config.Config, users *repository.UserRepo) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	n, err := users.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if _, err := users.Create(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		if err == repository.ErrUserExists {
			return nil
		}
		return err
	}
	log.Printf("created initial user %q; change the default password after first login", cfg.AdminUsername)
	return nil
}
