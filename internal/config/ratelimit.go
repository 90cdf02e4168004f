package config

import "time"

// LoginLimitConfig controls the per-IP fixed-window limiter in front of
// the login endpoint. The limiter only engages when a Redis server is
// reachable; see middleware.LoginRateLimit.
type LoginLimitConfig struct {
	Enabled  bool          // LOGIN_LIMIT_ENABLED
	Attempts int           // LOGIN_LIMIT_ATTEMPTS allowed per window
	Window   time.Duration // LOGIN_LIMIT_WINDOW
	Prefix   string        // LOGIN_LIMIT_PREFIX for the Redis keys
}

// LoadLoginLimitConfig reads the limiter settings and clamps them to sane
// minimums.
func LoadLoginLimitConfig() LoginLimitConfig {
	cfg := LoginLimitConfig{
		Enabled:  envBool("LOGIN_LIMIT_ENABLED", true),
		Attempts: envInt("LOGIN_LIMIT_ATTEMPTS", 10),
		Window:   envDur("LOGIN_LIMIT_WINDOW", time.Minute),
		Prefix:   envStr("LOGIN_LIMIT_PREFIX", "loginrl"),
	}
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return cfg
}
