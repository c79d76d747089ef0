package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Auth
		Mail
		Redis
		Tasks
		Cleanup
		UI
		Logging
	}

	HTTP struct {
		Port               int32
		Host               string
		CORSAllowedOrigins []string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		URL      string // sqlite path, postgres:// or mysql:// DSN
		LogLevel string // silent, error, warn, info
	}
	Auth struct {
		TokenSecret        string
		TokenLifetime      time.Duration
		CookieName         string
		SecureCookies      bool // Set to false for local dev without HTTPS
		BcryptCost         int
		CSRFSecret         string
		ResetTokenLifetime time.Duration
		SessionLifetime    time.Duration // Anonymous browser session (view tracking)

		// Rate limiting configuration
		MaxLoginAttempts int           // Max failed attempts before lockout (default: 5)
		RateLimitWindow  time.Duration // Time window for counting attempts (default: 15m)
		LockoutDuration  time.Duration // How long to lock out (default: 30m)
	}
	Mail struct {
		Host     string // Empty disables SMTP delivery, messages are logged instead
		Port     int
		Username string
		Password string
		From     string
	}
	Redis struct {
		URL string // Optional, enables the redis token revocation store
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Cleanup struct {
		Schedule string // Cron format: "0 * * * *" = hourly
	}
	UI struct {
		TemplatesPath string
		StaticPath    string
		BaseURL       string // Used for links in outgoing email
	}
	Logging struct {
		Level  string
		Format string // text or json
	}
)

// splitList parses a comma-separated environment value, dropping empty items.
func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// NewConfig builds the configuration from the environment.
// A .env file in the working directory is loaded first if present;
// variables already set in the environment take precedence.
func NewConfig() *Config {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8085)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("cors_allowed_origins", "")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("database_url", DefaultDatabaseURL)
	v.SetDefault("database_log_level", "warn")

	// Auth defaults
	v.SetDefault("auth_token_secret", "")           // Required outside development
	v.SetDefault("auth_token_lifetime", "1h")       // Matches the cookie max-age
	v.SetDefault("auth_cookie_name", "auth")        // Session cookie name
	v.SetDefault("auth_secure_cookies", true)       // HTTPS-only cookies
	v.SetDefault("auth_bcrypt_cost", 12)            // bcrypt cost factor
	v.SetDefault("auth_csrf_secret", "")            // Falls back to the token secret
	v.SetDefault("auth_reset_token_lifetime", "1h") // Password reset link validity
	v.SetDefault("auth_session_lifetime", "24h")    // Browser session duration
	v.SetDefault("auth_max_login_attempts", 5)      // Max failed attempts
	v.SetDefault("auth_rate_limit_window", "15m")   // Window for counting attempts
	v.SetDefault("auth_lockout_duration", "30m")    // Lockout duration

	// Mail defaults
	v.SetDefault("mail_host", "")
	v.SetDefault("mail_port", 587)
	v.SetDefault("mail_from", "DevOps offer <noreply@localhost>")

	v.SetDefault("redis_url", "")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("token_cleanup_schedule", "0 * * * *") // Hourly at :00

	v.SetDefault("templates_path", "./templates")
	v.SetDefault("static_path", "./static")
	v.SetDefault("base_url", "http://localhost:8085")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	return &Config{
		HTTP: HTTP{
			Port:               v.GetInt32("PORT"),
			Host:               v.GetString("HOST"),
			CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			URL:      v.GetString("DATABASE_URL"),
			LogLevel: v.GetString("DATABASE_LOG_LEVEL"),
		},
		Auth: Auth{
			TokenSecret:        v.GetString("AUTH_TOKEN_SECRET"),
			TokenLifetime:      v.GetDuration("AUTH_TOKEN_LIFETIME"),
			CookieName:         v.GetString("AUTH_COOKIE_NAME"),
			SecureCookies:      v.GetBool("AUTH_SECURE_COOKIES"),
			BcryptCost:         v.GetInt("AUTH_BCRYPT_COST"),
			CSRFSecret:         v.GetString("AUTH_CSRF_SECRET"),
			ResetTokenLifetime: v.GetDuration("AUTH_RESET_TOKEN_LIFETIME"),
			SessionLifetime:    v.GetDuration("AUTH_SESSION_LIFETIME"),
			MaxLoginAttempts:   v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			RateLimitWindow:    v.GetDuration("AUTH_RATE_LIMIT_WINDOW"),
			LockoutDuration:    v.GetDuration("AUTH_LOCKOUT_DURATION"),
		},
		Mail: Mail{
			Host:     v.GetString("MAIL_HOST"),
			Port:     v.GetInt("MAIL_PORT"),
			Username: v.GetString("MAIL_USERNAME"),
			Password: v.GetString("MAIL_PASSWORD"),
			From:     v.GetString("MAIL_FROM"),
		},
		Redis: Redis{
			URL: v.GetString("REDIS_URL"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Cleanup: Cleanup{
			Schedule: v.GetString("TOKEN_CLEANUP_SCHEDULE"),
		},
		UI: UI{
			TemplatesPath: v.GetString("TEMPLATES_PATH"),
			StaticPath:    v.GetString("STATIC_PATH"),
			BaseURL:       strings.TrimRight(v.GetString("BASE_URL"), "/"),
		},
		Logging: Logging{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}
}
