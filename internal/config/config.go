package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Backend
		UI
		Auth
		Circulation
		Tasks
		Scheduler
		Audit
		Telemetry
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Backend struct {
		Kind        string // "sqlite" or "fixture"
		FixturePath string
	}
	UI struct {
		TemplatesPath string
		StaticPath    string
	}
	Auth struct {
		SessionSecret   string
		SessionLifetime time.Duration
		BcryptCost      int
		SecureCookies   bool // Set to false for local dev without HTTPS

		// Rate limiting configuration
		MaxLoginAttempts int           // Max failed attempts before lockout (default: 5)
		RateLimitWindow  time.Duration // Time window for counting attempts (default: 15m)
		LockoutDuration  time.Duration // How long to lock out (default: 30m)
	}
	Circulation struct {
		LoanPeriod          time.Duration
		FinePerDay          float64
		FineMax             float64
		MaxOutstandingFines float64 // 0 disables the check
		BorrowRatePerMinute float64
		BorrowBurst         int
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Scheduler struct {
		OverdueSweepSchedule string // Cron format: "*/15 * * * *" = every 15 minutes
		AuditCleanupSchedule string // Cron format: "30 3 * * *" = daily at 03:30
	}
	Audit struct {
		RetentionDays int // Days to keep audit events (default: 90)
	}
	Telemetry struct {
		Endpoint    string // OTLP/HTTP endpoint; tracing export is off when empty
		ServiceName string
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8080)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("library_backend", "sqlite")
	v.SetDefault("fixture_path", DefaultFixturePath)
	v.SetDefault("templates_path", "./templates")
	v.SetDefault("static_path", "./static")

	// Auth defaults
	v.SetDefault("auth_session_secret", "")       // Auto-generated if empty
	v.SetDefault("auth_session_lifetime", "24h")  // 24 hours
	v.SetDefault("auth_bcrypt_cost", 12)          // bcrypt cost factor
	v.SetDefault("auth_secure_cookies", true)     // HTTPS-only cookies
	v.SetDefault("auth_max_login_attempts", 5)    // Max failed attempts
	v.SetDefault("auth_rate_limit_window", "15m") // Window for counting attempts
	v.SetDefault("auth_lockout_duration", "30m")  // Lockout duration

	// Circulation defaults
	v.SetDefault("loan_period", "336h") // 14 days
	v.SetDefault("fine_per_day", 0.50)
	v.SetDefault("fine_max", 20.00)
	v.SetDefault("max_outstanding_fines", 10.00)
	v.SetDefault("borrow_rate_per_minute", 10)
	v.SetDefault("borrow_burst", 5)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	v.SetDefault("overdue_sweep_schedule", "*/15 * * * *")
	v.SetDefault("audit_cleanup_schedule", "30 3 * * *")
	v.SetDefault("audit_retention_days", 90)

	v.SetDefault("otel_exporter_otlp_endpoint", "")
	v.SetDefault("otel_service_name", "libraryhub")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Backend: Backend{
			Kind:        v.GetString("LIBRARY_BACKEND"),
			FixturePath: v.GetString("FIXTURE_PATH"),
		},
		UI: UI{
			TemplatesPath: v.GetString("TEMPLATES_PATH"),
			StaticPath:    v.GetString("STATIC_PATH"),
		},
		Auth: Auth{
			SessionSecret:    v.GetString("AUTH_SESSION_SECRET"),
			SessionLifetime:  v.GetDuration("AUTH_SESSION_LIFETIME"),
			BcryptCost:       v.GetInt("AUTH_BCRYPT_COST"),
			SecureCookies:    v.GetBool("AUTH_SECURE_COOKIES"),
			MaxLoginAttempts: v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			RateLimitWindow:  v.GetDuration("AUTH_RATE_LIMIT_WINDOW"),
			LockoutDuration:  v.GetDuration("AUTH_LOCKOUT_DURATION"),
		},
		Circulation: Circulation{
			LoanPeriod:          v.GetDuration("LOAN_PERIOD"),
			FinePerDay:          v.GetFloat64("FINE_PER_DAY"),
			FineMax:             v.GetFloat64("FINE_MAX"),
			MaxOutstandingFines: v.GetFloat64("MAX_OUTSTANDING_FINES"),
			BorrowRatePerMinute: v.GetFloat64("BORROW_RATE_PER_MINUTE"),
			BorrowBurst:         v.GetInt("BORROW_BURST"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Scheduler: Scheduler{
			OverdueSweepSchedule: v.GetString("OVERDUE_SWEEP_SCHEDULE"),
			AuditCleanupSchedule: v.GetString("AUDIT_CLEANUP_SCHEDULE"),
		},
		Audit: Audit{
			RetentionDays: v.GetInt("AUDIT_RETENTION_DAYS"),
		},
		Telemetry: Telemetry{
			Endpoint:    v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
			ServiceName: v.GetString("OTEL_SERVICE_NAME"),
		},
	}
}
