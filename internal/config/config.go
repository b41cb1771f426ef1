package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Database
		Catalog
		Ingest
		Audit
		Global
		Tasks
		Auth
	}

	HTTP struct {
		Port int32
		Host string
	}
	Database struct {
		Path     string
		LogLevel string // gorm SQL logger: silent, error, warn, info
	}
	Catalog struct {
		PageSize       int
		DefaultUser    string // Identity used when a request carries none
		IdentityHeader string // Header set by the fronting proxy with the user name
		ReadOnly       bool   // Reject every API write; used by demo instances
	}
	Ingest struct {
		Enabled    bool
		InboxDir   string // Scraper JSON files dropped here are ingested on schedule
		ArchiveDir string // Processed inbox files are moved here
		Schedule   string // Cron format: "*/10 * * * *" = every ten minutes
	}
	Audit struct {
		Dir           string // Raw ingest payloads are archived here
		RetentionDays int    // Days to keep audit events (default: 30)
	}
	Global struct {
		ShutdownTimeoutInSeconds int
		LogLevel                 string
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
	Auth struct {
		BcryptCost int
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8888)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("log_level", "info")
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_log_level", "warn")
	v.SetDefault("page_size", DefaultPageSize)
	v.SetDefault("default_user", DefaultUser)
	v.SetDefault("identity_header", DefaultIdentityHeader)
	v.SetDefault("read_only", false)
	v.SetDefault("audit_dir", "./audit")
	v.SetDefault("audit_retention_days", 30)

	// Inbox ingestion defaults
	v.SetDefault("ingest_enabled", false)
	v.SetDefault("ingest_inbox_dir", "./inbox")
	v.SetDefault("ingest_archive_dir", "./inbox/processed")
	v.SetDefault("ingest_schedule", "*/10 * * * *") // Every ten minutes

	// Auth defaults
	v.SetDefault("auth_bcrypt_cost", 12)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "5m")
	v.SetDefault("task_timeout", "5m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "168h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Database: Database{
			Path:     v.GetString("DATABASE_PATH"),
			LogLevel: v.GetString("DATABASE_LOG_LEVEL"),
		},
		Catalog: Catalog{
			PageSize:       v.GetInt("PAGE_SIZE"),
			DefaultUser:    v.GetString("DEFAULT_USER"),
			IdentityHeader: v.GetString("IDENTITY_HEADER"),
			ReadOnly:       v.GetBool("READ_ONLY"),
		},
		Ingest: Ingest{
			Enabled:    v.GetBool("INGEST_ENABLED"),
			InboxDir:   v.GetString("INGEST_INBOX_DIR"),
			ArchiveDir: v.GetString("INGEST_ARCHIVE_DIR"),
			Schedule:   v.GetString("INGEST_SCHEDULE"),
		},
		Audit: Audit{
			Dir:           v.GetString("AUDIT_DIR"),
			RetentionDays: v.GetInt("AUDIT_RETENTION_DAYS"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
			LogLevel:                 v.GetString("LOG_LEVEL"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		Auth: Auth{
			BcryptCost: v.GetInt("AUTH_BCRYPT_COST"),
		},
	}
}
