package config

import (
	"log/slog"
	"os"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr            string
	LogLevel        slog.Level
	DBDriver        string // "sqlite" or "postgres"
	DBPath          string // sqlite file path
	DatabaseURL     string // postgres connection string
	RetentionMaxAge time.Duration
	SweepInterval   time.Duration
	ShutdownTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:            envOr("MEDREC_ADDR", ":8080"),
		DBDriver:        envOr("MEDREC_DB_DRIVER", "sqlite"),
		DBPath:          envOr("MEDREC_DB_PATH", "patientdata.db"),
		DatabaseURL:     os.Getenv("MEDREC_DATABASE_URL"),
		RetentionMaxAge: envDuration("MEDREC_RETENTION_MAX_AGE", 365*24*time.Hour),
		SweepInterval:   envDuration("MEDREC_SWEEP_INTERVAL", 24*time.Hour),
		ShutdownTimeout: envDuration("MEDREC_SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	switch envOr("MEDREC_LOG_LEVEL", "info") {
	case "debug":
		cfg.LogLevel = slog.LevelDebug
	case "warn":
		cfg.LogLevel = slog.LevelWarn
	case "error":
		cfg.LogLevel = slog.LevelError
	default:
		cfg.LogLevel = slog.LevelInfo
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
