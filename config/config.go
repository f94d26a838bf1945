package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"

	"github.com/agendahq/agenda-go/internal/engine"
)

// Config is the process-wide configuration, bound from the environment the
// way the rest of the corpus does it: caarlos0/env for parsing,
// go-playground/validator for the constraints env tags can't express.
type Config struct {
	Env        string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	AdminPort  string `env:"ADMIN_PORT" envDefault:"8080" validate:"required"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info" validate:"required,oneof=debug info warn error"`
	DatabaseURL string `env:"DATABASE_URL,required" validate:"required"`

	// Engine tunables — see spec §4.5 / §9 for the semantics of each.
	ProcessEvery        time.Duration `env:"PROCESS_EVERY" envDefault:"5s" validate:"min=1000000000"`
	DefaultLockLifetime time.Duration `env:"DEFAULT_LOCK_LIFETIME" envDefault:"10m" validate:"min=1000000000"`
	MaxConcurrency      int           `env:"MAX_CONCURRENCY" envDefault:"20" validate:"min=1"`
	DefaultConcurrency  int           `env:"DEFAULT_CONCURRENCY" envDefault:"5" validate:"min=1"`
	LockLimit           int           `env:"LOCK_LIMIT" envDefault:"0" validate:"min=0"`
	BatchSize           int           `env:"BATCH_SIZE" envDefault:"5" validate:"min=1"`
	MaxRetryCount       int           `env:"MAX_RETRY_COUNT" envDefault:"5" validate:"min=0"`
	CleanupFinishedJobs bool          `env:"CLEANUP_FINISHED_JOBS" envDefault:"true"`
	WorkerID            string        `env:"WORKER_ID"`

	EnsureIndexesOnStartup bool `env:"ENSURE_INDEXES_ON_STARTUP" envDefault:"false"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SlogLevel converts the LOG_LEVEL string to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Engine projects the engine-relevant fields into an engine.Config.
func (c *Config) Engine() engine.Config {
	return engine.Config{
		ProcessEvery:        c.ProcessEvery,
		DefaultLockLifetime: c.DefaultLockLifetime,
		MaxConcurrency:      c.MaxConcurrency,
		DefaultConcurrency:  c.DefaultConcurrency,
		LockLimit:           c.LockLimit,
		BatchSize:           c.BatchSize,
		MaxRetryCount:       c.MaxRetryCount,
		CleanupFinishedJobs: c.CleanupFinishedJobs,
		WorkerID:            c.WorkerID,
	}
}
