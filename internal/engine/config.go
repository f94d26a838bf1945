package engine

import "time"

// Config holds the engine's tunables, all sourced from config.Config at
// startup (see config.Config.Engine()).
type Config struct {
	ProcessEvery        time.Duration
	DefaultLockLifetime time.Duration
	MaxConcurrency      int
	DefaultConcurrency  int
	LockLimit           int
	BatchSize           int
	MaxRetryCount       int
	CleanupFinishedJobs bool
	WorkerID            string
}

func (c Config) withDefaults() Config {
	if c.ProcessEvery <= 0 {
		c.ProcessEvery = 5 * time.Second
	}
	if c.DefaultLockLifetime <= 0 {
		c.DefaultLockLifetime = 10 * time.Minute
	}
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = 20
	}
	if c.DefaultConcurrency <= 0 {
		c.DefaultConcurrency = 5
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 5
	}
	return c
}
