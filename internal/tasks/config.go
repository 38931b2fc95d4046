package tasks

import (
	"time"

	"github.com/mrlokans/libraryhub/internal/config"
)

const (
	defaultWorkers         = 2
	defaultReleaseAfter    = 15 * time.Minute
	defaultCleanupInterval = time.Hour
)

// Config sizes the worker pool behind the overdue sweep and audit cleanup queues.
// Attempts, timeouts and retention are per queue, see the task Config methods.
type Config struct {
	Workers int

	// ReleaseAfter returns a claimed task to the queue when its worker disappears.
	ReleaseAfter time.Duration

	// CleanupInterval is how often finished tasks past their retention are purged.
	CleanupInterval time.Duration
}

// NewConfig builds the queue configuration from the TASK_* settings.
// Unset or non-positive values fall back to the defaults.
func NewConfig(settings config.Tasks) Config {
	cfg := Config{
		Workers:         settings.Workers,
		ReleaseAfter:    settings.ReleaseAfter,
		CleanupInterval: settings.CleanupInterval,
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.ReleaseAfter <= 0 {
		cfg.ReleaseAfter = defaultReleaseAfter
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = defaultCleanupInterval
	}
	return cfg
}
