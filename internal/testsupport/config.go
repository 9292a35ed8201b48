package testsupport

import (
	"path/filepath"
	"testing"

	"mixtape/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Analysis.Workers = 2
	cfg.Analysis.QueueCapacity = 8
	cfg.Store.WriteQueueCapacity = 8

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithWorkers sets the analysis worker count on the test config.
func WithWorkers(n int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Analysis.Workers = n
	}
}

// WithWriteQueueCapacity sizes the catalog write lanes.
func WithWriteQueueCapacity(n int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Store.WriteQueueCapacity = n
	}
}
