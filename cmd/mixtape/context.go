package main

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"mixtape/internal/catalog"
	"mixtape/internal/config"
	"mixtape/internal/engine"
	"mixtape/internal/logging"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) logger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.NewFromConfig(cfg)
}

// withEngine opens the catalog, starts the engine, runs fn, and tears both
// down again. CLI invocations are short-lived so the analysis pool starts
// fresh every time.
func (c *commandContext) withEngine(ctx context.Context, fn func(context.Context, *engine.Engine, *catalog.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.logger()
	if err != nil {
		return err
	}

	store, err := catalog.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	eng := engine.New(cfg, store, logger, nil)
	if err := eng.Start(ctx); err != nil {
		return err
	}
	defer eng.Stop()

	return fn(ctx, eng, store)
}
