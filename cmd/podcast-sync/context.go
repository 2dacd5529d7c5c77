package main

import (
	"context"
	"strings"
	"sync"

	"podcast-sync/pkg/config"
	"podcast-sync/pkg/db"
	"podcast-sync/pkg/logging"

	"go.uber.org/zap"
)

type commandContext struct {
	configFlag *string

	configOnce  sync.Once
	config      *config.Config
	configPath  string
	configFound bool
	configErr   error

	loggerOnce sync.Once
	logger     *zap.Logger
	loggerErr  error
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
		cfg, resolved, found, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config, c.configPath, c.configFound = cfg, resolved, found
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*zap.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.New(logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
		})
	})
	return c.logger, c.loggerErr
}

// openStore opens the configured episode store with the shared logger
func (c *commandContext) openStore(ctx context.Context, storeCfg config.Store) (db.EpisodeStore, error) {
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	logger.Debug("opening store", db.Describe(storeCfg)...)
	return db.Open(ctx, storeCfg, db.WithLogger(logger))
}

func (c *commandContext) syncLogger() {
	if c.logger != nil {
		_ = c.logger.Sync()
	}
}
