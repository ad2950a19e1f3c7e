package main

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/havliksimon/anki-card-creator/internal/app"
	"github.com/havliksimon/anki-card-creator/internal/config"
)

var errNoDatabase = errors.New("this command requires database.dsn (DATABASE_DSN)")

type commandContext struct {
	configFlag  *string
	verboseFlag *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
	logger     *slog.Logger

	container *app.Container
}

func newCommandContext(configFlag *string, verboseFlag *bool) *commandContext {
	return &commandContext{configFlag: configFlag, verboseFlag: verboseFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.LoadFrom(path)
		if err != nil {
			c.configErr = err
			return
		}

		logCfg := cfg.Log
		if c.verboseFlag == nil || !*c.verboseFlag {
			logCfg.Level = "warn"
		}
		c.logger = app.NewLogger(logCfg)
		c.config = cfg
	})
	return c.config, c.configErr
}

// ensureContainer wires the services on first use. The root command closes
// it after the subcommand returns.
func (c *commandContext) ensureContainer(ctx context.Context) (*app.Container, error) {
	if c.container != nil {
		return c.container, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	container, err := app.NewContainer(ctx, cfg, c.logger)
	if err != nil {
		return nil, err
	}
	c.container = container
	return container, nil
}

func (c *commandContext) close(ctx context.Context) error {
	if c.container == nil {
		return nil
	}
	waitErr := c.container.Runner.Wait(ctx)
	return errors.Join(waitErr, c.container.Close())
}
