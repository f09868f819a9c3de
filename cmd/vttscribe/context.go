package main

import (
	"io"
	"log/slog"
	"runtime"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"vttscribe/internal/config"
	"vttscribe/internal/deps"
	"vttscribe/internal/engine"
	"vttscribe/internal/logging"
)

type commandContext struct {
	configFlag  *string
	overrides   *config.Overrides
	executor    engine.Executor
	moduleProbe deps.ModuleProbe
	goos        string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	runID string
}

func newCommandContext(configFlag *string, overrides *config.Overrides) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		overrides:   overrides,
		executor:    engine.NewExecutor(),
		moduleProbe: deps.ImportProbe,
		goos:        runtime.GOOS,
		runID:       uuid.NewString(),
	}
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
		if c.overrides != nil {
			if err := cfg.Apply(*c.overrides); err != nil {
				c.configErr = err
				return
			}
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// engineKind resolves the configured engine for this platform.
func (c *commandContext) engineKind() (string, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", err
	}
	return engine.Select(cfg.Transcription.Engine, c.goos)
}

// logger builds the run logger writing to w, plus the configured log file.
func (c *commandContext) logger(w io.Writer) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	opts := logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Writer: w,
	}
	if cfg.Logging.File != "" {
		opts.OutputPaths = []string{cfg.Logging.File}
	}
	logger, err := logging.New(opts)
	if err != nil {
		return nil, err
	}
	return logger.With(logging.String(logging.FieldRunID, c.runID)), nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
