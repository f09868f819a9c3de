package config

import (
	"errors"
	"fmt"
	"slices"

	"vttscribe/internal/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateDiscovery(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateTranscription() error {
	t := c.Transcription
	switch t.Engine {
	case EngineAuto, EngineStream, EngineSubprocess:
	default:
		return fmt.Errorf("transcription.engine must be one of auto, stream, subprocess (got %q)", t.Engine)
	}
	if !slices.Contains(ComputeTypes, t.ComputeType) {
		return fmt.Errorf("transcription.compute_type %q is not supported; choices: %v", t.ComputeType, ComputeTypes)
	}
	if _, err := language.Normalize(t.Language); err != nil {
		return fmt.Errorf("transcription.language: %w", err)
	}
	switch t.Device {
	case "auto", "cpu", "cuda":
	default:
		return fmt.Errorf("transcription.device must be one of auto, cpu, cuda (got %q)", t.Device)
	}
	if t.TimeoutSeconds < 0 {
		return errors.New("transcription.timeout_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateDiscovery() error {
	if len(c.Discovery.Extensions) == 0 {
		return errors.New("discovery.extensions must include at least one extension")
	}
	if slices.Contains(c.Discovery.Extensions, ".vtt") {
		return errors.New("discovery.extensions must not include .vtt")
	}
	if slices.Contains(c.Discovery.Extensions, c.Discovery.LockExtension) {
		return fmt.Errorf("discovery.extensions must not include the lock extension %s", c.Discovery.LockExtension)
	}
	if c.Discovery.LockExtension == ".vtt" {
		return errors.New("discovery.lock_extension must differ from .vtt")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error", "critical":
	default:
		return fmt.Errorf("logging.level %q is not recognized", c.Logging.Level)
	}
	return nil
}
