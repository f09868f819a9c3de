package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeTranscription(); err != nil {
		return err
	}
	c.normalizeDiscovery()
	c.normalizeLogging()
	if c.Watch.DebounceMillis <= 0 {
		c.Watch.DebounceMillis = defaultWatchDebounceMS
	}
	return nil
}

func (c *Config) normalizeTranscription() error {
	t := &c.Transcription
	t.Engine = strings.ToLower(strings.TrimSpace(t.Engine))
	if t.Engine == "" {
		t.Engine = defaultEngine
	}
	t.Model = strings.TrimSpace(t.Model)

	if value, ok := os.LookupEnv("VTTSCRIBE_COMPUTE_TYPE"); ok && strings.TrimSpace(value) != "" {
		t.ComputeType = value
	}
	t.ComputeType = strings.ToLower(strings.TrimSpace(t.ComputeType))
	if t.ComputeType == "" {
		t.ComputeType = defaultComputeType
	}

	if value, ok := os.LookupEnv("VTTSCRIBE_LANGUAGE"); ok && strings.TrimSpace(value) != "" {
		t.Language = value
	}
	t.Language = strings.TrimSpace(t.Language)
	if t.Language == "" {
		t.Language = defaultLanguage
	}

	t.Python = strings.TrimSpace(t.Python)
	if t.Python == "" {
		t.Python = defaultPython
	}
	t.FFprobe = strings.TrimSpace(t.FFprobe)
	if t.FFprobe == "" {
		t.FFprobe = defaultFFprobe
	}
	t.Device = strings.ToLower(strings.TrimSpace(t.Device))
	if t.Device == "" {
		t.Device = defaultDevice
	}
	if strings.TrimSpace(t.ModelDir) == "" {
		t.ModelDir = defaultModelDir
	}
	var err error
	if t.ModelDir, err = expandPath(strings.TrimSpace(t.ModelDir)); err != nil {
		return fmt.Errorf("transcription.model_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDiscovery() {
	d := &c.Discovery
	exts := make([]string, 0, len(d.Extensions))
	seen := make(map[string]struct{}, len(d.Extensions))
	for _, ext := range d.Extensions {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		exts = append(exts, ext)
	}
	d.Extensions = exts

	dirs := d.ExcludeDirs[:0]
	for _, dir := range d.ExcludeDirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		dirs = append(dirs, dir)
	}
	d.ExcludeDirs = dirs

	d.LockExtension = strings.TrimSpace(d.LockExtension)
	if d.LockExtension == "" {
		d.LockExtension = defaultLockExtension
	}
	if !strings.HasPrefix(d.LockExtension, ".") {
		d.LockExtension = "." + d.LockExtension
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.File = strings.TrimSpace(c.Logging.File)
	if c.Logging.File != "" {
		if expanded, err := expandPath(c.Logging.File); err == nil {
			c.Logging.File = expanded
		}
	}
}
