package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"vttscribe/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a default config whose model directory lives in a
// per-test temp directory. It applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Transcription.ModelDir = filepath.Join(base, "models")
	cfgVal.Logging.Level = "debug"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithBinaries points the interpreter and ffprobe at the given commands.
func WithBinaries(python, ffprobe string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Transcription.Python = python
		b.cfg.Transcription.FFprobe = ffprobe
	}
}

// WithStubbedPython writes an executable stub interpreter into the config's
// temp directory and points the config at it.
func WithStubbedPython() ConfigOption {
	return func(b *configBuilder) {
		b.t.Helper()
		path := filepath.Join(b.baseDir, "bin", "python3")
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			b.t.Fatalf("mkdir stub bin: %v", err)
		}
		if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
			b.t.Fatalf("write python stub: %v", err)
		}
		b.cfg.Transcription.Python = path
	}
}
