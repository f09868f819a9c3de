package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vttscribe/internal/testsupport"
)

type cliTestEnv struct {
	baseDir    string
	mediaDir   string
	configPath string
	executor   *testsupport.StubExecutor
	probeErr   error
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("VTTSCRIBE_LANGUAGE", "")
	t.Setenv("VTTSCRIBE_COMPUTE_TYPE", "")
	t.Chdir(base)

	python := filepath.Join(base, "bin", "python3")
	if err := os.MkdirAll(filepath.Dir(python), 0o755); err != nil {
		t.Fatalf("mkdir bin: %v", err)
	}
	if err := os.WriteFile(python, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write python stub: %v", err)
	}

	mediaDir := filepath.Join(base, "media")
	if err := os.MkdirAll(mediaDir, 0o755); err != nil {
		t.Fatalf("mkdir media: %v", err)
	}

	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf("[transcription]\nengine = \"stream\"\npython = %q\nffprobe = \"ffprobe-not-installed\"\n\n[logging]\nlevel = \"debug\"\n", python)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return &cliTestEnv{
		baseDir:    base,
		mediaDir:   mediaDir,
		configPath: configPath,
		executor:   &testsupport.StubExecutor{},
	}
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := buildRootCommand(func(c *commandContext) {
		c.executor = e.executor
		c.moduleProbe = func(context.Context, string, string) error { return e.probeErr }
		c.goos = "linux"
	})
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
