package deps

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func writeStub(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestCheckResolvesBinaries(t *testing.T) {
	present := writeStub(t, "present")
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  "},
	}

	results := Check(context.Background(), reqs, nil)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for blank command: %q", results[2].Detail)
	}
}

func TestCheckProbesModules(t *testing.T) {
	python := writeStub(t, "python3")
	var probed []string
	probe := func(_ context.Context, interpreter, module string) error {
		if interpreter != python {
			t.Fatalf("probe got interpreter %q, want %q", interpreter, python)
		}
		probed = append(probed, module)
		if module == "mlx_whisper" {
			return errors.New("ModuleNotFoundError")
		}
		return nil
	}
	reqs := []Requirement{
		{Name: "faster-whisper", Command: python, Module: "faster_whisper"},
		{Name: "mlx-whisper", Command: python, Module: "mlx_whisper", Optional: true},
		{Name: "ffprobe", Command: "clearly-not-present-ffprobe"},
	}

	results := Check(context.Background(), reqs, probe)
	if !results[0].Available {
		t.Fatalf("expected importable module to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected failed import to be reported, got %#v", results[1])
	}
	if !slices.Equal(probed, []string{"faster_whisper", "mlx_whisper"}) {
		t.Fatalf("unexpected probes %v", probed)
	}
	if got := Missing(results); !slices.Equal(got, []string{"ffprobe"}) {
		t.Fatalf("Missing = %v", got)
	}
}
