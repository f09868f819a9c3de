package engine_test

import (
	"bufio"
	"context"
	"errors"
	"os/exec"
	"slices"
	"strings"
	"testing"

	"vttscribe/internal/engine"
)

func TestSelect(t *testing.T) {
	tests := []struct {
		kind string
		goos string
		want string
	}{
		{"auto", "darwin", engine.KindSubprocess},
		{"auto", "linux", engine.KindStream},
		{"", "windows", engine.KindStream},
		{"Stream", "darwin", engine.KindStream},
		{" subprocess ", "linux", engine.KindSubprocess},
	}
	for _, tt := range tests {
		got, err := engine.Select(tt.kind, tt.goos)
		if err != nil {
			t.Fatalf("Select(%q, %q): %v", tt.kind, tt.goos, err)
		}
		if got != tt.want {
			t.Fatalf("Select(%q, %q) = %q, want %q", tt.kind, tt.goos, got, tt.want)
		}
	}
	if _, err := engine.Select("whisper.cpp", "linux"); !errors.Is(err, engine.ErrUnknownEngine) {
		t.Fatalf("expected ErrUnknownEngine, got %v", err)
	}
}

func TestScanLinesOrReturns(t *testing.T) {
	input := "loading\r\n 10%|#   |\r 55%|#####|\rdone\n\nlast"
	scanner := bufio.NewScanner(strings.NewReader(input))
	scanner.Split(engine.ScanLinesOrReturns)
	var got []string
	for scanner.Scan() {
		got = append(got, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	want := []string{"loading", " 10%|#   |", " 55%|#####|", "done", "last"}
	if !slices.Equal(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExecutorStreamsBothOutputs(t *testing.T) {
	requireShell(t)
	var stdout, stderr []string
	cmd := engine.Command{
		Binary: "sh",
		Args:   []string{"-c", `printf 'one\ntwo\n'; printf '5%%\r9%%\n' >&2; echo "$VTT_PROBE"`},
		Env:    []string{"VTT_PROBE=three"},
	}
	err := engine.NewExecutor().Run(context.Background(), cmd,
		func(line string) { stdout = append(stdout, line) },
		func(line string) { stderr = append(stderr, line) },
	)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !slices.Equal(stdout, []string{"one", "two", "three"}) {
		t.Fatalf("unexpected stdout %q", stdout)
	}
	if !slices.Equal(stderr, []string{"5%", "9%"}) {
		t.Fatalf("unexpected stderr %q", stderr)
	}
}

func TestExecutorReportsExitStatus(t *testing.T) {
	requireShell(t)
	err := engine.NewExecutor().Run(context.Background(), engine.Command{Binary: "sh", Args: []string{"-c", "exit 3"}}, nil, nil)
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) || exitErr.ExitCode() != 3 {
		t.Fatalf("expected exit status 3, got %v", err)
	}
}

func TestExecutorReportsCancellation(t *testing.T) {
	requireShell(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := engine.NewExecutor().Run(ctx, engine.Command{Binary: "sh", Args: []string{"-c", "sleep 5"}}, nil, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
