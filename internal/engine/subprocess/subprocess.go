package subprocess

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"vttscribe/internal/engine"
	"vttscribe/internal/logging"
	"vttscribe/internal/vtt"
)

//go:embed mlx.py
var mlxScript string

// DefaultModel is the MLX model repository used when none is configured.
const DefaultModel = "mlx-community/whisper-large-v3-mlx"

// Name identifies this engine in logs.
const Name = engine.KindSubprocess

var percentPattern = regexp.MustCompile(`^(\d+)%`)

// Engine runs MLX whisper in a child interpreter.
type Engine struct {
	python string
	exec   engine.Executor
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec engine.Executor) Option {
	return func(e *Engine) {
		if exec != nil {
			e.exec = exec
		}
	}
}

// WithLogger attaches a logger for child diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New returns an engine that launches python with the inline MLX program.
func New(python string, opts ...Option) *Engine {
	python = strings.TrimSpace(python)
	if python == "" {
		python = "python3"
	}
	e := &Engine{
		python: python,
		exec:   engine.NewExecutor(),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements engine.Engine.
func (e *Engine) Name() string {
	return Name
}

// ParsePercent extracts the leading integer percent from a progress line.
func ParsePercent(line string) (int, bool) {
	match := percentPattern.FindStringSubmatch(strings.TrimSpace(line))
	if match == nil {
		return 0, false
	}
	value, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return value, true
}

// Transcribe implements engine.Engine. Stderr is drained by the executor on
// its own goroutine, which has exited by the time Transcribe returns.
func (e *Engine) Transcribe(ctx context.Context, req engine.Request, progress engine.ProgressFunc) (engine.Result, error) {
	if strings.TrimSpace(req.Source) == "" || strings.TrimSpace(req.Dest) == "" {
		return engine.Result{}, errors.New("subprocess: source and destination required")
	}
	if progress == nil {
		progress = func(int) {}
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = DefaultModel
	}
	dest, err := filepath.Abs(req.Dest)
	if err != nil {
		return engine.Result{}, fmt.Errorf("subprocess: resolve destination: %w", err)
	}

	cmd := engine.Command{
		Binary: e.python,
		Args:   []string{"-c", mlxScript, req.Source, model, req.Language, dest},
		Env:    []string{"PYTHONUNBUFFERED=1", "PYTHONIOENCODING=utf-8"},
	}
	if req.ModelDir != "" {
		cmd.Env = append(cmd.Env, "HF_HUB_CACHE="+req.ModelDir)
	}

	tracker := vtt.NewProgress(0)
	onStderr := func(line string) {
		if percent, ok := ParsePercent(line); ok {
			progress(tracker.Observe(percent))
			return
		}
		e.logger.Debug("mlx output", logging.String("line", line))
	}
	if err := e.exec.Run(ctx, cmd, nil, onStderr); err != nil {
		return engine.Result{}, fmt.Errorf("subprocess: %w", err)
	}

	cues, err := vtt.ParseFile(dest)
	if errors.Is(err, os.ErrNotExist) {
		return engine.Result{}, fmt.Errorf("subprocess: %w", engine.ErrNoOutput)
	}
	if err != nil {
		return engine.Result{}, fmt.Errorf("subprocess: read output: %w", err)
	}
	return engine.Result{Cues: len(cues), Language: req.Language}, nil
}
