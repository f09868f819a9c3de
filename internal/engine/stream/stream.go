package stream

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"vttscribe/internal/engine"
	"vttscribe/internal/logging"
	"vttscribe/internal/vtt"
)

//go:embed bridge.py
var bridgeScript string

// DefaultModel is the faster-whisper model used when none is configured.
const DefaultModel = "large-v3"

// Name identifies this engine in logs.
const Name = engine.KindStream

// DurationProber supplies media duration when the bridge cannot.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Engine drives the faster-whisper bridge.
type Engine struct {
	python string
	exec   engine.Executor
	prober DurationProber
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

// WithProber sets the duration fallback.
func WithProber(prober DurationProber) Option {
	return func(e *Engine) {
		e.prober = prober
	}
}

// WithLogger attaches a logger for bridge diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New returns an engine that runs the bridge with the given interpreter.
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

type event struct {
	Type                string  `json:"type"`
	Duration            float64 `json:"duration"`
	Language            string  `json:"language"`
	LanguageProbability float64 `json:"language_probability"`
	Start               float64 `json:"start"`
	End                 float64 `json:"end"`
	Text                string  `json:"text"`
}

// session holds per-file state while bridge output is consumed.
type session struct {
	ctx      context.Context
	cancel   context.CancelFunc
	engine   *Engine
	req      engine.Request
	report   engine.ProgressFunc
	file     *os.File
	writer   *vtt.Writer
	progress *vtt.Progress
	result   engine.Result
	err      error
}

// Transcribe implements engine.Engine. The destination is created when the
// bridge reports metadata, so a bridge that fails while loading the model
// leaves nothing behind.
func (e *Engine) Transcribe(ctx context.Context, req engine.Request, progress engine.ProgressFunc) (engine.Result, error) {
	if strings.TrimSpace(req.Source) == "" || strings.TrimSpace(req.Dest) == "" {
		return engine.Result{}, errors.New("stream: source and destination required")
	}
	if progress == nil {
		progress = func(int) {}
	}
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s := &session{ctx: runCtx, cancel: cancel, engine: e, req: req, report: progress}
	defer s.close()

	cmd := engine.Command{
		Binary: e.python,
		Args:   e.buildArgs(req),
		Env:    []string{"PYTHONUNBUFFERED=1", "PYTHONIOENCODING=utf-8"},
	}
	runErr := e.exec.Run(runCtx, cmd, s.handleLine, func(line string) {
		e.logger.Debug("bridge output", logging.String("line", line))
	})
	if s.err != nil && ctx.Err() == nil {
		return s.result, fmt.Errorf("stream: %w", s.err)
	}
	if runErr != nil {
		return s.result, fmt.Errorf("stream: %w", runErr)
	}
	if s.writer == nil {
		return s.result, fmt.Errorf("stream: %w", engine.ErrNoOutput)
	}
	if err := s.writer.Flush(); err != nil {
		return s.result, fmt.Errorf("stream: flush vtt: %w", err)
	}
	if err := s.file.Close(); err != nil {
		s.file = nil
		return s.result, fmt.Errorf("stream: close vtt: %w", err)
	}
	s.file = nil
	return s.result, nil
}

func (e *Engine) buildArgs(req engine.Request) []string {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = DefaultModel
	}
	args := []string{
		"-c", bridgeScript,
		"--source", req.Source,
		"--model", model,
	}
	if req.ComputeType != "" {
		args = append(args, "--compute-type", req.ComputeType)
	}
	if req.Device != "" {
		args = append(args, "--device", req.Device)
	}
	if req.Language != "" {
		args = append(args, "--language", req.Language)
	}
	if req.ModelDir != "" {
		args = append(args, "--model-dir", req.ModelDir)
	}
	return args
}

// handleLine consumes one bridge stdout line. The first error stops the
// bridge and every further line is ignored.
func (s *session) handleLine(line string) {
	if s.err != nil {
		return
	}
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "{") {
		if line != "" {
			s.engine.logger.Debug("bridge stdout", logging.String("line", line))
		}
		return
	}
	var ev event
	if err := json.Unmarshal([]byte(line), &ev); err != nil {
		s.err = fmt.Errorf("decode bridge event: %w", err)
		s.cancel()
		return
	}
	switch ev.Type {
	case "info":
		s.err = s.open(ev)
	case "segment":
		s.err = s.write(ev)
	default:
		s.engine.logger.Debug("unknown bridge event", logging.String(logging.FieldEventType, ev.Type))
	}
	if s.err != nil {
		s.cancel()
	}
}

func (s *session) open(ev event) error {
	if s.writer != nil {
		return nil
	}
	duration := ev.Duration
	if duration <= 0 && s.engine.prober != nil {
		probed, err := s.engine.prober.Duration(s.ctx, s.req.Source)
		if err != nil {
			s.engine.logger.Warn("duration unavailable; progress will not advance",
				logging.String(logging.FieldFile, s.req.Source),
				logging.Error(err),
			)
		} else {
			duration = probed
		}
	}
	s.result.Duration = duration
	s.result.Language = ev.Language
	s.engine.logger.Info("detected language",
		logging.String("language", ev.Language),
		logging.Float64("probability", ev.LanguageProbability),
		logging.Float64("duration_seconds", duration),
	)

	file, err := os.Create(s.req.Dest)
	if err != nil {
		return fmt.Errorf("create vtt: %w", err)
	}
	s.file = file
	s.writer = vtt.NewWriter(file)
	s.progress = vtt.NewProgress(duration)
	if err := s.writer.WriteHeader(); err != nil {
		return fmt.Errorf("write vtt header: %w", err)
	}
	return s.writer.Flush()
}

func (s *session) write(ev event) error {
	if s.writer == nil {
		return errors.New("segment received before metadata")
	}
	cue := vtt.Cue{Start: ev.Start, End: ev.End, Text: ev.Text}
	if err := s.writer.WriteCue(cue); err != nil {
		return fmt.Errorf("write cue: %w", err)
	}
	s.result.Cues = s.writer.Count()
	s.report(s.progress.Add(cue))
	return nil
}

func (s *session) close() {
	if s.file != nil {
		_ = s.file.Close()
		s.file = nil
	}
}
