package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"vttscribe/internal/discovery"
	"vttscribe/internal/engine"
	"vttscribe/internal/lockfile"
	"vttscribe/internal/logging"
	"vttscribe/internal/vtt"
)

// Options carries per-run engine settings.
type Options struct {
	RunID       string
	Language    string
	ComputeType string
	Model       string
	Device      string
	ModelDir    string
	// Tidy rewrites successful output through vtt.Tidy.
	Tidy bool
	// Timeout bounds each file; zero disables it.
	Timeout time.Duration
}

// DurationProber supplies media duration for tidying when the engine did not
// report one.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Summary counts per-file outcomes of a run.
type Summary struct {
	Completed   int
	Failed      int
	Skipped     int
	Interrupted int
}

// Total returns the number of files that were considered.
func (s Summary) Total() int {
	return s.Completed + s.Failed + s.Skipped + s.Interrupted
}

// Add accumulates another summary.
func (s *Summary) Add(other Summary) {
	s.Completed += other.Completed
	s.Failed += other.Failed
	s.Skipped += other.Skipped
	s.Interrupted += other.Interrupted
}

// Runner processes candidates sequentially.
type Runner struct {
	engine   engine.Engine
	locks    *lockfile.Manager
	logger   *slog.Logger
	progress io.Writer
	prober   DurationProber
	opts     Options
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the run logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithProgress sets the writer receiving percent lines.
func WithProgress(w io.Writer) Option {
	return func(r *Runner) {
		if w != nil {
			r.progress = w
		}
	}
}

// WithProber sets the duration source used when tidying.
func WithProber(prober DurationProber) Option {
	return func(r *Runner) {
		r.prober = prober
	}
}

// NewRunner wires a runner around eng and locks.
func NewRunner(eng engine.Engine, locks *lockfile.Manager, opts Options, options ...Option) *Runner {
	r := &Runner{
		engine:   eng,
		locks:    locks,
		logger:   logging.NewNop(),
		progress: os.Stdout,
		opts:     opts,
	}
	for _, opt := range options {
		opt(r)
	}
	r.logger = logging.NewComponentLogger(r.logger, "transcribe").With(
		logging.String(logging.FieldEngine, eng.Name()),
	)
	return r
}

// progressLogStep is the percent interval between debug progress records.
const progressLogStep = 10

// outcome is the terminal state of one file.
type outcome int

const (
	outcomeCompleted outcome = iota
	outcomeFailed
	outcomeSkipped
	outcomeInterrupted
)

// Run processes candidates in order. It stops early when ctx is cancelled
// and returns an error only for lock marker filesystem failures, which abort
// the run.
func (r *Runner) Run(ctx context.Context, candidates []discovery.Candidate) (Summary, error) {
	var summary Summary
	for _, candidate := range candidates {
		if ctx.Err() != nil {
			break
		}
		result, err := r.processFile(ctx, candidate.Path)
		if err != nil {
			return summary, err
		}
		switch result {
		case outcomeCompleted:
			summary.Completed++
		case outcomeFailed:
			summary.Failed++
		case outcomeSkipped:
			summary.Skipped++
		case outcomeInterrupted:
			summary.Interrupted++
			return summary, nil
		}
	}
	return summary, nil
}

func (r *Runner) processFile(ctx context.Context, path string) (result outcome, err error) {
	logger := r.logger.With(logging.String(logging.FieldFile, path))

	lock, err := r.locks.Acquire(path, lockfile.NewOwner(r.opts.RunID))
	if errors.Is(err, lockfile.ErrLocked) {
		logger.Warn("file is locked by another run; skipping", logging.String("marker", r.locks.MarkerPath(path)))
		return outcomeSkipped, nil
	}
	if err != nil {
		return outcomeFailed, fmt.Errorf("lock %s: %w", path, err)
	}
	sampler := logging.NewProgressSampler(progressLogStep)
	progress := func(percent int) {
		r.emit(percent)
		if sampler.ShouldLog(percent) {
			logger.Debug("Transcription progress", logging.Int("percent", percent))
		}
	}
	defer func() {
		if releaseErr := lock.Release(); releaseErr != nil && err == nil {
			err = fmt.Errorf("unlock %s: %w", path, releaseErr)
		}
		progress(100)
	}()

	dest := discovery.SubtitlePath(path)
	logger.Info("Processing", logging.String("output", dest))
	started := time.Now()

	fileCtx := ctx
	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		fileCtx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	req := engine.Request{
		Source:      path,
		Dest:        dest,
		Language:    r.opts.Language,
		ComputeType: r.opts.ComputeType,
		Model:       r.opts.Model,
		Device:      r.opts.Device,
		ModelDir:    r.opts.ModelDir,
	}
	res, runErr := r.engine.Transcribe(fileCtx, req, progress)
	switch {
	case ctx.Err() != nil:
		r.removeOutput(logger, dest)
		logger.Warn("transcription interrupted; partial output removed", logging.Error(runErr))
		return outcomeInterrupted, nil
	case runErr != nil:
		r.removeOutput(logger, dest)
		logger.Error("transcription failed", logging.Error(runErr))
		return outcomeFailed, nil
	}

	if r.opts.Tidy {
		if cues, tidyErr := r.tidy(ctx, path, dest, res.Duration); tidyErr != nil {
			logger.Warn("tidy failed; keeping engine output", logging.Error(tidyErr))
		} else {
			res.Cues = cues
		}
	}
	logger.Info("Transcription completed",
		logging.Int("cues", res.Cues),
		logging.Duration("elapsed", time.Since(started).Round(time.Millisecond)),
	)
	return outcomeCompleted, nil
}

func (r *Runner) tidy(ctx context.Context, source, dest string, duration float64) (int, error) {
	if duration <= 0 && r.prober != nil {
		if probed, err := r.prober.Duration(ctx, source); err == nil {
			duration = probed
		}
	}
	cues, err := vtt.ParseFile(dest)
	if err != nil {
		return 0, err
	}
	tidied := vtt.Tidy(cues, duration)
	if err := vtt.WriteFile(dest, tidied); err != nil {
		return 0, err
	}
	return len(tidied), nil
}

func (r *Runner) emit(percent int) {
	fmt.Fprintln(r.progress, percent)
}

func (r *Runner) removeOutput(logger *slog.Logger, dest string) {
	if err := os.Remove(dest); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("failed to remove partial output", logging.String("output", dest), logging.Error(err))
	}
}
