package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"vttscribe/internal/config"
	"vttscribe/internal/discovery"
	"vttscribe/internal/engine"
	"vttscribe/internal/engine/stream"
	"vttscribe/internal/engine/subprocess"
	"vttscribe/internal/language"
	"vttscribe/internal/lockfile"
	"vttscribe/internal/logging"
	"vttscribe/internal/media/ffprobe"
	"vttscribe/internal/preflight"
	"vttscribe/internal/transcribe"
)

// pass bundles everything needed to discover and transcribe a set of roots.
type pass struct {
	logger    *slog.Logger
	runner    *transcribe.Runner
	discovery discovery.Options
}

func (c *commandContext) newPass(ctx context.Context, cmd *cobra.Command, roots []string) (*pass, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	kind, err := c.engineKind()
	if err != nil {
		return nil, err
	}
	logger, err := c.logger(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	if err := preflight.Err(preflight.RunAll(ctx, cfg, kind, existingRoots(roots), c.moduleProbe)); err != nil {
		return nil, err
	}

	lang, err := language.Normalize(cfg.Transcription.Language)
	if err != nil {
		return nil, err
	}
	prober := ffprobe.New(cfg.Transcription.FFprobe)
	eng := buildEngine(kind, cfg, c.executor, prober, logger)
	locks := lockfile.NewManager(cfg.Discovery.LockExtension)

	logger.Info("Starting transcription",
		logging.String(logging.FieldEngine, eng.Name()),
		logging.String("language", language.DisplayName(lang)),
		logging.String("compute_type", cfg.Transcription.ComputeType),
	)

	runner := transcribe.NewRunner(eng, locks, transcribe.Options{
		RunID:       c.runID,
		Language:    lang,
		ComputeType: cfg.Transcription.ComputeType,
		Model:       cfg.Transcription.Model,
		Device:      cfg.Transcription.Device,
		ModelDir:    cfg.Transcription.ModelDir,
		Tidy:        cfg.Output.Tidy,
		Timeout:     cfg.Timeout(),
	},
		transcribe.WithLogger(logger),
		transcribe.WithProgress(cmd.OutOrStdout()),
		transcribe.WithProber(prober),
	)
	return &pass{
		logger:    logger,
		runner:    runner,
		discovery: discoveryOptions(cfg, locks),
	}, nil
}

func buildEngine(kind string, cfg *config.Config, exec engine.Executor, prober *ffprobe.Prober, logger *slog.Logger) engine.Engine {
	engineLogger := logging.NewComponentLogger(logger, "engine")
	if kind == engine.KindSubprocess {
		return subprocess.New(cfg.Transcription.Python,
			subprocess.WithExecutor(exec),
			subprocess.WithLogger(engineLogger),
		)
	}
	return stream.New(cfg.Transcription.Python,
		stream.WithExecutor(exec),
		stream.WithProber(prober),
		stream.WithLogger(engineLogger),
	)
}

func discoveryOptions(cfg *config.Config, locks *lockfile.Manager) discovery.Options {
	return discovery.Options{
		Extensions:  cfg.Discovery.Extensions,
		ExcludeDirs: cfg.Discovery.ExcludeDirs,
		Locks:       locks,
	}
}

// run discovers candidates under roots and transcribes them. Unreadable
// roots are logged and skipped.
func (p *pass) run(ctx context.Context, roots []string) (transcribe.Summary, error) {
	candidates, err := discovery.Discover(roots, p.discovery)
	if err != nil {
		p.logger.Warn("some inputs could not be read", logging.Error(err))
	}
	if len(candidates) == 0 {
		p.logger.Info("No eligible files found")
		return transcribe.Summary{}, nil
	}
	p.logger.Info("Discovered files", logging.Int("count", len(candidates)))

	summary, err := p.runner.Run(ctx, candidates)
	p.logger.Info("Run finished",
		logging.Int("completed", summary.Completed),
		logging.Int("failed", summary.Failed),
		logging.Int("skipped", summary.Skipped),
		logging.Int("interrupted", summary.Interrupted),
	)
	return summary, err
}

func (c *commandContext) transcribeOnce(ctx context.Context, cmd *cobra.Command, roots []string) error {
	p, err := c.newPass(ctx, cmd, roots)
	if err != nil {
		return err
	}
	summary, err := p.run(ctx, roots)
	if err != nil {
		return err
	}
	if summary.Interrupted > 0 || ctx.Err() != nil {
		return fmt.Errorf("transcription interrupted: %w", context.Canceled)
	}
	return nil
}

// existingRoots drops roots that do not exist; discovery reports those.
func existingRoots(roots []string) []string {
	out := make([]string, 0, len(roots))
	for _, root := range roots {
		if _, err := os.Stat(root); err == nil {
			out = append(out, root)
		}
	}
	return out
}
