package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"vttscribe/internal/config"
)

func newRootCommand() *cobra.Command {
	return buildRootCommand(nil)
}

// buildRootCommand assembles the command tree. configure adjusts the shared
// context before any command runs.
func buildRootCommand(configure func(*commandContext)) *cobra.Command {
	var configFlag string
	var files []string
	overrides := &config.Overrides{}

	ctx := newCommandContext(&configFlag, overrides)
	if configure != nil {
		configure(ctx)
	}

	rootCmd := &cobra.Command{
		Use:   "vttscribe [paths...]",
		Short: "Transcribe audio and video files into WebVTT subtitles",
		Long: `Transcribe every eligible media file under the given paths.

Directories are walked recursively. Files that already have a .vtt next to
them, or are locked by another run, are skipped. Files named directly are
always transcribed. Percent progress is printed to stdout, one value per line.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := append(append([]string(nil), files...), args...)
			if len(paths) == 0 {
				return errors.New("no input paths; pass files or directories (see --help)")
			}
			runCtx, stop := signalContext(cmd.Context())
			defer stop()
			return ctx.transcribeOnce(runCtx, cmd, paths)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFlag, "config", "", "Configuration file path")
	flags.StringVar(&overrides.LogLevel, "log-level", "", "Log level (debug, info, warn, error, critical)")
	flags.StringVar(&overrides.Engine, "engine", "", "Speech engine (auto, stream, subprocess)")
	flags.StringVarP(&overrides.ComputeType, "compute-type", "c", "", "Compute type for the stream engine (e.g. int8, float16)")
	flags.StringVarP(&overrides.Language, "language", "l", "", `Language hint, or "auto" to detect`)
	rootCmd.Flags().StringArrayVarP(&files, "file", "f", nil, "File or directory to transcribe (repeatable)")

	rootCmd.AddCommand(newScanCommand(ctx))
	rootCmd.AddCommand(newLocksCommand(ctx))
	rootCmd.AddCommand(newWatchCommand(ctx))
	rootCmd.AddCommand(newTidyCommand(ctx))
	rootCmd.AddCommand(newDoctorCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}

// signalContext cancels on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, unix.SIGTERM)
}
