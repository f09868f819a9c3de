package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"vttscribe/internal/logging"
	"vttscribe/internal/transcribe"
	"vttscribe/internal/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <dirs...>",
		Short: "Transcribe now, then keep transcribing new media as it appears",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			runCtx, stop := signalContext(cmd.Context())
			defer stop()

			p, err := ctx.newPass(runCtx, cmd, args)
			if err != nil {
				return err
			}
			var total transcribe.Summary
			watcher, err := watch.New(args, func(passCtx context.Context) error {
				summary, err := p.run(passCtx, args)
				total.Add(summary)
				return err
			}, watch.Options{
				Extensions:  cfg.Discovery.Extensions,
				ExcludeDirs: cfg.Discovery.ExcludeDirs,
				Debounce:    cfg.DebounceInterval(),
				Logger:      p.logger,
			})
			if err != nil {
				return err
			}
			if err := watcher.Run(runCtx); err != nil {
				return err
			}
			p.logger.Info("Watch stopped",
				logging.Int("completed", total.Completed),
				logging.Int("failed", total.Failed),
				logging.Int("interrupted", total.Interrupted),
			)
			if runCtx.Err() != nil {
				return fmt.Errorf("watch stopped: %w", context.Canceled)
			}
			return nil
		},
	}
}
