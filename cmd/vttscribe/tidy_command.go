package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vttscribe/internal/media/ffprobe"
	"vttscribe/internal/vtt"
)

func newTidyCommand(ctx *commandContext) *cobra.Command {
	var media string
	var duration float64

	cmd := &cobra.Command{
		Use:   "tidy <file.vtt>",
		Short: "Merge fragments and split overlong cues in an existing subtitle file",
		Long: `Rewrite a WebVTT file for readability.

Short fragments that do not end a sentence are merged with the next cue,
cues over 200 characters are split at punctuation, and the last cue is kept
within the media duration when it is known (--duration or --media).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := args[0]
			cues, err := vtt.ParseFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			if duration <= 0 && media != "" {
				probed, err := ffprobe.New(cfg.Transcription.FFprobe).Duration(cmd.Context(), media)
				if err != nil {
					return err
				}
				duration = probed
			}
			tidied := vtt.Tidy(cues, duration)
			if err := vtt.WriteFile(path, tidied); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Tidied %s: %d cue(s) -> %d cue(s)\n", path, len(cues), len(tidied))
			return nil
		},
	}
	cmd.Flags().StringVar(&media, "media", "", "Media file to read the duration from")
	cmd.Flags().Float64Var(&duration, "duration", 0, "Media duration in seconds")
	return cmd
}
