package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vttscribe/internal/deps"
	"vttscribe/internal/language"
	"vttscribe/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor [paths...]",
		Short: "Check the speech engine, its dependencies, and root permissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			kind, err := ctx.engineKind()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			fmt.Fprintf(out, "Engine:   %s (configured %s)\n", kind, cfg.Transcription.Engine)
			fmt.Fprintf(out, "Language: %s\n", language.DisplayName(cfg.Transcription.Language))
			fmt.Fprintln(out)

			statuses := preflight.CheckSystemDeps(cmd.Context(), cfg, kind, ctx.moduleProbe)
			rows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				rows = append(rows, []string{
					status.Name,
					dependencyLabel(status, colorize),
					yesNo(!status.Optional),
					dependencyDetail(status),
				})
			}
			fmt.Fprintln(out, renderTable([]string{"Dependency", "Status", "Required", "Detail"}, rows, nil))

			if len(args) > 0 {
				rootRows := make([][]string, 0, len(args))
				failed := false
				for _, root := range args {
					result := preflight.CheckRoot(root)
					failed = failed || !result.Passed
					rootRows = append(rootRows, []string{root, checkLabel(result.Passed, colorize), result.Detail})
				}
				fmt.Fprintln(out, renderTable([]string{"Root", "Status", "Detail"}, rootRows, nil))
				if failed {
					return fmt.Errorf("one or more roots are not usable")
				}
			}

			if missing := deps.Missing(statuses); len(missing) > 0 {
				return fmt.Errorf("missing required dependencies: %v", missing)
			}
			fmt.Fprintln(out, "All required dependencies available")
			return nil
		},
	}
}

func dependencyLabel(status deps.Status, colorize bool) string {
	if status.Available {
		return checkLabel(true, colorize)
	}
	if status.Optional {
		return colorizeText("Missing (optional)", ansiYellow, colorize)
	}
	return checkLabel(false, colorize)
}

func dependencyDetail(status deps.Status) string {
	if status.Detail != "" {
		return status.Detail
	}
	if status.Module != "" {
		return fmt.Sprintf("import %s via %s", status.Module, status.Command)
	}
	return status.Command
}

func checkLabel(ok bool, colorize bool) string {
	if ok {
		return colorizeText("OK", ansiGreen, colorize)
	}
	return colorizeText("Missing", ansiRed, colorize)
}
