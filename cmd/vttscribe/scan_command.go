package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"vttscribe/internal/discovery"
	"vttscribe/internal/lockfile"
	"vttscribe/internal/media/ffprobe"
)

type scanRow struct {
	path     string
	status   discovery.Status
	probed   bool
	duration float64
	hasAudio bool
}

func newScanCommand(ctx *commandContext) *cobra.Command {
	var showAll bool
	var probe bool

	cmd := &cobra.Command{
		Use:   "scan [paths...]",
		Short: "Show how each media file would be treated by a run",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			opts := discoveryOptions(cfg, lockfile.NewManager(cfg.Discovery.LockExtension))
			rows, walkErr := scanRoots(args, opts, showAll)

			if probe {
				prober := ffprobe.New(cfg.Transcription.FFprobe)
				probeMedia(cmd.Context(), prober, rows)
			}

			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No media files found")
				return walkErr
			}

			headers := []string{"Path", "Status"}
			aligns := []columnAlignment{alignLeft, alignLeft}
			if probe {
				headers = append(headers, "Duration", "Audio")
				aligns = append(aligns, alignRight, alignLeft)
			}
			counts := make(map[discovery.Status]int)
			table := make([][]string, 0, len(rows))
			for _, row := range rows {
				counts[row.status]++
				line := []string{row.path, titleLabel(string(row.status))}
				if probe {
					line = append(line, formatDuration(row.duration), audioLabel(row))
				}
				table = append(table, line)
			}
			fmt.Fprintln(out, renderTable(headers, table, aligns))
			fmt.Fprintf(out, "%d eligible, %d locked, %d transcribed, %d excluded\n",
				counts[discovery.StatusEligible],
				counts[discovery.StatusLocked],
				counts[discovery.StatusTranscribed],
				counts[discovery.StatusExcluded],
			)
			return walkErr
		},
	}

	cmd.Flags().BoolVar(&showAll, "all", false, "Include files with unsupported extensions")
	cmd.Flags().BoolVar(&probe, "probe", false, "Show media duration and audio presence via ffprobe")
	return cmd
}

// scanRoots classifies every file under roots. Subtitle and marker files are
// never listed.
func scanRoots(roots []string, opts discovery.Options, showAll bool) ([]scanRow, error) {
	var rows []scanRow
	var errs []error
	add := func(path string) {
		if filepath.Ext(path) == discovery.SubtitleExtension ||
			(opts.Locks != nil && strings.HasSuffix(filepath.Base(path), opts.Locks.Extension())) {
			return
		}
		status, err := discovery.Classify(path, opts)
		if err != nil {
			errs = append(errs, err)
			return
		}
		if status == discovery.StatusUnsupported && !showAll {
			return
		}
		rows = append(rows, scanRow{path: path, status: status})
	}

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			errs = append(errs, fmt.Errorf("scan %s: %w", root, err))
			continue
		}
		if !info.IsDir() {
			add(root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				errs = append(errs, err)
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Type().IsRegular() {
				add(path)
			}
			return nil
		})
		if err != nil {
			errs = append(errs, err)
		}
	}
	return rows, errors.Join(errs...)
}

// probeMedia fills duration and audio presence for each row. Rows ffprobe
// cannot read stay unprobed.
func probeMedia(ctx context.Context, prober *ffprobe.Prober, rows []scanRow) {
	if ctx == nil {
		ctx = context.Background()
	}
	for i := range rows {
		summary, err := prober.Inspect(ctx, rows[i].path)
		if err != nil {
			continue
		}
		rows[i].probed = true
		rows[i].duration = summary.DurationSeconds()
		rows[i].hasAudio = summary.HasAudio()
	}
}

func audioLabel(row scanRow) string {
	if !row.probed {
		return "-"
	}
	return yesNo(row.hasAudio)
}

func formatDuration(seconds float64) string {
	if seconds <= 0 {
		return "-"
	}
	d := time.Duration(seconds * float64(time.Second)).Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
