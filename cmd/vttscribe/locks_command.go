package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"vttscribe/internal/config"
	"vttscribe/internal/lockfile"
)

type markerInfo struct {
	path  string
	state lockfile.State
	owner lockfile.Owner
}

func newLocksCommand(ctx *commandContext) *cobra.Command {
	locksCmd := &cobra.Command{
		Use:   "locks",
		Short: "Inspect and clear lock markers",
	}
	locksCmd.AddCommand(newLocksListCommand(ctx))
	locksCmd.AddCommand(newLocksClearCommand(ctx))
	return locksCmd
}

func newLocksListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list [paths...]",
		Short: "List lock markers and whether a live run holds them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			markers, err := findMarkers(args, cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(markers) == 0 {
				fmt.Fprintln(out, "No lock markers found")
				return nil
			}
			rows := make([][]string, 0, len(markers))
			for _, m := range markers {
				rows = append(rows, []string{
					m.path,
					titleLabel(m.state.String()),
					ownerPID(m.owner),
					strings.TrimSpace(m.owner.Hostname),
					ownerCreated(m.owner),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Marker", "State", "PID", "Host", "Created"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func newLocksClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear [paths...]",
		Short: "Remove stale lock markers left by interrupted runs",
		Long: `Remove lock markers that no running process holds.

Markers held by a live run are left in place.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			markers, err := findMarkers(args, cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			cleared, held := 0, 0
			for _, m := range markers {
				removed, err := lockfile.ClearStaleMarker(m.path)
				if err != nil {
					return err
				}
				if removed {
					cleared++
					fmt.Fprintf(out, "Removed %s\n", m.path)
				} else {
					held++
				}
			}
			fmt.Fprintf(out, "Cleared %d stale marker(s); %d held by running processes\n", cleared, held)
			return nil
		},
	}
}

// findMarkers walks roots for files ending in the lock extension. Excluded
// directories are walked too, so markers left there can still be cleared.
func findMarkers(roots []string, cfg *config.Config) ([]markerInfo, error) {
	ext := cfg.Discovery.LockExtension
	var markers []markerInfo
	visit := func(path string) error {
		if !strings.HasSuffix(filepath.Base(path), ext) {
			return nil
		}
		state, owner, err := lockfile.InspectMarker(path)
		if err != nil {
			return err
		}
		markers = append(markers, markerInfo{path: path, state: state, owner: owner})
		return nil
	}
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("locks %s: %w", root, err)
		}
		if !info.IsDir() {
			if err := visit(root); err != nil {
				return nil, err
			}
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if errors.Is(err, fs.ErrPermission) {
					return nil
				}
				return err
			}
			if d.Type().IsRegular() {
				return visit(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return markers, nil
}

func ownerPID(owner lockfile.Owner) string {
	if owner.PID <= 0 {
		return "-"
	}
	return strconv.Itoa(owner.PID)
}

func ownerCreated(owner lockfile.Owner) string {
	if owner.Created.IsZero() {
		return "-"
	}
	return owner.Created.Local().Format(time.DateTime)
}
