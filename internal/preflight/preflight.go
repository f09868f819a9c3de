package preflight

import (
	"context"
	"fmt"
	"strings"

	"vttscribe/internal/config"
	"vttscribe/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the dependency and root checks for a run.
func RunAll(ctx context.Context, cfg *config.Config, kind string, roots []string, probe deps.ModuleProbe) []Result {
	if cfg == nil {
		return nil
	}
	var results []Result
	for _, status := range CheckSystemDeps(ctx, cfg, kind, probe) {
		if !status.Available && status.Optional {
			continue
		}
		detail := status.Command
		if !status.Available {
			detail = status.Detail
		}
		results = append(results, Result{Name: status.Name, Passed: status.Available, Detail: detail})
	}
	for _, root := range roots {
		results = append(results, CheckRoot(root))
	}
	return results
}

// Err summarizes failed results as a single error, or returns nil.
func Err(results []Result) error {
	var failed []string
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, fmt.Sprintf("%s: %s", result.Name, result.Detail))
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return fmt.Errorf("preflight failed: %s", strings.Join(failed, "; "))
}
