package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Requirement defines an external dependency the transcriber relies on.
// A requirement with Module set is a Python module importable by the
// interpreter named in Command.
type Requirement struct {
	Name        string
	Command     string
	Module      string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Module      string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// ModuleProbe reports whether python can import module.
type ModuleProbe func(ctx context.Context, python, module string) error

// moduleProbeTimeout bounds a single import check; importing torch-backed
// packages can take several seconds on a cold cache.
const moduleProbeTimeout = 60 * time.Second

// Check evaluates requirements, importing Python modules through probe.
// A nil probe resolves module requirements only as far as their interpreter.
func Check(ctx context.Context, requirements []Requirement, probe ModuleProbe) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Module:      strings.TrimSpace(req.Module),
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		resolved, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		if status.Module != "" && probe != nil {
			if err := probe(ctx, resolved, status.Module); err != nil {
				status.Detail = fmt.Sprintf("python module %q not importable: %v", status.Module, err)
				results = append(results, status)
				continue
			}
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// ImportProbe runs `python -c "import module"`.
func ImportProbe(ctx context.Context, python, module string) error {
	probeCtx, cancel := context.WithTimeout(ctx, moduleProbeTimeout)
	defer cancel()
	cmd := exec.CommandContext(probeCtx, python, "-c", "import "+module) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		lines := strings.Split(strings.TrimSpace(string(output)), "\n")
		return fmt.Errorf("%w: %s", err, lines[len(lines)-1])
	}
	return nil
}

// Missing returns the names of unavailable required dependencies.
func Missing(statuses []Status) []string {
	var names []string
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			names = append(names, status.Name)
		}
	}
	return names
}
