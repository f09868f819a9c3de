package preflight

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"vttscribe/internal/config"
	"vttscribe/internal/deps"
	"vttscribe/internal/engine"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckRoot verifies that subtitles and lock markers can be created for a
// root. File roots are checked through their parent directory.
func CheckRoot(root string) Result {
	name := "Root " + root
	info, err := os.Stat(root)
	if err == nil && !info.IsDir() {
		return CheckDirectoryAccess(name, filepath.Dir(root))
	}
	return CheckDirectoryAccess(name, root)
}

// Requirements lists the external dependencies of the engine kind.
func Requirements(cfg *config.Config, kind string) []deps.Requirement {
	python := cfg.Transcription.Python
	requirements := []deps.Requirement{
		{
			Name:        "Python",
			Command:     python,
			Description: "Runs the speech engine",
		},
	}
	switch kind {
	case engine.KindSubprocess:
		requirements = append(requirements, deps.Requirement{
			Name:        "mlx-whisper",
			Command:     python,
			Module:      "mlx_whisper",
			Description: "Required by the subprocess engine",
		})
	default:
		requirements = append(requirements, deps.Requirement{
			Name:        "faster-whisper",
			Command:     python,
			Module:      "faster_whisper",
			Description: "Required by the stream engine",
		})
	}
	requirements = append(requirements, deps.Requirement{
		Name:        "FFprobe",
		Command:     cfg.Transcription.FFprobe,
		Description: "Fallback media duration for progress and tidy",
		Optional:    true,
	})
	return requirements
}

// CheckSystemDeps evaluates the engine's dependencies for the given config.
func CheckSystemDeps(ctx context.Context, cfg *config.Config, kind string, probe deps.ModuleProbe) []deps.Status {
	return deps.Check(ctx, Requirements(cfg, kind), probe)
}
