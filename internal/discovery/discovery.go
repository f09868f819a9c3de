package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"vttscribe/internal/lockfile"
)

// SubtitleExtension is the extension of generated subtitle files.
const SubtitleExtension = ".vtt"

// Status classifies a file against the discovery rules.
type Status string

const (
	StatusEligible    Status = "eligible"
	StatusLocked      Status = "locked"
	StatusTranscribed Status = "transcribed"
	StatusExcluded    Status = "excluded"
	StatusUnsupported Status = "unsupported"
)

// Options holds the selection rules.
type Options struct {
	Extensions  []string
	ExcludeDirs []string
	Locks       *lockfile.Manager
}

// Candidate is a file selected for transcription.
type Candidate struct {
	Path string
	// Explicit is set when the path was named directly rather than found by a walk.
	Explicit bool
}

// SubtitlePath returns the subtitle path written for an input.
func SubtitlePath(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + SubtitleExtension
}

// Discover expands roots into candidates in argument order, then walk order.
// Paths reached more than once are returned once. Roots that cannot be read
// are reported in the returned error while the remaining roots are still
// processed.
func Discover(roots []string, opts Options) ([]Candidate, error) {
	opts = opts.withDefaults()
	var (
		out  []Candidate
		errs []error
		seen = make(map[string]struct{})
	)

	add := func(path string, explicit bool) {
		key := path
		if abs, err := filepath.Abs(path); err == nil {
			key = abs
		}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, Candidate{Path: path, Explicit: explicit})
	}

	for _, root := range roots {
		root = strings.TrimSpace(root)
		if root == "" {
			continue
		}
		info, err := os.Stat(root)
		if err != nil {
			errs = append(errs, fmt.Errorf("input %s: %w", root, err))
			continue
		}
		if !info.IsDir() {
			add(root, true)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				errs = append(errs, fmt.Errorf("walk %s: %w", path, walkErr))
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				if path != root && opts.excluded(path) {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			if status, err := opts.classify(path); err != nil {
				errs = append(errs, err)
			} else if status == StatusEligible {
				add(path, false)
			}
			return nil
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("walk %s: %w", root, err))
		}
	}
	return out, errors.Join(errs...)
}

// Classify reports how the directory-walk rules treat path.
func Classify(path string, opts Options) (Status, error) {
	return opts.withDefaults().classify(path)
}

func (o Options) withDefaults() Options {
	if o.Locks == nil {
		o.Locks = lockfile.NewManager("")
	}
	return o
}

func (o Options) classify(path string) (Status, error) {
	if o.excluded(path) {
		return StatusExcluded, nil
	}
	if !slices.Contains(o.Extensions, filepath.Ext(path)) {
		return StatusUnsupported, nil
	}
	locked, err := o.Locks.IsLocked(path)
	if err != nil {
		return "", err
	}
	if locked {
		return StatusLocked, nil
	}
	transcribed, err := fileExists(SubtitlePath(path))
	if err != nil {
		return "", err
	}
	if transcribed {
		return StatusTranscribed, nil
	}
	return StatusEligible, nil
}

func (o Options) excluded(path string) bool {
	for _, ex := range o.ExcludeDirs {
		if ex != "" && strings.Contains(path, ex) {
			return true
		}
	}
	return false
}

func fileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	return !info.IsDir(), nil
}
