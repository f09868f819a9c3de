package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"vttscribe/internal/logging"
)

const defaultDebounce = 2 * time.Second

// PassFunc performs one discovery and transcription pass. A returned error
// stops the watcher.
type PassFunc func(ctx context.Context) error

// Options configures a Watcher.
type Options struct {
	// Extensions lists the media extensions that trigger a pass.
	Extensions []string
	// ExcludeDirs lists path substrings that are never watched.
	ExcludeDirs []string
	Debounce    time.Duration
	Logger      *slog.Logger
}

// Watcher observes directory trees and invokes a pass after changes.
type Watcher struct {
	roots []string
	opts  Options
	pass  PassFunc
	fs    *fsnotify.Watcher
	// passes counts completed passes; read only from the Run goroutine.
	passes int
}

// New validates roots and returns a watcher. File roots are ignored since
// their transcription is not affected by new arrivals.
func New(roots []string, pass PassFunc, opts Options) (*Watcher, error) {
	if pass == nil {
		return nil, errors.New("watch: pass function required")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	opts.Logger = logging.NewComponentLogger(opts.Logger, "watch")

	var dirs []string
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("watch root %s: %w", root, err)
		}
		if !info.IsDir() {
			opts.Logger.Debug("not watching file root", logging.String(logging.FieldFile, root))
			continue
		}
		dirs = append(dirs, root)
	}
	if len(dirs) == 0 {
		return nil, errors.New("watch: no directory roots to watch")
	}
	return &Watcher{roots: dirs, opts: opts, pass: pass}, nil
}

// Run performs an initial pass, then one pass per settled burst of events
// until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer fsw.Close()
	w.fs = fsw

	for _, root := range w.roots {
		if err := w.addTree(root); err != nil {
			return err
		}
	}
	w.opts.Logger.Info("watching for new media",
		logging.Int("directories", len(fsw.WatchList())),
		logging.Duration("debounce", w.opts.Debounce),
	)

	if err := w.runPass(ctx); err != nil {
		return err
	}

	timer := time.NewTimer(w.opts.Debounce)
	timer.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.handleEvent(event) {
				pending = true
				timer.Reset(w.opts.Debounce)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.opts.Logger.Warn("file watcher error", logging.Error(err))
		case <-timer.C:
			if !pending {
				continue
			}
			pending = false
			if err := w.runPass(ctx); err != nil {
				return err
			}
		}
	}
}

func (w *Watcher) runPass(ctx context.Context) error {
	if ctx.Err() != nil {
		return nil
	}
	w.passes++
	w.opts.Logger.Debug("starting pass", logging.Int("pass", w.passes))
	if err := w.pass(ctx); err != nil {
		return fmt.Errorf("watch pass: %w", err)
	}
	return nil
}

// handleEvent registers new directories and reports whether the event
// should schedule a pass.
func (w *Watcher) handleEvent(event fsnotify.Event) bool {
	if w.excluded(event.Name) {
		return false
	}
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.opts.Logger.Warn("failed to watch new directory", logging.String("path", event.Name), logging.Error(err))
			}
			return true
		}
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return false
	}
	if !slices.Contains(w.opts.Extensions, filepath.Ext(event.Name)) {
		return false
	}
	w.opts.Logger.Debug("media change detected",
		logging.String(logging.FieldFile, event.Name),
		logging.String(logging.FieldEventType, event.Op.String()),
	)
	return true
}

// addTree watches dir and every non-excluded directory below it.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return fmt.Errorf("walk %s: %w", dir, err)
			}
			w.opts.Logger.Warn("skipping unreadable directory", logging.String("path", path), logging.Error(err))
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if w.excluded(path) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) excluded(path string) bool {
	for _, pattern := range w.opts.ExcludeDirs {
		if pattern != "" && strings.Contains(path, pattern) {
			return true
		}
	}
	return false
}
