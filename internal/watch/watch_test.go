package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func newTestWatcher(t *testing.T, root string, pass PassFunc) *Watcher {
	t.Helper()
	w, err := New([]string{root}, pass, Options{
		Extensions:  []string{".mp4"},
		ExcludeDirs: []string{"00-assets"},
		Debounce:    20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return w
}

func TestNewRequiresDirectoryRoot(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.mp4")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	noop := func(context.Context) error { return nil }
	if _, err := New([]string{file}, noop, Options{}); err == nil {
		t.Fatal("expected error when only file roots are given")
	}
	if _, err := New([]string{filepath.Join(dir, "missing")}, noop, Options{}); err == nil {
		t.Fatal("expected error for missing root")
	}
	if _, err := New([]string{dir}, nil, Options{}); err == nil {
		t.Fatal("expected error for nil pass")
	}
}

func TestAddTreeSkipsExcludedDirectories(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"show/s01", "00-assets/logos", "other"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	w := newTestWatcher(t, root, func(context.Context) error { return nil })
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer fsw.Close()
	w.fs = fsw

	if err := w.addTree(root); err != nil {
		t.Fatalf("addTree: %v", err)
	}
	got := fsw.WatchList()
	slices.Sort(got)
	want := []string{
		root,
		filepath.Join(root, "other"),
		filepath.Join(root, "show"),
		filepath.Join(root, "show", "s01"),
	}
	if !slices.Equal(got, want) {
		t.Fatalf("watch list = %v, want %v", got, want)
	}
}

func TestHandleEventFiltersByExtension(t *testing.T) {
	root := t.TempDir()
	w := newTestWatcher(t, root, func(context.Context) error { return nil })
	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"media create", fsnotify.Event{Name: filepath.Join(root, "a.mp4"), Op: fsnotify.Create}, true},
		{"media write", fsnotify.Event{Name: filepath.Join(root, "a.mp4"), Op: fsnotify.Write}, true},
		{"media remove", fsnotify.Event{Name: filepath.Join(root, "a.mp4"), Op: fsnotify.Remove}, false},
		{"subtitle", fsnotify.Event{Name: filepath.Join(root, "a.vtt"), Op: fsnotify.Create}, false},
		{"marker", fsnotify.Event{Name: filepath.Join(root, "a.lock"), Op: fsnotify.Create}, false},
		{"excluded", fsnotify.Event{Name: filepath.Join(root, "00-assets", "a.mp4"), Op: fsnotify.Create}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.handleEvent(tt.event); got != tt.want {
				t.Fatalf("handleEvent = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRunTriggersPassOnNewMedia(t *testing.T) {
	root := t.TempDir()
	var passes atomic.Int32
	triggered := make(chan struct{}, 4)
	w := newTestWatcher(t, root, func(context.Context) error {
		passes.Add(1)
		triggered <- struct{}{}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	waitFor(t, triggered)
	if err := os.WriteFile(filepath.Join(root, "new.mp4"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, triggered)

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
	if passes.Load() < 2 {
		t.Fatalf("expected initial and triggered passes, got %d", passes.Load())
	}
}

func TestRunStopsOnPassError(t *testing.T) {
	root := t.TempDir()
	boom := errors.New("lock dir gone")
	w := newTestWatcher(t, root, func(context.Context) error { return boom })
	if err := w.Run(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected pass error, got %v", err)
	}
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for pass")
	}
}
