package lockfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"
)

// DefaultExtension is the marker extension used when none is configured.
const DefaultExtension = ".lock"

// ErrLocked is returned by Acquire when another run already holds the marker.
var ErrLocked = errors.New("file is locked")

// State describes a marker as observed by Inspect.
type State int

const (
	// Unlocked means no marker exists.
	Unlocked State = iota
	// Held means a marker exists and a live process holds it.
	Held
	// Stale means a marker exists but nobody holds it.
	Stale
)

func (s State) String() string {
	switch s {
	case Held:
		return "held"
	case Stale:
		return "stale"
	default:
		return "unlocked"
	}
}

// Owner is the informational payload written into a marker.
type Owner struct {
	RunID    string    `json:"run_id"`
	PID      int       `json:"pid"`
	Hostname string    `json:"hostname"`
	Created  time.Time `json:"created"`
}

// NewOwner describes the current process for the given run.
func NewOwner(runID string) Owner {
	host, _ := os.Hostname()
	return Owner{
		RunID:    runID,
		PID:      os.Getpid(),
		Hostname: host,
		Created:  time.Now().UTC(),
	}
}

// Manager creates and removes markers with a fixed extension.
type Manager struct {
	ext string
}

// NewManager returns a manager for markers ending in ext.
func NewManager(ext string) *Manager {
	ext = strings.TrimSpace(ext)
	if ext == "" {
		ext = DefaultExtension
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return &Manager{ext: ext}
}

// Extension returns the marker extension.
func (m *Manager) Extension() string {
	return m.ext
}

// MarkerPath returns the marker path for an input file.
func (m *Manager) MarkerPath(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + m.ext
}

// IsLocked reports whether the marker for input exists.
func (m *Manager) IsLocked(input string) (bool, error) {
	info, err := os.Stat(m.MarkerPath(input))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat lock marker: %w", err)
	}
	return !info.IsDir(), nil
}

// Lock is a held marker. Release it exactly once; further calls are no-ops.
type Lock struct {
	path  string
	owner Owner
	file  *os.File
}

// Path returns the marker path.
func (l *Lock) Path() string {
	return l.path
}

// Owner returns the payload written into the marker.
func (l *Lock) Owner() Owner {
	return l.owner
}

// Acquire claims input by creating its marker exclusively and locking the
// created descriptor before the payload is written. It returns ErrLocked
// when the marker already exists.
func (m *Manager) Acquire(input string, owner Owner) (*Lock, error) {
	path := m.MarkerPath(input)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w: %s", ErrLocked, path)
		}
		return nil, fmt.Errorf("create lock marker: %w", err)
	}
	if err := holdCreated(file, path); err != nil {
		if !errors.Is(err, ErrLocked) {
			_ = os.Remove(path)
		}
		_ = file.Close()
		return nil, err
	}

	payload, err := json.Marshal(owner)
	if err == nil {
		_, err = file.Write(append(payload, '\n'))
	}
	if err != nil {
		_ = os.Remove(path)
		_ = file.Close()
		return nil, fmt.Errorf("write lock marker: %w", err)
	}
	return &Lock{path: path, owner: owner, file: file}, nil
}

// holdCreated takes the advisory lock on a freshly created marker and checks
// that path still names it. A stale-marker sweep can remove the file between
// create and lock; the claim is then lost.
func holdCreated(file *os.File, path string) error {
	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		if errors.Is(err, unix.EWOULDBLOCK) {
			return fmt.Errorf("%w: %s", ErrLocked, path)
		}
		return fmt.Errorf("hold lock marker: %w", err)
	}
	held, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat lock marker: %w", err)
	}
	current, err := os.Stat(path)
	if err != nil || !os.SameFile(held, current) {
		return fmt.Errorf("%w: %s removed while acquiring", ErrLocked, path)
	}
	return nil
}

// Release removes the marker and drops the OS lock. A missing marker is not
// an error.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	file := l.file
	l.file = nil
	err := os.Remove(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		err = nil
	}
	if closeErr := file.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("release lock marker: %w", err)
	}
	return nil
}

// Unlock removes the marker for input regardless of who created it.
// Missing markers are ignored.
func (m *Manager) Unlock(input string) error {
	if err := os.Remove(m.MarkerPath(input)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove lock marker: %w", err)
	}
	return nil
}

// Inspect reports the state of the marker for input and its owner payload
// when readable.
func (m *Manager) Inspect(input string) (State, Owner, error) {
	return inspectMarker(m.MarkerPath(input))
}

// InspectMarker is Inspect for a marker path found on disk.
func InspectMarker(path string) (State, Owner, error) {
	return inspectMarker(path)
}

func inspectMarker(path string) (State, Owner, error) {
	var owner Owner
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Unlocked, owner, nil
		}
		return Unlocked, owner, fmt.Errorf("read lock marker: %w", err)
	}
	// Markers written by older tools hold a bare timestamp.
	_ = json.Unmarshal(data, &owner)

	fl := flock.New(path, flock.SetFlag(os.O_RDONLY))
	ok, err := fl.TryRLock()
	if err != nil {
		return Unlocked, owner, fmt.Errorf("probe lock marker: %w", err)
	}
	if !ok {
		return Held, owner, nil
	}
	_ = fl.Unlock()
	return Stale, owner, nil
}

// ClearStale removes the marker for input if no live process holds it. It
// reports whether a marker was removed.
func (m *Manager) ClearStale(input string) (bool, error) {
	return ClearStaleMarker(m.MarkerPath(input))
}

// ClearStaleMarker is ClearStale for a marker path found on disk.
func ClearStaleMarker(path string) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat lock marker: %w", err)
	}
	fl := flock.New(path, flock.SetFlag(os.O_RDWR))
	ok, err := fl.TryLock()
	if err != nil {
		return false, fmt.Errorf("probe lock marker: %w", err)
	}
	if !ok {
		return false, nil
	}
	defer fl.Unlock()
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("remove stale lock marker: %w", err)
	}
	return true, nil
}
