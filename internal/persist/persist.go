// Package persist saves and restores the application state as a
// versioned JSON snapshot on disk.
package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/zmirror/zmirror/internal/logging"
	"github.com/zmirror/zmirror/internal/store"
)

const (
	// CurrentVersion is the snapshot schema version. Bump it whenever the
	// persisted shape changes incompatibly and add a migration branch in
	// loadLocked.
	CurrentVersion = 1

	defaultDebounce = 1 * time.Second
)

// snapshot is the on-disk envelope around the store state.
type snapshot struct {
	Version int         `json:"version"`
	SavedAt time.Time   `json:"saved_at,omitempty"`
	State   store.State `json:"state"`
}

// Manager owns the snapshot file. Writes are debounced and atomic; a
// sibling lock file guards against concurrent processes.
type Manager struct {
	path     string
	lockPath string

	mu       sync.Mutex
	state    store.State
	dirty    bool
	timer    *time.Timer
	debounce time.Duration
}

// New creates a Manager over the given snapshot path. An empty path
// disables persistence entirely; Load and SaveNow become no-ops.
func New(path string) *Manager {
	return &Manager{
		path:     path,
		lockPath: path + ".lock",
		state:    store.NewState(),
		debounce: defaultDebounce,
	}
}

// SetDebounce overrides the save-coalescing window.
func (m *Manager) SetDebounce(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d > 0 {
		m.debounce = d
	}
}

func (m *Manager) Path() string { return m.path }

// Load reads the snapshot from disk. A missing or empty file yields a
// fresh state; a snapshot written by a newer schema is discarded rather
// than guessed at.
func (m *Manager) Load() (store.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.path == "" {
		return m.state, nil
	}

	loaded, err := m.loadLocked()
	if err != nil {
		return store.NewState(), err
	}
	m.state = loaded
	m.dirty = false
	return m.state, nil
}

// Set replaces the in-memory state and schedules a debounced save.
// Subscribe it to a dispatcher to persist on every action.
func (m *Manager) Set(s store.State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
	m.markDirtyLocked()
}

// State returns the manager's current in-memory state.
func (m *Manager) State() store.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Close flushes any pending write.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	needsSave := m.dirty
	m.mu.Unlock()
	if !needsSave {
		return nil
	}
	return m.SaveNow()
}

// SaveNow writes the snapshot immediately.
func (m *Manager) SaveNow() error {
	m.mu.Lock()
	if m.path == "" {
		m.mu.Unlock()
		return nil
	}
	snap := snapshot{
		Version: CurrentVersion,
		SavedAt: time.Now().UTC(),
		State:   sessionScrubbed(m.state),
	}
	m.dirty = false
	m.mu.Unlock()

	if err := withFileLock(m.lockPath, func() error {
		return writeAtomicJSON(m.path, snap)
	}); err != nil {
		m.mu.Lock()
		m.dirty = true
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *Manager) markDirtyLocked() {
	m.dirty = true
	if m.path == "" {
		return
	}
	if m.timer == nil {
		m.timer = time.AfterFunc(m.debounce, func() {
			if err := m.SaveNow(); err != nil {
				lg := logging.Component("persist")
				lg.Error().Err(err).Msg("snapshot save failed")
			}
		})
		return
	}
	_ = m.timer.Reset(m.debounce)
}

func (m *Manager) loadLocked() (store.State, error) {
	out := store.NewState()
	if err := withFileLock(m.lockPath, func() error {
		payload, err := os.ReadFile(m.path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		if len(payload) == 0 {
			return nil
		}

		var snap snapshot
		if err := json.Unmarshal(payload, &snap); err != nil {
			return err
		}
		switch {
		case snap.Version == CurrentVersion:
			out = snap.State
		case snap.Version > CurrentVersion:
			lg := logging.Component("persist")
			lg.Warn().
				Int("version", snap.Version).
				Msg("snapshot written by a newer schema; starting fresh")
		default:
			// Pre-envelope snapshots held the bare state with no version
			// wrapper.
			var legacy store.State
			if err := json.Unmarshal(payload, &legacy); err != nil {
				return err
			}
			out = legacy
		}
		return nil
	}); err != nil {
		return store.NewState(), err
	}

	return sessionScrubbed(out), nil
}

// sessionScrubbed drops the per-session trackers. Fetch progress,
// caught-up edges and typing indicators describe a live event queue and
// are meaningless across restarts.
func sessionScrubbed(s store.State) store.State {
	s.Fetching = store.FetchingState{}
	s.CaughtUp = store.CaughtUpState{}
	s.Typing = store.TypingState{}
	return s
}

func withFileLock(lockPath string, fn func() error) error {
	if lockPath == "" {
		return fn()
	}
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		return fmt.Errorf("lock %s: %w", lockPath, err)
	}
	defer func() {
		_ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	}()
	return fn()
}

func writeAtomicJSON(path string, snap snapshot) error {
	payload, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
