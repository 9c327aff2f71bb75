// Package session tracks the pop-out windows a layout has open. The
// Tracker maps window keys to the process hosting each window (a tmux
// pane, a PTY child or an in-process goroutine) and prunes windows whose
// process has gone away.
package session

import (
	"cmp"
	"slices"
	"sync"
	"time"
)

// WindowKind says what hosts a pop-out window.
type WindowKind string

const (
	WindowTmux      WindowKind = "tmux"
	WindowPTY       WindowKind = "pty"
	WindowInProcess WindowKind = "inprocess"
)

// TrackedWindow holds metadata about one open pop-out window.
type TrackedWindow struct {
	Key       string     // window key, see WindowKey
	ProcessID string     // tmux pane ID (e.g. "%42"), pid, or in-process id
	Kind      WindowKind // what hosts the window
	Title     string
	CreatedAt time.Time
}

// LivenessChecker returns the set of process IDs still alive.
// In production this calls tmux.ListPaneIDs(); tests can inject a stub.
type LivenessChecker func() (map[string]bool, error)

// Tracker manages the mapping from window keys to their processes.
// Safe for concurrent use.
type Tracker struct {
	mu       sync.RWMutex
	windows  map[string]TrackedWindow
	liveness LivenessChecker
	now      func() time.Time
}

// New creates a Tracker with the given liveness checker.
// If liveness is nil, Prune becomes a no-op.
func New(liveness LivenessChecker) *Tracker {
	return &Tracker{
		windows:  make(map[string]TrackedWindow),
		liveness: liveness,
		now:      time.Now,
	}
}

// Register records a window. Registering a key again replaces it.
func (t *Tracker) Register(key, processID string, kind WindowKind, title string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.windows[key] = TrackedWindow{
		Key:       key,
		ProcessID: processID,
		Kind:      kind,
		Title:     title,
		CreatedAt: t.now(),
	}
}

// Unregister removes a window by key.
// Returns true if the window was found and removed.
func (t *Tracker) Unregister(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.windows[key]; !ok {
		return false
	}
	delete(t.windows, key)
	return true
}

// Get returns the window registered under key.
func (t *Tracker) Get(key string) (TrackedWindow, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	w, ok := t.windows[key]
	return w, ok
}

// All returns every tracked window, oldest first.
func (t *Tracker) All() []TrackedWindow {
	t.mu.RLock()
	out := make([]TrackedWindow, 0, len(t.windows))
	for _, w := range t.windows {
		out = append(out, w)
	}
	t.mu.RUnlock()
	slices.SortFunc(out, func(a, b TrackedWindow) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	return out
}

// Count returns the number of tracked windows.
func (t *Tracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.windows)
}

// CountByKind returns the number of tracked windows of kind.
func (t *Tracker) CountByKind(kind WindowKind) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, w := range t.windows {
		if w.Kind == kind {
			n++
		}
	}
	return n
}

// Prune removes windows whose process is no longer alive and returns
// them.
func (t *Tracker) Prune() ([]TrackedWindow, error) {
	if t.liveness == nil {
		return nil, nil
	}
	live, err := t.liveness()
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var pruned []TrackedWindow
	for key, w := range t.windows {
		if !live[w.ProcessID] {
			pruned = append(pruned, w)
			delete(t.windows, key)
		}
	}
	slices.SortFunc(pruned, func(a, b TrackedWindow) int { return cmp.Compare(a.Key, b.Key) })
	return pruned, nil
}
