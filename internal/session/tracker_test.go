package session

import (
	"errors"
	"testing"
	"time"
)

// stubLiveness returns a LivenessChecker that reports the given process IDs as live.
func stubLiveness(live ...string) LivenessChecker {
	return func() (map[string]bool, error) {
		m := make(map[string]bool, len(live))
		for _, id := range live {
			m[id] = true
		}
		return m, nil
	}
}

// steppedClock returns a clock that advances one second per call.
func steppedClock() func() time.Time {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	n := 0
	return func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
}

func TestRegisterAndQuery(t *testing.T) {
	tr := New(nil)

	tr.Register("w1", "%1", WindowTmux, "logs")
	tr.Register("w2", "4242", WindowPTY, "editor")

	if tr.Count() != 2 {
		t.Errorf("Count() = %d, want 2", tr.Count())
	}

	w, ok := tr.Get("w1")
	if !ok {
		t.Fatal("Get(w1) not found")
	}
	if w.ProcessID != "%1" || w.Kind != WindowTmux || w.Title != "logs" {
		t.Errorf("Get(w1) = %+v, want tmux %%1 logs", w)
	}
	if w.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}

	if n := tr.CountByKind(WindowPTY); n != 1 {
		t.Errorf("CountByKind(pty) = %d, want 1", n)
	}
	if n := tr.CountByKind(WindowInProcess); n != 0 {
		t.Errorf("CountByKind(inprocess) = %d, want 0", n)
	}
}

func TestRegisterReplaces(t *testing.T) {
	tr := New(nil)
	tr.Register("w1", "%1", WindowTmux, "a")
	tr.Register("w1", "%7", WindowTmux, "b")

	if tr.Count() != 1 {
		t.Errorf("Count() = %d, want 1", tr.Count())
	}
	if w, _ := tr.Get("w1"); w.ProcessID != "%7" {
		t.Errorf("ProcessID = %q, want %%7", w.ProcessID)
	}
}

func TestUnregister(t *testing.T) {
	tr := New(nil)
	tr.Register("w1", "%1", WindowTmux, "")
	tr.Register("w2", "%2", WindowTmux, "")

	if !tr.Unregister("w1") {
		t.Error("Unregister(w1) returned false, want true")
	}
	if tr.Count() != 1 {
		t.Errorf("Count() = %d after unregister, want 1", tr.Count())
	}
	if tr.Unregister("w99") {
		t.Error("Unregister(w99) returned true for nonexistent window")
	}
	if _, ok := tr.Get("w1"); ok {
		t.Error("Get(w1) found an unregistered window")
	}
}

func TestAll_OldestFirst(t *testing.T) {
	tr := New(nil)
	tr.now = steppedClock()
	tr.Register("c", "%3", WindowTmux, "")
	tr.Register("a", "%1", WindowTmux, "")
	tr.Register("b", "%2", WindowTmux, "")

	all := tr.All()
	if len(all) != 3 {
		t.Fatalf("All() returned %d windows, want 3", len(all))
	}
	for i, want := range []string{"c", "a", "b"} {
		if all[i].Key != want {
			t.Errorf("All()[%d].Key = %q, want %q", i, all[i].Key, want)
		}
	}
}

func TestPrune(t *testing.T) {
	// Only %1 and %3 are alive; %2 is dead
	tr := New(stubLiveness("%1", "%3"))
	tr.Register("w1", "%1", WindowTmux, "")
	tr.Register("w2", "%2", WindowTmux, "")
	tr.Register("w3", "%3", WindowTmux, "")

	pruned, err := tr.Prune()
	if err != nil {
		t.Fatalf("Prune() error: %v", err)
	}
	if len(pruned) != 1 || pruned[0].Key != "w2" {
		t.Errorf("Prune() = %+v, want [w2]", pruned)
	}
	if tr.Count() != 2 {
		t.Errorf("Count() = %d after prune, want 2", tr.Count())
	}
}

func TestPruneAll(t *testing.T) {
	tr := New(stubLiveness())
	tr.Register("w2", "%2", WindowTmux, "")
	tr.Register("w1", "%1", WindowTmux, "")

	pruned, err := tr.Prune()
	if err != nil {
		t.Fatalf("Prune() error: %v", err)
	}
	if len(pruned) != 2 || pruned[0].Key != "w1" || pruned[1].Key != "w2" {
		t.Errorf("Prune() = %+v, want [w1 w2]", pruned)
	}
	if tr.Count() != 0 {
		t.Errorf("Count() = %d, want 0", tr.Count())
	}
}

func TestPruneNilLiveness(t *testing.T) {
	tr := New(nil)
	tr.Register("w1", "%1", WindowTmux, "")

	pruned, err := tr.Prune()
	if err != nil {
		t.Fatalf("Prune() with nil liveness: %v", err)
	}
	if len(pruned) != 0 {
		t.Errorf("Prune() with nil liveness = %+v, want none", pruned)
	}
	if tr.Count() != 1 {
		t.Errorf("Count() = %d, want 1 (nil liveness should be no-op)", tr.Count())
	}
}

func TestPruneLivenessError(t *testing.T) {
	boom := errors.New("tmux gone")
	tr := New(func() (map[string]bool, error) { return nil, boom })
	tr.Register("w1", "%1", WindowTmux, "")

	if _, err := tr.Prune(); !errors.Is(err, boom) {
		t.Errorf("Prune() error = %v, want %v", err, boom)
	}
	if tr.Count() != 1 {
		t.Errorf("Count() = %d, want 1 after failed prune", tr.Count())
	}
}
