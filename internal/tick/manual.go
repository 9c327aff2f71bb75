package tick

import "time"

// Manual is a deterministic Scheduler for tests. Nothing runs until
// Advance or Flush is called.
type Manual struct {
	now     time.Duration
	seq     int
	pending []*manualEntry
}

type manualEntry struct {
	due       time.Duration
	seq       int
	fn        func()
	cancelled bool
}

// NewManual returns a Manual scheduler at time zero.
func NewManual() *Manual {
	return &Manual{}
}

var _ Scheduler = (*Manual)(nil)

// After implements Scheduler.
func (m *Manual) After(d time.Duration, fn func()) Cancel {
	if d < 0 {
		d = 0
	}
	m.seq++
	e := &manualEntry{due: m.now + d, seq: m.seq, fn: fn}
	m.pending = append(m.pending, e)
	return func() { e.cancelled = true }
}

// Post implements Scheduler. The callback runs on the next Advance or
// Flush.
func (m *Manual) Post(fn func()) {
	m.After(0, fn)
}

// Now returns the elapsed virtual time.
func (m *Manual) Now() time.Duration {
	return m.now
}

// Pending returns the number of callbacks not yet run or cancelled.
func (m *Manual) Pending() int {
	n := 0
	for _, e := range m.pending {
		if !e.cancelled {
			n++
		}
	}
	return n
}

// Advance moves time forward by d, running every callback that falls due
// in order. Callbacks scheduled while advancing run too if they are due.
func (m *Manual) Advance(d time.Duration) {
	target := m.now + d
	for {
		e := m.next(target)
		if e == nil {
			break
		}
		m.now = e.due
		e.cancelled = true
		e.fn()
	}
	m.now = target
	m.compact()
}

// Flush runs everything due at the current time.
func (m *Manual) Flush() {
	m.Advance(0)
}

func (m *Manual) next(limit time.Duration) *manualEntry {
	var best *manualEntry
	for _, e := range m.pending {
		if e.cancelled || e.due > limit {
			continue
		}
		if best == nil || e.due < best.due || (e.due == best.due && e.seq < best.seq) {
			best = e
		}
	}
	return best
}

func (m *Manual) compact() {
	live := m.pending[:0]
	for _, e := range m.pending {
		if !e.cancelled {
			live = append(live, e)
		}
	}
	m.pending = live
}
