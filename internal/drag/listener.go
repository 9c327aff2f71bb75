// Package drag recognises drag gestures from raw pointer events.
//
// A press only becomes a drag once the pointer has moved more than the
// distance threshold on either axis, or has been held for the delay.
// Everything before that is a click and produces no events.
package drag

import (
	"time"

	"docklayout/internal/tick"
)

const (
	DefaultDelay    = 1800 * time.Millisecond
	DefaultDistance = 10
)

// Point is a pointer position in surface coordinates.
type Point struct {
	X, Y int
}

// Handlers receive the gesture events. Any of them may be nil.
type Handlers struct {
	// OnStart fires once with the position the press started at.
	OnStart func(x, y int)
	// OnDrag fires for every move while dragging. dx and dy are offsets
	// from the start position.
	OnDrag func(dx, dy int, p Point)
	// OnStop fires exactly once per drag. cancelled is set when the drag
	// ended through Cancel rather than a pointer release.
	OnStop func(p Point, cancelled bool)
}

// Listener is the gesture state machine for one drag source.
type Listener struct {
	sched    tick.Scheduler
	delay    time.Duration
	distance int
	handlers Handlers

	pressed  bool
	dragging bool
	origin   Point
	last     Point
	cancel   tick.Cancel
}

// Option configures a Listener.
type Option func(*Listener)

// WithDelay overrides the hold delay.
func WithDelay(d time.Duration) Option {
	return func(l *Listener) { l.delay = d }
}

// WithDistance overrides the movement threshold.
func WithDistance(n int) Option {
	return func(l *Listener) { l.distance = n }
}

// NewListener creates an idle listener.
func NewListener(sched tick.Scheduler, h Handlers, opts ...Option) *Listener {
	l := &Listener{
		sched:    sched,
		delay:    DefaultDelay,
		distance: DefaultDistance,
		handlers: h,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Dragging reports whether a drag is in progress.
func (l *Listener) Dragging() bool {
	return l.dragging
}

// Down records a press and arms the hold timer.
func (l *Listener) Down(p Point) {
	if l.pressed {
		return
	}
	l.pressed = true
	l.origin = p
	l.last = p
	l.cancel = l.sched.After(l.delay, l.startDrag)
}

// Move tracks the pointer; it starts the drag once past the threshold.
func (l *Listener) Move(p Point) {
	if !l.pressed {
		return
	}
	l.last = p
	dx, dy := p.X-l.origin.X, p.Y-l.origin.Y
	if !l.dragging && (abs(dx) > l.distance || abs(dy) > l.distance) {
		l.clearTimer()
		l.startDrag()
	}
	if l.dragging && l.handlers.OnDrag != nil {
		l.handlers.OnDrag(dx, dy, p)
	}
}

// Up ends the press, and the drag if one is active.
func (l *Listener) Up(p Point) {
	if !l.pressed {
		return
	}
	l.last = p
	l.stop(p, false)
}

// Cancel ends a press or drag without a drop position.
func (l *Listener) Cancel() {
	if !l.pressed {
		return
	}
	l.stop(l.last, true)
}

// Destroy cancels any pending timer.
func (l *Listener) Destroy() {
	l.clearTimer()
	l.pressed = false
	l.dragging = false
}

func (l *Listener) startDrag() {
	l.cancel = nil
	if !l.pressed || l.dragging {
		return
	}
	l.dragging = true
	if l.handlers.OnStart != nil {
		l.handlers.OnStart(l.origin.X, l.origin.Y)
	}
}

func (l *Listener) stop(p Point, cancelled bool) {
	l.clearTimer()
	l.pressed = false
	if !l.dragging {
		return
	}
	l.dragging = false
	if l.handlers.OnStop != nil {
		l.handlers.OnStop(p, cancelled)
	}
}

func (l *Listener) clearTimer() {
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
