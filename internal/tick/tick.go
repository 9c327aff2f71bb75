// Package tick schedules delayed callbacks for single-goroutine owners.
//
// The layout tree is only ever mutated by the goroutine that owns it, so
// timers never call back directly: a Loop hands due callbacks to its
// owner over a channel, and Manual runs them when a test advances time.
package tick

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Cancel stops a scheduled callback. Calling it after the callback ran,
// or more than once, is a no-op.
type Cancel func()

// Scheduler runs fn on the owner goroutine once d has elapsed. A zero
// delay defers fn to the next turn of the owner's loop.
//
// Post queues fn for the owner in call order. Implementations used with
// pop-out windows must allow Post from any goroutine.
type Scheduler interface {
	After(d time.Duration, fn func()) Cancel
	Post(fn func())
}

// Loop delivers due callbacks over C. The owner must drain C (or call
// Run) and invoke each callback it receives.
type Loop struct {
	ch   chan func()
	done chan struct{}
	once sync.Once
}

// NewLoop creates a Loop with the given channel buffer.
func NewLoop(buffer int) *Loop {
	return &Loop{
		ch:   make(chan func(), buffer),
		done: make(chan struct{}),
	}
}

var _ Scheduler = (*Loop)(nil)

// After implements Scheduler.
func (l *Loop) After(d time.Duration, fn func()) Cancel {
	var stopped atomic.Bool
	guarded := func() {
		if !stopped.Load() {
			fn()
		}
	}
	if d <= 0 {
		go l.Post(guarded)
		return func() { stopped.Store(true) }
	}
	t := time.AfterFunc(d, func() { l.Post(guarded) })
	return func() {
		stopped.Store(true)
		t.Stop()
	}
}

// Post queues fn for the owner goroutine. Safe for concurrent use; after
// Close the callback is dropped.
func (l *Loop) Post(fn func()) {
	select {
	case <-l.done:
	case l.ch <- fn:
	}
}

// C returns the channel of due callbacks.
func (l *Loop) C() <-chan func() {
	return l.ch
}

// Run executes callbacks until ctx is cancelled or the loop is closed.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case fn := <-l.ch:
			fn()
		}
	}
}

// Close stops delivery. Pending callbacks are dropped.
func (l *Loop) Close() {
	l.once.Do(func() { close(l.done) })
}
