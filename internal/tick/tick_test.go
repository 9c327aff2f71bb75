package tick

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManual_RunsInDueOrder(t *testing.T) {
	m := NewManual()
	var got []string
	m.After(20*time.Millisecond, func() { got = append(got, "b") })
	m.After(10*time.Millisecond, func() { got = append(got, "a") })
	m.After(20*time.Millisecond, func() { got = append(got, "c") })

	m.Advance(15 * time.Millisecond)
	assert.Equal(t, []string{"a"}, got)
	assert.Equal(t, 2, m.Pending())

	m.Advance(5 * time.Millisecond)
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Equal(t, 20*time.Millisecond, m.Now())
}

func TestManual_Cancel(t *testing.T) {
	m := NewManual()
	ran := false
	cancel := m.After(time.Second, func() { ran = true })
	cancel()
	m.Advance(2 * time.Second)
	assert.False(t, ran)
	assert.Equal(t, 0, m.Pending())
}

func TestManual_NestedScheduling(t *testing.T) {
	m := NewManual()
	var got []int
	m.After(0, func() {
		got = append(got, 1)
		m.After(0, func() { got = append(got, 2) })
		m.After(time.Second, func() { got = append(got, 3) })
	})
	m.Flush()
	assert.Equal(t, []int{1, 2}, got)
	m.Advance(time.Second)
	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestLoop_DeliversOnChannel(t *testing.T) {
	l := NewLoop(4)
	defer l.Close()

	ran := make(chan struct{})
	l.After(time.Millisecond, func() { close(ran) })

	select {
	case fn := <-l.C():
		fn()
	case <-time.After(2 * time.Second):
		t.Fatal("callback was not delivered")
	}
	select {
	case <-ran:
	default:
		t.Fatal("callback did not run")
	}
}

func TestLoop_CancelAfterDelivery(t *testing.T) {
	l := NewLoop(4)
	defer l.Close()

	ran := false
	cancel := l.After(0, func() { ran = true })
	fn := <-l.C()
	cancel()
	fn()
	assert.False(t, ran, "cancelled callback must not run even if already queued")
}

func TestLoop_RunStopsOnContext(t *testing.T) {
	l := NewLoop(1)
	defer l.Close()

	ctx, cancel := context.WithCancel(context.Background())
	count := 0
	l.After(0, func() {
		count++
		cancel()
	})
	err := l.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, count)
}

func TestLoop_PostAfterCloseDoesNotBlock(t *testing.T) {
	l := NewLoop(0)
	l.Close()
	done := make(chan struct{})
	go func() {
		l.Post(func() {})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Post blocked after Close")
	}
}
