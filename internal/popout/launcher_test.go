package popout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docklayout/internal/config"
	"docklayout/internal/layout"
	"docklayout/internal/session"
	"docklayout/internal/tick"
)

const waitFor = 5 * time.Second

// startLoop drains a loop on its own goroutine, standing in for a
// window's UI loop.
func startLoop(t *testing.T) *tick.Loop {
	t.Helper()
	loop := tick.NewLoop(64)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = loop.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		loop.Close()
	})
	return loop
}

// do runs fn on loop's goroutine and waits for it.
func do(loop *tick.Loop, fn func()) {
	done := make(chan struct{})
	loop.Post(func() {
		defer close(done)
		fn()
	})
	<-done
}

func textRegistry(t *testing.T) *layout.Registry {
	t.Helper()
	reg := layout.NewRegistry()
	require.NoError(t, reg.Register("text", func(*layout.Container, any) (any, error) {
		return struct{}{}, nil
	}))
	return reg
}

type childWindow struct {
	m    *layout.Manager
	loop *tick.Loop
}

// inProcessChild runs pop-out windows as goroutines that behave like a
// `dock --gl-window` process.
func inProcessChild(t *testing.T, s Storage, reg *layout.Registry, started chan<- childWindow) *InProcess {
	t.Helper()
	return &InProcess{Run: func(ctx context.Context, cmd Command) error {
		child, err := OpenChild(ctx, ChildOptions{
			Key:       WindowKeyFromArgs(cmd.Args),
			Storage:   s,
			ParentURL: EnvValue(cmd.Env, BridgeURLEnv),
		})
		if err != nil {
			return err
		}
		loop := tick.NewLoop(64)
		defer loop.Close()
		m := layout.NewManager(layout.Options{Binder: reg, Scheduler: loop, Parent: child.Client})

		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			select {
			case <-child.Closing():
				cancel()
			case <-runCtx.Done():
			}
		}()
		loop.Post(func() {
			if err := child.Start(runCtx, m); err != nil {
				t.Errorf("start child: %v", err)
			}
			started <- childWindow{m: m, loop: loop}
		})
		if err := loop.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}}
}

type parentWindow struct {
	m        *layout.Manager
	loop     *tick.Loop
	launcher *Launcher
	storage  *MemoryStorage
	children chan childWindow
	opened   chan *layout.Popout
	closed   chan *layout.Popout
}

func newParentWindow(t *testing.T) *parentWindow {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	bridge := NewBridge(nil)
	require.NoError(t, bridge.Listen("127.0.0.1:0"))
	go func() { _ = bridge.Serve(ctx) }()

	reg := textRegistry(t)
	p := &parentWindow{
		loop:     startLoop(t),
		storage:  NewMemoryStorage(),
		children: make(chan childWindow, 4),
		opened:   make(chan *layout.Popout, 4),
		closed:   make(chan *layout.Popout, 4),
	}
	launcher, err := NewLauncher(LauncherOptions{
		Storage:    p.storage,
		Bridge:     bridge,
		Spawner:    inProcessChild(t, p.storage, reg, p.children),
		Executable: "dock",
	})
	require.NoError(t, err)
	p.launcher = launcher

	root := config.ItemConfig{Type: config.TypeStack, Content: []config.ItemConfig{
		textItem("a"), textItem("b"), textItem("c"),
	}}
	resolved, err := config.Resolve(config.LayoutConfig{Root: &root})
	require.NoError(t, err)

	do(p.loop, func() {
		p.m = layout.NewManager(layout.Options{Binder: reg, Scheduler: p.loop, Launcher: launcher})
		p.m.SetSize(200, 100)
		require.NoError(t, p.m.LoadLayout(resolved))
		p.m.On(layout.EventWindowOpened, func(ev *layout.Event) { p.opened <- ev.Args[0].(*layout.Popout) })
		p.m.On(layout.EventWindowClosed, func(ev *layout.Event) { p.closed <- ev.Args[0].(*layout.Popout) })
	})
	t.Cleanup(launcher.CloseAll)
	return p
}

func textItem(title string) config.ItemConfig {
	return config.ItemConfig{Type: config.TypeComponent, ComponentType: "text", Title: &title}
}

func (p *parentWindow) titles() []string {
	var out []string
	do(p.loop, func() {
		for _, it := range p.m.Root().ContentItems() {
			out = append(out, it.Title())
		}
	})
	return out
}

// popOut pops the component titled title out and waits until its window
// is ready.
func (p *parentWindow) popOut(t *testing.T, title string) (*layout.Popout, childWindow) {
	t.Helper()
	var popout *layout.Popout
	do(p.loop, func() {
		for _, it := range p.m.AllComponents() {
			if it.Title() == title {
				var err error
				popout, err = p.m.CreatePopout(it)
				require.NoError(t, err)
			}
		}
	})
	require.NotNil(t, popout)

	var child childWindow
	select {
	case child = <-p.children:
	case <-time.After(waitFor):
		t.Fatal("child window did not start")
	}
	select {
	case got := <-p.opened:
		assert.Same(t, popout, got)
	case <-time.After(waitFor):
		t.Fatal("window never reported ready")
	}
	return popout, child
}

func TestLauncher_PopOutAndBackIn(t *testing.T) {
	p := newParentWindow(t)
	popout, child := p.popOut(t, "b")

	assert.Equal(t, []string{"a", "c"}, p.titles())
	require.Len(t, p.launcher.Windows(), 1)
	assert.Equal(t, session.WindowInProcess, p.launcher.Windows()[0].Kind)
	assert.Equal(t, "b", p.launcher.Windows()[0].Title)

	var childTitles []string
	do(child.loop, func() {
		assert.True(t, child.m.IsSubWindow())
		for _, it := range child.m.AllComponents() {
			childTitles = append(childTitles, it.Title())
		}
	})
	assert.Equal(t, []string{"b"}, childTitles)

	do(child.loop, func() { require.NoError(t, child.m.PopIn()) })
	select {
	case got := <-p.closed:
		assert.Same(t, popout, got)
	case <-time.After(waitFor):
		t.Fatal("window never closed")
	}
	assert.Equal(t, []string{"a", "b", "c"}, p.titles())
	assert.Empty(t, p.launcher.Windows())
	assert.Eventually(t, func() bool { return p.storage.Len() == 0 }, waitFor, 5*time.Millisecond)
}

func TestLauncher_BroadcastReachesWindow(t *testing.T) {
	p := newParentWindow(t)
	_, child := p.popOut(t, "a")

	got := make(chan []any, 1)
	do(child.loop, func() {
		child.m.EventHub().On(layout.EventUserBroadcast, func(ev *layout.Event) { got <- ev.Args })
	})
	do(p.loop, func() { p.m.EventHub().EmitUserBroadcast("hello", "world") })

	select {
	case args := <-got:
		assert.Equal(t, []any{"hello", "world"}, args)
	case <-time.After(waitFor):
		t.Fatal("broadcast never reached the window")
	}
}

func TestLauncher_CloseFromParent(t *testing.T) {
	p := newParentWindow(t)
	popout, _ := p.popOut(t, "c")

	do(p.loop, func() { require.NoError(t, popout.Close()) })
	assert.Empty(t, p.launcher.Windows())
	assert.Equal(t, []string{"a", "b"}, p.titles())
}

type blockingProcess struct {
	id   string
	stop sync.Once
	done chan struct{}
}

func (b *blockingProcess) ID() string            { return b.id }
func (b *blockingProcess) Done() <-chan struct{} { return nil }
func (b *blockingProcess) Stop() error {
	b.stop.Do(func() { close(b.done) })
	return nil
}

// polledSpawner reports liveness instead of exits, like tmux panes.
type polledSpawner struct {
	mu    sync.Mutex
	procs []*blockingProcess
	dead  map[string]bool
}

func (s *polledSpawner) Kind() session.WindowKind { return session.WindowTmux }

func (s *polledSpawner) Spawn(context.Context, Command) (Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &blockingProcess{id: "%" + string(rune('1'+len(s.procs))), done: make(chan struct{})}
	s.procs = append(s.procs, p)
	return p, nil
}

func (s *polledSpawner) kill(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dead == nil {
		s.dead = make(map[string]bool)
	}
	s.dead[id] = true
}

func (s *polledSpawner) Live() (map[string]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	live := make(map[string]bool)
	for _, p := range s.procs {
		if !s.dead[p.id] {
			live[p.id] = true
		}
	}
	return live, nil
}

func newTestLauncher(t *testing.T, sp Spawner) (*Launcher, *MemoryStorage) {
	t.Helper()
	s := NewMemoryStorage()
	l, err := NewLauncher(LauncherOptions{
		Storage:      s,
		Bridge:       NewBridge(nil),
		Spawner:      sp,
		Executable:   "dock",
		PollInterval: time.Millisecond,
	})
	require.NoError(t, err)
	return l, s
}

func TestLauncher_PruneDead(t *testing.T) {
	sp := &polledSpawner{}
	l, _ := newTestLauncher(t, sp)
	sink := &recordingSink{}

	h, err := l.Open(context.Background(), popoutConfig(t, "a"), sink)
	require.NoError(t, err)
	require.Len(t, l.Windows(), 1)
	assert.Equal(t, "%1", l.Windows()[0].ProcessID)

	l.PruneDead()
	assert.Len(t, l.Windows(), 1)

	sp.kill("%1")
	l.PruneDead()
	assert.Empty(t, l.Windows())
	assert.Equal(t, []string{"closed"}, sink.Calls())
	assert.NoError(t, h.Close())
}

func TestLauncher_ReadyThroughStorage(t *testing.T) {
	sp := &polledSpawner{}
	l, s := newTestLauncher(t, sp)
	sink := &recordingSink{}

	h, err := l.Open(context.Background(), popoutConfig(t, "a"), sink)
	require.NoError(t, err)
	defer h.Close()

	require.NoError(t, MarkReady(context.Background(), s, h.Key()))
	assert.Eventually(t, func() bool {
		calls := sink.Calls()
		return len(calls) == 1 && calls[0] == "ready"
	}, waitFor, time.Millisecond)
}

func TestLauncher_ExitClosesWindow(t *testing.T) {
	l, s := newTestLauncher(t, &InProcess{Run: func(context.Context, Command) error {
		return errors.New("crashed")
	}})
	sink := &recordingSink{}

	_, err := l.Open(context.Background(), popoutConfig(t, "a"), sink)
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		calls := sink.Calls()
		return len(calls) == 1 && calls[0] == "closed"
	}, waitFor, time.Millisecond)
	assert.Empty(t, l.Windows())
	assert.Equal(t, 0, s.Len())
}

func TestLauncher_Blocked(t *testing.T) {
	l, s := newTestLauncher(t, &InProcess{})
	_, err := l.Open(context.Background(), popoutConfig(t, "a"), &recordingSink{})
	assert.ErrorIs(t, err, layout.ErrPopoutBlocked)
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, l.Windows())
}

func TestLauncher_BroadcastBeforeReadyIsDropped(t *testing.T) {
	l, _ := newTestLauncher(t, &polledSpawner{})
	h, err := l.Open(context.Background(), popoutConfig(t, "a"), &recordingSink{})
	require.NoError(t, err)
	defer h.Close()
	assert.NoError(t, h.Broadcast("userBroadcast", []any{"x"}))
}

func TestWindowTitle(t *testing.T) {
	assert.Equal(t, "a", windowTitle(popoutConfig(t, "a")))
	assert.Equal(t, "a +2", windowTitle(popoutConfig(t, "a", "b", "c")))
	assert.Equal(t, "dock", windowTitle(config.ResolvedPopoutLayoutConfig{}))
}

func TestNewLauncher_NeedsParts(t *testing.T) {
	_, err := NewLauncher(LauncherOptions{Storage: NewMemoryStorage()})
	assert.Error(t, err)
}
