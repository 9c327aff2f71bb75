package popout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel/attribute"

	"docklayout/internal/config"
	"docklayout/internal/layout"
	"docklayout/internal/session"
	"docklayout/internal/trace"
)

// WindowFlag is the flag that starts the binary as a pop-out window.
const WindowFlag = "gl-window"

const (
	// DefaultPruneInterval is how often windows without an exit channel
	// are checked for liveness.
	DefaultPruneInterval = time.Second
	// closeGrace is how long Close waits for a window to exit on its own.
	closeGrace = 500 * time.Millisecond
)

// LauncherOptions configure a Launcher.
type LauncherOptions struct {
	Storage Storage
	Bridge  *Bridge
	Spawner Spawner
	// Executable is the program started for each window. Defaults to the
	// running binary.
	Executable string
	// Args go between the executable and the window flag.
	Args          []string
	Logger        *log.Logger
	PollInterval  time.Duration
	PruneInterval time.Duration
}

// Launcher opens pop-out windows. It implements layout.PopoutLauncher.
type Launcher struct {
	storage  Storage
	bridge   *Bridge
	spawner  Spawner
	args     []string
	logger   *log.Logger
	poll     time.Duration
	prune    time.Duration
	tracker  *session.Tracker
	link     childLink
	mu       sync.Mutex
	handles  map[string]*windowHandle
	liveness bool
}

var _ layout.PopoutLauncher = (*Launcher)(nil)

// NewLauncher checks opts and returns a launcher.
func NewLauncher(opts LauncherOptions) (*Launcher, error) {
	if opts.Storage == nil || opts.Bridge == nil || opts.Spawner == nil {
		return nil, errors.New("popout launcher needs a storage, a bridge and a spawner")
	}
	exe := opts.Executable
	if exe == "" {
		var err error
		if exe, err = os.Executable(); err != nil {
			return nil, fmt.Errorf("find executable: %w", err)
		}
	}
	l := &Launcher{
		storage: opts.Storage,
		bridge:  opts.Bridge,
		spawner: opts.Spawner,
		args:    append([]string{exe}, opts.Args...),
		logger:  opts.Logger,
		poll:    opts.PollInterval,
		prune:   opts.PruneInterval,
		link:    childLink{http: &http.Client{Timeout: DefaultRequestTimeout}},
		handles: make(map[string]*windowHandle),
	}
	if l.logger == nil {
		l.logger = log.New(io.Discard)
	}
	if l.poll <= 0 {
		l.poll = DefaultPollInterval
	}
	if l.prune <= 0 {
		l.prune = DefaultPruneInterval
	}
	var liveness session.LivenessChecker
	if src, ok := opts.Spawner.(LivenessSource); ok {
		liveness = src.Live
		l.liveness = true
	}
	l.tracker = session.New(liveness)
	return l, nil
}

// Windows returns the open windows, oldest first.
func (l *Launcher) Windows() []session.TrackedWindow {
	return l.tracker.All()
}

// Open implements layout.PopoutLauncher.
func (l *Launcher) Open(ctx context.Context, cfg config.ResolvedPopoutLayoutConfig, sink layout.PopoutSink) (layout.PopoutHandle, error) {
	ctx, span := trace.Start(ctx, "popout.launch", attribute.String("spawner", string(l.spawner.Kind())))
	defer span.End()

	key, err := WriteConfig(ctx, l.storage, cfg)
	if err != nil {
		trace.Fail(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("key", key))
	l.bridge.register(key, sink)

	cmd := Command{
		Title: windowTitle(cfg),
		Args:  append(slices.Clone(l.args), "--"+WindowFlag+"="+key),
		Env:   []string{BridgeURLEnv + "=" + l.bridge.URL()},
	}
	if cfg.Window.Width != nil {
		cmd.Width = *cfg.Window.Width
	}
	if cfg.Window.Height != nil {
		cmd.Height = *cfg.Window.Height
	}
	proc, err := l.spawner.Spawn(ctx, cmd)
	if err != nil {
		l.bridge.unregister(key)
		_ = l.storage.Delete(ctx, key)
		trace.Fail(span, err)
		return nil, fmt.Errorf("open window: %w", err)
	}

	watchCtx, cancel := context.WithCancel(context.Background())
	h := &windowHandle{key: key, l: l, proc: proc, cancel: cancel}
	l.tracker.Register(key, proc.ID(), l.spawner.Kind(), cmd.Title)
	l.mu.Lock()
	l.handles[key] = h
	l.mu.Unlock()
	l.logger.Info("window opened", "key", key, "process", proc.ID(), "kind", l.spawner.Kind())

	go l.awaitReady(watchCtx, key, sink)
	if done := proc.Done(); done != nil {
		go l.awaitExit(watchCtx, h, sink, done)
	}
	return h, nil
}

// awaitReady waits for the storage ready marker unless the bridge gets
// the ready signal first.
func (l *Launcher) awaitReady(ctx context.Context, key string, sink layout.PopoutSink) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if sig := l.bridge.readySignal(key); sig != nil {
		go func() {
			select {
			case <-sig:
				cancel()
			case <-ctx.Done():
			}
		}()
	}
	if err := WaitReady(ctx, l.storage, key, l.poll); err != nil {
		if !errors.Is(err, context.Canceled) {
			l.logger.Warn("wait for window ready", "key", key, "err", err)
		}
		return
	}
	if _, first := l.bridge.markReady(key, ""); first {
		l.logger.Debug("window ready via storage", "key", key)
		sink.Ready()
	}
}

func (l *Launcher) awaitExit(ctx context.Context, h *windowHandle, sink layout.PopoutSink, done <-chan struct{}) {
	select {
	case <-ctx.Done():
		return
	case <-done:
	}
	if e, ok := h.proc.(interface{ Err() error }); ok {
		if err := e.Err(); err != nil {
			l.logger.Warn("window exited", "key", h.key, "err", err)
		}
	}
	l.logger.Debug("window process exited", "key", h.key)
	l.forget(h)
	sink.Closed()
}

// Run prunes windows whose process died until ctx is done. It returns
// at once when the spawner's processes report their own exit.
func (l *Launcher) Run(ctx context.Context) error {
	if !l.liveness {
		return nil
	}
	ticker := time.NewTicker(l.prune)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			l.PruneDead()
		}
	}
}

// PruneDead closes the windows whose process is gone.
func (l *Launcher) PruneDead() {
	pruned, err := l.tracker.Prune()
	if err != nil {
		l.logger.Warn("prune windows", "err", err)
		return
	}
	for _, w := range pruned {
		l.mu.Lock()
		h := l.handles[w.Key]
		l.mu.Unlock()
		if h == nil {
			continue
		}
		win, ok := l.bridge.window(w.Key)
		l.logger.Debug("window gone", "key", w.Key, "process", w.ProcessID)
		l.forget(h)
		if ok {
			win.sink.Closed()
		}
	}
}

// forget drops every trace of h's window.
func (l *Launcher) forget(h *windowHandle) {
	h.cancel()
	l.mu.Lock()
	delete(l.handles, h.key)
	l.mu.Unlock()
	l.tracker.Unregister(h.key)
	l.bridge.unregister(h.key)
	ctx := context.Background()
	_ = l.storage.Delete(ctx, h.key)
	_ = l.storage.Delete(ctx, readyKey(h.key))
}

// CloseAll closes every open window.
func (l *Launcher) CloseAll() {
	l.mu.Lock()
	hs := make([]*windowHandle, 0, len(l.handles))
	for _, h := range l.handles {
		hs = append(hs, h)
	}
	l.mu.Unlock()
	for _, h := range hs {
		if err := h.Close(); err != nil {
			l.logger.Warn("close window", "key", h.key, "err", err)
		}
	}
}

func windowTitle(cfg config.ResolvedPopoutLayoutConfig) string {
	if cfg.Root == nil {
		return "dock"
	}
	var comps []config.ResolvedItemConfig
	var collect func(c config.ResolvedItemConfig)
	collect = func(c config.ResolvedItemConfig) {
		if c.Type == config.TypeComponent {
			comps = append(comps, c)
			return
		}
		for _, cc := range c.Content {
			collect(cc)
		}
	}
	collect(*cfg.Root)
	if len(comps) == 0 || comps[0].Title == "" {
		return "dock"
	}
	if len(comps) > 1 {
		return fmt.Sprintf("%s +%d", comps[0].Title, len(comps)-1)
	}
	return comps[0].Title
}

// windowHandle is the parent's control over one window.
type windowHandle struct {
	key    string
	l      *Launcher
	proc   Process
	cancel context.CancelFunc
	once   sync.Once
}

var _ layout.PopoutHandle = (*windowHandle)(nil)

func (h *windowHandle) Key() string { return h.key }

// Broadcast implements layout.PopoutHandle. Messages to a window that has
// not signalled ready with its URL are dropped.
func (h *windowHandle) Broadcast(name string, args []any) error {
	win, ok := h.l.bridge.window(h.key)
	if !ok || win.childURL == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), DefaultRequestTimeout)
	defer cancel()
	return h.l.link.broadcast(ctx, win.childURL, name, args)
}

// Close implements layout.PopoutHandle. The window is asked to close
// itself and is stopped if it does not.
func (h *windowHandle) Close() error {
	var err error
	h.once.Do(func() {
		win, ok := h.l.bridge.window(h.key)
		h.l.forget(h)

		graceful := false
		if ok && win.childURL != "" {
			ctx, cancel := context.WithTimeout(context.Background(), DefaultRequestTimeout)
			graceful = h.l.link.close(ctx, win.childURL) == nil
			cancel()
		}
		done := h.proc.Done()
		if graceful && done == nil {
			return
		}
		if graceful {
			select {
			case <-done:
			case <-time.After(closeGrace):
			}
		}
		err = h.proc.Stop()
	})
	return err
}
