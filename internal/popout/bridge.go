package popout

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"docklayout/internal/config"
	"docklayout/internal/jsonutil"
	"docklayout/internal/layout"
)

// BridgeURLEnv carries the parent bridge's URL to a child window.
const BridgeURLEnv = "DOCK_BRIDGE_URL"

// ChildEventKind tags events relayed between windows.
const ChildEventKind = "gl_child_event"

// maxBody bounds request bodies; a layout config is well below it.
const maxBody = 4 << 20

type readyMessage struct {
	URL string `json:"url,omitempty"`
}

type eventMessage struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
	Args []any  `json:"args"`
}

// ChildHandler receives what a parent sends to a pop-out window.
type ChildHandler interface {
	FromParent(name string, args []any)
	Close()
}

type bridgeWindow struct {
	sink     layout.PopoutSink
	childURL string
	ready    bool
	readyCh  chan struct{}
}

// Bridge is the HTTP endpoint a layout exposes to the windows it talks
// to. In the parent it routes window messages to the pop-out sinks; in a
// child it receives broadcasts and the close request.
type Bridge struct {
	logger *log.Logger

	mu      sync.Mutex
	windows map[string]*bridgeWindow
	child   ChildHandler
	url     string
	ln      net.Listener
}

// NewBridge returns a bridge with no listener. A nil logger discards.
func NewBridge(logger *log.Logger) *Bridge {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Bridge{logger: logger, windows: make(map[string]*bridgeWindow)}
}

// Handler returns the bridge's routes.
func (b *Bridge) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})
	r.Route("/windows/{key}", func(r chi.Router) {
		r.Post("/ready", b.handleReady)
		r.Post("/state", b.handleState)
		r.Post("/popin", b.handlePopIn)
		r.Post("/events", b.handleEvent)
		r.Post("/closed", b.handleClosed)
	})
	r.Post("/broadcast", b.handleBroadcast)
	r.Post("/close", b.handleClose)
	return r
}

// Listen binds addr, e.g. "127.0.0.1:0".
func (b *Bridge) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("bridge listen: %w", err)
	}
	b.mu.Lock()
	b.ln = ln
	b.url = "http://" + ln.Addr().String()
	b.mu.Unlock()
	return nil
}

// SetURL sets the URL windows use to reach this bridge when it is served
// by someone else.
func (b *Bridge) SetURL(url string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.url = url
}

// URL returns the bridge's base URL.
func (b *Bridge) URL() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.url
}

// Serve serves on the listener from Listen until ctx is cancelled.
func (b *Bridge) Serve(ctx context.Context) error {
	b.mu.Lock()
	ln := b.ln
	b.mu.Unlock()
	if ln == nil {
		return fmt.Errorf("bridge serve: not listening")
	}
	b.logger.Debug("bridge serving", "url", b.URL())

	eg, egctx := errgroup.WithContext(ctx)
	srv := &http.Server{
		Handler: b.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}
	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("bridge: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return eg.Wait()
}

// SetChild installs the handler for messages from the parent.
func (b *Bridge) SetChild(h ChildHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.child = h
}

// AttachChild routes parent messages into a pop-out window's manager on
// its scheduler goroutine. onClose runs after the parent has been told
// the window is closing.
func (b *Bridge) AttachChild(m *layout.Manager, onClose func()) {
	b.SetChild(managerChild{m: m, onClose: onClose})
}

type managerChild struct {
	m       *layout.Manager
	onClose func()
}

func (c managerChild) FromParent(name string, args []any) {
	c.m.Scheduler().Post(func() { c.m.EventHub().FromParent(name, args) })
}

func (c managerChild) Close() {
	c.m.Scheduler().Post(func() {
		if err := c.m.NotifyParentClosed(); err != nil {
			c.m.Logger().Warn("notify parent closed", "err", err)
		}
		if c.onClose != nil {
			c.onClose()
		}
	})
}

func (b *Bridge) register(key string, sink layout.PopoutSink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.windows[key] = &bridgeWindow{sink: sink, readyCh: make(chan struct{})}
}

func (b *Bridge) unregister(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.windows, key)
}

func (b *Bridge) window(key string) (bridgeWindow, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, ok := b.windows[key]
	if !ok {
		return bridgeWindow{}, false
	}
	return *w, true
}

// markReady records the child's URL and reports whether this is the
// first ready signal.
func (b *Bridge) markReady(key, childURL string) (layout.PopoutSink, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, ok := b.windows[key]
	if !ok {
		return nil, false
	}
	if childURL != "" {
		w.childURL = childURL
	}
	first := !w.ready
	if first {
		w.ready = true
		close(w.readyCh)
	}
	return w.sink, first
}

// readySignal is closed once key's window has signalled ready. It is nil
// for unknown windows.
func (b *Bridge) readySignal(key string) <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	if w, ok := b.windows[key]; ok {
		return w.readyCh
	}
	return nil
}

func (b *Bridge) sinkFor(w http.ResponseWriter, r *http.Request) (string, layout.PopoutSink, bool) {
	key := chi.URLParam(r, "key")
	win, ok := b.window(key)
	if !ok {
		http.Error(w, "unknown window", http.StatusNotFound)
		return key, nil, false
	}
	return key, win.sink, true
}

func (b *Bridge) handleReady(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	var msg readyMessage
	if err := decodeBody(r, &msg); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	sink, first := b.markReady(key, msg.URL)
	if sink == nil {
		http.Error(w, "unknown window", http.StatusNotFound)
		return
	}
	b.logger.Debug("window ready", "key", key, "url", msg.URL)
	if first {
		sink.Ready()
	}
	w.WriteHeader(http.StatusNoContent)
}

func (b *Bridge) handleState(w http.ResponseWriter, r *http.Request) {
	_, sink, ok := b.sinkFor(w, r)
	if !ok {
		return
	}
	cfg, err := readConfig(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	sink.State(cfg)
	w.WriteHeader(http.StatusNoContent)
}

func (b *Bridge) handlePopIn(w http.ResponseWriter, r *http.Request) {
	key, sink, ok := b.sinkFor(w, r)
	if !ok {
		return
	}
	cfg, err := readConfig(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	b.logger.Debug("window pop in", "key", key)
	sink.PopIn(cfg)
	w.WriteHeader(http.StatusNoContent)
}

func (b *Bridge) handleEvent(w http.ResponseWriter, r *http.Request) {
	_, sink, ok := b.sinkFor(w, r)
	if !ok {
		return
	}
	var msg eventMessage
	if err := decodeBody(r, &msg); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	sink.Broadcast(msg.Name, msg.Args)
	w.WriteHeader(http.StatusNoContent)
}

func (b *Bridge) handleClosed(w http.ResponseWriter, r *http.Request) {
	key, sink, ok := b.sinkFor(w, r)
	if !ok {
		return
	}
	b.logger.Debug("window closed", "key", key)
	sink.Closed()
	w.WriteHeader(http.StatusNoContent)
}

func (b *Bridge) childHandler(w http.ResponseWriter) (ChildHandler, bool) {
	b.mu.Lock()
	h := b.child
	b.mu.Unlock()
	if h == nil {
		http.Error(w, "not a popout window", http.StatusNotFound)
		return nil, false
	}
	return h, true
}

func (b *Bridge) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	h, ok := b.childHandler(w)
	if !ok {
		return
	}
	var msg eventMessage
	if err := decodeBody(r, &msg); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.FromParent(msg.Name, msg.Args)
	w.WriteHeader(http.StatusNoContent)
}

func (b *Bridge) handleClose(w http.ResponseWriter, _ *http.Request) {
	h, ok := b.childHandler(w)
	if !ok {
		return
	}
	h.Close()
	w.WriteHeader(http.StatusNoContent)
}

func decodeBody(r *http.Request, v any) error {
	return jsonutil.DecodeWithContext(http.MaxBytesReader(nil, r.Body, maxBody), v, "decode request")
}

func readConfig(r *http.Request) (config.ResolvedPopoutLayoutConfig, error) {
	data, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxBody))
	if err != nil {
		return config.ResolvedPopoutLayoutConfig{}, err
	}
	return config.UnminifyPopout(bytes.TrimSpace(data))
}
