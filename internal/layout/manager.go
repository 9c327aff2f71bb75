// Package layout is the docking layout engine: a tree of rows, columns,
// stacks and components laid out into a rectangular surface, with
// drag-and-drop docking, maximising, responsive collapsing and pop-out
// windows.
//
// A Manager and its tree belong to one goroutine. Timers and messages
// from pop-out windows reach it through the tick.Scheduler it was given.
package layout

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel/attribute"

	"docklayout/internal/config"
	"docklayout/internal/tick"
	"docklayout/internal/trace"
)

// ResizeDebounce is how long NotifyResize waits for the surface to settle.
const ResizeDebounce = 100 * time.Millisecond

// DefaultSideAreaSize is the depth of the drop strips along the layout edges.
const DefaultSideAreaSize = 50

// Options configure a Manager.
type Options struct {
	// Binder creates application components. Defaults to an empty Registry.
	Binder Binder
	// Scheduler runs deferred work. Defaults to a Loop the caller must
	// drain through Manager.Scheduler.
	Scheduler tick.Scheduler
	// Surface reports the host size for UpdateSizeFromContainer.
	Surface Surface
	Logger  *log.Logger
	// Launcher opens pop-out windows. Pop-outs fail without one.
	Launcher PopoutLauncher
	// Parent links a pop-out window back to the layout that opened it.
	Parent ParentLink
	// SideAreaSize overrides DefaultSideAreaSize.
	SideAreaSize int
	// Context is the parent of the spans the manager records.
	Context context.Context
}

// Manager owns a layout tree.
type Manager struct {
	Emitter

	ctx      context.Context
	logger   *log.Logger
	sched    tick.Scheduler
	binder   Binder
	surface  Surface
	launcher PopoutLauncher
	parent   ParentLink
	sideArea int

	items  []*Item
	free   []Ref
	ground *Item

	settings   config.Settings
	dimensions config.Dimensions
	header     config.ResolvedHeaderConfig

	width, height      int
	sizeKnown          bool
	subWindow          bool
	firstLoad          bool
	updatingResponsive bool
	destroyed          bool
	// layoutHold defers size passes while a subtree is being attached.
	layoutHold int

	maximised *Item
	focused   *Item
	areas     []Area
	dragging  *DragProxy
	sources   []*DragSource

	openPopouts []*Popout
	popoutMeta  config.ResolvedPopoutLayoutConfig
	hub         *EventHub

	resizeCancel tick.Cancel
	stateCancel  tick.Cancel
	syncCancel   tick.Cancel
	sizeBatch    int
}

// NewManager creates a manager with an empty ground and default config.
func NewManager(opts Options) *Manager {
	m := &Manager{
		ctx:      opts.Context,
		logger:   opts.Logger,
		sched:    opts.Scheduler,
		binder:   opts.Binder,
		surface:  opts.Surface,
		launcher: opts.Launcher,
		parent:   opts.Parent,
		sideArea: opts.SideAreaSize,
	}
	if m.ctx == nil {
		m.ctx = context.Background()
	}
	if m.logger == nil {
		m.logger = log.New(io.Discard)
	}
	if m.sched == nil {
		m.sched = tick.NewLoop(64)
	}
	if m.binder == nil {
		m.binder = NewRegistry()
	}
	if m.sideArea <= 0 {
		m.sideArea = DefaultSideAreaSize
	}
	m.subWindow = m.parent != nil
	def := config.DefaultLayout()
	m.settings, m.dimensions, m.header = def.Settings, def.Dimensions, def.Header
	m.hub = &EventHub{m: m}

	ground, err := m.createFromConfig(config.DefaultGround())
	if err != nil {
		panic(err)
	}
	m.ground = ground
	m.ground.initialised = true
	m.ground.visible = true
	return m
}

func (m *Manager) Scheduler() tick.Scheduler { return m.sched }
func (m *Manager) Binder() Binder { return m.binder }
func (m *Manager) Logger() *log.Logger { return m.logger }
func (m *Manager) EventHub() *EventHub { return m.hub }
func (m *Manager) Ground() *Item { return m.ground }
func (m *Manager) Settings() config.Settings { return m.settings }
func (m *Manager) Dimensions() config.Dimensions { return m.dimensions }
func (m *Manager) HeaderConfig() config.ResolvedHeaderConfig { return m.header }
func (m *Manager) IsSubWindow() bool { return m.subWindow }
func (m *Manager) MaximisedStack() *Item { return m.maximised }
func (m *Manager) FocusedComponentItem() *Item { return m.focused }
func (m *Manager) Size() (int, int) { return m.width, m.height }

// Root returns the ground's only child, or nil for an empty layout.
func (m *Manager) Root() *Item {
	if m.ground == nil || len(m.ground.children) == 0 {
		return nil
	}
	return m.ground.child(0)
}

// LoadLayout replaces the tree with cfg and adopts its settings.
func (m *Manager) LoadLayout(cfg config.ResolvedLayoutConfig) error {
	_, span := trace.Start(m.ctx, "layout.load", attribute.Int("popouts", len(cfg.OpenPopouts)))
	defer span.End()

	if m.dragging != nil {
		m.dragging.Cancel()
	}
	m.setMaximisedStack(nil)
	m.settings, m.dimensions, m.header = cfg.Settings, cfg.Dimensions, cfg.Header
	m.clearRoot()
	m.firstLoad = true

	if cfg.Root != nil {
		root, err := m.createContentItem(*cfg.Root, m.ground)
		if err != nil {
			trace.Fail(span, err)
			return err
		}
		m.addChild(m.ground, root, 0, false)
	}
	m.checkLoadedLayoutMaximiseItem()
	m.adjustColumnsResponsive()
	m.updateLayout()

	if !m.subWindow {
		for _, pc := range cfg.OpenPopouts {
			if _, err := m.createPopoutFromPopoutLayoutConfig(pc); err != nil {
				m.logger.Warn("reopen popout failed", "err", err)
			}
		}
	}
	m.logger.Debug("layout loaded", "items", len(m.liveItems()))
	m.emitManager(EventInitialised)
	return nil
}

// LoadPopout loads the layout of a pop-out window and remembers where
// it docks back to.
func (m *Manager) LoadPopout(cfg config.ResolvedPopoutLayoutConfig) error {
	m.popoutMeta = cfg
	m.popoutMeta.Root = nil
	return m.LoadLayout(cfg.ResolvedLayoutConfig)
}

// SaveLayout snapshots the tree and open pop-outs.
func (m *Manager) SaveLayout() config.ResolvedLayoutConfig {
	out := config.ResolvedLayoutConfig{
		OpenPopouts: make([]config.ResolvedPopoutLayoutConfig, 0, len(m.openPopouts)),
		Settings:    m.settings,
		Dimensions:  m.dimensions,
		Header:      m.header,
	}
	if root := m.Root(); root != nil {
		rc := m.itemConfig(root)
		out.Root = &rc
	}
	for _, p := range m.openPopouts {
		out.OpenPopouts = append(out.OpenPopouts, p.ToConfig())
	}
	return out
}

// SavePopout snapshots a pop-out window's layout together with its
// docking information.
func (m *Manager) SavePopout() config.ResolvedPopoutLayoutConfig {
	out := m.popoutMeta
	out.ResolvedLayoutConfig = m.SaveLayout()
	return out
}

// Clear removes the root item.
func (m *Manager) Clear() {
	m.setMaximisedStack(nil)
	m.clearRoot()
}

func (m *Manager) clearRoot() {
	switch len(m.ground.children) {
	case 0:
	case 1:
		m.removeChild(m.ground, m.ground.child(0), false)
	default:
		panic(&AssertError{Code: "GILR07721", Message: "ground has more than one child"})
	}
}

// SetSize lays the tree out into a width x height surface.
func (m *Manager) SetSize(width, height int) {
	m.width, m.height = max(width, 0), max(height, 0)
	m.sizeKnown = true
	m.updateLayout()
	m.adjustColumnsResponsive()
	m.emitManager(EventResize)
}

// UpdateSizeFromContainer reads the surface size and lays out into it.
func (m *Manager) UpdateSizeFromContainer() {
	if m.surface == nil {
		return
	}
	w, h := m.surface.Size()
	m.SetSize(w, h)
}

// NotifyResize debounces surface resizes: the layout follows once no
// resize has been reported for ResizeDebounce.
func (m *Manager) NotifyResize() {
	if m.resizeCancel != nil {
		m.resizeCancel()
	}
	m.resizeCancel = m.sched.After(ResizeDebounce, func() {
		m.resizeCancel = nil
		m.UpdateSizeFromContainer()
	})
}

// Destroy tears the layout down. Pop-outs are closed when
// closePopoutsOnUnload is set.
func (m *Manager) Destroy() {
	if m.destroyed {
		return
	}
	if m.dragging != nil {
		m.dragging.Cancel()
	}
	for _, s := range append([]*DragSource(nil), m.sources...) {
		s.Destroy()
	}
	if m.settings.ClosePopoutsOnUnload {
		for _, p := range append([]*Popout(nil), m.openPopouts...) {
			if err := p.Close(); err != nil {
				m.logger.Warn("close popout", "key", p.Key(), "err", err)
			}
		}
	}
	m.Clear()
	for _, c := range []tick.Cancel{m.resizeCancel, m.stateCancel, m.syncCancel} {
		if c != nil {
			c()
		}
	}
	m.destroyed = true
}

// AddItem adds cfg at the first location found by the default selectors.
func (m *Manager) AddItem(cfg config.ItemConfig) (Location, error) {
	loc, err := m.AddItemAtLocation(cfg, DefaultLocationSelectors())
	if err != nil {
		return Location{}, err
	}
	if loc == nil {
		return Location{}, &APIError{Op: "addItem", Message: "no location found for item"}
	}
	return *loc, nil
}

// AddComponent adds a component of componentType with an optional title.
func (m *Manager) AddComponent(componentType string, state any, title string) (Location, error) {
	return m.AddItem(componentConfig(componentType, state, title))
}

// NewComponent adds a component and returns its item.
func (m *Manager) NewComponent(componentType string, state any, title string) (*Item, error) {
	loc, err := m.AddComponent(componentType, state, title)
	if err != nil {
		return nil, err
	}
	return loc.Parent.child(loc.Index), nil
}

func componentConfig(componentType string, state any, title string) config.ItemConfig {
	cfg := config.ItemConfig{Type: config.TypeComponent, ComponentType: componentType, ComponentState: state}
	if title != "" {
		cfg.Title = &title
	}
	return cfg
}

// checkLoadedLayoutMaximiseItem maximises the first stack the loaded
// config flagged.
func (m *Manager) checkLoadedLayoutMaximiseItem() {
	var want *Item
	for _, s := range m.AllStacks() {
		if s.wantMaximise && want == nil {
			want = s
		}
		s.wantMaximise = false
	}
	if want != nil {
		m.setMaximisedStack(want)
	}
}

func (m *Manager) checkMinimiseMaximisedStack() {
	if m.maximised != nil {
		m.setMaximisedStack(nil)
	}
}

// emitBubbling emits name on it and each ancestor, then on the manager.
// stateChanged reaches manager listeners at most once per tick.
func (m *Manager) emitBubbling(it *Item, name string, args ...any) {
	ev := &Event{Name: name, Origin: it, Args: args, bubbles: true}
	for cur := it; cur != nil && !ev.stopped; cur = cur.Parent() {
		ev.Target = cur
		cur.Emit(ev)
	}
	if ev.stopped {
		return
	}
	if name == EventStateChanged {
		m.queueStateChanged()
		return
	}
	ev.Target = nil
	m.Emit(ev)
}

func (m *Manager) emitManager(name string, args ...any) {
	m.Emit(&Event{Name: name, Args: args})
}

func (m *Manager) queueStateChanged() {
	if m.stateCancel != nil || m.destroyed {
		return
	}
	m.stateCancel = m.sched.After(0, func() {
		m.stateCancel = nil
		m.emitManager(EventStateChanged)
		if m.parent != nil {
			if err := m.parent.State(m.SavePopout()); err != nil {
				m.logger.Warn("send popout state", "err", err)
			}
		}
	})
}

// errorsAsBlocked reports whether err means no window could be opened.
func errorsAsBlocked(err error) bool {
	return errors.Is(err, ErrPopoutBlocked)
}
