package layout

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"docklayout/internal/config"
	"docklayout/internal/trace"
)

// PopoutLauncher opens a window for a popped-out layout. The sink
// receives the window's messages; its methods may be called from any
// goroutine. A launcher that cannot open a window at all returns an
// error wrapping ErrPopoutBlocked.
type PopoutLauncher interface {
	Open(ctx context.Context, cfg config.ResolvedPopoutLayoutConfig, sink PopoutSink) (PopoutHandle, error)
}

// PopoutHandle controls an open window from the parent side.
type PopoutHandle interface {
	Key() string
	Broadcast(name string, args []any) error
	Close() error
}

// PopoutSink receives messages from a pop-out window.
type PopoutSink interface {
	Ready()
	State(cfg config.ResolvedPopoutLayoutConfig)
	PopIn(cfg config.ResolvedPopoutLayoutConfig)
	Broadcast(name string, args []any)
	Closed()
}

// ParentLink is a pop-out window's connection to the layout that
// opened it.
type ParentLink interface {
	Ready() error
	State(cfg config.ResolvedPopoutLayoutConfig) error
	PopIn(cfg config.ResolvedPopoutLayoutConfig) error
	Broadcast(name string, args []any) error
	Closed() error
}

// Popout is the parent's record of an open pop-out window.
type Popout struct {
	m      *Manager
	cfg    config.ResolvedPopoutLayoutConfig
	handle PopoutHandle
	ready  bool
	closed bool
}

// Key identifies the window, empty until it has been opened.
func (p *Popout) Key() string {
	if p.handle == nil {
		return ""
	}
	return p.handle.Key()
}

// Ready reports whether the window has loaded its layout.
func (p *Popout) Ready() bool { return p.ready }

// Closed reports whether the window is gone.
func (p *Popout) Closed() bool { return p.closed }

// ParentID is the pop-in id registered on the item it docks back into.
func (p *Popout) ParentID() string {
	if p.cfg.ParentID == nil {
		return ""
	}
	return *p.cfg.ParentID
}

// ToConfig returns the last layout the window reported.
func (p *Popout) ToConfig() config.ResolvedPopoutLayoutConfig {
	return p.cfg
}

// PopIn docks the window's content back into the layout and closes it.
func (p *Popout) PopIn() error {
	return p.popIn()
}

// Close closes the window. Its content is dropped.
func (p *Popout) Close() error {
	if p.closed {
		return nil
	}
	var err error
	if p.handle != nil {
		err = p.handle.Close()
	}
	p.onClosed()
	return err
}

func (p *Popout) popIn() error {
	if p.closed {
		return nil
	}
	m := p.m
	_, span := trace.Start(m.ctx, "layout.popin", attribute.String("key", p.Key()))
	defer span.End()

	if p.cfg.Root != nil {
		if err := m.dockRoot(*p.cfg.Root, p.cfg.ParentID, p.cfg.IndexInParent); err != nil {
			trace.Fail(span, err)
			return err
		}
	}
	m.emitManager(EventPopIn, p)
	return p.Close()
}

func (p *Popout) onClosed() {
	if p.closed {
		return
	}
	p.closed = true
	m := p.m
	m.openPopouts = slices.DeleteFunc(m.openPopouts, func(o *Popout) bool { return o == p })
	if id := p.ParentID(); id != "" {
		for _, it := range m.ItemsByPopInParentID(id) {
			it.removePopInParentID(id)
		}
	}
	m.emitManager(EventWindowClosed, p)
	m.emitBubbling(m.ground, EventStateChanged)
}

// popoutSink hops window messages onto the owner goroutine.
type popoutSink struct {
	p *Popout
}

func (s popoutSink) Ready() {
	s.p.m.sched.Post(func() {
		p := s.p
		if p.closed || p.ready {
			return
		}
		p.ready = true
		p.m.emitManager(EventWindowOpened, p)
	})
}

func (s popoutSink) State(cfg config.ResolvedPopoutLayoutConfig) {
	s.p.m.sched.Post(func() {
		if !s.p.closed && cfg.Root != nil {
			s.p.cfg.Root = cfg.Root
		}
	})
}

func (s popoutSink) PopIn(cfg config.ResolvedPopoutLayoutConfig) {
	s.p.m.sched.Post(func() {
		p := s.p
		if p.closed {
			return
		}
		if cfg.Root != nil {
			p.cfg.Root = cfg.Root
		}
		if err := p.popIn(); err != nil {
			p.m.logger.Error("pop in", "key", p.Key(), "err", err)
		}
	})
}

func (s popoutSink) Broadcast(name string, args []any) {
	s.p.m.sched.Post(func() { s.p.m.hub.fromChild(name, args) })
}

func (s popoutSink) Closed() {
	s.p.m.sched.Post(func() {
		p := s.p
		if p.closed {
			return
		}
		if p.m.settings.PopInOnClose && p.ready {
			err := p.popIn()
			if err == nil {
				return
			}
			p.m.logger.Error("pop in on close", "key", p.Key(), "err", err)
		}
		p.onClosed()
	})
}

// OpenPopouts returns the windows currently open.
func (m *Manager) OpenPopouts() []*Popout {
	return slices.Clone(m.openPopouts)
}

// CreatePopout moves item into a new window. A pop-in id is registered
// on the nearest ancestor that survives the removal so the content can
// dock back to the same place.
func (m *Manager) CreatePopout(item *Item) (*Popout, error) {
	parentID := uuid.NewString()
	p, err := m.createPopoutFromContentItem(item, nil, &parentID, nil)
	if err == nil {
		m.emitBubbling(m.ground, EventStateChanged)
	}
	return p, err
}

func (m *Manager) createPopoutFromContentItem(item *Item, window *config.ResolvedPopoutWindow, parentID *string, indexInParent *int) (*Popout, error) {
	if item.IsGround() {
		return nil, apiErr("popout", config.TextPopoutCannotBeCreatedWithGround)
	}
	if m.launcher == nil {
		return nil, &APIError{Op: "popout", Message: "no popout launcher configured"}
	}
	parent, child := item.Parent(), item
	for parent != nil && len(parent.children) == 1 && !parent.IsGround() {
		child, parent = parent, parent.Parent()
	}
	invariant(parent != nil, "LMCPFCI00834", "item is detached")

	if indexInParent == nil {
		i := parent.indexOf(child)
		indexInParent = &i
	}
	if parentID != nil {
		parent.addPopInParentID(*parentID)
	}
	var win config.ResolvedPopoutWindow
	if window != nil {
		win = *window
	} else {
		r := item.rect
		left, top := float64(r.X), float64(r.Y)
		width, height := float64(r.W), float64(r.H)
		win = config.ResolvedPopoutWindow{Left: &left, Top: &top, Width: &width, Height: &height}
	}

	itemCfg := m.itemConfig(item)
	item.Remove()

	return m.createPopoutFromPopoutLayoutConfig(config.ResolvedPopoutLayoutConfig{
		ResolvedLayoutConfig: config.ResolvedLayoutConfig{
			Root:        &itemCfg,
			OpenPopouts: []config.ResolvedPopoutLayoutConfig{},
			Settings:    m.settings,
			Dimensions:  m.dimensions,
			Header:      m.header,
		},
		ParentID:      parentID,
		IndexInParent: indexInParent,
		Window:        win,
	})
}

// createPopoutFromPopoutLayoutConfig opens a window for cfg. When the
// window cannot be opened the content is docked back; the error is only
// reported if blockedPopoutsThrowError is set.
func (m *Manager) createPopoutFromPopoutLayoutConfig(cfg config.ResolvedPopoutLayoutConfig) (*Popout, error) {
	ctx, span := trace.Start(m.ctx, "layout.popout")
	defer span.End()

	if cfg.Window.Width == nil {
		w := config.DefaultPopoutWidth
		cfg.Window.Width = &w
	}
	if cfg.Window.Height == nil {
		h := config.DefaultPopoutHeight
		cfg.Window.Height = &h
	}
	if m.launcher == nil {
		return nil, &APIError{Op: "popout", Message: "no popout launcher configured"}
	}

	p := &Popout{m: m, cfg: cfg}
	handle, err := m.launcher.Open(ctx, cfg, popoutSink{p: p})
	if err != nil {
		trace.Fail(span, err)
		p.closed = true
		if cfg.Root != nil {
			if derr := m.dockRoot(*cfg.Root, cfg.ParentID, cfg.IndexInParent); derr != nil {
				m.logger.Error("restore blocked popout", "err", derr)
			}
		}
		if errorsAsBlocked(err) {
			m.logger.Warn("popout blocked", "err", err)
			if m.settings.BlockedPopoutsThrowError {
				return nil, &PopoutBlockedError{Err: err}
			}
			return nil, nil
		}
		return nil, err
	}
	p.handle = handle
	span.SetAttributes(attribute.String("key", handle.Key()))
	m.openPopouts = append(m.openPopouts, p)
	m.logger.Debug("popout opened", "key", handle.Key())
	return p, nil
}

// dockRoot inserts a popped-out root back into the tree: into the item
// registered under parentID at index, else at the front of the root, else
// as the root.
func (m *Manager) dockRoot(root config.ResolvedItemConfig, parentID *string, indexInParent *int) error {
	var parent *Item
	index := -1
	if indexInParent != nil {
		index = *indexInParent
	}
	if parentID != nil {
		if found := m.ItemsByPopInParentID(*parentID); len(found) > 0 {
			parent = found[0]
		}
	}
	// A ground match only counts while the ground is still empty.
	if parent != nil && parent.IsGround() && len(parent.children) > 0 {
		parent = nil
	}
	if parent == nil || parent.IsComponent() {
		parent = m.Root()
		if parent == nil || parent.IsComponent() {
			parent = m.ground
		}
		index = 0
	}
	index = min(index, len(parent.children))

	switch {
	case parent.IsGround() && len(parent.children) > 0:
		return &APIError{Op: "popIn", Message: "layout root is a component"}
	case parent.IsStack() && root.Type != config.TypeComponent:
		var comps []config.ResolvedItemConfig
		collectComponents(root, &comps)
		for i, cc := range comps {
			it, err := m.createContentItem(cc, parent)
			if err != nil {
				return err
			}
			at := index
			if at >= 0 {
				at += i
			}
			m.stackAddChild(parent, it, at, false)
		}
	default:
		it, err := m.createContentItem(root, parent)
		if err != nil {
			return err
		}
		m.addChild(parent, it, index, false)
	}
	if parentID != nil {
		for _, it := range m.ItemsByPopInParentID(*parentID) {
			it.removePopInParentID(*parentID)
		}
	}
	return nil
}

func collectComponents(cfg config.ResolvedItemConfig, out *[]config.ResolvedItemConfig) {
	if cfg.Type == config.TypeComponent {
		*out = append(*out, cfg)
		return
	}
	for _, c := range cfg.Content {
		collectComponents(c, out)
	}
}

// PopIn asks the parent layout to take this pop-out window's content
// back. Only valid in a pop-out window.
func (m *Manager) PopIn() error {
	if m.parent == nil {
		return &APIError{Op: "popIn", Message: "not a pop-out window"}
	}
	return m.parent.PopIn(m.SavePopout())
}

// NotifyParentReady tells the parent layout this window has loaded.
func (m *Manager) NotifyParentReady() error {
	if m.parent == nil {
		return nil
	}
	return m.parent.Ready()
}

// NotifyParentClosed tells the parent layout this window is closing,
// after a final state update.
func (m *Manager) NotifyParentClosed() error {
	if m.parent == nil {
		return nil
	}
	if err := m.parent.State(m.SavePopout()); err != nil {
		return err
	}
	return m.parent.Closed()
}
