package layout

import (
	"slices"

	"docklayout/internal/config"
	"docklayout/internal/drag"
)

// DragSource creates a new component when dragged from outside the
// layout, for example from a palette. The config callback is asked for
// the component at drag start; returning nil aborts the drag.
type DragSource struct {
	m        *Manager
	config   func() *config.ItemConfig
	listener *drag.Listener
	proxy    *DragProxy
}

// NewDragSource registers a drag source. Feed it pointer events through
// Down, Move and Up.
func (m *Manager) NewDragSource(cfg func() *config.ItemConfig, opts ...drag.Option) *DragSource {
	s := &DragSource{m: m, config: cfg}
	s.listener = drag.NewListener(m.sched, drag.Handlers{
		OnStart: s.onStart,
		OnDrag: func(_, _ int, p drag.Point) {
			if s.proxy != nil {
				s.proxy.Move(p.X, p.Y)
			}
		},
		OnStop: func(_ drag.Point, cancelled bool) {
			if s.proxy == nil {
				return
			}
			if cancelled {
				s.proxy.Cancel()
			} else {
				s.proxy.Drop()
			}
			s.proxy = nil
		},
	}, opts...)
	m.sources = append(m.sources, s)
	return s
}

func (s *DragSource) onStart(x, y int) {
	m := s.m
	if m.dragging != nil {
		return
	}
	cfg := s.config()
	if cfg == nil {
		return
	}
	resolved, err := config.ResolveItem(*cfg)
	if err != nil {
		m.logger.Error("drag source config", "err", err)
		return
	}
	if resolved.Type != config.TypeComponent {
		m.logger.Error("drag source config", "err", apiErr("dragSource", config.TextItemConfigIsNotComponent))
		return
	}
	item, err := m.createContentItem(resolved, nil)
	if err != nil {
		m.logger.Error("drag source bind", "err", err)
		return
	}
	m.initItem(item)
	s.proxy = m.startDrag(item, nil, x, y)
}

func (s *DragSource) Down(p drag.Point) { s.listener.Down(p) }
func (s *DragSource) Move(p drag.Point) { s.listener.Move(p) }
func (s *DragSource) Up(p drag.Point) { s.listener.Up(p) }
func (s *DragSource) Cancel() { s.listener.Cancel() }

// Proxy returns the drag in progress from this source, or nil.
func (s *DragSource) Proxy() *DragProxy { return s.proxy }

// Destroy cancels any drag and unregisters the source.
func (s *DragSource) Destroy() {
	s.listener.Cancel()
	s.listener.Destroy()
	s.m.sources = slices.DeleteFunc(s.m.sources, func(o *DragSource) bool { return o == s })
}

// NewTabDrag returns a listener that lifts item out of its stack once
// the press on its tab turns into a drag.
func (m *Manager) NewTabDrag(item *Item, opts ...drag.Option) *drag.Listener {
	var proxy *DragProxy
	return drag.NewListener(m.sched, drag.Handlers{
		OnStart: func(x, y int) {
			p, err := m.StartComponentDrag(item, x, y)
			if err != nil {
				m.logger.Debug("tab drag refused", "err", err)
				return
			}
			proxy = p
		},
		OnDrag: func(_, _ int, p drag.Point) {
			if proxy != nil {
				proxy.Move(p.X, p.Y)
			}
		},
		OnStop: func(_ drag.Point, cancelled bool) {
			if proxy == nil {
				return
			}
			if cancelled {
				proxy.Cancel()
			} else {
				proxy.Drop()
			}
			proxy = nil
		},
	}, opts...)
}
