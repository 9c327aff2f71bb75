package layout

import (
	"docklayout/internal/config"
)

// LogicalZIndex is the stacking level a component is drawn at.
type LogicalZIndex string

const (
	ZIndexBase           LogicalZIndex = "base"
	ZIndexDrag           LogicalZIndex = "drag"
	ZIndexStackMaximised LogicalZIndex = "stackMaximised"
)

// VirtualComponent is implemented by components the host draws outside
// the tree. They are told their placement directly.
type VirtualComponent interface {
	SetRect(r Rect)
	SetVisible(visible bool)
	SetZIndex(z LogicalZIndex)
}

// Releaser is implemented by components that hold resources to free
// when their container goes away.
type Releaser interface {
	Release()
}

// BoundComponent is what a Binder returns for a container.
type BoundComponent struct {
	Component any
	Virtual   bool
}

// Binder creates the application component living in a container.
type Binder interface {
	Bind(c *Container, cfg config.ResolvedItemConfig) (BoundComponent, error)
	Unbind(c *Container)
}

// Container connects a component item to the application component it
// hosts. Placement changes are delivered one tick after the layout pass
// that caused them.
type Container struct {
	Emitter

	m         *Manager
	item      *Item
	component any
	virtual   bool

	rect    Rect
	visible bool
	zIndex  LogicalZIndex

	synced        bool
	syncedRect    Rect
	syncedVisible bool
	syncedZIndex  LogicalZIndex
}

func (c *Container) Item() *Item { return c.item }
func (c *Container) Component() any { return c.component }
func (c *Container) Virtual() bool { return c.virtual }
func (c *Container) ComponentType() string { return c.item.componentType }
func (c *Container) Rect() Rect { return c.rect }
func (c *Container) Width() int { return c.rect.W }
func (c *Container) Height() int { return c.rect.H }
func (c *Container) Visible() bool { return c.visible }
func (c *Container) ZIndex() LogicalZIndex { return c.zIndex }
func (c *Container) Title() string { return c.item.title }
func (c *Container) SetTitle(title string) { c.item.SetTitle(title) }
func (c *Container) IsClosable() bool { return c.item.isClosable }
func (c *Container) Focus() { c.item.Focus() }
func (c *Container) Blur() { c.item.Blur() }
func (c *Container) Close() bool { return c.item.Close() }
func (c *Container) Layout() *Manager { return c.m }
func (c *Container) State() any { return c.item.state }
func (c *Container) InitialState() any { return c.item.state }

// SetState replaces the component's persisted state.
func (c *Container) SetState(state any) {
	c.item.state = state
	c.m.emitBubbling(c.item, EventStateChanged)
}

// place records the latest placement from a layout pass.
func (c *Container) place(r Rect, visible bool, z LogicalZIndex) {
	c.rect = r
	c.visible = visible
	c.zIndex = z
}

// sync pushes placement changes to the component.
func (c *Container) sync() {
	first := !c.synced
	if !first && c.rect == c.syncedRect && c.visible == c.syncedVisible && c.zIndex == c.syncedZIndex {
		return
	}
	vc, _ := c.component.(VirtualComponent)
	if first || c.visible != c.syncedVisible {
		if vc != nil {
			vc.SetVisible(c.visible)
		}
		name := EventHide
		if c.visible {
			name = EventShow
		}
		c.Emit(&Event{Name: name, Target: c.item})
	}
	if first || c.rect != c.syncedRect {
		if vc != nil {
			vc.SetRect(c.rect)
		}
		c.Emit(&Event{Name: EventResize, Target: c.item, Args: []any{c.rect}})
	}
	if first || c.zIndex != c.syncedZIndex {
		if vc != nil {
			vc.SetZIndex(c.zIndex)
		}
	}
	c.synced = true
	c.syncedRect = c.rect
	c.syncedVisible = c.visible
	c.syncedZIndex = c.zIndex
}

func (m *Manager) bindComponent(it *Item, cfg config.ResolvedItemConfig) error {
	c := &Container{m: m, item: it, zIndex: ZIndexBase}
	it.container = c
	if m.binder == nil {
		return &BindError{ComponentType: cfg.ComponentType, Message: config.Text(config.TextComponentTypeNotRegistered)}
	}
	bound, err := m.binder.Bind(c, cfg)
	if err != nil {
		it.container = nil
		return err
	}
	c.component = bound.Component
	c.virtual = bound.Virtual
	if c.virtual {
		if _, ok := c.component.(VirtualComponent); !ok {
			m.binder.Unbind(c)
			it.container = nil
			return &BindError{ComponentType: cfg.ComponentType, Message: config.Text(config.TextComponentIsNotVirtuable)}
		}
	}
	return nil
}

func (m *Manager) unbindComponent(it *Item) {
	c := it.container
	if c == nil {
		return
	}
	c.Emit(&Event{Name: EventBeforeComponentRelease, Target: it, Args: []any{c.component}})
	if m.binder != nil {
		m.binder.Unbind(c)
	}
	it.container = nil
}

func (m *Manager) scheduleContainerSync() {
	if m.syncCancel != nil || m.sched == nil {
		return
	}
	m.syncCancel = m.sched.After(0, m.flushContainers)
}

func (m *Manager) flushContainers() {
	m.syncCancel = nil
	if m.sizeBatch > 0 {
		return
	}
	for _, it := range m.liveItems() {
		if it.IsComponent() && it.container != nil {
			if it.parent == NoRef && it != m.ground {
				it.container.visible = false
			}
			it.container.sync()
		}
	}
}

// BeginVirtualSizedContainerAdding holds back placement updates until
// the matching End call, so a batch of new components is placed once.
func (m *Manager) BeginVirtualSizedContainerAdding() {
	m.sizeBatch++
}

// EndVirtualSizedContainerAdding releases a batch started with Begin.
func (m *Manager) EndVirtualSizedContainerAdding() {
	if m.sizeBatch == 0 {
		return
	}
	m.sizeBatch--
	if m.sizeBatch == 0 {
		m.flushContainers()
	}
}
