package layout

import (
	"maps"
	"slices"

	"docklayout/internal/config"
)

// createContentItem builds the subtree described by cfg. Components that
// would not sit in a stack are wrapped in one, except at the root of a
// pop-out window. The result is detached and not yet initialised.
func (m *Manager) createContentItem(cfg config.ResolvedItemConfig, parent *Item) (*Item, error) {
	if cfg.Type == config.TypeComponent && parent != nil && !parent.IsStack() &&
		!(m.subWindow && parent.IsGround()) {
		cfg = config.WrapInStack(cfg)
	}
	return m.createFromConfig(cfg)
}

func (m *Manager) createFromConfig(cfg config.ResolvedItemConfig) (*Item, error) {
	it := m.alloc(cfg.Type)
	it.id = cfg.ID
	it.width = cfg.Width
	it.height = cfg.Height
	it.minWidth = cfg.MinWidth
	it.minHeight = cfg.MinHeight
	it.isClosable = cfg.IsClosable
	it.header = cloneHeader(cfg.Header)

	switch cfg.Type {
	case config.TypeStack:
		it.initialActive = cfg.ActiveItemIndex
		it.wantMaximise = cfg.Maximised
	case config.TypeComponent:
		it.componentType = cfg.ComponentType
		it.title = cfg.Title
		it.state = cfg.ComponentState
		it.reorderEnabled = cfg.ReorderEnabled
		if err := m.bindComponent(it, cfg); err != nil {
			m.destroy(it)
			return nil, err
		}
		return it, nil
	}

	for _, cc := range cfg.Content {
		child, err := m.createContentItem(cc, it)
		if err != nil {
			m.destroy(it)
			return nil, err
		}
		it.children = append(it.children, child.ref)
		child.parent = it.ref
	}
	return it, nil
}

// initItem initialises children before their parent, then announces the
// item. Stacks pick their initial active child here.
func (m *Manager) initItem(it *Item) {
	if it.initialised {
		return
	}
	for _, c := range it.ContentItems() {
		m.initItem(c)
	}
	if it.IsStack() {
		for _, c := range it.ContentItems() {
			invariant(c.IsComponent(), "SI43311", "stack child is %s", c.kind)
		}
		if n := len(it.children); n > 0 && it.active == NoRef {
			invariant(it.initialActive >= 0 && it.initialActive < n, "SI43312",
				"active item index %d out of range", it.initialActive)
			m.setActiveComponentItem(it, it.child(it.initialActive), false, true)
		}
	}
	it.initialised = true
	m.emitBubbling(it, EventItemCreated)
	m.emitBubbling(it, string(it.kind)+"Created")
}

// addChild inserts a detached child. index -1 appends. Rows and columns
// give the newcomer an equal share unless suspendResize is set, in which
// case the caller fixes the sizes.
func (m *Manager) addChild(parent, child *Item, index int, suspendResize bool) int {
	switch parent.kind {
	case config.TypeGround:
		invariant(len(parent.children) == 0, "GAC88125", "ground can only have a single child")
		index = m.insertChild(parent, child, index)
		m.updateLayout()
		m.emitBubbling(parent, EventStateChanged)
		return index

	case config.TypeRow, config.TypeColumn:
		index = m.insertChild(parent, child, index)
		if suspendResize {
			m.emitBubbling(parent, EventStateChanged)
			return index
		}
		column := parent.IsColumn()
		share := 100 / float64(len(parent.children))
		for _, c := range parent.ContentItems() {
			if c == child {
				*c.ratio(column) = share
			} else {
				*c.ratio(column) *= (100 - share) / 100
			}
		}
		m.updateLayout()
		m.emitBubbling(parent, EventStateChanged)
		return index

	case config.TypeStack:
		return m.stackAddChild(parent, child, index, false)
	}
	panic(&AssertError{Code: "AC99101", Message: "components have no children"})
}

func (m *Manager) stackAddChild(stack, child *Item, index int, focus bool) int {
	invariant(child.IsComponent(), "SACC88532", "stack child must be a component, got %s", child.kind)
	invariant(index <= len(stack.children), "SAC99728", "index %d out of range", index)
	index = m.insertChild(stack, child, index)
	m.setActiveComponentItem(stack, child, focus, false)
	m.updateLayout()
	m.emitBubbling(stack, EventStateChanged)
	return index
}

func (m *Manager) insertChild(parent, child *Item, index int) int {
	invariant(child.parent == NoRef, "IC10110", "child already has a parent")
	invariant(!child.destroyed, "IC10111", "child is destroyed")
	n := len(parent.children)
	if index < 0 {
		index = n
	}
	invariant(index <= n, "IC10112", "index %d out of range 0..%d", index, n)
	parent.children = slices.Insert(parent.children, index, child.ref)
	child.parent = parent.ref
	if parent.initialised && !child.initialised {
		m.initDetached(child)
	}
	return index
}

// initDetached initialises a subtree being attached without running size
// passes, so the parent can fix ratios before the next pass.
func (m *Manager) initDetached(it *Item) {
	m.layoutHold++
	defer func() { m.layoutHold-- }()
	m.initItem(it)
}

// removeChild detaches child from parent and destroys it unless
// keepChild is set. Parents left empty remove themselves when closable;
// rows and columns left with one child collapse into it.
func (m *Manager) removeChild(parent, child *Item, keepChild bool) {
	index := parent.indexOf(child)
	invariant(index >= 0, "RC23232", "item is not a child of this %s", parent.kind)

	if parent.IsStack() {
		stackWillBeDeleted := len(parent.children) == 1
		if parent.active == child.ref {
			if child.focused {
				m.setFocusedComponentItem(nil, false)
			}
			if !stackWillBeDeleted {
				next := index - 1
				if index == 0 {
					next = 1
				}
				m.setActiveComponentItem(parent, parent.child(next), false, false)
			} else {
				parent.active = NoRef
			}
		}
	}

	if !keepChild {
		m.destroy(child)
	}
	parent.children = slices.Delete(parent.children, index, index+1)
	child.parent = NoRef

	if len(parent.children) == 0 && !parent.IsGround() && parent.isClosable {
		if gp := parent.Parent(); gp != nil {
			m.removeChild(gp, parent, false)
			return
		}
	}

	if parent.IsRow() || parent.IsColumn() {
		if len(parent.children) == 1 && parent.isClosable {
			if gp := parent.Parent(); gp != nil {
				only := parent.child(0)
				parent.children = nil
				only.parent = NoRef
				for _, id := range parent.popInParentIDs {
					only.addPopInParentID(id)
				}
				m.replaceChild(gp, parent, only, true)
				return
			}
		}
	}
	m.updateLayout()
	m.emitBubbling(parent, EventStateChanged)
}

// replaceChild puts newChild in oldChild's slot. newChild takes over the
// old item's size.
func (m *Manager) replaceChild(parent, oldChild, newChild *Item, destroyOld bool) {
	index := parent.indexOf(oldChild)
	invariant(index >= 0, "CIRCI23232", "can't replace child: not a child of this %s", parent.kind)
	oldChild.parent = NoRef
	newChild.width = oldChild.width
	newChild.height = oldChild.height
	if destroyOld {
		m.destroy(oldChild)
	}
	parent.children[index] = newChild.ref
	newChild.parent = parent.ref
	if parent.initialised && !newChild.initialised {
		m.initDetached(newChild)
	}
	m.updateLayout()
	m.emitBubbling(parent, EventStateChanged)
}

// destroy tears down the subtree below and including it. The item must
// already be, or be about to be, detached from its parent.
func (m *Manager) destroy(it *Item) {
	if it.destroyed {
		return
	}
	// Unlink first: destroying a focused child relayouts every stack
	// header, which must not see released slots.
	children := it.ContentItems()
	it.children = nil
	if it.IsStack() {
		it.active = NoRef
	}
	for _, c := range children {
		m.destroy(c)
	}
	switch it.kind {
	case config.TypeComponent:
		if m.focused == it {
			m.setFocusedComponentItem(nil, false)
		}
		m.unbindComponent(it)
	case config.TypeStack:
		if m.maximised == it {
			m.maximised = nil
		}
	}
	m.emitBubbling(it, "beforeItemDestroyed")
	it.destroyed = true
	m.emitBubbling(it, EventItemDestroyed)
	m.release(it)
}

// itemConfig snapshots it as a resolved config.
func (m *Manager) itemConfig(it *Item) config.ResolvedItemConfig {
	cfg := config.ResolvedItemConfig{
		Type:       it.kind,
		Width:      it.width,
		MinWidth:   it.minWidth,
		Height:     it.height,
		MinHeight:  it.minHeight,
		ID:         it.id,
		IsClosable: it.isClosable,
		Header:     cloneHeader(it.header),
	}
	switch it.kind {
	case config.TypeComponent:
		cfg.Title = it.title
		cfg.ComponentType = it.componentType
		cfg.ComponentState = cloneState(it.state)
		cfg.ReorderEnabled = it.reorderEnabled
		return cfg
	case config.TypeStack:
		cfg.ActiveItemIndex = it.ActiveItemIndex()
		cfg.Maximised = it.IsMaximised()
	}
	cfg.Content = make([]config.ResolvedItemConfig, 0, len(it.children))
	for _, c := range it.ContentItems() {
		cfg.Content = append(cfg.Content, m.itemConfig(c))
	}
	return cfg
}

func cloneHeader(h *config.ResolvedHeaderConfig) *config.ResolvedHeaderConfig {
	if h == nil {
		return nil
	}
	c := *h
	return &c
}

func cloneState(s any) any {
	if mp, ok := s.(map[string]any); ok {
		return maps.Clone(mp)
	}
	return s
}
