package layout

// setFocusedComponentItem moves focus to it, or clears it when it is nil.
// The stacks holding the old and new components are flagged accordingly.
func (m *Manager) setFocusedComponentItem(it *Item, suppressEvents bool) {
	if it == m.focused {
		return
	}
	var newParent *Item
	if it != nil {
		newParent = it.Parent()
	}
	if old := m.focused; old != nil {
		m.focused = nil
		old.focused = false
		if !suppressEvents {
			m.emitBubbling(old, EventBlur)
		}
		oldParent := old.Parent()
		if oldParent == newParent {
			newParent = nil
		} else if oldParent != nil {
			oldParent.hasFocus = false
		}
	}
	if it != nil {
		m.focused = it
		it.focused = true
		if !suppressEvents {
			m.emitBubbling(it, EventFocus)
		}
		if newParent != nil {
			newParent.hasFocus = true
		}
	}
	for _, s := range m.AllStacks() {
		m.layoutStackHeader(s)
	}
}

// focusComponent activates a component's tab and focuses it.
func (m *Manager) focusComponent(it *Item, suppressEvent bool) {
	invariant(it.IsComponent(), "FC20311", "focus on %s", it.kind)
	if p := it.Parent(); p != nil && p.IsStack() {
		m.setActiveComponentItem(p, it, true, suppressEvent)
		return
	}
	m.setFocusedComponentItem(it, suppressEvent)
}

// ClearComponentFocus blurs whatever component has focus.
func (m *Manager) ClearComponentFocus(suppressEvent bool) {
	m.setFocusedComponentItem(nil, suppressEvent)
}

// FocusNext moves focus to the next component in tree order, wrapping
// at the end. With nothing focused the first component is taken.
func (m *Manager) FocusNext() *Item {
	return m.rotateFocus(1)
}

// FocusPrev moves focus to the previous component in tree order.
func (m *Manager) FocusPrev() *Item {
	return m.rotateFocus(-1)
}

func (m *Manager) rotateFocus(step int) *Item {
	order := m.AllComponents()
	if m.maximised != nil {
		order = m.maximised.ContentItems()
	}
	if len(order) == 0 {
		return nil
	}
	idx := -1
	for i, it := range order {
		if it == m.focused {
			idx = i
			break
		}
	}
	var next int
	switch {
	case idx < 0 && step < 0:
		next = len(order) - 1
	case idx < 0:
		next = 0
	default:
		next = (idx + step + len(order)) % len(order)
	}
	m.focusComponent(order[next], false)
	return order[next]
}
