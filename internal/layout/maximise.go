package layout

// setMaximisedStack maximises stack, minimising any other first. A nil
// stack minimises. The tree is not restructured: a maximised stack keeps
// its place and is laid out a second time over the whole ground.
func (m *Manager) setMaximisedStack(stack *Item) {
	if stack == nil {
		if m.maximised != nil {
			m.processMinimise()
		}
		return
	}
	if stack == m.maximised {
		return
	}
	if m.maximised != nil {
		m.processMinimise()
	}
	m.processMaximise(stack)
}

func (m *Manager) processMaximise(stack *Item) {
	m.maximised = stack
	m.updateLayout()
	m.focusActiveContentItem(stack)
	stack.Emit(&Event{Name: EventMaximised, Target: stack})
	m.emitManager(EventMaximised, stack)
	m.emitBubbling(stack, EventStateChanged)
}

func (m *Manager) processMinimise() {
	stack := m.maximised
	m.maximised = nil
	m.updateLayout()
	stack.Emit(&Event{Name: EventMinimised, Target: stack})
	m.emitManager(EventMinimised, stack)
	m.emitBubbling(stack, EventStateChanged)
}
