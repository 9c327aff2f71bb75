package layout

// setActiveComponentItem shows child and hides the previously active
// component. Focus follows when requested or when the stack already
// holds the focused component.
func (m *Manager) setActiveComponentItem(stack, child *Item, focus, suppressFocusEvent bool) {
	invariant(stack.IsStack(), "SAC10001", "not a stack: %s", stack.kind)
	if stack.active != child.ref {
		invariant(stack.indexOf(child) >= 0, "SAC10002", "component is not a child of this stack")
		stack.active = child.ref
		m.updateLayout()
		stack.Emit(&Event{Name: EventActiveContentItemChange, Target: stack, Args: []any{child}})
		m.emitManager(EventActiveContentItemChange, child)
		m.emitBubbling(stack, EventStateChanged)
	}
	if stack.hasFocus || focus {
		m.setFocusedComponentItem(child, suppressFocusEvent)
	}
}

// focusActiveContentItem focuses a stack's shown component.
func (m *Manager) focusActiveContentItem(stack *Item) {
	if a := stack.ActiveComponentItem(); a != nil {
		m.focusComponent(a, false)
	}
}
