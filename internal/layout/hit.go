package layout

// HitKind classifies what lies under a point.
type HitKind int

const (
	HitNone HitKind = iota
	HitTab
	HitTabClose
	HitControl
	HitHeader
	HitSplitter
	HitComponent
)

// Hit is the result of HitTest.
type Hit struct {
	Kind     HitKind
	Item     *Item
	Stack    *Item
	Button   HeaderButton
	Splitter int
}

// HitTest finds the interactive element at (x, y). A maximised stack
// shadows everything below it.
func (m *Manager) HitTest(x, y int) Hit {
	if s := m.maximised; s != nil {
		if h, ok := hitStack(s, x, y); ok {
			return h
		}
		if a := s.ActiveComponentItem(); a != nil && a.rect.Contains(x, y) {
			return Hit{Kind: HitComponent, Item: a, Stack: s}
		}
		return Hit{}
	}
	if rc, i, ok := m.SplitterAt(x, y); ok {
		return Hit{Kind: HitSplitter, Item: rc, Splitter: i}
	}
	for _, s := range m.AllStacks() {
		if !s.visible {
			continue
		}
		if h, ok := hitStack(s, x, y); ok {
			return h
		}
	}
	if c := m.ComponentAt(x, y); c != nil {
		return Hit{Kind: HitComponent, Item: c, Stack: c.Parent()}
	}
	return Hit{}
}

func hitStack(s *Item, x, y int) (Hit, bool) {
	hl := s.headerLayout
	if !hl.Rect.Contains(x, y) {
		return Hit{}, false
	}
	for _, c := range hl.Controls {
		if c.Rect.Contains(x, y) {
			return Hit{Kind: HitControl, Stack: s, Button: c.Button}, true
		}
	}
	for _, t := range hl.Tabs {
		if !t.Rect.Contains(x, y) {
			continue
		}
		if t.Closable && !hl.Sided() && x >= t.Rect.Right()-tabCloseWidth {
			return Hit{Kind: HitTabClose, Item: t.Item, Stack: s}, true
		}
		return Hit{Kind: HitTab, Item: t.Item, Stack: s}, true
	}
	return Hit{Kind: HitHeader, Stack: s}, true
}

// PressControl performs a header button's action on stack.
func (m *Manager) PressControl(stack *Item, b HeaderButton) error {
	m.Emit(&Event{Name: EventStackHeaderClick, Target: stack, Args: []any{b}})
	switch b {
	case ButtonMaximise, ButtonMinimise:
		stack.ToggleMaximise()
	case ButtonClose:
		stack.Close()
	case ButtonPopout:
		target := stack
		if !m.settings.PopoutWholeStack {
			target = stack.ActiveComponentItem()
		}
		if target == nil {
			return nil
		}
		_, err := m.CreatePopout(target)
		return err
	}
	return nil
}
