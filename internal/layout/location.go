package layout

import "docklayout/internal/config"

// SelectorType says where a LocationSelector looks.
type SelectorType int

const (
	SelectFocusedItem SelectorType = iota
	SelectFocusedStack
	SelectFirstStack
	SelectFirstRowOrColumn
	SelectFirstRow
	SelectFirstColumn
	SelectEmpty
	SelectRoot
)

// LocationSelector picks a parent and index for a new item. A nil Index
// appends; for SelectFocusedItem it is an offset from the focused item.
type LocationSelector struct {
	Type  SelectorType
	Index *int
}

// Location is a parent item and a child index within it.
type Location struct {
	Parent *Item
	Index  int
}

// DefaultLocationSelectors tries the focused stack, the first stack, the
// first row or column, then the root.
func DefaultLocationSelectors() []LocationSelector {
	return []LocationSelector{
		{Type: SelectFocusedStack},
		{Type: SelectFirstStack},
		{Type: SelectFirstRowOrColumn},
		{Type: SelectRoot},
	}
}

// FindFirstLocation returns the first selector that resolves.
func (m *Manager) FindFirstLocation(selectors []LocationSelector) *Location {
	for _, s := range selectors {
		if loc := m.findLocation(s); loc != nil {
			return loc
		}
	}
	return nil
}

func (m *Manager) findLocation(s LocationSelector) *Location {
	switch s.Type {
	case SelectFocusedItem:
		f := m.focused
		if f == nil || f.Parent() == nil {
			return nil
		}
		parent := f.Parent()
		n := len(parent.children)
		if s.Index == nil {
			return &Location{Parent: parent, Index: n}
		}
		index := parent.indexOf(f) + *s.Index
		if index < 0 || index > n {
			return nil
		}
		return &Location{Parent: parent, Index: index}
	case SelectFocusedStack:
		if m.focused == nil || m.focused.Parent() == nil {
			return nil
		}
		return locationIn(m.focused.Parent(), s.Index)
	case SelectFirstStack:
		return locationIn(m.FirstContentItemOfType(config.TypeStack), s.Index)
	case SelectFirstRowOrColumn:
		if row := m.FirstContentItemOfType(config.TypeRow); row != nil {
			return locationIn(row, s.Index)
		}
		return locationIn(m.FirstContentItemOfType(config.TypeColumn), s.Index)
	case SelectFirstRow:
		return locationIn(m.FirstContentItemOfType(config.TypeRow), s.Index)
	case SelectFirstColumn:
		return locationIn(m.FirstContentItemOfType(config.TypeColumn), s.Index)
	case SelectEmpty:
		if m.Root() != nil {
			return nil
		}
		if s.Index == nil || *s.Index == 0 {
			return &Location{Parent: m.ground, Index: 0}
		}
		return nil
	case SelectRoot:
		root := m.Root()
		if root == nil {
			if s.Index == nil || *s.Index == 0 {
				return &Location{Parent: m.ground, Index: 0}
			}
			return nil
		}
		return locationIn(root, s.Index)
	}
	return nil
}

func locationIn(parent *Item, index *int) *Location {
	if parent == nil {
		return nil
	}
	n := len(parent.children)
	if index == nil {
		return &Location{Parent: parent, Index: n}
	}
	if *index < 0 || *index > n {
		return nil
	}
	return &Location{Parent: parent, Index: *index}
}

// AddItemAtLocation resolves cfg and adds it at the first location the
// selectors find. It returns nil when none resolves. For components the
// returned location points into the stack that holds them.
func (m *Manager) AddItemAtLocation(cfg config.ItemConfig, selectors []LocationSelector) (*Location, error) {
	loc := m.FindFirstLocation(selectors)
	if loc == nil {
		return nil, nil
	}
	resolved, err := config.ResolveItem(cfg)
	if err != nil {
		return nil, err
	}
	m.checkMinimiseMaximisedStack()

	parent, index := loc.Parent, loc.Index
	switch parent.kind {
	case config.TypeGround:
		target := parent
		if root := m.Root(); root != nil {
			target = root
		}
		if target.IsComponent() {
			return nil, &APIError{Op: "addItem", Message: "cannot add item as child to a component"}
		}
		item, err := m.createContentItem(resolved, target)
		if err != nil {
			return nil, err
		}
		if target == parent {
			m.addChild(parent, item, -1, false)
			index = 0
		} else {
			parent = target
			index = m.addChild(target, item, index, false)
		}
	case config.TypeRow, config.TypeColumn:
		item, err := m.createContentItem(resolved, parent)
		if err != nil {
			return nil, err
		}
		index = m.addChild(parent, item, index, false)
	case config.TypeStack:
		if resolved.Type != config.TypeComponent {
			return nil, apiErr("addItem", config.TextItemConfigIsNotComponent)
		}
		item, err := m.createContentItem(resolved, parent)
		if err != nil {
			return nil, err
		}
		index = m.stackAddChild(parent, item, index, false)
	default:
		panic(&AssertError{Code: "LMAIALC87444602", Message: "location parent is a component"})
	}

	if resolved.Type == config.TypeComponent && index < len(parent.children) {
		if added := parent.child(index); added.IsStack() {
			parent, index = added, 0
		}
	}
	return &Location{Parent: parent, Index: index}, nil
}
