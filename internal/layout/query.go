package layout

import "docklayout/internal/config"

// AllContentItems returns the ground and every attached item, depth
// first.
func (m *Manager) AllContentItems() []*Item {
	var out []*Item
	m.walk(m.ground, func(it *Item) bool {
		out = append(out, it)
		return true
	})
	return out
}

// walk visits it and its subtree depth first until fn returns false.
func (m *Manager) walk(it *Item, fn func(*Item) bool) bool {
	if it == nil {
		return true
	}
	if !fn(it) {
		return false
	}
	for _, c := range it.ContentItems() {
		if !m.walk(c, fn) {
			return false
		}
	}
	return true
}

// ItemsByType returns attached items of type t in tree order.
func (m *Manager) ItemsByType(t config.ItemType) []*Item {
	var out []*Item
	m.walk(m.ground, func(it *Item) bool {
		if it.kind == t {
			out = append(out, it)
		}
		return true
	})
	return out
}

// AllStacks returns the attached stacks in tree order.
func (m *Manager) AllStacks() []*Item {
	return m.ItemsByType(config.TypeStack)
}

// AllComponents returns the attached components in tree order.
func (m *Manager) AllComponents() []*Item {
	return m.ItemsByType(config.TypeComponent)
}

// FirstContentItemOfType returns the first attached item of type t.
func (m *Manager) FirstContentItemOfType(t config.ItemType) *Item {
	var found *Item
	m.walk(m.ground, func(it *Item) bool {
		if it.kind == t {
			found = it
			return false
		}
		return true
	})
	return found
}

// ItemsByID returns attached items whose id is id.
func (m *Manager) ItemsByID(id string) []*Item {
	var out []*Item
	m.walk(m.ground, func(it *Item) bool {
		if it.id == id {
			out = append(out, it)
		}
		return true
	})
	return out
}

// FindFirstComponentItemByID returns the first component with id.
func (m *Manager) FindFirstComponentItemByID(id string) *Item {
	for _, it := range m.ItemsByID(id) {
		if it.IsComponent() {
			return it
		}
	}
	return nil
}

// ItemsByPopInParentID returns the items a pop-out with parentID docks into.
func (m *Manager) ItemsByPopInParentID(parentID string) []*Item {
	var out []*Item
	m.walk(m.ground, func(it *Item) bool {
		for _, id := range it.popInParentIDs {
			if id == parentID {
				out = append(out, it)
				break
			}
		}
		return true
	})
	return out
}

// ComponentAt returns the visible component drawn at (x, y), preferring
// the maximised stack.
func (m *Manager) ComponentAt(x, y int) *Item {
	if s := m.maximised; s != nil {
		if a := s.ActiveComponentItem(); a != nil && a.rect.Contains(x, y) {
			return a
		}
		return nil
	}
	var found *Item
	m.walk(m.ground, func(it *Item) bool {
		if it.IsComponent() && it.visible && it.rect.Contains(x, y) {
			found = it
			return false
		}
		return true
	})
	return found
}
