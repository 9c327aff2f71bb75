package layout

import "docklayout/internal/config"

func (m *Manager) useResponsiveLayout() bool {
	switch m.settings.ResponsiveMode {
	case config.ResponsiveAlways:
		return true
	case config.ResponsiveOnLoad:
		return m.firstLoad
	}
	return false
}

// adjustColumnsResponsive folds the rightmost columns of a root row into
// the first stack while the row is narrower than minItemWidth per
// column.
func (m *Manager) adjustColumnsResponsive() {
	if !m.sizeKnown {
		return
	}
	use := m.useResponsiveLayout()
	m.firstLoad = false
	if !use || m.updatingResponsive {
		return
	}
	root := m.Root()
	if root == nil || !root.IsRow() {
		return
	}
	columnCount := len(root.children)
	minItemWidth := m.dimensions.MinItemWidth
	if columnCount <= 1 || minItemWidth <= 0 || columnCount*minItemWidth <= m.width {
		return
	}

	m.updatingResponsive = true
	defer func() { m.updatingResponsive = false }()

	finalColumnCount := max(m.width/minItemWidth, 1)
	stackColumnCount := columnCount - finalColumnCount
	stacks := m.AllStacks()
	if len(stacks) == 0 {
		return
	}
	first := stacks[0]
	m.logger.Debug("responsive collapse", "columns", columnCount, "keep", finalColumnCount)
	for range stackColumnCount {
		root = m.Root()
		if root == nil || !root.IsRow() || len(root.children) <= 1 {
			break
		}
		column := root.child(len(root.children) - 1)
		if column == first || isAncestor(column, first) {
			break
		}
		m.addChildContentItemsToContainer(first, column)
	}
}

// addChildContentItemsToContainer moves every component below node into
// container.
func (m *Manager) addChildContentItemsToContainer(container, node *Item) {
	if node.destroyed {
		return
	}
	if node.IsStack() {
		for _, c := range node.ContentItems() {
			m.removeChild(node, c, true)
			m.stackAddChild(container, c, -1, false)
		}
		return
	}
	for _, c := range node.ContentItems() {
		m.addChildContentItemsToContainer(container, c)
	}
}

func isAncestor(a, b *Item) bool {
	for p := b.Parent(); p != nil; p = p.Parent() {
		if p == a {
			return true
		}
	}
	return false
}
