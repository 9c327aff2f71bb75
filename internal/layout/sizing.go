package layout

import (
	"math"

	"docklayout/internal/config"
)

// ratioEpsilon is how far a row's shares may drift from 100 before they
// are normalised again.
const ratioEpsilon = 1e-9

// updateLayout recomputes every rect from the ground down. Component
// containers are told about changes on the next tick.
func (m *Manager) updateLayout() {
	if m.ground == nil || m.destroyed || m.layoutHold > 0 {
		return
	}
	ground := Rect{W: m.width, H: m.height}
	m.layoutItem(m.ground, ground, true)
	if s := m.maximised; s != nil {
		m.layoutItem(s, ground, true)
	}
	m.scheduleContainerSync()
}

func (m *Manager) layoutItem(it *Item, r Rect, visible bool) {
	it.rect = clampRect(r)
	it.visible = visible
	switch it.kind {
	case config.TypeGround:
		for _, c := range it.ContentItems() {
			m.layoutItem(c, it.rect, visible)
		}
	case config.TypeRow, config.TypeColumn:
		m.layoutRowOrColumn(it)
	case config.TypeStack:
		m.layoutStack(it)
	case config.TypeComponent:
		if c := it.container; c != nil {
			c.place(it.rect, visible, m.zIndexFor(it))
		}
	}
}

func (m *Manager) zIndexFor(it *Item) LogicalZIndex {
	if d := m.dragging; d != nil && d.item == it {
		return ZIndexDrag
	}
	if s := m.maximised; s != nil && it.parent == s.ref {
		return ZIndexStackMaximised
	}
	return ZIndexBase
}

type absoluteSizes struct {
	itemSizes       []int
	additionalPixel int
	totalWidth      int
	totalHeight     int
}

func (m *Manager) calculateAbsoluteSizes(it *Item) absoluteSizes {
	column := it.IsColumn()
	n := len(it.children)
	splitters := 0
	if n > 1 {
		splitters = (n - 1) * m.dimensions.BorderWidth
	}
	out := absoluteSizes{totalWidth: it.rect.W, totalHeight: it.rect.H}
	if column {
		out.totalHeight = max(out.totalHeight-splitters, 0)
	} else {
		out.totalWidth = max(out.totalWidth-splitters, 0)
	}
	total := out.totalWidth
	if column {
		total = out.totalHeight
	}
	assigned := 0
	out.itemSizes = make([]int, n)
	for i, c := range it.ContentItems() {
		size := int(math.Floor(float64(total) * (*c.ratio(column) / 100)))
		out.itemSizes[i] = size
		assigned += size
	}
	out.additionalPixel = total - assigned
	return out
}

func (m *Manager) layoutRowOrColumn(it *Item) {
	it.splitters = it.splitters[:0]
	if len(it.children) == 0 {
		return
	}
	m.calculateRelativeSizes(it)
	sizes := m.calculateAbsoluteSizes(it)
	column := it.IsColumn()
	bw := m.dimensions.BorderWidth
	x, y := it.rect.X, it.rect.Y
	last := len(it.children) - 1
	for i, c := range it.ContentItems() {
		size := sizes.itemSizes[i]
		if sizes.additionalPixel-i > 0 {
			size++
		}
		if column {
			m.layoutItem(c, Rect{X: it.rect.X, Y: y, W: sizes.totalWidth, H: size}, it.visible)
			y += size
			if i < last {
				it.splitters = append(it.splitters, Rect{X: it.rect.X, Y: y, W: it.rect.W, H: bw})
				y += bw
			}
		} else {
			m.layoutItem(c, Rect{X: x, Y: it.rect.Y, W: size, H: sizes.totalHeight}, it.visible)
			x += size
			if i < last {
				it.splitters = append(it.splitters, Rect{X: x, Y: it.rect.Y, W: bw, H: it.rect.H})
				x += bw
			}
		}
	}
}

// calculateRelativeSizes makes the children's shares add up to 100.
// Children with no share (zero or less) split whatever is left; if
// nothing is left they get 50 each before everything is scaled down.
func (m *Manager) calculateRelativeSizes(it *Item) {
	column := it.IsColumn()
	total := 0.0
	var unset []*Item
	for _, c := range it.ContentItems() {
		if r := *c.ratio(column); r > 0 {
			total += r
		} else {
			unset = append(unset, c)
		}
	}

	if len(unset) == 0 && math.Abs(total-100) <= ratioEpsilon {
		m.respectMinItemWidth(it)
		return
	}
	if total < 100-ratioEpsilon && len(unset) > 0 {
		share := (100 - total) / float64(len(unset))
		for _, c := range unset {
			*c.ratio(column) = share
		}
		m.respectMinItemWidth(it)
		return
	}
	for _, c := range unset {
		*c.ratio(column) = 50
		total += 50
	}
	for _, c := range it.ContentItems() {
		*c.ratio(column) = *c.ratio(column) / total * 100
	}
	m.respectMinItemWidth(it)
}

func (m *Manager) minWidthOf(it *Item) int {
	return max(m.dimensions.MinItemWidth, int(math.Ceil(it.minWidth)))
}

func (m *Manager) minHeightOf(it *Item) int {
	return max(m.dimensions.MinItemHeight, int(math.Ceil(it.minHeight)))
}

// respectMinItemWidth widens row children below their minimum width by
// taking space from the others in proportion to their surplus. Nothing
// changes when the row is too narrow for every child to reach its
// minimum.
func (m *Manager) respectMinItemWidth(it *Item) {
	if !it.IsRow() || len(it.children) <= 1 {
		return
	}
	sizes := m.calculateAbsoluteSizes(it)
	if sizes.totalWidth <= 0 {
		return
	}

	type entry struct {
		width int
		min   int
		over  bool
	}
	entries := make([]entry, len(it.children))
	totalOverMin, totalUnderMin := 0, 0
	for i, c := range it.ContentItems() {
		size, minW := sizes.itemSizes[i], m.minWidthOf(c)
		if size < minW {
			totalUnderMin += minW - size
			entries[i] = entry{width: minW, min: minW}
		} else {
			totalOverMin += size - minW
			entries[i] = entry{width: size, min: minW, over: true}
		}
	}
	if totalUnderMin == 0 || totalUnderMin > totalOverMin {
		return
	}

	reduce := float64(totalUnderMin) / float64(totalOverMin)
	remaining := totalUnderMin
	widest := -1
	for i := range entries {
		e := &entries[i]
		if !e.over {
			continue
		}
		r := int(math.Round(float64(e.width-e.min) * reduce))
		remaining -= r
		e.width -= r
		if widest < 0 || e.width > entries[widest].width {
			widest = i
		}
	}
	if remaining != 0 && widest >= 0 {
		entries[widest].width -= remaining
	}

	sum := 0
	for _, e := range entries {
		sum += e.width
	}
	if sum <= 0 {
		return
	}
	for i, c := range it.ContentItems() {
		c.width = float64(entries[i].width) / float64(sum) * 100
	}
}

// effectiveHeader resolves a stack's header: its own config, else that
// of its only component, else the layout's.
func (m *Manager) effectiveHeader(stack *Item) config.ResolvedHeaderConfig {
	if stack.header != nil {
		return *stack.header
	}
	if len(stack.children) == 1 {
		if h := stack.child(0).header; h != nil {
			return *h
		}
	}
	return m.header
}

func (m *Manager) layoutStack(it *Item) {
	hdr := m.effectiveHeader(it)
	hh := m.dimensions.HeaderHeight
	r := it.rect
	var header, body Rect
	switch hdr.Show {
	case config.HeaderTop:
		hh = min(hh, r.H)
		header = Rect{X: r.X, Y: r.Y, W: r.W, H: hh}
		body = Rect{X: r.X, Y: r.Y + hh, W: r.W, H: r.H - hh}
	case config.HeaderBottom:
		hh = min(hh, r.H)
		body = Rect{X: r.X, Y: r.Y, W: r.W, H: r.H - hh}
		header = Rect{X: r.X, Y: r.Bottom() - hh, W: r.W, H: hh}
	case config.HeaderLeft:
		hh = min(hh, r.W)
		header = Rect{X: r.X, Y: r.Y, W: hh, H: r.H}
		body = Rect{X: r.X + hh, Y: r.Y, W: r.W - hh, H: r.H}
	case config.HeaderRight:
		hh = min(hh, r.W)
		body = Rect{X: r.X, Y: r.Y, W: r.W - hh, H: r.H}
		header = Rect{X: r.Right() - hh, Y: r.Y, W: hh, H: r.H}
	default:
		body = r
	}
	it.headerRect = clampRect(header)
	it.bodyRect = clampRect(body)
	m.layoutStackHeader(it)
	for _, c := range it.ContentItems() {
		m.layoutItem(c, it.bodyRect, it.visible && c.ref == it.active)
	}
}
