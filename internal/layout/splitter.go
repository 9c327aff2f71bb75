package layout

import "docklayout/internal/drag"

// SplitterDrag resizes the two children on either side of a splitter.
// Offsets are clamped so neither side drops below its minimum size.
type SplitterDrag struct {
	m        *Manager
	parent   *Item
	index    int
	position int
	min, max int
	done     bool
}

// SplitterAt returns the row or column whose splitter grab area covers
// (x, y) and the splitter's index. The innermost match wins.
func (m *Manager) SplitterAt(x, y int) (*Item, int, bool) {
	var (
		found *Item
		index int
	)
	grow := max(m.dimensions.BorderGrabWidth-m.dimensions.BorderWidth, 0) / 2
	m.walk(m.ground, func(it *Item) bool {
		if !it.visible {
			return true
		}
		for i, s := range it.splitters {
			g := s
			if it.IsColumn() {
				g.Y -= grow
				g.H += 2 * grow
			} else {
				g.X -= grow
				g.W += 2 * grow
			}
			if g.Contains(x, y) {
				found, index = it, i
			}
		}
		return true
	})
	return found, index, found != nil
}

// StartSplitterDrag begins dragging splitter index of a row or column.
func (m *Manager) StartSplitterDrag(parent *Item, index int) *SplitterDrag {
	invariant(parent.IsRow() || parent.IsColumn(), "SSD40001", "splitter on %s", parent.kind)
	invariant(index >= 0 && index+1 < len(parent.children), "SSD40002", "splitter %d out of range", index)
	before, after := parent.child(index), parent.child(index+1)
	var beforeSize, afterSize, beforeMin, afterMin int
	if parent.IsColumn() {
		beforeSize, afterSize = before.rect.H, after.rect.H
		beforeMin, afterMin = m.minHeightOf(before), m.minHeightOf(after)
	} else {
		beforeSize, afterSize = before.rect.W, after.rect.W
		beforeMin, afterMin = m.minWidthOf(before), m.minWidthOf(after)
	}
	return &SplitterDrag{
		m:      m,
		parent: parent,
		index:  index,
		min:    min(-(beforeSize - beforeMin), 0),
		max:    max(afterSize-afterMin, 0),
	}
}

// Move sets the splitter offset from its starting position.
func (d *SplitterDrag) Move(offset int) {
	d.position = min(max(offset, d.min), d.max)
}

// Position returns the clamped offset.
func (d *SplitterDrag) Position() int { return d.position }

// Bounds returns the allowed offset range.
func (d *SplitterDrag) Bounds() (int, int) { return d.min, d.max }

// End applies the offset by moving share from one side to the other.
func (d *SplitterDrag) End() {
	if d.done {
		return
	}
	d.done = true
	p := d.parent
	if p.destroyed || d.index+1 >= len(p.children) {
		return
	}
	before, after := p.child(d.index), p.child(d.index+1)
	column := p.IsColumn()
	sizeBefore, sizeAfter := before.rect.W, after.rect.W
	if column {
		sizeBefore, sizeAfter = before.rect.H, after.rect.H
	}
	if sizeBefore+sizeAfter <= 0 {
		return
	}
	inRange := float64(d.position+sizeBefore) / float64(sizeBefore+sizeAfter)
	total := *before.ratio(column) + *after.ratio(column)
	*before.ratio(column) = inRange * total
	*after.ratio(column) = (1 - inRange) * total
	d.m.updateLayout()
	d.m.emitBubbling(p, EventStateChanged)
}

// Cancel abandons the drag without resizing.
func (d *SplitterDrag) Cancel() { d.done = true }

// NewSplitterDrag wires a gesture listener to a splitter.
func (m *Manager) NewSplitterDrag(parent *Item, index int, opts ...drag.Option) *drag.Listener {
	var sd *SplitterDrag
	return drag.NewListener(m.sched, drag.Handlers{
		OnStart: func(int, int) { sd = m.StartSplitterDrag(parent, index) },
		OnDrag: func(dx, dy int, _ drag.Point) {
			if parent.IsColumn() {
				sd.Move(dy)
			} else {
				sd.Move(dx)
			}
		},
		OnStop: func(_ drag.Point, cancelled bool) {
			if cancelled {
				sd.Cancel()
			} else {
				sd.End()
			}
		},
	}, opts...)
}
