package layout

import (
	"docklayout/internal/config"
)

// AreaKind says what an Area drops onto.
type AreaKind int

const (
	AreaGround AreaKind = iota
	AreaSide
	AreaStack
	AreaHeader
)

// Side names an edge strip of the ground: x1 right, x2 left, y1 bottom,
// y2 top. The digit is the rect edge that is moved inwards.
type Side string

const (
	SideNone   Side = ""
	SideLeft   Side = "x2"
	SideRight  Side = "x1"
	SideTop    Side = "y2"
	SideBottom Side = "y1"
)

// Area is a drop candidate computed when a drag starts.
type Area struct {
	Kind    AreaKind
	Rect    Rect
	Surface int
	Side    Side
	Item    *Item
}

// Areas returns the drop candidates of the drag in progress.
func (m *Manager) Areas() []Area {
	return append([]Area(nil), m.areas...)
}

// calculateItemAreas snapshots the drop candidates. An empty layout only
// offers the ground. Otherwise every visible stack offers itself and its
// header, and unless the root is a stack the ground offers its four edge
// strips. While a stack is maximised only that stack is offered.
func (m *Manager) calculateItemAreas() {
	m.areas = m.areas[:0]
	root := m.Root()
	if root == nil {
		m.areas = append(m.areas, Area{Kind: AreaGround, Rect: m.ground.rect, Surface: m.ground.rect.Area(), Item: m.ground})
		return
	}
	stacks := m.AllStacks()
	if s := m.maximised; s != nil {
		stacks = []*Item{s}
	} else if !root.IsStack() {
		m.areas = append(m.areas, m.createSideAreas()...)
	}
	for _, s := range stacks {
		if !s.visible || s.rect.Empty() {
			continue
		}
		m.areas = append(m.areas, Area{Kind: AreaStack, Rect: s.rect, Surface: s.rect.Area(), Item: s})
		if h := s.headerRect; !h.Empty() {
			m.areas = append(m.areas, Area{Kind: AreaHeader, Rect: h, Surface: h.Area(), Item: s})
		}
	}
}

func (m *Manager) createSideAreas() []Area {
	g := m.ground.rect
	size := m.sideArea
	strip := func(side Side) Rect {
		switch side {
		case SideTop:
			return Rect{X: g.X, Y: g.Y, W: g.W, H: min(size, g.H)}
		case SideBottom:
			h := min(size, g.H)
			return Rect{X: g.X, Y: g.Bottom() - h, W: g.W, H: h}
		case SideLeft:
			return Rect{X: g.X, Y: g.Y, W: min(size, g.W), H: g.H}
		default:
			w := min(size, g.W)
			return Rect{X: g.Right() - w, Y: g.Y, W: w, H: g.H}
		}
	}
	out := make([]Area, 0, 4)
	for _, side := range []Side{SideTop, SideLeft, SideBottom, SideRight} {
		r := strip(side)
		out = append(out, Area{Kind: AreaSide, Rect: r, Surface: r.Area(), Side: side, Item: m.ground})
	}
	return out
}

// getArea returns the candidate containing (x, y) with the smallest
// surface. On a tie the first one found wins.
func (m *Manager) getArea(x, y int) *Area {
	var match *Area
	for i := range m.areas {
		a := &m.areas[i]
		if a.Rect.Contains(x, y) && (match == nil || a.Surface < match.Surface) {
			match = a
		}
	}
	return match
}

// highlightDropZone records which part of the area a drop would land on
// and returns the rect to highlight.
func (m *Manager) highlightDropZone(a *Area, x, y int) Rect {
	if !a.Item.IsStack() {
		return a.Rect
	}
	stack := a.Item
	seg := stackSegmentAt(stack, x, y)
	stack.dropSegment = seg
	body := stack.bodyRect
	switch seg {
	case SegmentHeader:
		stack.dropIndex = headerDropIndex(stack, x, y)
		return stack.headerRect
	case SegmentBody:
		return body
	case SegmentLeft:
		return Rect{X: body.X, Y: body.Y, W: body.W / 2, H: body.H}
	case SegmentRight:
		return Rect{X: body.X + body.W/2, Y: body.Y, W: body.W - body.W/2, H: body.H}
	case SegmentTop:
		return Rect{X: body.X, Y: body.Y, W: body.W, H: body.H / 2}
	case SegmentBottom:
		return Rect{X: body.X, Y: body.Y + body.H/2, W: body.W, H: body.H - body.H/2}
	}
	return Rect{}
}

// stackSegmentAt splits a stack for dropping: the header, the whole body
// when the stack is empty, else the left and right quarters and the top
// and bottom halves of the middle.
func stackSegmentAt(stack *Item, x, y int) DropSegment {
	if stack.headerRect.Contains(x, y) {
		return SegmentHeader
	}
	body := stack.bodyRect
	if !body.Contains(x, y) {
		return SegmentNone
	}
	if len(stack.children) == 0 {
		return SegmentBody
	}
	fx := float64(x-body.X) + 0.5
	fy := float64(y-body.Y) + 0.5
	w, h := float64(body.W), float64(body.H)
	switch {
	case fx < w*0.25:
		return SegmentLeft
	case fx >= w*0.75:
		return SegmentRight
	case fy < h*0.5:
		return SegmentTop
	default:
		return SegmentBottom
	}
}

// onDrop docks a detached component into the area. It reports false when
// the area no longer accepts anything.
func (m *Manager) onDrop(a *Area, item *Item) bool {
	if a.Item.destroyed {
		return false
	}
	switch {
	case a.Item.IsStack():
		return m.stackOnDrop(a.Item, item)
	case a.Item.IsGround():
		m.groundOnDrop(a, item)
		return true
	}
	return false
}

func (m *Manager) wrapInStack(item *Item, header *config.ResolvedHeaderConfig, parent *Item) *Item {
	if !item.IsComponent() {
		return item
	}
	cfg := config.DefaultStack()
	cfg.Header = cloneHeader(header)
	stack, err := m.createContentItem(cfg, parent)
	invariant(err == nil, "WIS30012", "create stack: %v", err)
	m.stackAddChild(stack, item, -1, false)
	return stack
}

func (m *Manager) stackOnDrop(stack, item *Item) bool {
	switch stack.dropSegment {
	case SegmentNone:
		return false
	case SegmentHeader:
		m.stackAddChild(stack, item, min(stack.dropIndex, len(stack.children)), false)
		return true
	case SegmentBody:
		m.stackAddChild(stack, item, 0, true)
		return true
	}

	seg := stack.dropSegment
	vertical := seg == SegmentTop || seg == SegmentBottom
	insertBefore := seg == SegmentTop || seg == SegmentLeft
	parent := stack.Parent()
	hasCorrectParent := (vertical && parent.IsColumn()) || (!vertical && parent.IsRow())

	dropped := m.wrapInStack(item, stack.header, parent)
	if hasCorrectParent {
		index := parent.indexOf(stack)
		if !insertBefore {
			index++
		}
		m.addChild(parent, dropped, index, true)
		*stack.ratio(vertical) *= 0.5
		*dropped.ratio(vertical) = *stack.ratio(vertical)
	} else {
		kind := config.TypeRow
		if vertical {
			kind = config.TypeColumn
		}
		rc, err := m.createContentItem(config.DefaultRowOrColumn(kind), parent)
		invariant(err == nil, "SOD30013", "create %s: %v", kind, err)
		m.replaceChild(parent, stack, rc, false)
		if insertBefore {
			m.addChild(rc, dropped, 0, true)
			m.addChild(rc, stack, -1, true)
		} else {
			m.addChild(rc, stack, 0, true)
			m.addChild(rc, dropped, -1, true)
		}
		*stack.ratio(vertical) = 50
		*dropped.ratio(vertical) = 50
	}
	m.updateLayout()
	m.emitBubbling(stack, EventStateChanged)
	return true
}

func (m *Manager) groundOnDrop(a *Area, item *Item) {
	g := m.ground
	dropped := m.wrapInStack(item, nil, g)
	if len(g.children) == 0 {
		m.addChild(g, dropped, -1, false)
		return
	}

	horizontal := a.Side == SideLeft || a.Side == SideRight
	insertBefore := a.Side == SideLeft || a.Side == SideTop
	kind := config.TypeColumn
	if horizontal {
		kind = config.TypeRow
	}
	vertical := !horizontal
	root := g.child(0)

	if root.kind != kind {
		rc, err := m.createContentItem(config.DefaultRowOrColumn(kind), g)
		invariant(err == nil, "GOD30014", "create %s: %v", kind, err)
		m.replaceChild(g, root, rc, false)
		if insertBefore {
			m.addChild(rc, dropped, 0, true)
			m.addChild(rc, root, -1, true)
		} else {
			m.addChild(rc, root, 0, true)
			m.addChild(rc, dropped, -1, true)
		}
		*root.ratio(vertical) = 50
		*dropped.ratio(vertical) = 50
	} else {
		sibling := root.child(len(root.children) - 1)
		index := -1
		if insertBefore {
			sibling = root.child(0)
			index = 0
		}
		m.addChild(root, dropped, index, true)
		*sibling.ratio(vertical) *= 0.5
		*dropped.ratio(vertical) = *sibling.ratio(vertical)
	}
	m.updateLayout()
	m.emitBubbling(g, EventStateChanged)
}
