package layout

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"docklayout/internal/trace"
)

// DragProxy carries a component that has been lifted out of the tree
// while the pointer moves. It ends with Drop or Cancel.
type DragProxy struct {
	m              *Manager
	item           *Item
	originalParent *Item
	wasFocused     bool

	x, y          int
	area          *Area
	lastValidArea *Area
	highlight     Rect
	done          bool

	minX, minY, maxX, maxY int

	ctx  context.Context
	span oteltrace.Span
}

// StartComponentDrag lifts item out of its stack and starts tracking the
// pointer at (x, y).
func (m *Manager) StartComponentDrag(item *Item, x, y int) (*DragProxy, error) {
	if m.dragging != nil {
		return nil, &APIError{Op: "drag", Message: "a drag is already in progress"}
	}
	if !item.IsComponent() {
		return nil, &APIError{Op: "drag", Message: "only components can be dragged"}
	}
	if !m.settings.ReorderEnabled || !item.reorderEnabled {
		return nil, &APIError{Op: "drag", Message: "reordering is disabled"}
	}
	return m.startDrag(item, item.Parent(), x, y), nil
}

func (m *Manager) startDrag(item, originalParent *Item, x, y int) *DragProxy {
	ctx, span := trace.Start(m.ctx, "layout.drag",
		attribute.String("component", item.componentType))
	p := &DragProxy{
		m:              m,
		item:           item,
		originalParent: originalParent,
		wasFocused:     item.focused,
		ctx:            ctx,
		span:           span,
	}
	m.dragging = p
	if p.wasFocused {
		m.setFocusedComponentItem(nil, false)
	}
	if originalParent != nil && item.parent == originalParent.ref {
		m.removeChild(originalParent, item, true)
	}
	if c := item.container; c != nil {
		c.place(c.rect, false, ZIndexDrag)
	}
	m.emitManager(EventDragStart, item)

	g := m.ground.rect
	p.minX, p.minY, p.maxX, p.maxY = g.X, g.Y, g.Right(), g.Bottom()
	m.calculateItemAreas()
	p.setDropPosition(x, y)
	return p
}

// Item returns the component being dragged.
func (p *DragProxy) Item() *Item { return p.item }

// Position is the pointer position after any clamping.
func (p *DragProxy) Position() (int, int) { return p.x, p.y }

// Area returns the current drop candidate, or nil.
func (p *DragProxy) Area() *Area { return p.area }

// Highlight is the region a drop would fill.
func (p *DragProxy) Highlight() Rect { return p.highlight }

// Rect is where the proxy itself is drawn.
func (p *DragProxy) Rect() Rect {
	d := p.m.dimensions
	return Rect{X: p.x, Y: p.y, W: d.DragProxyWidth, H: d.DragProxyHeight}
}

// Move follows the pointer.
func (p *DragProxy) Move(x, y int) {
	if p.done {
		return
	}
	p.setDropPosition(x, y)
	p.m.emitManager(EventItemDragged, p.item)
}

func (p *DragProxy) setDropPosition(x, y int) {
	if p.m.settings.ConstrainDragToContainer && p.maxX > p.minX && p.maxY > p.minY {
		x = min(max(x, p.minX), p.maxX-1)
		y = min(max(y, p.minY), p.maxY-1)
	}
	p.x, p.y = x, y
	p.area = p.m.getArea(x, y)
	if p.area != nil {
		a := *p.area
		p.lastValidArea = &a
		p.highlight = p.m.highlightDropZone(p.area, x, y)
	} else {
		p.highlight = Rect{}
	}
}

// Drop docks the item into the current area. With no current area the
// last valid one is used, then the original parent; failing all of those
// the item is destroyed.
func (p *DragProxy) Drop() {
	p.finish(false)
}

// Cancel returns the item to its original parent, or destroys it when
// that parent is gone.
func (p *DragProxy) Cancel() {
	p.finish(true)
}

func (p *DragProxy) finish(cancelled bool) {
	if p.done {
		return
	}
	p.done = true
	m := p.m
	m.dragging = nil
	defer p.span.End()
	defer func() { m.areas = m.areas[:0] }()

	var dropped bool
	outcome := "destroyed"
	switch {
	case !cancelled && p.area != nil && m.onDrop(p.area, p.item):
		dropped, outcome = true, "area"
	case !cancelled && p.lastValidArea != nil && m.onDrop(p.lastValidArea, p.item):
		dropped, outcome = true, "last-area"
	case p.originalParent != nil && !p.originalParent.destroyed &&
		!(p.originalParent.IsGround() && len(p.originalParent.children) > 0):
		m.addChild(p.originalParent, p.item, -1, false)
		dropped, outcome = true, "origin"
	default:
		m.destroy(p.item)
	}
	p.span.SetAttributes(attribute.String("outcome", outcome), attribute.Bool("cancelled", cancelled))
	m.logger.Debug("drag finished", "component", p.item.componentType, "outcome", outcome)

	m.updateLayout()
	m.emitManager(EventDragStop, p.item)
	m.emitManager(EventItemDropped, p.item)
	if dropped && p.wasFocused && !p.item.destroyed {
		m.focusComponent(p.item, false)
	}
}

// Dragging returns the drag in progress, or nil.
func (m *Manager) Dragging() *DragProxy {
	return m.dragging
}
