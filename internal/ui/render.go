package ui

import (
	"docklayout/internal/layout"
	"docklayout/internal/ui/textutil"
)

// Viewer is implemented by components that draw into their container.
type Viewer interface {
	View(width, height int) string
}

// EmptyMessage is drawn when the layout has no content.
const EmptyMessage = "empty layout · SPC t n opens a pane"

// Overlay is the transient interaction state drawn over the layout.
type Overlay struct {
	// Splitter is the row or column whose splitter is being dragged.
	Splitter      *layout.Item
	SplitterIndex int
	// Menu is the stack whose tab dropdown is open.
	Menu         *layout.Item
	MenuSelected int
}

// Render paints the layout m manages onto c.
func Render(c *Canvas, m *layout.Manager, o Overlay) {
	if s := m.MaximisedStack(); s != nil {
		drawStack(c, s)
	} else if root := m.Root(); root != nil {
		drawItem(c, root)
	} else if m.Dragging() == nil {
		w, h := c.Size()
		msg, off := textutil.Center(EmptyMessage, w)
		c.Text(off, h/2, w, msg, PaintBody)
	}

	if o.Splitter != nil && !o.Splitter.Destroyed() {
		if sp := o.Splitter.Splitters(); o.SplitterIndex < len(sp) {
			c.Restyle(sp[o.SplitterIndex], PaintSplitterActive)
		}
	}
	if p := m.Dragging(); p != nil {
		drawProxy(c, p)
	}
	if o.Menu != nil {
		drawMenu(c, o.Menu, o.MenuSelected)
	}
}

func drawItem(c *Canvas, it *layout.Item) {
	if !it.Visible() {
		return
	}
	switch {
	case it.IsStack():
		drawStack(c, it)
		return
	case it.IsRow():
		for _, r := range it.Splitters() {
			c.Fill(r, GlyphSplitRow, PaintSplitter)
		}
	case it.IsColumn():
		for _, r := range it.Splitters() {
			c.Fill(r, GlyphSplitCol, PaintSplitter)
		}
	}
	for _, child := range it.ContentItems() {
		drawItem(c, child)
	}
}

func drawStack(c *Canvas, s *layout.Item) {
	hl := s.Header()
	if !hl.Rect.Empty() {
		drawHeader(c, hl)
	}
	active := s.ActiveComponentItem()
	if active == nil {
		c.Fill(s.BodyRect(), " ", PaintBody)
		return
	}
	body := active.Rect()
	c.Fill(body, " ", PaintBody)
	if body.W <= 0 || body.H <= 0 || active.Container() == nil {
		return
	}
	if v, ok := active.Container().Component().(Viewer); ok {
		c.Block(body, v.View(body.W, body.H), PaintBody)
	}
}

func drawHeader(c *Canvas, hl layout.HeaderLayout) {
	c.Fill(hl.Rect, " ", PaintHeader)
	for _, t := range hl.Tabs {
		p := PaintTab
		switch {
		case t.Focused:
			p = PaintTabFocused
		case t.Active:
			p = PaintTabActive
		}
		c.Fill(t.Rect, " ", p)
		if hl.Sided() {
			initial := []rune(t.Title + " ")[0]
			c.Text(t.Rect.X, t.Rect.Y, t.Rect.W, string(initial), p)
			continue
		}
		room := t.Rect.W - 2
		if t.Closable {
			room -= 2
			c.Text(t.Rect.Right()-2, t.Rect.Y, 1, GlyphClose, p)
		}
		if room > 0 {
			c.TextTruncated(t.Rect.X+1, t.Rect.Y, room, t.Title, p)
		}
	}
	for _, ctl := range hl.Controls {
		x := ctl.Rect.X + (ctl.Rect.W-1)/2
		y := ctl.Rect.Y + (ctl.Rect.H-1)/2
		c.Text(x, y, 1, controlGlyph(ctl.Button), PaintControl)
	}
}

func controlGlyph(b layout.HeaderButton) string {
	switch b {
	case layout.ButtonPopout:
		return GlyphPopout
	case layout.ButtonMaximise:
		return GlyphMaximise
	case layout.ButtonMinimise:
		return GlyphMinimise
	case layout.ButtonClose:
		return GlyphClose
	case layout.ButtonDropdown:
		return GlyphDropdown
	}
	return "?"
}

func drawProxy(c *Canvas, p *layout.DragProxy) {
	if hl := p.Highlight(); !hl.Empty() {
		c.Restyle(hl, PaintHighlight)
	}
	// The proxy is a one-line label at the pointer.
	r := p.Rect()
	w, h := c.Size()
	r.W = min(r.W, w-r.X)
	r.H = 1
	if r.W <= 0 || r.Y >= h {
		return
	}
	c.Fill(r, " ", PaintProxy)
	c.TextTruncated(r.X, r.Y, r.W, GlyphDragProxy+" "+p.Item().Title(), PaintProxy)
}

// MenuRect returns where the tab dropdown of stack s is drawn and the
// items it lists.
func MenuRect(s *layout.Item, canvasW, canvasH int) (layout.Rect, []*layout.Item) {
	hl := s.Header()
	items := hl.Hidden
	if len(items) == 0 {
		return layout.Rect{}, nil
	}
	var anchor layout.Rect
	for _, ctl := range hl.Controls {
		if ctl.Button == layout.ButtonDropdown {
			anchor = ctl.Rect
		}
	}
	w := 0
	for _, it := range items {
		w = max(w, textutil.VisualWidth(it.Title()))
	}
	r := layout.Rect{X: anchor.X, Y: anchor.Bottom(), W: w + 2, H: len(items)}
	r.W = min(r.W, canvasW)
	r.H = min(r.H, max(canvasH-r.Y, 0))
	r.X = max(0, min(r.X, canvasW-r.W))
	return r, items
}

func drawMenu(c *Canvas, s *layout.Item, selected int) {
	w, h := c.Size()
	r, items := MenuRect(s, w, h)
	for i, it := range items {
		if i >= r.H {
			break
		}
		p := PaintMenu
		if i == selected {
			p = PaintMenuSelected
		}
		row := layout.Rect{X: r.X, Y: r.Y + i, W: r.W, H: 1}
		c.Fill(row, " ", p)
		c.TextTruncated(r.X+1, row.Y, r.W-2, it.Title(), p)
	}
}
