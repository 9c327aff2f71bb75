package layout

import (
	"github.com/mattn/go-runewidth"

	"docklayout/internal/config"
)

// Header cell metrics. A tab is its title plus padding, and a close
// glyph when the component can be closed.
const (
	tabPadding     = 2
	tabCloseWidth  = 2
	buttonWidth    = 3
	dropdownWidth  = 3
	sidedTabLength = 1
)

// HeaderButton identifies a header control.
type HeaderButton string

const (
	ButtonPopout   HeaderButton = "popout"
	ButtonMaximise HeaderButton = "maximise"
	ButtonMinimise HeaderButton = "minimise"
	ButtonClose    HeaderButton = "close"
	ButtonDropdown HeaderButton = "dropdown"
)

// Tab is one visible tab of a stack header.
type Tab struct {
	Item     *Item
	Index    int
	Rect     Rect
	Title    string
	Active   bool
	Focused  bool
	Closable bool
}

// Control is a header button and where it is drawn.
type Control struct {
	Button HeaderButton
	Label  string
	Rect   Rect
}

// HeaderLayout is the geometry of a stack header. Tabs that do not fit
// are listed in Hidden and reachable through the dropdown control.
type HeaderLayout struct {
	Side     string
	Rect     Rect
	Tabs     []Tab
	Hidden   []*Item
	Controls []Control
	Overlap  int
}

// Sided reports whether tabs run vertically.
func (h HeaderLayout) Sided() bool {
	return h.Side == config.HeaderLeft || h.Side == config.HeaderRight
}

func (m *Manager) tabLength(c *Item, sided bool) int {
	if sided {
		return sidedTabLength
	}
	n := runewidth.StringWidth(c.title) + tabPadding
	if c.isClosable {
		n += tabCloseWidth
	}
	return n
}

func (m *Manager) stackClosable(stack *Item) bool {
	if !stack.isClosable {
		return false
	}
	for _, c := range stack.ContentItems() {
		if !c.isClosable {
			return false
		}
	}
	return true
}

// layoutStackHeader positions tabs and controls along the header strip.
func (m *Manager) layoutStackHeader(stack *Item) {
	hdr := m.effectiveHeader(stack)
	hl := HeaderLayout{Side: hdr.Show, Rect: stack.headerRect}
	if hdr.Show == "" || hl.Rect.Empty() {
		stack.headerLayout = hl
		return
	}
	sided := hl.Sided()
	length := hl.Rect.W
	if sided {
		length = hl.Rect.H
	}
	ctrlLen := buttonWidth
	if sided {
		ctrlLen = 1
	}

	var buttons []Control
	if hdr.Popout != "" {
		buttons = append(buttons, Control{Button: ButtonPopout, Label: hdr.Popout})
	}
	if stack.IsMaximised() && hdr.Minimise != "" {
		buttons = append(buttons, Control{Button: ButtonMinimise, Label: hdr.Minimise})
	} else if !stack.IsMaximised() && hdr.Maximise != "" {
		buttons = append(buttons, Control{Button: ButtonMaximise, Label: hdr.Maximise})
	}
	if hdr.Close != "" && m.stackClosable(stack) {
		buttons = append(buttons, Control{Button: ButtonClose, Label: hdr.Close})
	}

	children := stack.ContentItems()
	lengths := make([]int, len(children))
	for i, c := range children {
		lengths[i] = m.tabLength(c, sided)
	}
	active := stack.ActiveItemIndex()
	avail := length - len(buttons)*ctrlLen - m.settings.TabControlOffset
	dropLen := dropdownWidth
	if sided {
		dropLen = 1
	}
	visible, overlap, overflow := fitTabs(lengths, active, avail, dropLen, m.settings.TabOverlapAllowance)
	hl.Overlap = overlap

	place := func(pos, n int) Rect {
		if sided {
			return Rect{X: hl.Rect.X, Y: hl.Rect.Y + pos, W: hl.Rect.W, H: n}
		}
		return Rect{X: hl.Rect.X + pos, Y: hl.Rect.Y, W: n, H: hl.Rect.H}
	}

	pos := 0
	first := true
	for i, c := range children {
		if !visible[i] {
			hl.Hidden = append(hl.Hidden, c)
			continue
		}
		if !first && overlap > 0 && i != active {
			pos -= overlap
		}
		first = false
		hl.Tabs = append(hl.Tabs, Tab{
			Item:     c,
			Index:    i,
			Rect:     place(pos, lengths[i]),
			Title:    c.title,
			Active:   i == active,
			Focused:  c.focused,
			Closable: c.isClosable,
		})
		pos += lengths[i]
	}

	end := length
	for i := len(buttons) - 1; i >= 0; i-- {
		end -= ctrlLen
		buttons[i].Rect = place(end, ctrlLen)
	}
	if overflow {
		end -= dropLen
		buttons = append([]Control{{Button: ButtonDropdown, Label: hdr.TabDropdown, Rect: place(end, dropLen)}}, buttons...)
	}
	hl.Controls = buttons
	stack.headerLayout = hl
}

// fitTabs decides which tabs fit into avail cells. The active tab is
// always shown. Tabs past the active one may overlap their neighbours by
// up to allowance cells; once that is not enough, every remaining tab but
// the active one moves to the dropdown, whose button takes dropLen cells.
func fitTabs(lengths []int, active, avail, dropLen, allowance int) (visible []bool, overlap int, overflow bool) {
	visible = make([]bool, len(lengths))
	total := 0
	for _, n := range lengths {
		total += n
	}
	if total <= avail {
		for i := range visible {
			visible[i] = true
		}
		return visible, 0, false
	}

	avail -= dropLen
	used := 0
	exceeded := false
	for i, n := range lengths {
		if exceeded {
			if i == active {
				visible[i] = true
			} else {
				overflow = true
			}
			continue
		}
		need := used + n
		if i < active {
			need += lengths[active]
		}
		if need <= avail {
			visible[i] = true
			used += n
			continue
		}
		sharers := i
		if active > 0 && active <= i {
			sharers = i - 1
		}
		if sharers > 0 {
			o := (need - avail + sharers - 1) / sharers
			if o <= allowance {
				visible[i] = true
				used += n
				overlap = o
				continue
			}
		}
		exceeded = true
		if i == active {
			visible[i] = true
		} else {
			overflow = true
		}
	}
	return visible, overlap, overflow
}

// headerDropIndex returns the tab index a drop at (x, y) inserts at.
func headerDropIndex(stack *Item, x, y int) int {
	hl := stack.headerLayout
	if len(hl.Tabs) == 0 {
		return 0
	}
	pos := x
	if hl.Sided() {
		pos = y
	}
	span := func(t Tab) (int, int) {
		if hl.Sided() {
			return t.Rect.Y, t.Rect.H
		}
		return t.Rect.X, t.Rect.W
	}
	if start, _ := span(hl.Tabs[0]); pos < start {
		return hl.Tabs[0].Index
	}
	for _, t := range hl.Tabs {
		start, size := span(t)
		if pos >= start && pos < start+size {
			if float64(pos-start)+0.5 < float64(size)/2 {
				return t.Index
			}
			return min(t.Index+1, len(stack.children))
		}
	}
	return min(hl.Tabs[len(hl.Tabs)-1].Index+1, len(stack.children))
}

// SelectFromDropdown activates a tab picked from the header dropdown,
// moving it to the front when reorderOnTabMenuClick is set.
func (m *Manager) SelectFromDropdown(item *Item) {
	stack := item.Parent()
	invariant(stack != nil && stack.IsStack(), "SFD11802", "item is not in a stack")
	if m.settings.ReorderOnTabMenuClick {
		if i := stack.indexOf(item); i > 0 {
			stack.children = append(stack.children[:i:i], stack.children[i+1:]...)
			stack.children = append([]Ref{item.ref}, stack.children...)
		}
	}
	m.setActiveComponentItem(stack, item, true, false)
	m.updateLayout()
	m.emitBubbling(stack, EventStateChanged)
}
