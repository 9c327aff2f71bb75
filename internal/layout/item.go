package layout

import (
	"slices"

	"docklayout/internal/config"
)

// Ref indexes an item in its manager's arena. Refs are only meaningful
// to the manager that issued them; a released slot may be reused.
type Ref int32

// NoRef is the zero link.
const NoRef Ref = -1

// DropSegment names the part of a stack a dragged item hovers over.
type DropSegment string

const (
	SegmentNone   DropSegment = ""
	SegmentHeader DropSegment = "header"
	SegmentBody   DropSegment = "body"
	SegmentLeft   DropSegment = "left"
	SegmentRight  DropSegment = "right"
	SegmentTop    DropSegment = "top"
	SegmentBottom DropSegment = "bottom"
)

// Item is a node of the layout tree. Which fields carry meaning depends
// on Type; methods that only apply to one type panic with an
// AssertError when called on another.
type Item struct {
	Emitter

	m        *Manager
	ref      Ref
	kind     config.ItemType
	parent   Ref
	children []Ref

	id         string
	width      float64
	height     float64
	minWidth   float64
	minHeight  float64
	isClosable bool
	header     *config.ResolvedHeaderConfig

	// stack
	active        Ref
	initialActive int
	wantMaximise  bool
	hasFocus      bool
	dropSegment   DropSegment
	dropIndex     int
	headerLayout  HeaderLayout

	// component
	componentType  string
	title          string
	state          any
	reorderEnabled bool
	container      *Container
	focused        bool

	// row / column
	splitters []Rect

	rect           Rect
	headerRect     Rect
	bodyRect       Rect
	visible        bool
	initialised    bool
	destroyed      bool
	popInParentIDs []string
}

func (it *Item) Type() config.ItemType { return it.kind }
func (it *Item) Ref() Ref { return it.ref }
func (it *Item) ID() string { return it.id }
func (it *Item) IsGround() bool { return it.kind == config.TypeGround }
func (it *Item) IsRow() bool { return it.kind == config.TypeRow }
func (it *Item) IsColumn() bool { return it.kind == config.TypeColumn }
func (it *Item) IsStack() bool { return it.kind == config.TypeStack }
func (it *Item) IsComponent() bool { return it.kind == config.TypeComponent }
func (it *Item) IsClosable() bool { return it.isClosable }
func (it *Item) Initialised() bool { return it.initialised }
func (it *Item) Destroyed() bool { return it.destroyed }

// Width and Height are the item's share of its parent in percent.
func (it *Item) Width() float64 { return it.width }
func (it *Item) Height() float64 { return it.height }

func (it *Item) MinWidth() float64 { return it.minWidth }
func (it *Item) MinHeight() float64 { return it.minHeight }

// Rect is the region the item was last laid out into.
func (it *Item) Rect() Rect { return it.rect }

// Visible reports whether the item is shown: every ancestor is shown
// and, inside a stack, the item is the active one.
func (it *Item) Visible() bool { return it.visible }

// Parent returns nil for the ground and for detached items.
func (it *Item) Parent() *Item {
	return it.m.get(it.parent)
}

// ContentItems returns the children in order.
func (it *Item) ContentItems() []*Item {
	out := make([]*Item, len(it.children))
	for i, r := range it.children {
		out[i] = it.m.items[r]
	}
	return out
}

// Index returns the item's position within its parent, or -1.
func (it *Item) Index() int {
	p := it.Parent()
	if p == nil {
		return -1
	}
	return p.indexOf(it)
}

func (it *Item) indexOf(child *Item) int {
	return slices.Index(it.children, child.ref)
}

func (it *Item) child(i int) *Item {
	return it.m.items[it.children[i]]
}

// PopInParentIDs lists the pop-out ids that will dock back into this item.
func (it *Item) PopInParentIDs() []string {
	return slices.Clone(it.popInParentIDs)
}

func (it *Item) addPopInParentID(id string) {
	if !slices.Contains(it.popInParentIDs, id) {
		it.popInParentIDs = append(it.popInParentIDs, id)
	}
}

func (it *Item) removePopInParentID(id string) {
	it.popInParentIDs = slices.DeleteFunc(it.popInParentIDs, func(s string) bool { return s == id })
}

// ratio returns the size field a row (width) or column (height) divides.
func (it *Item) ratio(column bool) *float64 {
	if column {
		return &it.height
	}
	return &it.width
}

// Title returns a component's tab title.
func (it *Item) Title() string { return it.title }

// SetTitle changes a component's title.
func (it *Item) SetTitle(title string) {
	invariant(it.IsComponent(), "IST10394", "SetTitle on %s", it.kind)
	if it.title == title {
		return
	}
	it.title = title
	if p := it.Parent(); p != nil && p.IsStack() {
		it.m.layoutStackHeader(p)
	}
	it.m.emitBubbling(it, "titleChanged", title)
	it.m.emitBubbling(it, EventStateChanged)
}

func (it *Item) ComponentType() string { return it.componentType }
func (it *Item) ReorderEnabled() bool { return it.reorderEnabled }

// Container returns a component's container.
func (it *Item) Container() *Container { return it.container }

// Focused reports whether the component has focus, or for a stack,
// whether the focused component is one of its children.
func (it *Item) Focused() bool {
	if it.IsStack() {
		return it.hasFocus
	}
	return it.focused
}

// ActiveComponentItem returns a stack's shown child.
func (it *Item) ActiveComponentItem() *Item {
	return it.m.get(it.active)
}

// ActiveItemIndex returns the index of a stack's shown child, 0 when empty.
func (it *Item) ActiveItemIndex() int {
	if a := it.ActiveComponentItem(); a != nil {
		return it.indexOf(a)
	}
	return 0
}

// IsMaximised reports whether the stack fills the layout.
func (it *Item) IsMaximised() bool {
	return it.m.maximised == it
}

// Splitters returns the splitter bars of a row or column in order.
func (it *Item) Splitters() []Rect {
	return slices.Clone(it.splitters)
}

// Header returns a stack's header geometry.
func (it *Item) Header() HeaderLayout {
	return it.headerLayout
}

// HeaderRect and BodyRect split a stack's rect.
func (it *Item) HeaderRect() Rect { return it.headerRect }
func (it *Item) BodyRect() Rect { return it.bodyRect }

// DropTarget reports the segment and tab index a drop would land on.
func (it *Item) DropTarget() (DropSegment, int) {
	return it.dropSegment, it.dropIndex
}

// Remove detaches and destroys the item.
func (it *Item) Remove() {
	p := it.Parent()
	invariant(p != nil, "IR55821", "remove of detached %s", it.kind)
	it.m.removeChild(p, it, false)
}

// AddChild inserts child (a detached item) at index; -1 appends.
func (it *Item) AddChild(child *Item, index int) int {
	return it.m.addChild(it, child, index, false)
}

// SetActiveComponentItem shows child in a stack.
func (it *Item) SetActiveComponentItem(child *Item, focus bool) {
	it.m.setActiveComponentItem(it, child, focus, false)
}

// Focus focuses a component and activates its tab.
func (it *Item) Focus() {
	it.m.focusComponent(it, false)
}

// Blur removes focus from a component if it has it.
func (it *Item) Blur() {
	if it.focused {
		it.m.setFocusedComponentItem(nil, false)
	}
}

// Close removes a closable item. It reports whether anything happened.
func (it *Item) Close() bool {
	if !it.isClosable || it.Parent() == nil {
		return false
	}
	if it.IsComponent() && it.container != nil {
		it.container.Emit(&Event{Name: "close", Target: it})
	}
	it.Remove()
	return true
}

// Maximise fills the layout with a stack.
func (it *Item) Maximise() {
	invariant(it.IsStack(), "IM44120", "maximise on %s", it.kind)
	it.m.setMaximisedStack(it)
}

// Minimise restores a maximised stack.
func (it *Item) Minimise() {
	if it.IsMaximised() {
		it.m.setMaximisedStack(nil)
	}
}

// ToggleMaximise flips the maximised state of a stack.
func (it *Item) ToggleMaximise() {
	if it.IsMaximised() {
		it.Minimise()
	} else {
		it.Maximise()
	}
}

// ToConfig snapshots the item and its subtree.
func (it *Item) ToConfig() config.ResolvedItemConfig {
	return it.m.itemConfig(it)
}

// Popout moves the item into a new window.
func (it *Item) Popout() (*Popout, error) {
	return it.m.CreatePopout(it)
}

func (m *Manager) get(r Ref) *Item {
	if r < 0 || int(r) >= len(m.items) {
		return nil
	}
	return m.items[r]
}

func (m *Manager) alloc(kind config.ItemType) *Item {
	it := &Item{
		m:      m,
		kind:   kind,
		parent: NoRef,
		active: NoRef,
	}
	if n := len(m.free); n > 0 {
		it.ref = m.free[n-1]
		m.free = m.free[:n-1]
		m.items[it.ref] = it
	} else {
		it.ref = Ref(len(m.items))
		m.items = append(m.items, it)
	}
	return it
}

func (m *Manager) release(it *Item) {
	if m.items[it.ref] != it {
		return
	}
	m.items[it.ref] = nil
	m.free = append(m.free, it.ref)
}

// liveItems returns every allocated item, attached or not.
func (m *Manager) liveItems() []*Item {
	out := make([]*Item, 0, len(m.items))
	for _, it := range m.items {
		if it != nil {
			out = append(out, it)
		}
	}
	return out
}
