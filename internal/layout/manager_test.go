package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docklayout/internal/config"
	"docklayout/internal/tick"
)

type testComponent struct {
	c        *Container
	state    any
	released bool
}

func (tc *testComponent) Release() { tc.released = true }

type virtualComponent struct {
	testComponent
	rects   []Rect
	visible []bool
	zs      []LogicalZIndex
}

func (v *virtualComponent) SetRect(r Rect) { v.rects = append(v.rects, r) }
func (v *virtualComponent) SetVisible(b bool) { v.visible = append(v.visible, b) }
func (v *virtualComponent) SetZIndex(z LogicalZIndex) { v.zs = append(v.zs, z) }

type harness struct {
	m     *Manager
	sched *tick.Manual
	reg   *Registry
}

func newHarness(t *testing.T, opts ...func(*Options)) *harness {
	t.Helper()
	h := &harness{sched: tick.NewManual(), reg: NewRegistry()}
	require.NoError(t, h.reg.Register("text", func(c *Container, state any) (any, error) {
		return &testComponent{c: c, state: state}, nil
	}))
	require.NoError(t, h.reg.RegisterVirtual("virtual", func(c *Container, state any) (any, error) {
		return &virtualComponent{testComponent: testComponent{c: c, state: state}}, nil
	}))
	o := Options{Binder: h.reg, Scheduler: h.sched}
	for _, f := range opts {
		f(&o)
	}
	h.m = NewManager(o)
	h.m.SetSize(200, 100)
	return h
}

func (h *harness) load(t *testing.T, root config.ItemConfig) {
	t.Helper()
	h.loadConfig(t, config.LayoutConfig{Root: &root})
}

func (h *harness) loadConfig(t *testing.T, cfg config.LayoutConfig) {
	t.Helper()
	resolved, err := config.Resolve(cfg)
	require.NoError(t, err)
	require.NoError(t, h.m.LoadLayout(resolved))
}

func comp(title string) config.ItemConfig {
	return config.ItemConfig{Type: config.TypeComponent, ComponentType: "text", Title: &title}
}

func row(children ...config.ItemConfig) config.ItemConfig {
	return config.ItemConfig{Type: config.TypeRow, Content: children}
}

func column(children ...config.ItemConfig) config.ItemConfig {
	return config.ItemConfig{Type: config.TypeColumn, Content: children}
}

func stack(active int, children ...config.ItemConfig) config.ItemConfig {
	return config.ItemConfig{Type: config.TypeStack, ActiveItemIndex: &active, Content: children}
}

func titles(items []*Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Title())
	}
	return out
}

func TestAddItem_EmptyGroundWrapsComponentInStack(t *testing.T) {
	h := newHarness(t)

	loc, err := h.m.AddItem(config.ItemConfig{Type: config.TypeComponent, ComponentType: "text"})
	require.NoError(t, err)

	root := h.m.Root()
	require.NotNil(t, root)
	assert.True(t, root.IsStack())
	require.Len(t, root.ContentItems(), 1)
	c := root.ContentItems()[0]
	assert.True(t, c.IsComponent())
	assert.Equal(t, "text", c.ComponentType())
	assert.Equal(t, "text", c.Title())
	assert.Equal(t, 0, root.ActiveItemIndex())
	assert.Same(t, c, root.ActiveComponentItem())
	assert.Same(t, root, loc.Parent)
	assert.Equal(t, 0, loc.Index)

	assert.Equal(t, Rect{W: 200, H: 100}, root.Rect())
	assert.Equal(t, Rect{Y: 20, W: 200, H: 80}, c.Rect())
	assert.True(t, c.Visible())
}

func TestAddItem_IntoFocusedStack(t *testing.T) {
	h := newHarness(t)
	h.load(t, row(stack(0, comp("a")), stack(0, comp("b"))))

	b := findComponent(t, h.m, "b")
	b.Focus()

	item, err := h.m.NewComponent("text", nil, "c")
	require.NoError(t, err)
	assert.Same(t, b.Parent(), item.Parent())
	assert.Equal(t, []string{"b", "c"}, titles(b.Parent().ContentItems()))
	assert.Same(t, item, b.Parent().ActiveComponentItem())
}

func TestAddItem_StackRejectsNonComponent(t *testing.T) {
	h := newHarness(t)
	h.load(t, stack(0, comp("a")))

	_, err := h.m.AddItemAtLocation(row(comp("x")), []LocationSelector{{Type: SelectFirstStack}})
	var target *APIError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, config.Text(config.TextItemConfigIsNotComponent), target.Message)
}

func TestRemove_ActiveTabMovesToPrevious(t *testing.T) {
	h := newHarness(t)
	h.load(t, stack(1, comp("a"), comp("b"), comp("c")))
	s := h.m.Root()
	b := s.ContentItems()[1]
	b.Focus()
	require.True(t, s.Focused())
	tc := b.Container().Component().(*testComponent)

	var order []string
	h.m.On(EventBlur, func(ev *Event) {
		order = append(order, "blur")
		if ev.Origin.Parent() == nil {
			t.Errorf("blur fired after %q was detached", ev.Origin.Title())
		}
	})
	h.m.On(EventItemDestroyed, func(ev *Event) {
		if ev.Origin == b {
			order = append(order, "destroyed")
		}
	})

	b.Remove()

	assert.Equal(t, []string{"blur", "destroyed"}, order)
	assert.Equal(t, []string{"a", "c"}, titles(s.ContentItems()))
	assert.Equal(t, 0, s.ActiveItemIndex())
	assert.Equal(t, "a", s.ActiveComponentItem().Title())
	assert.Nil(t, h.m.FocusedComponentItem())
	assert.False(t, s.Focused())
	assert.True(t, tc.released)
	assert.True(t, b.Destroyed())
}

func TestRemove_FirstActiveTabMovesToNext(t *testing.T) {
	h := newHarness(t)
	h.load(t, stack(0, comp("a"), comp("b"), comp("c")))
	s := h.m.Root()

	s.ContentItems()[0].Remove()

	assert.Equal(t, 0, s.ActiveItemIndex())
	assert.Equal(t, "b", s.ActiveComponentItem().Title())
}

func TestRemove_LastComponentCollapsesRow(t *testing.T) {
	h := newHarness(t)
	h.load(t, row(stack(0, comp("a")), stack(0, comp("b"))))

	findComponent(t, h.m, "b").Remove()

	root := h.m.Root()
	require.NotNil(t, root)
	assert.True(t, root.IsStack())
	assert.Equal(t, []string{"a"}, titles(root.ContentItems()))
	assert.Empty(t, h.m.ItemsByType(config.TypeRow))
	assert.Equal(t, Rect{W: 200, H: 100}, root.Rect())
}

func TestStateChanged_CoalescedPerTick(t *testing.T) {
	h := newHarness(t)
	h.load(t, stack(0, comp("a"), comp("b")))
	h.sched.Flush()

	count := 0
	h.m.On(EventStateChanged, func(*Event) { count++ })

	a := h.m.Root().ContentItems()[0]
	a.SetTitle("one")
	a.SetTitle("two")
	h.m.Root().SetActiveComponentItem(h.m.Root().ContentItems()[1], false)
	assert.Equal(t, 0, count)

	h.sched.Flush()
	assert.Equal(t, 1, count)

	h.sched.Flush()
	assert.Equal(t, 1, count)
}

func TestEvents_BubbleToAncestorsAndStop(t *testing.T) {
	h := newHarness(t)
	h.load(t, row(stack(0, comp("a")), stack(0, comp("b"))))
	a := findComponent(t, h.m, "a")
	root := h.m.Root()

	var seen []string
	a.Parent().On("titleChanged", func(ev *Event) { seen = append(seen, "stack") })
	root.On("titleChanged", func(ev *Event) {
		seen = append(seen, "row")
		ev.StopPropagation()
	})
	h.m.On("titleChanged", func(*Event) { seen = append(seen, "manager") })

	a.SetTitle("renamed")
	assert.Equal(t, []string{"stack", "row"}, seen)
}

func TestContainer_PlacementDeliveredNextTick(t *testing.T) {
	h := newHarness(t)
	item, err := h.m.NewComponent("virtual", nil, "v")
	require.NoError(t, err)
	vc := item.Container().Component().(*virtualComponent)
	assert.True(t, item.Container().Virtual())

	var shown int
	item.Container().On(EventShow, func(*Event) { shown++ })
	assert.Empty(t, vc.rects)

	h.sched.Flush()
	assert.Equal(t, []Rect{{Y: 20, W: 200, H: 80}}, vc.rects)
	assert.Equal(t, []bool{true}, vc.visible)
	assert.Equal(t, []LogicalZIndex{ZIndexBase}, vc.zs)
	assert.Equal(t, 1, shown)

	h.m.SetSize(100, 50)
	h.sched.Flush()
	assert.Equal(t, Rect{Y: 20, W: 100, H: 30}, vc.rects[len(vc.rects)-1])
	assert.Len(t, vc.visible, 1)
}

func TestContainer_HiddenWhenTabInactive(t *testing.T) {
	h := newHarness(t)
	h.load(t, stack(0, comp("a"), comp("b")))
	h.sched.Flush()
	a, b := h.m.Root().ContentItems()[0], h.m.Root().ContentItems()[1]

	var hidden int
	a.Container().On(EventHide, func(*Event) { hidden++ })
	b.Focus()
	h.sched.Flush()

	assert.False(t, a.Container().Visible())
	assert.True(t, b.Container().Visible())
	assert.Equal(t, 1, hidden)
}

func TestLoadLayout_BindErrorLeavesGroundEmpty(t *testing.T) {
	h := newHarness(t)
	resolved, err := config.Resolve(config.LayoutConfig{Root: &config.ItemConfig{
		Type:    config.TypeRow,
		Content: []config.ItemConfig{comp("a"), {Type: config.TypeComponent, ComponentType: "missing"}},
	}})
	require.NoError(t, err)

	err = h.m.LoadLayout(resolved)
	var bindErr *BindError
	require.ErrorAs(t, err, &bindErr)
	assert.Equal(t, "missing", bindErr.ComponentType)
	assert.Nil(t, h.m.Root())
	assert.Empty(t, h.m.AllComponents())
}

func TestSaveLayout_RoundTrip(t *testing.T) {
	h := newHarness(t)
	h.load(t, row(stack(1, comp("a"), comp("b")), column(stack(0, comp("c")), stack(0, comp("d")))))
	saved := h.m.SaveLayout()

	other := newHarness(t)
	require.NoError(t, other.m.LoadLayout(saved))
	assert.Equal(t, saved, other.m.SaveLayout())

	resolved, err := config.Resolve(config.FromResolved(saved))
	require.NoError(t, err)
	assert.Equal(t, saved, resolved)
}

func TestMaximise_LaysStackOverGround(t *testing.T) {
	h := newHarness(t)
	h.load(t, row(stack(0, comp("a")), stack(0, comp("b"))))
	b := findComponent(t, h.m, "b")
	s := b.Parent()

	var events []string
	h.m.On(EventMaximised, func(*Event) { events = append(events, "max") })
	h.m.On(EventMinimised, func(*Event) { events = append(events, "min") })

	s.Maximise()
	assert.True(t, s.IsMaximised())
	assert.Same(t, s, h.m.MaximisedStack())
	assert.Equal(t, Rect{W: 200, H: 100}, s.Rect())
	assert.Same(t, b, h.m.FocusedComponentItem())
	assert.Equal(t, ZIndexStackMaximised, b.Container().ZIndex())

	saved := h.m.SaveLayout()
	assert.True(t, saved.Root.Content[1].Maximised)

	s.ToggleMaximise()
	assert.False(t, s.IsMaximised())
	assert.Equal(t, Rect{X: 103, W: 97, H: 100}, s.Rect())
	assert.Equal(t, []string{"max", "min"}, events)
}

func TestLoadLayout_MaximisedFlag(t *testing.T) {
	h := newHarness(t)
	maximised := true
	s := stack(0, comp("b"))
	s.Maximised = &maximised
	h.load(t, row(stack(0, comp("a")), s))

	require.NotNil(t, h.m.MaximisedStack())
	assert.Equal(t, "b", h.m.MaximisedStack().ActiveComponentItem().Title())
}

func TestClose_RespectsClosable(t *testing.T) {
	h := newHarness(t)
	fixed := comp("fixed")
	no := false
	fixed.IsClosable = &no
	h.load(t, stack(0, fixed, comp("b")))

	items := h.m.Root().ContentItems()
	assert.False(t, items[0].Close())
	assert.True(t, items[1].Close())
	assert.Equal(t, []string{"fixed"}, titles(h.m.Root().ContentItems()))
}

func TestClose_StackWithFocusedLaterTab(t *testing.T) {
	h := newHarness(t)
	h.load(t, row(stack(1, comp("a"), comp("b")), stack(0, comp("c"))))

	b := findComponent(t, h.m, "b")
	b.Focus()
	require.Same(t, b, h.m.FocusedComponentItem())

	stk := b.Parent()
	require.NotPanics(t, func() { assert.True(t, stk.Close()) })
	assert.Nil(t, h.m.FocusedComponentItem())
	root := h.m.Root()
	require.True(t, root.IsStack())
	assert.Equal(t, []string{"c"}, titles(root.ContentItems()))
}

func TestDestroy_WithFocusedLaterTab(t *testing.T) {
	h := newHarness(t)
	h.load(t, row(stack(1, comp("a"), comp("b")), stack(0, comp("c"))))
	findComponent(t, h.m, "b").Focus()

	require.NotPanics(t, h.m.Destroy)
	assert.Nil(t, h.m.Root())
	assert.Nil(t, h.m.FocusedComponentItem())
}

func TestDestroy_ReleasesComponents(t *testing.T) {
	h := newHarness(t)
	h.load(t, row(stack(0, comp("a")), stack(0, comp("b"))))
	var comps []*testComponent
	for _, c := range h.m.AllComponents() {
		comps = append(comps, c.Container().Component().(*testComponent))
	}

	h.m.Destroy()
	assert.Nil(t, h.m.Root())
	for _, tc := range comps {
		assert.True(t, tc.released)
	}
}

func findComponent(t *testing.T, m *Manager, title string) *Item {
	t.Helper()
	for _, c := range m.AllComponents() {
		if c.Title() == title {
			return c
		}
	}
	t.Fatalf("no component titled %q", title)
	return nil
}

func TestFocusNext_WrapsInTreeOrder(t *testing.T) {
	h := newHarness(t)
	h.load(t, row(stack(0, comp("a"), comp("b")), stack(0, comp("c"))))

	var got []string
	for range 4 {
		got = append(got, h.m.FocusNext().Title())
	}
	assert.Equal(t, []string{"a", "b", "c", "a"}, got)
	assert.Same(t, findComponent(t, h.m, "a"), h.m.FocusedComponentItem())

	assert.Equal(t, "c", h.m.FocusPrev().Title())
	a := findComponent(t, h.m, "a")
	assert.Same(t, a, a.Parent().ActiveComponentItem())
	b := findComponent(t, h.m, "b")
	assert.Equal(t, "b", h.m.FocusPrev().Title())
	assert.Same(t, b, b.Parent().ActiveComponentItem())
}

func TestFocusPrev_EmptyLayout(t *testing.T) {
	h := newHarness(t)
	assert.Nil(t, h.m.FocusPrev())
}
