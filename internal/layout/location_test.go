package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docklayout/internal/config"
)

func TestFindFirstLocation(t *testing.T) {
	h := newHarness(t)
	h.load(t, row(stack(0, comp("a"), comp("b")), stack(0, comp("c"))))
	b := findComponent(t, h.m, "b")
	b.Focus()
	left := b.Parent()
	root := h.m.Root()

	tests := []struct {
		name       string
		sel        LocationSelector
		wantParent *Item
		wantIndex  int
	}{
		{"focused item", LocationSelector{Type: SelectFocusedItem, Index: ptrTo(0)}, left, 1},
		{"after focused item", LocationSelector{Type: SelectFocusedItem, Index: ptrTo(1)}, left, 2},
		{"focused item append", LocationSelector{Type: SelectFocusedItem}, left, 2},
		{"focused stack", LocationSelector{Type: SelectFocusedStack}, left, 2},
		{"first stack", LocationSelector{Type: SelectFirstStack, Index: ptrTo(0)}, left, 0},
		{"first row", LocationSelector{Type: SelectFirstRow}, root, 2},
		{"root", LocationSelector{Type: SelectRoot, Index: ptrTo(1)}, root, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := h.m.FindFirstLocation([]LocationSelector{tt.sel})
			require.NotNil(t, loc)
			assert.Same(t, tt.wantParent, loc.Parent)
			assert.Equal(t, tt.wantIndex, loc.Index)
		})
	}

	for _, sel := range []LocationSelector{
		{Type: SelectFocusedItem, Index: ptrTo(5)},
		{Type: SelectEmpty},
		{Type: SelectFirstColumn},
		{Type: SelectRoot, Index: ptrTo(3)},
	} {
		if loc := h.m.FindFirstLocation([]LocationSelector{sel}); loc != nil {
			t.Errorf("selector %+v resolved to %+v, want nil", sel, *loc)
		}
	}
}

func TestFindFirstLocation_FallsThrough(t *testing.T) {
	h := newHarness(t)
	h.load(t, row(stack(0, comp("a")), stack(0, comp("b"))))

	loc := h.m.FindFirstLocation([]LocationSelector{
		{Type: SelectFocusedStack},
		{Type: SelectFirstColumn},
		{Type: SelectFirstRowOrColumn, Index: ptrTo(0)},
	})
	require.NotNil(t, loc)
	assert.Same(t, h.m.Root(), loc.Parent)
	assert.Equal(t, 0, loc.Index)
}

func TestAddItemAtLocation_EmptySelectorNeedsEmptyLayout(t *testing.T) {
	h := newHarness(t)
	h.load(t, stack(0, comp("a")))

	loc, err := h.m.AddItemAtLocation(comp("b"), []LocationSelector{{Type: SelectEmpty}})
	assert.NoError(t, err)
	assert.Nil(t, loc)
	assert.Len(t, h.m.AllComponents(), 1)
}

func TestAddItemAtLocation_ColumnAtFrontOfRow(t *testing.T) {
	h := newHarness(t)
	h.load(t, row(comp("a"), comp("b")))

	loc, err := h.m.AddItemAtLocation(column(comp("x"), comp("y")), []LocationSelector{{Type: SelectRoot, Index: ptrTo(0)}})
	require.NoError(t, err)
	require.NotNil(t, loc)
	root := h.m.Root()
	assert.Same(t, root, loc.Parent)
	assert.Equal(t, 0, loc.Index)

	children := root.ContentItems()
	require.Len(t, children, 3)
	assert.True(t, children[0].IsColumn())
	for _, c := range children {
		assert.InDelta(t, 100.0/3, c.Width(), 1e-9)
	}
	assert.InDelta(t, 100, sumWidths(children), 1e-9)

	// Components inside the new column were wrapped in stacks.
	for _, c := range children[0].ContentItems() {
		assert.True(t, c.IsStack())
	}
}

func TestAddItemAtLocation_ComponentPointsIntoItsStack(t *testing.T) {
	h := newHarness(t)
	h.load(t, row(comp("a"), comp("b")))

	loc, err := h.m.AddItemAtLocation(comp("x"), []LocationSelector{{Type: SelectFirstRow, Index: ptrTo(1)}})
	require.NoError(t, err)
	require.NotNil(t, loc)
	assert.True(t, loc.Parent.IsStack())
	assert.Equal(t, 0, loc.Index)
	assert.Equal(t, []string{"x"}, titles(loc.Parent.ContentItems()))
	assert.Same(t, h.m.Root().ContentItems()[1], loc.Parent)
}

func TestAddItemAtLocation_BadConfig(t *testing.T) {
	h := newHarness(t)
	h.load(t, stack(0, comp("a")))

	_, err := h.m.AddItemAtLocation(config.ItemConfig{Type: config.TypeComponent}, DefaultLocationSelectors())
	assert.Error(t, err)
	assert.Len(t, h.m.AllComponents(), 1)
}
