package ui

import (
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docklayout/internal/config"
	"docklayout/internal/layout"
	"docklayout/internal/tick"
)

type hostHarness struct {
	mdl  *Model
	m    *layout.Manager
	loop *tick.Loop
}

func newHost(t *testing.T, w, h int, root config.ItemConfig, opts ...func(*Options)) *hostHarness {
	t.Helper()
	loop := tick.NewLoop(256)
	t.Cleanup(loop.Close)
	m := newManager(t, loop, w, h-StatusHeight, &root)
	o := Options{Manager: m, Loop: loop, Scope: ScopeMain, Logger: log.New(io.Discard)}
	for _, f := range opts {
		f(&o)
	}
	mdl, err := NewModel(o)
	require.NoError(t, err)
	hh := &hostHarness{mdl: mdl, m: m, loop: loop}
	hh.send(tea.WindowSizeMsg{Width: w, Height: h})
	return hh
}

// send delivers msg and follows the commands it returns.
func (h *hostHarness) send(msg tea.Msg) tea.Msg {
	var last tea.Msg
	for msg != nil {
		last = msg
		_, cmd := h.mdl.Update(msg)
		if cmd == nil {
			break
		}
		if _, waiting := msg.(tickMsg); waiting {
			break
		}
		msg = cmd()
		if _, quit := msg.(tea.QuitMsg); quit {
			return msg
		}
	}
	return last
}

func (h *hostHarness) keys(keys ...string) {
	for _, k := range keys {
		h.send(keyMsg(k))
	}
}

func (h *hostHarness) mouse(action tea.MouseAction, x, y int) {
	h.send(tea.MouseMsg{X: x, Y: y, Action: action, Button: tea.MouseButtonLeft})
}

func (h *hostHarness) click(x, y int) {
	h.mouse(tea.MouseActionPress, x, y)
	h.mouse(tea.MouseActionRelease, x, y)
}

func TestNewModel_NeedsManagerAndLoop(t *testing.T) {
	_, err := NewModel(Options{})
	assert.Error(t, err)
}

func TestModel_ViewFillsTerminal(t *testing.T) {
	h := newHost(t, 40, 11, stack(text("a", "hello"), text("b", "")))
	lines := strings.Split(h.mdl.View(), "\n")
	assert.Len(t, lines, 11)
	assert.Contains(t, lines[1], "hello")

	h.keys("tab")
	assert.Same(t, findItem(t, h.m, "a"), h.m.FocusedComponentItem())
	lines = strings.Split(h.mdl.View(), "\n")
	assert.Contains(t, lines[10], "a")
}

func TestModel_ClickTabActivates(t *testing.T) {
	h := newHost(t, 40, 11, stack(text("a", ""), text("b", "")))
	h.click(6, 0)
	b := findItem(t, h.m, "b")
	assert.Same(t, b, h.m.Root().ActiveComponentItem())
	assert.Same(t, b, h.m.FocusedComponentItem())
}

func TestModel_ClickTabClose(t *testing.T) {
	h := newHost(t, 40, 11, stack(text("a", ""), text("b", "")))
	h.click(3, 0)
	require.Len(t, h.m.AllComponents(), 1)
	assert.Equal(t, "b", h.m.AllComponents()[0].Title())
}

func TestModel_DragTabSplitsStack(t *testing.T) {
	h := newHost(t, 40, 11, stack(text("a", ""), text("b", "")))
	h.mouse(tea.MouseActionPress, 6, 0)
	h.mouse(tea.MouseActionMotion, 35, 5)
	require.NotNil(t, h.m.Dragging())
	assert.Contains(t, h.mdl.View(), GlyphDragProxy+" b")
	h.mouse(tea.MouseActionRelease, 35, 5)

	assert.Nil(t, h.m.Dragging())
	root := h.m.Root()
	require.True(t, root.IsRow())
	children := root.ContentItems()
	require.Len(t, children, 2)
	assert.Equal(t, "a", children[0].ActiveComponentItem().Title())
	assert.Equal(t, "b", children[1].ActiveComponentItem().Title())
}

func TestModel_EscCancelsDrag(t *testing.T) {
	h := newHost(t, 40, 11, stack(text("a", ""), text("b", "")))
	h.mouse(tea.MouseActionPress, 6, 0)
	h.mouse(tea.MouseActionMotion, 35, 5)
	require.NotNil(t, h.m.Dragging())
	h.keys("esc")

	assert.Nil(t, h.m.Dragging())
	root := h.m.Root()
	require.True(t, root.IsStack())
	assert.Len(t, root.ContentItems(), 2)
}

func TestModel_SplitterDrag(t *testing.T) {
	h := newHost(t, 41, 11, row(stack(text("a", "")), stack(text("b", ""))))
	h.mouse(tea.MouseActionPress, 20, 5)
	assert.Same(t, h.m.Root(), h.mdl.overlay.Splitter)
	h.mouse(tea.MouseActionMotion, 25, 5)
	h.mouse(tea.MouseActionRelease, 25, 5)

	assert.Nil(t, h.mdl.overlay.Splitter)
	children := h.m.Root().ContentItems()
	assert.InDelta(t, 62.5, children[0].Width(), 1e-9)
	assert.InDelta(t, 37.5, children[1].Width(), 1e-9)
}

func TestModel_DropdownMenu(t *testing.T) {
	h := newHost(t, 20, 7, stack(text("alpha", ""), text("beta", ""), text("gamma", "")))
	s := h.m.Root()
	h.click(9, 0)
	require.Same(t, s, h.mdl.overlay.Menu)
	assert.Contains(t, h.mdl.View(), "gamma")

	h.click(9, 2)
	assert.Nil(t, h.mdl.overlay.Menu)
	assert.Equal(t, "gamma", s.ActiveComponentItem().Title())
}

func TestModel_DropdownMenuKeys(t *testing.T) {
	h := newHost(t, 20, 7, stack(text("alpha", ""), text("beta", ""), text("gamma", "")))
	s := h.m.Root()
	h.click(9, 0)
	h.keys("down", "down", "up", "enter")
	assert.Nil(t, h.mdl.overlay.Menu)
	assert.Equal(t, "beta", s.ActiveComponentItem().Title())

	h.click(9, 0)
	h.keys("esc")
	assert.Nil(t, h.mdl.overlay.Menu)
}

func TestModel_MaximiseControl(t *testing.T) {
	h := newHost(t, 41, 11, row(stack(text("a", "")), stack(text("b", ""))))
	a := findItem(t, h.m, "a")
	h.click(15, 0)
	assert.Same(t, a.Parent(), h.m.MaximisedStack())
}

func TestModel_LeaderBindings(t *testing.T) {
	h := newHost(t, 41, 11, row(stack(text("a", "")), stack(text("b", ""))))
	h.keys("tab")
	a := findItem(t, h.m, "a")
	require.Same(t, a, h.m.FocusedComponentItem())

	h.keys(" ", "w", "m")
	assert.Same(t, a.Parent(), h.m.MaximisedStack())
	h.keys(" ", "w", "m")
	assert.Nil(t, h.m.MaximisedStack())

	h.keys(" ", "t", "n")
	require.Len(t, h.m.AllComponents(), 3)
	focused := h.m.FocusedComponentItem()
	require.NotNil(t, focused)
	assert.Equal(t, TypeText, focused.ComponentType())

	h.keys(" ", "w", "c")
	assert.Len(t, h.m.AllComponents(), 2)

	// Pop in only applies to pop-out windows.
	h.keys(" ", "w", "i")
	assert.Empty(t, h.mdl.Status())
}

func TestModel_FocusCycles(t *testing.T) {
	h := newHost(t, 41, 11, row(stack(text("a", "")), stack(text("b", ""))))
	h.keys("tab", "tab")
	assert.Equal(t, "b", h.m.FocusedComponentItem().Title())
	h.keys("tab")
	assert.Equal(t, "a", h.m.FocusedComponentItem().Title())
	h.keys("shift+tab")
	assert.Equal(t, "b", h.m.FocusedComponentItem().Title())
}

func TestModel_Save(t *testing.T) {
	var saved []config.ResolvedLayoutConfig
	h := newHost(t, 40, 11, stack(text("a", "")), func(o *Options) {
		o.Save = func(cfg config.ResolvedLayoutConfig) error {
			saved = append(saved, cfg)
			return nil
		}
	})
	h.keys(" ", "l", "s")
	require.Len(t, saved, 1)
	require.NotNil(t, saved[0].Root)
	assert.Equal(t, "layout saved", h.mdl.Status())
}

func TestModel_SaveWithoutStore(t *testing.T) {
	h := newHost(t, 40, 11, stack(text("a", "")))
	h.keys(" ", "l", "s")
	assert.Equal(t, "no layout store configured", h.mdl.Status())
	assert.True(t, h.mdl.isError)
}

func TestModel_InsertMode(t *testing.T) {
	h := newHost(t, 40, 11, stack(text("a", "hi")))
	h.keys("tab", "i")
	require.True(t, h.mdl.Inserting())

	// Bound keys go to the pane while inserting.
	h.keys("q", " ", "x", "backspace")
	a := findItem(t, h.m, "a")
	pane := a.Container().Component().(*TextPane)
	assert.Equal(t, "hiq ", pane.Text())
	assert.Equal(t, map[string]any{"text": "hiq "}, a.Container().State())

	h.keys("esc")
	assert.False(t, h.mdl.Inserting())
	msg := h.send(keyMsg("q"))
	assert.IsType(t, tea.QuitMsg{}, msg)
}

func TestModel_QuitMsg(t *testing.T) {
	h := newHost(t, 40, 11, stack(text("a", "")))
	_, cmd := h.mdl.Update(quitMsg{})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_TickRunsCallback(t *testing.T) {
	h := newHost(t, 40, 11, stack(text("a", "")))
	var ran bool
	_, cmd := h.mdl.Update(tickMsg{fn: func() { ran = true }})
	assert.True(t, ran)
	assert.NotNil(t, cmd)
}

func TestModel_ResizeThroughSurface(t *testing.T) {
	surface := &TermSurface{}
	loop := tick.NewLoop(256)
	t.Cleanup(loop.Close)
	reg := layout.NewRegistry()
	require.NoError(t, RegisterPanes(reg))
	m := layout.NewManager(layout.Options{Binder: reg, Scheduler: loop, Surface: surface})
	t.Cleanup(m.Destroy)
	resolved, err := config.Resolve(Terminalize(config.LayoutConfig{Root: ptr(stack(text("a", "")))}))
	require.NoError(t, err)
	require.NoError(t, m.LoadLayout(resolved))

	mdl, err := NewModel(Options{Manager: m, Loop: loop, Surface: surface})
	require.NoError(t, err)
	mdl.Update(tea.WindowSizeMsg{Width: 40, Height: 11})
	w, hgt := m.Size()
	assert.Equal(t, [2]int{40, 10}, [2]int{w, hgt})

	mdl.Update(tea.WindowSizeMsg{Width: 60, Height: 20})
	deadline := time.After(5 * time.Second)
	for {
		if w, hgt := m.Size(); w == 60 && hgt == 19 {
			break
		}
		select {
		case fn := <-loop.C():
			mdl.Update(tickMsg{fn: fn})
		case <-deadline:
			t.Fatal("resize never applied")
		}
	}
	assert.Equal(t, layout.Rect{W: 60, H: 19}, m.Root().Rect())
}
