package ui

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"docklayout/internal/config"
	"docklayout/internal/drag"
	"docklayout/internal/layout"
	"docklayout/internal/tick"
	"docklayout/internal/ui/textutil"
)

// StatusHeight is the number of rows below the layout.
const StatusHeight = 1

// Drag thresholds in cells.
const (
	tabDragDistance      = 1
	splitterDragDistance = 0
)

// TermSurface reports the terminal size minus the status line. It is
// the layout.Surface of a hosted manager; pass the same value to
// layout.Options and Options.
type TermSurface struct {
	mu   sync.Mutex
	w, h int
}

var _ layout.Surface = (*TermSurface)(nil)

// Size implements layout.Surface.
func (s *TermSurface) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w, s.h
}

func (s *TermSurface) set(w, h int) {
	s.mu.Lock()
	s.w, s.h = w, h
	s.mu.Unlock()
}

// Options configures a Model.
type Options struct {
	Manager *layout.Manager
	// Loop is the manager's scheduler. The model drains it.
	Loop *tick.Loop
	// Surface, when set, makes resizes go through the manager's debounced
	// NotifyResize. Otherwise the size is applied at once.
	Surface *TermSurface
	// Save stores the layout for SPC l s. Saving is unavailable when nil.
	Save func(config.ResolvedLayoutConfig) error
	// Scope selects the window-specific bindings.
	Scope Scope
	// Quit ends the program when closed.
	Quit   <-chan struct{}
	Theme  *Theme
	Logger *log.Logger
}

// Model is the Bubble Tea model hosting a layout.
type Model struct {
	m       *layout.Manager
	loop    *tick.Loop
	surface *TermSurface
	save    func(config.ResolvedLayoutConfig) error
	quit    <-chan struct{}
	theme   Theme
	logger  *log.Logger

	keys *KeyHandler

	width, height int
	sized         bool

	gesture *drag.Listener
	overlay Overlay
	insert  bool
	status  string
	isError bool
}

var _ tea.Model = (*Model)(nil)

// Messages produced by key bindings.
type (
	tickMsg     struct{ fn func() }
	quitMsg     struct{}
	focusMsg    struct{ step int }
	popoutMsg   struct{}
	popInMsg    struct{}
	maximiseMsg struct{}
	closeMsg    struct{}
	saveMsg     struct{}
	newPaneMsg  struct{ componentType string }
	insertMsg   struct{}
)

func send(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

// NewModel creates the host model.
func NewModel(opts Options) (*Model, error) {
	if opts.Manager == nil || opts.Loop == nil {
		return nil, errors.New("ui: manager and loop are required")
	}
	theme := DefaultTheme()
	if opts.Theme != nil {
		theme = *opts.Theme
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	mdl := &Model{
		m:       opts.Manager,
		loop:    opts.Loop,
		surface: opts.Surface,
		save:    opts.Save,
		quit:    opts.Quit,
		theme:   theme,
		logger:  logger,
	}
	mdl.keys = NewKeyHandler(DefaultKeybinds(), opts.Scope)
	return mdl, nil
}

// DefaultKeybinds returns the host bindings.
func DefaultKeybinds() *KeybindRegistry {
	reg := NewKeybindRegistry()
	reg.BindWithDesc("ctrl+c", tea.Quit, "Quit")
	reg.BindWithDesc("q", tea.Quit, "Quit")
	reg.BindWithDesc("tab", send(focusMsg{step: 1}), "Next pane")
	reg.BindWithDesc("shift+tab", send(focusMsg{step: -1}), "Previous pane")
	reg.BindWithDesc("i", send(insertMsg{}), "Insert mode")
	reg.BindWithDesc("SPC q", tea.Quit, "Quit")
	reg.BindScoped("SPC w p", send(popoutMsg{}), "Pop out", ScopeMain)
	reg.BindScoped("SPC w i", send(popInMsg{}), "Pop in", ScopePopout)
	reg.BindWithDesc("SPC w m", send(maximiseMsg{}), "Maximise")
	reg.BindWithDesc("SPC w c", send(closeMsg{}), "Close")
	reg.BindScoped("SPC l s", send(saveMsg{}), "Save layout", ScopeMain)
	reg.BindWithDesc("SPC t n", send(newPaneMsg{TypeText}), "New text")
	reg.BindWithDesc("SPC t s", send(newPaneMsg{TypeShell}), "New shell")
	reg.BindWithDesc("SPC t e", send(newPaneMsg{TypeEvents}), "New event log")
	return reg
}

// Init implements tea.Model.
func (mdl *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{mdl.waitTick()}
	if mdl.quit != nil {
		quit := mdl.quit
		cmds = append(cmds, func() tea.Msg {
			<-quit
			return quitMsg{}
		})
	}
	return tea.Batch(cmds...)
}

func (mdl *Model) waitTick() tea.Cmd {
	c := mdl.loop.C()
	return func() tea.Msg {
		return tickMsg{fn: <-c}
	}
}

// Update implements tea.Model.
func (mdl *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if msg.fn != nil {
			msg.fn()
		}
		mdl.dropStaleOverlay()
		return mdl, mdl.waitTick()
	case quitMsg:
		return mdl, tea.Quit
	case tea.WindowSizeMsg:
		mdl.resize(msg.Width, msg.Height)
		return mdl, nil
	case tea.MouseMsg:
		mdl.mouse(msg)
		return mdl, nil
	case tea.KeyMsg:
		return mdl, mdl.key(msg)
	case focusMsg:
		if msg.step < 0 {
			mdl.m.FocusPrev()
		} else {
			mdl.m.FocusNext()
		}
	case insertMsg:
		if _, ok := mdl.focusedComponent().(KeyReceiver); ok {
			mdl.insert = true
			mdl.setStatus("-- INSERT -- esc to leave")
		}
	case popoutMsg:
		if f := mdl.m.FocusedComponentItem(); f != nil {
			mdl.report("pop out", mdl.m.PressControl(f.Parent(), layout.ButtonPopout))
		}
	case popInMsg:
		mdl.report("pop in", mdl.m.PopIn())
	case maximiseMsg:
		if f := mdl.m.FocusedComponentItem(); f != nil {
			f.Parent().ToggleMaximise()
		}
	case closeMsg:
		if f := mdl.m.FocusedComponentItem(); f != nil {
			f.Close()
		}
	case saveMsg:
		if mdl.save == nil {
			mdl.setError("no layout store configured")
			break
		}
		if err := mdl.save(mdl.m.SaveLayout()); err != nil {
			mdl.report("save", err)
			break
		}
		mdl.setStatus("layout saved")
	case newPaneMsg:
		it, err := mdl.m.NewComponent(msg.componentType, nil, msg.componentType)
		if err != nil {
			mdl.report("new pane", err)
			break
		}
		if it.IsStack() {
			it = it.ActiveComponentItem()
		}
		if it != nil {
			it.Focus()
		}
	}
	return mdl, nil
}

func (mdl *Model) resize(w, h int) {
	mdl.width, mdl.height = w, h
	lw, lh := w, max(h-StatusHeight, 0)
	if mdl.surface == nil || !mdl.sized {
		mdl.sized = true
		if mdl.surface != nil {
			mdl.surface.set(lw, lh)
		}
		mdl.m.SetSize(lw, lh)
		return
	}
	mdl.surface.set(lw, lh)
	mdl.m.NotifyResize()
}

func (mdl *Model) key(msg tea.KeyMsg) tea.Cmd {
	if mdl.insert {
		if msg.Type == tea.KeyEsc {
			mdl.insert = false
			mdl.setStatus("")
			return nil
		}
		if r, ok := mdl.focusedComponent().(KeyReceiver); ok {
			return r.HandleKey(msg)
		}
		mdl.insert = false
	}
	if msg.Type == tea.KeyEsc {
		if mdl.overlay.Menu != nil {
			mdl.overlay.Menu = nil
			return nil
		}
		if mdl.gesture != nil {
			mdl.gesture.Cancel()
			mdl.endGesture()
			return nil
		}
	}
	if mdl.overlay.Menu != nil {
		if mdl.menuKey(msg) {
			return nil
		}
	}
	if consumed, cmd := mdl.keys.Handle(msg); consumed {
		return cmd
	}
	if _, ok := mdl.focusedComponent().(KeyReceiver); ok && msg.Type == tea.KeyEnter {
		mdl.insert = true
		mdl.setStatus("-- INSERT -- esc to leave")
	}
	return nil
}

func (mdl *Model) menuKey(msg tea.KeyMsg) bool {
	_, items := MenuRect(mdl.overlay.Menu, mdl.width, mdl.height-StatusHeight)
	switch msg.String() {
	case "up", "k":
		mdl.overlay.MenuSelected = max(mdl.overlay.MenuSelected-1, 0)
	case "down", "j":
		mdl.overlay.MenuSelected = min(mdl.overlay.MenuSelected+1, len(items)-1)
	case "enter":
		if i := mdl.overlay.MenuSelected; i >= 0 && i < len(items) {
			mdl.m.SelectFromDropdown(items[i])
		}
		mdl.overlay.Menu = nil
	default:
		return false
	}
	return true
}

func (mdl *Model) mouse(msg tea.MouseMsg) {
	p := drag.Point{X: msg.X, Y: msg.Y}
	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonLeft:
			mdl.press(p)
		case tea.MouseButtonWheelUp:
			mdl.scroll(p, -3)
		case tea.MouseButtonWheelDown:
			mdl.scroll(p, 3)
		}
	case tea.MouseActionMotion:
		if mdl.gesture != nil {
			mdl.gesture.Move(p)
		}
	case tea.MouseActionRelease:
		if mdl.gesture != nil {
			mdl.gesture.Up(p)
			mdl.endGesture()
		}
	}
}

func (mdl *Model) press(p drag.Point) {
	if s := mdl.overlay.Menu; s != nil {
		mdl.overlay.Menu = nil
		r, items := MenuRect(s, mdl.width, mdl.height-StatusHeight)
		if r.Contains(p.X, p.Y) {
			if i := p.Y - r.Y; i < len(items) {
				mdl.m.SelectFromDropdown(items[i])
			}
			return
		}
	}
	if mdl.gesture != nil {
		// A press without a release; the old gesture is abandoned.
		mdl.gesture.Cancel()
		mdl.endGesture()
	}

	hit := mdl.m.HitTest(p.X, p.Y)
	switch hit.Kind {
	case layout.HitTab:
		hit.Stack.SetActiveComponentItem(hit.Item, true)
		mdl.gesture = mdl.m.NewTabDrag(hit.Item, drag.WithDistance(tabDragDistance))
		mdl.gesture.Down(p)
	case layout.HitTabClose:
		hit.Item.Close()
	case layout.HitControl:
		if hit.Button == layout.ButtonDropdown {
			mdl.overlay.Menu = hit.Stack
			mdl.overlay.MenuSelected = 0
			return
		}
		mdl.report(string(hit.Button), mdl.m.PressControl(hit.Stack, hit.Button))
	case layout.HitSplitter:
		mdl.overlay.Splitter, mdl.overlay.SplitterIndex = hit.Item, hit.Splitter
		mdl.gesture = mdl.m.NewSplitterDrag(hit.Item, hit.Splitter, drag.WithDistance(splitterDragDistance))
		mdl.gesture.Down(p)
	case layout.HitHeader:
		if a := hit.Stack.ActiveComponentItem(); a != nil {
			a.Focus()
		}
	case layout.HitComponent:
		hit.Item.Focus()
	default:
		mdl.m.ClearComponentFocus(false)
	}
}

func (mdl *Model) scroll(p drag.Point, lines int) {
	c := mdl.m.ComponentAt(p.X, p.Y)
	if c == nil || c.Container() == nil {
		return
	}
	if s, ok := c.Container().Component().(Scroller); ok {
		s.Scroll(lines)
	}
}

func (mdl *Model) endGesture() {
	if mdl.gesture != nil {
		mdl.gesture.Destroy()
	}
	mdl.gesture = nil
	mdl.overlay.Splitter = nil
}

// dropStaleOverlay forgets overlay targets that left the tree.
func (mdl *Model) dropStaleOverlay() {
	if s := mdl.overlay.Menu; s != nil && (s.Destroyed() || len(s.Header().Hidden) == 0) {
		mdl.overlay.Menu = nil
	}
	if s := mdl.overlay.Splitter; s != nil && s.Destroyed() {
		mdl.overlay.Splitter = nil
	}
}

func (mdl *Model) focusedComponent() any {
	f := mdl.m.FocusedComponentItem()
	if f == nil || f.Container() == nil {
		return nil
	}
	return f.Container().Component()
}

func (mdl *Model) setStatus(s string) {
	mdl.status, mdl.isError = s, false
}

func (mdl *Model) setError(s string) {
	mdl.status, mdl.isError = s, true
}

func (mdl *Model) report(action string, err error) {
	if err == nil {
		return
	}
	mdl.logger.Warn("layout action failed", "action", action, "err", err)
	mdl.setError(fmt.Sprintf("%s: %v", action, err))
}

// Status returns the status line message.
func (mdl *Model) Status() string { return mdl.status }

// Inserting reports whether keys go to the focused pane.
func (mdl *Model) Inserting() bool { return mdl.insert }

// View implements tea.Model.
func (mdl *Model) View() string {
	if mdl.width <= 0 || mdl.height <= 0 {
		return ""
	}
	w, h := mdl.m.Size()
	c := NewCanvas(min(w, mdl.width), min(h, mdl.height-StatusHeight))
	Render(c, mdl.m, mdl.overlay)
	lines := c.Lines(mdl.theme)
	for len(lines) < mdl.height-StatusHeight {
		lines = append(lines, "")
	}
	lines = append(lines, mdl.statusLine())
	return strings.Join(lines, "\n")
}

func (mdl *Model) statusLine() string {
	if help := RenderKeybindHelp(mdl.keys, mdl.width); help != "" {
		return help
	}
	left := mdl.status
	style := mdl.theme[PaintStatus]
	if mdl.isError {
		style = mdl.theme[PaintError]
	}
	right := ""
	if f := mdl.m.FocusedComponentItem(); f != nil {
		right = f.Title()
	}
	if d := mdl.m.Dragging(); d != nil {
		right = "dragging " + d.Item().Title()
	}
	gap := max(mdl.width-textutil.VisualWidthStyled(left)-textutil.VisualWidthStyled(right), 1)
	line := style.Render(left) + strings.Repeat(" ", gap) + mdl.theme[PaintTab].Render(right)
	return lipgloss.NewStyle().MaxWidth(mdl.width).Render(line)
}
