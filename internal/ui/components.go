package ui

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"docklayout/internal/layout"
	"docklayout/internal/pty"
)

// Component types registered by RegisterPanes.
const (
	TypeText   = "text"
	TypeEvents = "events"
	TypeShell  = "shell"
)

// KeyReceiver is implemented by components that take keys in insert mode.
type KeyReceiver interface {
	HandleKey(msg tea.KeyMsg) tea.Cmd
}

// Scroller is implemented by components that scroll with the mouse wheel.
type Scroller interface {
	Scroll(lines int)
}

// RegisterPanes adds the built-in pane types to reg.
func RegisterPanes(reg *layout.Registry) error {
	for typ, f := range map[string]layout.ComponentFactory{
		TypeText:   NewTextPane,
		TypeEvents: NewEventLog,
		TypeShell:  NewShellPane,
	} {
		if err := reg.Register(typ, f); err != nil {
			return fmt.Errorf("register %s: %w", typ, err)
		}
	}
	return nil
}

// stateString reads key from a component state decoded from JSON, or
// the state itself when it is a string.
func stateString(state any, key string) string {
	switch s := state.(type) {
	case string:
		return s
	case map[string]any:
		v, _ := s[key].(string)
		return v
	}
	return ""
}

// TextPane shows editable text. Edits are kept in the component state
// so they survive save and pop-out.
type TextPane struct {
	c    *layout.Container
	text string
	vp   viewport.Model
}

var (
	_ Viewer      = (*TextPane)(nil)
	_ KeyReceiver = (*TextPane)(nil)
	_ Scroller    = (*TextPane)(nil)
)

// NewTextPane is the ComponentFactory for TypeText.
func NewTextPane(c *layout.Container, state any) (any, error) {
	return &TextPane{c: c, text: stateString(state, "text"), vp: viewport.New(0, 0)}, nil
}

// Text returns the pane's content.
func (p *TextPane) Text() string { return p.text }

// View implements Viewer.
func (p *TextPane) View(width, height int) string {
	p.vp.Width, p.vp.Height = width, height
	p.vp.SetContent(p.text)
	return p.vp.View()
}

// HandleKey implements KeyReceiver.
func (p *TextPane) HandleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEnter:
		p.text += "\n"
	case tea.KeyBackspace:
		if r := []rune(p.text); len(r) > 0 {
			p.text = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		p.text += " "
	case tea.KeyRunes:
		p.text += string(msg.Runes)
	default:
		var cmd tea.Cmd
		p.vp, cmd = p.vp.Update(msg)
		return cmd
	}
	p.c.SetState(map[string]any{"text": p.text})
	p.vp.SetContent(p.text)
	p.vp.GotoBottom()
	return nil
}

// Scroll implements Scroller.
func (p *TextPane) Scroll(lines int) {
	p.vp.SetYOffset(p.vp.YOffset + lines)
}

const eventLogLimit = 500

// EventLog lists the layout events as they happen.
type EventLog struct {
	lines  []string
	off    func()
	offset int
}

var (
	_ Viewer          = (*EventLog)(nil)
	_ Scroller        = (*EventLog)(nil)
	_ layout.Releaser = (*EventLog)(nil)
)

// NewEventLog is the ComponentFactory for TypeEvents.
func NewEventLog(c *layout.Container, _ any) (any, error) {
	l := &EventLog{}
	l.off = c.Layout().On(layout.EventAll, l.record)
	return l, nil
}

func (l *EventLog) record(e *layout.Event) {
	line := e.Name
	if e.Origin != nil {
		line += " " + string(e.Origin.Type())
		if t := e.Origin.Title(); t != "" {
			line += " " + t
		}
	}
	l.lines = append(l.lines, line)
	if n := len(l.lines) - eventLogLimit; n > 0 {
		l.lines = append(l.lines[:0], l.lines[n:]...)
	}
}

// Lines returns the recorded events, oldest first.
func (l *EventLog) Lines() []string { return l.lines }

// View implements Viewer. The newest events are at the bottom; scrolling
// moves the window back in time.
func (l *EventLog) View(_, height int) string {
	end := max(len(l.lines)-l.offset, 0)
	start := max(end-height, 0)
	return strings.Join(l.lines[start:end], "\n")
}

// Scroll implements Scroller.
func (l *EventLog) Scroll(lines int) {
	l.offset = min(max(l.offset-lines, 0), max(len(l.lines)-1, 0))
}

// Release implements layout.Releaser.
func (l *EventLog) Release() {
	if l.off != nil {
		l.off()
		l.off = nil
	}
}

const shellScrollback = 64 << 10

// ShellPane runs a shell in a pseudo-terminal and shows its output.
// Output arrives on the PTY copy goroutine; it is buffered under a lock
// and the layout's scheduler is poked so the host redraws.
type ShellPane struct {
	mu      sync.Mutex
	out     bytes.Buffer
	session *pty.Session
	size    pty.Size
	err     error
	post    func(func())
}

var (
	_ Viewer          = (*ShellPane)(nil)
	_ KeyReceiver     = (*ShellPane)(nil)
	_ layout.Releaser = (*ShellPane)(nil)
)

// NewShellPane is the ComponentFactory for TypeShell. The state may name
// a "command" run through sh -c and a working "dir".
func NewShellPane(c *layout.Container, state any) (any, error) {
	p := &ShellPane{post: c.Layout().Scheduler().Post}
	cmd := shellCommand(stateString(state, "command"))
	cmd.Dir = stateString(state, "dir")
	cmd.Env = append(os.Environ(), "TERM=dumb")

	p.size = pty.SizeFor(float64(max(c.Width(), 20)), float64(max(c.Height(), 5)))
	s, err := pty.Start(nil, cmd, p.size, paneWriter{p})
	if err != nil {
		// Keep the pane so the failure is visible where the shell would be.
		p.err = err
		return p, nil
	}
	p.session = s
	go func() {
		<-s.Done()
		p.post(func() {})
	}()
	return p, nil
}

func shellCommand(command string) *exec.Cmd {
	if command != "" {
		return exec.Command("sh", "-c", command)
	}
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "sh"
		if path, err := exec.LookPath("bash"); err == nil {
			shell = path
		}
	}
	return exec.Command(shell)
}

type paneWriter struct{ p *ShellPane }

func (w paneWriter) Write(b []byte) (int, error) {
	w.p.mu.Lock()
	w.p.out.Write(b)
	if n := w.p.out.Len() - shellScrollback; n > 0 {
		w.p.out.Next(n)
	}
	w.p.mu.Unlock()
	w.p.post(func() {})
	return len(b), nil
}

// Output returns the terminal output so far with escape sequences
// removed.
func (p *ShellPane) Output() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return ansi.Strip(p.out.String())
}

// View implements Viewer. Resizes the terminal to the pane.
func (p *ShellPane) View(width, height int) string {
	if p.err != nil {
		return "shell: " + p.err.Error()
	}
	if size := pty.SizeFor(float64(width), float64(height)); size != p.size && p.session != nil {
		p.size = size
		_ = p.session.Resize(size)
	}
	lines := strings.Split(strings.ReplaceAll(p.Output(), "\r\n", "\n"), "\n")
	if p.session != nil && p.session.ExitCode() >= 0 {
		lines = append(lines, fmt.Sprintf("[exited %d]", p.session.ExitCode()))
	}
	return strings.Join(lines[max(len(lines)-height, 0):], "\n")
}

// HandleKey implements KeyReceiver.
func (p *ShellPane) HandleKey(msg tea.KeyMsg) tea.Cmd {
	if p.session == nil {
		return nil
	}
	if b := keyToPTYBytes(msg); len(b) > 0 {
		_, _ = p.session.Write(b)
	}
	return nil
}

// Release implements layout.Releaser.
func (p *ShellPane) Release() {
	if p.session != nil {
		_ = p.session.Close()
	}
}

// keyToPTYBytes converts a Bubble Tea KeyMsg to bytes the PTY expects.
func keyToPTYBytes(msg tea.KeyMsg) []byte {
	switch msg.Type {
	case tea.KeyEnter:
		return []byte{'\r'}
	case tea.KeyBackspace:
		return []byte{0x7f}
	case tea.KeyTab:
		return []byte{'\t'}
	case tea.KeySpace:
		return []byte{' '}
	case tea.KeyUp:
		return []byte{0x1b, '[', 'A'}
	case tea.KeyDown:
		return []byte{0x1b, '[', 'B'}
	case tea.KeyRight:
		return []byte{0x1b, '[', 'C'}
	case tea.KeyLeft:
		return []byte{0x1b, '[', 'D'}
	case tea.KeyCtrlC:
		return []byte{0x03}
	case tea.KeyCtrlD:
		return []byte{0x04}
	case tea.KeyRunes:
		return []byte(string(msg.Runes))
	default:
		if len(msg.Runes) > 0 {
			return []byte(string(msg.Runes))
		}
		return nil
	}
}
