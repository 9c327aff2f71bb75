package popout

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"

	"docklayout/internal/layout"
	"docklayout/internal/pty"
	"docklayout/internal/session"
	"docklayout/internal/tmux"
)

// Command is what a Spawner starts for a pop-out window.
type Command struct {
	Title string
	// Args[0] is the program.
	Args []string
	// Env holds KEY=VALUE pairs added to the child's environment.
	Env    []string
	Width  float64
	Height float64
}

// Process is a running pop-out window.
type Process interface {
	ID() string
	// Done is closed when the window exits. A nil channel means exits are
	// only noticed through the Spawner's liveness check.
	Done() <-chan struct{}
	Stop() error
}

// Spawner starts pop-out windows. A spawner that cannot open windows in
// the current environment returns an error wrapping
// layout.ErrPopoutBlocked.
type Spawner interface {
	Kind() session.WindowKind
	Spawn(ctx context.Context, cmd Command) (Process, error)
}

// LivenessSource is implemented by spawners whose processes must be
// polled for exit.
type LivenessSource interface {
	Live() (map[string]bool, error)
}

// TmuxSpawner opens each window as a background tmux window.
type TmuxSpawner struct{}

var (
	_ Spawner        = TmuxSpawner{}
	_ LivenessSource = TmuxSpawner{}
)

func (TmuxSpawner) Kind() session.WindowKind { return session.WindowTmux }

// Spawn implements Spawner.
func (TmuxSpawner) Spawn(_ context.Context, cmd Command) (Process, error) {
	if !tmux.InTmux() {
		return nil, fmt.Errorf("%w: %w", layout.ErrPopoutBlocked, tmux.ErrNotInTmux)
	}
	paneID, err := tmux.NewWindow(tmux.Window{
		Name: cmd.Title,
		Env:  cmd.Env,
		Args: cmd.Args,
	})
	if err != nil {
		return nil, err
	}
	return tmuxProcess(paneID), nil
}

// Live implements LivenessSource.
func (TmuxSpawner) Live() (map[string]bool, error) {
	return tmux.ListPaneIDs()
}

type tmuxProcess string

func (p tmuxProcess) ID() string { return string(p) }
func (p tmuxProcess) Done() <-chan struct{} { return nil }
func (p tmuxProcess) Stop() error { return tmux.KillPane(string(p)) }

// PTYSpawner runs each window in a pseudo-terminal sized to the window.
type PTYSpawner struct {
	Runner pty.Runner
	// Output returns the writer for a window's terminal output, by
	// window title. Nil discards it.
	Output func(title string) io.Writer
}

var _ Spawner = (*PTYSpawner)(nil)

func (s *PTYSpawner) Kind() session.WindowKind { return session.WindowPTY }

// Spawn implements Spawner.
func (s *PTYSpawner) Spawn(ctx context.Context, cmd Command) (Process, error) {
	if len(cmd.Args) == 0 {
		return nil, fmt.Errorf("spawn pty: empty command")
	}
	c := exec.Command(cmd.Args[0], cmd.Args[1:]...)
	c.Env = append(os.Environ(), cmd.Env...)
	var out io.Writer
	if s.Output != nil {
		out = s.Output(cmd.Title)
	}
	sess, err := pty.Start(s.Runner, c, pty.SizeFor(cmd.Width, cmd.Height), out)
	if err != nil {
		return nil, fmt.Errorf("spawn pty: %w", err)
	}
	return ptyProcess{sess}, nil
}

type ptyProcess struct {
	s *pty.Session
}

func (p ptyProcess) ID() string { return strconv.Itoa(p.s.Pid()) }
func (p ptyProcess) Done() <-chan struct{} { return p.s.Done() }
func (p ptyProcess) Stop() error { return p.s.Close() }
func (p ptyProcess) Err() error { return p.s.Err() }

// InProcess runs each window as a goroutine in this process. Run gets a
// context cancelled by Stop.
type InProcess struct {
	Run func(ctx context.Context, cmd Command) error

	seq atomic.Int64
}

var _ Spawner = (*InProcess)(nil)

func (s *InProcess) Kind() session.WindowKind { return session.WindowInProcess }

// Spawn implements Spawner.
func (s *InProcess) Spawn(ctx context.Context, cmd Command) (Process, error) {
	if s.Run == nil {
		return nil, fmt.Errorf("%w: no in-process runner", layout.ErrPopoutBlocked)
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p := &inProcess{
		id:     "inproc-" + strconv.FormatInt(s.seq.Add(1), 10),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		defer close(p.done)
		p.err = s.Run(runCtx, cmd)
	}()
	return p, nil
}

type inProcess struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
	err    error
}

func (p *inProcess) ID() string { return p.id }
func (p *inProcess) Done() <-chan struct{} { return p.done }

// Err returns Run's error once Done is closed.
func (p *inProcess) Err() error {
	<-p.done
	return p.err
}

func (p *inProcess) Stop() error {
	p.once.Do(p.cancel)
	return nil
}
