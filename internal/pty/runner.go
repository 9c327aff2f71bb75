// Package pty runs pop-out windows inside pseudo-terminals.
package pty

import (
	"errors"
	"io"
	"math"
	"os"
	"os/exec"
	"sync"

	"github.com/creack/pty"
)

// Size represents terminal dimensions in rows and columns.
type Size struct {
	Rows uint16
	Cols uint16
}

// SizeFor converts a window size in cells to a PTY size. Each side is at
// least one cell.
func SizeFor(width, height float64) Size {
	clamp := func(v float64) uint16 {
		if math.IsNaN(v) || v < 1 {
			return 1
		}
		return uint16(min(v, math.MaxUint16))
	}
	return Size{Rows: clamp(height), Cols: clamp(width)}
}

// Runner is the interface for spawning and controlling a PTY.
// Implementations can be swapped (e.g. creack/pty, or a mock for tests).
type Runner interface {
	Start(cmd *exec.Cmd, size Size) (io.ReadWriteCloser, error)
	Resize(rwc io.ReadWriteCloser, size Size) error
}

// CreackPTY implements Runner using github.com/creack/pty.
type CreackPTY struct{}

var _ Runner = (*CreackPTY)(nil)

// Start implements Runner. Spawns cmd in a PTY with the given size.
func (c *CreackPTY) Start(cmd *exec.Cmd, size Size) (io.ReadWriteCloser, error) {
	return pty.StartWithSize(cmd, &pty.Winsize{Rows: size.Rows, Cols: size.Cols})
}

// Resize implements Runner. The rwc must be the *os.File returned by
// Start; other types are a no-op.
func (c *CreackPTY) Resize(rwc io.ReadWriteCloser, size Size) error {
	f, ok := rwc.(*os.File)
	if !ok {
		return nil
	}
	return pty.Setsize(f, &pty.Winsize{Rows: size.Rows, Cols: size.Cols})
}

// Session is a command running in a pseudo-terminal. Terminal output is
// copied to the writer given to Start until the command exits.
type Session struct {
	cmd    *exec.Cmd
	tty    io.ReadWriteCloser
	runner Runner

	done      chan struct{}
	closeOnce sync.Once
	err       error
}

// Start runs cmd in a new PTY. out may be nil to discard output.
func Start(r Runner, cmd *exec.Cmd, size Size, out io.Writer) (*Session, error) {
	if r == nil {
		r = &CreackPTY{}
	}
	if out == nil {
		out = io.Discard
	}
	tty, err := r.Start(cmd, size)
	if err != nil {
		return nil, err
	}
	s := &Session{cmd: cmd, tty: tty, runner: r, done: make(chan struct{})}

	copied := make(chan struct{})
	go func() {
		defer close(copied)
		_, _ = io.Copy(out, tty)
	}()
	go func() {
		err := cmd.Wait()
		// The PTY reports EIO once the child is gone; drain what is left
		// before announcing the exit.
		<-copied
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			err = nil
		}
		s.err = err
		close(s.done)
	}()
	return s, nil
}

// Pid returns the child's process ID.
func (s *Session) Pid() int {
	if s.cmd.Process == nil {
		return 0
	}
	return s.cmd.Process.Pid
}

// ExitCode returns the child's exit code, or -1 while it runs.
func (s *Session) ExitCode() int {
	select {
	case <-s.done:
	default:
		return -1
	}
	if s.cmd.ProcessState == nil {
		return -1
	}
	return s.cmd.ProcessState.ExitCode()
}

// Write sends input to the child's terminal.
func (s *Session) Write(p []byte) (int, error) {
	return s.tty.Write(p)
}

// Resize changes the terminal size.
func (s *Session) Resize(size Size) error {
	return s.runner.Resize(s.tty, size)
}

// Done is closed once the child has exited and its output is drained.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err returns the wait error once Done is closed. A non-zero exit is not
// an error.
func (s *Session) Err() error {
	<-s.done
	return s.err
}

// Close kills the child if it is still running and releases the
// terminal.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		select {
		case <-s.done:
		default:
			if s.cmd.Process != nil {
				_ = s.cmd.Process.Kill()
			}
		}
		err = s.tty.Close()
	})
	return err
}
