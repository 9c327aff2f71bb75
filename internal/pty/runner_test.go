package pty

import (
	"bytes"
	"io"
	"os"
	"os/exec"
	"sync"
	"testing"
	"time"
)

// pipeRunner starts commands on a plain pipe instead of a terminal.
type pipeRunner struct {
	mu      sync.Mutex
	resized []Size
}

type pipeRWC struct {
	io.Reader
	r *os.File
}

func (p pipeRWC) Write(b []byte) (int, error) { return len(b), nil }
func (p pipeRWC) Close() error { return p.r.Close() }

func (p *pipeRunner) Start(cmd *exec.Cmd, size Size) (io.ReadWriteCloser, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	cmd.Stdout = w
	cmd.Stderr = w
	if err := cmd.Start(); err != nil {
		r.Close()
		w.Close()
		return nil, err
	}
	w.Close()
	return pipeRWC{Reader: r, r: r}, nil
}

func (p *pipeRunner) Resize(_ io.ReadWriteCloser, size Size) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resized = append(p.resized, size)
	return nil
}

// syncBuffer is a bytes.Buffer safe for the copy goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("Skipping: sh not available")
	}
}

func waitDone(t *testing.T, s *Session) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("session did not finish")
	}
}

func TestSizeFor(t *testing.T) {
	tests := []struct {
		w, h float64
		want Size
	}{
		{80, 24, Size{Rows: 24, Cols: 80}},
		{0, -3, Size{Rows: 1, Cols: 1}},
		{1e9, 10.7, Size{Rows: 10, Cols: 65535}},
	}
	for _, tt := range tests {
		if got := SizeFor(tt.w, tt.h); got != tt.want {
			t.Errorf("SizeFor(%v, %v) = %+v, want %+v", tt.w, tt.h, got, tt.want)
		}
	}
}

func TestSession_CopiesOutputUntilExit(t *testing.T) {
	requireShell(t)
	var out syncBuffer
	s, err := Start(&pipeRunner{}, exec.Command("sh", "-c", "echo hello; exit 3"), Size{Rows: 10, Cols: 40}, &out)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitDone(t, s)

	if got := out.String(); got != "hello\n" {
		t.Errorf("output = %q, want %q", got, "hello\n")
	}
	if err := s.Err(); err != nil {
		t.Errorf("Err() = %v, want nil for a non-zero exit", err)
	}
	if code := s.ExitCode(); code != 3 {
		t.Errorf("ExitCode() = %d, want 3", code)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close after exit: %v", err)
	}
}

func TestSession_CloseKillsChild(t *testing.T) {
	requireShell(t)
	s, err := Start(&pipeRunner{}, exec.Command("sh", "-c", "sleep 30"), Size{Rows: 1, Cols: 1}, nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.Pid() == 0 {
		t.Error("Pid() = 0 for a running child")
	}
	if code := s.ExitCode(); code != -1 {
		t.Errorf("ExitCode() while running = %d, want -1", code)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	waitDone(t, s)
}

func TestSession_Resize(t *testing.T) {
	requireShell(t)
	r := &pipeRunner{}
	s, err := Start(r, exec.Command("sh", "-c", "exit 0"), Size{Rows: 5, Cols: 5}, nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Close()
	if err := s.Resize(Size{Rows: 30, Cols: 100}); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.resized) != 1 || r.resized[0] != (Size{Rows: 30, Cols: 100}) {
		t.Errorf("resized = %+v", r.resized)
	}
}

func TestStart_Error(t *testing.T) {
	_, err := Start(&pipeRunner{}, exec.Command("/nonexistent/dock-test-binary"), Size{Rows: 1, Cols: 1}, nil)
	if err == nil {
		t.Error("expected error starting a missing binary")
	}
}
