// Package tmux opens pop-out windows as tmux windows via exec. Pop-outs
// are only available when the host runs inside tmux (TMUX env set);
// commands target the current session automatically.
package tmux

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// ErrNotInTmux is returned when a window is requested outside tmux.
var ErrNotInTmux = errors.New("not running inside tmux")

// InTmux reports whether the process runs inside a tmux client.
func InTmux() bool {
	return os.Getenv("TMUX") != ""
}

// Window describes a tmux window to open.
type Window struct {
	Name string
	// Env is a list of KEY=VALUE pairs set in the new pane.
	Env []string
	// Dir is the working directory, empty for tmux's default.
	Dir string
	// Background keeps focus on the current window.
	Background bool
	Args       []string
}

// newWindowArgs builds the tmux arguments for w.
func newWindowArgs(w Window) []string {
	args := []string{"new-window", "-P", "-F", "#{pane_id}"}
	if w.Background {
		args = append(args, "-d")
	}
	if w.Name != "" {
		args = append(args, "-n", w.Name)
	}
	if w.Dir != "" {
		args = append(args, "-c", w.Dir)
	}
	for _, kv := range w.Env {
		args = append(args, "-e", kv)
	}
	if len(w.Args) > 0 {
		args = append(args, "--")
		args = append(args, w.Args...)
	}
	return args
}

// NewWindow opens w and returns the ID of its pane (e.g. %4).
func NewWindow(w Window) (paneID string, err error) {
	if !InTmux() {
		return "", ErrNotInTmux
	}
	cmd := exec.Command("tmux", newWindowArgs(w)...)
	var out, errOut bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errOut
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tmux new-window: %w: %s", err, strings.TrimSpace(errOut.String()))
	}
	return strings.TrimSpace(out.String()), nil
}

// KillPane kills the pane with the given ID.
func KillPane(paneID string) error {
	cmd := exec.Command("tmux", "kill-pane", "-t", paneID)
	var out bytes.Buffer
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("tmux kill-pane: %w: %s", err, strings.TrimSpace(out.String()))
	}
	return nil
}

// SelectPane focuses the window holding paneID.
func SelectPane(paneID string) error {
	cmd := exec.Command("tmux", "select-window", "-t", paneID)
	var out bytes.Buffer
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("tmux select-window: %w: %s", err, strings.TrimSpace(out.String()))
	}
	return nil
}

// ListPaneIDs returns all live pane IDs across all tmux sessions/windows.
// Each ID looks like "%42". Used for liveness checks by the session tracker.
func ListPaneIDs() (map[string]bool, error) {
	cmd := exec.Command("tmux", "list-panes", "-a", "-F", "#{pane_id}")
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("tmux list-panes: %w: %s", err, strings.TrimSpace(out.String()))
	}
	return parsePaneIDs(out.String()), nil
}

func parsePaneIDs(s string) map[string]bool {
	panes := make(map[string]bool)
	for _, line := range strings.Split(strings.TrimSpace(s), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			panes[line] = true
		}
	}
	return panes
}
