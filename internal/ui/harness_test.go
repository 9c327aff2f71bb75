package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"docklayout/internal/config"
	"docklayout/internal/layout"
	"docklayout/internal/tick"
)

func text(title, body string) config.ItemConfig {
	return config.ItemConfig{
		Type:           config.TypeComponent,
		ComponentType:  TypeText,
		Title:          &title,
		ComponentState: map[string]any{"text": body},
	}
}

func stack(children ...config.ItemConfig) config.ItemConfig {
	return config.ItemConfig{Type: config.TypeStack, Content: children}
}

func row(children ...config.ItemConfig) config.ItemConfig {
	return config.ItemConfig{Type: config.TypeRow, Content: children}
}

func column(children ...config.ItemConfig) config.ItemConfig {
	return config.ItemConfig{Type: config.TypeColumn, Content: children}
}

// newManager loads root into a terminal-sized manager driven by sched.
func newManager(t *testing.T, sched tick.Scheduler, w, h int, root *config.ItemConfig) *layout.Manager {
	t.Helper()
	reg := layout.NewRegistry()
	require.NoError(t, RegisterPanes(reg))
	m := layout.NewManager(layout.Options{
		Binder:       reg,
		Scheduler:    sched,
		SideAreaSize: TerminalSideAreaSize,
	})
	resolved, err := config.Resolve(Terminalize(config.LayoutConfig{Root: root}))
	require.NoError(t, err)
	require.NoError(t, m.LoadLayout(resolved))
	m.SetSize(w, h)
	t.Cleanup(m.Destroy)
	return m
}

func render(m *layout.Manager, o Overlay) *Canvas {
	w, h := m.Size()
	c := NewCanvas(w, h)
	Render(c, m, o)
	return c
}

func plainLines(c *Canvas) []string {
	return strings.Split(c.Plain(), "\n")
}

func findItem(t *testing.T, m *layout.Manager, title string) *layout.Item {
	t.Helper()
	for _, c := range m.AllComponents() {
		if c.Title() == title {
			return c
		}
	}
	t.Fatalf("no component %q", title)
	return nil
}

func ptr[T any](v T) *T { return &v }
