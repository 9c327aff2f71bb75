package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docklayout/internal/config"
	"docklayout/internal/store"
	"docklayout/internal/ui"
)

const rowLayout = `
root:
  type: row
  content:
    - type: component
      componentType: text
      title: left
      componentState:
        text: hello
    - type: component
      componentType: events
      title: right
settings:
  responsiveMode: none
`

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	if stdin != nil {
		root.SetIn(stdin)
	}
	root.SetArgs(args)
	err := root.ExecuteContext(t.Context())
	return out.String(), err
}

func decodeResolved(t *testing.T, out string) config.ResolvedLayoutConfig {
	t.Helper()
	var cfg config.ResolvedLayoutConfig
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	return cfg
}

func TestHelpListsCommands(t *testing.T) {
	isolate(t)
	out, err := execute(t, nil, "--help")
	require.NoError(t, err)
	for _, want := range []string{"run", "resolve", "minify", "unminify", "layouts"} {
		if !strings.Contains(out, want) {
			t.Errorf("help output should contain %q, got: %s", want, out)
		}
	}
	assert.NotContains(t, out, "gl-window")
}

func TestResolveCommand(t *testing.T) {
	isolate(t)
	path := writeFile(t, filepath.Join(t.TempDir(), "layout.yaml"), rowLayout)

	out, err := execute(t, nil, "resolve", path)
	require.NoError(t, err)
	cfg := decodeResolved(t, out)
	require.NotNil(t, cfg.Root)
	assert.Equal(t, config.TypeRow, cfg.Root.Type)
	assert.Len(t, cfg.Root.Content, 2)
	assert.Equal(t, config.ResponsiveNone, cfg.Settings.ResponsiveMode)
	assert.Equal(t, config.DefaultDimensions(), cfg.Dimensions)

	out, err = execute(t, nil, "resolve", "--terminal", path)
	require.NoError(t, err)
	cfg = decodeResolved(t, out)
	assert.Equal(t, ui.TerminalBorderWidth, cfg.Dimensions.BorderWidth)
	assert.Equal(t, ui.TerminalHeaderHeight, cfg.Dimensions.HeaderHeight)
	assert.Equal(t, 0, cfg.Settings.TabControlOffset)
}

func TestResolveCommand_Errors(t *testing.T) {
	isolate(t)
	_, err := execute(t, nil, "resolve", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = execute(t, nil, "resolve")
	assert.Error(t, err)

	bad := writeFile(t, filepath.Join(t.TempDir(), "bad.json"), `{"root": {"type": "pyramid"}}`)
	_, err = execute(t, nil, "resolve", bad)
	assert.Error(t, err)
}

func TestMinifyRoundTrip(t *testing.T) {
	isolate(t)
	path := writeFile(t, filepath.Join(t.TempDir(), "layout.yaml"), rowLayout)

	resolved, err := execute(t, nil, "resolve", path)
	require.NoError(t, err)
	minified, err := execute(t, nil, "minify", path)
	require.NoError(t, err)
	assert.Less(t, len(minified), len(resolved))

	fromStdin, err := execute(t, strings.NewReader(minified), "unminify", "-")
	require.NoError(t, err)
	assert.JSONEq(t, resolved, fromStdin)

	file := writeFile(t, filepath.Join(t.TempDir(), "layout.min.json"), minified)
	fromFile, err := execute(t, nil, "unminify", file)
	require.NoError(t, err)
	assert.JSONEq(t, resolved, fromFile)
}

func TestLayoutsCommands(t *testing.T) {
	isolate(t)
	path := writeFile(t, filepath.Join(t.TempDir(), "layout.yaml"), rowLayout)
	db := filepath.Join(t.TempDir(), "saved.db")

	out, err := execute(t, nil, "layouts", "list", "--db-path", db)
	require.NoError(t, err)
	assert.Equal(t, "no saved layouts\n", out)

	_, err = execute(t, nil, "layouts", "save", "work", path, "--db-path", db)
	require.NoError(t, err)

	out, err = execute(t, nil, "layouts", "list", "--db-path", db)
	require.NoError(t, err)
	assert.Contains(t, out, "work")
	assert.Contains(t, out, "Name")

	out, err = execute(t, nil, "layouts", "show", "work", "--db-path", db)
	require.NoError(t, err)
	cfg := decodeResolved(t, out)
	require.NotNil(t, cfg.Root)
	assert.Equal(t, config.TypeRow, cfg.Root.Type)
	assert.Equal(t, ui.TerminalBorderWidth, cfg.Dimensions.BorderWidth)

	raw, err := execute(t, nil, "layouts", "show", "work", "--minified", "--db-path", db)
	require.NoError(t, err)
	unminified, err := execute(t, strings.NewReader(raw), "unminify", "-")
	require.NoError(t, err)
	assert.JSONEq(t, out, unminified)

	_, err = execute(t, nil, "layouts", "delete", "work", "--db-path", db)
	require.NoError(t, err)
	_, err = execute(t, nil, "layouts", "show", "work", "--db-path", db)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = execute(t, nil, "layouts", "delete", "work", "--db-path", db)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRenderLayoutTable(t *testing.T) {
	out := renderLayoutTable([]store.Summary{
		{Name: "alpha", Bytes: 120},
		{Name: "beta", Bytes: 64},
	})
	for _, want := range []string{"alpha", "beta", "120", "64", "Updated"} {
		assert.Contains(t, out, want)
	}
}

func TestInvalidConfigFailsCommands(t *testing.T) {
	isolate(t)
	t.Setenv("DOCK_STORAGE", "bogus")
	_, err := execute(t, nil, "layouts", "list")
	assert.ErrorContains(t, err, "storage")
}
