package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlLayout = `
settings:
  responsiveMode: always
dimensions:
  borderWidth: 1
  headerHeight: 1
root:
  type: row
  content:
    - type: component
      componentType: files
      width: 30
    - type: stack
      content:
        - type: component
          componentType: editor
          componentState:
            path: main.go
`

const tomlLayout = `
[dimensions]
borderWidth = 1

[root]
type = "column"

[[root.content]]
type = "component"
componentType = "logs"
height = 25

[[root.content]]
type = "component"
componentType = "shell"
`

func TestDecode_YAML(t *testing.T) {
	cfg, err := Decode([]byte(yamlLayout), FormatYAML)
	require.NoError(t, err)
	resolved, err := Resolve(cfg)
	require.NoError(t, err)

	assert.Equal(t, ResponsiveAlways, resolved.Settings.ResponsiveMode)
	assert.Equal(t, 1, resolved.Dimensions.BorderWidth)
	assert.Equal(t, 1, resolved.Dimensions.HeaderHeight)
	require.Len(t, resolved.Root.Content, 2)
	assert.Equal(t, 30.0, resolved.Root.Content[0].Width)
	editor := resolved.Root.Content[1].Content[0]
	assert.Equal(t, map[string]any{"path": "main.go"}, editor.ComponentState)
}

func TestDecode_TOML(t *testing.T) {
	cfg, err := Decode([]byte(tomlLayout), FormatTOML)
	require.NoError(t, err)
	resolved, err := Resolve(cfg)
	require.NoError(t, err)

	assert.Equal(t, TypeColumn, resolved.Root.Type)
	require.Len(t, resolved.Root.Content, 2)
	assert.Equal(t, 25.0, resolved.Root.Content[0].Height)
	assert.Equal(t, "shell", resolved.Root.Content[1].Content[0].ComponentType)
}

func TestDecode_JSONIDList(t *testing.T) {
	cfg, err := Decode([]byte(`{"root":{"type":"stack","id":["__glMaximised","s1"],"content":[]}}`), FormatJSON)
	require.NoError(t, err)
	resolved, err := Resolve(cfg)
	require.NoError(t, err)
	assert.Equal(t, "s1", resolved.Root.ID)
	assert.True(t, resolved.Root.Maximised)
}

func TestDecode_InvalidInput(t *testing.T) {
	_, err := Decode([]byte("root: [unterminated"), FormatYAML)
	assert.Error(t, err)
	_, err = Decode([]byte("{"), FormatJSON)
	assert.Error(t, err)
	_, err = Decode([]byte("root = "), FormatTOML)
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "layout.yml")
	require.NoError(t, os.WriteFile(path, []byte(yamlLayout), 0644))

	resolved, err := LoadResolvedFile(path)
	require.NoError(t, err)
	assert.Equal(t, TypeRow, resolved.Root.Type)

	_, err = LoadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"a.yaml":  FormatYAML,
		"a.YML":   FormatYAML,
		"a.toml":  FormatTOML,
		"a.json":  FormatJSON,
		"a.saved": FormatJSON,
	}
	for path, want := range tests {
		if got := FormatFromPath(path); got != want {
			t.Errorf("FormatFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}
