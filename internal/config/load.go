package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"docklayout/internal/jsonutil"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format is the encoding of a layout file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath picks the format from the file extension. Unknown
// extensions are treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return FormatJSON
	}
}

// LoadFile reads a user layout config from path.
func LoadFile(path string) (LayoutConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return LayoutConfig{}, fmt.Errorf("read layout %s: %w", path, err)
	}
	cfg, err := Decode(data, FormatFromPath(path))
	if err != nil {
		return LayoutConfig{}, fmt.Errorf("load layout %s: %w", path, err)
	}
	return cfg, nil
}

// Decode parses a user layout config in the given format.
func Decode(data []byte, format Format) (LayoutConfig, error) {
	var cfg LayoutConfig
	switch format {
	case FormatYAML:
		var tree map[string]any
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return LayoutConfig{}, fmt.Errorf("parse yaml: %w", err)
		}
		if err := jsonutil.Convert(tree, &cfg, "decode yaml layout"); err != nil {
			return LayoutConfig{}, err
		}
	case FormatTOML:
		var tree map[string]any
		if err := toml.Unmarshal(data, &tree); err != nil {
			return LayoutConfig{}, fmt.Errorf("parse toml: %w", err)
		}
		if err := jsonutil.Convert(tree, &cfg, "decode toml layout"); err != nil {
			return LayoutConfig{}, err
		}
	default:
		if err := jsonutil.UnmarshalWithContext(data, &cfg, "decode json layout"); err != nil {
			return LayoutConfig{}, err
		}
	}
	return cfg, nil
}

// LoadResolvedFile loads and resolves a layout file in one step.
func LoadResolvedFile(path string) (ResolvedLayoutConfig, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return ResolvedLayoutConfig{}, err
	}
	return Resolve(cfg)
}
