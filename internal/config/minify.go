package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"docklayout/internal/jsonutil"
)

// Keys and values replaced by their base-36 index when minifying. The
// tables are part of the persisted format: append only, at most 36 each.
var minifyKeys = [...]string{
	"settings",
	"hasHeaders",
	"constrainDragToContainer",
	"selectionEnabled",
	"dimensions",
	"borderWidth",
	"minItemHeight",
	"minItemWidth",
	"headerHeight",
	"dragProxyWidth",
	"dragProxyHeight",
	"labels",
	"close",
	"maximise",
	"minimise",
	"popout",
	"content",
	"componentType",
	"componentState",
	"id",
	"width",
	"type",
	"height",
	"isClosable",
	"title",
	"popoutWholeStack",
	"openPopouts",
	"parentId",
	"activeItemIndex",
	"reorderEnabled",
	"borderGrabWidth",
}

var minifyValues = [...]any{
	true,
	false,
	"row",
	"column",
	"stack",
	"component",
	"close",
	"maximise",
	"minimise",
	"open in new window",
}

// Strings that could be mistaken for a table index (one character) or for
// an escaped string are prefixed with this marker.
const escapePrefix = "___"

// Minify rewrites a JSON-shaped value tree (maps, slices, strings,
// numbers, booleans, nil) using the key and value tables.
func Minify(v any) any {
	return translate(v, minifyKey, minifyValue)
}

// Unminify is the exact inverse of Minify.
func Unminify(v any) any {
	return translate(v, unminifyKey, unminifyValue)
}

// MinifyLayout encodes cfg as minified JSON.
func MinifyLayout(cfg ResolvedLayoutConfig) ([]byte, error) {
	return minifyJSON(cfg)
}

// UnminifyLayout decodes the output of MinifyLayout.
func UnminifyLayout(data []byte) (ResolvedLayoutConfig, error) {
	var out ResolvedLayoutConfig
	if err := unminifyJSON(data, &out); err != nil {
		return ResolvedLayoutConfig{}, err
	}
	return out, nil
}

// MinifyPopout encodes a pop-out config as minified JSON.
func MinifyPopout(cfg ResolvedPopoutLayoutConfig) ([]byte, error) {
	return minifyJSON(cfg)
}

// UnminifyPopout decodes the output of MinifyPopout.
func UnminifyPopout(data []byte) (ResolvedPopoutLayoutConfig, error) {
	var out ResolvedPopoutLayoutConfig
	if err := unminifyJSON(data, &out); err != nil {
		return ResolvedPopoutLayoutConfig{}, err
	}
	return out, nil
}

func minifyJSON(v any) ([]byte, error) {
	var tree any
	if err := jsonutil.Convert(v, &tree, "encode config"); err != nil {
		return nil, err
	}
	data, err := json.Marshal(Minify(tree))
	if err != nil {
		return nil, fmt.Errorf("marshal minified config: %w", err)
	}
	return data, nil
}

func unminifyJSON(data []byte, out any) error {
	var tree any
	if err := jsonutil.UnmarshalWithContext(data, &tree, "decode minified config"); err != nil {
		return err
	}
	return jsonutil.Convert(Unminify(tree), out, "decode unminified config")
}

func translate(v any, key func(string) string, value func(any) any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[key(k)] = translate(child, key, value)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = translate(child, key, value)
		}
		return out
	default:
		return value(v)
	}
}

func minifyKey(k string) string {
	for i, known := range minifyKeys {
		if known == k {
			return strconv.FormatInt(int64(i), 36)
		}
	}
	return escape(k)
}

func unminifyKey(k string) string {
	if s, ok := unescape(k); ok {
		return s
	}
	if len(k) == 1 {
		if i, err := strconv.ParseInt(k, 36, 0); err == nil && int(i) < len(minifyKeys) {
			return minifyKeys[i]
		}
	}
	return k
}

func minifyValue(v any) any {
	if s, ok := v.(string); ok {
		if len(s) == 1 || strings.HasPrefix(s, escapePrefix) {
			return escapePrefix + s
		}
	}
	switch v.(type) {
	case string, bool:
		for i, known := range minifyValues {
			if known == v {
				return strconv.FormatInt(int64(i), 36)
			}
		}
	}
	return v
}

func unminifyValue(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	if orig, ok := unescape(s); ok {
		return orig
	}
	if len(s) == 1 {
		if i, err := strconv.ParseInt(s, 36, 0); err == nil && int(i) < len(minifyValues) {
			return minifyValues[i]
		}
	}
	return s
}

func escape(s string) string {
	if len(s) == 1 || strings.HasPrefix(s, escapePrefix) {
		return escapePrefix + s
	}
	return s
}

func unescape(s string) (string, bool) {
	if strings.HasPrefix(s, escapePrefix) {
		return s[len(escapePrefix):], true
	}
	return "", false
}
