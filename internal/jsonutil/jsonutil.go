// Package jsonutil provides shared JSON helpers: decode errors carry a
// context message, and arbitrary decoded trees (YAML, TOML, generic maps)
// can be converted into typed structs through a JSON round trip.
package jsonutil

import (
	"encoding/json"
	"fmt"
	"io"
)

// UnmarshalWithContext unmarshals JSON data into v and wraps any error
// with the provided context message.
func UnmarshalWithContext(data []byte, v interface{}, context string) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: %w", context, err)
	}
	return nil
}

// DecodeWithContext decodes a single JSON document from r into v.
// Unknown fields are rejected so that typos in request bodies surface.
func DecodeWithContext(r io.Reader, v interface{}, context string) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%s: %w", context, err)
	}
	return nil
}

// Convert re-encodes in as JSON and decodes it into out. It is used to
// turn YAML/TOML maps or generic JSON trees into typed values.
func Convert(in interface{}, out interface{}, context string) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: %w", context, err)
	}
	return UnmarshalWithContext(data, out, context)
}
