package session

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// WindowKeyPrefix starts every pop-out window key. The key doubles as
// the storage key holding the window's config.
const WindowKeyPrefix = "gl-window-config-"

// WindowKey identifies one pop-out window. It serializes as
// "gl-window-config-<uuid>".
type WindowKey struct {
	id uuid.UUID
}

// NewWindowKey returns a fresh random key.
func NewWindowKey() WindowKey {
	return WindowKey{id: uuid.New()}
}

// String returns the key in its storage form.
func (k WindowKey) String() string {
	return WindowKeyPrefix + k.id.String()
}

// ID returns the random part of the key.
func (k WindowKey) ID() uuid.UUID {
	return k.id
}

// IsValid reports whether the key was created or parsed rather than
// zero-valued.
func (k WindowKey) IsValid() bool {
	return k.id != uuid.Nil
}

// ParseWindowKey parses the storage form of a window key.
func ParseWindowKey(s string) (WindowKey, error) {
	s = strings.TrimSpace(s)
	rest, ok := strings.CutPrefix(s, WindowKeyPrefix)
	if !ok {
		return WindowKey{}, fmt.Errorf("invalid window key %q: missing %q prefix", s, WindowKeyPrefix)
	}
	id, err := uuid.Parse(rest)
	if err != nil {
		return WindowKey{}, fmt.Errorf("invalid window key %q: %w", s, err)
	}
	if id == uuid.Nil {
		return WindowKey{}, fmt.Errorf("invalid window key %q: nil id", s)
	}
	return WindowKey{id: id}, nil
}
