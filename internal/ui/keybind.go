package ui

import (
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Scope says which windows a binding applies to.
type Scope uint8

const (
	ScopeAny    Scope = iota
	ScopeMain         // the window that owns the layout
	ScopePopout       // a pop-out window
)

// KeybindRegistry maps key sequences to commands.
// Key sequences use spacemacs-style notation: "SPC" for space, "SPC w" for SPC then w.
// Single keys: "tab", "esc", "ctrl+c", "enter".
type KeybindRegistry struct {
	bindings     map[string]tea.Cmd
	descriptions map[string]string
	scopes       map[string]Scope
}

// NewKeybindRegistry creates an empty registry.
func NewKeybindRegistry() *KeybindRegistry {
	return &KeybindRegistry{
		bindings:     make(map[string]tea.Cmd),
		descriptions: make(map[string]string),
		scopes:       make(map[string]Scope),
	}
}

// Bind registers a key sequence to a command.
// Overwrites any existing binding for the sequence.
func (r *KeybindRegistry) Bind(seq string, cmd tea.Cmd) {
	r.BindWithDesc(seq, cmd, "")
}

// BindWithDesc registers a key sequence with a description for the help view.
func (r *KeybindRegistry) BindWithDesc(seq string, cmd tea.Cmd, desc string) {
	r.BindScoped(seq, cmd, desc, ScopeAny)
}

// BindScoped registers a key sequence that only applies in windows of the
// given scope.
func (r *KeybindRegistry) BindScoped(seq string, cmd tea.Cmd, desc string, scope Scope) {
	n := normalizeSeq(seq)
	r.bindings[n] = cmd
	if desc != "" {
		r.descriptions[n] = desc
	}
	if scope != ScopeAny {
		r.scopes[n] = scope
	}
}

// Lookup returns the command for a key sequence, or nil if not bound.
func (r *KeybindRegistry) Lookup(seq string) tea.Cmd {
	return r.bindings[normalizeSeq(seq)]
}

// LookupIn is Lookup restricted to bindings that apply in scope.
func (r *KeybindRegistry) LookupIn(seq string, scope Scope) tea.Cmd {
	n := normalizeSeq(seq)
	if !r.appliesTo(n, scope) {
		return nil
	}
	return r.bindings[n]
}

// HasPrefix returns true if any binding starts with seq and a space (i.e. more keys follow).
func (r *KeybindRegistry) HasPrefix(seq string) bool {
	prefix := normalizeSeq(seq) + " "
	for k := range r.bindings {
		if strings.HasPrefix(k, prefix) {
			return true
		}
	}
	return false
}

// Hints returns all bound sequences with descriptions for display.
func (r *KeybindRegistry) Hints() map[string]string {
	out := make(map[string]string)
	for seq, cmd := range r.bindings {
		if cmd == nil {
			continue
		}
		if d, ok := r.descriptions[seq]; ok && d != "" {
			out[seq] = d
		} else {
			out[seq] = seq
		}
	}
	return out
}

// submenuLabel names first-level keys that open a submenu.
var submenuLabel = map[string]string{
	"w": "Window",
	"l": "Layout",
	"t": "Tab",
}

// LeaderHints returns hints for SPC-prefixed bindings that apply in scope.
// When currentSeq is empty, returns first-level hints (e.g. "q", "w").
// When currentSeq is e.g. "SPC w", returns next-level hints (e.g. "m", "p").
func (r *KeybindRegistry) LeaderHints(currentSeq string, scope Scope) map[string]string {
	out := make(map[string]string)
	prefix := "SPC "
	if currentSeq != "" {
		prefix = normalizeSeq(currentSeq) + " "
	}
	for seq, cmd := range r.bindings {
		if cmd == nil || !strings.HasPrefix(seq, prefix) || !r.appliesTo(seq, scope) {
			continue
		}
		rest := strings.TrimPrefix(seq, prefix)
		k := rest
		if parts := strings.Fields(rest); len(parts) > 0 {
			k = parts[0]
		}
		if r.HasPrefix(prefix + k) {
			if label, ok := submenuLabel[k]; ok {
				out[k] = label
			} else {
				out[k] = k + "…"
			}
			continue
		}
		if d, ok := r.descriptions[seq]; ok && d != "" {
			out[k] = d
		} else {
			out[k] = seq
		}
	}
	return out
}

func (r *KeybindRegistry) appliesTo(seq string, scope Scope) bool {
	s, ok := r.scopes[seq]
	return !ok || s == ScopeAny || s == scope
}

// normalizeSeq converts tea key strings to our canonical format.
// "space" -> "SPC", "ctrl+c" -> "ctrl+c", "j" -> "j".
func normalizeSeq(seq string) string {
	parts := strings.Fields(seq)
	for i, p := range parts {
		if p == "space" {
			parts[i] = "SPC"
		}
	}
	return strings.Join(parts, " ")
}

// KeyHandler manages leader key state and dispatches to the registry.
type KeyHandler struct {
	Registry      *KeybindRegistry
	Scope         Scope
	LeaderKey     string   // " " (tea.KeyMsg.String() format)
	LeaderSeq     string   // "SPC" (our format)
	LeaderWaiting bool     // true when waiting for key after leader
	Buffer        []string // accumulated sequence in leader mode
}

// NewKeyHandler creates a handler with SPC as leader.
// Bubble Tea reports space as " " (KeySpace), not "space".
func NewKeyHandler(reg *KeybindRegistry, scope Scope) *KeyHandler {
	return &KeyHandler{
		Registry:  reg,
		Scope:     scope,
		LeaderKey: " ",
		LeaderSeq: "SPC",
	}
}

// Handle processes a KeyMsg. Returns (consumed, cmd).
// If consumed is true, the key was handled by the keybind system and should not be passed on.
func (h *KeyHandler) Handle(msg tea.KeyMsg) (consumed bool, cmd tea.Cmd) {
	s := msg.String()

	if s == "esc" {
		if h.LeaderWaiting {
			h.reset()
			return true, nil
		}
		return false, nil
	}

	if s == h.LeaderKey && !h.LeaderWaiting {
		h.LeaderWaiting = true
		h.Buffer = []string{h.LeaderSeq}
		return true, nil
	}

	if h.LeaderWaiting {
		h.Buffer = append(h.Buffer, keyToSeqPart(s))
		seq := strings.Join(h.Buffer, " ")

		if c := h.Registry.LookupIn(seq, h.Scope); c != nil {
			h.reset()
			return true, c
		}
		// No exact match; stay in leader mode if a longer binding exists
		if h.Registry.HasPrefix(seq) {
			return true, nil
		}
		h.reset()
		return true, nil
	}

	if c := h.Registry.LookupIn(keyToSeqPart(s), h.Scope); c != nil {
		return true, c
	}
	return false, nil
}

// Pending returns the leader sequence typed so far, or "".
func (h *KeyHandler) Pending() string {
	if !h.LeaderWaiting {
		return ""
	}
	return strings.Join(h.Buffer, " ")
}

func (h *KeyHandler) reset() {
	h.LeaderWaiting = false
	h.Buffer = nil
}

// keyToSeqPart converts a tea key string to our sequence part.
func keyToSeqPart(s string) string {
	if s == " " || s == "space" {
		return "SPC"
	}
	return s
}

// KeyMap implements help.KeyMap for rendering keybind help with bubbles/help.Model.
type KeyMap struct {
	keyHandler *KeyHandler
}

// NewKeyMap creates a KeyMap for the given handler.
func NewKeyMap(keyHandler *KeyHandler) help.KeyMap {
	return &KeyMap{keyHandler: keyHandler}
}

// ShortHelp returns the leader hints for the current sequence.
func (km *KeyMap) ShortHelp() []key.Binding {
	if km.keyHandler == nil || km.keyHandler.Registry == nil {
		return nil
	}
	return hintBindings(km.keyHandler.Registry.LeaderHints(km.keyHandler.Pending(), km.keyHandler.Scope))
}

// FullHelp returns a single column with the ShortHelp bindings.
func (km *KeyMap) FullHelp() [][]key.Binding {
	short := km.ShortHelp()
	if len(short) == 0 {
		return nil
	}
	return [][]key.Binding{short}
}

// hintBindings sorts hints and appends an esc binding.
func hintBindings(hints map[string]string) []key.Binding {
	if len(hints) == 0 {
		return nil
	}
	keys := make([]string, 0, len(hints))
	for k := range hints {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	bindings := make([]key.Binding, 0, len(keys)+1)
	for _, k := range keys {
		bindings = append(bindings, key.NewBinding(
			key.WithKeys(k),
			key.WithHelp(k, hints[k]),
		))
	}
	return append(bindings, key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel"),
	))
}
