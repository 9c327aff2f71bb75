// Package ui hosts a docking layout in a terminal with Bubble Tea.
//
// The Model owns the layout.Manager and is its owner goroutine: the
// manager's tick.Loop is drained as Bubble Tea messages, so every tree
// mutation happens inside Update. Rendering paints the tree onto a cell
// Canvas (headers, tabs, splitters, component bodies, the drop highlight)
// which is flattened into styled lines.
//
// Mouse presses are hit-tested against the layout and routed to drag
// listeners for tabs and splitters. Keys go through a leader-key
// KeybindRegistry; a focused pane can take raw keys in insert mode.
package ui
