package ui

import (
	"github.com/charmbracelet/lipgloss"

	"docklayout/internal/config"
)

// Theme colors used throughout the UI
const (
	ColorAccent    = "86"  // Cyan/green - focused tab, status
	ColorHighlight = "205" // Magenta - active splitter, drop highlight
	ColorDanger    = "196" // Red - errors
	ColorMuted     = "241" // Gray - inactive tabs, hints
	ColorText      = "252" // Light gray - pane text
	ColorDim       = "238" // Dark gray - header strip, splitters
	ColorWarning   = "208" // Orange - drag proxy
)

// Paint names the role of a cell; the Theme maps it to a style.
type Paint uint8

const (
	PaintEmpty Paint = iota
	PaintBody
	PaintHeader
	PaintTab
	PaintTabActive
	PaintTabFocused
	PaintControl
	PaintSplitter
	PaintSplitterActive
	PaintHighlight
	PaintProxy
	PaintMenu
	PaintMenuSelected
	PaintStatus
	PaintError
	paintCount
)

// Theme holds one style per Paint.
type Theme [paintCount]lipgloss.Style

// DefaultTheme is the theme used when none is given.
func DefaultTheme() Theme {
	var t Theme
	t[PaintEmpty] = lipgloss.NewStyle()
	t[PaintBody] = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorText))
	t[PaintHeader] = lipgloss.NewStyle().Background(lipgloss.Color(ColorDim))
	t[PaintTab] = lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorMuted)).
		Background(lipgloss.Color(ColorDim))
	t[PaintTabActive] = lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorText)).
		Bold(true)
	t[PaintTabFocused] = lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorAccent)).
		Bold(true).
		Underline(true)
	t[PaintControl] = lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorText)).
		Background(lipgloss.Color(ColorDim))
	t[PaintSplitter] = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDim))
	t[PaintSplitterActive] = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHighlight))
	t[PaintHighlight] = lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorText)).
		Background(lipgloss.Color("53"))
	t[PaintProxy] = lipgloss.NewStyle().
		Foreground(lipgloss.Color("0")).
		Background(lipgloss.Color(ColorWarning)).
		Bold(true)
	t[PaintMenu] = lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorText)).
		Background(lipgloss.Color("236"))
	t[PaintMenuSelected] = lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorHighlight)).
		Background(lipgloss.Color("236")).
		Bold(true)
	t[PaintStatus] = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccent))
	t[PaintError] = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDanger)).Bold(true)
	return t
}

// Glyphs drawn for header controls and decorations.
const (
	GlyphPopout    = "↗"
	GlyphMaximise  = "□"
	GlyphMinimise  = "▁"
	GlyphClose     = "×"
	GlyphDropdown  = "▾"
	GlyphSplitRow  = "│"
	GlyphSplitCol  = "─"
	GlyphDragProxy = "⠿"
)

// Terminal cell metrics for layouts hosted here.
const (
	TerminalBorderWidth     = 1
	TerminalHeaderHeight    = 1
	TerminalMinItemWidth    = 8
	TerminalMinItemHeight   = 3
	TerminalDragProxyWidth  = 24
	TerminalDragProxyHeight = 6
	// TerminalSideAreaSize is the depth of the drop strips along the
	// layout edges, passed as layout.Options.SideAreaSize.
	TerminalSideAreaSize = 2
)

// Terminalize fills the dimensions a layout left unset with cell-sized
// values; the config defaults are pixel sized.
func Terminalize(cfg config.LayoutConfig) config.LayoutConfig {
	d := config.DimensionsConfig{}
	if cfg.Dimensions != nil {
		d = *cfg.Dimensions
	}
	setDefault(&d.BorderWidth, TerminalBorderWidth)
	setDefault(&d.BorderGrabWidth, TerminalBorderWidth)
	setDefault(&d.HeaderHeight, TerminalHeaderHeight)
	setDefault(&d.MinItemWidth, TerminalMinItemWidth)
	setDefault(&d.MinItemHeight, TerminalMinItemHeight)
	setDefault(&d.DragProxyWidth, TerminalDragProxyWidth)
	setDefault(&d.DragProxyHeight, TerminalDragProxyHeight)
	cfg.Dimensions = &d

	s := config.SettingsConfig{}
	if cfg.Settings != nil {
		s = *cfg.Settings
	}
	setDefault(&s.TabControlOffset, 0)
	cfg.Settings = &s
	return cfg
}

func setDefault(p **int, v int) {
	if *p == nil {
		*p = &v
	}
}
