package ui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"
)

// RenderKeybindHelp produces the one-line help bar shown after SPC.
// When the handler has a buffer (e.g. "SPC w"), shows next-level hints.
// The bar is cut to width cells.
func RenderKeybindHelp(keyHandler *KeyHandler, width int) string {
	if keyHandler == nil || !keyHandler.LeaderWaiting {
		return ""
	}
	bindings := NewKeyMap(keyHandler).ShortHelp()
	if len(bindings) == 0 {
		return ""
	}

	helpModel := help.New()
	helpModel.ShortSeparator = "  "
	helpModel.Styles.ShortKey = lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorHighlight)).
		Bold(true)
	helpModel.Styles.ShortDesc = lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorMuted))
	helpModel.Styles.ShortSeparator = lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorMuted))
	helpModel.Width = width

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorAccent)).
		Bold(true)

	line := labelStyle.Render(keyHandler.Pending()) + "  " + helpModel.ShortHelpView(bindings)
	return lipgloss.NewStyle().MaxWidth(width).Render(line)
}
