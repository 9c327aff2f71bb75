// Package textutil provides unicode-aware text utilities for TUI rendering.
package textutil

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// TruncateEllipsis is the unicode ellipsis character used for truncation.
const TruncateEllipsis = "…"

// VisualWidth returns the number of terminal columns s occupies.
func VisualWidth(s string) int {
	return runewidth.StringWidth(s)
}

// VisualWidthStyled returns the visual width of a styled string,
// ignoring ANSI escape codes.
func VisualWidthStyled(s string) int {
	return lipgloss.Width(s)
}

// Truncate cuts s to at most maxWidth columns, ending it with an
// ellipsis when anything was removed.
func Truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if VisualWidth(s) <= maxWidth {
		return s
	}
	avail := maxWidth - VisualWidth(TruncateEllipsis)
	if avail < 0 {
		return TruncateEllipsis
	}
	result := make([]rune, 0, len(s))
	w := 0
	for _, r := range s {
		rw := runewidth.RuneWidth(r)
		if w+rw > avail {
			break
		}
		result = append(result, r)
		w += rw
	}
	return string(result) + TruncateEllipsis
}

// PadRightVisual pads s with spaces to targetWidth columns, truncating
// it when it is wider.
func PadRightVisual(s string, targetWidth int) string {
	w := VisualWidth(s)
	if w >= targetWidth {
		return Truncate(s, targetWidth)
	}
	return s + runewidth.FillRight("", targetWidth-w)
}

// Center pads s on the left so it sits in the middle of width columns.
// The returned offset is the number of columns added.
func Center(s string, width int) (string, int) {
	s = Truncate(s, width)
	off := max(0, (width-VisualWidth(s))/2)
	return s, off
}
