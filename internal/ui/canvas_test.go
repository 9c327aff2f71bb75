package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"docklayout/internal/layout"
)

func TestCanvas_TextClipsAndTruncates(t *testing.T) {
	c := NewCanvas(10, 2)
	n := c.Text(1, 0, 5, "hello world", PaintBody)
	assert.Equal(t, 5, n)
	c.TextTruncated(0, 1, 6, "abcdefghij", PaintTab)
	assert.Equal(t, " hello    \nabcde…    ", c.Plain())
	assert.Equal(t, PaintBody, c.PaintAt(1, 0))
	assert.Equal(t, PaintTab, c.PaintAt(0, 1))
	assert.Equal(t, PaintEmpty, c.PaintAt(99, 99))
}

func TestCanvas_WideRunes(t *testing.T) {
	c := NewCanvas(5, 1)
	// The third wide rune does not fit in the remaining cell.
	n := c.Text(0, 0, 5, "日本語", PaintBody)
	assert.Equal(t, 4, n)
	assert.Equal(t, "日本 ", c.Plain())

	// Overwriting the tail of a wide rune blanks its head.
	c.Text(1, 0, 1, "x", PaintBody)
	assert.Equal(t, " x本 ", c.Plain())

	// A wide rune at the right edge has no room for its second half.
	c = NewCanvas(3, 1)
	c.Text(2, 0, 2, "日", PaintBody)
	assert.Equal(t, "   ", c.Plain())
}

func TestCanvas_TabsAndControls(t *testing.T) {
	c := NewCanvas(8, 1)
	c.Text(0, 0, 8, "a\tb\x07c", PaintBody)
	assert.Equal(t, "a   bc  ", c.Plain())
}

func TestCanvas_BlockStripsEscapes(t *testing.T) {
	c := NewCanvas(6, 2)
	c.Block(layout.Rect{X: 1, Y: 0, W: 4, H: 2}, "\x1b[31mred\x1b[0m text\r\nabc\rxy\nhidden", PaintBody)
	assert.Equal(t, " red  \n xy   ", c.Plain())
}

func TestCanvas_FillAndRestyle(t *testing.T) {
	c := NewCanvas(4, 3)
	c.Fill(layout.Rect{X: 1, Y: 1, W: 2, H: 2}, "#", PaintSplitter)
	c.Restyle(layout.Rect{X: 0, Y: 1, W: 2, H: 1}, PaintHighlight)
	assert.Equal(t, "    \n ## \n ## ", c.Plain())
	assert.Equal(t, PaintHighlight, c.PaintAt(0, 1))
	assert.Equal(t, PaintHighlight, c.PaintAt(1, 1))
	assert.Equal(t, PaintSplitter, c.PaintAt(2, 1))
}

func TestCanvas_LinesKeepText(t *testing.T) {
	c := NewCanvas(6, 1)
	c.Text(0, 0, 3, "abc", PaintTabActive)
	c.Text(3, 0, 3, "日", PaintBody)
	lines := c.Lines(DefaultTheme())
	assert.Len(t, lines, 1)
	for _, want := range []string{"abc", "日"} {
		if !strings.Contains(lines[0], want) {
			t.Errorf("line %q missing %q", lines[0], want)
		}
	}
}
