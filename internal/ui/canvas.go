package ui

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"

	"docklayout/internal/layout"
	"docklayout/internal/ui/textutil"
)

const tabStop = 4

type cell struct {
	s     string
	wide  bool // a double-width rune; the next cell is its tail
	tail  bool
	paint Paint
}

// Canvas is a grid of terminal cells, each carrying a Paint.
type Canvas struct {
	w, h  int
	cells []cell
}

// NewCanvas returns a blank w x h canvas.
func NewCanvas(w, h int) *Canvas {
	w, h = max(w, 0), max(h, 0)
	c := &Canvas{w: w, h: h, cells: make([]cell, w*h)}
	for i := range c.cells {
		c.cells[i] = cell{s: " "}
	}
	return c
}

// Size returns the canvas dimensions.
func (c *Canvas) Size() (int, int) { return c.w, c.h }

func (c *Canvas) at(x, y int) *cell {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return nil
	}
	return &c.cells[y*c.w+x]
}

// put writes one rune-cluster of width w at (x, y), clearing any wide
// rune it overlaps.
func (c *Canvas) put(x, y int, s string, w int, p Paint) {
	cl := c.at(x, y)
	if cl == nil {
		return
	}
	if cl.tail {
		if prev := c.at(x-1, y); prev != nil {
			*prev = cell{s: " ", paint: prev.paint}
		}
	}
	if cl.wide {
		if next := c.at(x+1, y); next != nil {
			*next = cell{s: " ", paint: next.paint}
		}
	}
	*cl = cell{s: s, paint: p}
	if w == 2 {
		next := c.at(x+1, y)
		if next == nil {
			// No room for the second half.
			cl.s = " "
			return
		}
		if next.wide {
			if after := c.at(x+2, y); after != nil {
				*after = cell{s: " ", paint: after.paint}
			}
		}
		cl.wide = true
		*next = cell{tail: true, paint: p}
	}
}

// Text writes s starting at (x, y), using at most maxW cells, and
// returns the number of cells used. Control characters are dropped and
// tabs expand to the next tab stop.
func (c *Canvas) Text(x, y, maxW int, s string, p Paint) int {
	used := 0
	for _, r := range s {
		switch {
		case r == '\t':
			n := tabStop - (used % tabStop)
			for range n {
				if used >= maxW {
					return used
				}
				c.put(x+used, y, " ", 1, p)
				used++
			}
			continue
		case r < 0x20 || r == 0x7f:
			continue
		}
		w := runewidth.RuneWidth(r)
		if w == 0 {
			if prev := c.at(x+used-1, y); prev != nil && used > 0 && !prev.tail {
				prev.s += string(r)
			}
			continue
		}
		if used+w > maxW {
			break
		}
		c.put(x+used, y, string(r), w, p)
		used += w
	}
	return used
}

// TextTruncated writes s like Text but ends it with an ellipsis when it
// does not fit.
func (c *Canvas) TextTruncated(x, y, maxW int, s string, p Paint) int {
	return c.Text(x, y, maxW, textutil.Truncate(s, maxW), p)
}

// Fill sets every cell of r to s.
func (c *Canvas) Fill(r layout.Rect, s string, p Paint) {
	for y := r.Y; y < r.Bottom(); y++ {
		for x := r.X; x < r.Right(); x++ {
			c.put(x, y, s, 1, p)
		}
	}
}

// Block draws multi-line content inside r, clipped on both axes. Escape
// sequences in content are removed.
func (c *Canvas) Block(r layout.Rect, content string, p Paint) {
	if r.W <= 0 || r.H <= 0 {
		return
	}
	content = ansi.Strip(content)
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	for i, line := range lines {
		if i >= r.H {
			break
		}
		if j := strings.LastIndexByte(line, '\r'); j >= 0 {
			line = line[j+1:]
		}
		c.Text(r.X, r.Y+i, r.W, line, p)
	}
}

// Restyle changes the paint of the cells in r and keeps their text.
func (c *Canvas) Restyle(r layout.Rect, p Paint) {
	for y := r.Y; y < r.Bottom(); y++ {
		for x := r.X; x < r.Right(); x++ {
			if cl := c.at(x, y); cl != nil {
				cl.paint = p
			}
		}
	}
}

// Lines renders each row, grouping runs of equal paint into one styled
// segment.
func (c *Canvas) Lines(theme Theme) []string {
	out := make([]string, c.h)
	var b, run strings.Builder
	for y := range c.h {
		b.Reset()
		run.Reset()
		cur := Paint(0)
		flush := func() {
			if run.Len() > 0 {
				b.WriteString(theme[cur].Render(run.String()))
				run.Reset()
			}
		}
		for x := range c.w {
			cl := c.cells[y*c.w+x]
			if cl.tail {
				continue
			}
			if cl.paint != cur {
				flush()
				cur = cl.paint
			}
			run.WriteString(cl.s)
		}
		flush()
		out[y] = b.String()
	}
	return out
}

// Plain returns the canvas text without styling.
func (c *Canvas) Plain() string {
	var b strings.Builder
	for y := range c.h {
		if y > 0 {
			b.WriteByte('\n')
		}
		for x := range c.w {
			if cl := c.cells[y*c.w+x]; !cl.tail {
				b.WriteString(cl.s)
			}
		}
	}
	return b.String()
}

// PaintAt returns the paint of the cell at (x, y).
func (c *Canvas) PaintAt(x, y int) Paint {
	if cl := c.at(x, y); cl != nil {
		return cl.paint
	}
	return PaintEmpty
}
