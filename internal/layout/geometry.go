package layout

// Rect is a region of the host surface. Containment is half-open: a rect
// covers X..X+W-1 and Y..Y+H-1.
type Rect struct {
	X, Y, W, H int
}

func (r Rect) Right() int { return r.X + r.W }
func (r Rect) Bottom() int { return r.Y + r.H }

// Contains reports whether the cell at (x, y) lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.Right() && y >= r.Y && y < r.Bottom()
}

// Area returns the surface covered by r.
func (r Rect) Area() int {
	if r.W <= 0 || r.H <= 0 {
		return 0
	}
	return r.W * r.H
}

// Empty reports whether r covers no cells.
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Surface is the host region the layout is laid out into.
type Surface interface {
	Size() (width, height int)
}

// SizeFunc adapts a function to Surface.
type SizeFunc func() (int, int)

func (f SizeFunc) Size() (int, int) { return f() }

func clampRect(r Rect) Rect {
	if r.W < 0 {
		r.W = 0
	}
	if r.H < 0 {
		r.H = 0
	}
	return r
}
