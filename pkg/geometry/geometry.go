// Package geometry provides integer axis-aligned rectangle math for the
// layout engine.
//
// All coordinates are expressed in grid units, not pixels. The rendering
// layer scales grid units to pixels; the engine never deals with fractional
// positions, which keeps packing results exactly reproducible.
package geometry

// Point is a position in grid units.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Size is a width/height pair in grid units.
type Size struct {
	W int `json:"w"`
	H int `json:"h"`
}

// Delta is a movement offset in grid units.
type Delta struct {
	DX int `json:"dx"`
	DY int `json:"dy"`
}

// Rect is an axis-aligned rectangle in grid units.
// W and H must be positive for a rectangle that participates in layout.
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Right returns the exclusive right edge (X+W).
func (r Rect) Right() int { return r.X + r.W }

// Bottom returns the exclusive bottom edge (Y+H).
func (r Rect) Bottom() int { return r.Y + r.H }

// Size returns the rectangle's dimensions.
func (r Rect) Size() Size { return Size{W: r.W, H: r.H} }

// Area returns W*H.
func (r Rect) Area() int { return r.W * r.H }

// Translate returns a copy of r shifted by d.
func (r Rect) Translate(d Delta) Rect {
	return Rect{X: r.X + d.DX, Y: r.Y + d.DY, W: r.W, H: r.H}
}

// Intersects reports whether r and other overlap with positive area.
// Rectangles that merely touch edges do not intersect.
func (r Rect) Intersects(other Rect) bool {
	return r.X < other.Right() && other.X < r.Right() &&
		r.Y < other.Bottom() && other.Y < r.Bottom()
}

// Contains reports whether other lies entirely within r (edges may touch).
func (r Rect) Contains(other Rect) bool {
	return other.X >= r.X && other.Y >= r.Y &&
		other.Right() <= r.Right() && other.Bottom() <= r.Bottom()
}

// ContainsPoint reports whether p lies within r.
// The left and top edges are inclusive, right and bottom exclusive, so a
// point on a shared border between siblings hits exactly one of them.
func (r Rect) ContainsPoint(p Point) bool {
	return p.X >= r.X && p.X < r.Right() && p.Y >= r.Y && p.Y < r.Bottom()
}

// Inset returns r shrunk by the given amount on every side.
// An additional extraTop is removed from the top edge only; label space is
// reserved this way for containers with visible titles.
// The result is clamped to zero size rather than inverting.
func (r Rect) Inset(amount, extraTop int) Rect {
	out := Rect{
		X: r.X + amount,
		Y: r.Y + amount + extraTop,
		W: r.W - 2*amount,
		H: r.H - 2*amount - extraTop,
	}
	if out.W < 0 {
		out.W = 0
	}
	if out.H < 0 {
		out.H = 0
	}
	return out
}

// Union returns the bounding box of a set of rectangles.
// The second return value is false when the set is empty.
func Union(rects []Rect) (Rect, bool) {
	if len(rects) == 0 {
		return Rect{}, false
	}
	out := rects[0]
	for _, r := range rects[1:] {
		if r.X < out.X {
			out.W += out.X - r.X
			out.X = r.X
		}
		if r.Y < out.Y {
			out.H += out.Y - r.Y
			out.Y = r.Y
		}
		if r.Right() > out.Right() {
			out.W = r.Right() - out.X
		}
		if r.Bottom() > out.Bottom() {
			out.H = r.Bottom() - out.Y
		}
	}
	return out, true
}
