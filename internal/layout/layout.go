// Package layout maps grid coordinates of the visible nodes to pixels.
//
// Extents come from the span of the visible grid times the spacing plus one
// node footprint, so the leftmost and rightmost (and top and bottom) nodes
// get the same treatment no matter which side of the start node they sit on.
package layout

// Bounds is the grid-space bounding box of a node set.
type Bounds struct {
	MinX, MaxX int
	MinY, MaxY int
}

// ComputeBounds returns the bounding box of points. ok is false when
// points is empty.
func ComputeBounds(points []Point) (b Bounds, ok bool) {
	if len(points) == 0 {
		return Bounds{}, false
	}
	b = Bounds{MinX: points[0].X, MaxX: points[0].X, MinY: points[0].Y, MaxY: points[0].Y}
	for _, p := range points[1:] {
		b.MinX = min(b.MinX, p.X)
		b.MaxX = max(b.MaxX, p.X)
		b.MinY = min(b.MinY, p.Y)
		b.MaxY = max(b.MaxY, p.Y)
	}
	return b, true
}

// Point is a grid coordinate.
type Point struct {
	X, Y int
}

// Spacing holds the pixel distances between grid cells and the node
// footprint.
type Spacing struct {
	H     float64 // horizontal distance between grid columns
	V     float64 // vertical distance between grid rows
	NodeW float64
	NodeH float64
}

// DefaultSpacing is the profile for regular viewports.
func DefaultSpacing() Spacing {
	return Spacing{H: 160, V: 220, NodeW: 120, NodeH: 180}
}

// CompactSpacing is the profile for small viewports.
func CompactSpacing() Spacing {
	return Spacing{H: 100, V: 140, NodeW: 75, NodeH: 110}
}

// Valid reports whether every dimension is positive.
func (s Spacing) Valid() bool {
	return s.H > 0 && s.V > 0 && s.NodeW > 0 && s.NodeH > 0
}

// Transform converts grid coordinates to pixels for one render pass.
type Transform struct {
	Bounds  Bounds
	Spacing Spacing
}

// ToPixel returns the top-left pixel of the node at grid (x, y).
func (t Transform) ToPixel(x, y int) (px, py float64) {
	return float64(x-t.Bounds.MinX) * t.Spacing.H, float64(y-t.Bounds.MinY) * t.Spacing.V
}

// Extent returns the container size that holds every node in Bounds.
func (t Transform) Extent() (w, h float64) {
	w = float64(t.Bounds.MaxX-t.Bounds.MinX)*t.Spacing.H + t.Spacing.NodeW
	h = float64(t.Bounds.MaxY-t.Bounds.MinY)*t.Spacing.V + t.Spacing.NodeH
	return w, h
}
