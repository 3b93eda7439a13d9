// Package edges draws the directed connectors between visible nodes. All
// connectors are cleared and redrawn on every pass; endpoints are read back
// from the live scene so they match where elements actually landed.
package edges

import (
	"math"

	"github.com/papapumpkin/unlockmap/internal/catalog"
	"github.com/papapumpkin/unlockmap/internal/derive"
	"github.com/papapumpkin/unlockmap/internal/scene"
)

// Clearances between a connector end and its element's boundary, in pixels.
const (
	StartClearance = 6
	EndClearance   = 8
)

// Connector is one directed line from a prerequisite to a node it unlocks.
type Connector struct {
	From, To string
	X1, Y1   float64
	X2, Y2   float64
}

// Surface is where connectors are drawn.
type Surface interface {
	ClearConnectors()
	HasMarker() bool
	// DefineMarker installs the shared arrowhead.
	DefineMarker()
	AddConnector(c Connector)
}

// Renderer draws connectors for one catalog.
type Renderer struct {
	cat     *catalog.Catalog
	rects   scene.RectProvider
	surface Surface
}

// NewRenderer creates a Renderer.
func NewRenderer(cat *catalog.Catalog, rects scene.RectProvider, surface Surface) *Renderer {
	return &Renderer{cat: cat, rects: rects, surface: surface}
}

// Render clears the surface and draws one connector per visible
// parent→child pair whose elements are both on screen. Connectors come out
// in catalog order of the parent, then of the child.
func (r *Renderer) Render(visible []derive.NodeView) []Connector {
	r.surface.ClearConnectors()
	if !r.surface.HasMarker() {
		r.surface.DefineMarker()
	}

	shown := make(map[string]struct{}, len(visible))
	for _, v := range visible {
		shown[v.ID] = struct{}{}
	}

	var out []Connector
	for _, parent := range visible {
		from, ok := r.rects.Rect(parent.ID)
		if !ok {
			continue
		}
		for childID := range r.cat.EachUnlock(parent.ID) {
			if _, ok := shown[childID]; !ok {
				continue
			}
			to, ok := r.rects.Rect(childID)
			if !ok {
				continue
			}
			c := Between(from, to)
			c.From, c.To = parent.ID, childID
			r.surface.AddConnector(c)
			out = append(out, c)
		}
	}
	return out
}

// Between computes the connector from rectangle a to rectangle b. Each end
// is pulled in from the center along the line by half the element's extent
// plus a clearance. Coincident centers yield a zero-length connector.
func Between(a, b scene.Rect) Connector {
	fx, fy := a.Center()
	tx, ty := b.Center()

	dx, dy := tx-fx, ty-fy
	length := math.Hypot(dx, dy)
	if length == 0 {
		length = 1
	}
	ux, uy := dx/length, dy/length

	return Connector{
		X1: fx + ux*(a.W/2+StartClearance),
		Y1: fy + uy*(a.H/2+StartClearance),
		X2: tx - ux*(b.W/2+EndClearance),
		Y2: ty - uy*(b.H/2+EndClearance),
	}
}

// Recorder is a Surface that keeps what was drawn, for headless passes.
type Recorder struct {
	Connectors []Connector
	Markers    int // times DefineMarker ran
	Clears     int
}

// ClearConnectors implements Surface.
func (r *Recorder) ClearConnectors() {
	r.Connectors = nil
	r.Clears++
}

// HasMarker implements Surface.
func (r *Recorder) HasMarker() bool { return r.Markers > 0 }

// DefineMarker implements Surface.
func (r *Recorder) DefineMarker() { r.Markers++ }

// AddConnector implements Surface.
func (r *Recorder) AddConnector(c Connector) {
	r.Connectors = append(r.Connectors, c)
}
