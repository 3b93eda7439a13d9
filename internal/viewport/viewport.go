// Package viewport centers the scrolling window on a target node after each
// render pass.
package viewport

import "github.com/papapumpkin/unlockmap/internal/scene"

// Scroller is the scrolling window around the map content.
type Scroller interface {
	ViewportSize() (w, h float64)
	ScrollTo(x, y float64, smooth bool)
}

// History reports the most recently watched node.
type History interface {
	LastWatched() (string, bool)
}

// Controller is idle or holds one pending center target. Each Center call
// consumes the pending target.
type Controller struct {
	start   string
	pending string
}

// New creates a controller that falls back to start.
func New(start string) *Controller {
	return &Controller{start: start}
}

// RequestCenter makes id the target of the next Center call. An empty id
// returns the controller to idle.
func (c *Controller) RequestCenter(id string) {
	c.pending = id
}

// Pending returns the pending target, if any.
func (c *Controller) Pending() (string, bool) {
	return c.pending, c.pending != ""
}

// Resolve picks the target: the pending id, else the most recently watched
// node, else the start node.
func (c *Controller) Resolve(h History) string {
	if c.pending != "" {
		return c.pending
	}
	if h != nil {
		if id, ok := h.LastWatched(); ok {
			return id
		}
	}
	return c.start
}

// Center resolves the target, clears the pending state, and smooth-scrolls
// so the target's center sits in the middle of the window. Offsets are
// clamped at zero. A target with no element on screen is skipped and
// reported with ok=false.
func (c *Controller) Center(rects scene.RectProvider, s Scroller, h History) (target string, ok bool) {
	target = c.Resolve(h)
	c.pending = ""

	r, found := rects.Rect(target)
	if !found {
		return target, false
	}
	cx, cy := r.Center()
	vw, vh := s.ViewportSize()
	x, y := Offset(cx, cy, vw, vh)
	s.ScrollTo(x, y, true)
	return target, true
}

// Offset returns the scroll position that puts (cx, cy) at the center of a
// vw×vh window, clamped to non-negative values.
func Offset(cx, cy, vw, vh float64) (x, y float64) {
	return max(0, cx-vw/2), max(0, cy-vh/2)
}
