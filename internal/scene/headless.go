package scene

import "math"

// Headless is an in-memory Backend. It also answers rectangle queries and
// plays the scrolling viewport, so a whole render pass can run without a
// screen. With Round set, rectangles snap to whole pixels the way a real
// layout engine would.
type Headless struct {
	Round bool

	elements map[string]*Element
	order    []string // creation order

	width, height float64

	viewW, viewH     float64
	scrollX, scrollY float64
	smooth           bool

	batches int
}

// NewHeadless creates a backend with the given viewport size.
func NewHeadless(viewW, viewH float64) *Headless {
	return &Headless{
		elements: make(map[string]*Element),
		viewW:    viewW,
		viewH:    viewH,
	}
}

func (h *Headless) snap(r Rect) Rect {
	if !h.Round {
		return r
	}
	return Rect{X: math.Round(r.X), Y: math.Round(r.Y), W: math.Round(r.W), H: math.Round(r.H)}
}

// Remove implements Backend.
func (h *Headless) Remove(id string) {
	if _, ok := h.elements[id]; !ok {
		return
	}
	delete(h.elements, id)
	for i, x := range h.order {
		if x == id {
			h.order = append(h.order[:i:i], h.order[i+1:]...)
			break
		}
	}
}

// Move implements Backend.
func (h *Headless) Move(id string, r Rect) {
	if e, ok := h.elements[id]; ok {
		e.Rect = h.snap(r)
	}
}

// SetState implements Backend.
func (h *Headless) SetState(id string, s VisualState) {
	if e, ok := h.elements[id]; ok {
		e.State = s
	}
}

// Append implements Backend.
func (h *Headless) Append(batch []Element) {
	h.batches++
	for _, e := range batch {
		e.Rect = h.snap(e.Rect)
		if _, exists := h.elements[e.ID]; !exists {
			h.order = append(h.order, e.ID)
		}
		h.elements[e.ID] = &e
	}
}

// Resize implements Backend.
func (h *Headless) Resize(w, hh float64) {
	h.width, h.height = w, hh
}

// Rect implements RectProvider.
func (h *Headless) Rect(id string) (Rect, bool) {
	e, ok := h.elements[id]
	if !ok {
		return Rect{}, false
	}
	return e.Rect, true
}

// Element returns a copy of the element with the given id.
func (h *Headless) Element(id string) (Element, bool) {
	e, ok := h.elements[id]
	if !ok {
		return Element{}, false
	}
	return *e, true
}

// Elements returns copies of all elements in creation order.
func (h *Headless) Elements() []Element {
	out := make([]Element, 0, len(h.order))
	for _, id := range h.order {
		out = append(out, *h.elements[id])
	}
	return out
}

// ContentSize returns the size set by the last Resize.
func (h *Headless) ContentSize() (w, hh float64) { return h.width, h.height }

// Batches returns how many Append calls the backend has seen.
func (h *Headless) Batches() int { return h.batches }

// ViewportSize returns the visible window size.
func (h *Headless) ViewportSize() (w, hh float64) { return h.viewW, h.viewH }

// SetViewportSize changes the visible window size.
func (h *Headless) SetViewportSize(w, hh float64) { h.viewW, h.viewH = w, hh }

// ScrollTo moves the visible window's top-left corner.
func (h *Headless) ScrollTo(x, y float64, smooth bool) {
	h.scrollX, h.scrollY, h.smooth = x, y, smooth
}

// Scroll returns the current scroll offset and whether the last scroll was
// smooth.
func (h *Headless) Scroll() (x, y float64, smooth bool) {
	return h.scrollX, h.scrollY, h.smooth
}
