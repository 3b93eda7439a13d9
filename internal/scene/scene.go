// Package scene keeps a rendering backend's node elements in step with the
// visible subgraph. Reconciliation is keyed strictly by node id: elements
// that left the visible set are removed, survivors are moved and restated,
// and newcomers are appended in one batch.
package scene

import (
	"sort"

	"github.com/papapumpkin/unlockmap/internal/derive"
	"github.com/papapumpkin/unlockmap/internal/layout"
)

// Rect is an element's on-screen rectangle in pixels.
type Rect struct {
	X, Y, W, H float64
}

// Center returns the rectangle's midpoint.
func (r Rect) Center() (x, y float64) {
	return r.X + r.W/2, r.Y + r.H/2
}

// VisualState is derived from two independent flags; Interactive also
// depends on whether a peer view is active.
type VisualState struct {
	Watched     bool
	Locked      bool
	Interactive bool
}

// StateFor derives an element's visual state. In a read-only peer view only
// watched nodes may be opened; otherwise unlocked ones can, and a watched
// node stays open for "watch again" even after one of its prerequisites is
// unwatched.
func StateFor(watched, unlocked, readOnly bool) VisualState {
	s := VisualState{Watched: watched, Locked: !unlocked}
	if readOnly {
		s.Interactive = watched
	} else {
		s.Interactive = unlocked || watched
	}
	return s
}

// Element is a rendered node.
type Element struct {
	ID    string
	Title string
	Phase int
	Rect  Rect
	State VisualState
}

// Backend is a retained scene the reconciler drives.
type Backend interface {
	Remove(id string)
	Move(id string, r Rect)
	SetState(id string, s VisualState)
	// Append adds new elements in a single batch.
	Append(batch []Element)
	// Resize sets the content extent.
	Resize(w, h float64)
}

// RectProvider answers where an element currently is on screen.
type RectProvider interface {
	Rect(id string) (Rect, bool)
}

// Diff lists what a reconcile pass changed, each in a stable order.
type Diff struct {
	Removed []string
	Updated []string
	Created []string
}

// Reconciler tracks which ids the backend currently holds.
type Reconciler struct {
	backend  Backend
	rendered map[string]struct{}
}

// NewReconciler creates a reconciler for an empty backend.
func NewReconciler(b Backend) *Reconciler {
	return &Reconciler{backend: b, rendered: make(map[string]struct{})}
}

// Reconcile brings the backend in line with visible. Removed ids are sorted;
// updated and created ids follow the order of visible.
func (r *Reconciler) Reconcile(visible []derive.NodeView, tr layout.Transform, readOnly bool) Diff {
	var d Diff

	w, h := tr.Extent()
	r.backend.Resize(w, h)

	next := make(map[string]struct{}, len(visible))
	for _, v := range visible {
		next[v.ID] = struct{}{}
	}
	for id := range r.rendered {
		if _, ok := next[id]; !ok {
			d.Removed = append(d.Removed, id)
		}
	}
	sort.Strings(d.Removed)
	for _, id := range d.Removed {
		r.backend.Remove(id)
		delete(r.rendered, id)
	}

	var batch []Element
	for _, v := range visible {
		x, y := tr.ToPixel(v.GridX, v.GridY)
		rect := Rect{X: x, Y: y, W: tr.Spacing.NodeW, H: tr.Spacing.NodeH}
		state := StateFor(v.Watched, v.Unlocked, readOnly)

		if _, ok := r.rendered[v.ID]; ok {
			r.backend.Move(v.ID, rect)
			r.backend.SetState(v.ID, state)
			d.Updated = append(d.Updated, v.ID)
			continue
		}
		batch = append(batch, Element{ID: v.ID, Title: v.Title, Phase: v.Phase, Rect: rect, State: state})
		d.Created = append(d.Created, v.ID)
		r.rendered[v.ID] = struct{}{}
	}
	if len(batch) > 0 {
		r.backend.Append(batch)
	}
	return d
}

// Rendered returns the ids currently held by the backend, sorted.
func (r *Reconciler) Rendered() []string {
	out := make([]string, 0, len(r.rendered))
	for id := range r.rendered {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Has reports whether id is currently rendered.
func (r *Reconciler) Has(id string) bool {
	_, ok := r.rendered[id]
	return ok
}
