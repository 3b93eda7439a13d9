// Package derive computes lock and visibility state from the catalog and the
// watched set. Nothing here is stored: every answer is recomputed from the
// current progress, so it can never drift from it.
package derive

import "github.com/papapumpkin/unlockmap/internal/catalog"

// WatchSet is the read side of the progress store.
type WatchSet interface {
	IsWatched(id string) bool
}

// Deriver answers lock and visibility questions for one catalog.
type Deriver struct {
	cat     *catalog.Catalog
	watched WatchSet
}

// New creates a Deriver.
func New(cat *catalog.Catalog, watched WatchSet) *Deriver {
	return &Deriver{cat: cat, watched: watched}
}

// satisfied reports whether a prerequisite counts as met. Unknown ids are
// never met.
func (d *Deriver) satisfied(id string) bool {
	return d.cat.Has(id) && d.watched.IsWatched(id)
}

func (d *Deriver) allPrerequisitesMet(n catalog.Node) bool {
	for _, req := range n.Prerequisites {
		if !d.satisfied(req) {
			return false
		}
	}
	return true
}

// IsPhaseUnlocked reports whether phase p is open. Phase 1 always is; any
// other phase opens once its unlocker is watched.
func (d *Deriver) IsPhaseUnlocked(p int) bool {
	if p <= 1 {
		return true
	}
	id, ok := d.cat.PhaseUnlocker(p)
	return ok && d.satisfied(id)
}

// IsUnlocked reports whether id may be opened and marked watched: its phase
// must be open and every prerequisite watched. Phase 1 is always open, so a
// phase 1 node is gated by its prerequisites alone. Unknown ids are locked.
// An unlocked node is therefore always visible.
func (d *Deriver) IsUnlocked(id string) bool {
	n, ok := d.cat.Node(id)
	if !ok {
		return false
	}
	return d.IsPhaseUnlocked(n.Phase) && d.allPrerequisitesMet(n)
}

// IsVisible reports whether id appears on the map: the start node, any
// watched node, and any node whose prerequisites are all watched. Phase
// gating does not affect visibility.
func (d *Deriver) IsVisible(id string) bool {
	n, ok := d.cat.Node(id)
	if !ok {
		return false
	}
	if id == d.cat.Start() || d.watched.IsWatched(id) {
		return true
	}
	return d.allPrerequisitesMet(n)
}

// HighestUnlockedPhase returns the largest open phase that has nodes in the
// catalog, or 1.
func (d *Deriver) HighestUnlockedPhase() int {
	best := 1
	for _, p := range d.cat.Phases() {
		if p > best && d.IsPhaseUnlocked(p) {
			best = p
		}
	}
	return best
}

// NodeView is a visible node with its derived state.
type NodeView struct {
	catalog.Node
	Watched  bool
	Unlocked bool
}

// Visible returns every visible node in catalog order.
func (d *Deriver) Visible() []NodeView {
	var out []NodeView
	for _, n := range d.cat.Nodes() {
		if !d.IsVisible(n.ID) {
			continue
		}
		out = append(out, NodeView{
			Node:     n,
			Watched:  d.watched.IsWatched(n.ID),
			Unlocked: d.IsUnlocked(n.ID),
		})
	}
	return out
}

// Frontier returns the visible nodes that are unlocked but not yet watched,
// in catalog order.
func (d *Deriver) Frontier() []NodeView {
	var out []NodeView
	for _, v := range d.Visible() {
		if v.Unlocked && !v.Watched {
			out = append(out, v)
		}
	}
	return out
}
