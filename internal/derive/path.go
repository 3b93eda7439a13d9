package derive

import (
	"fmt"

	"github.com/papapumpkin/unlockmap/internal/catalog"
	"github.com/papapumpkin/unlockmap/internal/dag"
)

// PathTo returns the unwatched nodes that must be watched before id can be
// unlocked, in an order that can be followed one by one: every node comes
// after its own prerequisites and after the unlocker of its phase. Unknown
// references are skipped since nothing can satisfy them. The result does
// not include id and is empty when id is already unlocked.
func (d *Deriver) PathTo(id string) ([]string, error) {
	target, ok := d.cat.Node(id)
	if !ok {
		return nil, fmt.Errorf("derive: path to %q: %w", id, dag.ErrNodeNotFound)
	}

	needed := make(map[string]catalog.Node)
	queue := []catalog.Node{target}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, req := range d.requirements(n) {
			if _, seen := needed[req]; seen || req == id || d.watched.IsWatched(req) {
				continue
			}
			rn, _ := d.cat.Node(req)
			needed[req] = rn
			queue = append(queue, rn)
		}
	}

	g := dag.New()
	for nid, n := range needed {
		if err := g.AddNode(nid, -n.GridY); err != nil {
			return nil, fmt.Errorf("derive: path to %q: %w", id, err)
		}
	}
	for nid, n := range needed {
		for _, req := range d.requirements(n) {
			if _, in := needed[req]; !in {
				continue
			}
			if err := g.AddEdge(nid, req); err != nil {
				return nil, fmt.Errorf("derive: path to %q: %w", id, err)
			}
		}
	}
	order, err := g.TopologicalSort()
	if err != nil {
		return nil, fmt.Errorf("derive: path to %q: %w", id, err)
	}
	return order, nil
}

// requirements lists the known nodes n directly depends on: its
// prerequisites and, past phase 1, its phase unlocker.
func (d *Deriver) requirements(n catalog.Node) []string {
	var out []string
	for _, req := range n.Prerequisites {
		if d.cat.Has(req) {
			out = append(out, req)
		}
	}
	if n.Phase > 1 {
		if u, ok := d.cat.PhaseUnlocker(n.Phase); ok && d.cat.Has(u) && u != n.ID {
			out = append(out, u)
		}
	}
	return out
}
