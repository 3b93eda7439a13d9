// Package dag provides a small directed acyclic graph used to analyse the
// prerequisite structure of a catalog: cycle detection while edges are
// added, priority-aware topological ordering, and transitive prerequisite
// queries.
package dag

import (
	"errors"
	"fmt"
	"sort"
)

// ErrCycle is returned when an edge would close a prerequisite cycle.
var ErrCycle = errors.New("cycle detected")

// ErrNodeNotFound is returned when an operation references a non-existent node.
var ErrNodeNotFound = errors.New("node not found")

// ErrDuplicateNode is returned when adding a node that already exists.
var ErrDuplicateNode = errors.New("duplicate node")

// ErrSelfEdge is returned when a node lists itself as a prerequisite.
var ErrSelfEdge = errors.New("self-referencing edge")

// Node is a vertex in the graph.
type Node struct {
	ID       string
	Priority int // higher value sorts first among peers
}

// DAG is a prerequisite graph. Edges point from a node to the nodes it
// requires: if B requires A there is an edge B → A.
type DAG struct {
	nodes map[string]*Node
	// requires maps nodeID → set of prerequisite IDs.
	requires map[string]map[string]bool
	// requiredBy maps nodeID → set of nodes listing it as a prerequisite.
	requiredBy map[string]map[string]bool
}

// New creates an empty DAG.
func New() *DAG {
	return &DAG{
		nodes:      make(map[string]*Node),
		requires:   make(map[string]map[string]bool),
		requiredBy: make(map[string]map[string]bool),
	}
}

// AddNode adds a node. Returns ErrDuplicateNode if the id is taken.
func (d *DAG) AddNode(id string, priority int) error {
	if _, exists := d.nodes[id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, id)
	}
	d.nodes[id] = &Node{ID: id, Priority: priority}
	d.requires[id] = make(map[string]bool)
	d.requiredBy[id] = make(map[string]bool)
	return nil
}

// AddEdge records that from requires to. Both nodes must exist. The edge is
// rejected if it is a self-loop or would introduce a cycle.
func (d *DAG) AddEdge(from, to string) error {
	if from == to {
		return fmt.Errorf("%w: %s", ErrSelfEdge, from)
	}
	if _, ok := d.nodes[from]; !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, from)
	}
	if _, ok := d.nodes[to]; !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, to)
	}
	if d.requires[from][to] {
		return nil
	}
	// A path to → ... → from plus from → to closes a loop.
	if d.hasPath(to, from) {
		return fmt.Errorf("%w: %s → %s", ErrCycle, from, to)
	}
	d.requires[from][to] = true
	d.requiredBy[to][from] = true
	return nil
}

// Node returns the node with the given ID, or nil if not found.
func (d *DAG) Node(id string) *Node {
	return d.nodes[id]
}

// Nodes returns all node IDs sorted alphabetically.
func (d *DAG) Nodes() []string {
	ids := make([]string, 0, len(d.nodes))
	for id := range d.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of nodes.
func (d *DAG) Len() int {
	return len(d.nodes)
}

// TopologicalSort returns node IDs with every prerequisite ahead of the
// nodes that require it. Among nodes freed at the same step, higher
// priority comes first, then alphabetical order.
func (d *DAG) TopologicalSort() ([]string, error) {
	pending := make(map[string]int, len(d.nodes))
	var queue []string
	for id := range d.nodes {
		pending[id] = len(d.requires[id])
		if pending[id] == 0 {
			queue = append(queue, id)
		}
	}
	queue = d.prioritySorted(queue)

	sorted := make([]string, 0, len(d.nodes))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		sorted = append(sorted, id)

		var freed []string
		for dependent := range d.requiredBy[id] {
			pending[dependent]--
			if pending[dependent] == 0 {
				freed = append(freed, dependent)
			}
		}
		queue = append(queue, d.prioritySorted(freed)...)
	}

	if len(sorted) != len(d.nodes) {
		return nil, fmt.Errorf("%w: ordered %d of %d nodes", ErrCycle, len(sorted), len(d.nodes))
	}
	return sorted, nil
}

// Ancestors returns every transitive prerequisite of id, sorted
// alphabetically. Returns nil for unknown ids.
func (d *DAG) Ancestors(id string) []string {
	if _, ok := d.nodes[id]; !ok {
		return nil
	}
	visited := make(map[string]bool)
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for dep := range d.requires[cur] {
			if !visited[dep] {
				visited[dep] = true
				queue = append(queue, dep)
			}
		}
	}
	result := make([]string, 0, len(visited))
	for v := range visited {
		result = append(result, v)
	}
	sort.Strings(result)
	return result
}

// Order returns the subset ids in topological order. Unknown ids are dropped.
func (d *DAG) Order(ids []string) ([]string, error) {
	full, err := d.TopologicalSort()
	if err != nil {
		return nil, err
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make([]string, 0, len(ids))
	for _, id := range full {
		if want[id] {
			out = append(out, id)
		}
	}
	return out, nil
}

// hasPath reports whether src reaches dst through prerequisite edges.
func (d *DAG) hasPath(src, dst string) bool {
	if src == dst {
		return false
	}
	visited := make(map[string]bool)
	queue := []string{src}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for dep := range d.requires[cur] {
			if dep == dst {
				return true
			}
			if !visited[dep] {
				visited[dep] = true
				queue = append(queue, dep)
			}
		}
	}
	return false
}

// prioritySorted returns a copy of ids sorted by priority descending with
// alphabetical ID as tiebreaker.
func (d *DAG) prioritySorted(ids []string) []string {
	if len(ids) <= 1 {
		return ids
	}
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool {
		pi := d.nodes[sorted[i]].Priority
		pj := d.nodes[sorted[j]].Priority
		if pi != pj {
			return pi > pj
		}
		return sorted[i] < sorted[j]
	})
	return sorted
}
