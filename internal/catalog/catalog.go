// Package catalog holds the immutable set of watchable nodes and the
// prerequisite relationships between them. A Catalog is loaded once per
// session; the inverse adjacency (which nodes each node unlocks) is derived
// at load time and never recomputed.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"iter"
	"os"
	"slices"
	"sort"
	"strconv"
	"unicode"

	toml "github.com/pelletier/go-toml/v2"
)

// ErrDuplicateNode is returned when two records share an id.
var ErrDuplicateNode = errors.New("duplicate node")

// ErrEmptyID is returned when a record has no id.
var ErrEmptyID = errors.New("node has empty id")

// ErrAdjacencyMismatch is returned when the derived unlock adjacency is not
// the exact inverse of the prerequisite lists.
var ErrAdjacencyMismatch = errors.New("unlock adjacency is not the inverse of prerequisites")

//go:embed mcu.toml
var defaultCatalog []byte

// Node is a single catalog record.
type Node struct {
	ID            string
	Title         string
	Release       string
	PhaseLabel    string
	Phase         int // parsed from PhaseLabel
	Prerequisites []string
	GridX         int
	GridY         int
	Image         string
}

// Options carries catalog-wide settings that are not part of any record.
type Options struct {
	// Start is the node that is always visible.
	Start string
	// PhaseUnlockers maps phase number to the node that opens it.
	PhaseUnlockers map[int]string
}

// Catalog is the immutable node set plus derived adjacency.
type Catalog struct {
	nodes     []Node
	byID      map[string]int
	unlocks   map[string][]string
	start     string
	unlockers map[int]string
}

// file mirrors the on-disk TOML layout.
type file struct {
	Start          string            `toml:"start"`
	PhaseUnlockers map[string]string `toml:"phase_unlockers"`
	Nodes          []record          `toml:"node"`
}

type record struct {
	ID            string   `toml:"id"`
	Title         string   `toml:"title"`
	Release       string   `toml:"release"`
	Phase         string   `toml:"phase"`
	Prerequisites []string `toml:"prerequisites"`
	GridX         int      `toml:"grid_x"`
	GridY         int      `toml:"grid_y"`
	Image         string   `toml:"image"`
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	c, err := Parse(defaultCatalog)
	if err != nil {
		return nil, fmt.Errorf("catalog: embedded catalog: %w", err)
	}
	return c, nil
}

// LoadFile reads a catalog from a TOML file. An empty path selects the
// embedded default catalog.
func LoadFile(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: reading %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a TOML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	unlockers := make(map[int]string, len(f.PhaseUnlockers))
	for key, id := range f.PhaseUnlockers {
		phase, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("phase_unlockers key %q is not a phase number", key)
		}
		unlockers[phase] = id
	}

	nodes := make([]Node, 0, len(f.Nodes))
	for _, r := range f.Nodes {
		nodes = append(nodes, Node{
			ID:            r.ID,
			Title:         r.Title,
			Release:       r.Release,
			PhaseLabel:    r.Phase,
			Prerequisites: r.Prerequisites,
			GridX:         r.GridX,
			GridY:         r.GridY,
			Image:         r.Image,
		})
	}
	return New(nodes, Options{Start: f.Start, PhaseUnlockers: unlockers})
}

// New builds a catalog from records. Record order is preserved; phase numbers
// are parsed from the labels and duplicate prerequisite ids are collapsed.
// Unknown prerequisite ids are kept as-is: derivation treats them as never
// satisfied.
func New(nodes []Node, opts Options) (*Catalog, error) {
	c := &Catalog{
		nodes:     make([]Node, 0, len(nodes)),
		byID:      make(map[string]int, len(nodes)),
		unlocks:   make(map[string][]string, len(nodes)),
		start:     opts.Start,
		unlockers: make(map[int]string, len(opts.PhaseUnlockers)),
	}
	for phase, id := range opts.PhaseUnlockers {
		c.unlockers[phase] = id
	}

	for _, n := range nodes {
		if n.ID == "" {
			return nil, ErrEmptyID
		}
		if _, exists := c.byID[n.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateNode, n.ID)
		}
		n.Prerequisites = dedupe(n.Prerequisites)
		n.Phase = ParsePhase(n.PhaseLabel)
		c.byID[n.ID] = len(c.nodes)
		c.nodes = append(c.nodes, n)
	}

	for _, child := range c.nodes {
		for _, parent := range child.Prerequisites {
			c.unlocks[parent] = append(c.unlocks[parent], child.ID)
		}
	}

	if err := c.verifyAdjacency(); err != nil {
		return nil, err
	}
	return c, nil
}

// ParsePhase extracts the first run of digits from a phase label.
// Labels without digits are phase 1.
func ParsePhase(label string) int {
	start := -1
	for i, r := range label {
		if unicode.IsDigit(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			return atoiOr(label[start:i], 1)
		}
	}
	if start >= 0 {
		return atoiOr(label[start:], 1)
	}
	return 1
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

// verifyAdjacency checks both directions of the inverse relationship for
// every pair in the catalog.
func (c *Catalog) verifyAdjacency() error {
	for _, child := range c.nodes {
		for _, parent := range child.Prerequisites {
			if !contains(c.unlocks[parent], child.ID) {
				return fmt.Errorf("%w: %s lists %s but is missing from its unlocks", ErrAdjacencyMismatch, child.ID, parent)
			}
		}
	}
	for parent, children := range c.unlocks {
		for _, childID := range children {
			idx, ok := c.byID[childID]
			if !ok || !contains(c.nodes[idx].Prerequisites, parent) {
				return fmt.Errorf("%w: %s unlocks %s without a matching prerequisite", ErrAdjacencyMismatch, parent, childID)
			}
		}
	}
	return nil
}

// Len returns the number of nodes.
func (c *Catalog) Len() int {
	return len(c.nodes)
}

// Nodes returns a copy of all nodes in catalog order.
func (c *Catalog) Nodes() []Node {
	out := make([]Node, len(c.nodes))
	for i, n := range c.nodes {
		out[i] = n.clone()
	}
	return out
}

// Node returns the node with the given id.
func (c *Catalog) Node(id string) (Node, bool) {
	idx, ok := c.byID[id]
	if !ok {
		return Node{}, false
	}
	return c.nodes[idx].clone(), true
}

// clone copies n so callers cannot reach the catalog's prerequisite slices.
func (n Node) clone() Node {
	n.Prerequisites = slices.Clone(n.Prerequisites)
	return n
}

// Has reports whether id names a catalog node.
func (c *Catalog) Has(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// Unlocks returns the ids of nodes that list id as a prerequisite, in
// catalog order. The id itself need not exist in the catalog.
func (c *Catalog) Unlocks(id string) []string {
	children := c.unlocks[id]
	if len(children) == 0 {
		return nil
	}
	out := make([]string, len(children))
	copy(out, children)
	return out
}

// EachUnlock yields the ids Unlocks would return without copying them.
func (c *Catalog) EachUnlock(id string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, child := range c.unlocks[id] {
			if !yield(child) {
				return
			}
		}
	}
}

// Start returns the always-visible start node id.
func (c *Catalog) Start() string {
	return c.start
}

// PhaseUnlocker returns the node that opens the given phase.
func (c *Catalog) PhaseUnlocker(phase int) (string, bool) {
	id, ok := c.unlockers[phase]
	return id, ok
}

// PhaseUnlockers returns a copy of the phase→unlocker table.
func (c *Catalog) PhaseUnlockers() map[int]string {
	out := make(map[int]string, len(c.unlockers))
	for k, v := range c.unlockers {
		out[k] = v
	}
	return out
}

// Phases returns the distinct phase numbers present in the catalog, ascending.
func (c *Catalog) Phases() []int {
	seen := make(map[int]bool)
	var phases []int
	for _, n := range c.nodes {
		if !seen[n.Phase] {
			seen[n.Phase] = true
			phases = append(phases, n.Phase)
		}
	}
	sort.Ints(phases)
	return phases
}

func dedupe(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
