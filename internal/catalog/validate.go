package catalog

import (
	"errors"
	"fmt"
	"sort"

	"github.com/papapumpkin/unlockmap/internal/dag"
)

// Severity classifies a validation finding.
type Severity int

const (
	SeverityWarning Severity = iota // catalog still renders, degraded
	SeverityError                   // catalog cannot render as authored
)

// String returns the lower-case severity name.
func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Finding is a single validation result.
type Finding struct {
	Severity Severity
	NodeID   string
	Message  string
}

// Report collects validation findings.
type Report struct {
	Findings []Finding
}

// HasErrors reports whether any finding is an error.
func (r Report) HasErrors() bool {
	for _, f := range r.Findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns only the error findings.
func (r Report) Errors() []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Severity == SeverityError {
			out = append(out, f)
		}
	}
	return out
}

func (r *Report) add(sev Severity, id, format string, args ...any) {
	r.Findings = append(r.Findings, Finding{Severity: sev, NodeID: id, Message: fmt.Sprintf(format, args...)})
}

// Validate checks a catalog for authoring mistakes. Dangling references are
// warnings because derivation treats them as never satisfied; self
// references and cycles are errors because they stall the map.
func Validate(c *Catalog) Report {
	var r Report

	if c.start == "" {
		r.add(SeverityWarning, "", "no start node configured")
	} else if !c.Has(c.start) {
		r.add(SeverityWarning, c.start, "start node %q is not in the catalog", c.start)
	}

	phases := make([]int, 0, len(c.unlockers))
	for p := range c.unlockers {
		phases = append(phases, p)
	}
	sort.Ints(phases)
	for _, p := range phases {
		if id := c.unlockers[p]; !c.Has(id) {
			r.add(SeverityWarning, id, "phase %d unlocker %q is not in the catalog", p, id)
		}
	}
	for _, p := range c.Phases() {
		if _, ok := c.unlockers[p]; p > 1 && !ok {
			r.add(SeverityWarning, "", "phase %d has no unlocker; its nodes can never unlock", p)
		}
	}

	occupied := make(map[[2]int]string, len(c.nodes))
	for _, n := range c.nodes {
		for _, req := range n.Prerequisites {
			if req == n.ID {
				r.add(SeverityError, n.ID, "%s lists itself as a prerequisite", n.ID)
				continue
			}
			if !c.Has(req) {
				r.add(SeverityWarning, n.ID, "%s requires unknown node %q", n.ID, req)
			}
		}
		cell := [2]int{n.GridX, n.GridY}
		if other, taken := occupied[cell]; taken {
			r.add(SeverityWarning, n.ID, "%s overlaps %s at grid (%d, %d)", n.ID, other, n.GridX, n.GridY)
		} else {
			occupied[cell] = n.ID
		}
	}

	if _, err := c.Graph(); err != nil && errors.Is(err, dag.ErrCycle) {
		r.add(SeverityError, "", "prerequisite cycle: %v", err)
	}
	return r
}

// Graph builds a dag.DAG over the catalog. Nodes higher on the grid get
// higher priority so topological order follows the map top to bottom.
// Self references and unknown prerequisites are skipped; a cycle is
// returned as an error wrapping dag.ErrCycle.
func (c *Catalog) Graph() (*dag.DAG, error) {
	d := dag.New()
	for _, n := range c.nodes {
		if err := d.AddNode(n.ID, -n.GridY); err != nil {
			return nil, fmt.Errorf("catalog: graph: %w", err)
		}
	}
	for _, n := range c.nodes {
		for _, req := range n.Prerequisites {
			if req == n.ID || !c.Has(req) {
				continue
			}
			if err := d.AddEdge(n.ID, req); err != nil {
				return nil, fmt.Errorf("catalog: graph: %w", err)
			}
		}
	}
	return d, nil
}
