package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestValidate_DefaultCatalog(t *testing.T) {
	t.Parallel()

	r := Validate(mustDefault(t))
	if r.HasErrors() {
		t.Fatalf("default catalog has errors: %+v", r.Errors())
	}
	if len(r.Findings) != 1 {
		t.Fatalf("findings = %+v, want exactly the eternals/shangchi overlap", r.Findings)
	}
	f := r.Findings[0]
	if f.NodeID != "eternals" || !strings.Contains(f.Message, "overlaps shangchi") {
		t.Errorf("finding = %+v", f)
	}
}

func TestValidate_Findings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		nodes     []Node
		opts      Options
		wantError bool
		wantMsg   string
	}{
		{
			name:    "missing start",
			nodes:   []Node{{ID: "a"}},
			opts:    Options{Start: "zzz"},
			wantMsg: `start node "zzz"`,
		},
		{
			name:    "unknown prerequisite",
			nodes:   []Node{{ID: "a"}, {ID: "b", Prerequisites: []string{"ghost"}, GridY: 1}},
			opts:    Options{Start: "a"},
			wantMsg: `requires unknown node "ghost"`,
		},
		{
			name:    "unknown unlocker",
			nodes:   []Node{{ID: "a"}, {ID: "b", PhaseLabel: "Phase 2", GridY: 1}},
			opts:    Options{Start: "a", PhaseUnlockers: map[int]string{2: "ghost"}},
			wantMsg: `phase 2 unlocker "ghost"`,
		},
		{
			name:    "phase without unlocker",
			nodes:   []Node{{ID: "a"}, {ID: "b", PhaseLabel: "Phase 3", GridY: 1}},
			opts:    Options{Start: "a"},
			wantMsg: "phase 3 has no unlocker",
		},
		{
			name:      "self prerequisite",
			nodes:     []Node{{ID: "a", Prerequisites: []string{"a"}}},
			opts:      Options{Start: "a"},
			wantError: true,
			wantMsg:   "lists itself",
		},
		{
			name: "cycle",
			nodes: []Node{
				{ID: "a", Prerequisites: []string{"c"}},
				{ID: "b", Prerequisites: []string{"a"}, GridY: 1},
				{ID: "c", Prerequisites: []string{"b"}, GridY: 2},
			},
			opts:      Options{Start: "a"},
			wantError: true,
			wantMsg:   "prerequisite cycle",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, err := New(tt.nodes, tt.opts)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			r := Validate(c)
			if r.HasErrors() != tt.wantError {
				t.Errorf("HasErrors = %v, want %v (%+v)", r.HasErrors(), tt.wantError, r.Findings)
			}
			found := false
			for _, f := range r.Findings {
				if strings.Contains(f.Message, tt.wantMsg) {
					found = true
				}
			}
			if !found {
				t.Errorf("no finding containing %q in %+v", tt.wantMsg, r.Findings)
			}
		})
	}
}

func TestGraph_PathOrder(t *testing.T) {
	t.Parallel()

	c := mustDefault(t)
	g, err := c.Graph()
	if err != nil {
		t.Fatalf("Graph: %v", err)
	}
	order, err := g.Order(g.Ancestors("avengers1"))
	if err != nil {
		t.Fatalf("Order: %v", err)
	}
	if len(order) != 5 || order[0] != "ironman1" || order[1] != "ironman2" {
		t.Errorf("path to avengers1 = %v", order)
	}
}

func TestWatcher_DetectsWrite(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.toml")
	if err := os.WriteFile(path, []byte("start = \"a\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	w, err := NewWatcher(path)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	// Sibling files are ignored.
	if err := os.WriteFile(filepath.Join(dir, "other.toml"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("start = \"b\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-w.Changes:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change")
	}
}
