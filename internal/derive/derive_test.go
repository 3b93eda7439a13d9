package derive

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/papapumpkin/unlockmap/internal/catalog"
)

// watchSet is a plain set used in place of the progress store.
type watchSet map[string]bool

func (w watchSet) IsWatched(id string) bool { return w[id] }

func mcu(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog.Default: %v", err)
	}
	return c
}

func TestPhaseGateIndependence(t *testing.T) {
	t.Parallel()

	w := watchSet{}
	d := New(mcu(t), w)

	if !d.IsVisible("doctorstrange") {
		t.Error("doctorstrange should be visible from the start")
	}
	if d.IsUnlocked("doctorstrange") {
		t.Error("doctorstrange should be locked before ageofultron is watched")
	}
	w["ageofultron"] = true
	if !d.IsUnlocked("doctorstrange") {
		t.Error("doctorstrange should unlock once ageofultron is watched")
	}
}

func TestIsPhaseUnlocked(t *testing.T) {
	t.Parallel()

	w := watchSet{}
	d := New(mcu(t), w)
	if !d.IsPhaseUnlocked(1) || d.IsPhaseUnlocked(2) {
		t.Fatal("fresh state: only phase 1 open")
	}
	if d.IsPhaseUnlocked(9) {
		t.Error("phase without unlocker must stay closed")
	}
	w["avengers1"] = true
	if !d.IsPhaseUnlocked(2) {
		t.Error("phase 2 should open after avengers1")
	}
	if got := d.HighestUnlockedPhase(); got != 2 {
		t.Errorf("HighestUnlockedPhase = %d, want 2", got)
	}
	w["loki2"] = true
	if got := d.HighestUnlockedPhase(); got != 6 {
		t.Errorf("HighestUnlockedPhase = %d, want 6", got)
	}
}

func TestUnknownReferencesNeverSatisfied(t *testing.T) {
	t.Parallel()

	c, err := catalog.New([]catalog.Node{
		{ID: "start"},
		{ID: "orphan", Prerequisites: []string{"ghost"}, GridY: 1},
		{ID: "gated", PhaseLabel: "Phase 2", GridY: 2},
	}, catalog.Options{Start: "start", PhaseUnlockers: map[int]string{2: "ghost"}})
	if err != nil {
		t.Fatal(err)
	}
	// Even a watch fact for the unknown id does not satisfy it.
	d := New(c, watchSet{"ghost": true})
	if d.IsVisible("orphan") || d.IsUnlocked("orphan") {
		t.Error("node behind unknown prerequisite should be hidden and locked")
	}
	if d.IsPhaseUnlocked(2) || d.IsUnlocked("gated") {
		t.Error("phase with unknown unlocker should stay closed")
	}
	if d.IsVisible("nope") || d.IsUnlocked("nope") {
		t.Error("unknown id should be neither visible nor unlocked")
	}
}

// TestInvariants checks, after every step of a watch sequence, that every
// unlocked node is visible and every watched node stays visible.
func TestInvariants(t *testing.T) {
	t.Parallel()

	c := mcu(t)
	w := watchSet{}
	d := New(c, w)
	g, err := c.Graph()
	if err != nil {
		t.Fatal(err)
	}
	order, err := g.TopologicalSort()
	if err != nil {
		t.Fatal(err)
	}
	everWatched := map[string]bool{}
	// Phase gates are not graph edges, so sweep until nothing new unlocks.
	for progressed := true; progressed; {
		progressed = false
		for _, id := range order {
			if w[id] || !d.IsUnlocked(id) {
				continue
			}
			w[id] = true
			everWatched[id] = true
			progressed = true
			for _, n := range c.Nodes() {
				if d.IsUnlocked(n.ID) && !d.IsVisible(n.ID) {
					t.Fatalf("after watching %s: %s unlocked but not visible", id, n.ID)
				}
				if everWatched[n.ID] && !d.IsVisible(n.ID) {
					t.Fatalf("after watching %s: watched %s not visible", id, n.ID)
				}
			}
		}
	}
	// Every node is reachable by watching whatever is unlocked.
	if len(everWatched) != c.Len() {
		t.Errorf("watched %d of %d nodes in topological order", len(everWatched), c.Len())
	}
}

func TestVisible_CatalogOrder(t *testing.T) {
	t.Parallel()

	c, err := catalog.New([]catalog.Node{
		{ID: "a"},
		{ID: "b", Prerequisites: []string{"a"}, GridY: 1},
		{ID: "c", Prerequisites: []string{"a", "b"}, GridY: 2},
		{ID: "d", PhaseLabel: "Phase 2", GridY: 3},
	}, catalog.Options{Start: "a", PhaseUnlockers: map[int]string{2: "c"}})
	if err != nil {
		t.Fatal(err)
	}
	w := watchSet{"a": true}
	d := New(c, w)

	type row struct {
		ID       string
		Watched  bool
		Unlocked bool
	}
	flatten := func(vs []NodeView) []row {
		var out []row
		for _, v := range vs {
			out = append(out, row{v.ID, v.Watched, v.Unlocked})
		}
		return out
	}

	want := []row{{"a", true, true}, {"b", false, true}, {"d", false, false}}
	if diff := cmp.Diff(want, flatten(d.Visible())); diff != "" {
		t.Errorf("Visible mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]row{{"b", false, true}}, flatten(d.Frontier())); diff != "" {
		t.Errorf("Frontier mismatch (-want +got):\n%s", diff)
	}
}
