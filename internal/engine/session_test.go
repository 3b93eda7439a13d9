package engine

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/papapumpkin/unlockmap/internal/catalog"
	"github.com/papapumpkin/unlockmap/internal/edges"
	"github.com/papapumpkin/unlockmap/internal/identity"
	"github.com/papapumpkin/unlockmap/internal/layout"
	"github.com/papapumpkin/unlockmap/internal/progress"
	"github.com/papapumpkin/unlockmap/internal/scene"
)

type fixture struct {
	session *Session
	store   *progress.Store
	display *scene.Headless
	surface *edges.Recorder
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog.Default: %v", err)
	}
	store := progress.NewStore(nil, zerolog.Nop())
	display := scene.NewHeadless(1024, 768)
	surface := &edges.Recorder{}
	s, err := New(Options{
		Catalog:  cat,
		Store:    store,
		Display:  display,
		Surface:  surface,
		Spacing:  layout.DefaultSpacing(),
		Identity: identity.Static{Name: "kim", Token: "t"},
		Log:      zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.Close)
	return fixture{session: s, store: store, display: display, surface: surface}
}

func ids(res PassResult) map[string]bool {
	out := make(map[string]bool, len(res.Visible))
	for _, v := range res.Visible {
		out[v.ID] = true
	}
	return out
}

func TestNew_RequiresCollaborators(t *testing.T) {
	t.Parallel()
	if _, err := New(Options{}); err == nil {
		t.Error("New with empty options should fail")
	}
}

func TestEndToEnd_Avengers(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	s := f.session
	res := s.Start()
	if !ids(res)["ironman1"] {
		t.Fatal("start node should be visible on a fresh session")
	}
	if res.Centered != "ironman1" {
		t.Errorf("fresh session centered on %q, want ironman1", res.Centered)
	}

	for _, id := range []string{"ironman1", "ironman2", "thor1", "cap1"} {
		if err := s.Activate(id); err != nil {
			t.Fatalf("Activate(%s): %v", id, err)
		}
		if got := s.Last().Centered; got != id {
			t.Errorf("after %s centered on %q", id, got)
		}
	}

	// Two of three prerequisites: still locked.
	d := s.Deriver()
	if d.IsUnlocked("avengers1") {
		t.Fatal("avengers1 unlocked with hulk unwatched")
	}
	if ids(s.Last())["avengers1"] {
		t.Error("avengers1 visible with hulk unwatched")
	}
	if err := s.Activate("avengers1"); !errors.Is(err, ErrNotInteractive) {
		t.Errorf("Activate(avengers1) = %v, want ErrNotInteractive", err)
	}

	if err := s.Activate("hulk"); err != nil {
		t.Fatal(err)
	}
	res = s.Last()
	if !ids(res)["avengers1"] || !d.IsUnlocked("avengers1") {
		t.Fatal("avengers1 should be visible and unlocked after all three")
	}
	if !contains(res.Diff.Created, "avengers1") {
		t.Errorf("avengers1 not created in the last pass: %+v", res.Diff)
	}
	e, ok := f.display.Element("avengers1")
	if !ok || e.State.Locked || !e.State.Interactive {
		t.Errorf("avengers1 element = %+v, %v", e, ok)
	}
	// Three connectors land on avengers1, one from each prerequisite.
	into := 0
	for _, c := range res.Connectors {
		if c.To == "avengers1" {
			into++
		}
	}
	if into != 3 {
		t.Errorf("connectors into avengers1 = %d, want 3", into)
	}
	if res.HighestPhase != 1 {
		t.Errorf("HighestPhase = %d, want 1", res.HighestPhase)
	}
	if err := s.Activate("avengers1"); err != nil {
		t.Fatal(err)
	}
	if got := s.Last().HighestPhase; got != 2 {
		t.Errorf("HighestPhase after avengers1 = %d, want 2", got)
	}
}

func TestPhaseGate_DoctorStrange(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	s := f.session
	res := s.Start()
	if !ids(res)["doctorstrange"] {
		t.Fatal("doctorstrange should be visible from the start")
	}
	if e, _ := f.display.Element("doctorstrange"); !e.State.Locked || e.State.Interactive {
		t.Errorf("doctorstrange state = %+v, want locked", e.State)
	}
	if _, err := s.Detail("doctorstrange"); !errors.Is(err, ErrNotInteractive) {
		t.Errorf("Detail(doctorstrange) = %v, want ErrNotInteractive", err)
	}

	path, err := s.Deriver().PathTo("ageofultron")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.MarkAll(append(path, "ageofultron")); err != nil {
		t.Fatal(err)
	}
	if e, _ := f.display.Element("doctorstrange"); e.State.Locked || !e.State.Interactive {
		t.Errorf("doctorstrange state after ageofultron = %+v, want unlocked", e.State)
	}
}

func TestWatchAgain_ChangesOnlyCount(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	s := f.session
	s.Start()
	for _, id := range []string{"ironman1", "ironman2"} {
		if err := s.Activate(id); err != nil {
			t.Fatal(err)
		}
	}
	before := s.Last()
	elemsBefore := f.display.Elements()

	if err := s.Activate("ironman2"); err != nil {
		t.Fatal(err)
	}
	after := s.Last()
	if f.store.Count("ironman2") != 2 {
		t.Errorf("count = %d, want 2", f.store.Count("ironman2"))
	}
	if diff := cmp.Diff(before.Visible, after.Visible); diff != "" {
		t.Errorf("visible set changed (-before +after):\n%s", diff)
	}
	if diff := cmp.Diff(elemsBefore, f.display.Elements()); diff != "" {
		t.Errorf("element states changed (-before +after):\n%s", diff)
	}
}

func TestToggleRoundTrip(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	s := f.session
	s.Start()
	if err := s.Activate("ironman1"); err != nil {
		t.Fatal(err)
	}
	if err := s.WatchedWith("ironman1", "kim"); err != nil {
		t.Fatal(err)
	}
	if err := s.Unwatch("ironman1"); err != nil {
		t.Fatal(err)
	}
	if f.store.IsWatched("ironman1") || f.store.Count("ironman1") != 0 || f.store.CoViewers("ironman1") != nil {
		t.Error("unwatch left residue")
	}
	// Only the start node remains visible; everything else was removed.
	if diff := cmp.Diff([]string{"ironman1"}, phaseOneVisible(s.Last())); diff != "" {
		t.Errorf("visible phase-1 nodes mismatch (-want +got):\n%s", diff)
	}
}

// phaseOneVisible lists visible phase 1 ids in catalog order.
func phaseOneVisible(res PassResult) []string {
	var out []string
	for _, v := range res.Visible {
		if v.Phase == 1 {
			out = append(out, v.ID)
		}
	}
	return out
}

func TestDetail(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	s := f.session
	s.Start()

	d, err := s.Detail("ironman1")
	if err != nil {
		t.Fatal(err)
	}
	if d.CountLabel != "" || !cmp.Equal(d.Actions, []Action{ActionMarkWatched, ActionWatchedWithFriend}) {
		t.Errorf("unwatched detail = %+v", d)
	}

	if err := s.WatchTogether("ironman1", "kim"); err != nil {
		t.Fatal(err)
	}
	if err := s.WatchTogether("ironman1", "alex"); err != nil {
		t.Fatal(err)
	}
	d, err = s.Detail("ironman1")
	if err != nil {
		t.Fatal(err)
	}
	want := Detail{
		Node:       d.Node,
		Watched:    true,
		Unlocked:   true,
		Count:      2,
		CountLabel: "Watched 2 times",
		CoViewers:  []string{"you", "alex"},
		Actions:    []Action{ActionWatchAgain, ActionWatchedWithFriend, ActionAddMemory},
	}
	if diff := cmp.Diff(want, d); diff != "" {
		t.Errorf("watched detail mismatch (-want +got):\n%s", diff)
	}
}

func TestWatchedLockedStaysInteractive(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	s := f.session
	s.Start()
	for _, id := range []string{"ironman1", "ironman2"} {
		if err := s.Activate(id); err != nil {
			t.Fatalf("Activate(%s): %v", id, err)
		}
	}
	if err := s.Unwatch("ironman1"); err != nil {
		t.Fatal(err)
	}
	if s.Deriver().IsUnlocked("ironman2") {
		t.Fatal("ironman2 should be locked once ironman1 is unwatched")
	}

	e, ok := f.display.Element("ironman2")
	if !ok || !e.State.Watched || !e.State.Locked || !e.State.Interactive {
		t.Errorf("ironman2 state = %+v, want watched, locked and interactive", e.State)
	}
	d, err := s.Detail("ironman2")
	if err != nil {
		t.Fatalf("Detail(ironman2): %v", err)
	}
	if !cmp.Equal(d.Actions, []Action{ActionWatchAgain, ActionWatchedWithFriend, ActionAddMemory}) {
		t.Errorf("actions = %v", d.Actions)
	}
	if err := s.Activate("ironman2"); err != nil {
		t.Fatalf("Activate(ironman2) = %v, want watch again", err)
	}
	if err := s.WatchedWith("ironman2", "alex"); err != nil {
		t.Fatalf("WatchedWith(ironman2): %v", err)
	}
	if got := f.store.Count("ironman2"); got != 2 {
		t.Errorf("count = %d, want 2", got)
	}

	// Unwatched locked nodes stay closed.
	if err := s.Activate("avengers1"); !errors.Is(err, ErrNotInteractive) {
		t.Errorf("Activate(avengers1) = %v, want ErrNotInteractive", err)
	}
}

func TestPeerView(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	s := f.session
	s.Start()
	if err := s.Activate("ironman1"); err != nil {
		t.Fatal(err)
	}
	own := f.store.Entries()

	peer := []progress.Entry{{NodeID: "ironman1", WatchCount: 1}, {NodeID: "ironman2", WatchCount: 4}}
	if err := s.ViewPeer("jo", peer); err != nil {
		t.Fatal(err)
	}
	res := s.Last()
	if !res.ReadOnly || !ids(res)["hulk"] {
		t.Fatalf("peer pass = readOnly %v, hulk visible %v", res.ReadOnly, ids(res)["hulk"])
	}
	// Unlocked but unwatched nodes do not open in a peer view.
	if e, _ := f.display.Element("hulk"); e.State.Interactive {
		t.Error("hulk interactive in peer view")
	}
	d, err := s.Detail("ironman2")
	if err != nil {
		t.Fatal(err)
	}
	if d.Count != 4 || len(d.Actions) != 0 {
		t.Errorf("peer detail = %+v", d)
	}
	if _, err := s.Detail("hulk"); !errors.Is(err, ErrNotInteractive) {
		t.Errorf("Detail(hulk) in peer view = %v, want ErrNotInteractive", err)
	}
	if err := s.Activate("hulk"); !errors.Is(err, ErrReadOnly) {
		t.Errorf("Activate in peer view = %v, want ErrReadOnly", err)
	}
	if err := s.ViewPeer("sam", nil); !errors.Is(err, ErrPeerViewActive) {
		t.Errorf("nested ViewPeer = %v, want ErrPeerViewActive", err)
	}

	if err := s.ExitPeer(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(own, f.store.Entries()); diff != "" {
		t.Errorf("own progress not restored (-want +got):\n%s", diff)
	}
	if s.Last().ReadOnly || ids(s.Last())["hulk"] {
		t.Error("peer state leaked after exit")
	}
}

func TestClearProgress_CentersOnStart(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	s := f.session
	s.Start()
	for _, id := range []string{"ironman1", "ironman2", "hulk"} {
		if err := s.Activate(id); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.ClearProgress(); err != nil {
		t.Fatal(err)
	}
	res := s.Last()
	if f.store.Len() != 0 || res.Centered != "ironman1" {
		t.Errorf("after clear: %d entries, centered on %q", f.store.Len(), res.Centered)
	}
	if !contains(res.Diff.Removed, "hulk") {
		t.Errorf("hulk not removed: %+v", res.Diff)
	}
}

func TestReentrantMutationRejected(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	s := f.session
	var inner error
	s.OnPass(func(PassResult) {
		if inner == nil {
			inner = s.Activate("ironman2")
		}
	})
	s.Start()
	if err := s.Activate("ironman1"); err != nil {
		t.Fatal(err)
	}
	if !errors.Is(inner, ErrReentrantMutation) {
		t.Errorf("mutation inside pass = %v, want ErrReentrantMutation", inner)
	}
	if f.store.IsWatched("ironman2") {
		t.Error("re-entrant mutation was applied")
	}
}

func TestConnectorsMatchRenderedRects(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.display.Round = true
	s := f.session
	s.Start()
	for _, id := range []string{"ironman1", "ironman2"} {
		if err := s.Activate(id); err != nil {
			t.Fatal(err)
		}
	}
	for _, c := range s.Last().Connectors {
		from, _ := f.display.Rect(c.From)
		to, _ := f.display.Rect(c.To)
		if want := edges.Between(from, to); c.X1 != want.X1 || c.Y2 != want.Y2 {
			t.Errorf("connector %s→%s = %+v, want endpoints from live rects %+v", c.From, c.To, c, want)
		}
	}
	if f.surface.Markers != 1 {
		t.Errorf("marker defined %d times", f.surface.Markers)
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	t.Parallel()

	a := newFixture(t)
	b := newFixture(t)
	a.session.Start()
	b.session.Start()
	if err := a.session.Activate("ironman1"); err != nil {
		t.Fatal(err)
	}
	if b.store.IsWatched("ironman1") || b.session.Last().Seq != 1 {
		t.Error("mutation in one session reached the other")
	}
	if a.session.ID == b.session.ID {
		t.Error("sessions share an id")
	}
}

func TestEmptyCatalogPassIsSkipped(t *testing.T) {
	t.Parallel()

	cat, err := catalog.New([]catalog.Node{{ID: "a", Prerequisites: []string{"ghost"}}}, catalog.Options{Start: "missing"})
	if err != nil {
		t.Fatal(err)
	}
	display := scene.NewHeadless(100, 100)
	s, err := New(Options{
		Catalog: cat,
		Store:   progress.NewStore(nil, zerolog.Nop()),
		Display: display,
		Surface: &edges.Recorder{},
		Log:     zerolog.Nop(),
	})
	if err != nil {
		t.Fatal(err)
	}
	res := s.Start()
	if !res.Empty || len(display.Elements()) != 0 {
		t.Errorf("empty pass = %+v", res)
	}
}

func contains(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}
