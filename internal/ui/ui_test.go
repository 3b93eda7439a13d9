package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/papapumpkin/unlockmap/internal/catalog"
	"github.com/papapumpkin/unlockmap/internal/derive"
	"github.com/papapumpkin/unlockmap/internal/engine"
	"github.com/papapumpkin/unlockmap/internal/progress"
	"github.com/papapumpkin/unlockmap/internal/telemetry"
)

func capture(fn func(p *Printer)) string {
	var buf bytes.Buffer
	p := NewTo(&buf)
	p.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	fn(p)
	return buf.String()
}

func assertContains(t *testing.T, output string, substrs ...string) {
	t.Helper()
	for _, s := range substrs {
		if !strings.Contains(output, s) {
			t.Errorf("expected output to contain %q, got:\n%s", s, output)
		}
	}
}

func TestDetail(t *testing.T) {
	t.Parallel()

	output := capture(func(p *Printer) {
		p.Detail(engine.Detail{
			Node:       catalog.Node{ID: "ironman1", Title: "Iron Man", PhaseLabel: "Phase 1", Release: "2008-05-02"},
			Watched:    true,
			Count:      2,
			CountLabel: "Watched 2 times",
			CoViewers:  []string{"you", "alex"},
			Media: []progress.Media{
				{URL: "https://img/1.png", Kind: progress.MediaImage, Caption: "opening night", UploadedAt: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)},
				{URL: "https://vid/2.mp4", Kind: progress.MediaVideo},
			},
			Actions: []engine.Action{engine.ActionWatchAgain, engine.ActionAddMemory},
		})
	})

	assertContains(t, output,
		"Iron Man", "Phase 1", "2008-05-02",
		"Watched 2 times",
		"with:  you, alex",
		"▣ https://img/1.png", `"opening night"`, "3 hours ago",
		"▶ https://vid/2.mp4",
		"Watch Again · Add Memory",
	)
}

func TestDetail_UnwatchedHidesCount(t *testing.T) {
	t.Parallel()

	output := capture(func(p *Printer) {
		p.Detail(engine.Detail{Node: catalog.Node{Title: "Thor"}})
	})
	if strings.Contains(output, "Watched") || strings.Contains(output, "actions:") {
		t.Errorf("unwatched detail without actions should be bare, got:\n%s", output)
	}
}

func TestStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data StatusData
		want []string
		not  []string
	}{
		{
			name: "own progress",
			data: StatusData{
				User: "kim", Backend: "sqlite", Total: 4, Watched: 1, Visible: 3, HighestPhase: 1, Last: "ironman1",
				Frontier: []derive.NodeView{{Node: catalog.Node{ID: "ironman2", Title: "Iron Man 2", PhaseLabel: "Phase 1"}}},
			},
			want: []string{"user:          kim", "sqlite", "1/4 (25%)", "last watched:  ironman1", "up next:", "Iron Man 2"},
			not:  []string{"read-only"},
		},
		{
			name: "peer view",
			data: StatusData{ReadOnly: true, PeerOwner: "alex", Backend: "remote", Total: 3},
			want: []string{"viewing:       alex", "read-only", "0/3 (0%)"},
			not:  []string{"up next:", "last watched"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			output := capture(func(p *Printer) { p.Status(tt.data) })
			assertContains(t, output, tt.want...)
			for _, s := range tt.not {
				if strings.Contains(output, s) {
					t.Errorf("output should not contain %q:\n%s", s, output)
				}
			}
		})
	}
}

func TestValidateResult(t *testing.T) {
	t.Parallel()

	clean := capture(func(p *Printer) { p.ValidateResult("mcu", 71, catalog.Report{}) })
	assertContains(t, clean, "✓ catalog \"mcu\"", "71 nodes", "no errors")

	bad := capture(func(p *Printer) {
		p.ValidateResult("bad", 2, catalog.Report{Findings: []catalog.Finding{
			{Severity: catalog.SeverityError, NodeID: "a", Message: "lists itself"},
			{Severity: catalog.SeverityWarning, Message: "phase 3 has no unlocker"},
		}})
	})
	assertContains(t, bad, "✗ catalog \"bad\"", "1 error", "a: lists itself", "⚠", "phase 3 has no unlocker")
}

func TestPath(t *testing.T) {
	t.Parallel()

	target := catalog.Node{ID: "avengers1", Title: "The Avengers"}
	done := capture(func(p *Printer) { p.Path(target, nil) })
	assertContains(t, done, "already unlocked")

	steps := []catalog.Node{{ID: "ironman1", Title: "Iron Man"}, {ID: "ironman2", Title: "Iron Man 2"}}
	output := capture(func(p *Printer) { p.Path(target, steps) })
	assertContains(t, output, "watch 2 titles", " 1. ironman1", " 2. ironman2")
}

func TestOneLiners(t *testing.T) {
	t.Parallel()

	output := capture(func(p *Printer) {
		p.Watched(engine.Detail{Node: catalog.Node{Title: "Iron Man"}, CountLabel: "Watched 1 time"})
		p.Unwatched(catalog.Node{Title: "Thor"})
		p.Cleared(1)
		p.Newly([]derive.NodeView{{Node: catalog.Node{Title: "Iron Man 2"}}})
		p.Newly(nil)
		p.Error("boom")
		p.Info("note")
	})
	assertContains(t, output,
		"✓ Iron Man", "(Watched 1 time)",
		"○ Thor", "1 entry removed",
		"◆ unlocked", "Iron Man 2",
		"error: ", "boom", "note",
	)
}

func TestHistory(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	events := []telemetry.Event{
		{Timestamp: at, Kind: telemetry.KindSessionStart, User: "kim", Count: 3},
		{Timestamp: at, Kind: telemetry.KindWatched, NodeID: "ironman1", Count: 1},
		{Timestamp: at, Kind: telemetry.KindWatchedAgain, NodeID: "ironman1", Count: 2},
		{Timestamp: at, Kind: telemetry.KindCoViewer, NodeID: "ironman1", Data: []any{"alex", "sam"}},
		{Timestamp: at, Kind: telemetry.KindMarkedAll, Count: 1200},
		{Timestamp: at, Kind: telemetry.KindCleared},
		{Timestamp: at, Kind: "future_kind", NodeID: "thor"},
	}
	title := func(id string) string {
		if id == "ironman1" {
			return "Iron Man"
		}
		return id
	}

	output := capture(func(p *Printer) { p.History(events, title) })
	assertContains(t, output,
		"2 hours ago",
		"session started by kim (3 entries)",
		"✓ Iron Man",
		"again (2nd)",
		"◇ Iron Man with alex, sam",
		"marked all", "1,200 watched",
		"progress cleared",
		"future_kind thor",
	)

	empty := capture(func(p *Printer) { p.History(nil, title) })
	assertContains(t, empty, "no activity recorded")
}

func TestNewPlain_StripsColor(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	NewPlain(&buf).Error("boom")
	if got := buf.String(); got != "error: boom\n" {
		t.Errorf("got %q", got)
	}
}
