// Package ui provides stderr-based output for unlockmap and a character-cell
// canvas that draws the map into a terminal.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"

	"github.com/papapumpkin/unlockmap/internal/ansi"
	"github.com/papapumpkin/unlockmap/internal/catalog"
	"github.com/papapumpkin/unlockmap/internal/derive"
	"github.com/papapumpkin/unlockmap/internal/engine"
	"github.com/papapumpkin/unlockmap/internal/progress"
	"github.com/papapumpkin/unlockmap/internal/telemetry"
)

// Printer writes human-readable status lines.
type Printer struct {
	w   io.Writer
	now func() time.Time
}

// New returns a Printer writing to stderr.
func New() *Printer {
	return NewTo(os.Stderr)
}

// NewTo returns a Printer writing to w.
func NewTo(w io.Writer) *Printer {
	return &Printer{w: w, now: time.Now}
}

// NewPlain returns a Printer writing to w with colors removed.
func NewPlain(w io.Writer) *Printer {
	return NewTo(ansi.PlainWriter{W: w})
}

// Banner prints the startup banner.
func (p *Printer) Banner() {
	fmt.Fprintln(p.w, ansi.Bold+ansi.Cyan+"  ╔═══════════════════════════════════╗"+ansi.Reset)
	fmt.Fprintln(p.w, ansi.Bold+ansi.Cyan+"  ║"+ansi.Reset+ansi.Bold+"  UNLOCKMAP  "+ansi.Dim+"watch-order tracker"+ansi.Reset+ansi.Bold+ansi.Cyan+"   ║"+ansi.Reset)
	fmt.Fprintln(p.w, ansi.Bold+ansi.Cyan+"  ╚═══════════════════════════════════╝"+ansi.Reset)
	fmt.Fprintln(p.w)
}

// Error prints msg as an error line.
func (p *Printer) Error(msg string) {
	fmt.Fprintf(p.w, ansi.Red+ansi.Bold+"error: "+ansi.Reset+"%s\n", msg)
}

// Info prints msg dimmed.
func (p *Printer) Info(msg string) {
	fmt.Fprintf(p.w, ansi.Dim+"%s"+ansi.Reset+"\n", msg)
}

// Watched reports a node that was just marked or re-watched.
func (p *Printer) Watched(d engine.Detail) {
	fmt.Fprintf(p.w, ansi.Green+ansi.Bold+"✓ %s"+ansi.Reset+ansi.Dim+" (%s)"+ansi.Reset+"\n", d.Node.Title, d.CountLabel)
}

// Unwatched reports a node whose entry was removed.
func (p *Printer) Unwatched(n catalog.Node) {
	fmt.Fprintf(p.w, ansi.Yellow+"○ %s"+ansi.Reset+ansi.Dim+" marked unwatched"+ansi.Reset+"\n", n.Title)
}

// Cleared reports a reset and how many entries it dropped.
func (p *Printer) Cleared(count int) {
	fmt.Fprintf(p.w, ansi.Yellow+ansi.Bold+"↺ progress cleared"+ansi.Reset+" (%s removed)\n",
		english.Plural(count, "entry", "entries"))
}

// Newly lists nodes that became available after a change.
func (p *Printer) Newly(nodes []derive.NodeView) {
	if len(nodes) == 0 {
		return
	}
	fmt.Fprintf(p.w, ansi.Cyan+"◆ unlocked"+ansi.Reset+" %s\n", titles(nodes))
}

// StatusData summarizes a session for the status command.
type StatusData struct {
	User         string
	Backend      string
	Total        int
	Watched      int
	Visible      int
	HighestPhase int
	Last         string
	Frontier     []derive.NodeView
	ReadOnly     bool
	PeerOwner    string
}

// Status prints a progress summary and the titles that are up next.
func (p *Printer) Status(s StatusData) {
	fmt.Fprintln(p.w, ansi.Dim+"progress:"+ansi.Reset)
	if s.ReadOnly {
		fmt.Fprintf(p.w, "  viewing:       %s"+ansi.Yellow+" (read-only)"+ansi.Reset+"\n", s.PeerOwner)
	} else {
		fmt.Fprintf(p.w, "  user:          %s\n", s.User)
	}
	fmt.Fprintf(p.w, "  storage:       %s\n", s.Backend)
	pct := 0.0
	if s.Total > 0 {
		pct = float64(s.Watched) / float64(s.Total) * 100
	}
	fmt.Fprintf(p.w, "  watched:       %d/%d (%s%%)\n", s.Watched, s.Total, humanize.FtoaWithDigits(pct, 1))
	fmt.Fprintf(p.w, "  visible:       %d\n", s.Visible)
	fmt.Fprintf(p.w, "  phase:         %d\n", s.HighestPhase)
	if s.Last != "" {
		fmt.Fprintf(p.w, "  last watched:  %s\n", s.Last)
	}
	if len(s.Frontier) > 0 {
		fmt.Fprintln(p.w, ansi.Bold+"up next:"+ansi.Reset)
		for _, n := range s.Frontier {
			fmt.Fprintf(p.w, "  "+ansi.Cyan+"▸ %-16s"+ansi.Reset+" %s "+ansi.Dim+"(%s)"+ansi.Reset+"\n", n.ID, n.Title, n.PhaseLabel)
		}
	}
}

// Detail prints the panel for one node.
func (p *Printer) Detail(d engine.Detail) {
	fmt.Fprintf(p.w, ansi.Bold+"%s"+ansi.Reset+ansi.Dim+"  %s · %s"+ansi.Reset+"\n", d.Node.Title, d.Node.PhaseLabel, d.Node.Release)
	if d.Watched {
		fmt.Fprintf(p.w, "  "+ansi.Green+"%s"+ansi.Reset+"\n", d.CountLabel)
	}
	if len(d.CoViewers) > 0 {
		fmt.Fprintf(p.w, "  with:  %s\n", strings.Join(d.CoViewers, ", "))
	}
	for _, m := range d.Media {
		line := fmt.Sprintf("  %s %s", mediaIcon(m.Kind), m.URL)
		if m.Caption != "" {
			line += " " + fmt.Sprintf("%q", m.Caption)
		}
		if !m.UploadedAt.IsZero() {
			line += ansi.Dim + " " + humanize.RelTime(m.UploadedAt, p.now(), "ago", "from now") + ansi.Reset
		}
		fmt.Fprintln(p.w, line)
	}
	if len(d.Actions) > 0 {
		acts := make([]string, len(d.Actions))
		for i, a := range d.Actions {
			acts[i] = string(a)
		}
		fmt.Fprintf(p.w, ansi.Dim+"  actions: %s"+ansi.Reset+"\n", strings.Join(acts, " · "))
	}
}

// ValidateResult prints a catalog validation report.
func (p *Printer) ValidateResult(name string, nodes int, r catalog.Report) {
	errs := r.Errors()
	if len(errs) == 0 {
		fmt.Fprintf(p.w, ansi.Green+ansi.Bold+"✓ catalog %q"+ansi.Reset+" %s, no errors\n", name, english.Plural(nodes, "node", "nodes"))
	} else {
		fmt.Fprintf(p.w, ansi.Red+ansi.Bold+"✗ catalog %q"+ansi.Reset+" %s:\n", name, english.Plural(len(errs), "error", "errors"))
	}
	for _, f := range r.Findings {
		color, mark := ansi.Yellow, "⚠"
		if f.Severity == catalog.SeverityError {
			color, mark = ansi.Red, "•"
		}
		id := ""
		if f.NodeID != "" {
			id = f.NodeID + ": "
		}
		fmt.Fprintf(p.w, "  "+color+mark+" "+ansi.Reset+"%s%s\n", id, f.Message)
	}
}

// Path prints the watch order leading to target.
func (p *Printer) Path(target catalog.Node, steps []catalog.Node) {
	if len(steps) == 0 {
		fmt.Fprintf(p.w, ansi.Green+"✓ %s"+ansi.Reset+" is already unlocked\n", target.Title)
		return
	}
	fmt.Fprintf(p.w, ansi.Bold+"to unlock %s, watch %s:"+ansi.Reset+"\n", target.Title, english.Plural(len(steps), "title", "titles"))
	for i, n := range steps {
		fmt.Fprintf(p.w, "  %2d. %-16s %s "+ansi.Dim+"(%s)"+ansi.Reset+"\n", i+1, n.ID, n.Title, n.PhaseLabel)
	}
}

// History lists journal events oldest first. title maps a node id to its
// display name; unknown ids print as-is.
func (p *Printer) History(events []telemetry.Event, title func(id string) string) {
	if len(events) == 0 {
		fmt.Fprintln(p.w, ansi.Dim+"no activity recorded"+ansi.Reset)
		return
	}
	now := p.now()
	for _, evt := range events {
		name := evt.NodeID
		if name != "" && title != nil {
			name = title(name)
		}
		when := humanize.RelTime(evt.Timestamp, now, "ago", "from now")
		fmt.Fprintf(p.w, ansi.Dim+"%-16s"+ansi.Reset+" %s\n", when, historyLine(evt, name))
	}
}

func historyLine(evt telemetry.Event, name string) string {
	switch evt.Kind {
	case telemetry.KindSessionStart:
		who := evt.User
		if who == "" {
			who = "guest"
		}
		return fmt.Sprintf(ansi.Dim+"session started by %s (%s)"+ansi.Reset, who, english.Plural(evt.Count, "entry", "entries"))
	case telemetry.KindWatched:
		return ansi.Green + "✓ " + name + ansi.Reset
	case telemetry.KindWatchedAgain:
		return fmt.Sprintf(ansi.Green+"✓ %s"+ansi.Reset+" again (%s)", name, humanize.Ordinal(evt.Count))
	case telemetry.KindUnwatched:
		return ansi.Yellow + "○ " + name + ansi.Reset + " unwatched"
	case telemetry.KindCoViewer:
		return "◇ " + name + " with " + joinAny(evt.Data)
	case telemetry.KindMedia:
		return "▣ " + name + " memories changed"
	case telemetry.KindCleared:
		return ansi.Yellow + ansi.Bold + "↺ progress cleared" + ansi.Reset
	case telemetry.KindMarkedAll:
		return fmt.Sprintf(ansi.Cyan+"◆ marked all"+ansi.Reset+" (%s watched)", humanize.Comma(int64(evt.Count)))
	case telemetry.KindPeerEntered:
		return ansi.Dim + "entered peer view" + ansi.Reset
	case telemetry.KindPeerExited:
		return ansi.Dim + "left peer view" + ansi.Reset
	}
	return evt.Kind + " " + name
}

// joinAny renders decoded journal data: a list of names, or anything else
// via %v.
func joinAny(v any) string {
	list, ok := v.([]any)
	if !ok {
		return fmt.Sprint(v)
	}
	parts := make([]string, 0, len(list))
	for _, x := range list {
		parts = append(parts, fmt.Sprint(x))
	}
	return strings.Join(parts, ", ")
}

func mediaIcon(k progress.MediaKind) string {
	if k == progress.MediaVideo {
		return "▶"
	}
	return "▣"
}

func titles(nodes []derive.NodeView) string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Title
	}
	return strings.Join(out, ", ")
}
