package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"

	"github.com/papapumpkin/unlockmap/internal/engine"
	"github.com/papapumpkin/unlockmap/internal/progress"
)

// DetailPanel renders an opened node below the map.
type DetailPanel struct {
	Width int
}

// View renders d as a bordered panel.
func (p DetailPanel) View(d engine.Detail) string {
	var lines []string
	lines = append(lines, styleDetailTitle.Render(d.Node.Title)+"  "+
		styleDetailMeta.Render(fmt.Sprintf("%s · %s", d.Node.PhaseLabel, d.Node.Release)))
	if d.Watched {
		lines = append(lines, styleDetailCount.Render(d.CountLabel))
	}
	if len(d.CoViewers) > 0 {
		lines = append(lines, styleDetailMeta.Render("with ")+strings.Join(d.CoViewers, ", "))
	}
	if n := len(d.Media); n > 0 {
		latest := d.Media[n-1]
		icon := "▣"
		if latest.Kind == progress.MediaVideo {
			icon = "▶"
		}
		meta := english.Plural(n, "memory", "memories")
		if !latest.UploadedAt.IsZero() {
			meta += ", latest " + humanize.Time(latest.UploadedAt)
		}
		lines = append(lines, styleDetailMeta.Render(meta)+" "+icon+" "+latest.URL)
	}
	if len(d.Actions) > 0 {
		acts := make([]string, len(d.Actions))
		for i, a := range d.Actions {
			acts[i] = styleDetailAction.Render(string(a))
		}
		lines = append(lines, strings.Join(acts, styleDetailMeta.Render(" · ")))
	}

	body := lipgloss.JoinVertical(lipgloss.Left, lines...)
	w := p.Width - 2
	if w < 20 {
		return styleDetail.Render(body)
	}
	return styleDetail.Width(w).Render(body)
}

// Height returns the rows View will take for d.
func (p DetailPanel) Height(d engine.Detail) int {
	return lipgloss.Height(p.View(d))
}
