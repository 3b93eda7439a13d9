package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// StatusBar renders the persistent top bar: viewer, open phase, and watch
// progress. In a peer view the viewer segment names the peer instead.
type StatusBar struct {
	User         string
	HighestPhase int
	Watched      int
	Total        int
	Visible      int
	ReadOnly     bool
	Peer         string
	Width        int
}

// View renders the status bar as a single line. Narrow terminals drop the
// label words and the visible count.
func (s StatusBar) View() string {
	compact := s.Width < CompactWidth

	var segs []string
	if s.ReadOnly {
		segs = append(segs, styleStatusPeer.Render("◉ "+s.Peer+" (read-only)"))
	} else {
		segs = append(segs, styleStatusLabel.Render("unlockmap")+" "+styleStatusValue.Render(s.User))
	}
	if compact {
		segs = append(segs,
			styleStatusValue.Render(fmt.Sprintf("P%d", s.HighestPhase)),
			styleStatusValue.Render(fmt.Sprintf("%d/%d", s.Watched, s.Total)))
	} else {
		segs = append(segs,
			styleStatusLabel.Render("phase ")+styleStatusValue.Render(fmt.Sprintf("%d", s.HighestPhase)),
			styleStatusLabel.Render("watched ")+styleStatusValue.Render(fmt.Sprintf("%d/%d", s.Watched, s.Total)),
			styleStatusLabel.Render("on map ")+styleStatusValue.Render(fmt.Sprintf("%d", s.Visible)))
	}

	line := strings.Join(segs, "  ")
	if s.Width > 2 && lipgloss.Width(line) > s.Width-2 {
		line = segs[0]
	}
	return styleStatusBar.Width(max(s.Width, 0)).Render(line)
}
