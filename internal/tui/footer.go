package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// Footer renders context-sensitive keybinding hints.
type Footer struct {
	Width    int
	Bindings []key.Binding
}

// View renders the footer as a single line of keybinding hints.
// In compact mode (narrow terminals), shows only key hints without descriptions.
func (f Footer) View() string {
	compact := f.Width < CompactWidth

	var parts []string
	for _, b := range f.Bindings {
		if !b.Enabled() {
			continue
		}
		help := b.Help()
		if compact {
			parts = append(parts, styleFooterKey.Render(help.Key))
			continue
		}
		parts = append(parts, styleFooterKey.Render(help.Key)+styleFooterSep.Render(":")+styleFooterDesc.Render(help.Desc))
	}
	sep := styleFooterSep.Render("  ")
	if compact {
		sep = styleFooterSep.Render(" ")
	}
	return styleFooter.Width(f.Width).Render(strings.Join(parts, sep))
}

// MapFooterBindings returns footer bindings while browsing the map.
func MapFooterBindings(km KeyMap) []key.Binding {
	return []key.Binding{km.Up, km.Down, km.Left, km.Right, km.Enter, km.Center, km.Clear, km.Quit}
}

// DetailFooterBindings returns footer bindings while a node is open.
func DetailFooterBindings(km KeyMap) []key.Binding {
	return []key.Binding{km.Enter, km.Together, km.With, km.Memory, km.Unwatch, km.Back, km.Quit}
}

// PeerFooterBindings returns footer bindings in a read-only peer view.
func PeerFooterBindings(km KeyMap) []key.Binding {
	back := km.Back
	back.SetHelp("esc", "leave")
	return []key.Binding{km.Up, km.Down, km.Left, km.Right, km.Enter, km.Center, back, km.Quit}
}
