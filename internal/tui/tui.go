// Package tui is the interactive terminal front end: a BubbleTea program
// that browses the unlock map, opens nodes, and records viewings through an
// engine.Session.
package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Program is an alias for tea.Program, exposed so callers don't need
// to import bubbletea directly.
type Program = tea.Program

// NewProgram creates a BubbleTea program for the model.
// The program uses the alternate screen buffer for a clean TUI experience.
func NewProgram(m AppModel, opts ...tea.ProgramOption) *Program {
	allOpts := []tea.ProgramOption{
		tea.WithAltScreen(),
	}
	allOpts = append(allOpts, opts...)
	return tea.NewProgram(m, allOpts...)
}

// Run creates and runs a TUI program, blocking until it exits.
func Run(m AppModel, opts ...tea.ProgramOption) error {
	if _, err := NewProgram(m, opts...).Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
