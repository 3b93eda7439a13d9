package cmd

import (
	"errors"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/papapumpkin/unlockmap/internal/catalog"
	"github.com/papapumpkin/unlockmap/internal/config"
	"github.com/papapumpkin/unlockmap/internal/telemetry"
	"github.com/papapumpkin/unlockmap/internal/ui"
)

var errJournalOff = errors.New("activity journal is disabled (activity_log = off)")

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent activity from the journal",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "show at most this many events (0 for all)")
	historyCmd.Flags().Bool("json", false, "write events as JSON lines to stdout")
	historyCmd.Flags().Bool("no-color", false, "disable ANSI colors")
	rootCmd.AddCommand(historyCmd)
}

// runHistory reads the journal directly. It does not open a progress
// backend, so it works offline and never appends a session of its own.
func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if !cfg.JournalEnabled() {
		return errJournalOff
	}
	events, err := telemetry.Read(cfg.ActivityLog)
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	events = tail(events, limit)

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return writeEventsJSON(cmd.OutOrStdout(), events)
	}

	title := func(id string) string { return id }
	if cat, err := catalog.LoadFile(cfg.CatalogPath); err == nil {
		title = func(id string) string {
			if n, ok := cat.Node(id); ok {
				return n.Title
			}
			return id
		}
	}
	p := ui.NewTo(cmd.OutOrStdout())
	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor || os.Getenv("NO_COLOR") != "" {
		p = ui.NewPlain(cmd.OutOrStdout())
	}
	p.History(events, title)
	return nil
}

// tail returns the last n events, or all of them when n <= 0.
func tail(events []telemetry.Event, n int) []telemetry.Event {
	if n <= 0 || len(events) <= n {
		return events
	}
	return events[len(events)-n:]
}

func writeEventsJSON(w io.Writer, events []telemetry.Event) error {
	enc := json.NewEncoder(w)
	for _, evt := range events {
		if err := enc.Encode(evt); err != nil {
			return err
		}
	}
	return nil
}
