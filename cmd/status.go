package cmd

import (
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/papapumpkin/unlockmap/internal/engine"
	"github.com/papapumpkin/unlockmap/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show watch progress and what is up next",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().Bool("json", false, "write status as JSON to stdout")
	statusCmd.Flags().String("peer", "", "show this viewer's progress")
	rootCmd.AddCommand(statusCmd)
}

// statusJSON is the machine-readable status document.
type statusJSON struct {
	User         string      `json:"user"`
	Peer         string      `json:"peer,omitempty"`
	Backend      string      `json:"backend"`
	Total        int         `json:"total"`
	Watched      int         `json:"watched"`
	Visible      int         `json:"visible"`
	HighestPhase int         `json:"highestPhase"`
	LastWatched  string      `json:"lastWatched,omitempty"`
	UpNext       []string    `json:"upNext"`
	Entries      []entryJSON `json:"entries"`
}

type entryJSON struct {
	ID        string   `json:"id"`
	Count     int      `json:"count"`
	CoViewers []string `json:"coViewers,omitempty"`
	Media     int      `json:"media,omitempty"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close() //nolint:errcheck

	s, err := a.headless()
	if err != nil {
		return err
	}
	defer s.Close()
	if peer, _ := cmd.Flags().GetString("peer"); peer != "" {
		if err := a.enterPeer(ctx, s, peer); err != nil {
			return err
		}
	}

	data := a.statusData(s)
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return writeStatusJSON(cmd.OutOrStdout(), s, data)
	}
	ui.New().Status(data)
	return nil
}

func (a *app) statusData(s *engine.Session) ui.StatusData {
	store := s.Store()
	last := s.Last()
	lastWatched, _ := store.LastWatched()
	return ui.StatusData{
		User:         a.id.Username(),
		Backend:      a.sel.Kind,
		Total:        s.Catalog().Len(),
		Watched:      store.Len(),
		Visible:      len(last.Visible),
		HighestPhase: last.HighestPhase,
		Last:         lastWatched,
		Frontier:     s.Deriver().Frontier(),
		ReadOnly:     store.ReadOnly(),
		PeerOwner:    store.PeerOwner(),
	}
}

// writeStatusJSON encodes the status document to w.
func writeStatusJSON(w io.Writer, s *engine.Session, d ui.StatusData) error {
	doc := statusJSON{
		User:         d.User,
		Peer:         d.PeerOwner,
		Backend:      d.Backend,
		Total:        d.Total,
		Watched:      d.Watched,
		Visible:      d.Visible,
		HighestPhase: d.HighestPhase,
		LastWatched:  d.Last,
		UpNext:       make([]string, 0, len(d.Frontier)),
	}
	for _, n := range d.Frontier {
		doc.UpNext = append(doc.UpNext, n.ID)
	}
	for _, e := range s.Store().Entries() {
		doc.Entries = append(doc.Entries, entryJSON{
			ID:        e.NodeID,
			Count:     e.WatchCount,
			CoViewers: e.CoViewers,
			Media:     len(e.Media),
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
