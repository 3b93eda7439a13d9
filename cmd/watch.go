package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/unlockmap/internal/derive"
	"github.com/papapumpkin/unlockmap/internal/engine"
	"github.com/papapumpkin/unlockmap/internal/progress"
	"github.com/papapumpkin/unlockmap/internal/ui"
)

// mutate runs fn against a headless session over the viewer's progress,
// reports titles it unlocked, and waits for the save before returning.
func mutate(cmd *cobra.Command, fn func(s *engine.Session, p *ui.Printer) error) error {
	a, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	s, err := a.headless()
	if err != nil {
		_ = a.close()
		return err
	}
	defer s.Close()

	p := ui.New()
	before := unlockedSet(s)
	fnErr := fn(s, p)
	if fnErr == nil {
		p.Newly(newlyUnlocked(s, before))
	}
	if err := a.close(); err != nil {
		p.Error(fmt.Sprintf("saving progress: %v", err))
	}
	return fnErr
}

func unlockedSet(s *engine.Session) map[string]bool {
	out := make(map[string]bool)
	for _, v := range s.Last().Visible {
		if v.Unlocked {
			out[v.ID] = true
		}
	}
	return out
}

func newlyUnlocked(s *engine.Session, before map[string]bool) []derive.NodeView {
	var out []derive.NodeView
	for _, v := range s.Last().Visible {
		if v.Unlocked && !v.Watched && !before[v.ID] {
			out = append(out, v)
		}
	}
	return out
}

// printWatched prints the node's count after a viewing was recorded.
func printWatched(s *engine.Session, p *ui.Printer, id string) error {
	d, err := s.Detail(id)
	if err != nil {
		return err
	}
	p.Watched(d)
	return nil
}

var watchCmd = &cobra.Command{
	Use:   "watch <id>...",
	Short: "Mark titles as watched",
	Long: `Mark one or more titles as watched. Each title must be unlocked; titles are
applied in order, so a title unlocked by an earlier argument may follow it.
Titles already watched are left alone (see 'again').`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutate(cmd, func(s *engine.Session, p *ui.Printer) error {
			for _, id := range args {
				if s.Store().IsWatched(id) {
					p.Info(fmt.Sprintf("%s is already watched", id))
					continue
				}
				if err := s.Activate(id); err != nil {
					return err
				}
				if err := printWatched(s, p, id); err != nil {
					return err
				}
			}
			return nil
		})
	},
}

var againCmd = &cobra.Command{
	Use:   "again <id>",
	Short: "Record another viewing of a watched title",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		return mutate(cmd, func(s *engine.Session, p *ui.Printer) error {
			if !s.Store().IsWatched(id) {
				return fmt.Errorf("%s: %w", id, progress.ErrNotWatched)
			}
			if err := s.Activate(id); err != nil {
				return err
			}
			return printWatched(s, p, id)
		})
	},
}

var unwatchCmd = &cobra.Command{
	Use:   "unwatch <id>",
	Short: "Remove a title's progress entirely",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		return mutate(cmd, func(s *engine.Session, p *ui.Printer) error {
			n, ok := s.Catalog().Node(id)
			if !ok {
				return fmt.Errorf("%w: %s", engine.ErrNodeNotFound, id)
			}
			if !s.Store().IsWatched(id) {
				p.Info(fmt.Sprintf("%s is not watched", id))
				return nil
			}
			if err := s.Unwatch(id); err != nil {
				return err
			}
			p.Unwatched(n)
			return nil
		})
	},
}

var withCmd = &cobra.Command{
	Use:   "with <id> <name>",
	Short: "Record who you watched a title with",
	Long: `Add a friend to a title's viewing. An unwatched title is marked watched
first. Use --together to record a new viewing with that friend instead.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, name := args[0], args[1]
		together, _ := cmd.Flags().GetBool("together")
		return mutate(cmd, func(s *engine.Session, p *ui.Printer) error {
			var err error
			if together {
				err = s.WatchTogether(id, name)
			} else {
				err = s.WatchedWith(id, name)
			}
			if err != nil {
				return err
			}
			return printWatched(s, p, id)
		})
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all watch progress",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return errors.New("refusing to clear progress without --yes")
		}
		return mutate(cmd, func(s *engine.Session, p *ui.Printer) error {
			n := s.Store().Len()
			if err := s.ClearProgress(); err != nil {
				return err
			}
			p.Cleared(n)
			return nil
		})
	},
}

var markAllCmd = &cobra.Command{
	Use:   "mark-all",
	Short: "Mark every title in the catalog as watched",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return errors.New("refusing to mark everything watched without --yes")
		}
		return mutate(cmd, func(s *engine.Session, p *ui.Printer) error {
			before := s.Store().Len()
			if err := s.MarkAll(nil); err != nil {
				return err
			}
			p.Info(fmt.Sprintf("marked %d titles watched", s.Store().Len()-before))
			return nil
		})
	},
}

func init() {
	withCmd.Flags().Bool("together", false, "record a new viewing together")
	clearCmd.Flags().Bool("yes", false, "confirm clearing all progress")
	markAllCmd.Flags().Bool("yes", false, "confirm marking every title watched")
	rootCmd.AddCommand(watchCmd, againCmd, unwatchCmd, withCmd, clearCmd, markAllCmd)
}
