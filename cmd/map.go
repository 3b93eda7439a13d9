package cmd

import (
	"github.com/spf13/cobra"

	"github.com/papapumpkin/unlockmap/internal/tui"
	"github.com/papapumpkin/unlockmap/internal/ui"
)

// mapCmd opens the interactive map. It is also the root command's default.
var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Browse the unlock map interactively",
	Long: `Open the interactive map. Arrow keys move between titles, enter opens a
title and marks it watched, esc closes it. With --peer the map shows a
friend's progress read-only.`,
	Args: cobra.NoArgs,
	RunE: runMap,
}

func init() {
	mapCmd.Flags().String("peer", "", "show this viewer's progress read-only")
	rootCmd.Flags().AddFlagSet(mapCmd.Flags())
	rootCmd.AddCommand(mapCmd)
}

func runMap(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.close(); cerr != nil {
			a.log.Warn().Err(cerr).Msg("final save incomplete")
		}
	}()

	canvas := ui.NewCanvas(80, 24)
	s, err := a.session(canvas, canvas, a.cfg.TerminalSpacing())
	if err != nil {
		return err
	}
	defer s.Close()
	s.Start()

	if peer, _ := cmd.Flags().GetString("peer"); peer != "" {
		if err := a.enterPeer(ctx, s, peer); err != nil {
			return err
		}
	}

	return tui.Run(tui.NewAppModel(s, canvas, a.id))
}
