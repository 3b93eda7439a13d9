package cmd

import (
	"github.com/spf13/cobra"

	"github.com/papapumpkin/unlockmap/internal/catalog"
	"github.com/papapumpkin/unlockmap/internal/derive"
	"github.com/papapumpkin/unlockmap/internal/ui"
)

var pathCmd = &cobra.Command{
	Use:   "path <id>",
	Short: "List what to watch, in order, to unlock a title",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close() //nolint:errcheck

		d := derive.New(a.cat, a.store)
		ids, err := d.PathTo(args[0])
		if err != nil {
			return err
		}
		target, _ := a.cat.Node(args[0])
		steps := make([]catalog.Node, 0, len(ids))
		for _, id := range ids {
			n, _ := a.cat.Node(id)
			steps = append(steps, n)
		}
		ui.New().Path(target, steps)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pathCmd)
}
