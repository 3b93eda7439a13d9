package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/unlockmap/internal/ui"
)

// renderCmd prints the map once, for scripts and non-interactive terminals.
var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Print the unlock map",
	Args:  cobra.NoArgs,
	RunE:  runRender,
}

func init() {
	renderCmd.Flags().Int("width", 100, "window width in columns")
	renderCmd.Flags().Int("height", 30, "window height in rows")
	renderCmd.Flags().Bool("full", false, "print the whole map instead of a window around the last watched title")
	renderCmd.Flags().Bool("no-color", false, "disable ANSI colors")
	renderCmd.Flags().String("center", "", "center the window on this title")
	renderCmd.Flags().String("peer", "", "render this viewer's progress")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close() //nolint:errcheck

	width, _ := cmd.Flags().GetInt("width")
	height, _ := cmd.Flags().GetInt("height")
	full, _ := cmd.Flags().GetBool("full")
	noColor, _ := cmd.Flags().GetBool("no-color")
	center, _ := cmd.Flags().GetString("center")
	peer, _ := cmd.Flags().GetString("peer")
	if width <= 0 || height <= 0 {
		return fmt.Errorf("width and height must be positive")
	}

	canvas := ui.NewCanvas(width, height)
	s, err := a.session(canvas, canvas, a.cfg.TerminalSpacing())
	if err != nil {
		return err
	}
	defer s.Close()
	res := s.Start()
	if peer != "" {
		if err := a.enterPeer(ctx, s, peer); err != nil {
			return err
		}
		res = s.Last()
	}
	if center != "" {
		if err := s.RequestCenter(center); err != nil {
			return err
		}
		res = s.Render()
	}
	if res.Empty {
		return fmt.Errorf("nothing to draw: start node %q is not in the catalog", a.cat.Start())
	}

	color := !noColor && os.Getenv("NO_COLOR") == ""
	fmt.Fprintln(cmd.OutOrStdout(), canvas.Render(ui.RenderOptions{Color: color, Selected: res.Centered, Full: full}))
	return nil
}
