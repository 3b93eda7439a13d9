package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/unlockmap/internal/engine"
	"github.com/papapumpkin/unlockmap/internal/progress"
	"github.com/papapumpkin/unlockmap/internal/ui"
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Attach or remove photos and videos on watched titles",
}

var memoryAddCmd = &cobra.Command{
	Use:   "add <id> <url>",
	Short: "Attach a photo or video to a watched title",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, url := args[0], args[1]
		caption, _ := cmd.Flags().GetString("caption")
		video, _ := cmd.Flags().GetBool("video")
		kind := progress.MediaImage
		if video {
			kind = progress.MediaVideo
		}
		return mutate(cmd, func(s *engine.Session, p *ui.Printer) error {
			if err := s.AttachMedia(id, progress.Media{URL: url, Kind: kind, Caption: caption}); err != nil {
				return err
			}
			d, err := s.Detail(id)
			if err != nil {
				return err
			}
			p.Detail(d)
			return nil
		})
	},
}

var memoryRmCmd = &cobra.Command{
	Use:   "rm <id> <url>",
	Short: "Remove a memory by URL",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, url := args[0], args[1]
		return mutate(cmd, func(s *engine.Session, p *ui.Printer) error {
			before := len(s.Store().Media(id))
			if err := s.DetachMedia(id, url); err != nil {
				return err
			}
			removed := before - len(s.Store().Media(id))
			p.Info(fmt.Sprintf("removed %d memory item(s) from %s", removed, id))
			return nil
		})
	},
}

func init() {
	memoryAddCmd.Flags().String("caption", "", "caption for the memory")
	memoryAddCmd.Flags().Bool("video", false, "the URL is a video")
	memoryCmd.AddCommand(memoryAddCmd, memoryRmCmd)
	rootCmd.AddCommand(memoryCmd)
}
