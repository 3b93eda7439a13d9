package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/unlockmap/internal/catalog"
	"github.com/papapumpkin/unlockmap/internal/config"
	"github.com/papapumpkin/unlockmap/internal/ui"
)

var errCatalogInvalid = errors.New("catalog has errors")

var validateCmd = &cobra.Command{
	Use:   "validate [catalog.toml]",
	Short: "Check a catalog for errors and suspicious data",
	Long: `Validate a catalog: duplicate ids, self prerequisites and prerequisite
cycles are errors; unknown references and overlapping grid positions are
warnings. Without an argument the configured catalog is checked, or the
built-in one. With --watch the file is re-checked on every save.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolP("watch", "w", false, "re-validate whenever the file changes")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	path := cfg.CatalogPath
	if len(args) == 1 {
		path = args[0]
	}
	p := ui.New()

	watch, _ := cmd.Flags().GetBool("watch")
	if !watch {
		return validateOnce(p, path)
	}
	if path == "" {
		return errors.New("--watch needs a catalog file")
	}

	w, err := catalog.NewWatcher(path)
	if err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}
	if err := w.Start(); err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}
	defer w.Stop()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	return watchLoop(ctx, p, path, w.Changes)
}

// watchLoop validates path now and again on every change until ctx ends.
// Errors are reported but do not stop the loop.
func watchLoop(ctx context.Context, p *ui.Printer, path string, changes <-chan struct{}) error {
	for {
		if err := validateOnce(p, path); err != nil && !errors.Is(err, errCatalogInvalid) {
			p.Error(err.Error())
		}
		p.Info("watching for changes, ctrl+c to stop")
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
		}
	}
}

func validateOnce(p *ui.Printer, path string) error {
	cat, err := catalog.LoadFile(path)
	if err != nil {
		return err
	}
	name := "built-in"
	if path != "" {
		name = filepath.Base(path)
	}
	r := catalog.Validate(cat)
	p.ValidateResult(name, cat.Len(), r)
	if r.HasErrors() {
		return errCatalogInvalid
	}
	return nil
}
