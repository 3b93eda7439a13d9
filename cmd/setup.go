package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/papapumpkin/unlockmap/internal/catalog"
	"github.com/papapumpkin/unlockmap/internal/config"
	"github.com/papapumpkin/unlockmap/internal/edges"
	"github.com/papapumpkin/unlockmap/internal/engine"
	"github.com/papapumpkin/unlockmap/internal/identity"
	"github.com/papapumpkin/unlockmap/internal/layout"
	"github.com/papapumpkin/unlockmap/internal/logging"
	"github.com/papapumpkin/unlockmap/internal/persist"
	"github.com/papapumpkin/unlockmap/internal/progress"
	"github.com/papapumpkin/unlockmap/internal/scene"
	"github.com/papapumpkin/unlockmap/internal/telemetry"
)

// flushTimeout bounds the final save when a command exits.
const flushTimeout = 15 * time.Second

// app is everything a command needs to drive a session: configuration,
// the catalog, the viewer, and their progress loaded from the selected
// backend.
type app struct {
	cfg   config.Config
	log   zerolog.Logger
	cat   *catalog.Catalog
	id    identity.Static
	sel   persist.Selection
	store *progress.Store

	journal *telemetry.Emitter
	detach  []func()
}

// setup loads configuration, the catalog, and the viewer's progress. A load
// failure is logged and leaves the viewer with empty progress, matching how
// the map behaves when the progress service is down.
func setup(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	cat, err := catalog.LoadFile(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	if r := catalog.Validate(cat); r.HasErrors() {
		return nil, fmt.Errorf("catalog has %d error(s); run 'unlockmap validate' for details", len(r.Errors()))
	}

	id := identity.Static{Name: cfg.Auth.Username, Token: cfg.Auth.Token}
	sel, err := persist.Select(ctx, id, persist.Options{
		CachePath: cfg.CachePath,
		DBPath:    cfg.DBPath,
		Remote: persist.RemoteConfig{
			URL:              cfg.Remote.URL,
			Timeout:          cfg.Remote.Timeout,
			FailureThreshold: cfg.Remote.FailureThreshold,
		},
	}, log)
	if err != nil {
		return nil, err
	}

	store := progress.NewStore(sel.Backend, log)
	if err := store.Load(ctx); err != nil {
		log.Error().Err(err).Str("backend", sel.Kind).Msg("loading progress failed; starting empty")
	}
	log.Debug().
		Str("user", id.Username()).
		Str("backend", sel.Kind).
		Int("entries", store.Len()).
		Msg("progress loaded")

	return &app{cfg: cfg, log: log, cat: cat, id: id, sel: sel, store: store, journal: openJournal(cfg, log)}, nil
}

// openJournal opens the activity journal. The journal is best effort: a
// failure is logged and leaves a nil emitter, which drops every event.
func openJournal(cfg config.Config, log zerolog.Logger) *telemetry.Emitter {
	if !cfg.JournalEnabled() {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.ActivityLog), 0o755); err != nil {
		log.Warn().Err(err).Msg("activity journal disabled")
		return nil
	}
	em, err := telemetry.NewEmitter(cfg.ActivityLog)
	if err != nil {
		log.Warn().Err(err).Msg("activity journal disabled")
		return nil
	}
	return em
}

// session wires a session over display. Zero spacing selects the configured
// pixel profile.
func (a *app) session(display engine.Display, surface edges.Surface, spacing layout.Spacing) (*engine.Session, error) {
	if !spacing.Valid() {
		spacing = a.cfg.Spacing()
	}
	s, err := engine.New(engine.Options{
		Catalog:  a.cat,
		Store:    a.store,
		Display:  display,
		Surface:  surface,
		Spacing:  spacing,
		Identity: a.id,
		Log:      a.log,
	})
	if err != nil {
		return nil, err
	}
	if a.journal != nil {
		meta := telemetry.Meta{Session: s.ID, User: a.id.Username()}
		a.detach = append(a.detach, telemetry.Attach(a.store, a.journal, meta, a.log))
	}
	return s, nil
}

// headless starts a session that renders off screen, for one-shot commands.
func (a *app) headless() (*engine.Session, error) {
	s, err := a.session(scene.NewHeadless(1280, 800), &edges.Recorder{}, layout.Spacing{})
	if err != nil {
		return nil, err
	}
	s.Start()
	return s, nil
}

// enterPeer loads name's progress and switches s into a read-only peer view.
func (a *app) enterPeer(ctx context.Context, s *engine.Session, name string) error {
	if a.sel.Peers == nil {
		return errors.New("peer views need a signed-in viewer (set auth.username and auth.token)")
	}
	entries, err := a.sel.Peers.PeerProgress(ctx, name)
	if err != nil {
		return fmt.Errorf("loading %s's progress: %w", name, err)
	}
	return s.ViewPeer(name, entries)
}

// close waits for pending saves and releases the backend and the journal.
func (a *app) close() error {
	for _, fn := range a.detach {
		fn()
	}
	a.detach = nil
	journalErr := a.journal.Close()

	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	flushErr := a.store.Flush(ctx)
	closeErr := a.sel.Close()
	return errors.Join(flushErr, closeErr, journalErr)
}
