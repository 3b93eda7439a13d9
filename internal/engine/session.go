// Package engine runs the render pipeline for one viewing session. A Session
// owns its collaborators explicitly, so independent sessions (two viewers in
// one test, say) never share state.
//
// Every progress change runs one full pass synchronously:
//
//	derive -> layout -> reconcile -> edges -> center
//
// Passes are neither queued nor coalesced. Mutating the session from inside
// a pass is rejected with ErrReentrantMutation.
package engine

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/papapumpkin/unlockmap/internal/catalog"
	"github.com/papapumpkin/unlockmap/internal/derive"
	"github.com/papapumpkin/unlockmap/internal/edges"
	"github.com/papapumpkin/unlockmap/internal/identity"
	"github.com/papapumpkin/unlockmap/internal/layout"
	"github.com/papapumpkin/unlockmap/internal/progress"
	"github.com/papapumpkin/unlockmap/internal/scene"
	"github.com/papapumpkin/unlockmap/internal/viewport"
)

// Sentinel errors returned by Session operations.
var (
	ErrReentrantMutation = errors.New("engine: mutation during render pass")
	ErrNotInteractive    = errors.New("engine: node is not interactive")
	ErrNodeNotFound      = errors.New("engine: node not found")
	ErrReadOnly          = progress.ErrReadOnly
	ErrPeerViewActive    = progress.ErrPeerViewActive
)

// Display is a rendering backend: a retained scene that can report element
// rectangles and scroll.
type Display interface {
	scene.Backend
	scene.RectProvider
	viewport.Scroller
}

// Options configures a Session. Catalog, Store, Display and Surface are
// required.
type Options struct {
	Catalog  *catalog.Catalog
	Store    *progress.Store
	Display  Display
	Surface  edges.Surface
	Spacing  layout.Spacing
	Identity identity.Provider
	Log      zerolog.Logger
}

// PassResult summarizes one render pass.
type PassResult struct {
	Seq          int
	Empty        bool // nothing visible; the scene was left untouched
	Visible      []derive.NodeView
	Bounds       layout.Bounds
	Diff         scene.Diff
	Connectors   []edges.Connector
	Centered     string // target id, empty when centering was skipped
	HighestPhase int
	ReadOnly     bool
}

// Session is the context object tying the pipeline together.
type Session struct {
	ID string

	cat      *catalog.Catalog
	store    *progress.Store
	deriver  *derive.Deriver
	recon    *scene.Reconciler
	edges    *edges.Renderer
	view     *viewport.Controller
	display  Display
	spacing  layout.Spacing
	identity identity.Provider
	log      zerolog.Logger

	rendering   bool
	unsubscribe func()
	seq         int
	last        PassResult
	onPass      []func(PassResult)
}

// New wires a Session. It does not render until Start.
func New(opts Options) (*Session, error) {
	switch {
	case opts.Catalog == nil:
		return nil, fmt.Errorf("engine: new session: nil catalog")
	case opts.Store == nil:
		return nil, fmt.Errorf("engine: new session: nil store")
	case opts.Display == nil:
		return nil, fmt.Errorf("engine: new session: nil display")
	case opts.Surface == nil:
		return nil, fmt.Errorf("engine: new session: nil edge surface")
	}
	spacing := opts.Spacing
	if !spacing.Valid() {
		spacing = layout.DefaultSpacing()
	}
	id := opts.Identity
	if id == nil {
		id = identity.Static{}
	}
	sid := uuid.NewString()
	return &Session{
		ID:       sid,
		cat:      opts.Catalog,
		store:    opts.Store,
		deriver:  derive.New(opts.Catalog, opts.Store),
		recon:    scene.NewReconciler(opts.Display),
		edges:    edges.NewRenderer(opts.Catalog, opts.Display, opts.Surface),
		view:     viewport.New(opts.Catalog.Start()),
		display:  opts.Display,
		spacing:  spacing,
		identity: id,
		log:      opts.Log.With().Str("session", sid).Logger(),
	}, nil
}

// Start subscribes to the store and runs the first pass.
func (s *Session) Start() PassResult {
	if s.unsubscribe == nil {
		s.unsubscribe = s.store.Subscribe(func(c progress.Change) {
			s.log.Debug().Stringer("change", c.Kind).Str("node", c.NodeID).Msg("re-rendering")
			s.Render()
		})
	}
	return s.Render()
}

// Close stops listening to the store.
func (s *Session) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

// OnPass registers fn to run after every pass.
func (s *Session) OnPass(fn func(PassResult)) {
	s.onPass = append(s.onPass, fn)
}

// Last returns the most recent pass result.
func (s *Session) Last() PassResult { return s.last }

// Catalog returns the session's catalog.
func (s *Session) Catalog() *catalog.Catalog { return s.cat }

// Store returns the session's progress store.
func (s *Session) Store() *progress.Store { return s.store }

// Deriver returns the derivation view over the session's progress.
func (s *Session) Deriver() *derive.Deriver { return s.deriver }

// Spacing returns the active pixel spacing.
func (s *Session) Spacing() layout.Spacing { return s.spacing }

// Render runs one full pass and returns its summary.
func (s *Session) Render() PassResult {
	s.rendering = true
	defer func() { s.rendering = false }()

	s.seq++
	res := PassResult{Seq: s.seq, ReadOnly: s.store.ReadOnly()}

	res.Visible = s.deriver.Visible()
	pts := make([]layout.Point, 0, len(res.Visible))
	for _, v := range res.Visible {
		pts = append(pts, layout.Point{X: v.GridX, Y: v.GridY})
	}
	bounds, ok := layout.ComputeBounds(pts)
	if !ok {
		s.log.Warn().Str("start", s.cat.Start()).Msg("no visible nodes; skipping render")
		res.Empty = true
		res.HighestPhase = s.deriver.HighestUnlockedPhase()
		s.finish(res)
		return res
	}
	res.Bounds = bounds

	tr := layout.Transform{Bounds: bounds, Spacing: s.spacing}
	res.Diff = s.recon.Reconcile(res.Visible, tr, res.ReadOnly)
	res.Connectors = s.edges.Render(res.Visible)
	res.HighestPhase = s.deriver.HighestUnlockedPhase()

	if target, ok := s.view.Center(s.display, s.display, s.store); ok {
		res.Centered = target
	} else {
		s.log.Debug().Str("target", target).Msg("center target not on screen")
	}

	s.log.Debug().
		Int("seq", res.Seq).
		Int("visible", len(res.Visible)).
		Int("created", len(res.Diff.Created)).
		Int("removed", len(res.Diff.Removed)).
		Int("edges", len(res.Connectors)).
		Msg("render pass")
	s.finish(res)
	return res
}

func (s *Session) finish(res PassResult) {
	s.last = res
	for _, fn := range s.onPass {
		fn(res)
	}
}

func (s *Session) guard() error {
	if s.rendering {
		return ErrReentrantMutation
	}
	return nil
}

// RequestCenter makes id the center target of the next pass.
func (s *Session) RequestCenter(id string) error {
	if err := s.guard(); err != nil {
		return err
	}
	s.view.RequestCenter(id)
	return nil
}

// Activate performs a node's primary action: mark an unlocked node watched,
// or count another viewing of a watched one. The node becomes the center
// target of the resulting pass.
func (s *Session) Activate(id string) error {
	if err := s.interactive(id); err != nil {
		return err
	}
	s.view.RequestCenter(id)
	var err error
	if s.store.IsWatched(id) {
		err = s.store.WatchAgain(id)
	} else {
		_, err = s.store.Toggle(id)
	}
	if err != nil {
		s.view.RequestCenter("")
		return fmt.Errorf("engine: activate %s: %w", id, err)
	}
	return nil
}

// Unwatch removes a watched node's entry entirely. Unwatched nodes are left
// alone.
func (s *Session) Unwatch(id string) error {
	if err := s.guard(); err != nil {
		return err
	}
	if !s.store.IsWatched(id) {
		return nil
	}
	if _, err := s.store.Toggle(id); err != nil {
		return fmt.Errorf("engine: unwatch %s: %w", id, err)
	}
	return nil
}

// WatchedWith records that id was watched together with name, marking it
// watched if it is not yet.
func (s *Session) WatchedWith(id, name string) error {
	if err := s.interactive(id); err != nil {
		return err
	}
	s.view.RequestCenter(id)
	if err := s.store.AddCoViewer(id, name); err != nil {
		s.view.RequestCenter("")
		return fmt.Errorf("engine: watched with: %w", err)
	}
	return nil
}

// WatchTogether records a joint viewing: a new viewing of a watched node or
// the first one of an unlocked node, with name as co-viewer.
func (s *Session) WatchTogether(id, name string) error {
	if err := s.interactive(id); err != nil {
		return err
	}
	s.view.RequestCenter(id)
	if err := s.store.WatchTogether(id, name); err != nil {
		s.view.RequestCenter("")
		return fmt.Errorf("engine: watch together: %w", err)
	}
	return nil
}

// AttachMedia adds a memory to a watched node.
func (s *Session) AttachMedia(id string, m progress.Media) error {
	if err := s.guard(); err != nil {
		return err
	}
	if err := s.store.AttachMedia(id, m); err != nil {
		return fmt.Errorf("engine: attach media: %w", err)
	}
	return nil
}

// DetachMedia removes a memory by URL.
func (s *Session) DetachMedia(id, url string) error {
	if err := s.guard(); err != nil {
		return err
	}
	if err := s.store.DetachMedia(id, url); err != nil {
		return fmt.Errorf("engine: detach media: %w", err)
	}
	return nil
}

// MarkAll marks every listed node watched in one change, ignoring locks.
// A nil ids marks the whole catalog.
func (s *Session) MarkAll(ids []string) error {
	if err := s.guard(); err != nil {
		return err
	}
	if ids == nil {
		for _, n := range s.cat.Nodes() {
			ids = append(ids, n.ID)
		}
	}
	if err := s.store.MarkAll(ids); err != nil {
		return fmt.Errorf("engine: mark all: %w", err)
	}
	return nil
}

// ClearProgress removes every entry and centers on the start node.
func (s *Session) ClearProgress() error {
	if err := s.guard(); err != nil {
		return err
	}
	s.view.RequestCenter(s.cat.Start())
	if err := s.store.Clear(); err != nil {
		s.view.RequestCenter("")
		return fmt.Errorf("engine: clear: %w", err)
	}
	return nil
}

// ViewPeer shows another viewer's progress read-only until ExitPeer.
func (s *Session) ViewPeer(name string, entries []progress.Entry) error {
	if err := s.guard(); err != nil {
		return err
	}
	if err := s.store.EnterPeerView(name, entries); err != nil {
		return fmt.Errorf("engine: view peer %s: %w", name, err)
	}
	return nil
}

// ExitPeer restores the viewer's own progress.
func (s *Session) ExitPeer() error {
	if err := s.guard(); err != nil {
		return err
	}
	s.store.ExitPeerView()
	return nil
}

// interactive checks that id may receive a mutating action. Watched nodes
// always may, so a locked but watched node can still be watched again.
func (s *Session) interactive(id string) error {
	if err := s.guard(); err != nil {
		return err
	}
	if s.store.ReadOnly() {
		return ErrReadOnly
	}
	if !s.cat.Has(id) {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	if !s.store.IsWatched(id) && !s.deriver.IsUnlocked(id) {
		return fmt.Errorf("%w: %s is locked", ErrNotInteractive, id)
	}
	return nil
}
