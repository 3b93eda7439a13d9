package progress

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Sentinel errors returned by Store mutators.
var (
	ErrReadOnly       = errors.New("progress: read-only peer view")
	ErrPeerViewActive = errors.New("progress: peer view already active")
	ErrNotWatched     = errors.New("progress: node is not watched")
	ErrEmptyNodeID    = errors.New("progress: empty node id")
)

// DefaultSaveTimeout bounds a single background save.
const DefaultSaveTimeout = 10 * time.Second

type listener struct {
	fn     func(Change)
	active bool
}

type peerHold struct {
	owner   string
	entries map[string]*Entry
	order   []string
}

// Store owns the progress entries. It is not safe for concurrent use: every
// call must come from the goroutine that drives rendering. Saves run in the
// background and only ever see copies.
type Store struct {
	entries map[string]*Entry
	order   []string // insertion order of entries

	listeners []*listener
	readOnly  bool
	held      *peerHold

	backend Persistence
	saver   *saver
	log     zerolog.Logger
}

// NewStore creates an empty store. backend may be nil for an in-memory
// store that never persists.
func NewStore(backend Persistence, log zerolog.Logger) *Store {
	s := &Store{
		entries: make(map[string]*Entry),
		backend: backend,
		log:     log,
	}
	if backend != nil {
		s.saver = &saver{backend: backend, timeout: DefaultSaveTimeout, log: log}
	}
	return s
}

// Load replaces the current entries with the backend's. Records with an
// empty id are dropped, counts below one are raised to one, and a repeated
// id keeps its last record. Subscribers receive ChangeLoaded.
func (s *Store) Load(ctx context.Context) error {
	if s.backend == nil {
		return nil
	}
	if s.readOnly {
		return ErrReadOnly
	}
	records, err := s.backend.Load(ctx)
	if err != nil {
		return fmt.Errorf("progress: load: %w", err)
	}
	entries := make(map[string]*Entry, len(records))
	order := make([]string, 0, len(records))
	for _, r := range records {
		id := strings.TrimSpace(r.NodeID)
		if id == "" {
			continue
		}
		e := r.clone()
		e.NodeID = id
		if e.WatchCount < 1 {
			e.WatchCount = 1
		}
		if _, dup := entries[id]; !dup {
			order = append(order, id)
		}
		entries[id] = &e
	}
	s.entries = entries
	s.order = order
	s.log.Debug().Int("entries", len(order)).Msg("progress loaded")
	s.notify(Change{Kind: ChangeLoaded})
	return nil
}

// IsWatched reports whether id has an entry.
func (s *Store) IsWatched(id string) bool {
	_, ok := s.entries[id]
	return ok
}

// Count returns the watch count for id, or 0 when unwatched.
func (s *Store) Count(id string) int {
	if e, ok := s.entries[id]; ok {
		return e.WatchCount
	}
	return 0
}

// CoViewers returns a copy of the co-viewer names recorded for id.
func (s *Store) CoViewers(id string) []string {
	if e, ok := s.entries[id]; ok && len(e.CoViewers) > 0 {
		return append([]string(nil), e.CoViewers...)
	}
	return nil
}

// Media returns a copy of the media attached to id.
func (s *Store) Media(id string) []Media {
	if e, ok := s.entries[id]; ok && len(e.Media) > 0 {
		return append([]Media(nil), e.Media...)
	}
	return nil
}

// Entry returns a copy of the entry for id.
func (s *Store) Entry(id string) (Entry, bool) {
	e, ok := s.entries[id]
	if !ok {
		return Entry{}, false
	}
	return e.clone(), true
}

// Entries returns copies of all entries in insertion order.
func (s *Store) Entries() []Entry {
	out := make([]Entry, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.entries[id].clone())
	}
	return out
}

// Len returns the number of watched nodes.
func (s *Store) Len() int { return len(s.order) }

// LastWatched returns the most recently inserted entry's id.
func (s *Store) LastWatched() (string, bool) {
	if len(s.order) == 0 {
		return "", false
	}
	return s.order[len(s.order)-1], true
}

// ReadOnly reports whether a peer view is active.
func (s *Store) ReadOnly() bool { return s.readOnly }

// PeerOwner returns the name passed to EnterPeerView, or "" when no peer
// view is active.
func (s *Store) PeerOwner() string {
	if s.held == nil {
		return ""
	}
	return s.held.owner
}

// Toggle flips id between watched and unwatched. Watching creates an entry
// with count 1; unwatching deletes the entry with its co-viewers and media.
// It returns the new watched state.
func (s *Store) Toggle(id string) (bool, error) {
	if err := s.writable(id); err != nil {
		return false, err
	}
	watched := true
	if _, ok := s.entries[id]; ok {
		s.remove(id)
		watched = false
	} else {
		s.insert(&Entry{NodeID: id, WatchCount: 1})
	}
	s.commit(Change{Kind: ChangeToggled, NodeID: id})
	return watched, nil
}

// WatchAgain increments the count of an existing entry. It is a no-op for
// an unwatched node and does not notify.
func (s *Store) WatchAgain(id string) error {
	if err := s.writable(id); err != nil {
		return err
	}
	e, ok := s.entries[id]
	if !ok {
		return nil
	}
	e.WatchCount++
	s.commit(Change{Kind: ChangeWatchedAgain, NodeID: id})
	return nil
}

// Clear removes every entry.
func (s *Store) Clear() error {
	if s.readOnly {
		return ErrReadOnly
	}
	s.entries = make(map[string]*Entry)
	s.order = nil
	s.commit(Change{Kind: ChangeCleared})
	return nil
}

// AddCoViewer records that id was watched with name. An unwatched node is
// marked watched first. Names are trimmed and kept unique in insertion
// order; a blank or repeated name on a watched node changes nothing.
func (s *Store) AddCoViewer(id, name string) error {
	if err := s.writable(id); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	e, ok := s.entries[id]
	if ok && (name == "" || containsString(e.CoViewers, name)) {
		return nil
	}
	if !ok {
		e = &Entry{NodeID: id, WatchCount: 1}
		s.insert(e)
	}
	if name != "" {
		e.CoViewers = append(e.CoViewers, name)
	}
	s.commit(Change{Kind: ChangeCoViewer, NodeID: id})
	return nil
}

// WatchTogether records a viewing with name: an unwatched node becomes
// watched, a watched one is counted again, and name joins the co-viewers.
// Subscribers are notified once.
func (s *Store) WatchTogether(id, name string) error {
	if err := s.writable(id); err != nil {
		return err
	}
	e, ok := s.entries[id]
	if ok {
		e.WatchCount++
	} else {
		e = &Entry{NodeID: id, WatchCount: 1}
		s.insert(e)
	}
	if name = strings.TrimSpace(name); name != "" && !containsString(e.CoViewers, name) {
		e.CoViewers = append(e.CoViewers, name)
	}
	s.commit(Change{Kind: ChangeCoViewer, NodeID: id})
	return nil
}

// AttachMedia appends a memory to a watched node. A zero UploadedAt is
// stamped with the current time and an empty Kind defaults to MediaImage.
func (s *Store) AttachMedia(id string, m Media) error {
	if err := s.writable(id); err != nil {
		return err
	}
	e, ok := s.entries[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotWatched, id)
	}
	if strings.TrimSpace(m.URL) == "" {
		return fmt.Errorf("progress: attach media: empty url")
	}
	if m.Kind == "" {
		m.Kind = MediaImage
	}
	if m.UploadedAt.IsZero() {
		m.UploadedAt = time.Now().UTC()
	}
	e.Media = append(e.Media, m)
	s.commit(Change{Kind: ChangeMedia, NodeID: id})
	return nil
}

// DetachMedia removes every attachment on id with the given URL. It is a
// no-op when nothing matches.
func (s *Store) DetachMedia(id, url string) error {
	if err := s.writable(id); err != nil {
		return err
	}
	e, ok := s.entries[id]
	if !ok {
		return nil
	}
	kept := e.Media[:0]
	for _, m := range e.Media {
		if m.URL != url {
			kept = append(kept, m)
		}
	}
	if len(kept) == len(e.Media) {
		return nil
	}
	if len(kept) == 0 {
		kept = nil
	}
	e.Media = kept
	s.commit(Change{Kind: ChangeMedia, NodeID: id})
	return nil
}

// MarkAll watches every listed node that is not yet watched, in order, and
// notifies once. Already watched nodes keep their counts.
func (s *Store) MarkAll(ids []string) error {
	if s.readOnly {
		return ErrReadOnly
	}
	added := 0
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := s.entries[id]; ok {
			continue
		}
		s.insert(&Entry{NodeID: id, WatchCount: 1})
		added++
	}
	if added == 0 {
		return nil
	}
	s.commit(Change{Kind: ChangeMarkedAll})
	return nil
}

// EnterPeerView swaps in another viewer's entries and makes the store
// read-only. The owner's entries are held unchanged until ExitPeerView.
// Nothing is persisted while the peer view is active.
func (s *Store) EnterPeerView(owner string, entries []Entry) error {
	if s.readOnly {
		return ErrPeerViewActive
	}
	s.held = &peerHold{owner: owner, entries: s.entries, order: s.order}
	s.entries = make(map[string]*Entry, len(entries))
	s.order = nil
	for _, r := range entries {
		if r.NodeID == "" {
			continue
		}
		e := r.clone()
		if e.WatchCount < 1 {
			e.WatchCount = 1
		}
		if _, dup := s.entries[e.NodeID]; !dup {
			s.order = append(s.order, e.NodeID)
		}
		s.entries[e.NodeID] = &e
	}
	s.readOnly = true
	s.log.Info().Str("peer", owner).Int("entries", len(s.order)).Msg("entered peer view")
	s.notify(Change{Kind: ChangePeerEntered})
	return nil
}

// ExitPeerView restores the owner's entries exactly as they were. It is a
// no-op when no peer view is active.
func (s *Store) ExitPeerView() {
	if !s.readOnly {
		return
	}
	s.entries = s.held.entries
	s.order = s.held.order
	s.held = nil
	s.readOnly = false
	s.log.Info().Msg("exited peer view")
	s.notify(Change{Kind: ChangePeerExited})
}

// Subscribe registers fn for every subsequent change and returns a function
// that removes it. Listeners run synchronously in registration order. A
// listener added during a notification first hears the next change; one
// removed during a notification is not called again, including for the
// change in progress.
func (s *Store) Subscribe(fn func(Change)) (unsubscribe func()) {
	l := &listener{fn: fn, active: true}
	s.listeners = append(s.listeners, l)
	return func() {
		if !l.active {
			return
		}
		l.active = false
		for i, x := range s.listeners {
			if x == l {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				break
			}
		}
	}
}

// Flush waits for pending background saves, or for ctx to end.
func (s *Store) Flush(ctx context.Context) error {
	if s.saver == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		s.saver.wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) writable(id string) error {
	if s.readOnly {
		return ErrReadOnly
	}
	if id == "" {
		return ErrEmptyNodeID
	}
	return nil
}

func (s *Store) insert(e *Entry) {
	s.entries[e.NodeID] = e
	s.order = append(s.order, e.NodeID)
}

func (s *Store) remove(id string) {
	delete(s.entries, id)
	for i, x := range s.order {
		if x == id {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
}

// commit persists a snapshot and then notifies.
func (s *Store) commit(c Change) {
	if s.saver != nil {
		s.saver.submit(s.Entries())
	}
	s.log.Debug().Stringer("change", c.Kind).Str("node", c.NodeID).Msg("progress changed")
	s.notify(c)
}

func (s *Store) notify(c Change) {
	snapshot := append([]*listener(nil), s.listeners...)
	for _, l := range snapshot {
		if l.active {
			l.fn(c)
		}
	}
}

func containsString(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}
