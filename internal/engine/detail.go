package engine

import (
	"fmt"

	"github.com/dustin/go-humanize/english"

	"github.com/papapumpkin/unlockmap/internal/catalog"
	"github.com/papapumpkin/unlockmap/internal/identity"
	"github.com/papapumpkin/unlockmap/internal/progress"
)

// Action is an offered action on a node's detail view.
type Action string

// Actions in the order a detail view offers them.
const (
	ActionMarkWatched       Action = "Mark as Watched"
	ActionWatchAgain        Action = "Watch Again"
	ActionWatchedWithFriend Action = "Watched with a Friend"
	ActionAddMemory         Action = "Add Memory"
)

// Detail is everything a node's detail view shows.
type Detail struct {
	Node       catalog.Node
	Watched    bool
	Unlocked   bool
	ReadOnly   bool
	Count      int
	CountLabel string   // "Watched 2 times"; empty when unwatched
	CoViewers  []string // display names; the viewer's own name reads "you"
	Media      []progress.Media
	Actions    []Action // empty in a peer view
}

// Detail opens a node. Outside a peer view unlocked and watched nodes open;
// in a peer view only watched ones do, and no mutating actions are offered.
func (s *Session) Detail(id string) (Detail, error) {
	n, ok := s.cat.Node(id)
	if !ok {
		return Detail{}, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	d := Detail{
		Node:     n,
		Watched:  s.store.IsWatched(id),
		Unlocked: s.deriver.IsUnlocked(id),
		ReadOnly: s.store.ReadOnly(),
		Count:    s.store.Count(id),
		Media:    s.store.Media(id),
	}
	if !d.Watched && (d.ReadOnly || !d.Unlocked) {
		return Detail{}, fmt.Errorf("%w: %s", ErrNotInteractive, id)
	}
	if d.Watched {
		d.CountLabel = "Watched " + english.Plural(d.Count, "time", "times")
		for _, name := range s.store.CoViewers(id) {
			d.CoViewers = append(d.CoViewers, identity.DisplayName(s.identity, name))
		}
	}
	if !d.ReadOnly {
		if d.Watched {
			d.Actions = []Action{ActionWatchAgain, ActionWatchedWithFriend, ActionAddMemory}
		} else {
			d.Actions = []Action{ActionMarkWatched, ActionWatchedWithFriend}
		}
	}
	return d, nil
}
