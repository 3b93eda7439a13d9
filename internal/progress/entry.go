// Package progress tracks which catalog nodes have been watched, how often,
// with whom, and which media were attached to each viewing. The Store is the
// only writer of progress entries; everything else reads through it.
package progress

import (
	"context"
	"time"
)

// MediaKind distinguishes attached photos from videos.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// Media is a single attachment ("memory") on a watched node.
type Media struct {
	URL        string
	Kind       MediaKind
	Caption    string
	UploadedAt time.Time
}

// Entry is the progress record for one watched node. An entry exists only
// while the node is watched; unwatching deletes it.
type Entry struct {
	NodeID     string
	WatchCount int
	CoViewers  []string
	Media      []Media
}

// clone returns a deep copy so callers never alias store-owned slices.
func (e Entry) clone() Entry {
	out := Entry{NodeID: e.NodeID, WatchCount: e.WatchCount}
	if len(e.CoViewers) > 0 {
		out.CoViewers = append([]string(nil), e.CoViewers...)
	}
	if len(e.Media) > 0 {
		out.Media = append([]Media(nil), e.Media...)
	}
	return out
}

// Persistence is the durable-storage collaborator. Load returns entries in
// any order; Save replaces the stored set with the given entries.
type Persistence interface {
	Load(ctx context.Context) ([]Entry, error)
	Save(ctx context.Context, entries []Entry) error
}

// ChangeKind describes what a notification is about.
type ChangeKind int

const (
	ChangeToggled ChangeKind = iota
	ChangeWatchedAgain
	ChangeCleared
	ChangeCoViewer
	ChangeMedia
	ChangeMarkedAll
	ChangeLoaded
	ChangePeerEntered
	ChangePeerExited
)

var changeNames = map[ChangeKind]string{
	ChangeToggled:      "toggled",
	ChangeWatchedAgain: "watched-again",
	ChangeCleared:      "cleared",
	ChangeCoViewer:     "co-viewer",
	ChangeMedia:        "media",
	ChangeMarkedAll:    "marked-all",
	ChangeLoaded:       "loaded",
	ChangePeerEntered:  "peer-entered",
	ChangePeerExited:   "peer-exited",
}

// String returns a short name for logs.
func (k ChangeKind) String() string {
	if s, ok := changeNames[k]; ok {
		return s
	}
	return "unknown"
}

// Change is delivered to subscribers after every state change.
type Change struct {
	Kind   ChangeKind
	NodeID string // empty for store-wide changes
}
