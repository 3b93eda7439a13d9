// Package persist implements progress.Persistence backends: a remote HTTP
// service, a per-user SQLite database, and a local TOML cache file, plus the
// Fallback combinator that Select wires together for the current viewer.
package persist

import (
	"context"
	"time"

	"github.com/papapumpkin/unlockmap/internal/progress"
)

// PeerSource loads another viewer's progress for a read-only peer view.
type PeerSource interface {
	PeerProgress(ctx context.Context, name string) ([]progress.Entry, error)
}

// document is the wire shape shared by the remote API and the cache file.
type document struct {
	WatchedProjects []record `json:"watchedProjects" toml:"watched_projects"`
}

type record struct {
	ProjectID   string   `json:"projectId" toml:"project_id"`
	Count       int      `json:"count" toml:"count"`
	WatchedWith []string `json:"watchedWith" toml:"watched_with"`
	Memories    []memory `json:"memories" toml:"memories"`
}

type memory struct {
	URL        string    `json:"url" toml:"url"`
	Type       string    `json:"type" toml:"type"`
	Caption    string    `json:"caption,omitempty" toml:"caption,omitempty"`
	UploadedAt time.Time `json:"uploadedAt" toml:"uploaded_at"`
}

func toDocument(entries []progress.Entry) document {
	doc := document{WatchedProjects: make([]record, 0, len(entries))}
	for _, e := range entries {
		r := record{
			ProjectID:   e.NodeID,
			Count:       e.WatchCount,
			WatchedWith: append([]string{}, e.CoViewers...),
			Memories:    make([]memory, 0, len(e.Media)),
		}
		for _, m := range e.Media {
			r.Memories = append(r.Memories, memory{
				URL:        m.URL,
				Type:       string(m.Kind),
				Caption:    m.Caption,
				UploadedAt: m.UploadedAt,
			})
		}
		doc.WatchedProjects = append(doc.WatchedProjects, r)
	}
	return doc
}

func (d document) entries() []progress.Entry {
	out := make([]progress.Entry, 0, len(d.WatchedProjects))
	for _, r := range d.WatchedProjects {
		e := progress.Entry{NodeID: r.ProjectID, WatchCount: r.Count}
		if len(r.WatchedWith) > 0 {
			e.CoViewers = append([]string(nil), r.WatchedWith...)
		}
		for _, m := range r.Memories {
			kind := progress.MediaKind(m.Type)
			if kind != progress.MediaVideo {
				kind = progress.MediaImage
			}
			e.Media = append(e.Media, progress.Media{
				URL:        m.URL,
				Kind:       kind,
				Caption:    m.Caption,
				UploadedAt: m.UploadedAt,
			})
		}
		out = append(out, e)
	}
	return out
}
