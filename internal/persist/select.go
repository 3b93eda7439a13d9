package persist

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/papapumpkin/unlockmap/internal/identity"
	"github.com/papapumpkin/unlockmap/internal/progress"
)

// Options describes where progress may live.
type Options struct {
	CachePath string // TOML cache; the only backend for guests
	DBPath    string // SQLite database for signed-in viewers without a remote
	Remote    RemoteConfig
}

// Selection is the wired backend for the current viewer. Close releases
// any database handle.
type Selection struct {
	Backend progress.Persistence
	Peers   PeerSource // nil for guests
	Kind    string     // "remote", "sqlite" or "file", for status output
	close   func() error
}

// Close releases resources held by the selection.
func (s Selection) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// Select chooses the backend: a signed-in viewer with a remote URL uses the
// remote service, one without uses the local database, and a guest uses
// the cache file alone. Signed-in backends write through to the cache.
func Select(ctx context.Context, id identity.Provider, opts Options, log zerolog.Logger) (Selection, error) {
	cache := File{Path: opts.CachePath}
	if !id.IsAuthenticated() {
		return Selection{Backend: cache, Kind: "file"}, nil
	}

	if opts.Remote.URL != "" {
		remote, err := NewRemote(opts.Remote, id, log)
		if err != nil {
			return Selection{}, err
		}
		return Selection{
			Backend: Fallback{Primary: remote, Cache: cache, Log: log},
			Peers:   remote,
			Kind:    "remote",
		}, nil
	}

	db, err := OpenSQLite(ctx, opts.DBPath, id.Username())
	if err != nil {
		return Selection{}, fmt.Errorf("persist: select: %w", err)
	}
	return Selection{
		Backend: Fallback{Primary: db, Cache: cache, Log: log},
		Peers:   db,
		Kind:    "sqlite",
		close:   db.Close,
	}, nil
}
