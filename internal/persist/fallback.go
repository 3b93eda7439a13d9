package persist

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/papapumpkin/unlockmap/internal/progress"
)

// Fallback reads from Primary and falls back to Cache when Primary fails.
// Saves go to both; only the Primary error is returned.
type Fallback struct {
	Primary progress.Persistence
	Cache   progress.Persistence
	Log     zerolog.Logger
}

// Load implements progress.Persistence.
func (f Fallback) Load(ctx context.Context) ([]progress.Entry, error) {
	entries, err := f.Primary.Load(ctx)
	if err == nil {
		return entries, nil
	}
	f.Log.Warn().Err(err).Msg("primary progress load failed; using cache")
	return f.Cache.Load(ctx)
}

// Save implements progress.Persistence.
func (f Fallback) Save(ctx context.Context, entries []progress.Entry) error {
	err := f.Primary.Save(ctx, entries)
	if cerr := f.Cache.Save(ctx, entries); cerr != nil {
		f.Log.Warn().Err(cerr).Msg("progress cache write failed")
	}
	return err
}
