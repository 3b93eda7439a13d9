package persist

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/papapumpkin/unlockmap/internal/progress"
)

// File stores progress in a TOML file. It is the guest backend and the
// offline cache for signed-in viewers.
type File struct {
	Path string
}

// Load reads the file. A missing file is an empty progress set.
func (f File) Load(_ context.Context) ([]progress.Entry, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("persist: read %s: %w", f.Path, err)
	}
	var doc document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("persist: parse %s: %w", f.Path, err)
	}
	return doc.entries(), nil
}

// Save writes the file atomically (write temp + rename).
func (f File) Save(_ context.Context, entries []progress.Entry) error {
	data, err := toml.Marshal(toDocument(entries))
	if err != nil {
		return fmt.Errorf("persist: marshal progress: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
		return fmt.Errorf("persist: create dir: %w", err)
	}
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("persist: write temp file: %w", err)
	}
	if err := os.Rename(tmp, f.Path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("persist: rename %s: %w", f.Path, err)
	}
	return nil
}
