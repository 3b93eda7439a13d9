package persist

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/papapumpkin/unlockmap/internal/progress"
)

// schema is executed on every open; IF NOT EXISTS keeps it idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS progress (
    username    TEXT    NOT NULL,
    node_id     TEXT    NOT NULL,
    position    INTEGER NOT NULL,
    watch_count INTEGER NOT NULL DEFAULT 1,
    co_viewers  TEXT    NOT NULL DEFAULT '[]',
    media       TEXT    NOT NULL DEFAULT '[]',
    updated_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (username, node_id)
);
`

// SQLite stores every viewer's progress in one local database. A SQLite
// value is bound to one username for Load and Save; other viewers' rows
// are reachable through PeerProgress.
type SQLite struct {
	db       *sql.DB
	username string
}

// OpenSQLite opens (or creates) the database at path for username, enables
// WAL mode and busy timeout, and creates the schema.
func OpenSQLite(ctx context.Context, path, username string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("persist: open database: %w", err)
	}

	// SQLite has a single writer; one connection avoids SQLITE_BUSY between
	// pooled connections.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("persist: enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("persist: set busy timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("persist: create schema: %w", err)
	}
	return &SQLite{db: db, username: strings.TrimSpace(username)}, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Load implements progress.Persistence for the bound username.
func (s *SQLite) Load(ctx context.Context) ([]progress.Entry, error) {
	return s.load(ctx, s.username)
}

// PeerProgress implements PeerSource.
func (s *SQLite) PeerProgress(ctx context.Context, name string) ([]progress.Entry, error) {
	return s.load(ctx, strings.TrimSpace(name))
}

// Users lists every username with stored progress, alphabetically.
func (s *SQLite) Users(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT username FROM progress ORDER BY username")
	if err != nil {
		return nil, fmt.Errorf("persist: list users: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("persist: scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *SQLite) load(ctx context.Context, username string) ([]progress.Entry, error) {
	const q = `
		SELECT node_id, watch_count, co_viewers, media
		FROM progress WHERE username = ? ORDER BY position`
	rows, err := s.db.QueryContext(ctx, q, username)
	if err != nil {
		return nil, fmt.Errorf("persist: load progress for %q: %w", username, err)
	}
	defer rows.Close()

	var out []progress.Entry
	for rows.Next() {
		var (
			r                 record
			coViewers, mediaJ string
		)
		if err := rows.Scan(&r.ProjectID, &r.Count, &coViewers, &mediaJ); err != nil {
			return nil, fmt.Errorf("persist: scan progress: %w", err)
		}
		if err := json.Unmarshal([]byte(coViewers), &r.WatchedWith); err != nil {
			return nil, fmt.Errorf("persist: decode co-viewers of %s: %w", r.ProjectID, err)
		}
		if err := json.Unmarshal([]byte(mediaJ), &r.Memories); err != nil {
			return nil, fmt.Errorf("persist: decode media of %s: %w", r.ProjectID, err)
		}
		out = append(out, document{WatchedProjects: []record{r}}.entries()...)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("persist: iterate progress: %w", err)
	}
	return out, nil
}

// Save implements progress.Persistence. The bound username's rows are
// replaced in a single transaction.
func (s *SQLite) Save(ctx context.Context, entries []progress.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("persist: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.ExecContext(ctx, "DELETE FROM progress WHERE username = ?", s.username); err != nil {
		return fmt.Errorf("persist: clear progress: %w", err)
	}

	const q = `
		INSERT INTO progress (username, node_id, position, watch_count, co_viewers, media)
		VALUES (?, ?, ?, ?, ?, ?)`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		return fmt.Errorf("persist: prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range toDocument(entries).WatchedProjects {
		coViewers, err := json.Marshal(r.WatchedWith)
		if err != nil {
			return fmt.Errorf("persist: encode co-viewers of %s: %w", r.ProjectID, err)
		}
		media, err := json.Marshal(r.Memories)
		if err != nil {
			return fmt.Errorf("persist: encode media of %s: %w", r.ProjectID, err)
		}
		if _, err := stmt.ExecContext(ctx, s.username, r.ProjectID, i, r.Count, string(coViewers), string(media)); err != nil {
			return fmt.Errorf("persist: insert %s: %w", r.ProjectID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("persist: commit progress: %w", err)
	}
	return nil
}
