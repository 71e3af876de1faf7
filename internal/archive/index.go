// Index maintains the derived SQLite lookup table backing --list (see
// SPEC_FULL.md D.3): one row per archive file, rebuilt incrementally on
// each recorder flush rather than re-parsed from scratch. Grounded on
// sidedotdev-sidekick's srv/sqlite/client.go sql.Open("sqlite", ...)
// wiring, trimmed to a single ad hoc table since cc-dump has no
// migration history to track.
package archive

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// IndexRow is one archive file's summary, as listed by --list.
type IndexRow struct {
	Path       string
	StartedAt  time.Time
	EntryCount int
	LastModel  string
}

// Index wraps the on-disk SQLite database. It is never the source of
// truth for a recording's contents, only a fast lookup over files that
// already exist under ~/.ccdump/recordings.
type Index struct {
	db *sql.DB
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS recordings (
	path        TEXT PRIMARY KEY,
	started_at  TEXT NOT NULL,
	entry_count INTEGER NOT NULL,
	last_model  TEXT NOT NULL
)`

// OpenIndex opens (creating if absent) the SQLite index at path.
func OpenIndex(path string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping index: %w", err)
	}
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create recordings table: %w", err)
	}
	return &Index{db: db}, nil
}

// Upsert records or updates the summary row for an archive file. Called
// after every successful AppendEntry so the index never lags the file
// it describes by more than one entry.
func (ix *Index) Upsert(row IndexRow) error {
	_, err := ix.db.Exec(
		`INSERT INTO recordings (path, started_at, entry_count, last_model)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET
			started_at = excluded.started_at,
			entry_count = excluded.entry_count,
			last_model = excluded.last_model`,
		row.Path, row.StartedAt.Format(time.RFC3339Nano), row.EntryCount, row.LastModel,
	)
	if err != nil {
		return fmt.Errorf("upsert index row: %w", err)
	}
	return nil
}

// List returns every indexed row, newest started_at first.
func (ix *Index) List() ([]IndexRow, error) {
	rows, err := ix.db.Query(`SELECT path, started_at, entry_count, last_model FROM recordings ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	defer rows.Close()

	var out []IndexRow
	for rows.Next() {
		var row IndexRow
		var startedAt string
		if err := rows.Scan(&row.Path, &startedAt, &row.EntryCount, &row.LastModel); err != nil {
			return nil, fmt.Errorf("scan index row: %w", err)
		}
		row.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
		if err != nil {
			return nil, fmt.Errorf("parse indexed started_at: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Remove drops path's row, used when a recording file is deleted out of
// band and --list shouldn't keep reporting it.
func (ix *Index) Remove(path string) error {
	_, err := ix.db.Exec(`DELETE FROM recordings WHERE path = ?`, path)
	return err
}

func (ix *Index) Close() error {
	return ix.db.Close()
}
