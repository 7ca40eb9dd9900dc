// Package index implements a rebuildable SQLite full-text side-index over
// artifacts: a non-authoritative cache. The markdown files under
// artifacts/ remain the source of truth, and this index can always be
// dropped and rebuilt from them.
package index

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/awp-dev/awpengine/internal/artifact"
	"github.com/awp-dev/awpengine/internal/awperr"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS artifacts (
	slug TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	tags TEXT NOT NULL,
	confidence REAL NOT NULL,
	version INTEGER NOT NULL,
	last_modified TEXT NOT NULL,
	modified_by TEXT NOT NULL
);

CREATE VIRTUAL TABLE IF NOT EXISTS artifacts_fts USING fts5(
	slug UNINDEXED,
	title,
	body
);
`

// Index is a rebuildable, file-backed SQLite search index over artifacts.
type Index struct {
	db   *sql.DB
	path string
}

// Open opens (creating if absent) the index database at path.
func Open(path string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, awperr.Wrap(awperr.IoError, "Open", "create index directory", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, awperr.Wrap(awperr.IoError, "Open", "open index database", err)
	}
	db.SetMaxOpenConns(1) // fts5 + WAL over a single file; avoid writer contention

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, awperr.Wrap(awperr.IoError, "Open", "apply index schema", err)
	}
	return &Index{db: db, path: path}, nil
}

// Close releases the underlying database handle.
func (idx *Index) Close() error {
	return idx.db.Close()
}

// Upsert replaces the indexed row (both the metadata table and the FTS
// table) for a's slug.
func (idx *Index) Upsert(a *artifact.Artifact) error {
	tagsJSON, err := json.Marshal(a.Tags)
	if err != nil {
		return awperr.Wrap(awperr.IoError, "Upsert", "marshal tags", err)
	}

	tx, err := idx.db.Begin()
	if err != nil {
		return awperr.Wrap(awperr.IoError, "Upsert", "begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO artifacts (slug, title, tags, confidence, version, last_modified, modified_by)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			title=excluded.title, tags=excluded.tags, confidence=excluded.confidence,
			version=excluded.version, last_modified=excluded.last_modified, modified_by=excluded.modified_by`,
		a.Slug, a.Title, string(tagsJSON), a.Confidence, a.Version,
		a.LastModified.Format(timeLayout), a.ModifiedBy,
	); err != nil {
		return awperr.Wrap(awperr.IoError, "Upsert", "write artifacts row", err)
	}

	if _, err := tx.Exec(`DELETE FROM artifacts_fts WHERE slug = ?`, a.Slug); err != nil {
		return awperr.Wrap(awperr.IoError, "Upsert", "clear stale fts row", err)
	}
	if _, err := tx.Exec(`INSERT INTO artifacts_fts (slug, title, body) VALUES (?, ?, ?)`, a.Slug, a.Title, a.Body); err != nil {
		return awperr.Wrap(awperr.IoError, "Upsert", "write fts row", err)
	}

	return tx.Commit()
}

// Delete removes slug from the index, if present.
func (idx *Index) Delete(slug string) error {
	tx, err := idx.db.Begin()
	if err != nil {
		return awperr.Wrap(awperr.IoError, "Delete", "begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM artifacts WHERE slug = ?`, slug); err != nil {
		return awperr.Wrap(awperr.IoError, "Delete", "delete artifacts row", err)
	}
	if _, err := tx.Exec(`DELETE FROM artifacts_fts WHERE slug = ?`, slug); err != nil {
		return awperr.Wrap(awperr.IoError, "Delete", "delete fts row", err)
	}
	return tx.Commit()
}

// Rebuild drops and repopulates the entire index from artifacts, the
// authoritative source.
func (idx *Index) Rebuild(artifacts []*artifact.Artifact) error {
	tx, err := idx.db.Begin()
	if err != nil {
		return awperr.Wrap(awperr.IoError, "Rebuild", "begin transaction", err)
	}
	if _, err := tx.Exec(`DELETE FROM artifacts`); err != nil {
		tx.Rollback()
		return awperr.Wrap(awperr.IoError, "Rebuild", "clear artifacts table", err)
	}
	if _, err := tx.Exec(`DELETE FROM artifacts_fts`); err != nil {
		tx.Rollback()
		return awperr.Wrap(awperr.IoError, "Rebuild", "clear fts table", err)
	}
	if err := tx.Commit(); err != nil {
		return awperr.Wrap(awperr.IoError, "Rebuild", "commit clear", err)
	}

	for _, a := range artifacts {
		if err := idx.Upsert(a); err != nil {
			return err
		}
	}
	return nil
}

const timeLayout = "2006-01-02T15:04:05.999999999Z07:00"
