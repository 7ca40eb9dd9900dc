package index

import (
	"encoding/json"
	"time"

	"github.com/awp-dev/awpengine/internal/awperr"
)

// SearchResult is one ranked hit from a full-text search.
type SearchResult struct {
	Slug         string    `json:"slug"`
	Title        string    `json:"title"`
	Tags         []string  `json:"tags"`
	Confidence   float64   `json:"confidence"`
	Version      int       `json:"version"`
	LastModified time.Time `json:"lastModified"`
	ModifiedBy   string    `json:"modifiedBy"`
}

// Search performs full-text search over artifact titles and bodies,
// ranked by FTS5's built-in bm25 rank.
func (idx *Index) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := idx.db.Query(`
		SELECT a.slug, a.title, a.tags, a.confidence, a.version, a.last_modified, a.modified_by
		FROM artifacts a
		INNER JOIN artifacts_fts fts ON a.slug = fts.slug
		WHERE artifacts_fts MATCH ?
		ORDER BY rank
		LIMIT ?`,
		query, limit,
	)
	if err != nil {
		return nil, awperr.Wrap(awperr.IoError, "Search", "query fts index", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var tagsJSON, lastModified string
		if err := rows.Scan(&r.Slug, &r.Title, &tagsJSON, &r.Confidence, &r.Version, &lastModified, &r.ModifiedBy); err != nil {
			return nil, awperr.Wrap(awperr.IoError, "Search", "scan result row", err)
		}
		if err := json.Unmarshal([]byte(tagsJSON), &r.Tags); err != nil {
			return nil, awperr.Wrap(awperr.IoError, "Search", "unmarshal tags", err)
		}
		ts, err := time.Parse(timeLayout, lastModified)
		if err != nil {
			ts, err = time.Parse(time.RFC3339Nano, lastModified)
			if err != nil {
				return nil, awperr.Wrap(awperr.CorruptState, "Search", "parse lastModified", err)
			}
		}
		r.LastModified = ts
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, awperr.Wrap(awperr.IoError, "Search", "iterate result rows", err)
	}
	return results, nil
}

// ByTag lists indexed artifacts whose tag set contains tag, most recently
// modified first, without full-text ranking. Only the limit*4 most
// recently modified rows are examined; matches outside that window are
// not returned.
func (idx *Index) ByTag(tag string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := idx.db.Query(`
		SELECT slug, title, tags, confidence, version, last_modified, modified_by
		FROM artifacts
		ORDER BY last_modified DESC
		LIMIT ?`, limit*4) // over-fetch since tag filtering happens in Go below
	if err != nil {
		return nil, awperr.Wrap(awperr.IoError, "ByTag", "query artifacts", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var tagsJSON, lastModified string
		if err := rows.Scan(&r.Slug, &r.Title, &tagsJSON, &r.Confidence, &r.Version, &lastModified, &r.ModifiedBy); err != nil {
			return nil, awperr.Wrap(awperr.IoError, "ByTag", "scan result row", err)
		}
		if err := json.Unmarshal([]byte(tagsJSON), &r.Tags); err != nil {
			return nil, awperr.Wrap(awperr.IoError, "ByTag", "unmarshal tags", err)
		}
		if !hasTag(r.Tags, tag) {
			continue
		}
		ts, err := time.Parse(timeLayout, lastModified)
		if err != nil {
			continue
		}
		r.LastModified = ts
		results = append(results, r)
		if len(results) >= limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, awperr.Wrap(awperr.IoError, "ByTag", "iterate result rows", err)
	}
	return results, nil
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
