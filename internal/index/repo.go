package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/seopress/internal/apperr"
	"github.com/starford/seopress/internal/models"
)

// ArtifactRow represents a row in the artifacts table.
type ArtifactRow struct {
	ID        string
	Path      string
	Keyword   string
	Title     string
	Trigger   models.Trigger
	Source    models.Source
	CreatedAt time.Time
	WordCount int
	Tags      []string
	Checksum  string // checksum of the whole file, used by Sync
}

// Summary converts r to the list representation.
func (r ArtifactRow) Summary() models.ArtifactSummary {
	return models.ArtifactSummary{
		ID:        r.ID,
		Keyword:   r.Keyword,
		Title:     r.Title,
		Trigger:   r.Trigger,
		Source:    r.Source,
		CreatedAt: r.CreatedAt,
		WordCount: r.WordCount,
		URL:       "/posts/" + r.ID,
	}
}

// SearchResult represents one search hit.
type SearchResult struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// UpsertArtifact inserts or replaces an artifact row and its FTS entry within
// a transaction. text is the visible text of the post, used for search.
func (db *DB) UpsertArtifact(ctx context.Context, r ArtifactRow, text string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tagsJSON, _ := json.Marshal(r.Tags)

	// The path may still hold a row for a different id.
	if err := deletePath(ctx, tx, r.Path, r.ID); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO artifacts (id, path, keyword, title, kind, source, created_at, word_count, tags, checksum, body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			path       = excluded.path,
			keyword    = excluded.keyword,
			title      = excluded.title,
			kind       = excluded.kind,
			source     = excluded.source,
			created_at = excluded.created_at,
			word_count = excluded.word_count,
			tags       = excluded.tags,
			checksum   = excluded.checksum,
			body       = excluded.body
	`, r.ID, r.Path, r.Keyword, r.Title, string(r.Trigger), string(r.Source),
		r.CreatedAt.UnixNano(), r.WordCount, string(tagsJSON), r.Checksum, text)
	if err != nil {
		return fmt.Errorf("index: upsert artifact: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, r.ID, r.Title, text, r.Tags); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteByPath removes the artifact stored at path and its FTS entry.
func (db *DB) DeleteByPath(ctx context.Context, path string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := deletePath(ctx, tx, path, ""); err != nil {
		return err
	}
	return tx.Commit()
}

// deletePath removes the row stored at path unless its id is keepID.
func deletePath(ctx context.Context, tx *sql.Tx, path, keepID string) error {
	var id string
	err := tx.QueryRowContext(ctx, `SELECT id FROM artifacts WHERE path = ?`, path).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && id == keepID) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("index: lookup path: %w", err)
	}
	ftsDelete(tx, id)
	if _, err := tx.ExecContext(ctx, `DELETE FROM artifacts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("index: delete artifact: %w", err)
	}
	return nil
}

// GetArtifact returns the row for id or apperr.ErrNotFound.
func (db *DB) GetArtifact(ctx context.Context, id string) (*ArtifactRow, error) {
	q, args, err := selectRows().Where("id = ?", id).ToSql()
	if err != nil {
		return nil, fmt.Errorf("index: build get: %w", err)
	}
	rows, err := db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("index: get artifact: %w", err)
	}
	out, err := scanRows(rows)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("index: artifact %s: %w", id, apperr.ErrNotFound)
	}
	return &out[0], nil
}

// AllChecksums returns the stored file checksum for every indexed path.
func (db *DB) AllChecksums(ctx context.Context) (map[string]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT path, checksum FROM artifacts`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}
