package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/starford/seopress/internal/models"
)

// Filter narrows ListArtifacts. Zero values mean "no filter"; a zero Limit
// returns every matching row.
type Filter struct {
	Trigger models.Trigger
	Keyword string
	Limit   int
	Offset  int
}

var rowColumns = []string{"id", "path", "keyword", "title", "kind", "source", "created_at", "word_count", "tags", "checksum"}

func selectRows() sq.SelectBuilder {
	return sq.Select(rowColumns...).From("artifacts")
}

func (f Filter) apply(b sq.SelectBuilder) sq.SelectBuilder {
	if f.Trigger != "" {
		b = b.Where(sq.Eq{"kind": string(f.Trigger)})
	}
	if f.Keyword != "" {
		b = b.Where(sq.Eq{"keyword": f.Keyword})
	}
	return b
}

// ListArtifacts returns rows newest first (ties broken by id, descending).
func (db *DB) ListArtifacts(ctx context.Context, f Filter) ([]ArtifactRow, error) {
	b := f.apply(selectRows()).OrderBy("created_at DESC", "id DESC")
	switch {
	case f.Limit > 0:
		b = b.Limit(uint64(f.Limit))
	case f.Offset > 0:
		// SQLite only accepts OFFSET after a LIMIT.
		b = b.Limit(math.MaxInt64)
	}
	if f.Offset > 0 {
		b = b.Offset(uint64(f.Offset))
	}
	q, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("index: build list: %w", err)
	}
	rows, err := db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("index: list artifacts: %w", err)
	}
	return scanRows(rows)
}

// CountArtifacts returns how many rows match f, ignoring limit and offset.
func (db *DB) CountArtifacts(ctx context.Context, f Filter) (int, error) {
	q, args, err := f.apply(sq.Select("count(*)").From("artifacts")).ToSql()
	if err != nil {
		return 0, fmt.Errorf("index: build count: %w", err)
	}
	var n int
	if err := db.conn.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("index: count artifacts: %w", err)
	}
	return n, nil
}

func scanRows(rows *sql.Rows) ([]ArtifactRow, error) {
	defer rows.Close()
	out := []ArtifactRow{}
	for rows.Next() {
		var (
			r         ArtifactRow
			trigger   string
			source    string
			createdAt int64
			tags      string
		)
		if err := rows.Scan(&r.ID, &r.Path, &r.Keyword, &r.Title, &trigger, &source, &createdAt, &r.WordCount, &tags, &r.Checksum); err != nil {
			return nil, fmt.Errorf("index: scan: %w", err)
		}
		r.Trigger = models.Trigger(trigger)
		r.Source = models.Source(source)
		r.CreatedAt = time.Unix(0, createdAt).UTC()
		_ = json.Unmarshal([]byte(tags), &r.Tags)
		out = append(out, r)
	}
	return out, rows.Err()
}
