package index

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/starford/seopress/internal/document"
	"github.com/starford/seopress/internal/storage"
)

// Sync walks the artifact store and brings the index up to date:
//   - new/changed files are decoded and upserted
//   - files removed from disk are deleted from the index
func Sync(ctx context.Context, db *DB, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums(ctx)
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	indexed := 0
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := IndexFile(ctx, db, m.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		indexed++
		logger.Debug("sync: indexed", slog.String("path", m.Path))
	}

	// Remove stale entries.
	removed := 0
	for p := range checksums {
		if _, ok := disk[p]; ok {
			continue
		}
		if err := db.DeleteByPath(ctx, p); err != nil {
			logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		removed++
		logger.Debug("sync: removed stale", slog.String("path", p))
	}

	logger.Info("sync: complete", slog.Int("files", len(metas)), slog.Int("indexed", indexed), slog.Int("removed", removed))
	return nil
}

// IndexFile decodes an artifact document and upserts it into the DB.
// The artifact id must match the file name.
func IndexFile(ctx context.Context, db ArtifactIndex, p string, data []byte) error {
	a, err := document.Decode(data)
	if err != nil {
		return err
	}
	if want := strings.TrimSuffix(path.Base(p), document.Ext); a.ID != want {
		return fmt.Errorf("index: id %q does not match file %s: %w", a.ID, p, document.ErrMalformed)
	}

	row := ArtifactRow{
		ID:        a.ID,
		Path:      p,
		Keyword:   a.Keyword,
		Title:     a.Title,
		Trigger:   a.Trigger,
		Source:    a.Source,
		CreatedAt: a.CreatedAt,
		WordCount: a.WordCount,
		Tags:      a.Tags,
		Checksum:  document.Checksum(string(data)),
	}
	return db.UpsertArtifact(ctx, row, visibleText(a.HTMLBody))
}

// visibleText extracts the article text of a rendered page for search.
func visibleText(page string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return ""
	}
	sel := doc.Find("article")
	if sel.Length() == 0 {
		sel = doc.Find("body")
	}
	return strings.Join(strings.Fields(sel.Text()), " ")
}
