// Package artifacts persists generated posts. Files are the source of truth;
// the SQLite index serves listings and search.
package artifacts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/starford/seopress/internal/apperr"
	"github.com/starford/seopress/internal/document"
	"github.com/starford/seopress/internal/index"
	"github.com/starford/seopress/internal/keyword"
	"github.com/starford/seopress/internal/models"
	"github.com/starford/seopress/internal/storage"
)

const (
	dayLayout    = "20060102"
	secondLayout = "20060102T150405"
	// maxSuffix bounds the search for a free manual id within one second.
	maxSuffix = 1000
)

var idRe = regexp.MustCompile(`^(daily|manual)-[A-Za-z0-9-]+$`)

// Store coordinates file storage and the index.
type Store struct {
	files  storage.Provider
	idx    index.ArtifactIndex
	loc    *time.Location
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLocation sets the time zone used for calendar days in ids.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// NewStore creates a Store.
func NewStore(files storage.Provider, idx index.ArtifactIndex, opts ...Option) *Store {
	s := &Store{files: files, idx: idx, loc: time.Local, now: time.Now, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Location returns the time zone used for calendar days.
func (s *Store) Location() *time.Location { return s.loc }

// DailyID returns the id of the daily artifact for the normalized keyword kw
// on the calendar day of t.
func (s *Store) DailyID(kw string, t time.Time) string {
	return "daily-" + keyword.Key(kw) + "-" + t.In(s.loc).Format(dayLayout)
}

func manualID(kw string, t time.Time) string {
	return "manual-" + keyword.Key(kw) + "-" + t.Format(secondLayout)
}

func pathFor(trigger models.Trigger, id string) string {
	return string(trigger) + "/" + id + document.Ext
}

func triggerOf(id string) (models.Trigger, bool) {
	if !idRe.MatchString(id) {
		return "", false
	}
	t := models.Trigger(id[:strings.IndexByte(id, '-')])
	return t, t.Valid()
}

// Save persists draft under a fresh id for trigger. Daily artifacts are
// created at most once per keyword and calendar day: when today's artifact
// already exists it is returned with created=false and draft is discarded.
// Manual saves always create a new artifact.
func (s *Store) Save(ctx context.Context, draft models.Artifact, trigger models.Trigger) (models.Artifact, bool, error) {
	if !trigger.Valid() {
		return models.Artifact{}, false, fmt.Errorf("artifacts: unknown trigger %q", trigger)
	}
	kw, err := keyword.Normalize(draft.Keyword)
	if err != nil {
		return models.Artifact{}, false, err
	}

	now := s.now().In(s.loc)
	a := draft
	a.Keyword = kw
	a.Trigger = trigger
	a.CreatedAt = now
	a.Checksum = document.Checksum(a.HTMLBody)

	if trigger == models.TriggerDaily {
		a.ID = s.DailyID(kw, now)
		err := s.create(ctx, a)
		if errors.Is(err, apperr.ErrAlreadyExists) {
			existing, getErr := s.Get(ctx, a.ID)
			if getErr != nil {
				return models.Artifact{}, false, fmt.Errorf("artifacts: read existing %s: %w: %w", a.ID, apperr.ErrStorage, getErr)
			}
			if existing.Keyword != kw {
				return models.Artifact{}, false, fmt.Errorf("artifacts: %s belongs to keyword %q: %w", a.ID, existing.Keyword, apperr.ErrStorage)
			}
			s.logger.Info("daily artifact already exists", "id", a.ID)
			return existing, false, nil
		}
		if err != nil {
			return models.Artifact{}, false, err
		}
		return a, true, nil
	}

	base := manualID(kw, now)
	for n := 1; n <= maxSuffix; n++ {
		a.ID = base
		if n > 1 {
			a.ID = fmt.Sprintf("%s-%d", base, n)
		}
		err := s.create(ctx, a)
		if errors.Is(err, apperr.ErrAlreadyExists) {
			continue
		}
		if err != nil {
			return models.Artifact{}, false, err
		}
		return a, true, nil
	}
	return models.Artifact{}, false, fmt.Errorf("artifacts: no free id for %s: %w", base, apperr.ErrStorage)
}

// create publishes a and indexes it. A failed index write is logged only;
// the next Sync repairs it.
func (s *Store) create(ctx context.Context, a models.Artifact) error {
	data, err := document.Encode(a)
	if err != nil {
		return fmt.Errorf("artifacts: encode: %w: %w", apperr.ErrStorage, err)
	}
	p := pathFor(a.Trigger, a.ID)
	if err := s.files.Create(p, data); err != nil {
		if errors.Is(err, apperr.ErrAlreadyExists) {
			return err
		}
		return fmt.Errorf("artifacts: publish %s: %w: %w", a.ID, apperr.ErrStorage, err)
	}
	if err := index.IndexFile(ctx, s.idx, p, data); err != nil {
		s.logger.Warn("artifact published but not indexed", "id", a.ID, "error", err)
	}
	s.logger.Info("artifact saved", "id", a.ID, "trigger", a.Trigger, "source", a.Source)
	return nil
}

// Get reads the artifact with id from storage. Unknown or malformed ids
// yield apperr.ErrNotFound.
func (s *Store) Get(_ context.Context, id string) (models.Artifact, error) {
	trigger, ok := triggerOf(id)
	if !ok {
		return models.Artifact{}, fmt.Errorf("artifacts: %q: %w", id, apperr.ErrNotFound)
	}
	data, err := s.files.Read(pathFor(trigger, id))
	if errors.Is(err, apperr.ErrNotFound) {
		return models.Artifact{}, fmt.Errorf("artifacts: %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return models.Artifact{}, fmt.Errorf("artifacts: read %s: %w: %w", id, apperr.ErrStorage, err)
	}
	a, err := document.Decode(data)
	if err != nil {
		return models.Artifact{}, fmt.Errorf("artifacts: decode %s: %w: %w", id, apperr.ErrStorage, err)
	}
	return a, nil
}

// List returns summaries newest first.
func (s *Store) List(ctx context.Context, f index.Filter) ([]models.ArtifactSummary, error) {
	if f.Keyword != "" {
		kw, err := keyword.Normalize(f.Keyword)
		if err != nil {
			return nil, err
		}
		f.Keyword = kw
	}
	rows, err := s.idx.ListArtifacts(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("artifacts: list: %w: %w", apperr.ErrStorage, err)
	}
	out := make([]models.ArtifactSummary, len(rows))
	for i, r := range rows {
		out[i] = r.Summary()
	}
	return out, nil
}

// Count returns how many artifacts match f, ignoring its limit and offset.
func (s *Store) Count(ctx context.Context, f index.Filter) (int, error) {
	if f.Keyword != "" {
		kw, err := keyword.Normalize(f.Keyword)
		if err != nil {
			return 0, err
		}
		f.Keyword = kw
	}
	n, err := s.idx.CountArtifacts(ctx, f)
	if err != nil {
		return 0, fmt.Errorf("artifacts: count: %w: %w", apperr.ErrStorage, err)
	}
	return n, nil
}

// Search runs a full-text query over stored posts.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]index.SearchResult, error) {
	res, err := s.idx.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("artifacts: search: %w: %w", apperr.ErrStorage, err)
	}
	return res, nil
}

// TodayDailyID returns the daily id for kw on the store's current calendar day.
func (s *Store) TodayDailyID(kw string) string {
	return s.DailyID(kw, s.now())
}
