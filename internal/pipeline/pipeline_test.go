package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/starford/seopress/internal/affiliate"
	"github.com/starford/seopress/internal/apperr"
	"github.com/starford/seopress/internal/artifacts"
	"github.com/starford/seopress/internal/composer"
	"github.com/starford/seopress/internal/index"
	"github.com/starford/seopress/internal/keyword"
	"github.com/starford/seopress/internal/models"
	"github.com/starford/seopress/internal/seo"
	"github.com/starford/seopress/internal/testutil"
)

var day = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

// countingComposer wraps the real composer and counts calls.
type countingComposer struct {
	inner *composer.Composer
	calls atomic.Int32
	delay time.Duration
}

func (c *countingComposer) Compose(ctx context.Context, kw string, m models.SeoMetrics) (composer.Result, error) {
	c.calls.Add(1)
	time.Sleep(c.delay)
	return c.inner.Compose(ctx, kw, m)
}

type failingComposer struct{}

func (failingComposer) Compose(context.Context, string, models.SeoMetrics) (composer.Result, error) {
	return composer.Result{}, apperr.ErrGeneration
}

const postHTML = `<h1>Best Yoga Mats Reviewed</h1>
<p>This guide to the yoga mat covers grip, thickness, and materials for every kind of practice.</p>
<h2>What to Look For</h2>
<p>Grip matters most. <a href="{{AFF_LINK_1}}">See our top pick</a>.</p>
<h2>Conclusion</h2>
<p>Choose the mat that suits your style.</p>`

// gatedBackend answers with postHTML once released and reports whether the
// context it was handed had been cancelled by then.
type gatedBackend struct {
	started   chan struct{}
	release   chan struct{}
	cancelled atomic.Bool
}

func newGatedBackend() *gatedBackend {
	return &gatedBackend{started: make(chan struct{}, 1), release: make(chan struct{})}
}

func (b *gatedBackend) Complete(ctx context.Context, _ string) (string, error) {
	b.started <- struct{}{}
	<-b.release
	if err := ctx.Err(); err != nil {
		b.cancelled.Store(true)
		return "", err
	}
	return postHTML, nil
}

type recorder struct {
	mu  sync.Mutex
	ids []string
}

func (r *recorder) ArtifactCreated(s models.ArtifactSummary) {
	r.mu.Lock()
	r.ids = append(r.ids, s.ID)
	r.mu.Unlock()
}

type env struct {
	p        *Pipeline
	store    *artifacts.Store
	composer *countingComposer
	notified *recorder
	clock    *testutil.Clock
}

func newEnv(t *testing.T) *env {
	t.Helper()
	clock := testutil.NewClock(day)
	logger := testutil.Logger()
	_, files := testutil.TestFiles(t)
	store := artifacts.NewStore(files, testutil.TestDB(t),
		artifacts.WithLocation(time.UTC), artifacts.WithClock(clock.Now), artifacts.WithLogger(logger))
	cc := &countingComposer{inner: composer.New(nil, logger)}
	rec := &recorder{}
	p := New(seo.NewProvider(), cc, affiliate.New(affiliate.Config{}, logger), store,
		WithNotifier(rec), WithLogger(logger), WithClock(clock.Now))
	return &env{p: p, store: store, composer: cc, notified: rec, clock: clock}
}

func TestGenerate_NoSave(t *testing.T) {
	e := newEnv(t)
	res, err := e.p.Generate(context.Background(), "Wireless Earbuds", false)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Keyword != "wireless earbuds" || res.Source != models.SourceFallback || res.Reason != composer.ReasonNoCredential {
		t.Errorf("result = %s %s %s", res.Keyword, res.Source, res.Reason)
	}
	if !strings.Contains(res.Content.Title, "wireless earbuds") || res.Content.WordCount <= 0 {
		t.Errorf("content = %q words=%d", res.Content.Title, res.Content.WordCount)
	}
	if strings.Contains(res.HTML, "{{AFF_LINK_") || !strings.Contains(res.HTML, "amazon.com/affiliate/product1") {
		t.Error("affiliate placeholders not resolved in page")
	}
	if res.SEO.MonthlySearchVolume != 10000 {
		t.Errorf("seo = %+v", res.SEO)
	}
	if res.Artifact != nil || res.RunID == "" {
		t.Errorf("artifact=%v run_id=%q", res.Artifact, res.RunID)
	}
	list, _ := e.store.List(context.Background(), index.Filter{})
	if len(list) != 0 {
		t.Errorf("unsaved generation persisted %d artifacts", len(list))
	}
}

func TestGenerate_Save(t *testing.T) {
	e := newEnv(t)
	res, err := e.p.Generate(context.Background(), "yoga mat", true)
	if err != nil {
		t.Fatal(err)
	}
	if res.Artifact == nil || res.Artifact.Trigger != models.TriggerManual {
		t.Fatalf("artifact = %+v", res.Artifact)
	}
	got, err := e.store.Get(context.Background(), res.Artifact.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.HTMLBody != res.HTML {
		t.Error("stored body differs from rendered page")
	}
	if len(e.notified.ids) != 1 || e.notified.ids[0] != res.Artifact.ID {
		t.Errorf("notified = %v", e.notified.ids)
	}
}

func TestGenerate_InvalidKeyword(t *testing.T) {
	e := newEnv(t)
	if _, err := e.p.Generate(context.Background(), "   ", true); !errors.Is(err, apperr.ErrInvalidKeyword) {
		t.Fatalf("err = %v", err)
	}
}

func TestGenerate_GenerationError(t *testing.T) {
	e := newEnv(t)
	e.p.composer = failingComposer{}
	if _, err := e.p.Generate(context.Background(), "yoga mat", false); !errors.Is(err, apperr.ErrGeneration) {
		t.Fatalf("err = %v", err)
	}
}

func TestRunDaily_Idempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	first, created, err := e.p.RunDaily(ctx, "wireless earbuds")
	if err != nil || !created {
		t.Fatalf("first run: created=%v err=%v", created, err)
	}
	if first.ID != "daily-"+keyword.Key("wireless earbuds")+"-20261019" {
		t.Errorf("id = %q", first.ID)
	}

	e.clock.Advance(2 * time.Hour)
	again, created, err := e.p.RunDaily(ctx, "Wireless  Earbuds")
	if err != nil || created || again.ID != first.ID {
		t.Fatalf("second run: created=%v id=%s err=%v", created, again.ID, err)
	}
	if n := e.composer.calls.Load(); n != 1 {
		t.Errorf("composer calls = %d, want 1 (second run should short-circuit)", n)
	}
	if len(e.notified.ids) != 1 {
		t.Errorf("notifications = %d, want 1", len(e.notified.ids))
	}
}

func TestRunDaily_ConcurrentCallsShareOneRun(t *testing.T) {
	e := newEnv(t)
	e.composer.delay = 50 * time.Millisecond
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make([]string, 10)
	for i := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, _, err := e.p.RunDaily(ctx, "gaming mouse")
			if err != nil {
				t.Errorf("RunDaily: %v", err)
				return
			}
			ids[i] = a.ID
		}()
	}
	wg.Wait()

	for _, id := range ids {
		if id != e.store.DailyID("gaming mouse", day) {
			t.Errorf("id = %q", id)
		}
	}
	list, _ := e.store.List(ctx, index.Filter{Trigger: models.TriggerDaily})
	if len(list) != 1 {
		t.Errorf("daily artifacts = %d, want 1", len(list))
	}
}

func TestRunDaily_NextDayCreatesNew(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	if _, _, err := e.p.RunDaily(ctx, "coffee maker"); err != nil {
		t.Fatal(err)
	}
	e.clock.Advance(24 * time.Hour)
	a, created, err := e.p.RunDaily(ctx, "coffee maker")
	if err != nil || !created || a.ID != "daily-"+keyword.Key("coffee maker")+"-20261020" {
		t.Errorf("next day: created=%v id=%s err=%v", created, a.ID, err)
	}
}

// runAfterCallerLeaves starts run with an AI backend, cancels the caller's
// context while the completion is in flight and returns the stored artifact.
func runAfterCallerLeaves(t *testing.T, run func(ctx context.Context, e *env) (models.Artifact, error)) (*env, models.Artifact) {
	t.Helper()
	e := newEnv(t)
	backend := newGatedBackend()
	e.composer.inner = composer.New(backend, testutil.Logger())

	ctx, cancel := context.WithCancel(context.Background())
	type outcome struct {
		a   models.Artifact
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		a, err := run(ctx, e)
		done <- outcome{a, err}
	}()

	<-backend.started
	cancel()
	close(backend.release)

	var out outcome
	select {
	case out = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("run did not finish")
	}
	if out.err != nil {
		t.Fatalf("run: %v", out.err)
	}
	if backend.cancelled.Load() {
		t.Error("backend saw the caller's cancellation")
	}
	return e, out.a
}

func TestRunDaily_CallerCancelKeepsAIContent(t *testing.T) {
	e, a := runAfterCallerLeaves(t, func(ctx context.Context, e *env) (models.Artifact, error) {
		a, _, err := e.p.RunDaily(ctx, "yoga mat")
		return a, err
	})
	if a.Source != models.SourceAI {
		t.Fatalf("source = %s, want ai", a.Source)
	}
	stored, err := e.store.Get(context.Background(), a.ID)
	if err != nil || stored.Source != models.SourceAI {
		t.Fatalf("stored = %s, %v", stored.Source, err)
	}
	list, _ := e.store.List(context.Background(), index.Filter{Trigger: models.TriggerDaily})
	if len(list) != 1 || list[0].ID != a.ID {
		t.Errorf("indexed = %+v", list)
	}
}

func TestGenerate_SaveCallerCancelKeepsAIContent(t *testing.T) {
	e, a := runAfterCallerLeaves(t, func(ctx context.Context, e *env) (models.Artifact, error) {
		res, err := e.p.Generate(ctx, "yoga mat", true)
		if err != nil {
			return models.Artifact{}, err
		}
		if res.Source != models.SourceAI {
			return models.Artifact{}, errors.New("source " + string(res.Source))
		}
		return *res.Artifact, nil
	})
	if a.Source != models.SourceAI || a.Trigger != models.TriggerManual {
		t.Fatalf("artifact = %s %s", a.Source, a.Trigger)
	}
	list, _ := e.store.List(context.Background(), index.Filter{Trigger: models.TriggerManual})
	if len(list) != 1 || list[0].ID != a.ID {
		t.Errorf("indexed = %+v", list)
	}
}
