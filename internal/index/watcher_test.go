package index

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/starford/seopress/internal/apperr"
	"github.com/starford/seopress/internal/document"
	"github.com/starford/seopress/internal/models"
	"github.com/starford/seopress/internal/storage"
)

// watcherTestEnv sets up a store dir, storage, and DB for watcher tests.
func watcherTestEnv(t *testing.T) (string, storage.Provider, *DB) {
	t.Helper()
	root := t.TempDir()
	store, err := storage.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	return root, store, testDB(t)
}

func quiet() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// writeDoc writes a valid artifact document for the file name at rel.
func writeDoc(t *testing.T, root, rel string) {
	t.Helper()
	id := strings.TrimSuffix(filepath.Base(rel), document.Ext)
	body := "<html><body><article><h1>" + id + "</h1><p>searchable text</p></article></body></html>"
	data, err := document.Encode(models.Artifact{
		ID: id, Keyword: "kw", Title: id, CreatedAt: time.Now(),
		Source: models.SourceFallback, Trigger: models.TriggerManual, HTMLBody: body,
	})
	if err != nil {
		t.Fatal(err)
	}
	abs := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func indexed(db *DB, id string) bool {
	_, err := db.GetArtifact(context.Background(), id)
	return err == nil
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestSync_IndexesAndPrunes(t *testing.T) {
	root, store, db := watcherTestEnv(t)
	ctx := context.Background()
	writeDoc(t, root, "manual/manual-a-20261019T090000.post")
	writeDoc(t, root, "manual/manual-b-20261019T090000.post")
	_ = os.WriteFile(filepath.Join(root, "manual", "broken.post"), []byte("garbage"), 0o644)

	if err := Sync(ctx, db, store, quiet()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if !indexed(db, "manual-a-20261019T090000") || !indexed(db, "manual-b-20261019T090000") {
		t.Fatal("files not indexed")
	}

	_ = os.Remove(filepath.Join(root, "manual", "manual-a-20261019T090000.post"))
	if err := Sync(ctx, db, store, quiet()); err != nil {
		t.Fatal(err)
	}
	if _, err := db.GetArtifact(ctx, "manual-a-20261019T090000"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("stale entry kept: %v", err)
	}
}

func TestIndexFile_IDMustMatchName(t *testing.T) {
	root, _, db := watcherTestEnv(t)
	writeDoc(t, root, "manual/manual-a-20261019T090000.post")
	data, _ := os.ReadFile(filepath.Join(root, "manual", "manual-a-20261019T090000.post"))
	err := IndexFile(context.Background(), db, "manual/other.post", data)
	if !errors.Is(err, document.ErrMalformed) {
		t.Fatalf("err = %v, want ErrMalformed", err)
	}
}

func TestWatcher_NewFileIndexed(t *testing.T) {
	root, store, db := watcherTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var events []string

	go Watch(ctx, db, store, root, quiet(), func(kind, path string) {
		mu.Lock()
		events = append(events, kind+":"+path)
		mu.Unlock()
	})

	time.Sleep(100 * time.Millisecond)

	writeDoc(t, root, "manual-new-20261019T090000.post")

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return indexed(db, "manual-new-20261019T090000")
	}, "new file not indexed by watcher")

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range events {
			if strings.HasSuffix(e, ":manual-new-20261019T090000.post") {
				return true
			}
		}
		return false
	}, "expected callback for new file")
}

func TestWatcher_NewDirWatched(t *testing.T) {
	root, store, db := watcherTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, root, quiet(), nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.MkdirAll(filepath.Join(root, "daily"), 0o755)
	time.Sleep(100 * time.Millisecond)
	writeDoc(t, root, "daily/daily-deep-20261019.post")

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return indexed(db, "daily-deep-20261019")
	}, "file in new subdir not indexed by watcher")
}

func TestWatcher_DeleteRemovesFromIndex(t *testing.T) {
	root, store, db := watcherTestEnv(t)

	writeDoc(t, root, "manual/manual-del-20261019T090000.post")
	if err := Sync(context.Background(), db, store, quiet()); err != nil {
		t.Fatal(err)
	}
	if !indexed(db, "manual-del-20261019T090000") {
		t.Fatal("precondition: file should be indexed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, root, quiet(), nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.Remove(filepath.Join(root, "manual", "manual-del-20261019T090000.post"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return !indexed(db, "manual-del-20261019T090000")
	}, "deleted file still in index")
}

func TestWatcher_RenameReconciles(t *testing.T) {
	root, store, db := watcherTestEnv(t)

	writeDoc(t, root, "manual/manual-mv-20261019T090000.post")
	_ = os.MkdirAll(filepath.Join(root, "archive"), 0o755)
	if err := Sync(context.Background(), db, store, quiet()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, root, quiet(), nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.Rename(
		filepath.Join(root, "manual", "manual-mv-20261019T090000.post"),
		filepath.Join(root, "archive", "manual-mv-20261019T090000.post"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		r, err := db.GetArtifact(context.Background(), "manual-mv-20261019T090000")
		return err == nil && r.Path == "archive/manual-mv-20261019T090000.post"
	}, "rename reconciliation failed: artifact should be indexed at its new path")
}
