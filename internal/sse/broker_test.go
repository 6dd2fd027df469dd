package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/seopress/internal/models"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: "scheduler.fired", Data: map[string]string{"id": "daily-a-20261019"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: scheduler.fired") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"id":"daily-a-20261019"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestChangeEvents_PostsChangedThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// First change should trigger posts.changed.
	b.ArtifactCreated(models.ArtifactSummary{ID: "manual-a-20261019T090000", URL: "/posts/manual-a-20261019T090000"})
	// Second change immediately should NOT trigger another posts.changed.
	b.PublishFileEvent("deleted", "manual/manual-b-20261019T090000.post")

	// Drain and count events.
	time.Sleep(50 * time.Millisecond)
	var changed, created, files int
loop:
	for {
		select {
		case msg := <-ch:
			s := string(msg)
			switch {
			case strings.Contains(s, "event: "+TypePostsChanged):
				changed++
			case strings.Contains(s, "event: "+TypeArtifactCreated):
				created++
				if !strings.Contains(s, `"url":"/posts/manual-a-20261019T090000"`) {
					t.Errorf("summary missing from %q", s)
				}
			case strings.Contains(s, "event: file.deleted"):
				files++
			}
		default:
			break loop
		}
	}

	if created != 1 || files != 1 {
		t.Errorf("created = %d, file events = %d, want 1 each", created, files)
	}
	if changed != 1 {
		t.Errorf("posts.changed events = %d, want 1 (throttled)", changed)
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	// Start handler in background.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	// Give handler time to subscribe.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.ArtifactCreated(models.ArtifactSummary{ID: "daily-x-20261019"})
	time.Sleep(50 * time.Millisecond)

	// Cancel context to disconnect.
	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: artifact.created") {
		t.Errorf("handler output missing event: %q", body)
	}

	// Client should be cleaned up.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Fill buffer (capacity 64) and then one more should not block.
	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: "test", Data: map[string]string{"i": "x"}})
	}
	// If we reach here without deadlock, the test passes.
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// Should be safe no-op after close.
	b.Publish(Event{Type: "scheduler.fired", Data: map[string]string{}})
	b.PublishFileEvent("updated", "daily/x.post")
	b.ArtifactCreated(models.ArtifactSummary{})
}
