package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/starford/seopress/internal/models"
	"github.com/starford/seopress/internal/testutil"
)

type fakeRunner struct {
	mu    sync.Mutex
	calls int
	err   error
	panic bool
}

func (f *fakeRunner) RunDaily(_ context.Context, kw string) (models.Artifact, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.panic {
		panic("runner exploded")
	}
	if f.err != nil {
		return models.Artifact{}, false, f.err
	}
	return models.Artifact{ID: "daily-" + kw + "-20261019", Keyword: kw}, f.calls == 1, nil
}

// fakeTimer hands out channels the test fires manually.
type fakeTimer struct {
	waits chan time.Duration
	fire  chan time.Time
}

func newFakeTimer() *fakeTimer {
	return &fakeTimer{waits: make(chan time.Duration, 16), fire: make(chan time.Time)}
}

func (f *fakeTimer) After(d time.Duration) <-chan time.Time {
	f.waits <- d
	return f.fire
}

func TestNextFire(t *testing.T) {
	loc := time.UTC
	cases := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"before today's slot", time.Date(2026, 10, 19, 8, 59, 0, 0, loc), time.Date(2026, 10, 19, 9, 0, 0, 0, loc)},
		{"exactly at slot", time.Date(2026, 10, 19, 9, 0, 0, 0, loc), time.Date(2026, 10, 20, 9, 0, 0, 0, loc)},
		{"after slot", time.Date(2026, 10, 19, 15, 0, 0, 0, loc), time.Date(2026, 10, 20, 9, 0, 0, 0, loc)},
		{"month end", time.Date(2026, 10, 31, 10, 0, 0, 0, loc), time.Date(2026, 11, 1, 9, 0, 0, 0, loc)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := NextFire(c.now, 9, 0, loc); !got.Equal(c.want) {
				t.Errorf("NextFire = %v, want %v", got, c.want)
			}
		})
	}
}

func TestNextFire_OtherZone(t *testing.T) {
	tz := time.FixedZone("UTC-5", -5*3600)
	// 13:30 UTC is 08:30 in UTC-5, so 09:00 local is still ahead.
	now := time.Date(2026, 10, 19, 13, 30, 0, 0, time.UTC)
	got := NextFire(now, 9, 0, tz)
	if want := time.Date(2026, 10, 19, 14, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("NextFire = %v, want %v", got, want)
	}
}

func TestParseTimeOfDay(t *testing.T) {
	h, m, err := ParseTimeOfDay("09:30")
	if err != nil || h != 9 || m != 30 {
		t.Errorf("ParseTimeOfDay = %d, %d, %v", h, m, err)
	}
	for _, bad := range []string{"", "9", "25:00", "09:60", "nine"} {
		if _, _, err := ParseTimeOfDay(bad); err == nil {
			t.Errorf("ParseTimeOfDay(%q) should fail", bad)
		}
	}
}

func TestRun_FiresAndRecordsState(t *testing.T) {
	clock := testutil.NewClock(time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC))
	timer := newFakeTimer()
	runner := &fakeRunner{}
	fired := make(chan FireResult, 4)

	s, err := New(runner, "wireless earbuds", "09:00", time.UTC,
		WithClock(clock.Now, timer.After),
		WithLogger(testutil.Logger()),
		WithFireHook(func(r FireResult) { fired <- r }))
	if err != nil {
		t.Fatal(err)
	}
	if st := s.Snapshot(); st.Running || st.NextFireTime != nil || st.TimeOfDay != "09:00" {
		t.Errorf("initial state = %+v", st)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	if d := <-timer.waits; d != time.Hour {
		t.Errorf("first wait = %v, want 1h", d)
	}
	st := s.Snapshot()
	if !st.Running || st.NextFireTime == nil || st.NextFireTime.Hour() != 9 {
		t.Errorf("state before fire = %+v", st)
	}

	clock.Set(time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC))
	timer.fire <- clock.Now()

	res := <-fired
	if res.Status != StatusSuccess || !res.Created || res.ArtifactID != "daily-wireless earbuds-20261019" {
		t.Errorf("fire result = %+v", res)
	}
	if d := <-timer.waits; d != 24*time.Hour {
		t.Errorf("second wait = %v, want 24h", d)
	}
	st = s.Snapshot()
	if st.LastFireResult == nil || st.LastFireResult.Status != StatusSuccess || st.Firing {
		t.Errorf("state after fire = %+v", st)
	}
	if want := time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC); !st.NextFireTime.Equal(want) {
		t.Errorf("next fire = %v, want %v", st.NextFireTime, want)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
	if st := s.Snapshot(); st.Running {
		t.Error("still running after cancel")
	}
}

func TestRun_FailureAndPanicKeepLoopAlive(t *testing.T) {
	clock := testutil.NewClock(time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC))
	timer := newFakeTimer()
	runner := &fakeRunner{err: errors.New("disk full")}
	fired := make(chan FireResult, 4)

	s, _ := New(runner, "yoga mat", "09:00", time.UTC,
		WithClock(clock.Now, timer.After),
		WithLogger(testutil.Logger()),
		WithFireHook(func(r FireResult) { fired <- r }))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	<-timer.waits
	timer.fire <- clock.Now()
	res := <-fired
	if res.Status != StatusFailure || res.Reason != "disk full" {
		t.Errorf("failure result = %+v", res)
	}

	<-timer.waits
	runner.mu.Lock()
	runner.panic = true
	runner.mu.Unlock()
	timer.fire <- clock.Now()
	res = <-fired
	if res.Status != StatusFailure || res.Reason != "panic: runner exploded" {
		t.Errorf("panic result = %+v", res)
	}

	// The loop is still scheduling.
	<-timer.waits
	if st := s.Snapshot(); !st.Running || st.LastFireResult.Status != StatusFailure {
		t.Errorf("state = %+v", st)
	}
}

func TestNew_InvalidTime(t *testing.T) {
	if _, err := New(&fakeRunner{}, "kw", "9am", time.UTC); err == nil {
		t.Fatal("expected error")
	}
}
