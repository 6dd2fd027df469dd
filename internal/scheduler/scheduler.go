// Package scheduler fires the daily generation once per day at a fixed local
// time of day.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/starford/seopress/internal/models"
)

// Fire outcomes.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Runner produces today's daily artifact for a keyword.
type Runner interface {
	RunDaily(ctx context.Context, keyword string) (models.Artifact, bool, error)
}

// FireResult records the outcome of one fire.
type FireResult struct {
	Status     string    `json:"status"`
	Keyword    string    `json:"keyword"`
	ArtifactID string    `json:"artifact_id,omitempty"`
	Created    bool      `json:"created"`
	Reason     string    `json:"reason,omitempty"`
	At         time.Time `json:"at"`
}

// State is an immutable snapshot of the scheduler.
type State struct {
	Running        bool        `json:"is_running"`
	Firing         bool        `json:"firing"`
	Keyword        string      `json:"keyword"`
	TimeOfDay      string      `json:"time_of_day"`
	Timezone       string      `json:"timezone"`
	NextFireTime   *time.Time  `json:"next_fire_time"`
	LastFireResult *FireResult `json:"last_fire_result"`
}

// Scheduler runs the daily job. Only the goroutine executing Run mutates its
// state; Snapshot may be called from anywhere.
type Scheduler struct {
	runner  Runner
	keyword string
	hour    int
	minute  int
	loc     *time.Location
	logger  *slog.Logger
	now     func() time.Time
	after   func(time.Duration) <-chan time.Time
	onFire  func(FireResult)

	state atomic.Pointer[State]
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock overrides the wall clock and timer used to wait for the next fire.
func WithClock(now func() time.Time, after func(time.Duration) <-chan time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
		if after != nil {
			s.after = after
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// WithFireHook registers fn to be called after every fire.
func WithFireHook(fn func(FireResult)) Option {
	return func(s *Scheduler) { s.onFire = fn }
}

// New creates a Scheduler that runs keyword daily at timeOfDay ("HH:MM") in loc.
func New(runner Runner, keyword, timeOfDay string, loc *time.Location, opts ...Option) (*Scheduler, error) {
	h, m, err := ParseTimeOfDay(timeOfDay)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.Local
	}
	s := &Scheduler{
		runner:  runner,
		keyword: keyword,
		hour:    h,
		minute:  m,
		loc:     loc,
		logger:  slog.Default(),
		now:     time.Now,
		after:   time.After,
	}
	for _, o := range opts {
		o(s)
	}
	s.publish(func(*State) {})
	return s, nil
}

// ParseTimeOfDay parses "HH:MM" in 24-hour form.
func ParseTimeOfDay(v string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, 0, fmt.Errorf("scheduler: invalid time of day %q: want HH:MM", v)
	}
	return t.Hour(), t.Minute(), nil
}

// NextFire returns the next instant after now at hour:minute in loc: today's
// if it is still strictly in the future, otherwise tomorrow's.
func NextFire(now time.Time, hour, minute int, loc *time.Location) time.Time {
	local := now.In(loc)
	t := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !t.After(now) {
		t = time.Date(local.Year(), local.Month(), local.Day()+1, hour, minute, 0, 0, loc)
	}
	return t
}

// Snapshot returns the current state without blocking.
func (s *Scheduler) Snapshot() State {
	return *s.state.Load()
}

// publish stores a new snapshot derived from the current one.
func (s *Scheduler) publish(mutate func(*State)) {
	next := State{
		Keyword:   s.keyword,
		TimeOfDay: fmt.Sprintf("%02d:%02d", s.hour, s.minute),
		Timezone:  s.loc.String(),
	}
	if cur := s.state.Load(); cur != nil {
		next = *cur
	}
	mutate(&next)
	s.state.Store(&next)
}

// Run fires the job at every scheduled time until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler: started", "keyword", s.keyword, "time_of_day", s.Snapshot().TimeOfDay, "timezone", s.loc.String())
	defer func() {
		s.publish(func(st *State) {
			st.Running = false
			st.NextFireTime = nil
		})
		s.logger.Info("scheduler: stopped")
	}()

	for {
		now := s.now()
		next := NextFire(now, s.hour, s.minute, s.loc)
		s.publish(func(st *State) {
			st.Running = true
			st.NextFireTime = &next
		})

		select {
		case <-ctx.Done():
			return nil
		case <-s.after(next.Sub(now)):
		}
		s.fire(ctx)
	}
}

func (s *Scheduler) fire(ctx context.Context) {
	s.publish(func(st *State) { st.Firing = true })
	res := s.runOnce(ctx)
	s.publish(func(st *State) {
		st.Firing = false
		st.LastFireResult = &res
	})

	if res.Status == StatusSuccess {
		s.logger.Info("scheduler: fired", "keyword", res.Keyword, "artifact_id", res.ArtifactID, "created", res.Created)
	} else {
		s.logger.Error("scheduler: fire failed", "keyword", res.Keyword, "reason", res.Reason)
	}
	if s.onFire != nil {
		s.onFire(res)
	}
}

// runOnce calls the runner, turning errors and panics into a failure result.
func (s *Scheduler) runOnce(ctx context.Context) (res FireResult) {
	defer func() {
		if r := recover(); r != nil {
			res = FireResult{Status: StatusFailure, Keyword: s.keyword, Reason: fmt.Sprintf("panic: %v", r), At: s.now()}
		}
	}()
	a, created, err := s.runner.RunDaily(ctx, s.keyword)
	if err != nil {
		return FireResult{Status: StatusFailure, Keyword: s.keyword, Reason: err.Error(), At: s.now()}
	}
	return FireResult{Status: StatusSuccess, Keyword: a.Keyword, ArtifactID: a.ID, Created: created, At: s.now()}
}
