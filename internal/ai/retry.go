package ai

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// Retrier runs a Backend call with a per-attempt timeout and exponential backoff.
type Retrier struct {
	backend     Backend
	maxRetries  int
	baseBackoff time.Duration
	timeout     time.Duration
	logger      *slog.Logger

	// sleep waits for d or until ctx is done.
	sleep func(ctx context.Context, d time.Duration) error
}

// RetryPolicy bounds the number and spacing of attempts.
type RetryPolicy struct {
	MaxRetries  int
	BaseBackoff time.Duration
	Timeout     time.Duration
}

// NewRetrier wraps backend with policy.
func NewRetrier(backend Backend, policy RetryPolicy, logger *slog.Logger) *Retrier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retrier{
		backend:     backend,
		maxRetries:  max(policy.MaxRetries, 0),
		baseBackoff: policy.BaseBackoff,
		timeout:     policy.Timeout,
		logger:      logger,
		sleep:       sleepCtx,
	}
}

// Complete calls the backend up to MaxRetries+1 times. Delays double from
// BaseBackoff (1s, 2s, ...). Non-retryable errors return immediately.
func (r *Retrier) Complete(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		text, err := r.attempt(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if attempt == r.maxRetries || !Retryable(err) || ctx.Err() != nil {
			break
		}

		delay := r.baseBackoff << attempt
		r.logger.Warn("ai: attempt failed, retrying",
			slog.Int("attempt", attempt+1),
			slog.Duration("backoff", delay),
			slog.String("error", err.Error()))
		if err := r.sleep(ctx, delay); err != nil {
			return "", err
		}
	}
	return "", lastErr
}

func (r *Retrier) attempt(ctx context.Context, prompt string) (string, error) {
	if r.timeout <= 0 {
		return r.backend.Complete(ctx, prompt)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.backend.Complete(attemptCtx, prompt)
}

// Retryable reports whether err is worth another attempt. Client errors other
// than 408 and 429 are permanent; a cancelled parent context is too.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		switch se.Code {
		case http.StatusRequestTimeout, http.StatusTooManyRequests:
			return true
		}
		return se.Code >= http.StatusInternalServerError
	}
	return true
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
