// Package retry
package retry

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"serptrack/packages/domain"
)

// ErrRateLimited signals an HTTP 429 from the provider. Retryable with
// growing backoff.
var ErrRateLimited = errors.New("rate limited by provider")

// TransientError is a retryable failure: network timeout, decode error, or
// any non-200 status other than 429.
type TransientError struct {
	Detail string
}

func (e TransientError) Error() string {
	return "transient error: " + e.Detail
}

// PermanentError is returned once the retry budget is exhausted. It wraps the
// final attempt's error and is recorded as one failed task; it never aborts
// the run.
type PermanentError struct {
	Attempts int
	Err      error
}

func (e PermanentError) Error() string {
	return fmt.Sprintf("permanent failure after %d attempts: %v", e.Attempts, e.Err)
}

func (e PermanentError) Unwrap() error { return e.Err }

// Stats holds the run-scoped success/failure counters. They are shared by
// every task in a run and updated atomically; nothing reads them mid-run in a
// way that needs a consistent snapshot.
type Stats struct {
	successes atomic.Int64
	failures  atomic.Int64
}

func (s *Stats) RecordSuccess() { s.successes.Add(1) }
func (s *Stats) RecordFailure() { s.failures.Add(1) }

func (s *Stats) Successes() int64 { return s.successes.Load() }
func (s *Stats) Failures() int64  { return s.failures.Load() }

// SuccessRate is successes / (successes + failures), 0 when nothing ran.
func (s *Stats) SuccessRate() float64 {
	ok := s.successes.Load()
	total := ok + s.failures.Load()
	if total == 0 {
		return 0
	}
	return float64(ok) / float64(total)
}

// Policy wraps a fetch with a bounded attempt loop. It carries no per-task
// state; only the shared Stats counters outlive a call.
type Policy struct {
	// MaxAttempts is the total attempt budget, including the first try.
	MaxAttempts int
	// RateLimitBackoff is multiplied by the attempt index after a 429.
	RateLimitBackoff time.Duration
	// MaxBackoff caps a single rate-limit sleep so a stalled provider
	// cannot hold a batch open indefinitely.
	MaxBackoff time.Duration
	// TransientDelay is the fixed pause after a transient failure.
	TransientDelay time.Duration
}

// DefaultPolicy mirrors the provider's documented limits: three attempts,
// 2s-per-attempt rate-limit backoff capped at 30s, 1s transient delay.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:      3,
		RateLimitBackoff: 2 * time.Second,
		MaxBackoff:       30 * time.Second,
		TransientDelay:   time.Second,
	}
}

// FetchFunc is one attempt at a (keyword, page) fetch.
type FetchFunc func(ctx context.Context) ([]domain.OrganicResult, error)

// Do runs fn until it succeeds or the attempt budget is spent. The first
// success increments stats and returns immediately; exhaustion increments the
// failure counter and returns a PermanentError wrapping the last attempt's
// error. Context cancellation cuts a backoff sleep short and counts as a
// permanent failure.
func (p Policy) Do(ctx context.Context, stats *Stats, fn FetchFunc) ([]domain.OrganicResult, error) {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		results, err := fn(ctx)
		if err == nil {
			stats.RecordSuccess()
			return results, nil
		}
		lastErr = err

		if attempt == p.MaxAttempts {
			break
		}

		var delay time.Duration
		if errors.Is(err, ErrRateLimited) {
			delay = time.Duration(attempt) * p.RateLimitBackoff
			if p.MaxBackoff > 0 && delay > p.MaxBackoff {
				delay = p.MaxBackoff
			}
		} else {
			delay = p.TransientDelay
		}

		select {
		case <-ctx.Done():
			stats.RecordFailure()
			return nil, PermanentError{Attempts: attempt, Err: ctx.Err()}
		case <-time.After(delay):
		}
	}

	stats.RecordFailure()
	return nil, PermanentError{Attempts: p.MaxAttempts, Err: lastErr}
}
