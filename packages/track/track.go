// Package track
package track

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"serptrack/packages/domain"
	"serptrack/packages/metrics"
	"serptrack/packages/rank"
	"serptrack/packages/retry"
	"serptrack/packages/sitematch"
)

// Fetcher is one attempt at fetching a SERP page. *serper.Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, keyword string, page int) ([]domain.OrganicResult, error)
}

// ProgressFunc is invoked synchronously, exactly once per completed task,
// with completed monotonically increasing from 0 to total.
type ProgressFunc func(completed, total int, keyword string)

// MaxInFlightCap bounds the concurrent strategy regardless of configuration.
const MaxInFlightCap = 20

// Options are the tunables of the three scheduling strategies.
type Options struct {
	Strategy domain.Strategy
	// Sequential: fixed pause after every task.
	SequentialDelay time.Duration
	// Batched: tasks per batch and the pause between batches.
	BatchSize  int
	BatchPause time.Duration
	// Concurrent: semaphore width and the random pre-dispatch jitter bound.
	MaxInFlight int
	JitterMax   time.Duration
}

// Request is one tracking run's input.
type Request struct {
	Keywords       []string
	MaxPages       int
	TrackedDomains []string
	Progress       ProgressFunc
}

// Pre-flight input errors. These fail the whole run synchronously, before any
// network call; everything that goes wrong after validation is absorbed into
// the success rate and the debug log.
var (
	ErrNoKeywords         = errors.New("keyword list is empty")
	ErrNoTrackedDomains   = errors.New("tracked domain list is empty")
	ErrEmptyTrackedDomain = errors.New("tracked domain normalizes to empty string")
	ErrBadMaxPages        = errors.New("max pages must be between 1 and 10")
)

// Runner drives one RetryPolicy-wrapped Fetcher under a chosen strategy. The
// three strategies share one contract and one retry implementation, so a
// caller can switch profiles without changing calling code.
type Runner struct {
	fetcher Fetcher
	policy  retry.Policy
	opts    Options
}

func NewRunner(fetcher Fetcher, policy retry.Policy, opts Options) *Runner {
	if opts.SequentialDelay <= 0 {
		opts.SequentialDelay = 300 * time.Millisecond
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 5
	}
	if opts.BatchPause <= 0 {
		opts.BatchPause = time.Second
	}
	if opts.MaxInFlight <= 0 {
		opts.MaxInFlight = 10
	}
	if opts.MaxInFlight > MaxInFlightCap {
		opts.MaxInFlight = MaxInFlightCap
	}
	if opts.JitterMax <= 0 {
		opts.JitterMax = 500 * time.Millisecond
	}
	switch opts.Strategy {
	case domain.StrategySequential, domain.StrategyBatched, domain.StrategyConcurrent:
	default:
		opts.Strategy = domain.StrategySequential
	}
	return &Runner{fetcher: fetcher, policy: policy, opts: opts}
}

func validate(req Request) error {
	if len(req.Keywords) == 0 {
		return ErrNoKeywords
	}
	if len(req.TrackedDomains) == 0 {
		return ErrNoTrackedDomains
	}
	if req.MaxPages < 1 || req.MaxPages > 10 {
		return fmt.Errorf("%w: got %d", ErrBadMaxPages, req.MaxPages)
	}
	for _, site := range req.TrackedDomains {
		if sitematch.Normalize(site) == "" {
			return fmt.Errorf("%w: %q", ErrEmptyTrackedDomain, site)
		}
	}
	return nil
}

// Run fans out every (keyword, page) task under the configured strategy and
// returns the normalized ranking table. Individual task failures never abort
// the run; they surface only through SuccessRate and the debug log.
func (r *Runner) Run(ctx context.Context, req Request) (*domain.RunResult, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	run := newRunState(req)
	run.logf("run started: %d keywords, %d pages each, strategy=%s",
		len(req.Keywords), req.MaxPages, r.opts.Strategy)

	switch r.opts.Strategy {
	case domain.StrategyBatched:
		r.runBatched(ctx, run)
	case domain.StrategyConcurrent:
		r.runConcurrent(ctx, run)
	default:
		r.runSequential(ctx, run)
	}

	run.logf("run finished: %d succeeded, %d failed",
		run.stats.Successes(), run.stats.Failures())
	return run.finish(), nil
}

// runState is the run-scoped context shared by every task: the result
// accumulator, the progress counter, the debug log, and the retry counters.
// All of it is either atomic or guarded by mu; tasks complete from many
// goroutines under the batched and concurrent strategies.
type runState struct {
	req   Request
	total int
	stats retry.Stats

	mu      sync.Mutex
	results map[string]domain.KeywordResultSet
	log     []string
	done    int
}

func newRunState(req Request) *runState {
	return &runState{
		req:     req,
		total:   len(req.Keywords) * req.MaxPages,
		results: make(map[string]domain.KeywordResultSet, len(req.Keywords)),
	}
}

func (s *runState) logf(format string, args ...any) {
	line := time.Now().Format(time.RFC3339) + " " + fmt.Sprintf(format, args...)
	s.mu.Lock()
	s.log = append(s.log, line)
	s.mu.Unlock()
}

func (s *runState) appendResults(keyword string, results []domain.OrganicResult) {
	s.mu.Lock()
	s.results[keyword] = append(s.results[keyword], results...)
	s.mu.Unlock()
}

// taskDone advances the progress counter and fires the callback under the
// lock, so observers see a strictly monotonic count even when tasks finish
// concurrently.
func (s *runState) taskDone(keyword string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done++
	if s.req.Progress != nil {
		s.req.Progress(s.done, s.total, keyword)
	}
}

func (s *runState) allTasks() []domain.FetchTask {
	tasks := make([]domain.FetchTask, 0, s.total)
	for _, keyword := range s.req.Keywords {
		for page := 1; page <= s.req.MaxPages; page++ {
			tasks = append(tasks, domain.FetchTask{Keyword: keyword, Page: page})
		}
	}
	return tasks
}

// finish sorts each keyword's merged results by absolute rank, guarantees a
// map entry for every input keyword, and derives the ranking table.
func (s *runState) finish() *domain.RunResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, keyword := range s.req.Keywords {
		set := s.results[keyword]
		sort.Slice(set, func(i, j int) bool {
			return set[i].AbsoluteRank < set[j].AbsoluteRank
		})
		s.results[keyword] = set
	}

	return &domain.RunResult{
		Rankings:    rank.Extract(s.req.Keywords, s.results, s.req.TrackedDomains),
		RawResults:  s.results,
		SuccessRate: s.stats.SuccessRate(),
		DebugLog:    append([]string(nil), s.log...),
	}
}

// runTask executes one task through the shared retry policy and accounts for
// it exactly once. Returns the fetched results, nil on permanent failure.
func (r *Runner) runTask(ctx context.Context, run *runState, task domain.FetchTask) []domain.OrganicResult {
	results, err := r.policy.Do(ctx, &run.stats, func(ctx context.Context) ([]domain.OrganicResult, error) {
		return r.fetcher.Fetch(ctx, task.Keyword, task.Page)
	})
	if err != nil {
		metrics.Tasks.WithLabelValues("failure").Inc()
		run.logf("fetch failed: keyword=%q page=%d: %v", task.Keyword, task.Page, err)
		run.taskDone(task.Keyword)
		return nil
	}
	metrics.Tasks.WithLabelValues("success").Inc()
	run.logf("fetched: keyword=%q page=%d results=%d", task.Keyword, task.Page, len(results))
	run.appendResults(task.Keyword, results)
	run.taskDone(task.Keyword)
	return results
}

// sleepCtx pauses for d, returning false if the context ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
