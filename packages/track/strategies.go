package track

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"serptrack/packages/domain"
	"serptrack/packages/metrics"
)

// runSequential keeps one task in flight at a time with a fixed pause after
// every task. A keyword's page loop stops early once a page comes back empty
// or permanently failed: deeper pages cannot exist, so they are resolved as
// empty successes and still advance the progress counter.
func (r *Runner) runSequential(ctx context.Context, run *runState) {
	for _, keyword := range run.req.Keywords {
		exhausted := false
		for page := 1; page <= run.req.MaxPages; page++ {
			if exhausted {
				run.logf("skipped: keyword=%q page=%d (previous page empty)", keyword, page)
				run.taskDone(keyword)
				continue
			}
			results := r.runTask(ctx, run, domain.FetchTask{Keyword: keyword, Page: page})
			if len(results) == 0 {
				exhausted = true
			}
			sleepCtx(ctx, r.opts.SequentialDelay)
		}
	}
}

// runBatched chunks all tasks into fixed-size batches and awaits each batch
// on a worker pool the size of the batch, pausing between batches. Every
// requested page is attempted; there is no early-stop, because batch members
// for one keyword run out of order.
func (r *Runner) runBatched(ctx context.Context, run *runState) {
	tasks := run.allTasks()
	for start := 0; start < len(tasks); start += r.opts.BatchSize {
		end := min(start+r.opts.BatchSize, len(tasks))
		batch := tasks[start:end]

		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(len(batch))
		for _, task := range batch {
			currentTask := task
			g.Go(func() error {
				r.runTask(gCtx, run, currentTask)
				return nil
			})
		}
		_ = g.Wait()

		if end < len(tasks) {
			sleepCtx(ctx, r.opts.BatchPause)
		}
	}
}

// runConcurrent submits every task at once against one counting semaphore.
// A small random jitter before each dispatch spreads the initial burst;
// exceeding the provider's rate limit is still expected and handled by the
// retry policy, not treated as fatal.
func (r *Runner) runConcurrent(ctx context.Context, run *runState) {
	sem := semaphore.NewWeighted(int64(r.opts.MaxInFlight))
	var wg sync.WaitGroup

	for _, task := range run.allTasks() {
		currentTask := task
		wg.Add(1)
		go func() {
			defer wg.Done()
			sleepCtx(ctx, time.Duration(rand.Int63n(int64(r.opts.JitterMax))))
			if err := sem.Acquire(ctx, 1); err != nil {
				run.stats.RecordFailure()
				metrics.Tasks.WithLabelValues("failure").Inc()
				run.logf("not dispatched: keyword=%q page=%d: %v",
					currentTask.Keyword, currentTask.Page, err)
				run.taskDone(currentTask.Keyword)
				return
			}
			defer sem.Release(1)
			r.runTask(ctx, run, currentTask)
		}()
	}
	wg.Wait()
}
