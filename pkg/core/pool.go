package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	units "github.com/docker/go-units"
	"github.com/oneconcern/mrdev/pkg/core/status"
	"github.com/oneconcern/mrdev/pkg/errors"
	"github.com/oneconcern/mrdev/pkg/vcs"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// job is a queued operation on a working copy
type job struct {
	wc   vcs.WorkingCopy
	op   operation
	opts vcs.Options
}

func (j job) run(ctx context.Context) (string, error) {
	if j.op == opUpdate {
		return j.wc.Update(ctx, j.opts)
	}
	return j.wc.Checkout(ctx, j.opts)
}

// batchRun is the state shared by the workers of a batch
type batchRun struct {
	queue  chan job
	failed atomic.Bool

	mu   sync.Mutex
	errs error
}

// process runs all jobs and aggregates their errors.
// Workers stop picking up jobs as soon as one has failed.
func (w *WorkingCopies) process(ctx context.Context, jobs []job) error {
	if len(jobs) == 0 {
		return nil
	}
	run := &batchRun{queue: make(chan job, len(jobs))}
	for _, j := range jobs {
		run.queue <- j
	}
	close(run.queue)

	start := time.Now()
	workers := w.threads
	if workers > len(jobs) {
		workers = len(jobs)
	}
	if workers <= 1 {
		w.work(ctx, run)
	} else {
		var g errgroup.Group
		for i := 0; i < workers; i++ {
			g.Go(func() error {
				w.work(ctx, run)
				return nil
			})
		}
		_ = g.Wait()
	}
	w.l.Debug("batch done",
		zap.Int("operations", len(jobs)),
		zap.Int("workers", workers),
		zap.String("duration", units.HumanDuration(time.Since(start))),
	)

	if !run.failed.Load() {
		return nil
	}
	w.l.Error("There have been errors, see messages above.")
	failures := multierr.Errors(run.errs)
	return errors.Errorf("%d of %d operations failed", len(failures), len(jobs)).
		Wrap(multierr.Combine(append([]error{status.ErrBatchFailed}, failures...)...))
}

// work drains the queue without blocking
func (w *WorkingCopies) work(ctx context.Context, run *batchRun) {
	for !run.failed.Load() {
		var j job
		select {
		case next, ok := <-run.queue:
			if !ok {
				return
			}
			j = next
		default:
			return
		}

		out, err := j.run(ctx)
		w.report(j, out, err)
		if err != nil {
			run.mu.Lock()
			run.errs = multierr.Append(run.errs, err)
			run.mu.Unlock()
			run.failed.Store(true)
		}
	}
}

// report flushes the messages and output of a job under the IO lock
func (w *WorkingCopies) report(j job, out string, err error) {
	w.env.IOLock.Lock()
	defer w.env.IOLock.Unlock()

	w.flush(j.wc.Messages())
	if err != nil {
		w.logError(err)
		return
	}
	if j.opts.Verbose && strings.TrimSpace(out) != "" {
		fmt.Fprintln(w.out, out)
	}
}
