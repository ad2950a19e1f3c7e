// Package background runs best-effort tasks that outlive the request that
// started them: cache prewarming and stroke-diagram mirroring.
package background

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// Runner executes named tasks with bounded concurrency. Go never blocks the
// caller: a task submitted while every slot is busy is dropped.
type Runner struct {
	log     *slog.Logger
	sem     *semaphore.Weighted
	timeout time.Duration
	wg      sync.WaitGroup

	closed  atomic.Bool
	dropped atomic.Uint64
	failed  atomic.Uint64
}

// NewRunner creates a Runner with at most workers concurrent tasks, each
// limited to timeout.
func NewRunner(log *slog.Logger, workers int, timeout time.Duration) *Runner {
	if workers <= 0 {
		workers = 1
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Runner{
		log:     log.With("service", "background"),
		sem:     semaphore.NewWeighted(int64(workers)),
		timeout: timeout,
	}
}

// Go starts fn on its own context. Errors and panics are logged and swallowed.
func (r *Runner) Go(name string, fn func(ctx context.Context) error) {
	if r.closed.Load() {
		r.drop(name, "runner closed")
		return
	}
	if !r.sem.TryAcquire(1) {
		r.drop(name, "all workers busy")
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.sem.Release(1)

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		if err := r.run(ctx, fn); err != nil {
			r.failed.Add(1)
			r.log.Warn("background task failed",
				slog.String("task", name),
				slog.String("error", err.Error()),
			)
		}
	}()
}

func (r *Runner) run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return fn(ctx)
}

func (r *Runner) drop(name, reason string) {
	r.dropped.Add(1)
	r.log.Warn("background task dropped",
		slog.String("task", name),
		slog.String("reason", reason),
	)
}

// Wait stops accepting tasks and waits for running ones to finish or for ctx
// to end, whichever comes first.
func (r *Runner) Wait(ctx context.Context) error {
	r.closed.Store(true)

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("background tasks still running: %w", ctx.Err())
	}
}

// Dropped returns the number of tasks that were never started.
func (r *Runner) Dropped() uint64 { return r.dropped.Load() }

// Failed returns the number of tasks that returned an error or panicked.
func (r *Runner) Failed() uint64 { return r.failed.Load() }
