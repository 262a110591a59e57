package loading

import (
	"context"
	"time"

	"github.com/scality/backbeat/shared-loading/pkg/counter/outcome"
	"golang.org/x/sync/errgroup"
)

// Task is a unit of work run under the tracker. The tracker never cancels
// ctx itself; it is handed to the task as is.
type Task func(ctx context.Context) error

// Func adapts a function that cannot fail.
func Func(f func()) Task {
	return func(context.Context) error {
		f()
		return nil
	}
}

// ErrFunc adapts a function that does not take a context.
func ErrFunc(f func() error) Task {
	return func(context.Context) error {
		return f()
	}
}

// Run counts task as running for as long as it executes. The count is
// released on every exit path, including a panic, which is re-raised once
// the release is done. A task error is returned as a *TaskFailure.
func (t *Tracker) Run(ctx context.Context, task Task) error {
	t.begin()
	return t.finish(ctx, task)
}

// Go starts task in its own goroutine. The task is counted as running
// before Go returns. The returned channel receives the result of Run and is
// never closed. A panic in task is not recovered.
func (t *Tracker) Go(ctx context.Context, task Task) <-chan error {
	done := make(chan error, 1)

	t.begin()

	go func() {
		done <- t.finish(ctx, task)
	}()

	return done
}

// RunAll runs every task concurrently through Run and returns the first
// failure. The context passed to the tasks is cancelled as soon as one of
// them fails.
func (t *Tracker) RunAll(ctx context.Context, tasks ...Task) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, task := range tasks {
		task := task

		g.Go(func() error {
			return t.Run(ctx, task)
		})
	}

	return g.Wait()
}

func (t *Tracker) begin() {
	t.add(1, outcome.Started)
}

func (t *Tracker) finish(ctx context.Context, task Task) (err error) {
	start := time.Now()
	returned := false

	defer func() {
		l := t.log.WithField("duration", time.Since(start))
		result := outcome.Succeeded

		switch {
		case !returned:
			result = outcome.Panicked
			l.Error("task did not return")

		case err != nil:
			result = outcome.Failed
			l.WithError(err).Debug("task failed")

		default:
			l.Trace("task done")
		}

		t.add(-1, result)
	}()

	if taskErr := task(ctx); taskErr != nil {
		err = &TaskFailure{Tracker: t.name, Err: taskErr}
	}

	returned = true

	return err
}
