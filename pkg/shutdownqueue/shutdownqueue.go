// Package shutdownqueue provides a process-wide LIFO queue of cleanup tasks.
//
// Register tasks anywhere via Add and drain them at the end of main:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
//	defer cancel()
//	defer shutdownqueue.Shutdown(ctx)
//
// Tasks run once, in reverse registration order. Panics are recovered and
// reported as errors. Shutdown is idempotent and returns an aggregated error
// via errors.Join.
package shutdownqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Task is a shutdown function. It should honor ctx and return an error
// if it can't finish (or ctx is canceled).
type Task func(ctx context.Context) error

var defaultQueue = &queue{}

type queue struct {
	mu     sync.Mutex
	tasks  []Task
	closed bool
}

// Add registers a task to be run on Shutdown, in LIFO order.
// Safe to call from any goroutine. Nil tasks and tasks added after shutdown
// started are ignored.
func Add(t Task) {
	defaultQueue.add(t)
}

// Shutdown drains all registered tasks in LIFO order. Safe to call multiple
// times; later calls are no-ops. If ctx is canceled mid-drain, Shutdown stops
// early and reports the context error alongside any task errors.
func Shutdown(ctx context.Context) error {
	return defaultQueue.shutdown(ctx)
}

func (q *queue) add(t Task) {
	if t == nil {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.tasks = append(q.tasks, t)
}

func (q *queue) shutdown(ctx context.Context) error {
	q.mu.Lock()

	if q.closed && len(q.tasks) == 0 {
		q.mu.Unlock()

		return nil
	}

	q.closed = true
	tasks := q.tasks
	q.tasks = nil

	q.mu.Unlock()

	var errs []error

	for i := len(tasks) - 1; i >= 0; i-- {
		select {
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("shutdown canceled: %w", ctx.Err()))

			return errors.Join(errs...)
		default:
		}

		err := runTask(ctx, tasks[i])
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func runTask(ctx context.Context, t Task) (err error) {
	defer func() {
		r := recover()
		if r != nil {
			err = fmt.Errorf("panic in shutdown task: %v", r)
		}
	}()

	return t(ctx)
}
