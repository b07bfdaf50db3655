// Package worker provides a concurrent task execution system with a configurable number of workers.
//
// The Pool limits the number of goroutines running simultaneously with a semaphore while keeping
// task submission non-blocking. Submitted tasks are independent units of work: they may execute
// out of order relative to each other and relative to the submitting call's continuation, and no
// completion guarantee is made until Wait is called. Errors returned by tasks are collected and
// aggregated rather than aborting the remaining tasks, so one failed task never takes down its
// siblings.
package worker

import (
	"sync"
	"sync/atomic"

	"github.com/gruntwork-io/cloud-inventory/internal/errors"
)

// Task represents a unit of work that can be executed.
type Task func() error

// Pool manages concurrent task execution with a configurable number of workers.
type Pool struct {
	semaphore   chan struct{}
	allErrors   *errors.MultiError
	wg          sync.WaitGroup
	allErrorsMu sync.Mutex
	isStopping  atomic.Bool
}

// NewWorkerPool creates a new worker pool with the specified maximum number of concurrent workers.
func NewWorkerPool(maxWorkers int) *Pool {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}

	return &Pool{
		semaphore: make(chan struct{}, maxWorkers),
		allErrors: &errors.MultiError{},
	}
}

// Submit adds a new task and starts a goroutine to execute it when a worker is available.
// Submit never blocks the caller and makes no guarantee about when the task runs relative
// to tasks submitted before or after it.
func (wp *Pool) Submit(task Task) {
	// Don't accept new tasks if the pool is stopping.
	if wp.isStopping.Load() {
		return
	}

	wp.wg.Add(1)

	go func() {
		defer wp.wg.Done()

		wp.semaphore <- struct{}{}

		defer func() { <-wp.semaphore }()

		if err := task(); err != nil {
			wp.appendError(err)
		}
	}()
}

// Wait blocks until all submitted tasks are completed and returns the aggregated errors, if any.
// Tasks may keep submitting further tasks while Wait is blocked; Wait returns only once the
// pool has fully drained.
func (wp *Pool) Wait() error {
	wp.wg.Wait()

	wp.allErrorsMu.Lock()
	defer wp.allErrorsMu.Unlock()

	return wp.allErrors.ErrorOrNil()
}

// GracefulStop prevents new task submissions, waits for all in-flight tasks to
// complete and returns the aggregated errors, if any.
func (wp *Pool) GracefulStop() error {
	wp.isStopping.Store(true)

	return wp.Wait()
}

// IsStopping returns whether the pool no longer accepts task submissions.
func (wp *Pool) IsStopping() bool {
	return wp.isStopping.Load()
}

// appendError safely appends an error to allErrors.
func (wp *Pool) appendError(err error) {
	wp.allErrorsMu.Lock()
	wp.allErrors = wp.allErrors.Append(err)
	wp.allErrorsMu.Unlock()
}
