package crawler_test

import (
	"context"
	"sync"

	"github.com/gruntwork-io/cloud-inventory/internal/crawler"
)

// recordingVisitor records visits in order and delegates dispatch to a configurable strategy:
// run tasks inline (the default), collect them for later, or submit them to a worker pool.
type recordingVisitor struct {
	mu       sync.Mutex
	client   crawler.Client
	dispatch func(task crawler.Task)

	visited    []string
	visitedRes []*crawler.Resource
	dispatches int
	taskErrs   []error
	pending    []crawler.Task
}

func newRecordingVisitor(client crawler.Client) *recordingVisitor {
	v := &recordingVisitor{client: client}

	// Inline dispatch keeps visitation order deterministic for assertions.
	v.dispatch = func(task crawler.Task) {
		if err := task(); err != nil {
			v.mu.Lock()
			v.taskErrs = append(v.taskErrs, err)
			v.mu.Unlock()
		}
	}

	return v
}

func (v *recordingVisitor) Visit(_ context.Context, res *crawler.Resource) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.visited = append(v.visited, res.ResourceKey().String())
	v.visitedRes = append(v.visitedRes, res)
}

func (v *recordingVisitor) Dispatch(task crawler.Task) {
	v.mu.Lock()
	v.dispatches++
	dispatch := v.dispatch
	v.mu.Unlock()

	dispatch(task)
}

func (v *recordingVisitor) Client() crawler.Client {
	return v.client
}

func (v *recordingVisitor) visitedKeys() []string {
	v.mu.Lock()
	defer v.mu.Unlock()

	return append([]string(nil), v.visited...)
}

func (v *recordingVisitor) dispatchCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.dispatches
}

// collectDispatch switches the visitor to collecting dispatched tasks instead of running them,
// so tests can observe the state between dispatch and execution.
func (v *recordingVisitor) collectDispatch() {
	v.dispatch = func(task crawler.Task) {
		v.mu.Lock()
		defer v.mu.Unlock()

		v.pending = append(v.pending, task)
	}
}

// runPending runs collected tasks until no new ones are dispatched.
func (v *recordingVisitor) runPending() []error {
	var errs []error

	for {
		v.mu.Lock()
		pending := v.pending
		v.pending = nil
		v.mu.Unlock()

		if len(pending) == 0 {
			return errs
		}

		for _, task := range pending {
			if err := task(); err != nil {
				errs = append(errs, err)
			}
		}
	}
}

func (v *recordingVisitor) resourceByKey(key string) *crawler.Resource {
	v.mu.Lock()
	defer v.mu.Unlock()

	for i, visited := range v.visited {
		if visited == key {
			return v.visitedRes[i]
		}
	}

	return nil
}
