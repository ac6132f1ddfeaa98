package brest

import (
	"context"
	"runtime"
	"slices"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"golang.org/x/sync/semaphore"
)

// Queues is a set of named worker queues. Each queue is an independent pool
// that runs at most its configured number of submitted functions at a time.
type Queues struct {
	defaultWorkers int64

	mu    sync.Mutex
	pools map[string]*semaphore.Weighted
	wg    sync.WaitGroup
}

// NewQueues inits the queues. Queues that were not defined explicitly are
// created on first use with 'defaultWorkers' workers, a value below one means
// GOMAXPROCS.
func NewQueues(defaultWorkers int) *Queues {
	if defaultWorkers < 1 {
		defaultWorkers = runtime.GOMAXPROCS(0)
	}

	return &Queues{
		defaultWorkers: int64(defaultWorkers),
		pools:          make(map[string]*semaphore.Weighted),
	}
}

// Define creates the named queue with a specific number of workers. It errors
// when the queue already exists.
func (q *Queues) Define(name string, workers int) error {
	if workers < 1 {
		return errors.Newf("queue %q needs at least one worker, got %d", name, workers)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.pools[name]; exists {
		return errors.Newf("queue %q already exists", name)
	}

	q.pools[name] = semaphore.NewWeighted(int64(workers))

	return nil
}

// Names returns the names of the queues that exist, sorted.
func (q *Queues) Names() []string {
	q.mu.Lock()
	defer q.mu.Unlock()

	names := lo.Keys(q.pools)
	slices.Sort(names)

	return names
}

// Submit schedules fn on the named queue and returns right away. A panic in fn
// completes the task with an error.
func (q *Queues) Submit(name string, fn func() error) *Task {
	sem := q.pool(name)
	task := newTask()

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()

		// Acquire cannot fail with a context that is never canceled.
		_ = sem.Acquire(context.Background(), 1)
		err := runRecovered(fn)
		sem.Release(1)

		// continuations run after the worker slot was given back
		task.complete(err)
	}()

	return task
}

// Wait blocks until every submitted function returned or the context is done.
func (q *Queues) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "wait for worker queues")
	}
}

func (q *Queues) pool(name string) *semaphore.Weighted {
	q.mu.Lock()
	defer q.mu.Unlock()

	sem, ok := q.pools[name]
	if !ok {
		sem = semaphore.NewWeighted(q.defaultWorkers)
		q.pools[name] = sem
	}

	return sem
}
