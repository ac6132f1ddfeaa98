package brest

import (
	"sync"

	"github.com/cockroachdb/errors"
)

// Task is the handle of asynchronous work, usually a handler body that was
// submitted to a worker queue.
type Task struct {
	mu       sync.Mutex
	done     chan struct{}
	err      error
	conts    []func(error)
	finished bool
}

func newTask() *Task {
	return &Task{done: make(chan struct{})}
}

// Done is closed once the task completed.
func (t *Task) Done() <-chan struct{} { return t.done }

// Err returns the error the task completed with. It is nil before Done is closed.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.err
}

// Then registers fn to be called with the task's error once it completes. If the
// task already completed fn is called right away.
func (t *Task) Then(fn func(err error)) {
	t.mu.Lock()
	if !t.finished {
		t.conts = append(t.conts, fn)
		t.mu.Unlock()

		return
	}
	err := t.err
	t.mu.Unlock()

	fn(err)
}

func (t *Task) complete(err error) {
	t.mu.Lock()
	if t.finished {
		t.mu.Unlock()
		panic("brest: task completed twice")
	}

	t.finished, t.err = true, err
	conts := t.conts
	t.conts = nil
	t.mu.Unlock()

	close(t.done)

	for _, fn := range conts {
		fn(err)
	}
}

// Series is the completion graph of a single request. Series handlers receive
// it to extend the request with further asynchronous steps. The response is only
// considered final when every step resolved, at which point the registered
// continuations run in registration order, exactly once.
type Series struct {
	queues *Queues

	mu       sync.Mutex
	pending  int
	conts    []func()
	err      error
	finished bool
	done     chan struct{}
}

// NewSeries inits a series that holds one token on behalf of its creator. The
// series cannot resolve before that token is given back with [Series.Release].
func NewSeries(queues *Queues) *Series {
	return &Series{
		queues:  queues,
		pending: 1,
		done:    make(chan struct{}),
	}
}

// Go runs fn on its own goroutine as a step of the series.
func (s *Series) Go(fn func() error) {
	s.add()

	go func() {
		s.finish(runRecovered(fn))
	}()
}

// Submit runs fn as a step of the series on the named worker queue.
func (s *Series) Submit(queue string, fn func() error) {
	if s.queues == nil {
		panic("brest: series has no worker queues to submit to")
	}

	s.Link(s.queues.Submit(queue, fn))
}

// Link makes the series wait for the task. A nil task is ignored.
func (s *Series) Link(t *Task) {
	if t == nil {
		return
	}

	s.add()
	t.Then(s.finish)
}

// OnDone registers fn to run once every step of the series resolved. Continuations
// run in registration order on the goroutine that resolved the last step.
func (s *Series) OnDone(fn func()) {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		panic("brest: continuation added to a finished series")
	}

	s.conts = append(s.conts, fn)
	s.mu.Unlock()
}

// Release gives back the token held by the creator of the series.
func (s *Series) Release() { s.finish(nil) }

// Done is closed after the continuations ran.
func (s *Series) Done() <-chan struct{} { return s.done }

// Err returns the first error that any step or continuation produced.
func (s *Series) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.err
}

func (s *Series) add() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished {
		panic("brest: step added to a finished series")
	}

	s.pending++
}

func (s *Series) finish(err error) {
	s.mu.Lock()
	if err != nil && s.err == nil {
		s.err = err
	}

	s.pending--
	if s.pending > 0 {
		s.mu.Unlock()
		return
	}

	if s.pending < 0 {
		s.mu.Unlock()
		panic("brest: series released more often than it was extended")
	}

	s.finished = true
	conts := s.conts
	s.conts = nil
	s.mu.Unlock()

	for _, fn := range conts {
		if err := runRecovered(func() error { fn(); return nil }); err != nil {
			s.mu.Lock()
			if s.err == nil {
				s.err = err
			}
			s.mu.Unlock()
		}
	}

	close(s.done)
}

// runRecovered calls fn and turns a panic into an error.
func runRecovered(fn func() error) (err error) {
	defer func() {
		if v := recover(); v != nil {
			if perr, ok := v.(error); ok {
				err = errors.Wrap(perr, "panic")
				return
			}

			err = errors.Newf("panic: %v", v)
		}
	}()

	return fn()
}
