package brest

import (
	"net/http"
)

// Dispatcher invokes handler records with the pipeline's hooks around them.
type Dispatcher struct {
	pipeline *Pipeline
	queues   *Queues
}

// NewDispatcher inits a dispatcher. Handler records that name a queue are
// submitted to 'queues'.
func NewDispatcher(pipeline *Pipeline, queues *Queues) *Dispatcher {
	return &Dispatcher{pipeline: pipeline, queues: queues}
}

// Dispatch runs the before hooks and then the handler, inline or on the record's
// queue. For a queued handler the returned task must be linked into the series
// by the caller, for an inline handler it is nil. When hooks are installed their
// After callbacks are registered as a continuation of the series. The pipeline
// is sealed on the first dispatch.
func (d *Dispatcher) Dispatch(rec *HandlerRecord, w ResponseWriter, r *http.Request, s *Series) *Task {
	if !d.pipeline.Sealed() {
		d.pipeline.Seal()
	}

	if d.pipeline.Len() > 0 {
		d.pipeline.before(w, r)
		s.OnDone(func() { d.pipeline.after(w, r) })
	}

	if rec.Queue == "" {
		rec.Handler.invoke(w, r, s)
		return nil
	}

	return d.queues.Submit(rec.Queue, func() error {
		rec.Handler.invoke(w, r, s)
		return nil
	})
}
