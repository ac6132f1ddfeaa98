package brest

import (
	"net/http"
	"sync"
	"sync/atomic"
)

// Hook is called around every dispatched request. Before runs prior to the
// handler, After once the handler and every asynchronous step it produced
// resolved. A hook cannot prevent the handler from running, a hook that rejects
// a request has to write the response itself.
type Hook interface {
	Before(w ResponseWriter, r *http.Request)
	After(w ResponseWriter, r *http.Request)
}

// HookFuncs adapts plain functions to the [Hook] interface. Nil fields are skipped.
type HookFuncs struct {
	BeforeFunc func(w ResponseWriter, r *http.Request)
	AfterFunc  func(w ResponseWriter, r *http.Request)
}

// Before calls BeforeFunc.
func (h HookFuncs) Before(w ResponseWriter, r *http.Request) {
	if h.BeforeFunc != nil {
		h.BeforeFunc(w, r)
	}
}

// After calls AfterFunc.
func (h HookFuncs) After(w ResponseWriter, r *http.Request) {
	if h.AfterFunc != nil {
		h.AfterFunc(w, r)
	}
}

// Pipeline is the ordered list of hooks that is applied to every request. It is
// append-only until sealed and read without locking after that.
type Pipeline struct {
	mu     sync.Mutex
	hooks  []Hook
	sealed atomic.Bool
}

// NewPipeline inits an empty pipeline.
func NewPipeline(hooks ...Hook) *Pipeline {
	p := &Pipeline{}
	p.Use(hooks...)

	return p
}

// Use appends hooks to the pipeline.
func (p *Pipeline) Use(hooks ...Hook) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.sealed.Load() {
		panic("brest: cannot call Use() after serving has started")
	}

	p.hooks = append(p.hooks, hooks...)
}

// Seal freezes the pipeline.
func (p *Pipeline) Seal() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.sealed.Store(true)
}

// Sealed reports whether the pipeline was sealed.
func (p *Pipeline) Sealed() bool { return p.sealed.Load() }

// Len returns the number of hooks.
func (p *Pipeline) Len() int { return len(p.hooks) }

func (p *Pipeline) before(w ResponseWriter, r *http.Request) {
	for _, h := range p.hooks {
		h.Before(w, r)
	}
}

func (p *Pipeline) after(w ResponseWriter, r *http.Request) {
	for _, h := range p.hooks {
		h.After(w, r)
	}
}
