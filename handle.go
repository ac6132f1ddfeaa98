package brest

import (
	"net/http"
)

// ResponseWriter implements the http.ResponseWriter but the underlying bytes are buffered. This allows
// hooks to inspect the final status and reset the writer to formulate a completely new response.
type ResponseWriter interface {
	http.ResponseWriter
	Status() int
	Reset()
	Free()
	FlushBuffer() error
}

// HandlerKind tells the two handler flavours apart.
type HandlerKind int

const (
	// KindImmediate handlers are done when their function returns.
	KindImmediate HandlerKind = iota + 1
	// KindSeries handlers receive the request's [Series] and may extend it with
	// further asynchronous steps before the response is considered final.
	KindSeries
)

func (k HandlerKind) String() string {
	switch k {
	case KindImmediate:
		return "immediate"
	case KindSeries:
		return "series"
	default:
		return "invalid"
	}
}

// ImmediateFunc is the signature of an immediate handler.
type ImmediateFunc func(w ResponseWriter, r *http.Request)

// SeriesFunc is the signature of a series handler.
type SeriesFunc func(w ResponseWriter, r *http.Request, s *Series)

// Handler is a tagged union of the two handler kinds. The zero value is not a
// valid handler; construct one with [Immediate], [SeriesHandler] or [Std].
type Handler struct {
	kind      HandlerKind
	immediate ImmediateFunc
	series    SeriesFunc
}

// Immediate wraps f as an immediate handler.
func Immediate(f ImmediateFunc) Handler {
	return Handler{kind: KindImmediate, immediate: f}
}

// SeriesHandler wraps f as a series handler.
func SeriesHandler(f SeriesFunc) Handler {
	return Handler{kind: KindSeries, series: f}
}

// Std adapts a standard library [http.Handler]. It writes into the buffered
// response like any other handler and owns its own error responses.
func Std(h http.Handler) Handler {
	return Immediate(func(w ResponseWriter, r *http.Request) {
		h.ServeHTTP(w, r)
	})
}

// Kind returns the handler flavour.
func (h Handler) Kind() HandlerKind { return h.kind }

// Valid reports whether the handler was constructed properly.
func (h Handler) Valid() bool {
	switch h.kind {
	case KindImmediate:
		return h.immediate != nil
	case KindSeries:
		return h.series != nil
	default:
		return false
	}
}

func (h Handler) invoke(w ResponseWriter, r *http.Request, s *Series) {
	switch h.kind {
	case KindImmediate:
		h.immediate(w, r)
	case KindSeries:
		h.series(w, r, s)
	default:
		panic("brest: invoked an invalid handler")
	}
}
