package brest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"text/tabwriter"

	"github.com/cockroachdb/errors"
)

// DefaultDocument is requested when the request path is the root.
const DefaultDocument = "/index.html"

// Router resolves requests against its routes and dispatches them. Routes are
// registered through the embedded [Group]. The router seals itself, and its
// pipeline, on the first call. Registering routes or hooks after that panics.
// Requests for "/" are looked up as [DefaultDocument].
type Router struct {
	*Group
	pipeline   *Pipeline
	queues     *Queues
	dispatcher *Dispatcher
	sealOnce   sync.Once
}

// NewRouter inits a router. A nil pipeline or nil queues are replaced by empty ones.
func NewRouter(pipeline *Pipeline, queues *Queues) *Router {
	if pipeline == nil {
		pipeline = NewPipeline()
	}

	if queues == nil {
		queues = NewQueues(0)
	}

	return &Router{
		Group:      NewGroup(),
		pipeline:   pipeline,
		queues:     queues,
		dispatcher: NewDispatcher(pipeline, queues),
	}
}

// Use appends hooks to the router's pipeline.
func (rt *Router) Use(hooks ...Hook) { rt.pipeline.Use(hooks...) }

// Pipeline returns the router's pipeline.
func (rt *Router) Pipeline() *Pipeline { return rt.pipeline }

// Queues returns the worker queues that offloaded handlers run on.
func (rt *Router) Queues() *Queues { return rt.queues }

// Seal freezes the routes and the pipeline.
func (rt *Router) Seal() {
	rt.sealOnce.Do(func() {
		rt.sealed.Store(true)
		rt.pipeline.Seal()
	})
}

// Lookup resolves the verb and path without dispatching. The root path is
// looked up as [DefaultDocument].
func (rt *Router) Lookup(verb Verb, path string) (*Match, error) {
	path = NormalizePath(path)
	if path == "/" {
		path = DefaultDocument
	}

	return rt.table.Lookup(verb, path)
}

// Call resolves the verb and path, binds the captured parameters to the request
// and dispatches it. A non-nil task is returned for a handler that runs on a
// worker queue and must be linked into 's' by the caller. Failures are returned
// as an [*Error] with [CodeNotFound] or [CodeMethodNotAllowed], formatting a
// response for them is left to the caller.
func (rt *Router) Call(verb Verb, path string, w ResponseWriter, r *http.Request, s *Series) (*Task, error) {
	rt.Seal()

	match, err := rt.Lookup(verb, path)
	if err != nil {
		return nil, err
	}

	r = r.WithContext(context.WithValue(r.Context(), ctxKeyMatch, match))
	for name, val := range match.Params {
		r.SetPathValue(name, val)
	}

	return rt.dispatcher.Dispatch(match.Record, w, r, s), nil
}

// AllRoutes lists every (pattern, verb) pair, ordered by pattern descending
// and verb ascending.
func (rt *Router) AllRoutes() []RouteInfo {
	return rt.table.Routes()
}

// PrintRoutes writes the route listing to 'w', one route per line.
func (rt *Router) PrintRoutes(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, ri := range rt.AllRoutes() {
		queue := ri.Queue
		if queue == "" {
			queue = "-"
		}

		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", ri.Verb, ri.Pattern, ri.Kind, queue); err != nil {
			return errors.Wrap(err, "write route")
		}
	}

	if err := tw.Flush(); err != nil {
		return errors.Wrap(err, "flush routes")
	}

	return nil
}

type ctxKey string

const ctxKeyMatch = ctxKey("match")

// MatchFromContext returns the route match of the request being dispatched.
func MatchFromContext(ctx context.Context) (*Match, bool) {
	m, ok := ctx.Value(ctxKeyMatch).(*Match)
	return m, ok
}

// WildcardPath returns the path remainder the route's wildcard matched, or an
// empty string.
func WildcardPath(r *http.Request) string {
	m, ok := MatchFromContext(r.Context())
	if !ok {
		return ""
	}

	return m.Wildcard
}
