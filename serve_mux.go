package brest

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// RequestContextFunc derives the context a request is dispatched with. An
// [*Error] it returns is rendered with its code, any other error as a 500.
type RequestContextFunc func(r *http.Request) (context.Context, error)

// TrackFunc is called once the response of a request is final, right before it
// is written to the client.
type TrackFunc func(w ResponseWriter, r *http.Request, elapsed time.Duration)

// Option configures the ServeMux.
type Option func(*ServeMux)

// WithBufferLimit limits the number of bytes a response may buffer. Writes
// beyond it fail and the response becomes a 507. A negative limit disables it.
func WithBufferLimit(n int) Option { return func(m *ServeMux) { m.bufLimit = n } }

// WithLogger configures where serving errors are reported.
func WithLogger(l Logger) Option { return func(m *ServeMux) { m.logs = l } }

// WithServerName sets the value of the Server header of every response.
func WithServerName(name string) Option { return func(m *ServeMux) { m.serverName = name } }

// WithCORSOrigin sets the Access-Control-Allow-Origin header of every response.
// An empty origin omits the header.
func WithCORSOrigin(origin string) Option { return func(m *ServeMux) { m.corsOrigin = origin } }

// WithMaxRequestsPerConn closes a connection after it served n requests. It
// requires [ServeMux.ConnContext] to be installed on the http.Server. Zero
// means unlimited.
func WithMaxRequestsPerConn(n int) Option { return func(m *ServeMux) { m.maxReqPerConn = int64(n) } }

// WithRequestSizeLimit limits request bodies to n bytes. Zero means unlimited.
func WithRequestSizeLimit(n int64) Option { return func(m *ServeMux) { m.reqSizeLimit = n } }

// WithRequestContext installs a function that derives the dispatch context.
func WithRequestContext(f RequestContextFunc) Option { return func(m *ServeMux) { m.reqCtx = f } }

// WithTrack installs an access tracking function.
func WithTrack(f TrackFunc) Option { return func(m *ServeMux) { m.track = f } }

// WithQueues sets the worker queues that offloaded handlers run on.
func WithQueues(q *Queues) Option { return func(m *ServeMux) { m.queues = q } }

// WithPipeline sets the hook pipeline. Hooks can still be added with [ServeMux.Use].
func WithPipeline(p *Pipeline) Option { return func(m *ServeMux) { m.pipeline = p } }

// ServeMux adapts a [Router] to net/http. Every response is buffered and only
// written once the request's [Series] resolved, so hooks observe and may change
// the final response. Routing failures are rendered as JSON.
type ServeMux struct {
	*Router

	logs          Logger
	bufLimit      int
	serverName    string
	corsOrigin    string
	maxReqPerConn int64
	reqSizeLimit  int64
	reqCtx        RequestContextFunc
	track         TrackFunc
	queues        *Queues
	pipeline      *Pipeline
}

// NewServeMux creates a new ServeMux.
func NewServeMux(opts ...Option) *ServeMux {
	m := &ServeMux{
		logs:       NewZapLogger(zap.NewNop()),
		bufLimit:   -1,
		serverName: "brest",
		corsOrigin: "*",
	}

	for _, opt := range opts {
		opt(m)
	}

	m.Router = NewRouter(m.pipeline, m.queues)

	return m
}

// ConnContext is meant for http.Server's ConnContext field. It allows the mux
// to count requests per connection.
func (m *ServeMux) ConnContext(ctx context.Context, _ net.Conn) context.Context {
	return context.WithValue(ctx, ctxKeyConnRequests, new(atomic.Int64))
}

// ServeHTTP makes the server mux implement the http.Handler interface.
func (m *ServeMux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	m.Seal()

	if m.maxReqPerConn > 0 {
		if cnt, ok := r.Context().Value(ctxKeyConnRequests).(*atomic.Int64); ok && cnt.Add(1) >= m.maxReqPerConn {
			w.Header().Set("Connection", "close")
		}
	}

	bw := newBufferResponse(w, m.bufLimit)
	defer bw.Free()

	m.setStdHeaders(bw)

	if r.Host == "" {
		m.writeStatus(bw, http.StatusBadRequest, "header Host not found")
		m.flush(bw)

		return
	}

	if m.reqSizeLimit > 0 && r.Body != nil {
		r.Body = http.MaxBytesReader(w, r.Body, m.reqSizeLimit)
	}

	ctx := context.WithValue(r.Context(), ctxKeyStart, start)
	if m.reqCtx != nil {
		var err error
		if ctx, err = m.reqCtx(r.WithContext(ctx)); err != nil {
			m.writeError(bw, r, errors.Wrap(err, "init request context"))
			m.flush(bw)

			return
		}
	}

	r = r.WithContext(ctx)

	var handled error

	s := NewSeries(m.Queues())
	s.OnDone(func() {
		if handled = s.Err(); handled != nil {
			m.writeError(bw, r, handled)
		}

		if bw.overflowed {
			m.writeError(bw, r, ErrBufferFull)
		}
	})

	task, err := m.call(bw, r, s)
	if err != nil {
		m.writeError(bw, r, err)
	}

	if m.track != nil {
		s.OnDone(func() { m.track(bw, r, time.Since(start)) })
	}

	s.Link(task)
	s.Release()
	<-s.Done()

	if err := s.Err(); err != nil && !errors.Is(err, handled) {
		m.logs.LogUnhandledServeError(err)
	}

	m.flush(bw)
}

// call dispatches the request and turns a panic of an inline handler into an error.
func (m *ServeMux) call(bw *ResponseBuffer, r *http.Request, s *Series) (task *Task, err error) {
	err = runRecovered(func() error {
		var cerr error
		task, cerr = m.Router.Call(Verb(r.Method), r.URL.Path, bw, r, s)

		return cerr
	})

	return task, err
}

// writeError replaces the buffered response with a JSON error body. Routing
// errors carry "VERB path" as their message, other errors without a code are
// reported and answered with a 500.
func (m *ServeMux) writeError(bw *ResponseBuffer, r *http.Request, err error) {
	herr, ok := asError(err)
	if !ok || herr.Code() == CodeUnknown {
		m.logs.LogUnhandledServeError(err)
		m.writeStatus(bw, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))

		return
	}

	msg := http.StatusText(int(herr.Code()))
	if errors.Is(err, ErrRouteNotFound) || errors.Is(err, ErrVerbNotAllowed) {
		msg = r.Method + " " + NormalizePath(r.URL.Path)
	}

	m.writeStatus(bw, int(herr.Code()), msg)

	if allowed := herr.Allowed(); len(allowed) > 0 {
		bw.Header().Set("Allow", strings.Join(lo.Map(allowed, func(v Verb, _ int) string {
			return v.String()
		}), ", "))
	}
}

// writeStatus replaces the buffered response with a JSON error body.
func (m *ServeMux) writeStatus(bw *ResponseBuffer, code int, msg string) {
	if bw.Flushed() {
		m.logs.LogUnhandledServeError(errors.Newf("response already flushed, dropped %d response: %s", code, msg))
		return
	}

	bw.limit = -1 // the error body must always fit
	if err := WriteError(bw, code, msg); err != nil {
		m.logs.LogUnhandledServeError(err)
	}
}

func (m *ServeMux) setStdHeaders(bw *ResponseBuffer) {
	if m.serverName != "" && bw.Header().Get("Server") == "" {
		bw.Header().Set("Server", m.serverName)
	}

	if m.corsOrigin != "" && bw.Header().Get("Access-Control-Allow-Origin") == "" {
		bw.Header().Set("Access-Control-Allow-Origin", m.corsOrigin)
	}
}

func (m *ServeMux) flush(bw *ResponseBuffer) {
	m.setStdHeaders(bw)

	if err := bw.FlushBuffer(); err != nil {
		m.logs.LogImplicitFlushError(err)
	}
}

type errorBody struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// WriteError discards what was written to 'w' so far and writes a JSON body of
// the form {"code":404,"msg":"GET /foo"} with the code as status.
func WriteError(w ResponseWriter, code int, msg string) error {
	w.Reset()
	w.Header().Set("Content-Type", "application/json;charset=UTF-8")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(errorBody{Code: code, Msg: msg}); err != nil {
		return errors.Wrap(err, "encode error body")
	}

	return nil
}

const (
	ctxKeyConnRequests = ctxKey("conn_requests")
	ctxKeyStart        = ctxKey("start")
)

// RequestStart returns the time the mux started serving the request.
func RequestStart(ctx context.Context) (time.Time, bool) {
	t, ok := ctx.Value(ctxKeyStart).(time.Time)
	return t, ok
}
