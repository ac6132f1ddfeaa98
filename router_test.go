package brest_test

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/advdv/brest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// callLog records the order in which hooks and handlers are invoked.
type callLog struct {
	mu   sync.Mutex
	msgs []string
}

func (l *callLog) add(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, msg)
}

func (l *callLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.msgs...)
}

func (l *callLog) hook(name string) brest.Hook {
	return brest.HookFuncs{
		BeforeFunc: func(brest.ResponseWriter, *http.Request) { l.add(name + ".before") },
		AfterFunc:  func(brest.ResponseWriter, *http.Request) { l.add(name + ".after") },
	}
}

func callRouter(t *testing.T, rt *brest.Router, verb brest.Verb, path string) (*httptest.ResponseRecorder, error) {
	t.Helper()

	rec := httptest.NewRecorder()
	w := brest.NewResponseWriter(rec, -1)
	defer w.Free()

	s := brest.NewSeries(rt.Queues())
	task, err := rt.Call(verb, path, w, httptest.NewRequest(string(verb), "/", nil), s)
	s.Link(task)
	s.Release()

	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("series did not resolve")
	}

	require.NoError(t, s.Err())
	require.NoError(t, w.FlushBuffer())

	return rec, err
}

func TestRouterCall(t *testing.T) {
	rt := brest.NewRouter(nil, nil)
	rt.Get("/users/:id", brest.Immediate(func(w brest.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "user %s", r.PathValue("id"))
	}))
	rt.Post("/users/:id", brest.Immediate(func(w brest.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	rt.Get("/files/*", brest.Immediate(func(w brest.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "file %q", brest.WildcardPath(r))
	}))
	rt.Get("/index.html", brest.Immediate(func(w brest.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "home")
	}))

	t.Run("params are bound", func(t *testing.T) {
		rec, err := callRouter(t, rt, brest.GET, "/users/5")
		require.NoError(t, err)
		assert.Equal(t, "user 5", rec.Body.String())
	})

	t.Run("wildcard remainder", func(t *testing.T) {
		rec, err := callRouter(t, rt, brest.GET, "/files/a/b.txt")
		require.NoError(t, err)
		assert.Equal(t, `file "a/b.txt"`, rec.Body.String())
	})

	t.Run("root is the default document", func(t *testing.T) {
		for _, p := range []string{"/", "", "//"} {
			rec, err := callRouter(t, rt, brest.GET, p)
			require.NoError(t, err)
			assert.Equal(t, "home", rec.Body.String())
		}

		m, err := rt.Lookup(brest.GET, "/")
		require.NoError(t, err)
		assert.Equal(t, "/index.html", m.Pattern)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := callRouter(t, rt, brest.GET, "/nonexistent")
		require.Error(t, err)
		assert.Equal(t, brest.CodeNotFound, brest.CodeOf(err))
	})

	t.Run("method not allowed", func(t *testing.T) {
		_, err := callRouter(t, rt, brest.DELETE, "/users/5")
		require.Error(t, err)
		assert.Equal(t, brest.CodeMethodNotAllowed, brest.CodeOf(err))
	})

	t.Run("sealed after the first call", func(t *testing.T) {
		assert.PanicsWithValue(t, "brest: cannot register routes after serving has started", func() {
			rt.Get("/late", brest.Immediate(noop))
		})

		assert.PanicsWithValue(t, "brest: cannot call Use() after serving has started", func() {
			rt.Use(brest.HookFuncs{})
		})

		assert.True(t, rt.Pipeline().Sealed())
	})
}

func TestRouterMethodNotAllowedForPostOnly(t *testing.T) {
	rt := brest.NewRouter(nil, nil)
	rt.Post("/users/:id", brest.Immediate(noop))

	_, err := callRouter(t, rt, brest.GET, "/users/5")
	assert.Equal(t, brest.CodeMethodNotAllowed, brest.CodeOf(err))
}

func TestRouterReplaceHandler(t *testing.T) {
	rt := brest.NewRouter(nil, nil)
	rt.Get("/x", brest.Immediate(func(w brest.ResponseWriter, r *http.Request) { fmt.Fprint(w, "first") }))
	rt.Get("/x", brest.Immediate(func(w brest.ResponseWriter, r *http.Request) { fmt.Fprint(w, "second") }))

	require.Len(t, rt.AllRoutes(), 1)

	rec, err := callRouter(t, rt, brest.GET, "/x")
	require.NoError(t, err)
	assert.Equal(t, "second", rec.Body.String())
}

func TestRouterHookOrder(t *testing.T) {
	var log callLog

	rt := brest.NewRouter(nil, nil)
	rt.Use(log.hook("A"), log.hook("B"))
	rt.Get("/h", brest.Immediate(func(brest.ResponseWriter, *http.Request) { log.add("H") }))

	_, err := callRouter(t, rt, brest.GET, "/h")
	require.NoError(t, err)
	assert.Equal(t, []string{"A.before", "B.before", "H", "A.after", "B.after"}, log.all())
}

func TestRouterNoHooksOnRoutingFailure(t *testing.T) {
	var log callLog

	rt := brest.NewRouter(nil, nil)
	rt.Use(log.hook("A"))
	rt.Get("/h", brest.Immediate(noop))

	_, err := callRouter(t, rt, brest.GET, "/nope")
	require.Error(t, err)
	assert.Empty(t, log.all())
}

func TestRouterOffloadedAfterHooks(t *testing.T) {
	var log callLog
	gate := make(chan struct{})

	rt := brest.NewRouter(nil, brest.NewQueues(1))
	rt.Use(log.hook("A"))
	rt.Get("/slow", brest.Immediate(func(w brest.ResponseWriter, r *http.Request) {
		<-gate
		log.add("H")
		w.WriteHeader(http.StatusAccepted)
	}), brest.OnQueue("slow"))

	rec := httptest.NewRecorder()
	w := brest.NewResponseWriter(rec, -1)
	s := brest.NewSeries(rt.Queues())

	task, err := rt.Call(brest.GET, "/slow", w, httptest.NewRequest(http.MethodGet, "/slow", nil), s)
	require.NoError(t, err)
	require.NotNil(t, task)

	s.Link(task)
	s.Release()

	assert.Equal(t, []string{"A.before"}, log.all())
	select {
	case <-s.Done():
		t.Fatal("series resolved before the offloaded handler ran")
	case <-time.After(20 * time.Millisecond):
	}

	close(gate)
	<-s.Done()

	assert.Equal(t, []string{"A.before", "H", "A.after"}, log.all())
	assert.Equal(t, http.StatusAccepted, w.Status())
	assert.Equal(t, []string{"slow"}, rt.Queues().Names())
}

func TestRouterSeriesHandlerDelaysAfterHooks(t *testing.T) {
	var log callLog
	gate := make(chan struct{})

	rt := brest.NewRouter(nil, nil)
	rt.Use(log.hook("A"))
	rt.Get("/series", brest.SeriesHandler(func(w brest.ResponseWriter, r *http.Request, s *brest.Series) {
		log.add("H")
		s.Go(func() error {
			<-gate
			log.add("step1")
			return nil
		})
		s.Submit("work", func() error {
			<-gate
			log.add("step2")
			return nil
		})
	}))

	rec := httptest.NewRecorder()
	w := brest.NewResponseWriter(rec, -1)
	s := brest.NewSeries(rt.Queues())

	task, err := rt.Call(brest.GET, "/series", w, httptest.NewRequest(http.MethodGet, "/series", nil), s)
	require.NoError(t, err)
	assert.Nil(t, task)

	s.Release()
	assert.Equal(t, []string{"A.before", "H"}, log.all())

	close(gate)
	<-s.Done()

	all := log.all()
	require.Len(t, all, 5)
	assert.ElementsMatch(t, []string{"step1", "step2"}, all[2:4])
	assert.Equal(t, "A.after", all[4])
}

func TestRouterPrintRoutes(t *testing.T) {
	rt := brest.NewRouter(nil, nil)
	rt.Route("/b", brest.Immediate(noop), []brest.Verb{brest.POST, brest.GET})
	rt.Get("/a/:id", brest.Immediate(noop), brest.OnQueue("q"))
	rt.Put("/c", brest.SeriesHandler(func(brest.ResponseWriter, *http.Request, *brest.Series) {}))

	assert.Equal(t, []brest.RouteInfo{
		{Verb: brest.PUT, Pattern: "/c", Kind: brest.KindSeries},
		{Verb: brest.GET, Pattern: "/b", Kind: brest.KindImmediate},
		{Verb: brest.POST, Pattern: "/b", Kind: brest.KindImmediate},
		{Verb: brest.GET, Pattern: "/a/:id", Queue: "q", Kind: brest.KindImmediate},
	}, rt.AllRoutes())

	var buf bytes.Buffer
	require.NoError(t, rt.PrintRoutes(&buf))

	var lines [][]string
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		lines = append(lines, strings.Fields(line))
	}

	assert.Equal(t, [][]string{
		{"PUT", "/c", "series", "-"},
		{"GET", "/b", "immediate", "-"},
		{"POST", "/b", "immediate", "-"},
		{"GET", "/a/:id", "immediate", "q"},
	}, lines)
}

func TestRouterRootRouteIsShadowed(t *testing.T) {
	rt := brest.NewRouter(brest.NewPipeline(), brest.NewQueues(1))
	rt.Get("/", brest.Immediate(noop))

	_, err := rt.Lookup(brest.GET, "/")
	require.Error(t, err)
	assert.Equal(t, brest.CodeNotFound, brest.CodeOf(err))

	rt.Get(brest.DefaultDocument, brest.Immediate(noop))

	m, err := rt.Lookup(brest.GET, "/")
	require.NoError(t, err)
	assert.Equal(t, brest.DefaultDocument, m.Pattern)
}
