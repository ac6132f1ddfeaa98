// Package brest provides request routing and dispatch with buffered responses.
//
// # Overview
//
// A [Router] maps a (verb, path) pair to a handler. Routes are collected in
// groups that can be composed under path prefixes, and every dispatched request
// runs through a [Pipeline] of before/after hooks. Handlers either run inline or
// on a named worker queue, and the after hooks only run once the handler and any
// asynchronous work it produced resolved.
//
// A minimal example:
//
//	mux := brest.NewServeMux()
//	mux.Get("/items/:id", brest.Immediate(func(w brest.ResponseWriter, r *http.Request) {
//	    fmt.Fprintf(w, "item %s", r.PathValue("id"))
//	}))
//
//	http.ListenAndServe(":8080", mux)
//
// # Patterns
//
// Patterns consist of literal segments, parameters written as ":name" or
// "{name}" and an optional trailing wildcard "*":
//
//	/users/:id        matches /users/5, binds id=5
//	/files/*          matches /files, /files/a and /files/a/b
//
// When several patterns match a path the one with a literal segment at the first
// differing position wins over a parameter, which wins over the wildcard. A
// request for "/" is resolved as "/index.html". Captured parameters are
// available through [http.Request.PathValue], the wildcard remainder through
// [WildcardPath].
//
// # Groups
//
// A [Group] owns its routes until it is added to another group or router with
// [Group.AddGroup]. Adding copies the routes under the prefix, a route that
// already exists for the same path and verb is overwritten:
//
//	api := brest.NewGroup()
//	api.Get("/users/:id", getUser)
//
//	mux.AddGroup(api, "/api") // GET /api/users/:id
//
// # Handlers
//
// Handlers come in two kinds. An [Immediate] handler is done when it returns. A
// [SeriesHandler] receives the request's [Series] and may extend it with
// further asynchronous steps:
//
//	mux.Get("/report", brest.SeriesHandler(func(w brest.ResponseWriter, r *http.Request, s *brest.Series) {
//	    s.Submit("reports", func() error {
//	        return render(w)
//	    })
//	}))
//
// Either kind can be moved off the serving goroutine with [OnQueue]. Queues are
// independent pools, see [Queues].
//
// # Hooks
//
// Hooks are installed with [Router.Use] before the first request is served:
//
//	mux.Use(brest.HookFuncs{
//	    BeforeFunc: func(w brest.ResponseWriter, r *http.Request) { ... },
//	    AfterFunc:  func(w brest.ResponseWriter, r *http.Request) { ... },
//	})
//
// Before hooks run in registration order before the handler, after hooks in
// registration order once the request's series resolved. A before hook cannot
// stop the handler from running. Calling Use, or registering routes, after the
// router started serving panics.
//
// # Buffered Response Writer
//
// The [ResponseWriter] holds status, headers and body in memory until the
// request is complete. Hooks can inspect [ResponseWriter.Status] and replace the
// response entirely with [ResponseWriter.Reset].
//
// # Errors
//
// Routing failures are returned by [Router.Call] as an [*Error] with
// [CodeNotFound] or [CodeMethodNotAllowed]. The [ServeMux] renders them as a JSON
// body such as {"code":404,"msg":"GET /nope"}, with an Allow header for the
// latter. Panics in handlers and series steps are answered with a 500.
package brest
