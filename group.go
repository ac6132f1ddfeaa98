package brest

import (
	"sync/atomic"

	"github.com/cockroachdb/errors"
)

// RouteOption configures a single route registration.
type RouteOption func(*routeOptions)

type routeOptions struct {
	queue string
	name  string
}

// OnQueue makes the handler body run on the named worker queue instead of inline.
func OnQueue(name string) RouteOption {
	return func(o *routeOptions) { o.queue = name }
}

// Named names the route so it can be reversed into a URL.
func Named(name string) RouteOption {
	return func(o *routeOptions) { o.name = name }
}

// Group collects routes under its own table. A group is merged into another
// group, or a router, with [Group.AddGroup]. Merging copies the routes, later
// changes to the child are not seen by the parent.
type Group struct {
	table    *Table
	reverser *Reverser
	sealed   *atomic.Bool
}

// NewGroup inits an empty group.
func NewGroup() *Group {
	return &Group{
		table:    NewTable(),
		reverser: NewReverser(),
		sealed:   new(atomic.Bool),
	}
}

// Route registers the handler for each verb on the pattern. Registering a
// (pattern, verb) pair again replaces the handler. It panics on an invalid pattern.
// A [Router] looks up requests for "/" as [DefaultDocument], so a route for "/"
// directly on a router is never reached.
func (g *Group) Route(pattern string, h Handler, verbs []Verb, opts ...RouteOption) {
	g.ensureNotSealed()

	var o routeOptions
	for _, opt := range opts {
		opt(&o)
	}

	if len(verbs) == 0 {
		panic("brest: no verbs for route " + pattern)
	}

	for _, v := range verbs {
		if err := g.table.Handle(pattern, o.queue, h, v); err != nil {
			panic("brest: " + err.Error())
		}
	}

	if o.name != "" {
		g.reverser.Named(o.name, pattern)
	}
}

// Get registers a GET handler.
func (g *Group) Get(pattern string, h Handler, opts ...RouteOption) {
	g.Route(pattern, h, []Verb{GET}, opts...)
}

// Head registers a HEAD handler.
func (g *Group) Head(pattern string, h Handler, opts ...RouteOption) {
	g.Route(pattern, h, []Verb{HEAD}, opts...)
}

// Post registers a POST handler.
func (g *Group) Post(pattern string, h Handler, opts ...RouteOption) {
	g.Route(pattern, h, []Verb{POST}, opts...)
}

// Put registers a PUT handler.
func (g *Group) Put(pattern string, h Handler, opts ...RouteOption) {
	g.Route(pattern, h, []Verb{PUT}, opts...)
}

// Patch registers a PATCH handler.
func (g *Group) Patch(pattern string, h Handler, opts ...RouteOption) {
	g.Route(pattern, h, []Verb{PATCH}, opts...)
}

// Delete registers a DELETE handler.
func (g *Group) Delete(pattern string, h Handler, opts ...RouteOption) {
	g.Route(pattern, h, []Verb{DELETE}, opts...)
}

// Options registers an OPTIONS handler.
func (g *Group) Options(pattern string, h Handler, opts ...RouteOption) {
	g.Route(pattern, h, []Verb{OPTIONS}, opts...)
}

// AddGroup copies every route of 'child' into 'g' under 'prefix'. Prefix and
// sub path are joined with exactly one slash. Handlers that already exist for
// a merged (path, verb) pair are overwritten, so the last merge wins.
func (g *Group) AddGroup(child *Group, prefix string) {
	g.ensureNotSealed()

	if child == g {
		panic("brest: cannot add a group to itself")
	}

	if err := g.table.merge(child.table, prefix); err != nil {
		panic("brest: " + errors.Wrap(err, "add group").Error())
	}

	g.reverser.merge(child.reverser, prefix)
}

// Routes lists every (pattern, verb) pair of the group, ordered by pattern
// descending and verb ascending.
func (g *Group) Routes() []RouteInfo {
	return g.table.Routes()
}

// Reverse returns the url based on the name and parameter values.
func (g *Group) Reverse(name string, vals ...string) (string, error) {
	return g.reverser.Reverse(name, vals...)
}

func (g *Group) ensureNotSealed() {
	if g.sealed.Load() {
		panic("brest: cannot register routes after serving has started")
	}
}
