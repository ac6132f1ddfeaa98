package brest

import (
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// HandlerRecord is a verb's bound handler plus optional worker-queue routing.
type HandlerRecord struct {
	Handler Handler
	// Queue names the worker queue the handler body runs on. Empty means inline.
	Queue string
	// Path is the normalized pattern the record was installed under.
	Path string
}

// Entry holds the handlers of every verb registered for one normalized pattern.
type Entry struct {
	pattern *Pattern
	verbs   map[Verb]*HandlerRecord
}

// Pattern returns the normalized pattern string.
func (e *Entry) Pattern() string { return e.pattern.String() }

// Verbs returns the registered verbs in ascending order.
func (e *Entry) Verbs() []Verb {
	verbs := lo.Keys(e.verbs)
	slices.Sort(verbs)
	return verbs
}

// Record returns the handler record for the verb.
func (e *Entry) Record(v Verb) (*HandlerRecord, bool) {
	rec, ok := e.verbs[v]
	return rec, ok
}

// Match is the result of a successful lookup.
type Match struct {
	Verb     Verb
	Path     string
	Pattern  string
	Record   *HandlerRecord
	Params   map[string]string
	Wildcard string
}

// RouteInfo describes one (pattern, verb) registration for listings.
type RouteInfo struct {
	Verb    Verb
	Pattern string
	Queue   string
	Kind    HandlerKind
}

// Table stores one entry per normalized pattern. Lookups walk a segment tree
// that prefers literal segments over parameters over the wildcard.
type Table struct {
	entries map[string]*Entry
	ordered []*Entry // by pattern, descending
	root    *node
}

// NewTable inits an empty table.
func NewTable() *Table {
	return &Table{
		entries: make(map[string]*Entry),
		root:    newNode(),
	}
}

// AddRoute returns the entry for the normalized pattern, creating it when it
// does not exist yet. The boolean reports whether it was created.
func (t *Table) AddRoute(pattern string) (*Entry, bool, error) {
	pat, err := ParsePattern(pattern)
	if err != nil {
		return nil, false, err
	}

	key := pat.String()
	if e, ok := t.entries[key]; ok {
		return e, false, nil
	}

	e := &Entry{pattern: pat, verbs: make(map[Verb]*HandlerRecord)}
	t.entries[key] = e

	idx, _ := slices.BinarySearchFunc(t.ordered, key, func(have *Entry, want string) int {
		return strings.Compare(want, have.Pattern())
	})
	t.ordered = slices.Insert(t.ordered, idx, e)
	t.root.insert(pat.segments, e)

	return e, true, nil
}

// Handle installs the handler for (pattern, verb). Registering the same pair
// again replaces the previous handler.
func (t *Table) Handle(pattern, queue string, h Handler, verb Verb) error {
	if !h.Valid() {
		return errors.Newf("invalid handler for %s %s", verb, pattern)
	}

	if verb == "" {
		return errors.Newf("empty verb for %s", pattern)
	}

	e, _, err := t.AddRoute(pattern)
	if err != nil {
		return err
	}

	e.verbs[verb] = &HandlerRecord{Handler: h, Queue: queue, Path: e.Pattern()}

	return nil
}

// Lookup resolves the verb and the request path. It returns an [*Error] with
// [CodeNotFound] when no pattern matches the path and [CodeMethodNotAllowed]
// when patterns match the path but none of them has the verb.
func (t *Table) Lookup(verb Verb, path string) (*Match, error) {
	path = NormalizePath(path)
	segs := splitPath(path)

	var (
		found   *Entry
		allowed map[Verb]struct{}
	)

	t.root.search(segs, 0, func(e *Entry) bool {
		if _, ok := e.verbs[verb]; ok {
			found = e
			return true
		}

		for v := range e.verbs {
			if allowed == nil {
				allowed = make(map[Verb]struct{})
			}
			allowed[v] = struct{}{}
		}

		return false
	})

	if found == nil {
		if len(allowed) > 0 {
			verbs := lo.Keys(allowed)
			slices.Sort(verbs)
			return nil, newMethodNotAllowedError(verb, path, verbs)
		}

		return nil, newNotFoundError(verb, path)
	}

	params, rest, _ := found.pattern.Match(segs)

	return &Match{
		Verb:     verb,
		Path:     path,
		Pattern:  found.Pattern(),
		Record:   found.verbs[verb],
		Params:   params,
		Wildcard: rest,
	}, nil
}

// Entries returns the entries ordered by pattern, descending.
func (t *Table) Entries() []*Entry {
	return slices.Clone(t.ordered)
}

// Routes lists every (pattern, verb) pair. Entries are ordered by pattern
// descending and verbs ascending within an entry, independent of insertion order.
func (t *Table) Routes() []RouteInfo {
	var infos []RouteInfo
	for _, e := range t.ordered {
		for _, v := range e.Verbs() {
			rec := e.verbs[v]
			infos = append(infos, RouteInfo{
				Verb:    v,
				Pattern: e.Pattern(),
				Queue:   rec.Queue,
				Kind:    rec.Handler.Kind(),
			})
		}
	}

	return infos
}

// merge copies every entry of 'src' into 't' under 'prefix'. Verb handlers that
// already exist at the merged path are overwritten.
func (t *Table) merge(src *Table, prefix string) error {
	for _, se := range src.ordered {
		merged := JoinPath(prefix, se.Pattern())

		de, _, err := t.AddRoute(merged)
		if err != nil {
			return errors.Wrapf(err, "merge %q under %q", se.Pattern(), prefix)
		}

		for v, rec := range se.verbs {
			cp := *rec
			cp.Path = de.Pattern()
			de.verbs[v] = &cp
		}
	}

	return nil
}

type paramEdge struct {
	name  string
	child *node
}

type node struct {
	literals map[string]*node
	params   []paramEdge // sorted by name
	wildcard *Entry
	entry    *Entry
}

func newNode() *node {
	return &node{literals: make(map[string]*node)}
}

func (n *node) insert(segs []Segment, e *Entry) {
	if len(segs) == 0 {
		n.entry = e
		return
	}

	seg := segs[0]
	switch seg.Kind {
	case SegmentWildcard:
		n.wildcard = e
	case SegmentParam:
		idx, ok := slices.BinarySearchFunc(n.params, seg.Text, func(p paramEdge, name string) int {
			return strings.Compare(p.name, name)
		})
		if !ok {
			n.params = slices.Insert(n.params, idx, paramEdge{name: seg.Text, child: newNode()})
		}
		n.params[idx].child.insert(segs[1:], e)
	case SegmentLiteral:
		child, ok := n.literals[seg.Text]
		if !ok {
			child = newNode()
			n.literals[seg.Text] = child
		}
		child.insert(segs[1:], e)
	}
}

// search visits candidate entries in priority order (literal, param, wildcard)
// until visit returns true.
func (n *node) search(segs []string, i int, visit func(*Entry) bool) bool {
	if i == len(segs) {
		if n.entry != nil && visit(n.entry) {
			return true
		}

		return n.wildcard != nil && visit(n.wildcard)
	}

	if child, ok := n.literals[segs[i]]; ok && child.search(segs, i+1, visit) {
		return true
	}

	if segs[i] != "" {
		for _, p := range n.params {
			if p.child.search(segs, i+1, visit) {
				return true
			}
		}
	}

	return n.wildcard != nil && visit(n.wildcard)
}
