package brest

import (
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// Reverser keeps track of named patterns and allows building URLs.
type Reverser struct {
	mu   sync.RWMutex
	pats map[string]*Pattern
}

// NewReverser inits the reverser.
func NewReverser() *Reverser {
	return &Reverser{pats: make(map[string]*Pattern)}
}

// Reverse reverses the named pattern into a url.
func (r *Reverser) Reverse(name string, vals ...string) (string, error) {
	r.mu.RLock()
	pat, ok := r.pats[name]
	r.mu.RUnlock()

	if !ok {
		return "", errors.Newf("no pattern named: %q, got: %v", name, r.names())
	}

	res, err := pat.Build(vals...)
	if err != nil {
		return "", errors.Wrap(err, "failed to build")
	}

	return res, nil
}

// Named is a convenience method that panics if naming the pattern fails.
func (r *Reverser) Named(name, str string) string {
	str, err := r.NamedPattern(name, str)
	if err != nil {
		panic("brest: " + err.Error())
	}

	return str
}

// NamedPattern will parse 'str' as a route pattern while returning it as well.
func (r *Reverser) NamedPattern(name, str string) (string, error) {
	pat, err := ParsePattern(str)
	if err != nil {
		return str, errors.Wrap(err, "failed to parse pattern")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.pats[name]; exists {
		return str, errors.Newf("pattern with name %q already exists", name)
	}

	r.pats[name] = pat

	return str, nil
}

// merge names every pattern of 'src' again under 'prefix'. Names that exist
// in 'r' are overwritten.
func (r *Reverser) merge(src *Reverser, prefix string) {
	src.mu.RLock()
	defer src.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	for name, pat := range src.pats {
		r.pats[name] = MustParsePattern(JoinPath(prefix, pat.String()))
	}
}

func (r *Reverser) names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.Keys(r.pats)
}
