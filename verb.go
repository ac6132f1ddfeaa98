package brest

import (
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/net/http/httpguts"
)

// Verb is an HTTP request method.
type Verb string

const (
	GET     Verb = http.MethodGet
	HEAD    Verb = http.MethodHead
	POST    Verb = http.MethodPost
	PUT     Verb = http.MethodPut
	PATCH   Verb = http.MethodPatch
	DELETE  Verb = http.MethodDelete
	OPTIONS Verb = http.MethodOptions
	CONNECT Verb = http.MethodConnect
	TRACE   Verb = http.MethodTrace
)

// ParseVerb turns a method string into a Verb. Method names are
// case-insensitive for registration purposes and must be a valid token
// (RFC 9110, 9.1).
func ParseVerb(s string) (Verb, error) {
	if s == "" {
		return "", errors.New("empty method")
	}

	if !strings.ContainsFunc(s, func(r rune) bool { return !httpguts.IsTokenRune(r) }) {
		return Verb(strings.ToUpper(s)), nil
	}

	return "", errors.Newf("invalid method %q", s)
}

// MustParseVerbs parses each method and panics on the first invalid one.
func MustParseVerbs(methods ...string) []Verb {
	verbs := make([]Verb, 0, len(methods))
	for _, m := range methods {
		v, err := ParseVerb(m)
		if err != nil {
			panic("brest: " + err.Error())
		}
		verbs = append(verbs, v)
	}

	return verbs
}

func (v Verb) String() string { return string(v) }
