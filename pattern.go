package brest

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// SegmentKind identifies how a single pattern segment matches a path segment.
type SegmentKind int

const (
	// SegmentLiteral matches only an identical path segment.
	SegmentLiteral SegmentKind = iota
	// SegmentParam matches any single non-empty path segment and binds it to a name.
	SegmentParam
	// SegmentWildcard matches all remaining path segments, including none.
	SegmentWildcard
)

func (k SegmentKind) String() string {
	switch k {
	case SegmentLiteral:
		return "literal"
	case SegmentParam:
		return "param"
	case SegmentWildcard:
		return "wildcard"
	default:
		return "unknown"
	}
}

// Segment is one element of a parsed [Pattern].
type Segment struct {
	Kind SegmentKind
	// Text holds the literal text for literal segments and the parameter
	// name for param segments. It is empty for the wildcard.
	Text string
}

// Pattern is a parsed route template such as "/users/:id/files/*".
type Pattern struct {
	segments []Segment
	str      string
}

// ParsePattern parses a route template. Parameters are written as ":name" or
// "{name}", the wildcard as "*" and it is only allowed as the last segment.
func ParsePattern(s string) (*Pattern, error) {
	parts := splitPath(NormalizePath(s))
	pat := &Pattern{segments: make([]Segment, 0, len(parts))}
	seen := map[string]struct{}{}

	for i, part := range parts {
		switch {
		case part == "*":
			if i != len(parts)-1 {
				return nil, errors.Newf("wildcard must be the last segment in %q", s)
			}
			pat.segments = append(pat.segments, Segment{Kind: SegmentWildcard})
		case strings.HasPrefix(part, ":"), strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}"):
			name := strings.TrimPrefix(part, ":")
			if strings.HasPrefix(part, "{") {
				name = part[1 : len(part)-1]
			}
			if name == "" {
				return nil, errors.Newf("empty parameter name in %q", s)
			}
			if strings.ContainsAny(name, ":{}*") {
				return nil, errors.Newf("invalid parameter name %q in %q", name, s)
			}
			if _, dup := seen[name]; dup {
				return nil, errors.Newf("duplicate parameter %q in %q", name, s)
			}
			seen[name] = struct{}{}
			pat.segments = append(pat.segments, Segment{Kind: SegmentParam, Text: name})
		default:
			pat.segments = append(pat.segments, Segment{Kind: SegmentLiteral, Text: part})
		}
	}

	pat.str = renderSegments(pat.segments)
	return pat, nil
}

// MustParsePattern is like [ParsePattern] but panics on invalid input.
func MustParsePattern(s string) *Pattern {
	pat, err := ParsePattern(s)
	if err != nil {
		panic("brest: " + err.Error())
	}
	return pat
}

// String returns the normalized form of the pattern. Parameters are always
// rendered in the ":name" form so "{id}" and ":id" normalize identically.
func (p *Pattern) String() string { return p.str }

// Segments returns a copy of the parsed segments.
func (p *Pattern) Segments() []Segment {
	return append([]Segment(nil), p.segments...)
}

// HasWildcard reports whether the pattern ends in a wildcard segment.
func (p *Pattern) HasWildcard() bool {
	return len(p.segments) > 0 && p.segments[len(p.segments)-1].Kind == SegmentWildcard
}

// Match compares the pattern against already split path segments. On success
// it returns the captured parameters and the wildcard remainder (joined by
// "/", empty when the wildcard matched nothing or is absent).
func (p *Pattern) Match(segments []string) (params map[string]string, rest string, ok bool) {
	for i, seg := range p.segments {
		switch seg.Kind {
		case SegmentWildcard:
			return params, strings.Join(segments[i:], "/"), true
		case SegmentParam:
			if i >= len(segments) || segments[i] == "" {
				return nil, "", false
			}
			if params == nil {
				params = make(map[string]string, len(p.segments))
			}
			params[seg.Text] = segments[i]
		case SegmentLiteral:
			if i >= len(segments) || segments[i] != seg.Text {
				return nil, "", false
			}
		}
	}

	if len(segments) != len(p.segments) {
		return nil, "", false
	}

	return params, "", true
}

// Build renders the pattern with the given values substituted for its
// parameters in order. A trailing wildcard consumes one extra value if present.
func (p *Pattern) Build(vals ...string) (string, error) {
	var b strings.Builder
	idx := 0
	for _, seg := range p.segments {
		b.WriteByte('/')
		switch seg.Kind {
		case SegmentLiteral:
			b.WriteString(seg.Text)
		case SegmentParam:
			if idx >= len(vals) {
				return "", errors.Newf("missing value for parameter %q", seg.Text)
			}
			b.WriteString(vals[idx])
			idx++
		case SegmentWildcard:
			if idx < len(vals) {
				b.WriteString(strings.TrimPrefix(vals[idx], "/"))
				idx++
			}
		}
	}

	if idx < len(vals) {
		return "", errors.Newf("too many values: got %d, used %d", len(vals), idx)
	}

	if b.Len() == 0 {
		return "/", nil
	}

	return b.String(), nil
}

// NormalizePath collapses duplicate slashes, ensures a leading slash and
// removes the trailing slash unless the path is the root.
func NormalizePath(p string) string {
	if p == "" || p == "/" {
		return "/"
	}

	var b strings.Builder
	b.Grow(len(p) + 1)
	if p[0] != '/' {
		b.WriteByte('/')
	}

	prevSlash := false
	for i := 0; i < len(p); i++ {
		c := p[i]
		if c == '/' {
			if prevSlash {
				continue
			}
			prevSlash = true
		} else {
			prevSlash = false
		}
		b.WriteByte(c)
	}

	out := b.String()
	if len(out) > 1 {
		out = strings.TrimSuffix(out, "/")
	}

	return out
}

// JoinPath joins a prefix and a sub path with exactly one separating slash
// and normalizes the result.
func JoinPath(prefix, sub string) string {
	switch {
	case strings.HasSuffix(prefix, "/") && strings.HasPrefix(sub, "/"):
		return NormalizePath(prefix + sub[1:])
	case !strings.HasSuffix(prefix, "/") && !strings.HasPrefix(sub, "/"):
		return NormalizePath(prefix + "/" + sub)
	default:
		return NormalizePath(prefix + sub)
	}
}

// splitPath splits a normalized path into its segments. The root has none.
func splitPath(p string) []string {
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return nil
	}

	return strings.Split(p, "/")
}

func renderSegments(segs []Segment) string {
	if len(segs) == 0 {
		return "/"
	}

	var b strings.Builder
	for _, seg := range segs {
		b.WriteByte('/')
		switch seg.Kind {
		case SegmentLiteral:
			b.WriteString(seg.Text)
		case SegmentParam:
			b.WriteByte(':')
			b.WriteString(seg.Text)
		case SegmentWildcard:
			b.WriteByte('*')
		}
	}

	return b.String()
}
