package radix

import (
	"errors"
	"fmt"
	"strings"
)

// Insert and compile errors.
var (
	ErrWildcardNotLast = errors.New("catch-all must be the last segment")
	ErrParamConflict   = errors.New("conflicting parameter names at the same position")
	ErrEmptyParam      = errors.New("empty parameter name")
	ErrMarkerInSegment = errors.New("parameter or catch-all marker inside a segment")
	ErrCompiled        = errors.New("builder already compiled")
)

// CatchAllKey is the Params key used for an unnamed catch-all ("*").
const CatchAllKey = "*"

// Params maps parameter names to the request segments they matched.
type Params map[string]string

// Route is an immutable (pattern, value) entry.
type Route[T any] struct {
	Pattern string
	Value   T
}

// Match is the result of a successful lookup.
type Match[T any] struct {
	// Value is the value inserted with the matched pattern.
	Value T

	// Pattern is the normalized pattern that matched.
	Pattern string

	// Params holds parameter and catch-all bindings. Nil when the
	// pattern has no dynamic segments.
	Params Params
}

// node is a node in the segment tree.
type node[T any] struct {
	// segment is the literal this node matches (empty for param/catch-all nodes)
	segment string

	// paramName is the parameter name (without : or *)
	paramName string

	isParam    bool
	isCatchAll bool

	// route is set when a pattern terminates at this node
	route *Route[T]

	// children are static segment children, in insertion order
	children []*node[T]

	// static indexes children by segment; built by Compile
	static map[string]*node[T]

	paramChild    *node[T]
	catchAllChild *node[T]
}

func (n *node[T]) findChild(segment string) *node[T] {
	if n.static != nil {
		return n.static[segment]
	}
	for _, child := range n.children {
		if child.segment == segment {
			return child
		}
	}
	return nil
}

func (n *node[T]) addChild(segment string) *node[T] {
	if child := n.findChild(segment); child != nil {
		return child
	}
	child := &node[T]{segment: segment}
	n.children = append(n.children, child)
	return child
}

func (n *node[T]) addParamChild(name string) (*node[T], error) {
	if n.paramChild != nil {
		if n.paramChild.paramName != name {
			return nil, fmt.Errorf("%w: :%s vs :%s", ErrParamConflict, n.paramChild.paramName, name)
		}
		return n.paramChild, nil
	}
	n.paramChild = &node[T]{isParam: true, paramName: name}
	return n.paramChild, nil
}

func (n *node[T]) addCatchAllChild(name string) (*node[T], error) {
	if n.catchAllChild != nil {
		if n.catchAllChild.paramName != name {
			return nil, fmt.Errorf("%w: catch-all %q vs %q", ErrParamConflict, n.catchAllChild.paramName, name)
		}
		return n.catchAllChild, nil
	}
	n.catchAllChild = &node[T]{isCatchAll: true, paramName: name}
	return n.catchAllChild, nil
}

// compile builds the static lookup maps for the subtree.
func (n *node[T]) compile() {
	if len(n.children) > 0 {
		n.static = make(map[string]*node[T], len(n.children))
		for _, child := range n.children {
			n.static[child.segment] = child
			child.compile()
		}
	}
	if n.paramChild != nil {
		n.paramChild.compile()
	}
	if n.catchAllChild != nil {
		n.catchAllChild.compile()
	}
}

// match walks the subtree for segments, filling params on the way down and
// removing bindings again when a branch fails.
func (n *node[T]) match(segments []string, params *Params) *node[T] {
	if len(segments) == 0 {
		if n.route != nil {
			return n
		}
		return nil
	}

	segment := segments[0]
	remaining := segments[1:]

	// Try exact match first
	if child := n.findChild(segment); child != nil {
		if found := child.match(remaining, params); found != nil {
			return found
		}
	}

	// Try parameter match
	if n.paramChild != nil {
		params.set(n.paramChild.paramName, segment)
		if found := n.paramChild.match(remaining, params); found != nil {
			return found
		}
		// Backtrack on failure
		params.unset(n.paramChild.paramName)
	}

	// Catch-all consumes the rest of the path
	if n.catchAllChild != nil && n.catchAllChild.route != nil {
		params.set(n.catchAllChild.paramName, strings.Join(segments, "/"))
		return n.catchAllChild
	}

	return nil
}

func (p *Params) set(name, value string) {
	if *p == nil {
		*p = make(Params, 2)
	}
	(*p)[name] = value
}

func (p *Params) unset(name string) {
	if *p != nil {
		delete(*p, name)
	}
}

// Split splits a path or pattern into segments, ignoring leading,
// trailing and repeated slashes.
func Split(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	parts := strings.Split(path, "/")
	segments := parts[:0]
	for _, p := range parts {
		if p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}

// Normalize returns the canonical form of a pattern: segments joined by a
// single "/" with no leading or trailing slash.
func Normalize(pattern string) string {
	return strings.Join(Split(pattern), "/")
}
