package router

import (
	"net/http"
	"time"

	"github.com/vango-dev/fsroute/pkg/radix"
	"github.com/vango-dev/fsroute/pkg/routepath"
)

// Matcher is a compiled route table. It is immutable and safe for
// concurrent use; rebuilding means scanning again and replacing the
// Matcher.
type Matcher[T any] struct {
	tree    *radix.Tree[T]
	root    string
	builtAt time.Time
}

// Match resolves the request's path. It never fails: a path that matches
// no route, or that cannot be canonicalized, yields a context with Found
// set to false.
func (m *Matcher[T]) Match(req *http.Request) *RequestContext[T] {
	ctx := &RequestContext[T]{Request: req}
	if req != nil && req.URL != nil {
		m.resolve(ctx, req.URL.EscapedPath())
	}
	return ctx
}

// MatchPath resolves an escaped URL path without a request.
func (m *Matcher[T]) MatchPath(path string) *RequestContext[T] {
	ctx := &RequestContext[T]{}
	m.resolve(ctx, path)
	return ctx
}

func (m *Matcher[T]) resolve(ctx *RequestContext[T], escapedPath string) {
	segments, err := routepath.Segments(escapedPath)
	if err != nil {
		return
	}
	match, ok := m.tree.Lookup(segments)
	if !ok {
		return
	}
	ctx.Result = match.Value
	ctx.Found = true
	ctx.Pattern = match.Pattern
	ctx.Params = match.Params
}

// Routes returns the route table in scan order.
func (m *Matcher[T]) Routes() []radix.Route[T] {
	return m.tree.Routes()
}

// Len returns the number of routes.
func (m *Matcher[T]) Len() int {
	return m.tree.Len()
}

// Root returns the directory the Matcher was built from.
func (m *Matcher[T]) Root() string {
	return m.root
}

// BuiltAt returns when the scan finished.
func (m *Matcher[T]) BuiltAt() time.Time {
	return m.builtAt
}
