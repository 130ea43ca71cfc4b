package router

import (
	"context"
	"net/http"

	"github.com/vango-dev/fsroute/pkg/radix"
)

// RequestContext is the outcome of matching one request. Match creates it
// and fills it once; after that it is read-only and belongs to the request
// that produced it.
type RequestContext[T any] struct {
	// Request is the matched request. Nil for MatchPath.
	Request *http.Request

	// Result is the value of the matched route, or the zero value of T.
	Result T

	// Found reports whether a route matched. An unmatched path is not an
	// error.
	Found bool

	// Pattern is the matched route pattern, e.g. "blog/:slug".
	Pattern string

	// Params holds the parameter bindings of the match. The catch-all
	// binding uses the key radix.CatchAllKey.
	Params radix.Params
}

// Value returns the result and whether a route matched.
func (c *RequestContext[T]) Value() (T, bool) {
	return c.Result, c.Found
}

// Param returns a parameter binding, or "" if absent.
func (c *RequestContext[T]) Param(name string) string {
	return c.Params[name]
}

// Bind copies the parameters into a tagged struct. See BindParams.
func (c *RequestContext[T]) Bind(target any) error {
	return BindParams(c.Params, target)
}

// RouteInfo carries the outcome of routing back to code that wraps the
// handler (metrics, tracing, access logs), which runs before the match
// happens and cannot see the RequestContext.
type RouteInfo struct {
	Pattern string
	Found   bool
}

type routeInfoKey struct{}

// WithRouteInfo returns a context carrying an empty RouteInfo for the
// handler to fill.
func WithRouteInfo(ctx context.Context) (context.Context, *RouteInfo) {
	info := &RouteInfo{}
	return context.WithValue(ctx, routeInfoKey{}, info), info
}

// RouteInfoFrom returns the RouteInfo stored by WithRouteInfo, or nil.
func RouteInfoFrom(ctx context.Context) *RouteInfo {
	info, _ := ctx.Value(routeInfoKey{}).(*RouteInfo)
	return info
}
