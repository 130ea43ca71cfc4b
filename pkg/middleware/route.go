package middleware

import (
	"net/http"

	"github.com/vango-dev/fsroute/pkg/router"
)

// unmatchedRoute is the route label for requests no route matched. Raw
// paths are never used as labels.
const unmatchedRoute = "unmatched"

// withRouteInfo makes sure the request carries a RouteInfo holder for the
// router handler to fill. Stacked middleware share one holder.
func withRouteInfo(r *http.Request) (*http.Request, *router.RouteInfo) {
	if info := router.RouteInfoFrom(r.Context()); info != nil {
		return r, info
	}
	ctx, info := router.WithRouteInfo(r.Context())
	return r.WithContext(ctx), info
}

// routeLabel renders the matched pattern as "/pattern".
func routeLabel(info *router.RouteInfo) string {
	if info == nil || !info.Found {
		return unmatchedRoute
	}
	return "/" + info.Pattern
}
