// Package middleware provides observability middleware for the HTTP
// binding in package serve.
//
// All middleware are plain func(http.Handler) http.Handler values, so
// they compose with chi, net/http, or any other stack.
//
// # OpenTelemetry Middleware
//
// OpenTelemetry traces every request with a server span named after the
// matched route pattern rather than the raw path:
//
//	h := middleware.OpenTelemetry(
//	    middleware.WithTracerName("site"),
//	    middleware.WithRequestFilter(func(r *http.Request) bool {
//	        return r.URL.Path != "/healthz"
//	    }),
//	)(handler)
//
// # Prometheus Metrics
//
// Prometheus counts requests and observes their duration, labelled by
// route pattern, method and status code. Unmatched requests share the
// "unmatched" route label so arbitrary paths cannot blow up cardinality.
//
//	m := middleware.NewMetrics(middleware.WithNamespace("site"))
//	h := m.Handler(handler)
//	http.Handle("/metrics", promhttp.Handler())
//
// Metrics.RecordRebuild tracks hot-reload rebuilds of the route table.
//
// # Access Log
//
// Logging writes one slog line per request. LoggingColored renders the
// method and status with lipgloss for terminals.
//
// Route labels come from the serve.Handler further down the chain, which
// fills the router.RouteInfo these middleware put on the request context.
package middleware
