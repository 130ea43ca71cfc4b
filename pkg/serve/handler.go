package serve

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/vango-dev/fsroute/pkg/router"
)

// ErrNotFound may be returned by a Responder when the matched value turns
// out not to exist (for example a file deleted since the scan). The
// Handler answers it with the not-found handler.
var ErrNotFound = errors.New("serve: not found")

// Source provides the Matcher to use for a request.
type Source[T any] interface {
	Matcher() *router.Matcher[T]
}

type staticSource[T any] struct {
	m *router.Matcher[T]
}

func (s staticSource[T]) Matcher() *router.Matcher[T] { return s.m }

// Static returns a Source that always yields m.
func Static[T any](m *router.Matcher[T]) Source[T] {
	return staticSource[T]{m: m}
}

// Responder writes the response for a matched request. It is only called
// when rc.Found is true.
type Responder[T any] func(w http.ResponseWriter, r *http.Request, rc *router.RequestContext[T]) error

// Option configures a Handler.
type Option func(*options)

type options struct {
	notFound http.Handler
	logger   *slog.Logger
}

// WithNotFound sets the handler for unmatched requests.
func WithNotFound(h http.Handler) Option {
	return func(o *options) {
		o.notFound = h
	}
}

// WithLogger sets the logger for responder failures.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Handler is an http.Handler that routes through a Matcher.
type Handler[T any] struct {
	src      Source[T]
	respond  Responder[T]
	notFound http.Handler
	logger   *slog.Logger
}

// New creates a Handler.
func New[T any](src Source[T], respond Responder[T], opts ...Option) *Handler[T] {
	o := options{
		notFound: http.HandlerFunc(http.NotFound),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Handler[T]{
		src:      src,
		respond:  respond,
		notFound: o.notFound,
		logger:   o.logger.With("component", "serve"),
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler[T]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m := h.src.Matcher()
	if m == nil {
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}

	rc := m.Match(r)

	if info := router.RouteInfoFrom(r.Context()); info != nil {
		info.Pattern = rc.Pattern
		info.Found = rc.Found
	}

	if !rc.Found {
		h.notFound.ServeHTTP(w, r)
		return
	}

	if err := h.respond(w, r, rc); err != nil {
		if errors.Is(err, ErrNotFound) {
			h.notFound.ServeHTTP(w, r)
			return
		}
		h.logger.Error("respond failed",
			"path", r.URL.Path,
			"pattern", rc.Pattern,
			"error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
