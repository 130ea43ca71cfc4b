package dev

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/vango-dev/fsroute/pkg/router"
)

// Reloader holds the current Matcher for a directory and replaces it on
// Rebuild. It implements serve.Source. A Matcher is never mutated: every
// rebuild scans from scratch, and a failed rebuild keeps the previous
// table.
type Reloader[T any] struct {
	router   *router.Router[T]
	root     string
	current  atomic.Pointer[router.Matcher[T]]
	mu       sync.Mutex
	lastErr  error
	onReload func(routes int, err error)
	logger   *slog.Logger
}

// ReloaderOptions configures a Reloader.
type ReloaderOptions struct {
	// OnReload is called after every rebuild, including the first.
	OnReload func(routes int, err error)

	Logger *slog.Logger
}

// NewReloader builds the initial Matcher. It fails if that first build
// fails.
func NewReloader[T any](r *router.Router[T], root string, opts ReloaderOptions) (*Reloader[T], error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	rl := &Reloader[T]{
		router:   r,
		root:     root,
		onReload: opts.OnReload,
		logger:   logger.With("component", "reloader"),
	}
	if err := rl.Rebuild(); err != nil {
		return nil, err
	}
	return rl, nil
}

// Matcher returns the current Matcher.
func (rl *Reloader[T]) Matcher() *router.Matcher[T] {
	return rl.current.Load()
}

// Rebuild scans the root again and swaps in the new Matcher. Requests in
// flight keep the Matcher they started with.
func (rl *Reloader[T]) Rebuild() error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	m, err := rl.router.Scan(rl.root)
	rl.lastErr = err

	if err != nil {
		rl.logger.Warn("rebuild failed, keeping previous routes", "root", rl.root, "error", err)
		if rl.onReload != nil {
			rl.onReload(0, err)
		}
		return err
	}

	rl.current.Store(m)
	if rl.onReload != nil {
		rl.onReload(m.Len(), nil)
	}
	return nil
}

// Err returns the error of the last rebuild, or nil.
func (rl *Reloader[T]) Err() error {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.lastErr
}

// Root returns the watched directory.
func (rl *Reloader[T]) Root() string {
	return rl.root
}
