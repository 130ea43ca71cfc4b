package dev

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/vango-dev/fsroute/internal/errors"
)

// ServerOptions configures the development server.
type ServerOptions struct {
	// Ignore contains watch ignore patterns, added to DefaultIgnore.
	Ignore []string

	// Interval is the watch polling period.
	Interval time.Duration

	// OnChanges is called with each batch of changes before they are
	// handled.
	OnChanges func([]Change)

	Logger *slog.Logger
}

// Server keeps a Reloader in sync with its directory and tells connected
// browsers when to reload.
//
// Created or removed files change the route table, so they trigger a
// rebuild followed by a full reload (or an error overlay if the rebuild
// fails). Edits to existing files only need the browser to refetch: a
// batch of stylesheet edits reloads CSS in place, anything else reloads
// the page.
type Server[T any] struct {
	reloader     *Reloader[T]
	watcher      *Watcher
	reloadServer *ReloadServer
	options      ServerOptions
	logger       *slog.Logger
	mu           sync.Mutex
	running      bool
	changeCh     chan []Change
}

// NewServer creates a development server for the Reloader's root.
func NewServer[T any](rl *Reloader[T], options ServerOptions) *Server[T] {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	watcher := NewWatcher(WatcherConfig{
		Root:     rl.Root(),
		Ignore:   append(append([]string{}, DefaultIgnore...), options.Ignore...),
		Interval: options.Interval,
	})

	return &Server[T]{
		reloader:     rl,
		watcher:      watcher,
		reloadServer: NewReloadServer(logger),
		options:      options,
		logger:       logger.With("component", "dev"),
		changeCh:     make(chan []Change, 16),
	}
}

// ReloadHandler serves the reload WebSocket endpoint.
func (s *Server[T]) ReloadHandler() http.Handler {
	return http.HandlerFunc(s.reloadServer.HandleWebSocket)
}

// ReloadServer returns the WebSocket notifier.
func (s *Server[T]) ReloadServer() *ReloadServer {
	return s.reloadServer
}

// Start watches until ctx is done. It blocks.
func (s *Server[T]) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		s.reloadServer.Close()
	}()

	s.watcher.OnChange(func(changes []Change) {
		select {
		case s.changeCh <- changes:
		case <-ctx.Done():
		}
	})

	go s.processChanges(ctx)

	s.logger.Info("watching for changes", "root", s.reloader.Root())
	err := s.watcher.Start(ctx)
	if err == context.Canceled || err == context.DeadlineExceeded {
		return nil
	}
	return err
}

// Stop stops watching.
func (s *Server[T]) Stop() {
	s.watcher.Stop()
}

// processChanges serializes change handling and coalesces bursts.
func (s *Server[T]) processChanges(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case changes := <-s.changeCh:
			draining := true
			for draining {
				select {
				case next := <-s.changeCh:
					changes = append(changes, next...)
				default:
					draining = false
				}
			}
			s.handleChanges(changes)
		}
	}
}

// handleChanges handles a batch of file changes.
func (s *Server[T]) handleChanges(changes []Change) {
	if len(changes) == 0 {
		return
	}
	if s.options.OnChanges != nil {
		s.options.OnChanges(changes)
	}

	structural := false
	cssOnly := true
	for _, change := range changes {
		s.logger.Debug("changed", "path", change.Path, "op", change.Op.String(), "type", change.Type.String())
		if change.Op != OpModified {
			structural = true
		}
		if change.Type != ChangeCSS {
			cssOnly = false
		}
	}

	if structural {
		hadError := s.reloader.Err() != nil
		if err := s.reloader.Rebuild(); err != nil {
			s.reloadServer.NotifyError(errors.FromError(err, "E202").FormatCompact())
			return
		}
		if hadError {
			s.reloadServer.ClearError()
		}
		s.logger.Info("routes rebuilt", "routes", s.reloader.Matcher().Len())
		s.reloadServer.NotifyReload()
		return
	}

	if cssOnly {
		for _, change := range changes {
			s.reloadServer.NotifyCSS(change.Path)
		}
		return
	}

	s.reloadServer.NotifyReload()
}
