package main

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/vango-dev/fsroute/internal/config"
	"github.com/vango-dev/fsroute/internal/dev"
	"github.com/vango-dev/fsroute/internal/errors"
	"github.com/vango-dev/fsroute/internal/tracing"
	"github.com/vango-dev/fsroute/pkg/middleware"
	"github.com/vango-dev/fsroute/pkg/router"
	"github.com/vango-dev/fsroute/pkg/serve"
)

const shutdownTimeout = 10 * time.Second

type serveFlags struct {
	pattern string
	host    string
	port    int
	watch   bool
	metrics bool
	cache   string
}

func serveCmd(global *globalFlags) *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve [dir]",
		Short: "Serve a directory",
		Long: `Serve the files of a directory through its file-system route table.

Settings are read from fsroute.json in the current directory or a parent.
When a directory is given, it is served with default settings and
fsroute.json is not required.

Examples:
  fsroute serve
  fsroute serve ./public --watch
  fsroute serve site --pattern="**/*.html" --port=8080`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(args)
			if err != nil {
				return err
			}
			flags.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, newLogger(global))
		},
	}

	cmd.Flags().StringVar(&flags.pattern, "pattern", "", "Glob selecting route files (default from fsroute.json)")
	cmd.Flags().StringVarP(&flags.host, "host", "H", "", "Host to bind to (default from fsroute.json)")
	cmd.Flags().IntVarP(&flags.port, "port", "p", 0, "Port to listen on (default from fsroute.json)")
	cmd.Flags().BoolVarP(&flags.watch, "watch", "w", false, "Rebuild routes and reload browsers on change")
	cmd.Flags().BoolVar(&flags.metrics, "metrics", false, "Expose Prometheus metrics")
	cmd.Flags().StringVar(&flags.cache, "cache", "", "Cache-Control policy: default, none or production")

	return cmd
}

// apply copies explicitly set flags over cfg.
func (f *serveFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if f.pattern != "" {
		cfg.Pattern = f.pattern
	}
	if f.host != "" {
		cfg.Server.Host = f.host
	}
	if f.port > 0 {
		cfg.Server.Port = f.port
	}
	if cmd.Flags().Changed("watch") {
		cfg.Dev.Watch = f.watch
	}
	if cmd.Flags().Changed("metrics") {
		cfg.Metrics.Enabled = f.metrics
	}
	if f.cache != "" {
		cfg.Server.CacheControl = f.cache
	}
}

// loadConfig reads fsroute.json, or uses defaults rooted at the directory
// argument when one is given.
func loadConfig(args []string) (*config.Config, error) {
	if len(args) == 0 {
		return config.LoadFromWorkingDir()
	}

	dir, err := filepath.Abs(args[0])
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, errors.New("E142").WithPath(args[0])
	}
	if config.Exists(dir) {
		return config.Load(dir)
	}

	cfg := config.New()
	cfg.Root = dir
	return cfg, nil
}

func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	stopTracing, err := tracing.Instrument(tracing.Config{
		Enabled:        cfg.Tracing.Enabled,
		Endpoint:       cfg.Tracing.Endpoint,
		Insecure:       cfg.Tracing.Insecure,
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: version,
		ErrorHandler: func(err error) {
			logger.Warn("tracing error", "error", err)
		},
	}, logger)
	if err != nil {
		return err
	}
	defer stopTracing()

	s, err := newSite(cfg, logger, prometheus.NewRegistry())
	if err != nil {
		return err
	}

	printBanner()
	success("Serving %s", cfg.RootPath())
	info("%d routes", s.routes())
	info("Listening on %s", cfg.URL())
	if s.dev != nil {
		info("Watching for changes")
		go func() {
			if err := s.dev.Start(ctx); err != nil {
				logger.Error("watcher stopped", "error", err)
			}
		}()
	}
	if cfg.Metrics.Enabled {
		info("Metrics at %s%s", cfg.URL(), cfg.Metrics.Path)
	}
	fmt.Println()

	srv := &http.Server{
		Addr:              cfg.Address(),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			errorMsg("Server failed: %v", err)
		}
		return err
	case <-ctx.Done():
	}

	fmt.Println("\n  Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// site is the assembled HTTP surface for one served directory.
type site struct {
	handler http.Handler
	source  serve.Source[router.File]
	dev     *dev.Server[router.File]
}

func (s *site) routes() int {
	if m := s.source.Matcher(); m != nil {
		return m.Len()
	}
	return 0
}

// newSite builds the route table and wires the handler chain:
//
//	request id → recoverer → access log → [metrics] → [tracing] → [reload script] → files
//
// The metrics and reload endpoints are mounted beside the file routes.
func newSite(cfg *config.Config, logger *slog.Logger, reg *prometheus.Registry) (*site, error) {
	r, err := router.New(router.Options[router.File]{
		Style:   router.Named(router.StyleName(cfg.Style)),
		Pattern: cfg.Pattern,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}

	var metrics *middleware.Metrics
	if cfg.Metrics.Enabled {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics = middleware.NewMetrics(
			middleware.WithNamespace(cfg.Metrics.Namespace),
			middleware.WithRegistry(reg),
		)
	}

	s := &site{}
	mux := chi.NewRouter()
	mux.Use(chimw.RequestID, chimw.Recoverer)
	if cfg.Dev.Watch {
		mux.Use(middleware.LoggingColored(logger))
	} else {
		mux.Use(middleware.Logging(logger))
	}

	var files http.Handler
	if cfg.Dev.Watch {
		interval, err := cfg.PollInterval()
		if err != nil {
			return nil, err
		}
		rl, err := dev.NewReloader(r, cfg.RootPath(), dev.ReloaderOptions{
			Logger: logger,
			OnReload: func(routes int, err error) {
				if metrics != nil {
					metrics.RecordRebuild(routes, err)
				}
			},
		})
		if err != nil {
			return nil, err
		}
		s.source = rl
		s.dev = dev.NewServer(rl, dev.ServerOptions{
			Ignore:   cfg.Dev.Ignore,
			Interval: interval,
			Logger:   logger,
		})
		mux.Handle(cfg.Dev.ReloadPath, s.dev.ReloadHandler())
	} else {
		m, err := r.Scan(cfg.RootPath())
		if metrics != nil {
			metrics.RecordRebuild(routesOf(m), err)
		}
		if err != nil {
			return nil, err
		}
		s.source = serve.Static(m)
	}

	responder := serve.NewFileResponder(serve.FileOptions{
		CacheControl: cachePolicy(cfg),
		Headers:      cfg.Server.Headers,
	})
	files = serve.New(s.source, responder,
		serve.WithLogger(logger),
		serve.WithNotFound(notFoundHandler(cfg.NotFoundPath())),
	)

	if cfg.Dev.Watch {
		files = dev.InjectReloadScript(dev.ClientScript(cfg.Dev.ReloadPath))(files)
	}
	if cfg.Tracing.Enabled {
		files = middleware.OpenTelemetry(middleware.WithTracerName("fsroute"))(files)
	}
	if metrics != nil {
		files = metrics.Handler(files)
		mux.Handle(cfg.Metrics.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	}

	mux.Handle("/*", files)
	s.handler = mux
	return s, nil
}

func routesOf(m *router.Matcher[router.File]) int {
	if m == nil {
		return 0
	}
	return m.Len()
}

func cachePolicy(cfg *config.Config) serve.CacheControl {
	switch cfg.Server.CacheControl {
	case config.CacheControlNone:
		return serve.CacheControlNone
	case config.CacheControlProduction:
		return serve.CacheControlProduction
	default:
		if cfg.Dev.Watch {
			return serve.CacheControlNone
		}
		return serve.CacheControlDefault
	}
}

// notFoundHandler serves the file at path with status 404. The file is read
// on every request so edits show up while watching. An empty path, or a
// file that cannot be read, falls back to http.NotFound.
func notFoundHandler(path string) http.Handler {
	if path == "" {
		return http.HandlerFunc(http.NotFound)
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := os.ReadFile(path)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		contentType := mime.TypeByExtension(filepath.Ext(path))
		if contentType == "" {
			contentType = http.DetectContentType(data)
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.WriteHeader(http.StatusNotFound)
		if r.Method != http.MethodHead {
			w.Write(data)
		}
	})
}
