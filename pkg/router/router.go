package router

import (
	stderrors "errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/vango-dev/fsroute/internal/errors"
	"github.com/vango-dev/fsroute/pkg/fsscan"
	"github.com/vango-dev/fsroute/pkg/radix"
)

// DefaultPattern selects every file under the scanned directory.
const DefaultPattern = "**/*"

// Producer turns the resolved path of a scanned file into a route value.
type Producer[T any] func(resolvedPath string) T

// Options configures a Router.
type Options[T any] struct {
	// Style converts scanned paths into route patterns.
	// Default: Named(StyleBasic).
	Style StyleChoice

	// Pattern is the glob that selects files, relative to the scanned
	// directory. Default: DefaultPattern.
	Pattern string

	// On produces the value stored for each route. It may be nil only when
	// T is File, in which case OpenFile is used.
	On Producer[T]

	// Logger receives build diagnostics. Default: slog.Default().
	Logger *slog.Logger
}

// Symlinks are followed and a dangling one fails the build; directories
// never become routes.
var scanOptions = fsscan.Options{
	FollowSymlinks:      true,
	FailOnBrokenSymlink: true,
	FilesOnly:           true,
}

// Router builds Matchers from directory trees. A Router holds only its
// resolved options and may build any number of Matchers.
type Router[T any] struct {
	style   Style
	pattern string
	on      Producer[T]
	logger  *slog.Logger
}

// New resolves opts into a Router.
func New[T any](opts Options[T]) (*Router[T], error) {
	style, err := opts.Style.Resolve()
	if err != nil {
		return nil, err
	}

	pattern := opts.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}
	if err := fsscan.Validate(pattern); err != nil {
		return nil, err
	}

	on := opts.On
	if on == nil {
		def, ok := any(Producer[File](OpenFile)).(Producer[T])
		if !ok {
			return nil, errors.New("E221").
				WithSuggestion("Set Options.On to a func(resolvedPath string) T")
		}
		on = def
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Router[T]{
		style:   style,
		pattern: pattern,
		on:      on,
		logger:  logger.With("component", "router"),
	}, nil
}

// Pattern returns the glob the Router scans with.
func (r *Router[T]) Pattern() string {
	return r.pattern
}

// Scan walks rootDir and compiles every matching file into a Matcher.
// Any scan or insert error aborts the build and no Matcher is returned.
func (r *Router[T]) Scan(rootDir string) (*Matcher[T], error) {
	start := time.Now()

	builder, err := r.build(rootDir)
	if err != nil {
		return nil, err
	}

	tree, err := builder.Compile()
	if err != nil {
		return nil, err
	}

	r.logger.Info("routes built",
		"root", rootDir,
		"routes", tree.Len(),
		"duration", time.Since(start))

	return &Matcher[T]{tree: tree, root: rootDir, builtAt: time.Now()}, nil
}

// Routes runs the same pipeline as Scan without compiling and returns the
// route table in scan order.
func (r *Router[T]) Routes(rootDir string) ([]radix.Route[T], error) {
	builder, err := r.build(rootDir)
	if err != nil {
		return nil, err
	}
	return builder.Routes(), nil
}

func (r *Router[T]) build(rootDir string) (*radix.Builder[T], error) {
	builder := radix.NewBuilder[T]()

	for rel, err := range fsscan.Scan(rootDir, r.pattern, scanOptions) {
		if err != nil {
			r.logger.Error("scan failed", "root", rootDir, "error", err)
			return nil, err
		}

		pattern := r.style(rel)
		if builder.Contains(pattern) {
			r.logger.Warn("duplicate route, replacing earlier file",
				"pattern", pattern,
				"file", rel)
		}

		value := r.on(filepath.Join(rootDir, filepath.FromSlash(rel)))
		if err := builder.Insert(pattern, value); err != nil {
			return nil, insertError(rel, pattern, err)
		}

		r.logger.Debug("route added", "pattern", pattern, "file", rel)
	}

	return builder, nil
}

func insertError(file, pattern string, err error) error {
	var code string
	switch {
	case stderrors.Is(err, radix.ErrWildcardNotLast):
		code = "E210"
	case stderrors.Is(err, radix.ErrParamConflict):
		code = "E211"
	case stderrors.Is(err, radix.ErrEmptyParam):
		code = "E212"
	case stderrors.Is(err, radix.ErrMarkerInSegment):
		code = "E213"
	default:
		return err
	}
	return errors.New(code).
		WithPath(file).
		WithDetail("Compiled pattern: " + quote(pattern)).
		Wrap(err)
}

func quote(pattern string) string {
	if pattern == "" {
		return `"" (root)`
	}
	return `"` + pattern + `"`
}
