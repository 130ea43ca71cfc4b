package serve

import (
	"errors"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/vango-dev/fsroute/pkg/router"
)

// CacheControl selects the Cache-Control policy for served files.
type CacheControl int

const (
	// CacheControlDefault sets no Cache-Control header.
	CacheControlDefault CacheControl = iota

	// CacheControlNone disables caching. Useful in development.
	CacheControlNone

	// CacheControlProduction caches fingerprinted files for a year and
	// everything else for an hour with revalidation.
	CacheControlProduction
)

// FileOptions configures NewFileResponder.
type FileOptions struct {
	CacheControl CacheControl

	// Headers are set on every file response.
	Headers map[string]string
}

// FileResponder streams router.File values with default options.
func FileResponder(w http.ResponseWriter, r *http.Request, rc *router.RequestContext[router.File]) error {
	return serveFile(w, r, rc.Result, FileOptions{})
}

// NewFileResponder returns a Responder that streams router.File values.
// Only GET and HEAD are allowed. Range and conditional requests are
// handled by http.ServeContent.
func NewFileResponder(opts FileOptions) Responder[router.File] {
	return func(w http.ResponseWriter, r *http.Request, rc *router.RequestContext[router.File]) error {
		return serveFile(w, r, rc.Result, opts)
	}
}

func serveFile(w http.ResponseWriter, r *http.Request, file router.File, opts FileOptions) error {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return nil
	}

	f, err := file.Open()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() {
		return ErrNotFound
	}

	applyCacheHeaders(w, opts.CacheControl, file.Name())
	for key, value := range opts.Headers {
		w.Header().Set(key, value)
	}

	// The name drives Content-Type detection by extension.
	http.ServeContent(w, r, file.Name(), info.ModTime(), f)
	return nil
}

func applyCacheHeaders(w http.ResponseWriter, policy CacheControl, name string) {
	switch policy {
	case CacheControlNone:
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")

	case CacheControlProduction:
		if isFingerprinted(name) {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		} else {
			w.Header().Set("Cache-Control", "public, max-age=3600, must-revalidate")
		}
	}
}

// isFingerprinted reports whether the name carries a content hash before
// its extension, e.g. "app.a1b2c3d4.css".
func isFingerprinted(name string) bool {
	parts := strings.Split(path.Base(name), ".")
	if len(parts) < 3 {
		return false
	}

	hash := parts[len(parts)-2]
	if len(hash) < 8 {
		return false
	}

	for _, c := range hash {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}

	return true
}
