package serve

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vango-dev/fsroute/pkg/router"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile %s: %v", name, err)
	}
	return path
}

func scan[T any](t *testing.T, dir string, opts router.Options[T]) *router.Matcher[T] {
	t.Helper()
	opts.Logger = quietLogger()
	r, err := router.New(opts)
	if err != nil {
		t.Fatalf("router.New() error: %v", err)
	}
	m, err := r.Scan(dir)
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	return m
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "http://example.com"+target, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHandlerServesFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "index.html", "<h1>home</h1>")
	writeFile(t, dir, "blog/[slug].txt", "post")
	writeFile(t, dir, "styles.css", "body{}")

	h := New(Static(scan(t, dir, router.Options[router.File]{})), FileResponder, WithLogger(quietLogger()))

	tests := []struct {
		path        string
		status      int
		body        string
		contentType string
	}{
		{"/", http.StatusOK, "<h1>home</h1>", "text/html"},
		{"/blog/hello", http.StatusOK, "post", "text/plain"},
		{"/styles", http.StatusOK, "body{}", "text/css"},
		{"/missing", http.StatusNotFound, "404 page not found\n", ""},
		{"/blog/a/b", http.StatusNotFound, "404 page not found\n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rr := serve(h, http.MethodGet, tt.path)
			if rr.Code != tt.status {
				t.Fatalf("status = %d, want %d", rr.Code, tt.status)
			}
			if rr.Body.String() != tt.body {
				t.Errorf("body = %q, want %q", rr.Body.String(), tt.body)
			}
			if tt.contentType != "" && !strings.HasPrefix(rr.Header().Get("Content-Type"), tt.contentType) {
				t.Errorf("Content-Type = %q, want prefix %q", rr.Header().Get("Content-Type"), tt.contentType)
			}
		})
	}
}

func TestHandlerMethodAndHead(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.js", "ok")

	h := New(Static(scan(t, dir, router.Options[router.File]{})), FileResponder, WithLogger(quietLogger()))

	rr := serve(h, http.MethodPost, "/app")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST status = %d, want %d", rr.Code, http.StatusMethodNotAllowed)
	}
	if rr.Header().Get("Allow") != "GET, HEAD" {
		t.Errorf("Allow = %q", rr.Header().Get("Allow"))
	}

	rr = serve(h, http.MethodHead, "/app")
	if rr.Code != http.StatusOK {
		t.Fatalf("HEAD status = %d, want %d", rr.Code, http.StatusOK)
	}
	if rr.Body.Len() != 0 {
		t.Errorf("HEAD body = %q, want empty", rr.Body.String())
	}
}

func TestHandlerDeletedFileIsNotFound(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "gone.txt", "x")

	h := New(Static(scan(t, dir, router.Options[router.File]{})), FileResponder, WithLogger(quietLogger()))
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	if rr := serve(h, http.MethodGet, "/gone"); rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestHandlerCustomNotFound(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "a")

	notFound := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		io.WriteString(w, "nope")
	})
	h := New(Static(scan(t, dir, router.Options[router.File]{})), FileResponder,
		WithNotFound(notFound), WithLogger(quietLogger()))

	rr := serve(h, http.MethodGet, "/b")
	if rr.Code != http.StatusTeapot || rr.Body.String() != "nope" {
		t.Errorf("got %d %q, want 418 nope", rr.Code, rr.Body.String())
	}
}

func TestHandlerGenericValues(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "users/[id].json", "{}")

	m := scan(t, dir, router.Options[string]{
		On: func(path string) string { return filepath.Base(path) },
	})

	respond := func(w http.ResponseWriter, r *http.Request, rc *router.RequestContext[string]) error {
		var p struct {
			ID int `param:"id"`
		}
		if err := rc.Bind(&p); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return nil
		}
		io.WriteString(w, rc.Result+":"+rc.Param("id"))
		return nil
	}
	h := New(Static(m), respond, WithLogger(quietLogger()))

	rr := serve(h, http.MethodGet, "/users/12")
	if rr.Body.String() != "[id].json:12" {
		t.Errorf("body = %q", rr.Body.String())
	}

	rr = serve(h, http.MethodGet, "/users/abc")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestHandlerResponderError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "a")

	m := scan(t, dir, router.Options[router.File]{})
	h := New(Static(m), func(http.ResponseWriter, *http.Request, *router.RequestContext[router.File]) error {
		return errors.New("boom")
	}, WithLogger(quietLogger()))

	if rr := serve(h, http.MethodGet, "/a"); rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusInternalServerError)
	}
}

func TestHandlerNilMatcher(t *testing.T) {
	h := New(Static[router.File](nil), FileResponder, WithLogger(quietLogger()))
	if rr := serve(h, http.MethodGet, "/"); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
}

func TestHandlerFillsRouteInfo(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "blog/[slug].txt", "x")

	h := New(Static(scan(t, dir, router.Options[router.File]{})), FileResponder, WithLogger(quietLogger()))

	tests := []struct {
		path    string
		pattern string
		found   bool
	}{
		{"/blog/one", "blog/:slug", true},
		{"/nothing", "", false},
	}
	for _, tt := range tests {
		ctx, info := router.WithRouteInfo(context.Background())
		req := httptest.NewRequest(http.MethodGet, tt.path, nil).WithContext(ctx)
		h.ServeHTTP(httptest.NewRecorder(), req)

		if info.Pattern != tt.pattern || info.Found != tt.found {
			t.Errorf("%s: info = %+v, want pattern %q found %v", tt.path, info, tt.pattern, tt.found)
		}
	}
}

func TestFileResponderCacheHeaders(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.a1b2c3d4.js", "x")
	writeFile(t, dir, "plain.js", "y")

	m := scan(t, dir, router.Options[router.File]{
		Style: router.Custom(func(p string) string { return p }),
	})

	tests := []struct {
		name   string
		policy CacheControl
		path   string
		want   string
	}{
		{"default", CacheControlDefault, "/plain.js", ""},
		{"none", CacheControlNone, "/plain.js", "no-store, no-cache, must-revalidate"},
		{"production fingerprinted", CacheControlProduction, "/app.a1b2c3d4.js", "public, max-age=31536000, immutable"},
		{"production plain", CacheControlProduction, "/plain.js", "public, max-age=3600, must-revalidate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			respond := NewFileResponder(FileOptions{
				CacheControl: tt.policy,
				Headers:      map[string]string{"X-Served-By": "fsroute"},
			})
			h := New(Static(m), respond, WithLogger(quietLogger()))

			rr := serve(h, http.MethodGet, tt.path)
			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d", rr.Code)
			}
			if got := rr.Header().Get("Cache-Control"); got != tt.want {
				t.Errorf("Cache-Control = %q, want %q", got, tt.want)
			}
			if rr.Header().Get("X-Served-By") != "fsroute" {
				t.Error("custom header missing")
			}
		})
	}
}

func TestIsFingerprinted(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"app.a1b2c3d4.css", true},
		{"dir/app.ABCDEF12.js", true},
		{"app.css", false},
		{"app.abc.css", false},
		{"app.zzzzzzzz.css", false},
	}
	for _, tt := range tests {
		if got := isFingerprinted(tt.name); got != tt.want {
			t.Errorf("isFingerprinted(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestHandlerBlocksDirectoryTraversal(t *testing.T) {
	tmpDir := t.TempDir()
	publicDir := filepath.Join(tmpDir, "public")
	writeFile(t, publicDir, "ok.txt", "ok")
	writeFile(t, tmpDir, "secret.txt", "secret")

	h := New(Static(scan(t, publicDir, router.Options[router.File]{})), FileResponder, WithLogger(quietLogger()))

	if rr := serve(h, http.MethodGet, "/ok"); rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Fatalf("GET /ok = %d %q", rr.Code, rr.Body.String())
	}

	for _, p := range []string{
		"/../secret.txt",
		"/../secret",
		"/%2e%2e/secret.txt",
		"/..//secret",
		"/ok/../../secret",
	} {
		rr := serve(h, http.MethodGet, p)
		if strings.Contains(rr.Body.String(), "secret") {
			t.Fatalf("GET %s served secret content", p)
		}
		if rr.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want %d", p, rr.Code, http.StatusNotFound)
		}
	}
}

func TestHandlerCatchAllNeverEscapesRoot(t *testing.T) {
	tmpDir := t.TempDir()
	publicDir := filepath.Join(tmpDir, "public")
	writeFile(t, publicDir, "[...rest].txt", "fallback")
	writeFile(t, tmpDir, "secret.txt", "secret")

	h := New(Static(scan(t, publicDir, router.Options[router.File]{})), FileResponder, WithLogger(quietLogger()))

	for _, p := range []string{"/%2e%2e/secret.txt", "/a/%2e%2e/%2e%2e/secret.txt"} {
		rr := serve(h, http.MethodGet, p)
		if strings.Contains(rr.Body.String(), "secret") {
			t.Fatalf("GET %s served secret content", p)
		}
		if rr.Code == http.StatusOK && rr.Body.String() != "fallback" {
			t.Errorf("GET %s body = %q, want the catch-all file", p, rr.Body.String())
		}
	}
}
