package dev

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vango-dev/fsroute/pkg/router"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func waitForChanges(t *testing.T, ch <-chan []Change) []Change {
	t.Helper()
	select {
	case changes := <-ch:
		return changes
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for change")
		return nil
	}
}

func TestWatcher_Modify(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := writeFile(t, tmpDir, "style.css", "body{}")

	watcher := NewWatcher(WatcherConfig{
		Root:     tmpDir,
		Interval: 20 * time.Millisecond,
	})

	changes := make(chan []Change, 10)
	watcher.OnChange(func(c []Change) {
		changes <- c
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go watcher.Start(ctx)

	// Wait for initial scan
	time.Sleep(100 * time.Millisecond)

	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(testFile, future, future); err != nil {
		t.Fatal(err)
	}

	got := waitForChanges(t, changes)
	if len(got) != 1 {
		t.Fatalf("got %d changes, want 1: %v", len(got), got)
	}
	if got[0].Path != "style.css" || got[0].Op != OpModified || got[0].Type != ChangeCSS {
		t.Errorf("change = %+v", got[0])
	}

	watcher.Stop()
}

func TestWatcher_CreateAndRemove(t *testing.T) {
	tmpDir := t.TempDir()
	oldFile := writeFile(t, tmpDir, "old.html", "x")

	watcher := NewWatcher(WatcherConfig{
		Root:     tmpDir,
		Interval: 20 * time.Millisecond,
	})

	changes := make(chan []Change, 10)
	watcher.OnChange(func(c []Change) {
		changes <- c
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watcher.Start(ctx)
	time.Sleep(100 * time.Millisecond)

	writeFile(t, tmpDir, "docs/new.md", "y")
	got := waitForChanges(t, changes)
	if len(got) != 1 || got[0].Path != "docs/new.md" || got[0].Op != OpCreated {
		t.Fatalf("changes = %+v, want docs/new.md created", got)
	}

	if err := os.Remove(oldFile); err != nil {
		t.Fatal(err)
	}
	got = waitForChanges(t, changes)
	if len(got) != 1 || got[0].Path != "old.html" || got[0].Op != OpRemoved || got[0].Type != ChangeHTML {
		t.Fatalf("changes = %+v, want old.html removed", got)
	}
}

func TestWatcher_Ignore(t *testing.T) {
	watcher := NewWatcher(WatcherConfig{
		Root:   ".",
		Ignore: []string{"*.swp", "vendor", "drafts/**"},
	})

	tests := []struct {
		path string
		want bool
	}{
		{"notes.swp", true},
		{"a/b/notes.swp", true},
		{"vendor/lib.js", true},
		{"x/vendor/lib.js", true},
		{"drafts/post.md", true},
		{"drafts/a/b.md", true},
		{"main.html", false},
		{"vendors.js", false},
		{"x/drafts/post.md", false},
	}
	for _, tt := range tests {
		if got := watcher.shouldIgnore(tt.path); got != tt.want {
			t.Errorf("shouldIgnore(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestWatcher_IgnoreSkipsChanges(t *testing.T) {
	tmpDir := t.TempDir()
	watcher := NewWatcher(WatcherConfig{
		Root:   tmpDir,
		Ignore: []string{"tmp"},
	})

	var got []Change
	watcher.OnChange(func(c []Change) { got = append(got, c...) })
	watcher.scanInitial()

	writeFile(t, tmpDir, "tmp/scratch.txt", "x")
	watcher.checkForChanges()
	if len(got) != 0 {
		t.Errorf("ignored file reported: %+v", got)
	}

	writeFile(t, tmpDir, "page.txt", "x")
	watcher.checkForChanges()
	if len(got) != 1 || got[0].Path != "page.txt" {
		t.Errorf("changes = %+v, want page.txt", got)
	}
}

func TestWatcher_MissingRootKeepsSnapshot(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "site")
	page := writeFile(t, root, "page.html", "<p>")
	writeFile(t, root, "css/site.css", "body{}")

	watcher := NewWatcher(WatcherConfig{Root: root})
	var got []Change
	watcher.OnChange(func(c []Change) { got = append(got, c...) })
	watcher.scanInitial()

	moved := filepath.Join(parent, "site.old")
	if err := os.Rename(root, moved); err != nil {
		t.Fatal(err)
	}
	watcher.checkForChanges()
	if len(got) != 0 {
		t.Fatalf("changes while root missing = %+v, want none", got)
	}

	if err := os.Rename(moved, root); err != nil {
		t.Fatal(err)
	}
	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(page, later, later); err != nil {
		t.Fatal(err)
	}
	watcher.checkForChanges()
	if len(got) != 1 {
		t.Fatalf("changes = %+v, want one", got)
	}
	if got[0].Path != "page.html" || got[0].Op != OpModified {
		t.Errorf("change = %+v, want page.html modified", got[0])
	}
}

func TestClassifyChange(t *testing.T) {
	tests := []struct {
		path string
		want ChangeType
	}{
		{"style.css", ChangeCSS},
		{"a/B.CSS", ChangeCSS},
		{"index.html", ChangeHTML},
		{"page.htm", ChangeHTML},
		{"app.js", ChangeAsset},
		{"README", ChangeAsset},
	}
	for _, tt := range tests {
		if got := classifyChange(tt.path); got != tt.want {
			t.Errorf("classifyChange(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestWatcher_IsRunning(t *testing.T) {
	watcher := NewWatcher(WatcherConfig{Root: t.TempDir(), Interval: 10 * time.Millisecond})
	if watcher.IsRunning() {
		t.Error("IsRunning() = true before Start")
	}

	done := make(chan error, 1)
	go func() { done <- watcher.Start(context.Background()) }()

	deadline := time.Now().Add(time.Second)
	for !watcher.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if !watcher.IsRunning() {
		t.Fatal("IsRunning() = false after Start")
	}

	watcher.Stop()
	if err := <-done; err != nil {
		t.Errorf("Start() returned %v after Stop", err)
	}
	if watcher.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}
}

func newReloader(t *testing.T, dir string, onReload func(int, error)) *Reloader[router.File] {
	t.Helper()
	r, err := router.New(router.Options[router.File]{Logger: quietLogger()})
	if err != nil {
		t.Fatal(err)
	}
	rl, err := NewReloader(r, dir, ReloaderOptions{Logger: quietLogger(), OnReload: onReload})
	if err != nil {
		t.Fatalf("NewReloader() error: %v", err)
	}
	return rl
}

func TestReloader_RebuildSwapsMatcher(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.html", "a")

	var sizes []int
	rl := newReloader(t, dir, func(n int, err error) {
		if err == nil {
			sizes = append(sizes, n)
		}
	})

	first := rl.Matcher()
	if first.MatchPath("/b").Found {
		t.Fatal("/b found before it exists")
	}

	writeFile(t, dir, "b.html", "b")
	if err := rl.Rebuild(); err != nil {
		t.Fatalf("Rebuild() error: %v", err)
	}

	if !rl.Matcher().MatchPath("/b").Found {
		t.Error("/b not found after rebuild")
	}
	if first.MatchPath("/b").Found {
		t.Error("old matcher was mutated")
	}
	if len(sizes) != 2 || sizes[0] != 1 || sizes[1] != 2 {
		t.Errorf("OnReload sizes = %v, want [1 2]", sizes)
	}
}

func TestReloader_FailedRebuildKeepsPrevious(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.html", "a")

	var failures int
	rl := newReloader(t, dir, func(n int, err error) {
		if err != nil {
			failures++
		}
	})
	before := rl.Matcher()

	if err := os.Symlink(filepath.Join(dir, "missing"), filepath.Join(dir, "dead.html")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	if err := rl.Rebuild(); err == nil {
		t.Fatal("Rebuild() expected error")
	}
	if rl.Matcher() != before {
		t.Error("failed rebuild replaced the matcher")
	}
	if rl.Err() == nil {
		t.Error("Err() = nil after failed rebuild")
	}
	if failures != 1 {
		t.Errorf("OnReload failures = %d, want 1", failures)
	}

	if err := os.Remove(filepath.Join(dir, "dead.html")); err != nil {
		t.Fatal(err)
	}
	if err := rl.Rebuild(); err != nil {
		t.Fatalf("Rebuild() error: %v", err)
	}
	if rl.Err() != nil {
		t.Errorf("Err() = %v after successful rebuild", rl.Err())
	}
}

func TestNewReloader_InitialFailure(t *testing.T) {
	r, err := router.New(router.Options[router.File]{Logger: quietLogger()})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewReloader(r, filepath.Join(t.TempDir(), "missing"), ReloaderOptions{Logger: quietLogger()}); err == nil {
		t.Error("NewReloader() expected error for a missing root")
	}
}

func dialReload(t *testing.T, rs *ReloadServer) (*websocket.Conn, func()) {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(rs.HandleWebSocket))
	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		ts.Close()
		t.Fatalf("Dial() error: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for rs.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if rs.ClientCount() != 1 {
		t.Fatalf("ClientCount() = %d, want 1", rs.ClientCount())
	}

	return conn, func() {
		conn.Close()
		ts.Close()
	}
}

func readMessage(t *testing.T, conn *websocket.Conn) ReloadMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error: %v", err)
	}
	var msg ReloadMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Unmarshal(%s) error: %v", data, err)
	}
	return msg
}

func TestReloadServer_Broadcast(t *testing.T) {
	rs := NewReloadServer(quietLogger())
	conn, closeAll := dialReload(t, rs)
	defer closeAll()

	rs.NotifyReload()
	if msg := readMessage(t, conn); msg.Type != ReloadTypeFull {
		t.Errorf("Type = %q, want reload", msg.Type)
	}

	rs.NotifyCSS("site.css")
	if msg := readMessage(t, conn); msg.Type != ReloadTypeCSS || msg.File != "site.css" {
		t.Errorf("msg = %+v", msg)
	}

	rs.NotifyError("E201: Broken symbolic link")
	if msg := readMessage(t, conn); msg.Type != ReloadTypeError || msg.Error != "E201: Broken symbolic link" {
		t.Errorf("msg = %+v", msg)
	}

	rs.ClearError()
	if msg := readMessage(t, conn); msg.Type != ReloadTypeClear {
		t.Errorf("Type = %q, want clear", msg.Type)
	}

	rs.Close()
	if rs.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d after Close, want 0", rs.ClientCount())
	}
}

func TestServer_HandleChanges(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "index.html", "<body></body>")
	rl := newReloader(t, dir, nil)

	srv := NewServer(rl, ServerOptions{Logger: quietLogger()})
	conn, closeAll := dialReload(t, srv.ReloadServer())
	defer closeAll()

	// Stylesheet edits reload CSS only.
	srv.handleChanges([]Change{{Path: "a.css", Type: ChangeCSS, Op: OpModified}})
	if msg := readMessage(t, conn); msg.Type != ReloadTypeCSS || msg.File != "a.css" {
		t.Errorf("msg = %+v, want css a.css", msg)
	}

	// Content edits reload the page without a rebuild.
	before := rl.Matcher()
	srv.handleChanges([]Change{{Path: "index.html", Type: ChangeHTML, Op: OpModified}})
	if msg := readMessage(t, conn); msg.Type != ReloadTypeFull {
		t.Errorf("msg = %+v, want reload", msg)
	}
	if rl.Matcher() != before {
		t.Error("content edit rebuilt the route table")
	}

	// New files rebuild the table.
	writeFile(t, dir, "about.html", "about")
	srv.handleChanges([]Change{{Path: "about.html", Type: ChangeHTML, Op: OpCreated}})
	if msg := readMessage(t, conn); msg.Type != ReloadTypeFull {
		t.Errorf("msg = %+v, want reload", msg)
	}
	if !rl.Matcher().MatchPath("/about").Found {
		t.Error("/about not routed after rebuild")
	}
}

func TestServer_StartStopsWithContext(t *testing.T) {
	dir := t.TempDir()
	rl := newReloader(t, dir, nil)
	srv := NewServer(rl, ServerOptions{Logger: quietLogger(), Interval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() = %v, want nil on cancel", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start() did not return after cancel")
	}
}

func TestInjectReloadScript(t *testing.T) {
	script := ClientScript("/__reload")
	if !strings.Contains(script, `})("/__reload");`) {
		t.Fatal("ClientScript() does not pass the reload path")
	}
	if !strings.Contains(script, "location.reload") {
		t.Error("ClientScript() should contain reload logic")
	}
	if !strings.HasPrefix(strings.TrimSpace(script), "<script>") || !strings.HasSuffix(strings.TrimSpace(script), "</script>") {
		t.Errorf("ClientScript() is not a single script element")
	}

	hostile := ClientScript(`/r"</script><b>`)
	if strings.Count(hostile, "</script>") != 1 {
		t.Errorf("reload path can close the script element: %s", hostile)
	}

	h := InjectReloadScript("<script>x</script>")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/page":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			io.WriteString(w, "<html><body>hi</body></html>")
		case "/data":
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"a":1}`)
		case "/missing":
			w.Header().Set("Content-Type", "text/html")
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, "<body>nope</body>")
		}
	}))

	tests := []struct {
		path   string
		status int
		body   string
	}{
		{"/page", 200, "<html><body>hi<script>x</script></body></html>"},
		{"/data", 200, `{"a":1}`},
		{"/missing", 404, "<body>nope</body>"},
	}
	for _, tt := range tests {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if rr.Code != tt.status || rr.Body.String() != tt.body {
			t.Errorf("%s: got %d %q, want %d %q", tt.path, rr.Code, rr.Body.String(), tt.status, tt.body)
		}
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/page", nil))
	if rr.Header().Get("Content-Length") != "46" {
		t.Errorf("Content-Length = %q, want 46", rr.Header().Get("Content-Length"))
	}
}

func TestInjectScript(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{"<body>a</body>", "<body>aS</body>"},
		{"<html>a</html>", "<html>aS</html>"},
		{"plain", "plainS"},
	}
	for _, tt := range tests {
		if got := InjectScript(tt.body, "S"); got != tt.want {
			t.Errorf("InjectScript(%q) = %q, want %q", tt.body, got, tt.want)
		}
	}
}
