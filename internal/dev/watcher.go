package dev

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/vango-dev/fsroute/pkg/fsscan"
)

// ChangeType classifies a changed file by what a browser must do about it.
type ChangeType int

const (
	ChangeAsset ChangeType = iota
	ChangeCSS
	ChangeHTML
)

func (t ChangeType) String() string {
	switch t {
	case ChangeCSS:
		return "css"
	case ChangeHTML:
		return "html"
	default:
		return "asset"
	}
}

// ChangeOp is what happened to the file.
type ChangeOp int

const (
	OpModified ChangeOp = iota
	OpCreated
	OpRemoved
)

func (o ChangeOp) String() string {
	switch o {
	case OpCreated:
		return "created"
	case OpRemoved:
		return "removed"
	default:
		return "modified"
	}
}

// Change represents a detected file change.
type Change struct {
	// Path is relative to the watched root, "/"-separated.
	Path string
	Type ChangeType
	Op   ChangeOp
}

// WatcherConfig configures the file watcher.
type WatcherConfig struct {
	// Root is the directory to watch.
	Root string

	// Ignore contains doublestar patterns, relative to Root, to skip.
	// A pattern without "/" also matches any single path segment.
	Ignore []string

	// Interval is the polling period.
	Interval time.Duration
}

// DefaultIgnore contains default patterns to ignore.
var DefaultIgnore = []string{
	".git",
	"node_modules",
	"*.tmp",
	"*.swp",
	"*~",
}

// Symlinks are followed like the route scan does; dangling ones are
// skipped so a half-written tree does not stop the watcher.
var watchScanOptions = fsscan.Options{
	FollowSymlinks:      true,
	FailOnBrokenSymlink: false,
	FilesOnly:           true,
}

// Watcher polls a directory tree for changes.
type Watcher struct {
	config     WatcherConfig
	onChange   func([]Change)
	mu         sync.Mutex
	running    bool
	stopCh     chan struct{}
	timestamps map[string]time.Time
}

// NewWatcher creates a new file watcher.
func NewWatcher(config WatcherConfig) *Watcher {
	if config.Interval == 0 {
		config.Interval = 500 * time.Millisecond
	}
	if len(config.Ignore) == 0 {
		config.Ignore = DefaultIgnore
	}

	return &Watcher{
		config:     config,
		timestamps: make(map[string]time.Time),
	}
}

// OnChange sets the callback for file changes. It receives every change
// found in one poll.
func (w *Watcher) OnChange(fn func([]Change)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Start watches until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	stopCh := w.stopCh
	w.mu.Unlock()

	w.scanInitial()

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.markStopped(stopCh)
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			w.checkForChanges()
		}
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		close(w.stopCh)
		w.running = false
	}
}

func (w *Watcher) markStopped(stopCh chan struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running && w.stopCh == stopCh {
		w.running = false
	}
}

// snapshot walks the tree and returns the mod time of every file. On a
// scan error the map holds only what was seen before it.
func (w *Watcher) snapshot() (map[string]time.Time, error) {
	files := make(map[string]time.Time)
	for rel, err := range fsscan.Scan(w.config.Root, "**/*", watchScanOptions) {
		if err != nil {
			return files, err
		}
		if w.shouldIgnore(rel) {
			continue
		}
		info, err := os.Stat(filepath.Join(w.config.Root, filepath.FromSlash(rel)))
		if err != nil {
			continue
		}
		files[rel] = info.ModTime()
	}
	return files, nil
}

// scanInitial builds the initial timestamp map.
func (w *Watcher) scanInitial() {
	files, _ := w.snapshot()

	w.mu.Lock()
	defer w.mu.Unlock()
	w.timestamps = files
}

// checkForChanges compares a fresh snapshot with the last one.
func (w *Watcher) checkForChanges() {
	w.mu.Lock()
	callback := w.onChange
	w.mu.Unlock()

	if callback == nil {
		return
	}

	// The root may be briefly missing while it is being replaced. Diffing a
	// partial walk would report every unseen file as removed, so the poll
	// is skipped and the previous snapshot kept.
	current, err := w.snapshot()
	if err != nil {
		return
	}

	var changes []Change

	w.mu.Lock()
	for p, modTime := range current {
		lastMod, exists := w.timestamps[p]
		switch {
		case !exists:
			changes = append(changes, Change{Path: p, Type: classifyChange(p), Op: OpCreated})
		case !modTime.Equal(lastMod):
			changes = append(changes, Change{Path: p, Type: classifyChange(p), Op: OpModified})
		}
	}
	for p := range w.timestamps {
		if _, ok := current[p]; !ok {
			changes = append(changes, Change{Path: p, Type: classifyChange(p), Op: OpRemoved})
		}
	}
	w.timestamps = current
	w.mu.Unlock()

	if len(changes) > 0 {
		callback(changes)
	}
}

// shouldIgnore checks if a relative path should be ignored.
func (w *Watcher) shouldIgnore(rel string) bool {
	rel = filepath.ToSlash(rel)
	segments := strings.Split(rel, "/")

	for _, pattern := range w.config.Ignore {
		pattern = strings.TrimSpace(filepath.ToSlash(pattern))
		if pattern == "" {
			continue
		}

		if strings.Contains(pattern, "/") {
			if matched, _ := doublestar.Match(pattern, rel); matched {
				return true
			}
			continue
		}

		// Bare patterns match any segment: "node_modules" skips the whole
		// subtree, "*.swp" skips matching files anywhere.
		for _, seg := range segments {
			if matched, _ := path.Match(pattern, seg); matched {
				return true
			}
		}
	}

	return false
}

// classifyChange determines the type of change based on file extension.
func classifyChange(p string) ChangeType {
	switch strings.ToLower(path.Ext(p)) {
	case ".css":
		return ChangeCSS
	case ".html", ".htm":
		return ChangeHTML
	default:
		return ChangeAsset
	}
}

// IsRunning returns whether the watcher is running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
