// Package fsscan enumerates the files under a directory that match a glob
// pattern.
//
// Scan is lazy: directories are read as the caller ranges over the
// sequence, and stopping the range stops the walk. Paths are yielded
// relative to the root with "/" separators, in directory order.
package fsscan

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	fserrors "github.com/vango-dev/fsroute/internal/errors"
)

// Scan errors. They are wrapped in a coded *errors.Error; use errors.Is.
var (
	ErrBrokenSymlink = errors.New("broken symbolic link")
	ErrBadPattern    = doublestar.ErrBadPattern
)

// Options configures a scan.
type Options struct {
	// FollowSymlinks descends into symlinked directories and yields
	// symlinked files. Cycles are detected and not followed twice.
	FollowSymlinks bool

	// FailOnBrokenSymlink ends the scan with an error when a symlink
	// target does not exist. When false, broken links are skipped.
	FailOnBrokenSymlink bool

	// FilesOnly omits directories from the results.
	FilesOnly bool
}

// Validate reports whether pattern is a valid glob.
func Validate(pattern string) error {
	if !doublestar.ValidatePattern(pattern) {
		return fserrors.New("E203").WithPath(pattern).Wrap(ErrBadPattern)
	}
	return nil
}

// Scan returns the paths under root matching pattern. The first error ends
// the sequence; it is yielded with an empty path.
func Scan(root, pattern string, opts Options) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if err := Validate(pattern); err != nil {
			yield("", err)
			return
		}

		resolved, err := filepath.EvalSymlinks(root)
		if err != nil {
			yield("", fserrors.New("E202").WithPath(root).Wrap(err))
			return
		}

		w := &walker{
			pattern: pattern,
			opts:    opts,
			yield:   yield,
			active:  map[string]bool{resolved: true},
		}
		w.walk(root, resolved, "")
	}
}

type walker struct {
	pattern string
	opts    Options
	yield   func(string, error) bool

	// active holds the resolved paths of the directories on the current
	// descent, so a symlink back to an ancestor is not followed.
	active map[string]bool
}

// walk reads one directory. It returns false once the walk must stop,
// either because the consumer stopped ranging or an error was yielded.
func (w *walker) walk(dir, resolved, rel string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		w.fail(fserrors.New("E202").WithPath(displayPath(rel)).Wrap(err))
		return false
	}

	for _, entry := range entries {
		name := entry.Name()
		full := filepath.Join(dir, name)
		relPath := path.Join(rel, name)
		entryReal := filepath.Join(resolved, name)
		isDir := entry.IsDir()

		if entry.Type()&fs.ModeSymlink != 0 {
			info, err := os.Stat(full)
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					if !w.opts.FailOnBrokenSymlink {
						continue
					}
					w.fail(fserrors.New("E201").
						WithPath(relPath).
						WithSuggestion("Remove the link or restore its target").
						Wrap(fmt.Errorf("%w: %w", ErrBrokenSymlink, err)))
					return false
				}
				w.fail(fserrors.New("E202").WithPath(relPath).Wrap(err))
				return false
			}
			if !w.opts.FollowSymlinks {
				continue
			}
			isDir = info.IsDir()
			if isDir {
				entryReal, err = filepath.EvalSymlinks(full)
				if err != nil {
					w.fail(fserrors.New("E202").WithPath(relPath).Wrap(err))
					return false
				}
			}
		}

		if !isDir {
			if w.matches(relPath) && !w.yield(relPath, nil) {
				return false
			}
			continue
		}

		if w.active[entryReal] {
			continue
		}
		if !w.opts.FilesOnly && w.matches(relPath) && !w.yield(relPath, nil) {
			return false
		}

		w.active[entryReal] = true
		ok := w.walk(full, entryReal, relPath)
		delete(w.active, entryReal)
		if !ok {
			return false
		}
	}

	return true
}

func (w *walker) matches(relPath string) bool {
	ok, err := doublestar.Match(w.pattern, relPath)
	return err == nil && ok
}

func (w *walker) fail(err error) {
	w.yield("", err)
}

func displayPath(rel string) string {
	if rel == "" {
		return "."
	}
	return rel
}
