package router

import (
	"io/fs"
	"os"
	"path/filepath"
)

// File is the default route value: a handle on a scanned file that is
// opened only when a request needs its contents.
type File struct {
	// Path is the resolved path (scan root joined with the relative path).
	Path string
}

// OpenFile is the default Producer. It does not touch the disk.
func OpenFile(path string) File {
	return File{Path: path}
}

// Open opens the file for reading.
func (f File) Open() (*os.File, error) {
	return os.Open(f.Path)
}

// Stat returns the file's info, following symlinks.
func (f File) Stat() (fs.FileInfo, error) {
	return os.Stat(f.Path)
}

// Name returns the base name of the file.
func (f File) Name() string {
	return filepath.Base(f.Path)
}

func (f File) String() string {
	return f.Path
}
