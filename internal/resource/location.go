package resource

import (
	"fmt"
	"os"
	"path/filepath"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// Location addresses a file or directory inside a billy filesystem.
type Location struct {
	FS   billy.Filesystem
	Path string
}

// Name is the last element of the path.
func (l Location) Name() string {
	return filepath.Base(l.Path)
}

// Join returns the location of a descendant.
func (l Location) Join(elem ...string) Location {
	return Location{FS: l.FS, Path: l.FS.Join(append([]string{l.Path}, elem...)...)}
}

// Dir returns the location of the enclosing directory.
func (l Location) Dir() Location {
	return Location{FS: l.FS, Path: filepath.Dir(l.Path)}
}

// Stat describes the entry.
func (l Location) Stat() (os.FileInfo, error) {
	return l.FS.Stat(l.Path)
}

// Open opens the entry for reading.
func (l Location) Open() (billy.File, error) {
	return l.FS.Open(l.Path)
}

// Create truncates or creates the file, creating parent directories first.
func (l Location) Create() (billy.File, error) {
	if err := l.FS.MkdirAll(filepath.Dir(l.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create parent of %s: %w", l.Path, err)
	}
	return l.FS.Create(l.Path)
}

// ReadFile reads the whole file.
func (l Location) ReadFile() ([]byte, error) {
	return util.ReadFile(l.FS, l.Path)
}

// WriteFile replaces the file contents, creating parent directories first.
func (l Location) WriteFile(data []byte) error {
	if err := l.FS.MkdirAll(filepath.Dir(l.Path), 0o755); err != nil {
		return fmt.Errorf("create parent of %s: %w", l.Path, err)
	}
	return util.WriteFile(l.FS, l.Path, data, 0o644)
}

func (l Location) String() string {
	return l.Path
}
