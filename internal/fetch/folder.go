package fetch

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"

	"github.com/mmcdole/daisy/internal/domain"
	"github.com/spf13/afero"
)

// Folder reads resources from a directory.
type Folder struct {
	fs     afero.Fs
	base   string
	logger *slog.Logger
}

// NewFolder opens a book directory on fsys. A nil fsys uses the OS filesystem.
// Returns domain.ErrSourceUnavailable when base is not a directory.
func NewFolder(fsys afero.Fs, base string, logger *slog.Logger) (*Folder, error) {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if logger == nil {
		logger = slog.Default()
	}
	ok, err := afero.DirExists(fsys, base)
	if err != nil || !ok {
		return nil, fmt.Errorf("%w: folder %s", domain.ErrSourceUnavailable, base)
	}
	return &Folder{fs: fsys, base: base, logger: logger}, nil
}

func (f *Folder) Location() string {
	return f.base
}

func (f *Folder) resolve(name string) string {
	// resource names use forward slashes whatever the OS
	return filepath.Join(f.base, filepath.FromSlash(path.Clean("/" + name)))
}

func (f *Folder) Available(name string) bool {
	ok, err := afero.Exists(f.fs, f.resolve(name))
	return err == nil && ok
}

func (f *Folder) Fetch(name string) ([]byte, error) {
	p := f.resolve(name)
	data, err := afero.ReadFile(f.fs, p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			f.logger.Debug("resource not found", "path", p)
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, name)
		}
		f.logger.Error("failed to read resource", "path", p, "error", err)
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrNotFound, name, err)
	}
	f.logger.Debug("fetched resource", "path", p, "bytes", len(data))
	return data, nil
}
