package fetch

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/mmcdole/daisy/internal/domain"
)

// indexName locates the book root inside an archive
const indexName = "ncc.html"

// Zip reads resources from an in-memory zip archive. Archives that wrap the
// book in a top folder are handled by resolving names below the folder that
// holds the index document.
type Zip struct {
	location string
	files    map[string]*zip.File
	prefix   string
	logger   *slog.Logger
}

// NewZip indexes the archive in data. location is informational.
func NewZip(location string, data []byte, logger *slog.Logger) (*Zip, error) {
	if logger == nil {
		logger = slog.Default()
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrSourceUnavailable, location, err)
	}

	z := &Zip{
		location: location,
		files:    make(map[string]*zip.File, len(zr.File)),
		logger:   logger,
	}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		z.files[cleanEntry(f.Name)] = f
	}
	z.prefix = findPrefix(z.files)

	logger.Debug("zip archive indexed", "location", location, "entries", len(z.files), "prefix", z.prefix)
	return z, nil
}

func cleanEntry(name string) string {
	return strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(name, "\\", "/")), "/")
}

// findPrefix returns the folder holding the index document, "" at the root
func findPrefix(files map[string]*zip.File) string {
	if _, ok := files[indexName]; ok {
		return ""
	}
	best := ""
	found := false
	for name := range files {
		if !strings.EqualFold(path.Base(name), indexName) {
			continue
		}
		dir := path.Dir(name) + "/"
		if !found || len(dir) < len(best) {
			best, found = dir, true
		}
	}
	return best
}

func (z *Zip) Location() string {
	return z.location
}

func (z *Zip) lookup(name string) (*zip.File, bool) {
	name = cleanEntry(name)
	if f, ok := z.files[z.prefix+name]; ok {
		return f, true
	}
	f, ok := z.files[name]
	return f, ok
}

func (z *Zip) Available(name string) bool {
	_, ok := z.lookup(name)
	return ok
}

func (z *Zip) Fetch(name string) ([]byte, error) {
	f, ok := z.lookup(name)
	if !ok {
		z.logger.Debug("archive entry not found", "name", name)
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrNotFound, name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		z.logger.Error("failed to read archive entry", "name", name, "error", err)
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrNotFound, name, err)
	}
	return data, nil
}
