// Package fetch retrieves raw book resources from a folder, a web location
// or a zip archive. Every fetcher reports a missing resource as
// domain.ErrNotFound.
package fetch

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/mmcdole/daisy/internal/domain"
	"github.com/spf13/afero"
)

// IsURL reports whether location names an http(s) resource
func IsURL(location string) bool {
	u, err := url.Parse(location)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func isZip(location string) bool {
	p := location
	if u, err := url.Parse(location); err == nil && u.Path != "" {
		p = u.Path
	}
	return strings.EqualFold(path.Ext(p), ".zip")
}

// Open picks a fetcher for location: a folder or zip file on fsys, or a
// base URL or zip archive over HTTP. A nil fsys uses the OS filesystem.
func Open(location string, timeout time.Duration, fsys afero.Fs, logger *slog.Logger) (domain.Fetcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if location == "" {
		return nil, fmt.Errorf("%w: empty book location", domain.ErrConfiguration)
	}

	switch {
	case IsURL(location) && isZip(location):
		logger.Info("opening remote archive", "url", location)
		data, err := download(location, timeout, logger)
		if err != nil {
			return nil, err
		}
		return NewZip(location, data, logger)

	case IsURL(location):
		logger.Info("opening web location", "url", location)
		return NewWeb(location, timeout, logger)

	case isZip(location):
		logger.Info("opening archive", "path", location)
		data, err := afero.ReadFile(fsys, location)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrSourceUnavailable, location, err)
		}
		return NewZip(location, data, logger)

	default:
		logger.Info("opening folder", "path", location)
		return NewFolder(fsys, location, logger)
	}
}

func download(location string, timeout time.Duration, logger *slog.Logger) ([]byte, error) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	w := &Web{httpClient: &http.Client{Timeout: timeout}, logger: logger}
	data, err := w.get(location)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	return data, nil
}
