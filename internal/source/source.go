// Package source combines a fetcher with a resource cache.
package source

import (
	"fmt"
	"log/slog"

	"github.com/mmcdole/daisy/internal/cache"
	"github.com/mmcdole/daisy/internal/domain"
	"github.com/mmcdole/daisy/internal/markup"
)

// Source serves book resources, answering from its cache when it can.
// Like the cache it wraps, a Source is not safe for concurrent use.
type Source struct {
	fetcher domain.Fetcher
	cache   *cache.Cache
	logger  *slog.Logger
}

// New creates a source over fetcher with a cache of cacheSize entries.
// A cacheSize of 0 disables caching.
func New(fetcher domain.Fetcher, cacheSize int, withStats bool, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{
		fetcher: fetcher,
		cache:   cache.New(cacheSize, withStats, logger),
		logger:  logger,
	}
}

// Location returns where resources come from
func (s *Source) Location() string {
	return s.fetcher.Location()
}

// Available asks the fetcher whether name exists, bypassing the cache
func (s *Source) Available(name string) bool {
	return s.fetcher.Available(name)
}

// Get returns the named resource in its most refined form.
// Fetch failures return domain.ErrNotFound and are never cached.
func (s *Source) Get(name string) (cache.Resource, error) {
	if res, ok := s.cache.Get(name); ok {
		return res, nil
	}

	data, err := s.fetcher.Fetch(name)
	if err != nil {
		s.logger.Debug("resource unavailable", "name", name, "error", err)
		return cache.Resource{}, fmt.Errorf("get %s: %w", name, domain.ErrNotFound)
	}

	res := cache.NewResource(data)
	s.cache.Add(name, res)
	s.logger.Debug("resource loaded", "name", name, "kind", res.Kind, "bytes", len(data))
	return res, nil
}

// Document returns the named resource as a parsed document.
// A resource that exists but is not markup yields domain.ErrNotMarkup.
func (s *Source) Document(name string) (*markup.Document, error) {
	res, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	if res.Kind != cache.KindDocument {
		return nil, fmt.Errorf("%s is %s: %w", name, res.Kind, domain.ErrNotMarkup)
	}
	return res.Doc, nil
}

// Raw fetches the resource bytes without touching the cache. Audio is read
// this way so large clips never push documents out.
func (s *Source) Raw(name string) ([]byte, error) {
	data, err := s.fetcher.Fetch(name)
	if err != nil {
		return nil, fmt.Errorf("raw %s: %w", name, domain.ErrNotFound)
	}
	return data, nil
}

func (s *Source) EnableStats(enabled bool) {
	s.cache.EnableStats(enabled)
}

func (s *Source) CacheSize() int {
	return s.cache.Capacity()
}

// SetCacheSize resizes the cache and returns the resulting size
func (s *Source) SetCacheSize(size int) int {
	return s.cache.Resize(size)
}

// Cache exposes the underlying cache for statistics and metrics
func (s *Source) Cache() *cache.Cache {
	return s.cache
}
