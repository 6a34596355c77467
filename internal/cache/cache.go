// Package cache holds fetched book resources in a capacity-bounded,
// first-in first-out store with optional per-key statistics.
//
// A Cache is not safe for concurrent use; callers sharing one across
// goroutines must guard it with their own lock.
package cache

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Cache maps resource names to resources. When full, the oldest inserted
// entry is evicted; reads never change eviction order.
type Cache struct {
	capacity int
	order    []string // insertion order, oldest first
	items    map[string]Resource

	withStats bool
	queries   int
	hits      int
	stats     map[string]*KeyStats

	metrics *Metrics
	logger  *slog.Logger
}

// KeyStats holds query counters for one key
type KeyStats struct {
	Key     string
	Queries int
	Hits    int
}

// Efficiency returns hits/queries, 0 when never queried
func (s KeyStats) Efficiency() float64 {
	if s.Queries == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Queries)
}

// New creates a cache holding at most capacity entries.
// A negative capacity is clamped to 0, which disables storage.
func New(capacity int, withStats bool, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	if capacity < 0 {
		logger.Warn("cache capacity must not be negative, using 0", "capacity", capacity)
		capacity = 0
	}
	c := &Cache{
		capacity:  capacity,
		items:     make(map[string]Resource),
		withStats: withStats,
		stats:     make(map[string]*KeyStats),
		logger:    logger,
	}
	logger.Debug("cache created", "capacity", capacity, "stats", withStats)
	return c
}

// SetMetrics attaches Prometheus collectors; nil detaches them
func (c *Cache) SetMetrics(m *Metrics) {
	c.metrics = m
	c.metrics.setEntries(len(c.order))
}

// Capacity returns the maximum number of entries
func (c *Cache) Capacity() int {
	return c.capacity
}

// Len returns the number of entries held
func (c *Cache) Len() int {
	return len(c.order)
}

// Keys returns held keys, oldest first
func (c *Cache) Keys() []string {
	return append([]string(nil), c.order...)
}

// Get looks a key up. Every call counts as a query.
func (c *Cache) Get(key string) (Resource, bool) {
	c.queries++
	value, ok := c.items[key]
	if ok {
		c.hits++
		c.metrics.hit()
		c.logger.Debug("cache hit", "key", key, "kind", value.Kind)
	} else {
		c.metrics.miss()
		c.logger.Debug("cache miss", "key", key)
	}

	if c.withStats {
		s, exists := c.stats[key]
		if !exists {
			s = &KeyStats{Key: key}
			c.stats[key] = s
		}
		s.Queries++
		if ok {
			s.Hits++
		}
	}
	return value, ok
}

// Add stores value under key. An existing key is replaced in place and keeps
// its eviction position; a new key evicts the oldest entry when full.
func (c *Cache) Add(key string, value Resource) {
	if c.capacity == 0 {
		return
	}
	if _, exists := c.items[key]; exists {
		c.items[key] = value
		c.logger.Debug("cache entry replaced", "key", key)
		return
	}
	if len(c.order) >= c.capacity {
		c.evict(1)
	}
	c.order = append(c.order, key)
	c.items[key] = value
	c.metrics.setEntries(len(c.order))
	c.logger.Debug("cache entry added", "key", key, "kind", value.Kind)
}

// Resize changes the capacity, keeping the most recently inserted entries.
// Negative sizes are ignored. Returns the resulting capacity.
func (c *Cache) Resize(capacity int) int {
	if capacity < 0 {
		c.logger.Warn("ignoring negative cache capacity", "capacity", capacity)
		return c.capacity
	}
	if capacity == c.capacity {
		return c.capacity
	}
	if excess := len(c.order) - capacity; excess > 0 {
		c.evict(excess)
	}
	c.logger.Debug("cache resized", "from", c.capacity, "to", capacity)
	c.capacity = capacity
	return c.capacity
}

// evict drops the n oldest entries
func (c *Cache) evict(n int) {
	for _, key := range c.order[:n] {
		delete(c.items, key)
		c.metrics.evicted()
		c.logger.Debug("cache entry evicted", "key", key)
	}
	kept := make([]string, len(c.order)-n, max(c.capacity, len(c.order)-n))
	copy(kept, c.order[n:])
	c.order = kept
	c.metrics.setEntries(len(c.order))
}

// EnableStats turns per-key statistics on or off. Collected figures are kept.
func (c *Cache) EnableStats(enabled bool) {
	c.withStats = enabled
}

// StatsEnabled reports whether per-key statistics are collected
func (c *Cache) StatsEnabled() bool {
	return c.withStats
}

// Queries returns the number of Get calls
func (c *Cache) Queries() int {
	return c.queries
}

// Hits returns the number of successful Get calls
func (c *Cache) Hits() int {
	return c.hits
}

// Efficiency returns hits/queries, 0 when nothing was queried
func (c *Cache) Efficiency() float64 {
	if c.queries == 0 {
		return 0
	}
	return float64(c.hits) / float64(c.queries)
}

// Stats returns per-key statistics sorted by key
func (c *Cache) Stats() []KeyStats {
	out := make([]KeyStats, 0, len(c.stats))
	for _, s := range c.stats {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// KeyStats returns statistics for one key
func (c *Cache) KeyStats(key string) (KeyStats, bool) {
	s, ok := c.stats[key]
	if !ok {
		return KeyStats{Key: key}, false
	}
	return *s, true
}

// Report renders the statistics as a text table
func (c *Cache) Report() string {
	var sb strings.Builder
	sb.WriteString("Cache statistics\n")
	for _, s := range c.Stats() {
		fmt.Fprintf(&sb, "%-20s queries: %4d, hits: %4d, efficiency: %6.2f %%\n",
			s.Key, s.Queries, s.Hits, s.Efficiency()*100)
	}
	fmt.Fprintf(&sb, "%-20s queries: %4d, hits: %4d, efficiency: %6.2f %%\n",
		"total", c.queries, c.hits, c.Efficiency()*100)
	return sb.String()
}
