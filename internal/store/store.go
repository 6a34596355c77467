package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/mmcdole/daisy/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketBooks     = []byte("books")
	bucketBookmarks = []byte("bookmarks")
)

// BookRecord remembers a book that has been opened
type BookRecord struct {
	Key      string    `json:"key"`
	Location string    `json:"location"`
	Title    string    `json:"title"`
	OpenedAt time.Time `json:"opened_at"`
}

// BookmarkStore keeps reading positions per book using BoltDB.
// It is safe for concurrent use.
type BookmarkStore struct {
	db     *bolt.DB
	mu     sync.RWMutex // Protects memory cache
	logger *slog.Logger

	// In-memory cache for hot-path reads (promoted on access)
	cache map[string][]byte
}

// NewBookmarkStore opens dir/daisy.db. An empty dir keeps everything in
// memory.
func NewBookmarkStore(dir string, logger *slog.Logger) (*BookmarkStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir == "" {
		// Memory-only mode (no persistence)
		logger.Debug("bookmark store in memory")
		return &BookmarkStore{cache: make(map[string][]byte), logger: logger}, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "daisy.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	// Create buckets
	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketBooks, bucketBookmarks} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug("bookmark store opened", "path", dbPath)
	return &BookmarkStore{db: db, cache: make(map[string][]byte), logger: logger}, nil
}

// BookKey derives a stable key from a book location. Trailing slashes and
// case do not matter.
func BookKey(location string) string {
	normalized := strings.TrimRight(strings.ToLower(location), "/")
	return strconv.FormatUint(xxhash.Sum64String(normalized), 16)
}

func (s *BookmarkStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

func (s *BookmarkStore) get(bucket []byte, key string, dest any) bool {
	cacheKey := string(bucket) + ":" + key

	// Check memory cache first
	s.mu.RLock()
	if data, ok := s.cache[cacheKey]; ok {
		s.mu.RUnlock()
		return json.Unmarshal(data, dest) == nil
	}
	s.mu.RUnlock()

	if s.db == nil {
		return false
	}

	// Read from BoltDB
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("bookmark read failed", "key", key, "error", err)
		return false
	}

	if data == nil {
		return false
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	return json.Unmarshal(data, dest) == nil
}

func (s *BookmarkStore) set(bucket []byte, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	cacheKey := string(bucket) + ":" + key

	// Update memory cache
	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	if s.db == nil {
		return nil // Memory-only mode
	}

	// Write to BoltDB
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		return b.Put([]byte(key), data)
	})
}

func (s *BookmarkStore) delete(bucket []byte, key string) error {
	cacheKey := string(bucket) + ":" + key

	// Clear from memory cache
	s.mu.Lock()
	delete(s.cache, cacheKey)
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
}

// all returns every value of a bucket, raw
func (s *BookmarkStore) all(bucket []byte) [][]byte {
	if s.db == nil {
		prefix := string(bucket) + ":"
		s.mu.RLock()
		defer s.mu.RUnlock()
		var out [][]byte
		for k, v := range s.cache {
			if strings.HasPrefix(k, prefix) {
				out = append(out, v)
			}
		}
		return out
	}

	var out [][]byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			data := make([]byte, len(v))
			copy(data, v)
			out = append(out, data)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("bucket scan failed", "bucket", string(bucket), "error", err)
	}
	return out
}

// === Bookmarks ===

// GetPosition returns the saved position of a book
func (s *BookmarkStore) GetPosition(bookKey string) (domain.Position, bool) {
	var pos domain.Position
	ok := s.get(bucketBookmarks, bookKey, &pos)
	return pos, ok
}

// SavePosition records the reading position of a book
func (s *BookmarkStore) SavePosition(bookKey string, pos domain.Position) error {
	if pos.EntryID == "" {
		return fmt.Errorf("%w: position without entry", domain.ErrConfiguration)
	}
	if err := s.set(bucketBookmarks, bookKey, pos); err != nil {
		s.logger.Error("failed to save position", "book", bookKey, "error", err)
		return err
	}
	s.logger.Debug("position saved", "book", bookKey, "entry", pos.EntryID)
	return nil
}

// DeletePosition forgets the position of a book
func (s *BookmarkStore) DeletePosition(bookKey string) error {
	return s.delete(bucketBookmarks, bookKey)
}

// === Books ===

// SaveBook records that a book was opened
func (s *BookmarkStore) SaveBook(rec BookRecord) error {
	if rec.Key == "" {
		rec.Key = BookKey(rec.Location)
	}
	return s.set(bucketBooks, rec.Key, rec)
}

// Books lists opened books, most recent first
func (s *BookmarkStore) Books() []BookRecord {
	var books []BookRecord
	for _, data := range s.all(bucketBooks) {
		var rec BookRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			s.logger.Warn("skipping unreadable book record", "error", err)
			continue
		}
		books = append(books, rec)
	}
	sort.Slice(books, func(i, j int) bool { return books[i].OpenedAt.After(books[j].OpenedAt) })
	return books
}

// Forget removes a book and its position
func (s *BookmarkStore) Forget(bookKey string) error {
	if err := s.delete(bucketBooks, bookKey); err != nil {
		return err
	}
	return s.DeletePosition(bookKey)
}
