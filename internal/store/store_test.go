package store

import (
	"testing"
	"time"

	"github.com/mmcdole/daisy/internal/domain"
	"github.com/mmcdole/daisy/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookKey(t *testing.T) {
	a := BookKey("https://example.com/Books/Alice/")
	assert.Equal(t, a, BookKey("https://example.com/books/alice"))
	assert.NotEqual(t, a, BookKey("https://example.com/books/bob"))
	assert.NotEmpty(t, a)
}

func testStores(t *testing.T) map[string]func() *BookmarkStore {
	dir := t.TempDir()
	return map[string]func() *BookmarkStore{
		"memory": func() *BookmarkStore {
			s, err := NewBookmarkStore("", logging.NullLogger())
			require.NoError(t, err)
			return s
		},
		"bolt": func() *BookmarkStore {
			s, err := NewBookmarkStore(dir, logging.NullLogger())
			require.NoError(t, err)
			return s
		},
	}
}

func TestPositions(t *testing.T) {
	for name, open := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			s := open()
			defer s.Close()

			key := BookKey("/books/alice")
			_, ok := s.GetPosition(key)
			assert.False(t, ok)

			pos := domain.Position{
				EntryID:   "rgn_ncc_0007",
				SectionID: "tx_0007_2",
				ClipID:    "au_0007_2_1",
				Level:     2,
				UpdatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
			}
			require.NoError(t, s.SavePosition(key, pos))

			got, ok := s.GetPosition(key)
			require.True(t, ok)
			assert.Equal(t, pos, got)

			require.NoError(t, s.DeletePosition(key))
			_, ok = s.GetPosition(key)
			assert.False(t, ok)

			assert.ErrorIs(t, s.SavePosition(key, domain.Position{}), domain.ErrConfiguration)
		})
	}
}

func TestPositionsPersist(t *testing.T) {
	dir := t.TempDir()
	key := BookKey("/books/alice")

	s, err := NewBookmarkStore(dir, nil)
	require.NoError(t, err)
	require.NoError(t, s.SavePosition(key, domain.Position{EntryID: "rgn_ncc_0003"}))
	require.NoError(t, s.Close())

	reopened, err := NewBookmarkStore(dir, nil)
	require.NoError(t, err)
	defer reopened.Close()

	got, ok := reopened.GetPosition(key)
	require.True(t, ok)
	assert.Equal(t, "rgn_ncc_0003", got.EntryID)
}

func TestBooks(t *testing.T) {
	for name, open := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			s := open()
			defer s.Close()

			older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
			newer := older.Add(24 * time.Hour)
			require.NoError(t, s.SaveBook(BookRecord{Location: "/books/alice", Title: "Alice", OpenedAt: older}))
			require.NoError(t, s.SaveBook(BookRecord{Location: "/books/bob", Title: "Bob", OpenedAt: newer}))

			books := s.Books()
			require.Len(t, books, 2)
			assert.Equal(t, "Bob", books[0].Title)
			assert.Equal(t, BookKey("/books/alice"), books[1].Key)

			require.NoError(t, s.SavePosition(books[1].Key, domain.Position{EntryID: "x"}))
			require.NoError(t, s.Forget(books[1].Key))
			assert.Len(t, s.Books(), 1)
			_, ok := s.GetPosition(books[1].Key)
			assert.False(t, ok)
		})
	}
}
