package navigator

import (
	"regexp"
	"testing"

	"github.com/mmcdole/daisy/internal/book"
	"github.com/mmcdole/daisy/internal/book/booktest"
	"github.com/mmcdole/daisy/internal/domain"
	"github.com/mmcdole/daisy/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNavigator(t *testing.T, files map[string][]byte, level int) *BookNavigator {
	t.Helper()
	n, err := NewBookNavigator(booktest.Load(t, files), level, logging.NullLogger())
	require.NoError(t, err)
	return n
}

// assertConsistent checks the entry/section/clip triple
func assertConsistent(t *testing.T, n *BookNavigator) {
	t.Helper()
	require.NotNil(t, n.Entry())
	assert.Equal(t, n.Entry(), n.Toc().Current())

	sections, err := n.Entry().Sections()
	if err != nil || len(sections) == 0 {
		assert.Nil(t, n.Section())
		assert.Nil(t, n.Clip())
		return
	}
	require.NotNil(t, n.Section())
	assert.Contains(t, sections, n.Section())
	if len(n.Section().Clips) == 0 {
		assert.Nil(t, n.Clip())
		return
	}
	assert.Contains(t, n.Section().Clips, n.Clip())
}

func TestNavigatorStartsOnFirstEntry(t *testing.T) {
	n := newNavigator(t, nil, 0)
	assert.Equal(t, booktest.EntryID(1), n.Entry().ID)
	assert.Equal(t, "tx_0001_1", n.Section().ID)
	assert.Equal(t, "au_0001_1_1", n.Clip().ID)
	assertConsistent(t, n)

	leveled := newNavigator(t, nil, 3)
	assert.Equal(t, booktest.EntryID(3), leveled.Entry().ID)
	assert.Equal(t, 3, leveled.Level())
}

func TestNavigatorConsistencyAfterEveryEntryMove(t *testing.T) {
	n := newNavigator(t, nil, 0)
	moves := []func() (*book.TocEntry, bool){n.NextEntry, n.LastEntry, n.PrevEntry, n.FirstEntry}
	for _, move := range moves {
		for i := 0; i < 5; i++ {
			move()
			assertConsistent(t, n)
		}
	}
}

func TestEntryMoveResetsInnerCursors(t *testing.T) {
	n := newNavigator(t, nil, 0)

	_, ok := n.LastSection()
	require.True(t, ok)
	_, ok = n.LastClip()
	require.True(t, ok)
	assert.Equal(t, "au_0001_2_2", n.Clip().ID)

	e, ok := n.NextEntry()
	require.True(t, ok)
	assert.Equal(t, booktest.EntryID(2), e.ID)
	assert.Equal(t, "tx_0002_1", n.Section().ID)
	assert.Equal(t, "au_0002_1_1", n.Clip().ID)
}

func TestSectionMoveKeepsEntry(t *testing.T) {
	n := newNavigator(t, nil, 0)
	n.GoToEntry(booktest.EntryID(4))

	s, ok := n.NextSection()
	require.True(t, ok)
	assert.Equal(t, "tx_0004_2", s.ID)
	assert.Equal(t, booktest.EntryID(4), n.Entry().ID)
	assert.Equal(t, "au_0004_2_1", n.Clip().ID)

	_, ok = n.NextSection()
	assert.False(t, ok)
	assert.Equal(t, "tx_0004_2", n.Section().ID)

	s, ok = n.PrevSection()
	require.True(t, ok)
	assert.Equal(t, "tx_0004_1", s.ID)

	s, ok = n.GoToSection("tx_0004_2")
	require.True(t, ok)
	assert.Equal(t, s, n.Section())
	_, ok = n.GoToSection("tx_0005_1")
	assert.False(t, ok)
	assertConsistent(t, n)
}

func TestClipMovesOnlyTouchClip(t *testing.T) {
	n := newNavigator(t, nil, 0)
	section := n.Section()

	c, ok := n.NextClip()
	require.True(t, ok)
	assert.Equal(t, "au_0001_1_2", c.ID)
	_, ok = n.NextClip()
	assert.False(t, ok)

	c, ok = n.FirstClip()
	require.True(t, ok)
	assert.Equal(t, "au_0001_1_1", c.ID)
	_, ok = n.PrevClip()
	assert.False(t, ok)

	c, ok = n.GoToClip("au_0001_1_2")
	require.True(t, ok)
	assert.Equal(t, c, n.Clip())

	assert.Same(t, section, n.Section())
	assert.Equal(t, booktest.EntryID(1), n.Entry().ID)
	assert.Len(t, n.Clips(), 2)
	assert.Len(t, n.Sections(), 2)
}

func TestFilteredEntryMissReanchors(t *testing.T) {
	n := newNavigator(t, nil, 1)
	e, ok := n.LastEntry()
	require.True(t, ok)
	assert.Equal(t, booktest.EntryID(29), e.ID)

	_, ok = n.NextEntry()
	assert.False(t, ok)
	assert.Equal(t, booktest.EntryID(29), n.Entry().ID)
	assertConsistent(t, n)

	e, ok = n.PrevEntry()
	require.True(t, ok)
	assert.Equal(t, booktest.EntryID(24), e.ID)
}

func TestFilteredEntryMissWithoutHeadingIDs(t *testing.T) {
	files := booktest.Files()
	files["ncc.html"] = regexp.MustCompile(` id="rgn_ncc_\d+"`).ReplaceAll(files["ncc.html"], nil)
	n := newNavigator(t, files, 2)

	e, ok := n.LastEntry()
	require.True(t, ok)
	require.Empty(t, e.ID)
	assert.Equal(t, booktest.EntryText(30), e.Text)

	for i := 0; i < 2; i++ {
		_, ok = n.NextEntry()
		assert.False(t, ok)
		assert.Equal(t, booktest.Entries-1, n.Toc().Index())
		assert.Same(t, n.Entry(), n.Toc().Current())
	}

	e, ok = n.PrevEntry()
	require.True(t, ok)
	assert.Equal(t, booktest.EntryText(29), e.Text)
	assert.Same(t, e, n.Toc().Current())

	e, ok = n.NextEntry()
	require.True(t, ok)
	assert.Equal(t, booktest.EntryText(30), e.Text)

	_, ok = n.FirstEntry()
	require.True(t, ok)
	_, ok = n.PrevEntry()
	assert.False(t, ok)
	assert.Equal(t, 0, n.Toc().Index())
	assert.Same(t, n.Entry(), n.Toc().Current())
}

func TestEntryWithoutSections(t *testing.T) {
	files := booktest.Files()
	delete(files, booktest.UnitName(2))
	files[booktest.UnitName(3)] = []byte("<smil><body><seq/></body></smil>")
	n := newNavigator(t, files, 0)

	for _, id := range []string{booktest.EntryID(2), booktest.EntryID(3)} {
		_, ok := n.GoToEntry(id)
		require.True(t, ok)
		assert.Nil(t, n.Section())
		assert.Nil(t, n.Clip())
		assert.Nil(t, n.Sections())
		assertConsistent(t, n)

		_, ok = n.NextSection()
		assert.False(t, ok)
		_, ok = n.FirstClip()
		assert.False(t, ok)
	}

	e, ok := n.NextEntry()
	require.True(t, ok)
	assert.Equal(t, booktest.EntryID(4), e.ID)
	assert.NotNil(t, n.Clip())
}

func TestSectionWithoutClips(t *testing.T) {
	smil := `<smil><body><seq><par id="p1"><text id="t1" src="text.html#t0001_1"/></par></seq></body></smil>`
	files := booktest.Files()
	files[booktest.UnitName(1)] = []byte(smil)
	n := newNavigator(t, files, 0)

	assert.Equal(t, "p1", n.Section().ID)
	assert.Nil(t, n.Clip())
	assert.Nil(t, n.Clips())
	_, ok := n.NextClip()
	assert.False(t, ok)
	assertConsistent(t, n)
}

func TestObserver(t *testing.T) {
	n := newNavigator(t, nil, 0)
	var seen []domain.Position
	n.Subscribe(ObserverFunc(func(pos domain.Position) { seen = append(seen, pos) }))

	n.NextEntry()
	n.NextSection()
	n.NextClip()
	n.NextClip() // at boundary, no notification

	require.Len(t, seen, 3)
	assert.Equal(t, booktest.EntryID(2), seen[0].EntryID)
	assert.Equal(t, "tx_0002_1", seen[0].SectionID)
	assert.Equal(t, "tx_0002_2", seen[1].SectionID)
	assert.Equal(t, "au_0002_2_2", seen[2].ClipID)
}

func TestPositionRestore(t *testing.T) {
	n := newNavigator(t, nil, 0)
	n.GoToEntry(booktest.EntryID(9))
	n.SetLevel(2)
	n.LastSection()
	n.NextClip()
	pos := n.Position()
	assert.Equal(t, domain.Position{
		EntryID:   booktest.EntryID(9),
		SectionID: "tx_0009_2",
		ClipID:    "au_0009_2_2",
		Level:     2,
		UpdatedAt: pos.UpdatedAt,
	}, pos)

	other := newNavigator(t, nil, 0)
	require.NoError(t, other.Restore(pos))
	assert.Equal(t, booktest.EntryID(9), other.Entry().ID)
	assert.Equal(t, "tx_0009_2", other.Section().ID)
	assert.Equal(t, "au_0009_2_2", other.Clip().ID)
	assert.Equal(t, 2, other.Level())
	assertConsistent(t, other)

	e, ok := other.NextEntry()
	require.True(t, ok)
	assert.Equal(t, booktest.EntryID(14), e.ID)
}

func TestRestoreFallbacks(t *testing.T) {
	n := newNavigator(t, nil, 0)
	err := n.Restore(domain.Position{EntryID: "missing"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, booktest.EntryID(1), n.Entry().ID)

	require.NoError(t, n.Restore(domain.Position{EntryID: booktest.EntryID(5), SectionID: "gone", ClipID: "gone"}))
	assert.Equal(t, "tx_0005_1", n.Section().ID)
	assert.Equal(t, "au_0005_1_1", n.Clip().ID)
}

func TestLevelDelegation(t *testing.T) {
	n := newNavigator(t, nil, 0)
	assert.Equal(t, 1, n.IncreaseLevel())
	assert.Equal(t, 0, n.DecreaseLevel())
	assert.Equal(t, 3, n.SetLevel(3))
	assert.Equal(t, 0, n.ResetLevel())
	assert.Equal(t, 0, n.SetLevel(7))
}
