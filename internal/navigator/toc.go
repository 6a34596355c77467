package navigator

import (
	"log/slog"

	"github.com/mmcdole/daisy/internal/book"
)

// TocCursor walks table of contents entries, optionally showing only the
// headings of one navigation level. Level 0 shows every heading.
//
// A filtered move that finds no matching entry reports false and leaves the
// cursor on the boundary it ran into.
type TocCursor struct {
	cur      *Cursor[*book.TocEntry]
	level    int
	maxDepth int
	logger   *slog.Logger
}

// NewTocCursor creates an unfiltered cursor on the first entry
func NewTocCursor(entries []*book.TocEntry, maxDepth int, logger *slog.Logger) (*TocCursor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cur, err := NewCursor(entries)
	if err != nil {
		return nil, err
	}
	return &TocCursor{cur: cur, maxDepth: max(maxDepth, 0), logger: logger}, nil
}

func (t *TocCursor) visible(e *book.TocEntry) bool {
	return t.level == 0 || e.Level == t.level
}

// seek steps with move until a visible entry shows up
func (t *TocCursor) seek(move func() (*book.TocEntry, bool)) (*book.TocEntry, bool) {
	for {
		e, ok := move()
		if !ok {
			t.logger.Debug("no entry at level", "level", t.level, "index", t.cur.Index())
			return nil, false
		}
		if t.visible(e) {
			return e, true
		}
	}
}

func (t *TocCursor) First() (*book.TocEntry, bool) {
	if e := t.cur.First(); t.visible(e) {
		return e, true
	}
	return t.seek(t.cur.Next)
}

func (t *TocCursor) Last() (*book.TocEntry, bool) {
	if e := t.cur.Last(); t.visible(e) {
		return e, true
	}
	return t.seek(t.cur.Prev)
}

func (t *TocCursor) Next() (*book.TocEntry, bool) {
	return t.seek(t.cur.Next)
}

func (t *TocCursor) Prev() (*book.TocEntry, bool) {
	return t.seek(t.cur.Prev)
}

// Current returns the entry under the cursor, visible or not
func (t *TocCursor) Current() *book.TocEntry {
	return t.cur.Current()
}

// GoTo moves to the entry with the given id, ignoring the level filter
func (t *TocCursor) GoTo(id string) (*book.TocEntry, bool) {
	return Lookup(t.cur, id)
}

func (t *TocCursor) AtFirst() bool { return t.cur.AtFirst() }
func (t *TocCursor) AtLast() bool { return t.cur.AtLast() }
func (t *TocCursor) Index() int { return t.cur.Index() }

// Entries returns every entry, whatever the filter
func (t *TocCursor) Entries() []*book.TocEntry {
	return t.cur.Items()
}

// Level returns the active filter, 0 when none
func (t *TocCursor) Level() int { return t.level }

func (t *TocCursor) MaxDepth() int { return t.maxDepth }

// SetLevel changes the filter. Values outside 0..MaxDepth are ignored.
// Returns the resulting level.
func (t *TocCursor) SetLevel(level int) int {
	if level < 0 || level > t.maxDepth {
		t.logger.Debug("navigation level out of range", "level", level, "max", t.maxDepth)
		return t.level
	}
	if level != t.level {
		t.logger.Debug("navigation level changed", "from", t.level, "to", level)
	}
	t.level = level
	return t.level
}

func (t *TocCursor) IncreaseLevel() int {
	return t.SetLevel(t.level + 1)
}

func (t *TocCursor) DecreaseLevel() int {
	return t.SetLevel(t.level - 1)
}

func (t *TocCursor) ResetLevel() int {
	return t.SetLevel(0)
}
