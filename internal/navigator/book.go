package navigator

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/mmcdole/daisy/internal/book"
	"github.com/mmcdole/daisy/internal/domain"
)

// Observer is notified after every successful move
type Observer interface {
	OnMove(pos domain.Position)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(pos domain.Position)

func (f ObserverFunc) OnMove(pos domain.Position) { f(pos) }

// BookNavigator composes entry, section and clip cursors. Moving an outer
// cursor rebuilds every inner one, so the current section always belongs
// to the current entry and the current clip to the current section.
//
// An entry whose synchronisation unit is missing or has no sections leaves
// Section and Clip nil; a section without clips leaves Clip nil. Moves on a
// nil level report false.
type BookNavigator struct {
	book     *book.Book
	toc      *TocCursor
	sections *Cursor[*book.Section]
	clips    *Cursor[*book.Clip]

	entry   *book.TocEntry
	section *book.Section
	clip    *book.Clip

	observers []Observer
	logger    *slog.Logger
}

// NewBookNavigator positions a navigator on the first entry visible at
// level. An out of range level is ignored.
func NewBookNavigator(b *book.Book, level int, logger *slog.Logger) (*BookNavigator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	toc, err := NewTocCursor(b.Entries(), b.NavigationDepth(), logger)
	if err != nil {
		return nil, fmt.Errorf("book has no table of contents: %w", err)
	}
	n := &BookNavigator{book: b, toc: toc, logger: logger}

	toc.SetLevel(level)
	entry, ok := toc.First()
	if !ok {
		entry = toc.cur.First()
	}
	n.enterEntry(entry)
	return n, nil
}

func (n *BookNavigator) Book() *book.Book { return n.book }

// Toc exposes the entry cursor for inspection. Moving it directly bypasses
// the navigator; use the entry methods instead.
func (n *BookNavigator) Toc() *TocCursor { return n.toc }

func (n *BookNavigator) Entry() *book.TocEntry { return n.entry }
func (n *BookNavigator) Section() *book.Section { return n.section }
func (n *BookNavigator) Clip() *book.Clip { return n.clip }

// Sections returns the current entry's sections, nil when it has none
func (n *BookNavigator) Sections() []*book.Section {
	if n.sections == nil {
		return nil
	}
	return n.sections.Items()
}

// Clips returns the current section's clips, nil when it has none
func (n *BookNavigator) Clips() []*book.Clip {
	if n.clips == nil {
		return nil
	}
	return n.clips.Items()
}

// Subscribe registers o for move notifications
func (n *BookNavigator) Subscribe(o Observer) {
	n.observers = append(n.observers, o)
}

func (n *BookNavigator) notify() {
	if len(n.observers) == 0 {
		return
	}
	pos := n.Position()
	for _, o := range n.observers {
		o.OnMove(pos)
	}
}

// enterEntry makes e current and rebuilds the section and clip cursors
func (n *BookNavigator) enterEntry(e *book.TocEntry) {
	n.entry = e
	n.sections = nil

	sections, err := e.Sections()
	if err != nil {
		n.logger.Warn("entry has no readable sections", "entry", e.ID, "error", err)
	} else if cur, err := NewCursor(sections); err != nil {
		n.logger.Warn("entry has no sections", "entry", e.ID)
	} else {
		n.sections = cur
	}

	if n.sections == nil {
		n.enterSection(nil)
		return
	}
	n.enterSection(n.sections.First())
}

// enterSection makes s current and rebuilds the clip cursor
func (n *BookNavigator) enterSection(s *book.Section) {
	n.section = s
	n.clips = nil
	n.clip = nil
	if s == nil {
		return
	}
	if cur, err := NewCursor(s.Clips); err == nil {
		n.clips = cur
		n.clip = cur.First()
	}
}

func (n *BookNavigator) moveEntry(move func() (*book.TocEntry, bool)) (*book.TocEntry, bool) {
	idx := n.toc.Index()
	e, ok := move()
	if !ok {
		// a filtered miss leaves the toc cursor on a boundary; bring it back.
		// Entry ids may be missing or repeated, so restore by index.
		n.toc.cur.MoveTo(idx)
		return nil, false
	}
	n.enterEntry(e)
	n.logger.Debug("entry", "id", e.ID, "level", e.Level)
	n.notify()
	return e, true
}

func (n *BookNavigator) FirstEntry() (*book.TocEntry, bool) { return n.moveEntry(n.toc.First) }
func (n *BookNavigator) LastEntry() (*book.TocEntry, bool) { return n.moveEntry(n.toc.Last) }
func (n *BookNavigator) NextEntry() (*book.TocEntry, bool) { return n.moveEntry(n.toc.Next) }
func (n *BookNavigator) PrevEntry() (*book.TocEntry, bool) { return n.moveEntry(n.toc.Prev) }

// GoToEntry jumps to an entry by id regardless of the level filter
func (n *BookNavigator) GoToEntry(id string) (*book.TocEntry, bool) {
	return n.moveEntry(func() (*book.TocEntry, bool) { return n.toc.GoTo(id) })
}

func (n *BookNavigator) moveSection(move func(*Cursor[*book.Section]) (*book.Section, bool)) (*book.Section, bool) {
	if n.sections == nil {
		return nil, false
	}
	s, ok := move(n.sections)
	if !ok {
		return nil, false
	}
	n.enterSection(s)
	n.notify()
	return s, true
}

func (n *BookNavigator) FirstSection() (*book.Section, bool) {
	return n.moveSection(func(c *Cursor[*book.Section]) (*book.Section, bool) { return c.First(), true })
}

func (n *BookNavigator) LastSection() (*book.Section, bool) {
	return n.moveSection(func(c *Cursor[*book.Section]) (*book.Section, bool) { return c.Last(), true })
}

func (n *BookNavigator) NextSection() (*book.Section, bool) {
	return n.moveSection((*Cursor[*book.Section]).Next)
}

func (n *BookNavigator) PrevSection() (*book.Section, bool) {
	return n.moveSection((*Cursor[*book.Section]).Prev)
}

func (n *BookNavigator) GoToSection(id string) (*book.Section, bool) {
	return n.moveSection(func(c *Cursor[*book.Section]) (*book.Section, bool) { return Lookup(c, id) })
}

func (n *BookNavigator) moveClip(move func(*Cursor[*book.Clip]) (*book.Clip, bool)) (*book.Clip, bool) {
	if n.clips == nil {
		return nil, false
	}
	c, ok := move(n.clips)
	if !ok {
		return nil, false
	}
	n.clip = c
	n.notify()
	return c, true
}

func (n *BookNavigator) FirstClip() (*book.Clip, bool) {
	return n.moveClip(func(c *Cursor[*book.Clip]) (*book.Clip, bool) { return c.First(), true })
}

func (n *BookNavigator) LastClip() (*book.Clip, bool) {
	return n.moveClip(func(c *Cursor[*book.Clip]) (*book.Clip, bool) { return c.Last(), true })
}

func (n *BookNavigator) NextClip() (*book.Clip, bool) {
	return n.moveClip((*Cursor[*book.Clip]).Next)
}

func (n *BookNavigator) PrevClip() (*book.Clip, bool) {
	return n.moveClip((*Cursor[*book.Clip]).Prev)
}

func (n *BookNavigator) GoToClip(id string) (*book.Clip, bool) {
	return n.moveClip(func(c *Cursor[*book.Clip]) (*book.Clip, bool) { return Lookup(c, id) })
}

// Level filter, delegated to the toc cursor

func (n *BookNavigator) Level() int { return n.toc.Level() }
func (n *BookNavigator) SetLevel(level int) int { return n.toc.SetLevel(level) }
func (n *BookNavigator) IncreaseLevel() int { return n.toc.IncreaseLevel() }
func (n *BookNavigator) DecreaseLevel() int { return n.toc.DecreaseLevel() }
func (n *BookNavigator) ResetLevel() int { return n.toc.ResetLevel() }

// Position returns the current reading position
func (n *BookNavigator) Position() domain.Position {
	pos := domain.Position{
		EntryID:   n.entry.ID,
		Level:     n.toc.Level(),
		UpdatedAt: time.Now(),
	}
	if n.section != nil {
		pos.SectionID = n.section.ID
	}
	if n.clip != nil {
		pos.ClipID = n.clip.ID
	}
	return pos
}

// Restore moves to a saved position. An unknown entry yields
// domain.ErrNotFound and leaves the navigator where it was; an unknown
// section or clip falls back to the first one.
func (n *BookNavigator) Restore(pos domain.Position) error {
	if _, ok := n.toc.GoTo(pos.EntryID); !ok {
		return fmt.Errorf("restore entry %q: %w", pos.EntryID, domain.ErrNotFound)
	}
	n.toc.SetLevel(pos.Level)
	n.enterEntry(n.toc.Current())

	if pos.SectionID != "" && n.sections != nil {
		if s, ok := Lookup(n.sections, pos.SectionID); ok {
			n.enterSection(s)
		} else {
			n.logger.Warn("saved section not found", "entry", pos.EntryID, "section", pos.SectionID)
		}
	}
	if pos.ClipID != "" && n.clips != nil {
		if c, ok := Lookup(n.clips, pos.ClipID); ok {
			n.clip = c
		} else {
			n.logger.Warn("saved clip not found", "section", pos.SectionID, "clip", pos.ClipID)
		}
	}

	n.logger.Info("position restored", "entry", n.entry.ID, "level", n.toc.Level())
	n.notify()
	return nil
}
