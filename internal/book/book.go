// Package book models a DAISY 2.02 talking book: the index document with
// its metadata and table of contents, and the synchronisation units the
// entries point to.
package book

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/mmcdole/daisy/internal/domain"
	"github.com/mmcdole/daisy/internal/markup"
	"github.com/mmcdole/daisy/internal/source"
)

// index document names, tried in order
var indexNames = []string{"ncc.html", "NCC.HTML"}

var headingLevels = map[string]int{"h1": 1, "h2": 2, "h3": 3, "h4": 4, "h5": 5, "h6": 6}

// TocEntry is a heading of the index document
type TocEntry struct {
	ID        string
	Level     int              // 1..6
	Reference domain.Reference // synchronisation unit and fragment
	Text      string

	unit *SyncUnit
}

func (e *TocEntry) GetID() string { return e.ID }

// SyncUnit returns the synchronisation unit the entry points to
func (e *TocEntry) SyncUnit() *SyncUnit {
	return e.unit
}

// Sections loads the entry's synchronisation unit and returns its sections
func (e *TocEntry) Sections() ([]*Section, error) {
	if e.unit == nil {
		return nil, fmt.Errorf("entry %s has no synchronisation unit: %w", e.ID, domain.ErrNotFound)
	}
	return e.unit.Sections()
}

// Book is a loaded talking book. It is never returned partially built.
type Book struct {
	src      *source.Source
	logger   *slog.Logger
	title    string
	depth    int
	metadata []domain.MetaData
	entries  []*TocEntry
	units    []*SyncUnit // distinct, in first-reference order
}

// Load reads and parses the index document of the book behind src.
// Failure wraps domain.ErrBookLoad.
func Load(src *source.Source, logger *slog.Logger) (*Book, error) {
	if logger == nil {
		logger = slog.Default()
	}

	doc, err := loadIndex(src)
	if err != nil {
		logger.Error("could not load book", "location", src.Location(), "error", err)
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrBookLoad, src.Location(), err)
	}

	b := &Book{src: src, logger: logger}
	if err := b.populateEntries(doc); err != nil {
		logger.Error("could not load book", "location", src.Location(), "error", err)
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrBookLoad, src.Location(), err)
	}
	b.populateMetadata(doc)

	for _, m := range b.metadata {
		switch m.Name {
		case "dc:title":
			b.title = m.Content
		case "ncc:depth":
			d, err := strconv.Atoi(m.Content)
			if err != nil || d < 0 {
				logger.Warn("ignoring invalid ncc:depth", "value", m.Content)
				continue
			}
			b.depth = d
		}
	}
	if b.depth == 0 {
		b.depth = b.maxLevel()
	}

	logger.Info("book loaded",
		"location", src.Location(),
		"title", b.title,
		"depth", b.depth,
		"entries", len(b.entries),
		"units", len(b.units),
	)
	return b, nil
}

func loadIndex(src *source.Source) (*markup.Document, error) {
	var lastErr error
	for _, name := range indexNames {
		doc, err := src.Document(name)
		if err == nil {
			return doc, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func (b *Book) populateEntries(doc *markup.Document) error {
	body := doc.ElementsByTag("body").First()
	if body == nil {
		return fmt.Errorf("index has no body: %w", domain.ErrNotFound)
	}

	units := make(map[string]*SyncUnit)
	for _, el := range body.Children("") {
		level, ok := headingLevels[el.Name]
		if !ok {
			continue
		}
		a := el.Children("a").First()
		if a == nil {
			b.logger.Warn("heading without link", "id", el.Attr("id"))
			continue
		}
		entry := &TocEntry{
			ID:        el.Attr("id"),
			Level:     level,
			Reference: domain.ParseReference(a.Attr("href")),
			Text:      a.Text(),
		}
		if res := entry.Reference.Resource; res != "" {
			unit, seen := units[res]
			if !seen {
				unit = newSyncUnit(b.src, res, b.logger)
				units[res] = unit
				b.units = append(b.units, unit)
			}
			entry.unit = unit
		}
		b.entries = append(b.entries, entry)
	}
	b.logger.Debug("index entries read", "count", len(b.entries))
	return nil
}

func (b *Book) populateMetadata(doc *markup.Document) {
	for _, el := range doc.ElementsByTag("meta") {
		if !el.HasAttr("name") {
			continue
		}
		b.metadata = append(b.metadata, domain.MetaData{
			Name:    el.Attr("name"),
			Content: el.Attr("content"),
			Scheme:  el.Attr("scheme"),
		})
	}
	b.logger.Debug("index metadata read", "count", len(b.metadata))
}

func (b *Book) maxLevel() int {
	level := 0
	for _, e := range b.entries {
		level = max(level, e.Level)
	}
	return level
}

func (b *Book) Title() string { return b.title }

// NavigationDepth returns the deepest heading level used for navigation
func (b *Book) NavigationDepth() int { return b.depth }

func (b *Book) Metadata() []domain.MetaData { return b.metadata }

// Meta returns the content of the first metadata entry with the given name
func (b *Book) Meta(name string) (string, bool) {
	for _, m := range b.metadata {
		if m.Name == name {
			return m.Content, true
		}
	}
	return "", false
}

// Entries returns the table of contents in document order
func (b *Book) Entries() []*TocEntry { return b.entries }

// SyncUnits returns each distinct synchronisation unit once
func (b *Book) SyncUnits() []*SyncUnit { return b.units }

func (b *Book) Source() *source.Source { return b.src }

// ClipAudio returns the raw audio resource a clip plays from
func (b *Book) ClipAudio(c *Clip) ([]byte, error) {
	data, err := b.src.Raw(c.Src)
	if err != nil {
		b.logger.Warn("clip audio unavailable", "clip", c.ID, "src", c.Src, "error", err)
		return nil, err
	}
	return data, nil
}
