package book

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mmcdole/daisy/internal/domain"
	"github.com/mmcdole/daisy/internal/markup"
	"github.com/mmcdole/daisy/internal/source"
)

// parseState tracks the lazy loading of a synchronisation unit
type parseState int

const (
	unparsed parseState = iota
	parsed
)

// Clip is an audio time range inside a section
type Clip struct {
	ID    string  // audio element id
	Src   string  // audio resource name
	Begin float64 // seconds
	End   float64 // seconds
}

func (c *Clip) GetID() string { return c.ID }

// Duration returns the clip length in seconds
func (c *Clip) Duration() float64 {
	return c.End - c.Begin
}

// TextFragment is a piece of text referenced by a section. Its content is
// loaded from the referenced resource on the first Resolve.
type TextFragment struct {
	ID        string
	Reference domain.Reference

	src      *source.Source
	logger   *slog.Logger
	content  string
	resolved bool
}

// Resolve loads and memoizes the fragment text. Failures are not memoized.
func (t *TextFragment) Resolve() (string, error) {
	if t.resolved {
		return t.content, nil
	}
	doc, err := t.src.Document(t.Reference.Resource)
	if err != nil {
		t.logger.Warn("text resource unavailable", "ref", t.Reference.String(), "error", err)
		return "", err
	}
	el := doc.ElementByID(t.Reference.Fragment)
	if el == nil {
		t.logger.Warn("text fragment not found", "ref", t.Reference.String())
		return "", fmt.Errorf("text %s: %w", t.Reference, domain.ErrNotFound)
	}
	t.content = el.Text()
	t.resolved = true
	t.logger.Debug("text fragment resolved", "ref", t.Reference.String())
	return t.content, nil
}

// Content returns the resolved text, "" when it cannot be resolved
func (t *TextFragment) Content() string {
	s, _ := t.Resolve()
	return s
}

// Section groups a text fragment with the audio clips played alongside it
type Section struct {
	ID    string
	Text  *TextFragment // nil when the par carries no text
	Clips []*Clip
}

func (s *Section) GetID() string { return s.ID }

// SyncUnit is a synchronisation file mapping text fragments to audio clips.
// It is loaded on the first EnsureParsed, directly or through an accessor.
type SyncUnit struct {
	Resource string

	src    *source.Source
	logger *slog.Logger

	state    parseState
	title    string
	duration float64
	sections []*Section
}

func newSyncUnit(src *source.Source, resource string, logger *slog.Logger) *SyncUnit {
	return &SyncUnit{Resource: resource, src: src, logger: logger}
}

// Parsed reports whether the unit has been loaded
func (u *SyncUnit) Parsed() bool {
	return u.state == parsed
}

// EnsureParsed loads the unit once. A failed load leaves the unit unparsed
// so a later call tries again.
func (u *SyncUnit) EnsureParsed() error {
	if u.state == parsed {
		return nil
	}
	doc, err := u.src.Document(u.Resource)
	if err != nil {
		u.logger.Warn("synchronisation unit unavailable", "resource", u.Resource, "error", err)
		return fmt.Errorf("load %s: %w", u.Resource, err)
	}
	u.parse(doc)
	u.state = parsed
	u.logger.Debug("synchronisation unit parsed", "resource", u.Resource, "sections", len(u.sections))
	return nil
}

func (u *SyncUnit) parse(doc *markup.Document) {
	if el := doc.Elements(markup.Query{Tag: "meta", Attrs: map[string]string{"name": "dc:title"}}).First(); el != nil {
		u.title = el.Attr("content")
	}
	if el := doc.Elements(markup.Query{Tag: "meta", Attrs: map[string]string{"name": "ncc:timeInThisSmil"}}).First(); el != nil {
		d, err := parseClock(el.Attr("content"))
		if err != nil {
			u.logger.Warn("bad unit duration", "resource", u.Resource, "value", el.Attr("content"), "error", err)
		}
		u.duration = d
	}

	for _, seq := range doc.Elements(markup.Query{Tag: "seq", Parent: "body"}) {
		for _, par := range seq.Children("par") {
			u.sections = append(u.sections, u.parseSection(par))
		}
	}
}

func (u *SyncUnit) parseSection(par *markup.Element) *Section {
	sec := &Section{ID: par.Attr("id")}
	if text := par.Children("text").First(); text != nil {
		sec.Text = &TextFragment{
			ID:        text.Attr("id"),
			Reference: domain.ParseReference(text.Attr("src")),
			src:       u.src,
			logger:    u.logger,
		}
	}

	audios := par.Children("audio")
	for _, seq := range par.Children("seq") {
		audios = append(audios, seq.Children("audio")...)
	}
	for _, audio := range audios {
		clip, err := parseClip(audio)
		if err != nil {
			u.logger.Warn("skipping clip", "resource", u.Resource, "par", sec.ID, "error", err)
			continue
		}
		sec.Clips = append(sec.Clips, clip)
	}
	return sec
}

func parseClip(audio *markup.Element) (*Clip, error) {
	begin, err := parseNPT(audio.Attr("clip-begin"))
	if err != nil {
		return nil, fmt.Errorf("clip-begin: %w", err)
	}
	end, err := parseNPT(audio.Attr("clip-end"))
	if err != nil {
		return nil, fmt.Errorf("clip-end: %w", err)
	}
	if begin < 0 || end < begin {
		return nil, fmt.Errorf("invalid range %.3f-%.3f", begin, end)
	}
	return &Clip{ID: audio.Attr("id"), Src: audio.Attr("src"), Begin: begin, End: end}, nil
}

// parseNPT reads "npt=12.345s" by dropping the four character scheme and
// the one character unit.
func parseNPT(value string) (float64, error) {
	if len(value) < 6 {
		return 0, fmt.Errorf("malformed time %q", value)
	}
	return strconv.ParseFloat(value[4:len(value)-1], 64)
}

// parseClock reads "H:M:S" as seconds
func parseClock(value string) (float64, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return 0, errors.New("expected H:M:S")
	}
	var total float64
	for i, weight := range []float64{3600, 60, 1} {
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil {
			return 0, err
		}
		total += v * weight
	}
	return total, nil
}

// Title returns the unit's dc:title
func (u *SyncUnit) Title() (string, error) {
	if err := u.EnsureParsed(); err != nil {
		return "", err
	}
	return u.title, nil
}

// TotalDuration returns ncc:timeInThisSmil in seconds
func (u *SyncUnit) TotalDuration() (float64, error) {
	if err := u.EnsureParsed(); err != nil {
		return 0, err
	}
	return u.duration, nil
}

func (u *SyncUnit) Sections() ([]*Section, error) {
	if err := u.EnsureParsed(); err != nil {
		return nil, err
	}
	return u.sections, nil
}

// FullText joins the text of every section, one per line. Fragments that
// cannot be resolved contribute an empty line.
func (u *SyncUnit) FullText() (string, error) {
	if err := u.EnsureParsed(); err != nil {
		return "", err
	}
	lines := make([]string, 0, len(u.sections))
	for _, sec := range u.sections {
		if sec.Text == nil {
			lines = append(lines, "")
			continue
		}
		lines = append(lines, sec.Text.Content())
	}
	return strings.Join(lines, "\n"), nil
}
