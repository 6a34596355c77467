package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/daisy/internal/book"
	"github.com/mmcdole/daisy/internal/tui/styles"
)

// Layout proportions
const (
	TocColumnPercent = 40
	MinColumnWidth   = 20
	ChromeHeight     = 3 // header, status and help lines
	maxResults       = 10
)

// View renders the current state
func (m Model) View() string {
	var body string
	switch m.State {
	case StateHelp:
		body = m.help.FullHelpView(Keys.FullHelp())
	case StateSearching:
		body = m.renderSearch()
	default:
		body = m.renderReader()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderStatus(),
		m.help.ShortHelpView(Keys.ShortHelp()),
	)
}

func (m Model) renderHeader() string {
	b := m.Nav.Book()
	title := styles.BadgeStyle.Render(styles.Truncate(b.Title(), m.Width/2))
	level := styles.SubtitleStyle.Render(levelName(m.Nav.Level()))
	pos := styles.DimStyle.Render(fmt.Sprintf("%d/%d", m.Nav.Toc().Index()+1, len(b.Entries())))
	return lipgloss.JoinHorizontal(lipgloss.Top, title, " ", level, "  ", pos)
}

func (m Model) bodyHeight() int {
	return max(m.Height-ChromeHeight, 3)
}

func (m Model) renderReader() string {
	tocWidth := max(m.Width*TocColumnPercent/100, MinColumnWidth)
	readerWidth := max(m.Width-tocWidth-4, MinColumnWidth)

	toc := styles.TocStyle.Width(tocWidth).Render(m.renderToc(tocWidth-2, m.bodyHeight()))
	reader := styles.ReaderStyle.Width(readerWidth).Render(m.renderSection(readerWidth - 4))
	return lipgloss.JoinHorizontal(lipgloss.Top, toc, reader)
}

// renderToc shows a window of entries around the current one
func (m Model) renderToc(width, height int) string {
	entries := m.Nav.Toc().Entries()
	current := m.Nav.Toc().Index()
	start, end := window(current, len(entries), height)

	var b strings.Builder
	for i := start; i < end; i++ {
		if i > start {
			b.WriteByte('\n')
		}
		b.WriteString(m.renderEntry(entries[i], i == current, width))
	}
	return b.String()
}

func (m Model) renderEntry(e *book.TocEntry, selected bool, width int) string {
	indent := strings.Repeat("  ", max(e.Level-1, 0))
	line := styles.Pad(styles.Truncate(indent+e.Text, width), width)
	level := m.Nav.Level()
	switch {
	case selected:
		return styles.SelectedItemStyle.Render(line)
	case level > 0 && e.Level > level:
		return styles.HiddenItemStyle.Render(line)
	default:
		return styles.NormalItemStyle.Render(line)
	}
}

// window returns [start, end) of size at most height containing current
func window(current, total, height int) (int, int) {
	if total <= height {
		return 0, total
	}
	start := max(current-height/2, 0)
	end := start + height
	if end > total {
		end = total
		start = end - height
	}
	return start, end
}

func (m Model) renderSection(width int) string {
	var b strings.Builder
	entry := m.Nav.Entry()
	b.WriteString(styles.TitleStyle.Render(styles.Truncate(entry.Text, width)))
	b.WriteString("\n")

	section := m.Nav.Section()
	if section == nil {
		b.WriteString(styles.DimStyle.Render("No phrases in this entry"))
		return b.String()
	}

	sections := m.Nav.Sections()
	b.WriteString(styles.DimStyle.Render(fmt.Sprintf("Phrase %d/%d", slices.Index(sections, section)+1, len(sections))))
	b.WriteString("\n\n")

	if m.text != "" {
		b.WriteString(lipgloss.NewStyle().Width(width).Render(m.text))
	} else {
		b.WriteString(styles.DimStyle.Render("(no text)"))
	}
	b.WriteString("\n\n")

	clip := m.Nav.Clip()
	if clip == nil {
		b.WriteString(styles.DimStyle.Render("No audio"))
		return b.String()
	}
	clips := m.Nav.Clips()
	b.WriteString(styles.AccentStyle.Render(fmt.Sprintf("♪ %s", clip.Src)))
	b.WriteString(styles.SubtitleStyle.Render(fmt.Sprintf("  %s – %s  (clip %d/%d)",
		formatSeconds(clip.Begin), formatSeconds(clip.End), slices.Index(clips, clip)+1, len(clips))))
	b.WriteString("\n")
	b.WriteString(styles.RenderProgressBar(entryProgress(sections, clip), min(width, 40)))
	return b.String()
}

// entryProgress is the share of the entry's audio before the current clip
func entryProgress(sections []*book.Section, clip *book.Clip) float64 {
	var total, done float64
	passed := false
	for _, s := range sections {
		for _, c := range s.Clips {
			if c == clip {
				passed = true
			}
			if !passed {
				done += c.Duration()
			}
			total += c.Duration()
		}
	}
	if total == 0 {
		return 0
	}
	return done / total * 100
}

func (m Model) renderSearch() string {
	var b strings.Builder
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	if len(m.results) == 0 {
		if m.input.Value() != "" {
			b.WriteString(styles.DimStyle.Render("No matches found"))
		}
		return b.String()
	}
	for i, r := range m.results {
		if i == maxResults {
			b.WriteString(styles.DimStyle.Render(fmt.Sprintf("… %d more", len(m.results)-maxResults)))
			break
		}
		selected := i == m.resultCursor
		marker := "  "
		if selected {
			marker = styles.AccentStyle.Render("> ")
		}
		b.WriteString(marker)
		b.WriteString(styles.HighlightMatches(r.Entry.Text, r.MatchedIndexes, selected))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderStatus() string {
	if m.StatusMsg == "" {
		return ""
	}
	if m.StatusIsErr {
		return styles.ErrorStyle.Render(m.StatusMsg)
	}
	return styles.SuccessStyle.Render(m.StatusMsg)
}

// formatSeconds renders seconds as m:ss.d
func formatSeconds(s float64) string {
	minutes := int(s) / 60
	return fmt.Sprintf("%d:%04.1f", minutes, s-float64(minutes*60))
}
