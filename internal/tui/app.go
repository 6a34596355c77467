// Package tui is the interactive terminal reader.
package tui

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/daisy/internal/book"
	"github.com/mmcdole/daisy/internal/navigator"
	"github.com/mmcdole/daisy/internal/search"
	"github.com/mmcdole/daisy/internal/tui/styles"
)

// ApplicationState represents the current state of the application
type ApplicationState int

const (
	StateReading ApplicationState = iota
	StateSearching
	StateHelp
)

// Player plays a clip of a book
type Player interface {
	PlayClip(b *book.Book, c *book.Clip) (string, error)
}

// Default terminal size until the first WindowSizeMsg
const (
	defaultWidth  = 80
	defaultHeight = 24
	statusTimeout = 3 * time.Second
)

// Model is the main Bubble Tea model for the reader
type Model struct {
	State ApplicationState

	Nav    *navigator.BookNavigator
	Index  *search.Index
	Player Player

	// UI components
	input textinput.Model
	help  help.Model

	// Search results
	results      []search.Match
	resultCursor int

	// Dimensions
	Width  int
	Height int

	// UI state
	StatusMsg   string
	StatusIsErr bool
	text        string // text of the current section

	tempFiles []string
	logger    *slog.Logger
}

// NewModel creates a reader over nav. player may be nil.
func NewModel(nav *navigator.BookNavigator, player Player, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}

	ti := textinput.New()
	ti.Placeholder = "Type to search..."
	ti.CharLimit = 100
	ti.Width = 40
	ti.Prompt = "/ "
	ti.PromptStyle = styles.AccentStyle
	ti.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
	ti.PlaceholderStyle = styles.DimStyle

	h := help.New()
	h.Styles.ShortKey = styles.HelpKeyStyle
	h.Styles.ShortDesc = styles.HelpDescStyle
	h.Styles.FullKey = styles.HelpKeyStyle
	h.Styles.FullDesc = styles.HelpDescStyle

	m := Model{
		State:  StateReading,
		Nav:    nav,
		Index:  search.NewIndex(nav.Book().Entries(), logger),
		Player: player,
		input:  ti,
		help:   h,
		Width:  defaultWidth,
		Height: defaultHeight,
		logger: logger,
	}
	m.refreshText()
	return m
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	return nil
}

// TempFiles lists the audio files written for playback
func (m Model) TempFiles() []string {
	return m.tempFiles
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case PlayedMsg:
		m.tempFiles = append(m.tempFiles, msg.Path)
		return m.setStatus("Playing "+msg.ClipID, false)

	case ErrMsg:
		m.logger.Error("reader error", "context", msg.Context, "error", msg.Err)
		return m.setStatus(msg.Error(), true)

	case ClearStatusMsg:
		m.StatusMsg = ""
		m.StatusIsErr = false
		return m, nil
	}
	return m, nil
}

func (m Model) setStatus(status string, isErr bool) (tea.Model, tea.Cmd) {
	m.StatusMsg = status
	m.StatusIsErr = isErr
	return m, ClearStatusCmd(statusTimeout)
}

// handleKeyMsg handles keyboard input
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.State {
	case StateHelp:
		if key.Matches(msg, Keys.Escape, Keys.Help, Keys.Quit) {
			m.State = StateReading
		}
		return m, nil
	case StateSearching:
		return m.handleSearchKey(msg)
	}

	switch {
	case key.Matches(msg, Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, Keys.Help):
		m.State = StateHelp
		return m, nil

	case key.Matches(msg, Keys.Search):
		m.State = StateSearching
		m.input.SetValue("")
		m.results = nil
		m.resultCursor = 0
		return m, m.input.Focus()

	case key.Matches(msg, Keys.NextEntry):
		_, ok := m.Nav.NextEntry()
		return m.moved(ok, "Last entry at this level")
	case key.Matches(msg, Keys.PrevEntry):
		_, ok := m.Nav.PrevEntry()
		return m.moved(ok, "First entry at this level")
	case key.Matches(msg, Keys.FirstEntry):
		_, ok := m.Nav.FirstEntry()
		return m.moved(ok, "No entry at this level")
	case key.Matches(msg, Keys.LastEntry):
		_, ok := m.Nav.LastEntry()
		return m.moved(ok, "No entry at this level")

	case key.Matches(msg, Keys.NextSection):
		_, ok := m.Nav.NextSection()
		return m.moved(ok, "Last phrase of this entry")
	case key.Matches(msg, Keys.PrevSection):
		_, ok := m.Nav.PrevSection()
		return m.moved(ok, "First phrase of this entry")
	case key.Matches(msg, Keys.NextClip):
		_, ok := m.Nav.NextClip()
		return m.moved(ok, "Last clip of this phrase")
	case key.Matches(msg, Keys.PrevClip):
		_, ok := m.Nav.PrevClip()
		return m.moved(ok, "First clip of this phrase")

	case key.Matches(msg, Keys.LevelUp):
		return m.setStatus(levelName(m.Nav.IncreaseLevel()), false)
	case key.Matches(msg, Keys.LevelDown):
		return m.setStatus(levelName(m.Nav.DecreaseLevel()), false)
	case key.Matches(msg, Keys.LevelReset):
		return m.setStatus(levelName(m.Nav.ResetLevel()), false)

	case key.Matches(msg, Keys.Play):
		clip := m.Nav.Clip()
		if clip == nil {
			return m.setStatus("Nothing to play here", true)
		}
		if m.Player == nil {
			return m.setStatus("No player configured", true)
		}
		return m, PlayClipCmd(m.Player, m.Nav.Book(), clip)
	}
	return m, nil
}

// moved refreshes the view after a move; a refused move leaves a status
func (m Model) moved(ok bool, boundary string) (tea.Model, tea.Cmd) {
	if !ok {
		return m.setStatus(boundary, false)
	}
	m.refreshText()
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Escape):
		m.State = StateReading
		m.input.Blur()
		return m, nil

	case key.Matches(msg, Keys.Enter):
		m.State = StateReading
		m.input.Blur()
		if len(m.results) == 0 {
			return m.setStatus("No matches", true)
		}
		target := m.results[m.resultCursor].Entry
		if _, ok := m.Nav.GoToEntry(target.ID); !ok {
			return m.setStatus("Entry not found: "+target.ID, true)
		}
		m.refreshText()
		return m.setStatus("Jumped to "+target.Text, false)

	case msg.Type == tea.KeyDown || msg.Type == tea.KeyCtrlN:
		if m.resultCursor < len(m.results)-1 {
			m.resultCursor++
		}
		return m, nil

	case msg.Type == tea.KeyUp || msg.Type == tea.KeyCtrlP:
		if m.resultCursor > 0 {
			m.resultCursor--
		}
		return m, nil
	}

	prev := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if query := m.input.Value(); query != prev {
		m.results = m.Index.Find(query)
		m.resultCursor = 0
	}
	return m, cmd
}

// refreshText resolves the text of the current section
func (m *Model) refreshText() {
	m.text = ""
	section := m.Nav.Section()
	if section == nil || section.Text == nil {
		return
	}
	// a failed lookup is not remembered, so every refresh retries it
	text, err := section.Text.Resolve()
	if err != nil {
		m.logger.Warn("section text unavailable", "section", section.ID, "error", err)
		return
	}
	m.text = text
}

func levelName(level int) string {
	if level == 0 {
		return "Level: all"
	}
	return fmt.Sprintf("Level: %d", level)
}
