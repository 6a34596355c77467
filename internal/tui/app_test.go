package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/daisy/internal/book"
	"github.com/mmcdole/daisy/internal/book/booktest"
	"github.com/mmcdole/daisy/internal/logging"
	"github.com/mmcdole/daisy/internal/navigator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlayer struct {
	played []string
	err    error
}

func (p *fakePlayer) PlayClip(_ *book.Book, c *book.Clip) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.played = append(p.played, c.ID)
	return "/tmp/" + c.ID + ".mp3", nil
}

func newModel(t *testing.T, player Player) Model {
	t.Helper()
	nav, err := navigator.NewBookNavigator(booktest.Load(t, nil), 0, logging.NullLogger())
	require.NoError(t, err)
	return NewModel(nav, player, logging.NullLogger())
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// send feeds msgs through Update, dropping returned commands
func send(m Model, msgs ...tea.Msg) Model {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestModelStartsOnFirstEntry(t *testing.T) {
	m := newModel(t, nil)
	assert.Equal(t, StateReading, m.State)
	assert.Equal(t, booktest.EntryID(1), m.Nav.Entry().ID)
	assert.Equal(t, booktest.FragmentText(1, 1), m.text)
	assert.Contains(t, m.View(), booktest.Title)
}

func TestEntryAndSectionKeys(t *testing.T) {
	m := newModel(t, nil)

	m = send(m, runes("j"), runes("j"))
	assert.Equal(t, booktest.EntryID(3), m.Nav.Entry().ID)
	assert.Equal(t, booktest.FragmentText(3, 1), m.text)

	m = send(m, runes("l"))
	assert.Equal(t, "tx_0003_2", m.Nav.Section().ID)
	assert.Equal(t, booktest.FragmentText(3, 2), m.text)

	m = send(m, runes("n"))
	assert.Equal(t, "au_0003_2_2", m.Nav.Clip().ID)

	m = send(m, runes("k"))
	assert.Equal(t, booktest.EntryID(2), m.Nav.Entry().ID)

	m = send(m, runes("G"))
	assert.Equal(t, booktest.EntryID(booktest.Entries), m.Nav.Entry().ID)
	m = send(m, runes("j"))
	assert.Equal(t, booktest.EntryID(booktest.Entries), m.Nav.Entry().ID)
	assert.Equal(t, "Last entry at this level", m.StatusMsg)

	m = send(m, runes("g"))
	assert.Equal(t, booktest.EntryID(1), m.Nav.Entry().ID)
}

func TestLevelKeys(t *testing.T) {
	m := newModel(t, nil)

	m = send(m, runes("+"))
	assert.Equal(t, 1, m.Nav.Level())
	assert.Equal(t, "Level: 1", m.StatusMsg)

	m = send(m, runes("j"))
	assert.Equal(t, booktest.EntryID(7), m.Nav.Entry().ID)

	m = send(m, runes("0"))
	assert.Equal(t, 0, m.Nav.Level())
	assert.Equal(t, "Level: all", m.StatusMsg)

	m = send(m, ClearStatusMsg{})
	assert.Empty(t, m.StatusMsg)
}

func TestSearchJumpsToEntry(t *testing.T) {
	m := newModel(t, nil)

	m = send(m, runes("/"))
	require.Equal(t, StateSearching, m.State)

	m = send(m, runes("chapter 5"))
	require.Len(t, m.results, 2)
	assert.Contains(t, m.View(), "Chapter 25")

	m = send(m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.resultCursor)
	m = send(m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, m.resultCursor)

	m = send(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, StateReading, m.State)
	assert.Equal(t, booktest.EntryID(5), m.Nav.Entry().ID)
	assert.Equal(t, booktest.FragmentText(5, 1), m.text)
}

func TestSearchEscape(t *testing.T) {
	m := newModel(t, nil)
	m = send(m, runes("/"), runes("j"))
	assert.Equal(t, booktest.EntryID(1), m.Nav.Entry().ID)

	m = send(m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, StateReading, m.State)
	assert.Equal(t, booktest.EntryID(1), m.Nav.Entry().ID)
}

func TestPlayKey(t *testing.T) {
	player := &fakePlayer{}
	m := newModel(t, player)

	_, cmd := m.Update(runes("p"))
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, PlayedMsg{ClipID: "au_0001_1_1", Path: "/tmp/au_0001_1_1.mp3"}, msg)

	m = send(m, msg)
	assert.Equal(t, []string{"/tmp/au_0001_1_1.mp3"}, m.TempFiles())
	assert.Equal(t, "Playing au_0001_1_1", m.StatusMsg)
}

func TestPlayErrors(t *testing.T) {
	m := send(newModel(t, nil), runes("p"))
	assert.True(t, m.StatusIsErr)

	player := &fakePlayer{err: errors.New("no audio device")}
	m = newModel(t, player)
	_, cmd := m.Update(runes("p"))
	msg := cmd()
	require.IsType(t, ErrMsg{}, msg)

	m = send(m, msg)
	assert.True(t, m.StatusIsErr)
	assert.Contains(t, m.StatusMsg, "no audio device")
}

func TestHelpToggle(t *testing.T) {
	m := send(newModel(t, nil), runes("?"))
	assert.Equal(t, StateHelp, m.State)
	assert.Contains(t, m.View(), "shallower level")

	m = send(m, runes("?"))
	assert.Equal(t, StateReading, m.State)
}

func TestWindow(t *testing.T) {
	tests := []struct {
		current, total, height int
		start, end             int
	}{
		{0, 5, 10, 0, 5},
		{0, 30, 10, 0, 10},
		{15, 30, 10, 10, 20},
		{29, 30, 10, 20, 30},
	}
	for _, tt := range tests {
		start, end := window(tt.current, tt.total, tt.height)
		assert.Equal(t, tt.start, start)
		assert.Equal(t, tt.end, end)
	}
}

func TestFormatSeconds(t *testing.T) {
	assert.Equal(t, "0:03.0", formatSeconds(3))
	assert.Equal(t, "1:05.5", formatSeconds(65.5))
}
