package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/daisy/internal/book"
)

// Command factories for async operations

// PlayClipCmd hands a clip to the player
func PlayClipCmd(p Player, b *book.Book, c *book.Clip) tea.Cmd {
	return func() tea.Msg {
		path, err := p.PlayClip(b, c)
		if err != nil {
			return ErrMsg{Err: err, Context: "playing " + c.ID}
		}
		return PlayedMsg{ClipID: c.ID, Path: path}
	}
}

// ClearStatusCmd clears the status line after a delay
func ClearStatusCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
