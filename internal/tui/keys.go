package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the reader
type KeyMap struct {
	// Table of contents
	NextEntry  key.Binding
	PrevEntry  key.Binding
	FirstEntry key.Binding
	LastEntry  key.Binding

	// Inside an entry
	NextSection key.Binding
	PrevSection key.Binding
	NextClip    key.Binding
	PrevClip    key.Binding

	// Navigation level
	LevelUp    key.Binding
	LevelDown  key.Binding
	LevelReset key.Binding

	// Actions
	Play   key.Binding
	Search key.Binding
	Enter  key.Binding
	Escape key.Binding
	Help   key.Binding
	Quit   key.Binding
}

// Keys is the active key map
var Keys = DefaultKeyMap()

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		NextEntry: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "next entry"),
		),
		PrevEntry: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "previous entry"),
		),
		FirstEntry: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "first entry"),
		),
		LastEntry: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "last entry"),
		),
		NextSection: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/→", "next phrase"),
		),
		PrevSection: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "previous phrase"),
		),
		NextClip: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "next clip"),
		),
		PrevClip: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N", "previous clip"),
		),
		LevelUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "deeper level"),
		),
		LevelDown: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "shallower level"),
		),
		LevelReset: key.NewBinding(
			key.WithKeys("0"),
			key.WithHelp("0", "all levels"),
		),
		Play: key.NewBinding(
			key.WithKeys("p", " "),
			key.WithHelp("p/space", "play clip"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "go to result"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextEntry, k.PrevEntry, k.NextSection, k.Play, k.Search, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextEntry, k.PrevEntry, k.FirstEntry, k.LastEntry},
		{k.NextSection, k.PrevSection, k.NextClip, k.PrevClip},
		{k.LevelUp, k.LevelDown, k.LevelReset},
		{k.Play, k.Search, k.Help, k.Quit},
	}
}
