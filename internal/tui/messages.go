package tui

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// PlayedMsg signals that a clip was handed to the player
type PlayedMsg struct {
	ClipID string
	Path   string // temporary audio file
}

// ClearStatusMsg clears the status line
type ClearStatusMsg struct{}
