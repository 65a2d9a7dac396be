package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/kotowari/internal/ui/layout"
)

// Screen is one page of the TUI.
type Screen interface {
	// Init returns an initial command when the screen is first created.
	Init() tea.Cmd

	// Update handles messages and returns updated screen + command.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content (excluding header/footer).
	View(width, height int) string

	// Title returns the screen name for the header.
	Title() string
}

// KeyHintProvider is an optional interface that screens can implement
// to provide custom footer key hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// EscapeHandler is implemented by screens that use Esc themselves, for
// example to dismiss a confirmation prompt. While CapturesEscape returns
// true the app forwards Esc instead of navigating back.
type EscapeHandler interface {
	CapturesEscape() bool
}
