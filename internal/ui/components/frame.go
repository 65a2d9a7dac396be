package components

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/kotowari/internal/ui/theme"
)

// ContentWidth returns the uniform inner width used for framed sections
// so stacked boxes line up.
func ContentWidth(frameWidth int) int {
	w := frameWidth - 6
	if w > 72 {
		w = 72
	}
	if w < 20 {
		w = 20
	}
	return w
}

// Section renders a titled rounded box of the given width.
func Section(title, body string, width int) string {
	heading := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render(title)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Padding(0, 1).
		Width(width).
		Render(heading + "\n\n" + body)
}

// Centered places content in the middle of a width x height area.
func Centered(content string, width, height int) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
