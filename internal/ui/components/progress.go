package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/kotowari/internal/ui/theme"
)

// ProgressBar displays how many elements have been passed.
type ProgressBar struct {
	Passed int
	Total  int
	Width  int
}

// NewProgressBar creates a progress bar for passed out of total.
func NewProgressBar(passed, total, width int) ProgressBar {
	return ProgressBar{Passed: passed, Total: total, Width: width}
}

// Ratio returns the passed fraction in [0, 1].
func (p ProgressBar) Ratio() float64 {
	if p.Total <= 0 {
		return 0
	}
	r := float64(p.Passed) / float64(p.Total)
	if r > 1 {
		r = 1
	}
	return r
}

// View renders the bar followed by an "n/m" count.
func (p ProgressBar) View() string {
	count := fmt.Sprintf("  %d/%d", p.Passed, p.Total)

	barWidth := p.Width - lipgloss.Width(count)
	if barWidth < 4 {
		barWidth = 4
	}
	filled := int(float64(barWidth) * p.Ratio())
	empty := barWidth - filled

	fill := theme.ProgressFilled
	if p.Total > 0 && p.Passed >= p.Total {
		fill = fill.Background(theme.Success)
	}

	return fill.Render(strings.Repeat(" ", filled)) +
		theme.ProgressEmpty.Render(strings.Repeat(" ", empty)) +
		lipgloss.NewStyle().Foreground(theme.TextDim).Render(count)
}
