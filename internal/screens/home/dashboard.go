package home

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/kotowari/internal/ui/components"
	"github.com/abhisek/kotowari/internal/ui/theme"
)

const titleFull = `╦╔═╔═╗╔╦╗╔═╗╦ ╦╔═╗╦═╗╦
╠╩╗║ ║ ║ ║ ║║║║╠═╣╠╦╝║
╩ ╩╚═╝ ╩ ╚═╝╚╩╝╩ ╩╩╚═╩`

const titleCompact = "K · O · T · O · W · A · R · I"

// renderTitle returns the styled title block or compact fallback.
func renderTitle(cw int, compact bool) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	art := titleFull
	if compact {
		art = titleCompact
	}
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(style.Render(art) + "\n" +
			lipgloss.NewStyle().Foreground(theme.TextDim).Render("断りの練習帳"))
}

// renderStatsBar renders the user's progress in a bordered box matching
// content width.
func renderStatsBar(user string, passed, total int, combinedOpen bool, cw int) string {
	userStyle := lipgloss.NewStyle().Foreground(theme.Text).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(theme.TextDim)

	bar := components.NewProgressBar(passed, total, cw-6).View()

	mode := dimStyle.Render(fmt.Sprintf("総合実践: あと %d 要素で解放", total-passed))
	if combinedOpen {
		mode = theme.Passed.Render("総合実践: 解放済み")
	}

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.Secondary).
		Width(cw - 2).
		Align(lipgloss.Center).
		Padding(0, 1).
		Render(strings.Join([]string{
			userStyle.Render(user) + dimStyle.Render(" さんの進捗"),
			bar,
			mode,
		}, "\n"))
}

// buttonWidth is the fixed width for menu buttons.
const buttonWidth = 22

// renderMenu renders each menu item as a fixed-width button.
func renderMenu(items []components.MenuItem, selected int, cw int) string {
	selectedBtn := lipgloss.NewStyle().
		Width(buttonWidth).
		Align(lipgloss.Center).
		Bold(true).
		Foreground(theme.BgDark).
		Background(theme.Primary).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Primary).
		Padding(0, 1)

	normalBtn := lipgloss.NewStyle().
		Width(buttonWidth).
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Padding(0, 1)

	var buttons []string
	for i, item := range items {
		if i == selected {
			buttons = append(buttons, selectedBtn.Render("▸ "+item.Label))
		} else {
			buttons = append(buttons, normalBtn.Render(item.Label))
		}
	}

	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(strings.Join(buttons, "\n"))
}

// renderMenuCompact renders menu items as simple text lines for small
// terminals where bordered buttons would overflow.
func renderMenuCompact(items []components.MenuItem, selected int, cw int) string {
	var lines []string
	for i, item := range items {
		if i == selected {
			lines = append(lines, lipgloss.NewStyle().
				Foreground(theme.BgDark).
				Background(theme.Primary).
				Bold(true).
				Render(" ▸ "+item.Label+" "))
		} else {
			lines = append(lines, lipgloss.NewStyle().
				Foreground(theme.Text).
				Render("   "+item.Label))
		}
	}
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(strings.Join(lines, "\n"))
}

// renderNotice renders a one-line warning, for example when no LLM
// provider is configured.
func renderNotice(text string, cw int) string {
	return lipgloss.NewStyle().
		Foreground(theme.Accent).
		Width(cw).
		Align(lipgloss.Center).
		Render("⚠ " + text)
}

// renderCabinetFrame wraps content in a double-border frame, centered
// within the given dimensions.
func renderCabinetFrame(content string, width, height int) string {
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.Primary).
		Width(width - 2).
		Height(height - 2).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}
