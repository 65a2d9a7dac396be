package home

import (
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/kotowari/internal/router"
	"github.com/abhisek/kotowari/internal/screen"
	"github.com/abhisek/kotowari/internal/screens/history"
	progressscreen "github.com/abhisek/kotowari/internal/screens/progress"
	"github.com/abhisek/kotowari/internal/screens/setup"
	"github.com/abhisek/kotowari/internal/session"
	"github.com/abhisek/kotowari/internal/ui/components"
)

// HomeScreen is the main menu. Stats are read from the coach on every
// render so they reflect passes made on other screens.
type HomeScreen struct {
	coach  *session.Coach
	menu   components.Menu
	notice string
}

var _ screen.Screen = (*HomeScreen)(nil)

// New creates a new HomeScreen. notice, when set, is shown above the menu.
func New(coach *session.Coach, notice string) *HomeScreen {
	items := []components.MenuItem{
		{Label: "練習を始める", Action: func() tea.Cmd {
			return router.Open(setup.New(coach))
		}},
		{Label: "進捗", Action: func() tea.Cmd {
			return router.Open(progressscreen.New(coach))
		}},
		{Label: "会話履歴", Action: func() tea.Cmd {
			return router.Open(history.New(coach))
		}},
		{Label: "終了", Action: func() tea.Cmd {
			return tea.Quit
		}},
	}

	return &HomeScreen{
		coach:  coach,
		menu:   components.NewMenu(items),
		notice: notice,
	}
}

func (h *HomeScreen) Init() tea.Cmd {
	return nil
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	// height is the content area; estimate full terminal height
	// by adding back header (3) + footer (3) + frame gaps
	termHeight := height + 8
	compact := termHeight < 30 || width < 90

	cw := components.ContentWidth(width)
	if cw > 60 {
		cw = 60
	}

	rec := h.coach.Progress()
	set := h.coach.Elements()

	sections := []string{
		renderTitle(cw, compact),
		renderStatsBar(h.coach.UserID(), rec.PassedCount(set), len(set),
			h.coach.Modes().CombinedAvailable, cw),
	}
	if h.notice != "" {
		sections = append(sections, renderNotice(h.notice, cw))
	}
	if compact {
		sections = append(sections, renderMenuCompact(h.menu.Items, h.menu.Selected, cw))
	} else {
		sections = append(sections, renderMenu(h.menu.Items, h.menu.Selected, cw))
	}

	return renderCabinetFrame(strings.Join(sections, "\n\n"), width, height)
}

func (h *HomeScreen) Title() string {
	return "ホーム"
}
