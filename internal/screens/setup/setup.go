// Package setup is the practice selection screen: mode, element and an
// optional scenario.
package setup

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/kotowari/internal/router"
	"github.com/abhisek/kotowari/internal/screen"
	"github.com/abhisek/kotowari/internal/screens/practice"
	"github.com/abhisek/kotowari/internal/session"
	"github.com/abhisek/kotowari/internal/training"
	"github.com/abhisek/kotowari/internal/ui/components"
	"github.com/abhisek/kotowari/internal/ui/layout"
	"github.com/abhisek/kotowari/internal/ui/theme"
)

type step int

const (
	stepMode step = iota
	stepElement
	stepScenario
)

const maxScenarioLen = 500

// modeChosenMsg and elementChosenMsg advance the wizard.
type modeChosenMsg struct{ Mode training.Mode }
type elementChosenMsg struct{ ID string }

// SetupScreen walks through mode, element and scenario selection and then
// opens the practice screen.
type SetupScreen struct {
	coach     *session.Coach
	step      step
	mode      training.Mode
	elementID string

	modeMenu    components.Menu
	elementMenu components.Menu
	scenario    components.TextInput
}

var _ screen.Screen = (*SetupScreen)(nil)
var _ screen.KeyHintProvider = (*SetupScreen)(nil)
var _ screen.EscapeHandler = (*SetupScreen)(nil)

// New creates a SetupScreen.
func New(coach *session.Coach) *SetupScreen {
	s := &SetupScreen{
		coach:    coach,
		scenario: components.NewTextInput("例: 上司から休日出勤を頼まれた (空欄ならAIにおまかせ)", maxScenarioLen),
	}
	s.modeMenu = components.NewMenu(s.modeItems())
	s.elementMenu = components.NewMenu(s.elementItems())
	return s
}

func (s *SetupScreen) Init() tea.Cmd {
	return nil
}

func (s *SetupScreen) Title() string {
	return "練習の準備"
}

func (s *SetupScreen) CapturesEscape() bool {
	return s.step != stepMode
}

func (s *SetupScreen) KeyHints() []layout.KeyHint {
	if s.step == stepScenario {
		return []layout.KeyHint{
			{Key: "Enter", Description: "練習開始"},
			{Key: "Esc", Description: "戻る"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "移動"},
		{Key: "Enter", Description: "決定"},
		{Key: "Esc", Description: "戻る"},
	}
}

func (s *SetupScreen) modeItems() []components.MenuItem {
	modes := s.coach.Modes()
	items := make([]components.MenuItem, 0, 2)
	for _, m := range training.AllModes() {
		mode := m
		item := components.MenuItem{
			Label: mode.DisplayName(),
			Action: func() tea.Cmd {
				return func() tea.Msg { return modeChosenMsg{Mode: mode} }
			},
		}
		if !modes.Allows(mode) {
			item.Disabled = true
			item.Badge = "🔒 全要素の合格で解放"
		}
		items = append(items, item)
	}
	return items
}

func (s *SetupScreen) elementItems() []components.MenuItem {
	rec := s.coach.Progress()
	set := s.coach.Elements()
	items := make([]components.MenuItem, 0, len(set))
	for _, el := range set {
		id := el.ID
		item := components.MenuItem{
			Label: fmt.Sprintf("%s %s", el.ID, el.Name),
			Note:  fmt.Sprintf("[%s] %s", el.Aspect, el.Description),
			Action: func() tea.Cmd {
				return func() tea.Msg { return elementChosenMsg{ID: id} }
			},
		}
		if rec.Passed(id) {
			item.Badge = theme.Passed.Render("✓ 合格")
		}
		items = append(items, item)
	}
	return items
}

// refresh rebuilds the menus from the coach so unlocks and resets made
// elsewhere show up, keeping the cursor where it was.
func (s *SetupScreen) refresh() {
	sel := s.modeMenu.Selected
	s.modeMenu = components.NewMenu(s.modeItems())
	if sel < len(s.modeMenu.Items) && !s.modeMenu.Items[sel].Disabled {
		s.modeMenu.Selected = sel
	}
	sel = s.elementMenu.Selected
	s.elementMenu = components.NewMenu(s.elementItems())
	s.elementMenu.Selected = sel
}

func (s *SetupScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case modeChosenMsg:
		s.mode = msg.Mode
		if s.mode == training.ModeCombined {
			s.elementID = ""
			return s, s.enterScenario()
		}
		s.step = stepElement
		return s, nil

	case elementChosenMsg:
		s.elementID = msg.ID
		return s, s.enterScenario()

	case tea.KeyMsg:
		s.refresh()
		switch msg.String() {
		case "esc":
			s.back()
			return s, nil
		case "enter":
			if s.step == stepScenario {
				return s, s.open()
			}
		}
	}

	var cmd tea.Cmd
	switch s.step {
	case stepMode:
		s.modeMenu, cmd = s.modeMenu.Update(msg)
	case stepElement:
		s.elementMenu, cmd = s.elementMenu.Update(msg)
	case stepScenario:
		s.scenario, cmd = s.scenario.Update(msg)
	}
	return s, cmd
}

func (s *SetupScreen) back() {
	switch s.step {
	case stepScenario:
		if s.mode == training.ModeCombined {
			s.step = stepMode
		} else {
			s.step = stepElement
		}
	case stepElement:
		s.step = stepMode
	}
}

func (s *SetupScreen) enterScenario() tea.Cmd {
	s.step = stepScenario
	s.scenario.Reset()
	return s.scenario.Init()
}

func (s *SetupScreen) open() tea.Cmd {
	p := practice.New(s.coach, s.mode, s.elementID, s.scenario.Value())
	s.scenario.Reset()
	return router.Open(p)
}

func (s *SetupScreen) View(width, height int) string {
	cw := components.ContentWidth(width)

	var title, body string
	switch s.step {
	case stepMode:
		title = "1. モードを選ぶ"
		body = s.modeMenu.View()
	case stepElement:
		title = "2. 練習する要素を選ぶ"
		body = s.elementMenu.View()
	case stepScenario:
		title = "3. シナリオ (任意)"
		body = s.summary() + "\n\n" + s.scenario.View()
	}

	content := components.Section(title, strings.TrimRight(body, "\n"), cw)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

func (s *SetupScreen) summary() string {
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)
	line := dim.Render("モード: ") + s.mode.DisplayName()
	if s.elementID != "" {
		line += "\n" + dim.Render("要素: ") + s.coach.Elements().DisplayName(s.elementID)
	}
	return line
}
