package welcome

import (
	"context"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/kotowari/internal/router"
	"github.com/abhisek/kotowari/internal/screen"
	"github.com/abhisek/kotowari/internal/session"
	"github.com/abhisek/kotowari/internal/ui/components"
	"github.com/abhisek/kotowari/internal/ui/layout"
	"github.com/abhisek/kotowari/internal/ui/theme"
)

const (
	tickInterval = 100 * time.Millisecond
	revealAfter  = 600 * time.Millisecond

	maxUserIDLen = 128
)

type tickMsg time.Time

// userSwitchedMsg is sent once the chosen user's progress is loaded.
type userSwitchedMsg struct{}

// WelcomeScreen shows the banner and asks who is practising. Confirming
// a user ID loads their progress and replaces this screen with home.
type WelcomeScreen struct {
	coach       *session.Coach
	homeFactory func() screen.Screen
	input       components.TextInput
	elapsed     time.Duration
	errMsg      string
	switching   bool
}

var _ screen.Screen = (*WelcomeScreen)(nil)
var _ screen.KeyHintProvider = (*WelcomeScreen)(nil)

// New creates a WelcomeScreen pre-filled with the coach's current user.
func New(coach *session.Coach, homeFactory func() screen.Screen) *WelcomeScreen {
	input := components.NewTextInput("ユーザーIDを入力", maxUserIDLen)
	input.SetValue(coach.UserID())
	return &WelcomeScreen{
		coach:       coach,
		homeFactory: homeFactory,
		input:       input,
	}
}

func (w *WelcomeScreen) Title() string {
	return ""
}

func (w *WelcomeScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "はじめる"},
		{Key: "Ctrl+C", Description: "終了"},
	}
}

func (w *WelcomeScreen) Init() tea.Cmd {
	return tea.Batch(w.input.Init(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (w *WelcomeScreen) revealed() bool {
	return w.elapsed >= revealAfter
}

func (w *WelcomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if w.revealed() {
			return w, nil
		}
		w.elapsed += tickInterval
		return w, tick()

	case userSwitchedMsg:
		return w, func() tea.Msg {
			return router.ReplaceScreenMsg{Screen: w.homeFactory()}
		}

	case tea.KeyPressMsg:
		// The first key during the reveal only skips it.
		if !w.revealed() {
			w.elapsed = revealAfter
			return w, nil
		}
		if msg.String() == "enter" {
			return w, w.submit()
		}
	}

	var cmd tea.Cmd
	w.input, cmd = w.input.Update(msg)
	if _, ok := msg.(tea.KeyPressMsg); ok {
		w.errMsg = ""
	}
	return w, cmd
}

func (w *WelcomeScreen) submit() tea.Cmd {
	if w.switching {
		return nil
	}
	id := w.input.Value()
	if id == "" {
		w.errMsg = "ユーザーIDを入力してください"
		return nil
	}
	w.switching = true
	coach := w.coach
	return func() tea.Msg {
		coach.SwitchUser(context.Background(), id)
		return userSwitchedMsg{}
	}
}

func (w *WelcomeScreen) View(width, height int) string {
	sections := []string{RenderBanner(width)}

	if w.revealed() {
		sections = append(sections, "",
			lipgloss.NewStyle().Foreground(theme.Text).Bold(true).
				Render("断る力を、会話で鍛える。"),
			"",
			lipgloss.NewStyle().Foreground(theme.TextDim).Render("ユーザーID"),
			w.input.View(),
		)
		if w.errMsg != "" {
			sections = append(sections, "", theme.Failed.Render(w.errMsg))
		}
		if w.switching {
			sections = append(sections, "", theme.Hint.Render("読み込み中..."))
		}
	}

	content := strings.Join(sections, "\n")
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
