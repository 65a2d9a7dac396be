package app

import (
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"go.uber.org/zap"

	"github.com/abhisek/kotowari/internal/router"
	"github.com/abhisek/kotowari/internal/screen"
	"github.com/abhisek/kotowari/internal/screens/home"
	"github.com/abhisek/kotowari/internal/screens/welcome"
	"github.com/abhisek/kotowari/internal/session"
	"github.com/abhisek/kotowari/internal/ui/layout"
)

// Options configures the TUI.
type Options struct {
	Coach  *session.Coach
	Logger *zap.Logger

	// Notice is shown on the home screen, e.g. a missing API key warning.
	Notice string

	// SkipWelcome opens the home screen directly when a user is already
	// selected.
	SkipWelcome bool
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	coach  *session.Coach
	logger *zap.Logger
	width  int
	height int
}

// newAppModel creates an AppModel starting at the user entry screen.
func newAppModel(opts Options) AppModel {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	homeFactory := func() screen.Screen { return home.New(opts.Coach, opts.Notice) }

	var initial screen.Screen
	if opts.SkipWelcome && opts.Coach.UserID() != "" {
		initial = homeFactory()
	} else {
		initial = welcome.New(opts.Coach, homeFactory)
	}
	return AppModel{
		router: router.New(initial),
		coach:  opts.Coach,
		logger: logger,
	}
}

func (m AppModel) Init() tea.Cmd {
	if active := m.router.Active(); active != nil {
		return active.Init()
	}
	return nil
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.logger.Debug("quit requested")
			return m, tea.Quit
		case "esc":
			if h, ok := m.router.Active().(screen.EscapeHandler); ok && h.CapturesEscape() {
				break
			}
			if m.router.Depth() > 1 {
				return m, router.Back()
			}
			return m, nil
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	header := layout.RenderHeader(title, m.status(), m.width)

	var footerHints []layout.KeyHint
	if kp, ok := active.(screen.KeyHintProvider); ok {
		footerHints = kp.KeyHints()
	}
	if footerHints == nil {
		if m.router.Depth() > 1 {
			footerHints = []layout.KeyHint{
				{Key: "Esc", Description: "戻る"},
				{Key: "Ctrl+C", Description: "終了"},
			}
		} else {
			footerHints = []layout.KeyHint{
				{Key: "↑↓", Description: "移動"},
				{Key: "Enter", Description: "決定"},
				{Key: "Ctrl+C", Description: "終了"},
			}
		}
	}

	footer := layout.RenderFooter(footerHints, m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := m.height - headerHeight - footerHeight
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	frame := layout.RenderFrame(header, content, footer, m.width, m.height)

	v.SetContent(frame)
	return v
}

func (m AppModel) status() layout.Status {
	if m.coach == nil {
		return layout.Status{}
	}
	rec := m.coach.Progress()
	set := m.coach.Elements()
	return layout.Status{
		User:   m.coach.UserID(),
		Passed: rec.PassedCount(set),
		Total:  len(set),
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	if opts.Coach == nil {
		return fmt.Errorf("app: coach is required")
	}
	p := tea.NewProgram(newAppModel(opts))
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
