// Package practice is the conversation screen where the user refuses the
// AI's invitation and receives feedback.
package practice

import (
	"context"
	"errors"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/kotowari/internal/router"
	"github.com/abhisek/kotowari/internal/screen"
	"github.com/abhisek/kotowari/internal/session"
	"github.com/abhisek/kotowari/internal/training"
	"github.com/abhisek/kotowari/internal/ui/components"
	"github.com/abhisek/kotowari/internal/ui/layout"
	"github.com/abhisek/kotowari/internal/ui/theme"
)

const maxMessageLen = 1000

// PracticeScreen runs one practice conversation against the coach.
type PracticeScreen struct {
	coach     *session.Coach
	mode      training.Mode
	elementID string
	scenario  string

	input    components.TextInput
	viewport viewport.Model
	spinner  spinner.Model

	waiting bool
	lastErr error
	last    *session.Turn
	atRisk  *session.AtRiskError
	notice  string

	// saved is true once the current conversation is in the chat log.
	saved bool
	// confirmLeave shows the "leave without saving" prompt.
	confirmLeave bool
	// follow keeps the transcript scrolled to the newest message.
	follow bool
}

var _ screen.Screen = (*PracticeScreen)(nil)
var _ screen.KeyHintProvider = (*PracticeScreen)(nil)
var _ screen.EscapeHandler = (*PracticeScreen)(nil)

// New creates a PracticeScreen that starts a session when initialised.
func New(coach *session.Coach, mode training.Mode, elementID, scenario string) *PracticeScreen {
	return &PracticeScreen{
		coach:     coach,
		mode:      mode,
		elementID: elementID,
		scenario:  scenario,
		input:     components.NewTextInput("断りのメッセージを入力...", maxMessageLen),
		viewport:  viewport.New(),
		spinner: spinner.New(
			spinner.WithSpinner(spinner.MiniDot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(theme.Primary)),
		),
		follow: true,
	}
}

func (s *PracticeScreen) Init() tea.Cmd {
	s.waiting = true
	return tea.Batch(s.input.Init(), s.spinner.Tick, s.start())
}

func (s *PracticeScreen) Title() string {
	if s.mode == training.ModeCombined {
		return "総合実践"
	}
	return "要素別トレーニング " + s.elementID
}

// CapturesEscape holds Esc for the leave prompt while there is an
// unsaved conversation.
func (s *PracticeScreen) CapturesEscape() bool {
	return s.confirmLeave || s.hasUnsaved()
}

func (s *PracticeScreen) hasUnsaved() bool {
	return !s.saved && len(s.coach.State().Transcript) > 0
}

func (s *PracticeScreen) KeyHints() []layout.KeyHint {
	if s.confirmLeave {
		return []layout.KeyHint{
			{Key: "Y", Description: "保存せずに戻る"},
			{Key: "N", Description: "続ける"},
		}
	}
	hints := []layout.KeyHint{
		{Key: "Enter", Description: "送信"},
		{Key: "Ctrl+S", Description: "保存"},
		{Key: "Ctrl+N", Description: "新しいシナリオ"},
	}
	if session.IsRetryable(s.lastErr) {
		hints = append(hints, layout.KeyHint{Key: "Ctrl+R", Description: "再試行"})
	}
	if s.atRisk != nil {
		hints = append(hints, layout.KeyHint{Key: "Ctrl+P", Description: "進捗を再保存"})
	}
	return append(hints, layout.KeyHint{Key: "Esc", Description: "戻る"})
}

// start begins the session and waits for the opening invitation.
func (s *PracticeScreen) start() tea.Cmd {
	coach, mode, el, sc := s.coach, s.mode, s.elementID, s.scenario
	return func() tea.Msg {
		turn, err := coach.Start(context.Background(), mode, el, sc)
		return turnMsg{Turn: turn, Err: err}
	}
}

func (s *PracticeScreen) send(text string) tea.Cmd {
	coach := s.coach
	return func() tea.Msg {
		turn, err := coach.Send(context.Background(), text)
		return turnMsg{Turn: turn, Err: err}
	}
}

func (s *PracticeScreen) retry() tea.Cmd {
	coach := s.coach
	return func() tea.Msg {
		turn, err := coach.Retry(context.Background())
		return turnMsg{Turn: turn, Err: err}
	}
}

func (s *PracticeScreen) saveTranscript() tea.Cmd {
	coach := s.coach
	return func() tea.Msg {
		entry, err := coach.SaveTranscript(context.Background())
		return transcriptSavedMsg{Entry: entry, Err: err}
	}
}

func (s *PracticeScreen) saveProgress() tea.Cmd {
	coach := s.coach
	return func() tea.Msg {
		return progressSavedMsg{Err: coach.SaveProgress(context.Background())}
	}
}

func (s *PracticeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case turnMsg:
		return s.handleTurn(msg)

	case transcriptSavedMsg:
		if msg.Err != nil {
			s.notice = ""
			s.lastErr = msg.Err
			return s, nil
		}
		s.saved = true
		s.lastErr = nil
		s.notice = "会話を保存しました (ID: " + msg.Entry.ShortID() + ")"
		return s, nil

	case progressSavedMsg:
		if msg.Err != nil {
			s.lastErr = msg.Err
			return s, nil
		}
		s.atRisk = nil
		s.lastErr = nil
		s.notice = "進捗を保存しました"
		return s, nil

	case spinner.TickMsg:
		if !s.waiting {
			return s, nil
		}
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *PracticeScreen) handleTurn(msg turnMsg) (screen.Screen, tea.Cmd) {
	// A reply for a session that was replaced meanwhile is dropped.
	if errors.Is(msg.Err, session.ErrSessionReplaced) {
		return s, nil
	}
	s.waiting = false
	s.follow = true

	var risk *session.AtRiskError
	switch {
	case errors.As(msg.Err, &risk):
		s.atRisk = risk
		s.lastErr = nil
	case msg.Err != nil:
		s.lastErr = msg.Err
		return s, nil
	default:
		s.lastErr = nil
	}

	turn := msg.Turn
	s.last = &turn
	s.saved = false
	s.notice = ""
	return s, nil
}

func (s *PracticeScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.confirmLeave {
		switch key {
		case "y", "Y":
			s.confirmLeave = false
			s.saved = true
			return s, router.Back()
		case "n", "N", "esc":
			s.confirmLeave = false
		}
		return s, nil
	}

	switch key {
	case "esc":
		if s.hasUnsaved() {
			s.confirmLeave = true
			return s, nil
		}
		return s, router.Back()

	case "enter":
		return s, s.submit()

	case "ctrl+r":
		if s.waiting || !session.IsRetryable(s.lastErr) {
			return s, nil
		}
		s.waiting = true
		s.lastErr = nil
		return s, tea.Batch(s.retry(), s.spinner.Tick)

	case "ctrl+s":
		if s.waiting {
			return s, nil
		}
		return s, s.saveTranscript()

	case "ctrl+p":
		if s.atRisk == nil {
			return s, nil
		}
		return s, s.saveProgress()

	case "ctrl+n":
		// Mode and element stay selected; the setup screen asks for the
		// next scenario.
		s.coach.NewScenario()
		s.saved = true
		return s, router.Back()

	case "pgup", "pgdown", "up", "down":
		var cmd tea.Cmd
		s.viewport, cmd = s.viewport.Update(msg)
		s.follow = s.viewport.AtBottom()
		return s, cmd
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *PracticeScreen) submit() tea.Cmd {
	if s.waiting {
		return nil
	}
	text := s.input.Value()
	if text == "" {
		return nil
	}
	switch s.coach.State().Phase() {
	case session.PhaseAwaitingUser:
	case session.PhaseAwaitingReply:
		s.notice = "前のメッセージへの返信がまだです。Ctrl+R で再送できます"
		return nil
	default:
		s.notice = "AIの最初のメッセージを待っています"
		return nil
	}

	s.input.Reset()
	s.waiting = true
	s.lastErr = nil
	s.notice = ""
	s.follow = true
	return tea.Batch(s.send(text), s.spinner.Tick)
}
