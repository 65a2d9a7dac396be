package history

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/kotowari/internal/chatlog"
	"github.com/abhisek/kotowari/internal/screen"
	"github.com/abhisek/kotowari/internal/session"
	"github.com/abhisek/kotowari/internal/transcript"
	"github.com/abhisek/kotowari/internal/ui/layout"
	"github.com/abhisek/kotowari/internal/ui/theme"
)

type historyLoadedMsg struct {
	Entries []chatlog.Entry
}

type deletedMsg struct {
	SessionID string
	Removed   bool
	Err       error
}

// HistoryScreen lists saved conversations, newest first.
type HistoryScreen struct {
	coach      *session.Coach
	entries    []chatlog.Entry
	selected   int
	expanded   map[string]bool
	loaded     bool
	confirming bool
	errMsg     string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)
var _ screen.EscapeHandler = (*HistoryScreen)(nil)

// New creates a new HistoryScreen.
func New(coach *session.Coach) *HistoryScreen {
	return &HistoryScreen{
		coach:    coach,
		expanded: make(map[string]bool),
	}
}

func (s *HistoryScreen) Init() tea.Cmd {
	return s.load()
}

func (s *HistoryScreen) load() tea.Cmd {
	coach := s.coach
	return func() tea.Msg {
		return historyLoadedMsg{Entries: coach.History(context.Background())}
	}
}

func (s *HistoryScreen) Title() string {
	return "会話履歴"
}

func (s *HistoryScreen) CapturesEscape() bool {
	return s.confirming
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	if s.confirming {
		return []layout.KeyHint{
			{Key: "Y", Description: "削除"},
			{Key: "N", Description: "やめる"},
		}
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: "開く/閉じる"},
		{Key: "D", Description: "削除"},
		{Key: "↑↓", Description: "移動"},
		{Key: "Esc", Description: "戻る"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		s.entries = newestFirst(msg.Entries)
		if s.selected >= len(s.entries) {
			s.selected = len(s.entries) - 1
		}
		if s.selected < 0 {
			s.selected = 0
		}
		s.loaded = true
		return s, nil

	case deletedMsg:
		switch {
		case msg.Err != nil:
			s.errMsg = session.Describe(msg.Err)
		case !msg.Removed:
			s.errMsg = "セッション " + msg.SessionID + " は見つかりませんでした"
		default:
			s.errMsg = ""
			delete(s.expanded, msg.SessionID)
		}
		return s, s.load()

	case tea.KeyMsg:
		key := msg.String()
		if s.confirming {
			switch key {
			case "y", "Y":
				s.confirming = false
				return s, s.deleteSelected()
			case "n", "N", "esc":
				s.confirming = false
			}
			return s, nil
		}
		switch key {
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
		case "down", "j":
			if s.selected < len(s.entries)-1 {
				s.selected++
			}
		case "enter":
			if e, ok := s.current(); ok {
				s.expanded[e.SessionID] = !s.expanded[e.SessionID]
			}
		case "d", "D":
			if _, ok := s.current(); ok {
				s.confirming = true
			}
		}
	}
	return s, nil
}

func (s *HistoryScreen) current() (chatlog.Entry, bool) {
	if s.selected < 0 || s.selected >= len(s.entries) {
		return chatlog.Entry{}, false
	}
	return s.entries[s.selected], true
}

func (s *HistoryScreen) deleteSelected() tea.Cmd {
	e, ok := s.current()
	if !ok {
		return nil
	}
	coach := s.coach
	return func() tea.Msg {
		removed, err := coach.DeleteHistory(context.Background(), e.SessionID)
		return deletedMsg{SessionID: e.SessionID, Removed: removed, Err: err}
	}
}

func (s *HistoryScreen) View(width, height int) string {
	if !s.loaded {
		return layout.Centered(width, "  履歴を読み込んでいます...", theme.TextDim)
	}
	if len(s.entries) == 0 {
		return layout.Centered(width, "  保存された会話はまだありません", theme.TextDim)
	}

	inner := width - 8
	var b strings.Builder
	b.WriteString("\n")

	for i, e := range s.entries {
		prefix := "  "
		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == s.selected {
			prefix = "▸ "
			style = style.Foreground(theme.Primary).Bold(true)
		}
		visible := transcript.Visible(e.Messages)
		line := fmt.Sprintf("%s%s  %s", prefix, Label(e),
			lipgloss.NewStyle().Foreground(theme.TextDim).Render(fmt.Sprintf("%d 件", len(visible))))
		b.WriteString("    " + style.Render(line) + "\n")

		if s.expanded[e.SessionID] {
			b.WriteString(renderMessages(visible, inner))
			b.WriteString("\n")
		}
	}

	if s.confirming {
		if e, ok := s.current(); ok {
			b.WriteString("\n    " + theme.Warning.Render(Label(e)+" を削除しますか？ (y/n)") + "\n")
		}
	}
	if s.errMsg != "" {
		b.WriteString("\n    " + theme.Failed.Render("✗ "+s.errMsg) + "\n")
	}

	return b.String()
}

// Label names a saved conversation by its time and short ID.
func Label(e chatlog.Entry) string {
	return fmt.Sprintf("セッション: %s (ID: %s)", e.Timestamp.Local().Format("2006-01-02 15:04"), e.ShortID())
}

func renderMessages(msgs []transcript.Message, width int) string {
	body := lipgloss.NewStyle().Foreground(theme.Text).Width(width - 4).PaddingLeft(8)
	var b strings.Builder
	for _, m := range msgs {
		label := theme.SpeakerUser.Render("あなた")
		if m.Role == transcript.RoleAssistant {
			label = theme.SpeakerAssistant.Render("AI")
		}
		b.WriteString("      " + label + "\n" + body.Render(m.Content) + "\n")
	}
	return b.String()
}

func newestFirst(entries []chatlog.Entry) []chatlog.Entry {
	out := make([]chatlog.Entry, len(entries))
	for i, e := range entries {
		out[len(entries)-1-i] = e
	}
	return out
}
