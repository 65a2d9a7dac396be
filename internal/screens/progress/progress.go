// Package progress shows which elements the user has passed and lets
// them start over.
package progress

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/kotowari/internal/screen"
	"github.com/abhisek/kotowari/internal/session"
	"github.com/abhisek/kotowari/internal/training"
	"github.com/abhisek/kotowari/internal/ui/components"
	"github.com/abhisek/kotowari/internal/ui/layout"
	"github.com/abhisek/kotowari/internal/ui/theme"
)

type resetDoneMsg struct {
	Result session.ResetResult
	Err    error
}

// ProgressScreen lists every element with its pass state.
type ProgressScreen struct {
	coach      *session.Coach
	confirming bool
	resetting  bool
	notice     string
	errMsg     string
}

var _ screen.Screen = (*ProgressScreen)(nil)
var _ screen.KeyHintProvider = (*ProgressScreen)(nil)
var _ screen.EscapeHandler = (*ProgressScreen)(nil)

// New creates a ProgressScreen.
func New(coach *session.Coach) *ProgressScreen {
	return &ProgressScreen{coach: coach}
}

func (s *ProgressScreen) Init() tea.Cmd {
	return nil
}

func (s *ProgressScreen) Title() string {
	return "進捗"
}

func (s *ProgressScreen) CapturesEscape() bool {
	return s.confirming
}

func (s *ProgressScreen) KeyHints() []layout.KeyHint {
	if s.confirming {
		return []layout.KeyHint{
			{Key: "Y", Description: "リセットする"},
			{Key: "N", Description: "やめる"},
		}
	}
	return []layout.KeyHint{
		{Key: "R", Description: "進捗をリセット"},
		{Key: "Esc", Description: "戻る"},
	}
}

func (s *ProgressScreen) reset() tea.Cmd {
	coach := s.coach
	return func() tea.Msg {
		res, err := coach.ResetProgress(context.Background())
		return resetDoneMsg{Result: res, Err: err}
	}
}

func (s *ProgressScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case resetDoneMsg:
		s.resetting = false
		if msg.Err != nil {
			// The in-memory reset still applied.
			s.errMsg = session.Describe(msg.Err)
			s.notice = ""
			return s, nil
		}
		s.errMsg = ""
		s.notice = "進捗をリセットしました"
		if msg.Result.Forced {
			s.notice += "。総合実践が選べなくなったため、要素別トレーニングに切り替えました"
		}
		return s, nil

	case tea.KeyMsg:
		key := msg.String()
		if s.confirming {
			switch key {
			case "y", "Y":
				s.confirming = false
				s.resetting = true
				return s, s.reset()
			case "n", "N", "esc":
				s.confirming = false
			}
			return s, nil
		}
		if (key == "r" || key == "R") && !s.resetting {
			s.confirming = true
			s.notice = ""
			s.errMsg = ""
		}
	}
	return s, nil
}

func (s *ProgressScreen) View(width, height int) string {
	cw := components.ContentWidth(width)
	rec := s.coach.Progress()
	set := s.coach.Elements()
	passed := rec.PassedCount(set)

	var b strings.Builder
	b.WriteString(components.NewProgressBar(passed, len(set), cw-4).View())
	b.WriteString("\n\n")
	b.WriteString(renderElements(set, rec.Passed, cw-4))
	b.WriteString("\n")
	b.WriteString(renderModes(s.coach.Modes().CombinedAvailable, len(set)-passed))

	sections := []string{components.Section(s.coach.UserID()+" さんの進捗", b.String(), cw)}

	switch {
	case s.confirming:
		sections = append(sections, theme.Warning.Render("すべての要素の合格をリセットしますか？ (y/n)"))
	case s.resetting:
		sections = append(sections, theme.Hint.Render("リセット中..."))
	case s.errMsg != "":
		sections = append(sections, theme.Failed.Render("✗ "+s.errMsg))
	case s.notice != "":
		sections = append(sections, theme.Passed.Render(s.notice))
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		strings.Join(sections, "\n\n"))
}

func renderElements(set training.Set, passed func(string) bool, width int) string {
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)
	var b strings.Builder
	var aspect training.Aspect
	for _, el := range set {
		if el.Aspect != aspect {
			aspect = el.Aspect
			b.WriteString(dim.Render(string(aspect)) + "\n")
		}
		mark := dim.Render("・ 未合格")
		if passed(el.ID) {
			mark = theme.Passed.Render("✓ 合格")
		}
		label := fmt.Sprintf("  %s %s", el.ID, el.Name)
		pad := width - lipgloss.Width(label) - lipgloss.Width(mark)
		if pad < 1 {
			pad = 1
		}
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Render(label) +
			strings.Repeat(" ", pad) + mark + "\n")
	}
	return b.String()
}

func renderModes(combinedOpen bool, remaining int) string {
	if combinedOpen {
		return theme.Passed.Render("★ 総合実践モードを選べます")
	}
	return lipgloss.NewStyle().Foreground(theme.TextDim).
		Render(fmt.Sprintf("総合実践モードまで、あと %d 要素", remaining))
}
