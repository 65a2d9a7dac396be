package practice

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/kotowari/internal/session"
	"github.com/abhisek/kotowari/internal/training"
	"github.com/abhisek/kotowari/internal/transcript"
	"github.com/abhisek/kotowari/internal/ui/theme"
	"github.com/abhisek/kotowari/internal/verdict"
)

// Lines used by everything except the transcript: info line, rule,
// status line, input box.
const chromeHeight = 7

func (s *PracticeScreen) View(width, height int) string {
	if s.confirmLeave {
		return renderLeaveConfirm(width, height)
	}

	inner := width - 4
	st := s.coach.State()

	var b strings.Builder
	b.WriteString(s.renderInfo(inner))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", inner)))
	b.WriteString("\n")

	vpHeight := height - chromeHeight
	if vpHeight < 3 {
		vpHeight = 3
	}
	s.viewport.SetWidth(inner)
	s.viewport.SetHeight(vpHeight)
	s.viewport.SetContent(renderTranscript(transcript.Visible(st.Transcript), inner))
	if s.follow {
		s.viewport.GotoBottom()
	}
	b.WriteString(s.viewport.View())
	b.WriteString("\n")

	b.WriteString(s.renderStatus(inner))
	b.WriteString("\n")

	s.input.SetWidth(inner - 6)
	b.WriteString(lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Primary).
		Width(inner).
		Render(s.input.View()))

	return lipgloss.NewStyle().Padding(0, 2).Render(b.String())
}

func (s *PracticeScreen) renderInfo(width int) string {
	left := lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).
		Render(s.mode.DisplayName())
	if s.mode == training.ModePerElement && s.elementID != "" {
		left += lipgloss.NewStyle().Foreground(theme.Text).
			Render("  " + s.coach.Elements().DisplayName(s.elementID))
	}

	scenario := s.scenario
	if scenario == "" {
		scenario = "AIにおまかせ"
	}
	right := lipgloss.NewStyle().Foreground(theme.TextDim).
		Render("シナリオ: " + truncate(scenario, width/3))

	pad := width - lipgloss.Width(left) - lipgloss.Width(right)
	if pad < 1 {
		return left
	}
	return left + strings.Repeat(" ", pad) + right
}

// renderTranscript renders the visible conversation, one block per
// message.
func renderTranscript(msgs []transcript.Message, width int) string {
	if len(msgs) == 0 {
		return lipgloss.NewStyle().Foreground(theme.TextDim).Italic(true).
			Render("AIが誘いのメッセージを考えています...")
	}

	body := lipgloss.NewStyle().Foreground(theme.Text).Width(width - 2).PaddingLeft(2)
	blocks := make([]string, 0, len(msgs))
	for _, m := range msgs {
		var label string
		if m.Role == transcript.RoleAssistant {
			label = theme.SpeakerAssistant.Render("AI")
		} else {
			label = theme.SpeakerUser.Render("あなた")
		}
		blocks = append(blocks, label+"\n"+body.Render(m.Content))
	}
	return strings.Join(blocks, "\n\n")
}

// renderStatus shows, in priority order: the spinner, an error, a saved
// notice, or the last verdict.
func (s *PracticeScreen) renderStatus(width int) string {
	style := lipgloss.NewStyle().Width(width)
	switch {
	case s.waiting:
		return style.Render(s.spinner.View() + " " + theme.Hint.Render("AIが返信を考えています..."))
	case s.lastErr != nil:
		text := "✗ " + session.Describe(s.lastErr)
		if session.IsRetryable(s.lastErr) {
			text += "  (Ctrl+R で再試行)"
		}
		return style.Render(theme.Failed.Render(text))
	case s.atRisk != nil:
		return style.Render(theme.Warning.Render("⚠ " + session.Describe(s.atRisk) + "  (Ctrl+P)"))
	case s.notice != "":
		return style.Render(theme.Hint.Render(s.notice))
	case s.last != nil:
		return style.Render(renderVerdict(*s.last, s.coach.Elements()))
	}
	return ""
}

func renderVerdict(t session.Turn, set training.Set) string {
	var parts []string
	switch t.Verdict {
	case verdict.Pass:
		parts = append(parts, theme.Passed.Render(fmt.Sprintf("✓ 合格: %s", set.DisplayName(t.ElementID))))
		if t.NewlyPassed {
			parts = append(parts, theme.Passed.Render("進捗に記録しました"))
		}
	case verdict.Fail:
		parts = append(parts, theme.Failed.Render("✗ 不合格。フィードバックを参考にもう一度"))
	}
	if t.CombinedUnlocked {
		parts = append(parts, theme.Warning.Render("★ 総合実践が解放されました"))
	}
	return strings.Join(parts, "   ")
}

func renderLeaveConfirm(width, height int) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Accent).
		Padding(1, 3).
		Render(lipgloss.NewStyle().Foreground(theme.Text).Bold(true).
			Render("保存していない会話があります。") + "\n\n" +
			lipgloss.NewStyle().Foreground(theme.TextDim).
				Render("保存せずに戻りますか？ (y/n)"))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

func truncate(s string, limit int) string {
	if limit <= 1 || lipgloss.Width(s) <= limit {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > limit {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}
