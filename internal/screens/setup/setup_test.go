package setup

import (
	"context"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/kotowari/internal/router"
	"github.com/abhisek/kotowari/internal/screens/practice"
	"github.com/abhisek/kotowari/internal/screens/screentest"
	"github.com/abhisek/kotowari/internal/session"
	"github.com/abhisek/kotowari/internal/training"
)

func update(s *SetupScreen, msg tea.Msg) *SetupScreen {
	next, _ := s.Update(msg)
	return next.(*SetupScreen)
}

// press sends key and feeds the resulting message back, like the
// program loop would for a menu choice.
func press(t *testing.T, s *SetupScreen, key tea.Msg) (*SetupScreen, tea.Msg) {
	t.Helper()
	next, cmd := s.Update(key)
	s = next.(*SetupScreen)
	if cmd == nil {
		return s, nil
	}
	msg := cmd()
	switch msg.(type) {
	case modeChosenMsg, elementChosenMsg:
		next, _ = s.Update(msg)
		return next.(*SetupScreen), msg
	}
	return s, msg
}

func passAll(t *testing.T, coach *session.Coach, mock interface{ Reply(string) }) {
	t.Helper()
	ctx := context.Background()
	for _, id := range coach.Elements().IDs() {
		mock.Reply("opening")
		_, err := coach.Start(ctx, training.ModePerElement, id, "")
		require.NoError(t, err)
		mock.Reply(id + ": 合格")
		_, err = coach.Send(ctx, "no")
		require.NoError(t, err)
	}
	require.True(t, coach.Modes().CombinedAvailable)
}

func TestCombinedLockedForFreshUser(t *testing.T) {
	coach, _ := screentest.NewCoach(t, "u1")
	s := New(coach)

	require.Len(t, s.modeMenu.Items, 2)
	assert.True(t, s.modeMenu.Items[0].Disabled)
	assert.Equal(t, 1, s.modeMenu.Selected)
	assert.Contains(t, s.View(100, 30), "全要素の合格で解放")
}

func TestPerElementFlowOpensPractice(t *testing.T) {
	coach, _ := screentest.NewCoach(t, "u1")
	s := New(coach)

	s, _ = press(t, s, screentest.Enter())
	assert.Equal(t, stepElement, s.step)
	assert.True(t, s.CapturesEscape())

	s = update(s, screentest.Key('j'))
	s, _ = press(t, s, screentest.Enter())
	assert.Equal(t, stepScenario, s.step)
	assert.Equal(t, "E2", s.elementID)

	s = screentest.Type(s, update, "合コンに誘われた")
	_, msg := press(t, s, screentest.Enter())
	push, ok := msg.(router.PushScreenMsg)
	require.True(t, ok, "expected PushScreenMsg, got %T", msg)
	_, ok = push.Screen.(*practice.PracticeScreen)
	assert.True(t, ok)
	assert.Empty(t, s.scenario.Value())
}

func TestEscapeStepsBack(t *testing.T) {
	coach, _ := screentest.NewCoach(t, "u1")
	s := New(coach)

	s, _ = press(t, s, screentest.Enter())
	s, _ = press(t, s, screentest.Enter())
	require.Equal(t, stepScenario, s.step)

	esc := tea.KeyPressMsg{Code: tea.KeyEscape}
	s = update(s, esc)
	assert.Equal(t, stepElement, s.step)
	s = update(s, esc)
	assert.Equal(t, stepMode, s.step)
	assert.False(t, s.CapturesEscape())
}

func TestCombinedSkipsElementStep(t *testing.T) {
	coach, mock := screentest.NewCoach(t, "u1")
	passAll(t, coach, mock)
	s := New(coach)

	assert.False(t, s.modeMenu.Items[0].Disabled)
	assert.Equal(t, 0, s.modeMenu.Selected)

	s, _ = press(t, s, screentest.Enter())
	assert.Equal(t, training.ModeCombined, s.mode)
	assert.Equal(t, stepScenario, s.step)

	s = update(s, tea.KeyPressMsg{Code: tea.KeyEscape})
	assert.Equal(t, stepMode, s.step)
}

func TestPassedBadge(t *testing.T) {
	coach, mock := screentest.NewCoach(t, "u1")
	ctx := context.Background()
	mock.Reply("opening")
	_, err := coach.Start(ctx, training.ModePerElement, "E3", "")
	require.NoError(t, err)
	mock.Reply("E3: 合格")
	_, err = coach.Send(ctx, "no")
	require.NoError(t, err)

	s := New(coach)
	assert.Empty(t, s.elementMenu.Items[0].Badge)
	assert.Contains(t, s.elementMenu.Items[2].Badge, "合格")
}
