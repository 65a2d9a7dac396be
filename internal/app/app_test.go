package app

import (
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/kotowari/internal/router"
	"github.com/abhisek/kotowari/internal/screens/home"
	"github.com/abhisek/kotowari/internal/screens/progress"
	"github.com/abhisek/kotowari/internal/screens/screentest"
	"github.com/abhisek/kotowari/internal/screens/welcome"
)

func TestStartsAtWelcome(t *testing.T) {
	coach, _ := screentest.NewCoach(t, "taro")
	m := newAppModel(Options{Coach: coach})
	if _, ok := m.router.Active().(*welcome.WelcomeScreen); !ok {
		t.Fatalf("expected welcome screen, got %T", m.router.Active())
	}
}

func TestSkipWelcome(t *testing.T) {
	coach, _ := screentest.NewCoach(t, "taro")
	m := newAppModel(Options{Coach: coach, SkipWelcome: true})
	if _, ok := m.router.Active().(*home.HomeScreen); !ok {
		t.Fatalf("expected home screen, got %T", m.router.Active())
	}

	// Without a user the welcome screen is still shown.
	coach, _ = screentest.NewCoach(t, "")
	m = newAppModel(Options{Coach: coach, SkipWelcome: true})
	if _, ok := m.router.Active().(*welcome.WelcomeScreen); !ok {
		t.Fatalf("expected welcome screen, got %T", m.router.Active())
	}
}

func TestEscapeRespectsCapturingScreen(t *testing.T) {
	coach, _ := screentest.NewCoach(t, "taro")
	m := newAppModel(Options{Coach: coach, SkipWelcome: true})
	p := progress.New(coach)
	m.router.Push(p)

	// Ask for a reset so the screen holds Esc for its prompt.
	next, _ := m.Update(screentest.Key('r'))
	m = next.(AppModel)
	if !p.CapturesEscape() {
		t.Fatal("expected progress screen to capture escape while confirming")
	}

	next, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	m = next.(AppModel)
	if cmd != nil {
		if _, ok := cmd().(router.PopScreenMsg); ok {
			t.Fatal("escape should dismiss the prompt, not navigate back")
		}
	}
	if p.CapturesEscape() {
		t.Error("prompt should be dismissed")
	}

	_, cmd = m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if cmd == nil {
		t.Fatal("expected back navigation")
	}
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Error("expected PopScreenMsg")
	}
}

func TestHeaderShowsUserProgress(t *testing.T) {
	coach, _ := screentest.NewCoach(t, "taro")
	m := newAppModel(Options{Coach: coach, SkipWelcome: true})
	st := m.status()
	if st.User != "taro" || st.Passed != 0 || st.Total != 6 {
		t.Errorf("unexpected status %+v", st)
	}
}
