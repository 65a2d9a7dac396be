package prompt

import (
	"strings"
	"testing"

	"github.com/abhisek/kotowari/internal/training"
	"github.com/abhisek/kotowari/internal/verdict"
)

func TestFocused_ContainsElementAndMarkers(t *testing.T) {
	el, _ := training.Elements().Lookup("E4")
	ex := verdict.NewExtractor(verdict.DefaultTokens(), nil)

	p := Focused(el, ex)

	for _, want := range []string{el.Name, el.Description, "E4: 合格", "E4: 不合格"} {
		if !strings.Contains(p, want) {
			t.Errorf("focused prompt missing %q", want)
		}
	}
	if strings.Contains(p, "%!") {
		t.Error("focused prompt has a formatting error")
	}
}

func TestFocused_CustomTokens(t *testing.T) {
	el, _ := training.Elements().Lookup("E1")
	ex := verdict.NewExtractor(verdict.Tokens{Pass: "PASS", Fail: "FAIL"}, nil)

	p := Focused(el, ex)
	if !strings.Contains(p, "E1: PASS") || !strings.Contains(p, "E1: FAIL") {
		t.Error("focused prompt should use the configured tokens")
	}
}

func TestSystem_ByMode(t *testing.T) {
	el, _ := training.Elements().Lookup("E2")
	ex := verdict.NewExtractor(verdict.DefaultTokens(), nil)

	if got := System(training.ModeCombined, el, ex); got != Combined() {
		t.Error("combined mode should use the combined rubric")
	}
	if got := System(training.ModePerElement, el, ex); !strings.Contains(got, "E2: 合格") {
		t.Error("per-element mode should use the focused prompt")
	}
	if !strings.Contains(Combined(), "10点満点") {
		t.Error("combined rubric should ask for a 10-point score")
	}
}

func TestKickoff(t *testing.T) {
	withScenario := Kickoff("  会社の先輩、飲み会の誘い  ")
	if !strings.Contains(withScenario, "会社の先輩、飲み会の誘い") {
		t.Error("kickoff should include the scenario")
	}
	if strings.Contains(withScenario, "指定していません") {
		t.Error("kickoff with a scenario should not ask the model to invent one")
	}

	invented := Kickoff("   ")
	if !strings.Contains(invented, "自由に決め") {
		t.Error("empty scenario should ask the model to invent a situation")
	}
}
