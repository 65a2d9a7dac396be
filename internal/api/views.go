package api

import (
	"time"

	"github.com/abhisek/kotowari/internal/chatlog"
	"github.com/abhisek/kotowari/internal/gate"
	"github.com/abhisek/kotowari/internal/progress"
	"github.com/abhisek/kotowari/internal/session"
	"github.com/abhisek/kotowari/internal/training"
	"github.com/abhisek/kotowari/internal/transcript"
)

type elementView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Aspect      string `json:"aspect"`
	Description string `json:"description"`
}

func newElementViews(set training.Set) []elementView {
	out := make([]elementView, len(set))
	for i, e := range set {
		out[i] = elementView{ID: e.ID, Name: e.Name, Aspect: string(e.Aspect), Description: e.Description}
	}
	return out
}

type progressView struct {
	UserID   string          `json:"user_id"`
	Elements map[string]bool `json:"elements"`
	Passed   int             `json:"passed"`
	Total    int             `json:"total"`
	Modes    gate.Modes      `json:"modes"`
}

func newProgressView(set training.Set, rec progress.Record, modes gate.Modes) progressView {
	return progressView{
		UserID:   rec.UserID,
		Elements: rec.Elements,
		Passed:   rec.PassedCount(set),
		Total:    len(set),
		Modes:    modes,
	}
}

type resetView struct {
	progressView
	Forced bool `json:"forced"`
}

type sessionView struct {
	Active    bool                 `json:"active"`
	Phase     string               `json:"phase"`
	Mode      training.Mode        `json:"mode"`
	ElementID string               `json:"element_id,omitempty"`
	Scenario  string               `json:"scenario,omitempty"`
	Messages  []transcript.Message `json:"messages"`
}

func newSessionView(st *session.State) sessionView {
	msgs := transcript.Visible(st.Transcript)
	if msgs == nil {
		msgs = []transcript.Message{}
	}
	return sessionView{
		Active:    st.Active,
		Phase:     st.Phase().String(),
		Mode:      st.Mode,
		ElementID: st.ElementID,
		Scenario:  st.Scenario,
		Messages:  msgs,
	}
}

type turnView struct {
	Reply            string     `json:"reply"`
	Verdict          string     `json:"verdict,omitempty"`
	ElementID        string     `json:"element_id,omitempty"`
	NewlyPassed      bool       `json:"newly_passed"`
	CombinedUnlocked bool       `json:"combined_unlocked"`
	Modes            gate.Modes `json:"modes"`

	// Warning is set when the reply was recorded but its pass could not
	// be saved.
	Warning string `json:"warning,omitempty"`
}

func newTurnView(t session.Turn) turnView {
	return turnView{
		Reply:            t.Reply,
		Verdict:          string(t.Verdict),
		ElementID:        t.ElementID,
		NewlyPassed:      t.NewlyPassed,
		CombinedUnlocked: t.CombinedUnlocked,
		Modes:            t.Modes,
	}
}

type historyView struct {
	SessionID string               `json:"session_id"`
	ShortID   string               `json:"short_id"`
	Timestamp time.Time            `json:"timestamp"`
	Messages  []transcript.Message `json:"messages"`
}

func newHistoryViews(entries []chatlog.Entry) []historyView {
	out := make([]historyView, len(entries))
	for i, e := range entries {
		out[i] = historyView{
			SessionID: e.SessionID,
			ShortID:   e.ShortID(),
			Timestamp: e.Timestamp,
			Messages:  e.Messages,
		}
	}
	return out
}
