// Package screentest builds coaches backed by temporary storage for
// screen tests.
package screentest

import (
	"context"
	"path/filepath"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/abhisek/kotowari/internal/chatlog"
	"github.com/abhisek/kotowari/internal/llm"
	"github.com/abhisek/kotowari/internal/progress"
	"github.com/abhisek/kotowari/internal/session"
	"github.com/abhisek/kotowari/internal/store"
	"github.com/abhisek/kotowari/internal/training"
)

// NewCoach returns a coach for userID whose progress and chat log live in
// a temporary directory, answering from the returned mock.
func NewCoach(t *testing.T, userID string) (*session.Coach, *llm.MockProvider) {
	t.Helper()
	blobs, err := store.NewFileBlobStore(filepath.Join(t.TempDir(), "blobs"))
	require.NoError(t, err)

	mock := llm.NewMockProvider()
	coach := session.NewCoach(context.Background(), session.Deps{
		Provider: mock,
		Progress: progress.NewStore(blobs, training.Elements(), zap.NewNop()),
		ChatLog:  chatlog.New(blobs, zap.NewNop()),
		Logger:   zap.NewNop(),
	}, userID)
	return coach, mock
}

// Key returns a key press for a printable rune.
func Key(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

// Enter returns an enter key press.
func Enter() tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: tea.KeyEnter}
}

// Ctrl returns ctrl plus r.
func Ctrl(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Mod: tea.ModCtrl}
}

// Type sends each rune of text to update as a key press.
func Type[S any](s S, update func(S, tea.Msg) S, text string) S {
	for _, r := range text {
		s = update(s, Key(r))
	}
	return s
}

// Collect runs cmd and returns the messages it produces, expanding
// batches. Only use it with commands that return without sleeping.
func Collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, Collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}
