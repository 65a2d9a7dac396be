package practice

import (
	"github.com/abhisek/kotowari/internal/chatlog"
	"github.com/abhisek/kotowari/internal/session"
)

// turnMsg is sent when an opening or reply request finishes.
type turnMsg struct {
	Turn session.Turn
	Err  error
}

// transcriptSavedMsg is sent when the conversation was appended to the
// chat log.
type transcriptSavedMsg struct {
	Entry chatlog.Entry
	Err   error
}

// progressSavedMsg is sent after retrying a failed progress save.
type progressSavedMsg struct {
	Err error
}
