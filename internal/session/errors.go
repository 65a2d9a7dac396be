package session

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidModeSelection is returned when a session cannot start with
	// the requested mode and element. Nothing is changed.
	ErrInvalidModeSelection = errors.New("invalid mode selection")

	// ErrModeLocked is returned when combined mode is requested before all
	// elements are passed.
	ErrModeLocked = fmt.Errorf("%w: combined mode is locked until every element is passed", ErrInvalidModeSelection)

	// ErrOpeningAlreadyRecorded means the opening was recorded twice in one
	// session. It indicates a caller bug.
	ErrOpeningAlreadyRecorded = errors.New("opening already recorded for this session")

	ErrNoSession        = errors.New("no active session")
	ErrNoOpening        = errors.New("opening invitation not produced yet")
	ErrReplyPending     = errors.New("waiting for a reply to the previous message")
	ErrNoPendingMessage = errors.New("no message awaiting a reply")
	ErrEmptyMessage     = errors.New("message is empty")
	ErrNothingToRetry   = errors.New("nothing to retry")
	ErrNoUser           = errors.New("no user selected")

	// ErrSessionReplaced is returned when the session changed while a
	// completion was in flight. The reply is discarded.
	ErrSessionReplaced = errors.New("session was replaced while waiting for a reply")
)

func invalidSelection(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidModeSelection, reason)
}

// CompletionError wraps a completion service failure. The user's message
// stays in the transcript unanswered and can be retried.
type CompletionError struct {
	Op  string // "opening" or "reply"
	Err error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *CompletionError) Unwrap() error { return e.Err }

// AtRiskError reports an element pass that is held in memory but could
// not be persisted.
type AtRiskError struct {
	ElementID string
	Err       error
}

func (e *AtRiskError) Error() string {
	return fmt.Sprintf("pass for %s not saved: %v", e.ElementID, e.Err)
}

func (e *AtRiskError) Unwrap() error { return e.Err }
