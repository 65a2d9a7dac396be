package api

import (
	"errors"
	"net/http"

	"github.com/abhisek/kotowari/internal/chatlog"
	"github.com/abhisek/kotowari/internal/session"
	"github.com/abhisek/kotowari/internal/store"
)

type errorBody struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

// classify maps a domain error to an HTTP status and a stable error code.
func classify(err error) (int, string) {
	var ce *session.CompletionError
	switch {
	case errors.Is(err, session.ErrModeLocked):
		return http.StatusConflict, "mode_locked"
	case errors.Is(err, session.ErrInvalidModeSelection):
		return http.StatusBadRequest, "invalid_mode_selection"
	case errors.Is(err, session.ErrEmptyMessage):
		return http.StatusBadRequest, "empty_message"
	case errors.Is(err, session.ErrNoUser):
		return http.StatusBadRequest, "no_user"
	case errors.Is(err, session.ErrNoSession):
		return http.StatusConflict, "no_session"
	case errors.Is(err, session.ErrNoOpening):
		return http.StatusConflict, "no_opening"
	case errors.Is(err, session.ErrReplyPending):
		return http.StatusConflict, "reply_pending"
	case errors.Is(err, session.ErrNothingToRetry):
		return http.StatusConflict, "nothing_to_retry"
	case errors.Is(err, session.ErrSessionReplaced):
		return http.StatusConflict, "session_replaced"
	case errors.Is(err, session.ErrOpeningAlreadyRecorded):
		return http.StatusConflict, "opening_already_recorded"
	case errors.Is(err, chatlog.ErrEmptyTranscript):
		return http.StatusConflict, "empty_transcript"
	case errors.As(err, &ce):
		return http.StatusBadGateway, "completion_failed"
	case errors.Is(err, store.ErrWriteFailed):
		return http.StatusServiceUnavailable, "write_failed"
	}
	return http.StatusInternalServerError, "internal"
}

// WriteError writes err as a JSON error response.
func WriteError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	JSON(w, status, errorBody{
		Error:     code,
		Message:   session.Describe(err),
		Retryable: session.IsRetryable(err),
	})
}

// Error writes a JSON error response with an explicit code.
func Error(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, errorBody{Error: code, Message: message})
}
