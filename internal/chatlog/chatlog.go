// Package chatlog keeps the saved practice transcripts for each user.
package chatlog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/kotowari/internal/store"
	"github.com/abhisek/kotowari/internal/transcript"
)

// ErrEmptyTranscript is returned when saving a transcript with no messages.
var ErrEmptyTranscript = errors.New("transcript is empty")

// Entry is one saved transcript.
type Entry struct {
	Timestamp time.Time            `json:"timestamp"`
	SessionID string               `json:"session_id"`
	Messages  []transcript.Message `json:"messages"`
}

// ShortID returns the last four characters of the session ID.
func (e Entry) ShortID() string {
	if len(e.SessionID) <= 4 {
		return e.SessionID
	}
	return e.SessionID[len(e.SessionID)-4:]
}

// document is the persisted form of a user's log.
type document struct {
	UserID   string  `json:"user_id"`
	Sessions []Entry `json:"sessions"`
}

var documentSchema = store.Schema{
	Name: "chat-log",
	Definition: map[string]any{
		"type":     "object",
		"required": []any{"sessions"},
		"properties": map[string]any{
			"user_id": map[string]any{"type": "string"},
			"sessions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":     "object",
					"required": []any{"timestamp", "session_id", "messages"},
					"properties": map[string]any{
						"timestamp":  map[string]any{"type": "string"},
						"session_id": map[string]any{"type": "string"},
						"messages": map[string]any{
							"type": "array",
							"items": map[string]any{
								"type":     "object",
								"required": []any{"role", "content"},
								"properties": map[string]any{
									"role":          map[string]any{"enum": []any{"user", "assistant"}},
									"content":       map[string]any{"type": "string"},
									"instructional": map[string]any{"type": "boolean"},
								},
							},
						},
					},
				},
			},
		},
	},
}

// Log stores chat log entries in a blob store, one blob per user.
type Log struct {
	blobs  store.BlobStore
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// New creates a Log over blobs.
func New(blobs store.BlobStore, logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{
		blobs:  blobs,
		logger: logger,
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
}

// List returns the saved entries for userID, oldest first. A missing or
// corrupt log reads as empty.
func (l *Log) List(ctx context.Context, userID string) []Entry {
	return l.load(ctx, userID).Sessions
}

// Find returns the entry with sessionID.
func (l *Log) Find(ctx context.Context, userID, sessionID string) (Entry, bool) {
	for _, e := range l.List(ctx, userID) {
		if e.SessionID == sessionID {
			return e, true
		}
	}
	return Entry{}, false
}

// Append saves messages as a new entry with a fresh session ID and the
// current time.
func (l *Log) Append(ctx context.Context, userID string, messages []transcript.Message) (Entry, error) {
	if len(messages) == 0 {
		return Entry{}, ErrEmptyTranscript
	}

	doc := l.load(ctx, userID)
	entry := Entry{
		Timestamp: l.now().UTC(),
		SessionID: l.newID(),
		Messages:  transcript.Clone(messages),
	}
	doc.Sessions = append(doc.Sessions, entry)

	if err := l.save(ctx, userID, doc); err != nil {
		return Entry{}, fmt.Errorf("append chat log: %w", err)
	}
	l.logger.Info("transcript saved",
		zap.String("user", userID),
		zap.String("session_id", entry.SessionID),
		zap.Int("messages", len(messages)))
	return entry, nil
}

// Delete removes the entry with sessionID. It reports whether an entry
// was removed; other entries are left untouched. Removing the last entry
// drops the user's log altogether.
func (l *Log) Delete(ctx context.Context, userID, sessionID string) (bool, error) {
	doc := l.load(ctx, userID)

	kept := make([]Entry, 0, len(doc.Sessions))
	for _, e := range doc.Sessions {
		if e.SessionID != sessionID {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(doc.Sessions) {
		return false, nil
	}
	doc.Sessions = kept

	var err error
	if len(kept) == 0 {
		err = l.blobs.Delete(ctx, store.NamespaceChatLog, userID)
	} else {
		err = l.save(ctx, userID, doc)
	}
	if err != nil {
		return false, fmt.Errorf("delete chat log entry: %w", err)
	}
	l.logger.Info("transcript deleted",
		zap.String("user", userID), zap.String("session_id", sessionID))
	return true, nil
}

func (l *Log) load(ctx context.Context, userID string) document {
	doc := document{UserID: userID}

	raw, err := l.blobs.Get(ctx, store.NamespaceChatLog, userID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			l.logger.Warn("chat log unreadable, treating as empty",
				zap.String("user", userID), zap.Error(err))
		}
		return doc
	}
	if err := store.Validate(documentSchema, raw); err != nil {
		l.logger.Warn("chat log corrupt, treating as empty",
			zap.String("user", userID), zap.Error(err))
		return doc
	}
	var stored document
	if err := json.Unmarshal(raw, &stored); err != nil {
		l.logger.Warn("chat log corrupt, treating as empty",
			zap.String("user", userID), zap.Error(err))
		return doc
	}
	doc.Sessions = stored.Sessions
	return doc
}

func (l *Log) save(ctx context.Context, userID string, doc document) error {
	doc.UserID = userID
	if doc.Sessions == nil {
		doc.Sessions = []Entry{}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return &store.WriteError{Namespace: store.NamespaceChatLog, Key: userID, Err: err}
	}
	return l.blobs.Put(ctx, store.NamespaceChatLog, userID, data)
}
