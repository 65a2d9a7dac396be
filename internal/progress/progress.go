// Package progress persists per-user pass/fail state for the training
// elements.
package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhisek/kotowari/internal/store"
	"github.com/abhisek/kotowari/internal/training"
)

// Record maps element IDs to their passed flag for one user.
type Record struct {
	UserID   string          `json:"user_id"`
	Elements map[string]bool `json:"elements"`
}

// Passed reports whether id has been passed.
func (r Record) Passed(id string) bool {
	return r.Elements[id]
}

// PassedCount returns how many of the given elements are passed.
func (r Record) PassedCount(set training.Set) int {
	n := 0
	for _, e := range set {
		if r.Elements[e.ID] {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	out := Record{UserID: r.UserID, Elements: make(map[string]bool, len(r.Elements))}
	for k, v := range r.Elements {
		out.Elements[k] = v
	}
	return out
}

// Empty returns an all-false record for every element in set.
func Empty(userID string, set training.Set) Record {
	rec := Record{UserID: userID, Elements: make(map[string]bool, len(set))}
	for _, e := range set {
		rec.Elements[e.ID] = false
	}
	return rec
}

// recordSchema validates persisted progress blobs.
var recordSchema = store.Schema{
	Name: "progress-record",
	Definition: map[string]any{
		"type":     "object",
		"required": []any{"elements"},
		"properties": map[string]any{
			"user_id": map[string]any{"type": "string"},
			"elements": map[string]any{
				"type":                 "object",
				"additionalProperties": map[string]any{"type": "boolean"},
			},
		},
	},
}

// Store loads and saves progress records in a blob store.
type Store struct {
	blobs    store.BlobStore
	elements training.Set
	logger   *zap.Logger
}

// NewStore creates a progress Store over blobs for the given element set.
func NewStore(blobs store.BlobStore, elements training.Set, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{blobs: blobs, elements: elements, logger: logger}
}

// Elements returns the element set records are merged against.
func (s *Store) Elements() training.Set { return s.elements }

// Load returns the record for userID. A missing, unreadable or malformed
// blob yields an all-false record; read problems are logged, never
// returned. Elements missing from the stored blob default to false.
func (s *Store) Load(ctx context.Context, userID string) Record {
	rec := Empty(userID, s.elements)

	raw, err := s.blobs.Get(ctx, store.NamespaceProgress, userID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("progress unreadable, using defaults",
				zap.String("user", userID), zap.Error(err))
		}
		return rec
	}

	if err := store.Validate(recordSchema, raw); err != nil {
		s.logger.Warn("progress corrupt, using defaults",
			zap.String("user", userID), zap.Error(err))
		return rec
	}

	var stored Record
	if err := json.Unmarshal(raw, &stored); err != nil {
		s.logger.Warn("progress corrupt, using defaults",
			zap.String("user", userID), zap.Error(err))
		return rec
	}

	// Unknown IDs are kept so a later save does not drop them.
	for id, passed := range stored.Elements {
		rec.Elements[id] = passed
	}
	return rec
}

// Save overwrites the persisted record for userID. Failures are returned
// as *store.WriteError.
func (s *Store) Save(ctx context.Context, userID string, rec Record) error {
	rec.UserID = userID
	if rec.Elements == nil {
		rec.Elements = map[string]bool{}
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return &store.WriteError{Namespace: store.NamespaceProgress, Key: userID, Err: err}
	}
	if err := s.blobs.Put(ctx, store.NamespaceProgress, userID, data); err != nil {
		var we *store.WriteError
		if errors.As(err, &we) {
			return err
		}
		return &store.WriteError{Namespace: store.NamespaceProgress, Key: userID, Err: err}
	}
	return nil
}

// Reset clears every flag for userID and persists the all-false record.
// The returned record is valid even when the save fails.
func (s *Store) Reset(ctx context.Context, userID string) (Record, error) {
	rec := Empty(userID, s.elements)
	if err := s.Save(ctx, userID, rec); err != nil {
		return rec, fmt.Errorf("reset progress: %w", err)
	}
	s.logger.Info("progress reset", zap.String("user", userID))
	return rec, nil
}

// MarkPassed flips elementID to passed in rec and persists the result.
// It reports whether the flag changed. An element that is already passed
// is left alone and nothing is written. The returned record carries the
// pass even when the save fails, so callers can keep it in memory while
// reporting the failure.
func (s *Store) MarkPassed(ctx context.Context, userID string, rec Record, elementID string) (Record, bool, error) {
	if !s.elements.Contains(elementID) {
		return rec, false, fmt.Errorf("unknown element %q", elementID)
	}
	if rec.Passed(elementID) {
		return rec, false, nil
	}

	next := rec.Clone()
	next.UserID = userID
	next.Elements[elementID] = true

	if err := s.Save(ctx, userID, next); err != nil {
		return next, true, fmt.Errorf("save pass for %s: %w", elementID, err)
	}
	s.logger.Info("element passed",
		zap.String("user", userID), zap.String("element", elementID))
	return next, true, nil
}
