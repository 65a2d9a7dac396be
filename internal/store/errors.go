package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by BlobStore.Get when no blob exists for a key.
var ErrNotFound = errors.New("blob not found")

// ErrWriteFailed matches any *WriteError via errors.Is.
var ErrWriteFailed = errors.New("persistence write failed")

// WriteError indicates a blob could not be persisted. In-memory state
// built on the failed write must not be assumed durable.
type WriteError struct {
	Namespace string
	Key       string
	Err       error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s/%s: %v", e.Namespace, e.Key, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Is reports ErrWriteFailed as a match so callers need not know the type.
func (e *WriteError) Is(target error) bool { return target == ErrWriteFailed }
