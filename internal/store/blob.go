package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

const blobsTable = "blobs"

// Blob namespaces used by the application.
const (
	NamespaceProgress = "progress"
	NamespaceChatLog  = "chatlog"
)

// BlobStore is a key-value store of opaque blobs grouped by namespace.
// Put replaces the whole value for a key; readers never observe a
// partially written blob.
type BlobStore interface {
	// Get returns the blob for key, or ErrNotFound.
	Get(ctx context.Context, namespace, key string) ([]byte, error)

	// Put stores data under key, replacing any previous value.
	// Failures are reported as *WriteError.
	Put(ctx context.Context, namespace, key string, data []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, namespace, key string) error
}

// sqlBlobStore implements BlobStore on the blobs table.
type sqlBlobStore struct {
	db      *sql.DB
	dialect string
}

func (r *sqlBlobStore) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	b := entsql.Dialect(r.dialect)
	query, args := b.Select("data").
		From(b.Table(blobsTable)).
		Where(entsql.And(
			entsql.EQ("namespace", namespace),
			entsql.EQ("key", key),
		)).
		Query()

	var data string
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query blob %s/%s: %w", namespace, key, err)
	}
	return []byte(data), nil
}

func (r *sqlBlobStore) Put(ctx context.Context, namespace, key string, data []byte) error {
	query, args := entsql.Dialect(r.dialect).
		Insert(blobsTable).
		Columns("namespace", "key", "data", "updated_at").
		Values(namespace, key, string(data), formatTime(time.Now())).
		OnConflict(
			entsql.ConflictColumns("namespace", "key"),
			entsql.ResolveWithNewValues(),
		).
		Query()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return &WriteError{Namespace: namespace, Key: key, Err: err}
	}
	return nil
}

func (r *sqlBlobStore) Delete(ctx context.Context, namespace, key string) error {
	query, args := entsql.Dialect(r.dialect).
		Delete(blobsTable).
		Where(entsql.And(
			entsql.EQ("namespace", namespace),
			entsql.EQ("key", key),
		)).
		Query()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return &WriteError{Namespace: namespace, Key: key, Err: err}
	}
	return nil
}
