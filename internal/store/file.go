package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"

	"github.com/moby/sys/atomicwriter"
)

// FileBlobStore keeps one JSON file per key under <root>/<namespace>/.
// Writes go to a temporary file that atomically replaces the target.
type FileBlobStore struct {
	root string
}

var _ BlobStore = (*FileBlobStore)(nil)

// NewFileBlobStore creates a FileBlobStore rooted at dir.
func NewFileBlobStore(dir string) (*FileBlobStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &FileBlobStore{root: dir}, nil
}

// Root returns the directory the store writes to.
func (f *FileBlobStore) Root() string {
	return f.root
}

func (f *FileBlobStore) Get(_ context.Context, namespace, key string) ([]byte, error) {
	data, err := os.ReadFile(f.path(namespace, key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read blob %s/%s: %w", namespace, key, err)
	}
	return data, nil
}

func (f *FileBlobStore) Put(_ context.Context, namespace, key string, data []byte) error {
	p := f.path(namespace, key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return &WriteError{Namespace: namespace, Key: key, Err: err}
	}
	if err := atomicwriter.WriteFile(p, data, 0o644); err != nil {
		return &WriteError{Namespace: namespace, Key: key, Err: err}
	}
	return nil
}

func (f *FileBlobStore) Delete(_ context.Context, namespace, key string) error {
	err := os.Remove(f.path(namespace, key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &WriteError{Namespace: namespace, Key: key, Err: err}
	}
	return nil
}

// path escapes key so free-text user identifiers stay inside the namespace dir.
func (f *FileBlobStore) path(namespace, key string) string {
	return filepath.Join(f.root, namespace, url.PathEscape(key)+".json")
}
