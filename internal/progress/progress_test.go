package progress

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/abhisek/kotowari/internal/store"
	"github.com/abhisek/kotowari/internal/training"
)

// memBlobs is an in-memory BlobStore with switchable write failure.
type memBlobs struct {
	data    map[string][]byte
	failPut bool
	puts    int
}

func newMemBlobs() *memBlobs { return &memBlobs{data: map[string][]byte{}} }

func (m *memBlobs) Get(_ context.Context, ns, key string) ([]byte, error) {
	v, ok := m.data[ns+"/"+key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return v, nil
}

func (m *memBlobs) Put(_ context.Context, ns, key string, data []byte) error {
	if m.failPut {
		return &store.WriteError{Namespace: ns, Key: key, Err: errors.New("disk full")}
	}
	m.puts++
	m.data[ns+"/"+key] = append([]byte(nil), data...)
	return nil
}

func (m *memBlobs) Delete(_ context.Context, ns, key string) error {
	delete(m.data, ns+"/"+key)
	return nil
}

func newTestStore(t *testing.T) (*Store, *memBlobs) {
	t.Helper()
	blobs := newMemBlobs()
	return NewStore(blobs, training.Elements(), zap.NewNop()), blobs
}

func TestLoad_FreshUserAllFalse(t *testing.T) {
	s, _ := newTestStore(t)
	rec := s.Load(context.Background(), "u1")

	assert.Equal(t, "u1", rec.UserID)
	require.Len(t, rec.Elements, 6)
	for _, id := range training.Elements().IDs() {
		assert.False(t, rec.Passed(id), id)
	}
	assert.Equal(t, 0, rec.PassedCount(training.Elements()))
}

func TestLoad_CorruptFallsBackToDefaults(t *testing.T) {
	tests := []struct {
		name string
		blob string
	}{
		{"not json", `{{{`},
		{"wrong type", `{"elements": {"E1": "yes"}}`},
		{"missing elements", `{"user_id": "u1"}`},
		{"array", `[true, false]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.WarnLevel)
			blobs := newMemBlobs()
			blobs.data[store.NamespaceProgress+"/u1"] = []byte(tt.blob)
			s := NewStore(blobs, training.Elements(), zap.New(core))

			rec := s.Load(context.Background(), "u1")
			assert.Equal(t, 0, rec.PassedCount(training.Elements()))
			assert.Len(t, rec.Elements, 6)
			assert.Equal(t, 1, logs.Len(), "corruption should be logged")
		})
	}
}

func TestLoad_PartialMerged(t *testing.T) {
	s, blobs := newTestStore(t)
	blobs.data[store.NamespaceProgress+"/u1"] = []byte(`{"user_id":"u1","elements":{"E1":true,"E2":false,"E9":true}}`)

	rec := s.Load(context.Background(), "u1")
	assert.True(t, rec.Passed("E1"))
	assert.False(t, rec.Passed("E2"))
	assert.False(t, rec.Passed("E6"), "missing keys default to false")
	assert.True(t, rec.Elements["E9"], "unknown keys are preserved")
	assert.Equal(t, 1, rec.PassedCount(training.Elements()), "unknown keys never count")
}

func TestSave_Idempotent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	rec := Empty("u1", training.Elements())
	rec.Elements["E4"] = true

	require.NoError(t, s.Save(ctx, "u1", rec))
	once := s.Load(ctx, "u1")
	require.NoError(t, s.Save(ctx, "u1", rec))
	twice := s.Load(ctx, "u1")

	assert.Equal(t, once, twice)
	assert.True(t, twice.Passed("E4"))
}

func TestSave_FailureIsWriteError(t *testing.T) {
	s, blobs := newTestStore(t)
	blobs.failPut = true

	err := s.Save(context.Background(), "u1", Empty("u1", training.Elements()))
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrWriteFailed))
}

func TestMarkPassed_Monotonic(t *testing.T) {
	s, blobs := newTestStore(t)
	ctx := context.Background()

	rec := s.Load(ctx, "u1")
	rec, changed, err := s.MarkPassed(ctx, "u1", rec, "E3")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, rec.Passed("E3"))
	assert.True(t, s.Load(ctx, "u1").Passed("E3"))
	assert.Equal(t, 1, blobs.puts)

	rec, changed, err = s.MarkPassed(ctx, "u1", rec, "E3")
	require.NoError(t, err)
	assert.False(t, changed, "already passed")
	assert.True(t, rec.Passed("E3"))
	assert.Equal(t, 1, blobs.puts, "no write for an unchanged record")
}

func TestMarkPassed_DoesNotMutateInput(t *testing.T) {
	s, _ := newTestStore(t)
	in := Empty("u1", training.Elements())

	out, _, err := s.MarkPassed(context.Background(), "u1", in, "E1")
	require.NoError(t, err)
	assert.False(t, in.Passed("E1"))
	assert.True(t, out.Passed("E1"))
}

func TestMarkPassed_UnknownElement(t *testing.T) {
	s, _ := newTestStore(t)
	_, changed, err := s.MarkPassed(context.Background(), "u1", Empty("u1", training.Elements()), "E7")
	require.Error(t, err)
	assert.False(t, changed)
}

func TestMarkPassed_SaveFailureKeepsPassInMemory(t *testing.T) {
	s, blobs := newTestStore(t)
	blobs.failPut = true

	rec, changed, err := s.MarkPassed(context.Background(), "u1", Empty("u1", training.Elements()), "E2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrWriteFailed))
	assert.True(t, changed)
	assert.True(t, rec.Passed("E2"))
}

func TestReset(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	rec := s.Load(ctx, "u1")
	for _, id := range training.Elements().IDs() {
		var err error
		rec, _, err = s.MarkPassed(ctx, "u1", rec, id)
		require.NoError(t, err)
	}
	require.Equal(t, 6, s.Load(ctx, "u1").PassedCount(training.Elements()))

	rec, err := s.Reset(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, rec.PassedCount(training.Elements()))
	assert.Equal(t, 0, s.Load(ctx, "u1").PassedCount(training.Elements()))
}

func TestStore_OverSQLBackend(t *testing.T) {
	db, err := store.Open(t.TempDir() + "/progress.db")
	require.NoError(t, err)
	defer db.Close()

	s := NewStore(db.BlobStore(), training.Elements(), nil)
	ctx := context.Background()

	rec, _, err := s.MarkPassed(ctx, "山田", s.Load(ctx, "山田"), "E5")
	require.NoError(t, err)
	assert.Equal(t, rec, s.Load(ctx, "山田"))
}
