package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenClose(t *testing.T) {
	s := openTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestOpenDriver_Unknown(t *testing.T) {
	_, err := OpenDriver("mysql", "x")
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestMigrateCreatesTables(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, table := range []string{blobsTable, llmEventsTable, verdictEventsTable, sequenceTable} {
		var name string
		err := s.DB().QueryRowContext(ctx,
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, table)
		assert.Equal(t, table, name)
	}

	// Running the DDL again on an existing database is a no-op.
	require.NoError(t, s.migrate(ctx))
	_, err := newSequenceCounter(s.DB(), "sqlite3")
	require.NoError(t, err)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.BlobStore().Put(ctx, NamespaceProgress, "u1", []byte(`{"a":1}`)))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.BlobStore().Get(ctx, NamespaceProgress, "u1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(got))
}

func blobStoreContract(t *testing.T, bs BlobStore) {
	t.Helper()
	ctx := context.Background()

	_, err := bs.Get(ctx, NamespaceProgress, "nobody")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, bs.Put(ctx, NamespaceProgress, "u1", []byte("first")))
	require.NoError(t, bs.Put(ctx, NamespaceProgress, "u1", []byte("second")))

	got, err := bs.Get(ctx, NamespaceProgress, "u1")
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))

	// Namespaces are independent.
	_, err = bs.Get(ctx, NamespaceChatLog, "u1")
	require.ErrorIs(t, err, ErrNotFound)

	// Free-text keys round-trip.
	odd := "山田 太郎/../x"
	require.NoError(t, bs.Put(ctx, NamespaceChatLog, odd, []byte("odd")))
	got, err = bs.Get(ctx, NamespaceChatLog, odd)
	require.NoError(t, err)
	assert.Equal(t, "odd", string(got))

	require.NoError(t, bs.Delete(ctx, NamespaceProgress, "u1"))
	_, err = bs.Get(ctx, NamespaceProgress, "u1")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, bs.Delete(ctx, NamespaceProgress, "u1"), "deleting a missing key")
}

func TestSQLBlobStore(t *testing.T) {
	blobStoreContract(t, openTestStore(t).BlobStore())
}

func TestFileBlobStore(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileBlobStore(dir)
	require.NoError(t, err)
	blobStoreContract(t, fs)

	// Escaped keys never leave the namespace directory.
	entries, err := os.ReadDir(filepath.Join(dir, NamespaceChatLog))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileBlobStore_WriteFailure(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileBlobStore(dir)
	require.NoError(t, err)

	// A regular file where the namespace directory should be.
	require.NoError(t, os.WriteFile(filepath.Join(dir, NamespaceProgress), []byte("x"), 0o644))

	err = fs.Put(context.Background(), NamespaceProgress, "u1", []byte("data"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWriteFailed))

	var we *WriteError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, "u1", we.Key)
}

func TestSequenceMonotonic(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var last int64
	for i := 0; i < 5; i++ {
		n, err := s.seq.Next(ctx)
		require.NoError(t, err)
		assert.Greater(t, n, last)
		last = n
	}
}

func TestLLMEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	events := []LLMRequestEventData{
		{Provider: "mock", Model: "m1", Purpose: "opening", InputTokens: 10, OutputTokens: 5, LatencyMs: 100, Success: true, RequestBody: "req", ResponseBody: "resp"},
		{Provider: "mock", Model: "m1", Purpose: "reply", InputTokens: 20, OutputTokens: 10, LatencyMs: 300, Success: true},
		{Provider: "mock", Model: "m2", Purpose: "reply", LatencyMs: 50, Success: false, ErrorMessage: "boom"},
	}
	for _, e := range events {
		require.NoError(t, repo.AppendLLMRequest(ctx, e))
	}

	got, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "boom", got[0].ErrorMessage, "newest first")
	assert.False(t, got[0].Success)
	assert.WithinDuration(t, time.Now(), got[0].Timestamp, time.Minute)

	limited, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	one, err := repo.GetLLMEvent(ctx, got[2].ID)
	require.NoError(t, err)
	require.NotNil(t, one)
	assert.Equal(t, "req", one.RequestBody)
	assert.Equal(t, "resp", one.ResponseBody)

	missing, err := repo.GetLLMEvent(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	require.NoError(t, err)
	require.Len(t, byPurpose, 2)
	assert.Equal(t, "opening", byPurpose[0].Purpose)
	assert.Equal(t, "reply", byPurpose[1].Purpose)
	assert.Equal(t, 2, byPurpose[1].Calls)
	assert.Equal(t, 20, byPurpose[1].InputTokens)
	assert.Equal(t, int64(175), byPurpose[1].AvgLatencyMs)

	byModel, err := repo.LLMUsageByModel(ctx)
	require.NoError(t, err)
	require.Len(t, byModel, 1, "failed calls are excluded from cost")
	assert.Equal(t, "m1", byModel[0].Model)
	assert.Equal(t, 30, byModel[0].InputTokens)
}

func TestVerdictEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	require.NoError(t, repo.AppendVerdictEvent(ctx, VerdictEventData{UserID: "u1", ElementID: "E3", Verdict: "fail"}))
	require.NoError(t, repo.AppendVerdictEvent(ctx, VerdictEventData{UserID: "u1", ElementID: "E3", Verdict: "pass", NewlyPassed: true}))
	require.NoError(t, repo.AppendVerdictEvent(ctx, VerdictEventData{UserID: "u2", ElementID: "E1", Verdict: "pass", NewlyPassed: true}))

	got, err := repo.QueryVerdictEvents(ctx, "u1", QueryOpts{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "pass", got[0].Verdict)
	assert.True(t, got[0].NewlyPassed)
	assert.Equal(t, "fail", got[1].Verdict)

	after, err := repo.QueryVerdictEvents(ctx, "u1", QueryOpts{After: got[1].ID})
	require.NoError(t, err)
	assert.Len(t, after, 1)
}

func TestValidate(t *testing.T) {
	schema := Schema{
		Name: "test-record",
		Definition: map[string]any{
			"type":     "object",
			"required": []any{"name"},
			"properties": map[string]any{
				"name": map[string]any{"type": "string"},
			},
		},
	}

	assert.NoError(t, Validate(schema, []byte(`{"name":"x"}`)))
	assert.Error(t, Validate(schema, []byte(`{"name":1}`)))
	assert.Error(t, Validate(schema, []byte(`{}`)))
	assert.Error(t, Validate(schema, []byte(`not json`)))
}
