package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) (*SQLiteStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "resellz.db")
	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	return s, path
}

func TestSQLiteStore_GetSet(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSQLiteStore(t)
	defer s.Close()

	_, ok, err := s.Get(ctx, KeyItems)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, KeyItems, []byte(`[1]`)))
	require.NoError(t, s.Set(ctx, KeyItems, []byte(`[1,2]`)))

	got, ok, err := s.Get(ctx, KeyItems)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[1,2]`, string(got))
}

func TestSQLiteStore_SetManyAndReopen(t *testing.T) {
	ctx := context.Background()
	s, path := newTestSQLiteStore(t)

	want := Snapshot{
		Items:   []byte(`[{"id":"a"}]`),
		Sales:   []byte(`[]`),
		History: []byte(`[{"id":"h1"}]`),
	}
	require.NoError(t, SaveSnapshot(ctx, s, want))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, path, reopened.Path())

	got, err := LoadSnapshot(ctx, reopened)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	var rows int
	require.NoError(t, reopened.DB().QueryRow(`SELECT COUNT(*) FROM state`).Scan(&rows))
	assert.Equal(t, 3, rows)
}

func TestSQLiteStore_ClosedFails(t *testing.T) {
	s, _ := newTestSQLiteStore(t)
	require.NoError(t, s.Close())

	assert.Error(t, s.Set(context.Background(), "k", []byte("v")))
}
