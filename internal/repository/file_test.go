package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_LoadMissing(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "stats.json"))

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestFileStore_SaveLoad(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "nested", "stats.json"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, []byte(`{"version":2}`)))
	require.NoError(t, store.Save(ctx, []byte(`{"version":2,"users":{}}`)))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":2,"users":{}}`, string(got))

	// No temp files left behind
	entries, err := os.ReadDir(filepath.Join(dir, "nested"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileStore_Ping(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, NewFileStore(filepath.Join(dir, "stats.json")).Ping(context.Background()))
	assert.Error(t, NewFileStore(filepath.Join(dir, "missing", "stats.json")).Ping(context.Background()))
}
