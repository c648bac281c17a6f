package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveStreamAndPath(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	name, err := store.SaveStream("roster.csv", strings.NewReader("a,b\n1,2\n"))
	require.NoError(t, err)
	assert.Equal(t, "roster.csv", name)

	data, err := os.ReadFile(store.Path("roster.csv"))
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(data))
}

func TestLocalStorageDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	_, err = store.SaveStream("roster.csv", strings.NewReader("x"))
	require.NoError(t, err)

	require.NoError(t, store.Delete("roster.csv"))
	_, err = os.Stat(filepath.Join(dir, "roster.csv"))
	assert.True(t, os.IsNotExist(err))

	// Deleting a missing file is not an error.
	assert.NoError(t, store.Delete("roster.csv"))
}

func TestLocalStorageCleanupOlderThan(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	_, err = store.SaveStream("fresh.csv", strings.NewReader("fresh"))
	require.NoError(t, err)
	_, err = store.SaveStream("stale.csv", strings.NewReader("stale"))
	require.NoError(t, err)

	old := time.Now().Add(-3 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "stale.csv"), old, old))

	removed, err := store.CleanupOlderThan(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"stale.csv"}, removed)

	_, err = os.Stat(filepath.Join(dir, "stale.csv"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "fresh.csv"))
	assert.NoError(t, err)
}
