package tokenstore_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jerrywen2005/travel-journal/internal/tokenstore"
)

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal", "token")
	store := tokenstore.NewFileStore(path)

	got, err := store.Get()
	require.NoError(t, err)
	assert.Empty(t, got, "missing file reads as no token")

	require.NoError(t, store.Set("abc.def.ghi"))

	got, err = store.Get()
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", got)
}

func TestFileStore_Permissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions only")
	}

	path := filepath.Join(t.TempDir(), "token")
	store := tokenstore.NewFileStore(path)
	require.NoError(t, store.Set("secret"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStore_Remove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	store := tokenstore.NewFileStore(path)

	require.NoError(t, store.Remove(), "removing a missing token is fine")

	require.NoError(t, store.Set("secret"))
	require.NoError(t, store.Remove())

	got, err := store.Get()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryStore(t *testing.T) {
	store := tokenstore.NewMemoryStore()

	require.NoError(t, store.Set("tok"))
	got, err := store.Get()
	require.NoError(t, err)
	assert.Equal(t, "tok", got)

	require.NoError(t, store.Remove())
	got, err = store.Get()
	require.NoError(t, err)
	assert.Empty(t, got)
}
