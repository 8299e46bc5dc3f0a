package mirror

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// openTestStore opens a store backed by a file in a per-test temp directory.
func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "mirror.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestOpen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "mirror.db")

	store, err := Open(path)
	require.NoError(t, err)
	require.NotNil(t, store.DB())
	require.NoError(t, store.Close())

	// Reopening an existing database is safe; schema application is idempotent.
	store, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())
}

func TestOpen_BadPath(t *testing.T) {
	t.Parallel()

	store, err := Open(filepath.Join(t.TempDir(), "missing", "nested", "mirror.db"))
	require.Error(t, err)
	require.Nil(t, store)
}

func TestClose_NilDB(t *testing.T) {
	t.Parallel()

	var store Store
	require.NoError(t, store.Close())
}
