package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openva-pipeline/vapipe/internal/fault"
)

const testKey = "correct-horse-battery-staple"

func newTestStore(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transfer.db")
	d, err := Create(path, testKey)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() }) //nolint:errcheck
	return d
}

// --- Open ---

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.db"), testKey)
	require.Error(t, err)
	assert.True(t, fault.IsMissingStore(err))
	assert.False(t, fault.IsBadKey(err))
}

func TestOpen_WrongKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transfer.db")
	d, err := Create(path, testKey)
	require.NoError(t, err)
	require.NoError(t, d.Close())

	_, err = Open(path, "not-the-key")
	require.Error(t, err)
	assert.True(t, fault.IsBadKey(err))
	assert.False(t, fault.IsMissingStore(err))
}

func TestOpen_NotADatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.db")
	require.NoError(t, os.WriteFile(path, []byte("this is not sqlite"), 0o600))

	_, err := Open(path, testKey)
	require.Error(t, err)
	assert.True(t, fault.IsBadKey(err))
}

func TestOpen_RightKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transfer.db")
	d, err := Create(path, testKey)
	require.NoError(t, err)
	require.NoError(t, d.Close())

	d, err = Open(path, testKey)
	require.NoError(t, err)
	defer d.Close()

	plain, err := d.open(mustSeal(t, d, []byte("round trip")))
	require.NoError(t, err)
	assert.Equal(t, "round trip", string(plain))
}

func TestCreate_RefusesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transfer.db")
	d, err := Create(path, testKey)
	require.NoError(t, err)
	require.NoError(t, d.Close())

	_, err = Create(path, testKey)
	require.Error(t, err)
}

func mustSeal(t *testing.T, d *DB, plain []byte) []byte {
	t.Helper()
	sealed, err := d.seal(plain)
	require.NoError(t, err)
	return sealed
}
