package filex

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDir_CreatesNested(t *testing.T) {
	base := t.TempDir()
	dir, err := EnsureDir(filepath.Join(base, "a", "b"))
	require.NoError(t, err)

	st, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, st.IsDir())

	// second call is a no-op
	_, err = EnsureDir(dir)
	require.NoError(t, err)
}

func TestCreateExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	require.NoError(t, CreateExclusive(path, []byte("abc"), 0o600))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)

	err = CreateExclusive(path, []byte("def"), 0o600)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrExist))

	got, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got, "existing file must be untouched")
}

func TestWriteFileAtomic_ReplacesContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "backup.json")

	require.NoError(t, WriteFileAtomic(path, []byte("one"), 0o600))
	require.NoError(t, WriteFileAtomic(path, []byte("two"), 0o600))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestWriteFileAtomic_MissingDir(t *testing.T) {
	err := WriteFileAtomic(filepath.Join(t.TempDir(), "nope", "x"), []byte("x"), 0o600)
	require.Error(t, err)
}
