package platform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAtomicRenameReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	from := filepath.Join(dir, "install")
	to := filepath.Join(dir, "pkg")

	require.NoError(t, os.MkdirAll(from, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(from, "file.txt"), []byte("new"), 0o644))

	require.NoError(t, os.MkdirAll(to, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(to, "stale.txt"), []byte("old"), 0o644))

	require.NoError(t, AtomicRename(from, to))

	require.NoFileExists(t, filepath.Join(to, "stale.txt"))
	data, err := os.ReadFile(filepath.Join(to, "file.txt"))
	require.NoError(t, err)
	require.Equal(t, "new", string(data))
	require.False(t, FileExists(from))
}

func TestTouchAndFileExists(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "nested", "envy-complete")

	require.False(t, FileExists(p))
	require.NoError(t, TouchFile(p))
	require.True(t, FileExists(p))
}

func TestRemoveAllWithRetry(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "work")
	require.NoError(t, os.MkdirAll(filepath.Join(target, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "sub", "f"), []byte("x"), 0o644))

	require.NoError(t, RemoveAllWithRetry(target))
	require.False(t, FileExists(target))

	// Removing an already-absent path is not an error.
	require.NoError(t, RemoveAllWithRetry(target))
}

func TestExpandPathTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := ExpandPath("~/foo")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, "foo"), got)
}

func TestExpandPathEnvVar(t *testing.T) {
	t.Setenv("ENVY_TEST_VAR", "bar")

	got, err := ExpandPath("$ENVY_TEST_VAR/baz")
	require.NoError(t, err)
	require.Equal(t, "bar/baz", got)

	got, err = ExpandPath("${ENVY_TEST_VAR}/baz")
	require.NoError(t, err)
	require.Equal(t, "bar/baz", got)
}

func TestExpandPathUndefinedVarFails(t *testing.T) {
	_, err := ExpandPath("$ENVY_DEFINITELY_UNSET_VAR_XYZ")
	require.Error(t, err)
}

func TestDefaultCacheRootHonorsOverride(t *testing.T) {
	t.Setenv("ENVY_CACHE_ROOT", "/tmp/custom-envy-root")
	got, err := DefaultCacheRoot()
	require.NoError(t, err)
	require.Equal(t, "/tmp/custom-envy-root", got)
}
