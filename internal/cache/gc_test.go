package cache

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGCRemovesIncompleteEntry(t *testing.T) {
	c := New(t.TempDir())
	res, err := c.EnsurePkg("acme.tool@v1", "linux", "amd64", "abc123")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(res.Lock.FetchDir()+"/partial", []byte("x"), 0o644))
	// Simulate a crash: drop the lock without going through the normal
	// publish/cleanup protocol, leaving envy-complete absent.
	res.Lock.lock.Unlock()
	require.NoError(t, res.Lock.lock.Close())

	gcRes, err := c.GC()
	require.NoError(t, err)
	require.Equal(t, 1, gcRes.Scanned)
	require.Len(t, gcRes.Removed, 1)
	require.NoDirExists(t, c.EntryDir("acme.tool@v1", "linux", "amd64", "abc123"))
}

func TestGCSkipsCompleteEntry(t *testing.T) {
	c := New(t.TempDir())
	res, err := c.EnsurePkg("acme.tool@v1", "linux", "amd64", "abc123")
	require.NoError(t, err)
	res.Lock.MarkInstallComplete()
	require.NoError(t, res.Lock.Release())

	gcRes, err := c.GC()
	require.NoError(t, err)
	require.Empty(t, gcRes.Removed)
	require.DirExists(t, c.EntryDir("acme.tool@v1", "linux", "amd64", "abc123"))
}
