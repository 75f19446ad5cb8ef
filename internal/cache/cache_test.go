package cache

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsurePkgColdFetchInstallPublish(t *testing.T) {
	c := New(t.TempDir())

	res, err := c.EnsurePkg("acme.tool@v1", "linux", "amd64", "abc123")
	require.NoError(t, err)
	require.False(t, res.AlreadyCached)
	require.NotNil(t, res.Lock)

	require.NoError(t, os.WriteFile(filepath.Join(res.Lock.InstallDir(), "bin"), []byte("x"), 0o644))
	res.Lock.MarkInstallComplete()
	require.NoError(t, res.Lock.Release())

	require.FileExists(t, filepath.Join(res.PkgPath, "bin"))
	entryDir := c.EntryDir("acme.tool@v1", "linux", "amd64", "abc123")
	require.FileExists(t, filepath.Join(entryDir, "envy-complete"))
	require.NoDirExists(t, filepath.Join(entryDir, "fetch"))
	require.NoDirExists(t, filepath.Join(entryDir, "work"))
	require.NoDirExists(t, filepath.Join(entryDir, "install"))
}

func TestEnsurePkgWarmHitNoLockNoMutation(t *testing.T) {
	c := New(t.TempDir())
	res, err := c.EnsurePkg("acme.tool@v1", "linux", "amd64", "abc123")
	require.NoError(t, err)
	res.Lock.MarkInstallComplete()
	require.NoError(t, res.Lock.Release())

	entryDir := c.EntryDir("acme.tool@v1", "linux", "amd64", "abc123")
	before, err := os.Stat(entryDir)
	require.NoError(t, err)

	res2, err := c.EnsurePkg("acme.tool@v1", "linux", "amd64", "abc123")
	require.NoError(t, err)
	require.True(t, res2.AlreadyCached)
	require.Nil(t, res2.Lock)

	after, err := os.Stat(entryDir)
	require.NoError(t, err)
	require.Equal(t, before.ModTime(), after.ModTime())
}

func TestEnsurePkgPreservesFetchOnFailureWhenPopulated(t *testing.T) {
	c := New(t.TempDir())
	res, err := c.EnsurePkg("acme.tool@v1", "linux", "amd64", "abc123")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(res.Lock.FetchDir(), "download.tar"), []byte("x"), 0o644))
	// Install never marked complete: simulate a build failure.
	require.NoError(t, res.Lock.Release())

	entryDir := c.EntryDir("acme.tool@v1", "linux", "amd64", "abc123")
	require.FileExists(t, filepath.Join(entryDir, "fetch", "download.tar"))
	require.NoFileExists(t, filepath.Join(entryDir, "envy-complete"))
	require.NoDirExists(t, filepath.Join(entryDir, "install"))
}

func TestEnsurePkgCleansNoOpEntryOnTotalFailure(t *testing.T) {
	c := New(t.TempDir())
	res, err := c.EnsurePkg("acme.tool@v1", "linux", "amd64", "abc123")
	require.NoError(t, err)
	// Nothing fetched, nothing installed: entry should vanish entirely.
	require.NoError(t, res.Lock.Release())

	entryDir := c.EntryDir("acme.tool@v1", "linux", "amd64", "abc123")
	require.NoDirExists(t, entryDir)
}

func TestEnsurePkgUserManagedRemovesEntry(t *testing.T) {
	c := New(t.TempDir())
	res, err := c.EnsurePkg("acme.tool@v1", "linux", "amd64", "abc123")
	require.NoError(t, err)
	res.Lock.MarkUserManaged()
	require.NoError(t, res.Lock.Release())

	entryDir := c.EntryDir("acme.tool@v1", "linux", "amd64", "abc123")
	require.NoDirExists(t, entryDir)
}

func TestEnsurePkgConcurrentColdFetchOnlyOneWins(t *testing.T) {
	c := New(t.TempDir())
	const n = 6
	var coldCount int32
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			res, err := c.EnsurePkg("acme.tool@v1", "linux", "amd64", "abc123")
			require.NoError(t, err)
			if !res.AlreadyCached {
				atomic.AddInt32(&coldCount, 1)
				require.NoError(t, os.WriteFile(filepath.Join(res.Lock.InstallDir(), "bin"), []byte("x"), 0o644))
				res.Lock.MarkInstallComplete()
				require.NoError(t, res.Lock.Release())
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), atomic.LoadInt32(&coldCount))

	res, err := c.EnsurePkg("acme.tool@v1", "linux", "amd64", "abc123")
	require.NoError(t, err)
	require.True(t, res.AlreadyCached)
}

func TestEntryDirNaming(t *testing.T) {
	c := New("/root/cache")
	got := c.EntryDir("acme.tool@v1{opt=1}", "linux", "amd64", "0123456789abcdef")
	require.Equal(t, "/root/cache/packages/acme.tool@v1{opt=1}-linux-amd64-blake3-0123456789abcdef", got)
}
