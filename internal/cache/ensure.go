package cache

import (
	"os"

	"github.com/wharflab/envy/internal/envyerr"
	"github.com/wharflab/envy/internal/platform"
)

// EnsureResult is returned by EnsurePkg (§4.5.2).
type EnsureResult struct {
	PkgPath        string
	Lock           *ScopedLock // nil on the fast path
	AlreadyCached  bool
}

// EnsurePkg implements the fast-path/slow-path protocol in §4.5.2 for a
// package entry. Platform/arch/hashPrefix together with key form the
// directory name (§3.3).
func (c *Cache) EnsurePkg(key, platformName, arch, hashPrefix string) (EnsureResult, error) {
	return c.ensure(c.EntryDir(key, platformName, arch, hashPrefix), c.LockPath(key, platformName, arch, hashPrefix))
}

// EnsureRecipe is the parallel protocol for recipes/ entries (§4.5.1).
func (c *Cache) EnsureRecipe(key, platformName, arch, hashPrefix string) (EnsureResult, error) {
	dir := c.RecipeEntryDir(key, platformName, arch, hashPrefix)
	lockPath := c.LockPath("recipes."+key, platformName, arch, hashPrefix)
	return c.ensure(dir, lockPath)
}

func (c *Cache) ensure(entryDir, lockPath string) (EnsureResult, error) {
	e := Entry{Dir: entryDir}

	// Fast path: no lock needed at all.
	if platform.FileExists(e.Complete()) {
		return EnsureResult{PkgPath: e.Pkg(), AlreadyCached: true}, nil
	}

	fl, err := platform.NewFileLock(lockPath)
	if err != nil {
		return EnsureResult{}, err
	}
	if err := fl.Lock(); err != nil {
		return EnsureResult{}, err
	}

	// Re-check after acquiring the lock: another process/thread may have
	// published between our fast-path check and the lock acquisition.
	if platform.FileExists(e.Complete()) {
		fl.Unlock()
		_ = fl.Close()
		return EnsureResult{PkgPath: e.Pkg(), AlreadyCached: true}, nil
	}

	// pkg/ may be leftover from a prior failed publish; work/ is always
	// ephemeral. fetch/ is deliberately preserved to reuse downloads
	// across retries.
	if err := platform.RemoveAllWithRetry(e.Pkg()); err != nil {
		fl.Unlock()
		_ = fl.Close()
		return EnsureResult{}, err
	}
	if err := platform.RemoveAllWithRetry(e.Work()); err != nil {
		fl.Unlock()
		_ = fl.Close()
		return EnsureResult{}, err
	}

	for _, dir := range []string{e.Fetch(), e.Stage(), e.Work(), e.Install()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fl.Unlock()
			_ = fl.Close()
			return EnsureResult{}, &envyerr.IOError{Op: "mkdir", Path: dir, Err: err}
		}
	}

	return EnsureResult{PkgPath: e.Pkg(), Lock: newScopedLock(e, fl), AlreadyCached: false}, nil
}
