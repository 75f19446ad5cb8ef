package cache

import (
	"path/filepath"

	"github.com/wharflab/envy/internal/envyerr"
	"github.com/wharflab/envy/internal/platform"
)

// GCResult summarizes one GC pass over a cache root.
type GCResult struct {
	Scanned int
	Removed []string
	Skipped []string // entries still locked by another process
}

// GC removes incomplete entry directories left behind by a crashed
// process — any packages/ or recipes/ entry missing its "envy-complete"
// marker, skipping entries another process currently holds the lock for
// (§4.5.3's cleanup path only runs when the owning process is still alive
// to call Release; GC is the out-of-band equivalent for ones that never
// got the chance).
func (c *Cache) GC() (GCResult, error) {
	var result GCResult
	if err := c.gcRoot(c.PackagesDir(), "packages.", &result); err != nil {
		return result, err
	}
	if err := c.gcRoot(c.RecipesDir(), "packages.recipes.", &result); err != nil {
		return result, err
	}
	return result, nil
}

func (c *Cache) gcRoot(root, lockPrefix string, result *GCResult) error {
	entries, err := readDirNames(root)
	if err != nil {
		return &envyerr.IOError{Op: "readdir", Path: root, Err: err}
	}

	for _, de := range entries {
		if !de.IsDir() {
			continue
		}
		result.Scanned++
		dir := filepath.Join(root, de.Name())
		entry := Entry{Dir: dir}
		if platform.FileExists(entry.Complete()) {
			continue
		}

		lockPath := filepath.Join(c.LocksDir(), lockPrefix+de.Name()+".lock")
		locked, err := isLocked(lockPath)
		if err != nil {
			return err
		}
		if locked {
			result.Skipped = append(result.Skipped, dir)
			continue
		}

		if err := platform.RemoveAllWithRetry(dir); err != nil {
			return err
		}
		result.Removed = append(result.Removed, dir)
	}
	return nil
}

// isLocked reports whether lockPath is currently held by trying to
// acquire it without blocking.
func isLocked(lockPath string) (bool, error) {
	fl, err := platform.NewFileLock(lockPath)
	if err != nil {
		return false, err
	}
	defer fl.Close()

	if err := fl.TryLock(); err != nil {
		if err == platform.ErrLocked {
			return true, nil
		}
		return false, err
	}
	fl.Unlock()
	return false, nil
}
