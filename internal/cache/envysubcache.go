package cache

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wharflab/envy/internal/envyerr"
	"github.com/wharflab/envy/internal/platform"
)

// EnsureEnvy works the same way as EnsurePkg but against envy/<version>/
// (§4.5.4): the caller populates the binary and type-definitions file, then
// publishes through the returned lock to atomically mark the version
// usable, and calls PublishEnvyVersion to update "latest".
func (c *Cache) EnsureEnvy(version string) (EnsureResult, error) {
	dir := filepath.Join(c.EnvyDir(), version)
	lockPath := filepath.Join(c.LocksDir(), "envy."+version+".lock")
	return c.ensure(dir, lockPath)
}

// PublishEnvyVersion compares version against the current "latest" file
// (if any) and overwrites it if version is newer, using VersionNewer's
// semver-like compare. It is safe to call unconditionally after any
// successful EnsureEnvy publish.
func (c *Cache) PublishEnvyVersion(version string) error {
	latestPath := filepath.Join(c.EnvyDir(), "latest")
	cur, err := os.ReadFile(latestPath)
	if err != nil && !os.IsNotExist(err) {
		return &envyerr.IOError{Op: "read_latest", Path: latestPath, Err: err}
	}
	curVersion := strings.TrimSpace(string(cur))
	if curVersion != "" && !VersionNewer(version, curVersion) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(latestPath), 0o755); err != nil {
		return &envyerr.IOError{Op: "mkdir", Path: filepath.Dir(latestPath), Err: err}
	}
	tmp := latestPath + ".tmp"
	if err := os.WriteFile(tmp, []byte(version), 0o644); err != nil {
		return &envyerr.IOError{Op: "write_latest", Path: tmp, Err: err}
	}
	return platform.AtomicRename(tmp, latestPath)
}

// VersionNewer reports whether a is newer than b, using a semver-like
// compare where a pre-release suffix (anything after '-') sorts lower than
// the same release without one (§4.5.4).
func VersionNewer(a, b string) bool {
	av, apre := splitVersion(a)
	bv, bpre := splitVersion(b)

	n := len(av)
	if len(bv) > n {
		n = len(bv)
	}
	for i := 0; i < n; i++ {
		var x, y int
		if i < len(av) {
			x = av[i]
		}
		if i < len(bv) {
			y = bv[i]
		}
		if x != y {
			return x > y
		}
	}
	if apre == bpre {
		return false
	}
	if apre == "" {
		return true // release beats pre-release at equal numeric version
	}
	if bpre == "" {
		return false
	}
	return apre > bpre
}

func splitVersion(v string) ([]int, string) {
	v = strings.TrimPrefix(v, "v")
	core := v
	pre := ""
	if idx := strings.IndexByte(v, '-'); idx >= 0 {
		core = v[:idx]
		pre = v[idx+1:]
	}
	parts := strings.Split(core, ".")
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			n = 0
		}
		nums[i] = n
	}
	return nums, pre
}
