// Package cache implements the content-addressed cache: entry directory
// layout, the ensure/publish protocol, and the scoped entry lock lifecycle
// (§3.3–3.4, §4.5). This is the most heavily tested package in the module
// because it is the one piece every concurrent envy process must agree on
// without talking to each other directly.
package cache

import "path/filepath"

// Cache roots one content-addressed store. Root is an absolute directory
// such as $HOME/.cache/envy.
type Cache struct {
	Root string
}

// New returns a Cache rooted at root. It does not create any directories —
// that happens lazily as entries are ensured.
func New(root string) *Cache {
	return &Cache{Root: filepath.Clean(root)}
}

// entryDirName renders "<key>-<platform>-<arch>-blake3-<hash>" (§3.3).
func entryDirName(key, platform, arch, hashPrefix string) string {
	return key + "-" + platform + "-" + arch + "-blake3-" + hashPrefix
}

// PackagesDir returns the root directory holding package cache entries.
func (c *Cache) PackagesDir() string { return filepath.Join(c.Root, "packages") }

// RecipesDir returns the root directory holding recipe cache entries
// (parallel layout, same protocol, §4.5.1).
func (c *Cache) RecipesDir() string { return filepath.Join(c.Root, "recipes") }

// LocksDir returns the root directory holding per-entry lock files.
func (c *Cache) LocksDir() string { return filepath.Join(c.Root, "locks") }

// ShellDir returns the directory holding generated shell hook scripts.
func (c *Cache) ShellDir() string { return filepath.Join(c.Root, "shell") }

// EnvyDir returns the envy-binary subcache root (§4.5.4).
func (c *Cache) EnvyDir() string { return filepath.Join(c.Root, "envy") }

// EntryDir returns the absolute directory for a package cache entry.
func (c *Cache) EntryDir(key, platform, arch, hashPrefix string) string {
	return filepath.Join(c.PackagesDir(), entryDirName(key, platform, arch, hashPrefix))
}

// RecipeEntryDir returns the absolute directory for a recipe cache entry,
// which uses the same naming scheme under recipes/ instead of packages/.
func (c *Cache) RecipeEntryDir(key, platform, arch, hashPrefix string) string {
	return filepath.Join(c.RecipesDir(), entryDirName(key, platform, arch, hashPrefix))
}

// LockPath returns the lock file path for an entry directory.
func (c *Cache) LockPath(key, platform, arch, hashPrefix string) string {
	return filepath.Join(c.LocksDir(), "packages."+entryDirName(key, platform, arch, hashPrefix)+".lock")
}

// Entry names the standard subdirectories and marker of a cache entry
// (§3.3).
type Entry struct {
	Dir string
}

func (e Entry) Fetch() string   { return filepath.Join(e.Dir, "fetch") }
func (e Entry) Stage() string   { return filepath.Join(e.Dir, "stage") }
func (e Entry) Work() string    { return filepath.Join(e.Dir, "work") }
func (e Entry) Install() string { return filepath.Join(e.Dir, "install") }
func (e Entry) Pkg() string     { return filepath.Join(e.Dir, "pkg") }
func (e Entry) Complete() string {
	return filepath.Join(e.Dir, "envy-complete")
}
func (e Entry) FetchComplete() string {
	return filepath.Join(e.Fetch(), "envy-complete")
}
