package engine

import (
	"io"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/wharflab/envy/internal/envyerr"
)

// openFetchedArchive opens the single file fetch phase wrote into dir
// ("download"), the only entry a remote-source fetch ever produces.
func openFetchedArchive(dir string) (*os.File, error) {
	path := filepath.Join(dir, "download")
	f, err := os.Open(path)
	if err != nil {
		return nil, &envyerr.IOError{Op: "open", Path: path, Err: err}
	}
	return f, nil
}

// copyTree recursively copies src into dst, preserving file modes. Entries
// whose path relative to src matches one of excludes (doublestar patterns,
// e.g. ".git/**" or "**/*.tmp") are skipped entirely, directories included.
func copyTree(src, dst string, excludes ...string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return &envyerr.IOError{Op: "walk", Path: path, Err: err}
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return &envyerr.IOError{Op: "rel", Path: path, Err: err}
		}
		if rel == "." {
			return os.MkdirAll(dst, 0o755)
		}
		if matchesAny(excludes, filepath.ToSlash(rel)) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		target := filepath.Join(dst, rel)

		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFilePreservingMode(path, target, info.Mode())
	})
}

func matchesAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, rel); err == nil && ok {
			return true
		}
	}
	return false
}

func copyFilePreservingMode(src, dst string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return &envyerr.IOError{Op: "mkdir", Path: filepath.Dir(dst), Err: err}
	}
	in, err := os.Open(src)
	if err != nil {
		return &envyerr.IOError{Op: "open", Path: src, Err: err}
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return &envyerr.IOError{Op: "create", Path: dst, Err: err}
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return &envyerr.IOError{Op: "copy", Path: dst, Err: err}
	}
	return nil
}
