//go:build windows

package platform

import (
	"os"
	"path/filepath"
)

// touchFilePlatform flushes both the file buffers and the parent directory
// handle after creation. NTFS directory metadata can lag behind a file
// create under cache/indexer contention; without the explicit Sync calls a
// concurrent reader's file_exists probe can race the completion marker.
func touchFilePlatform(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	dir, err := os.Open(filepath.Dir(path))
	if err != nil {
		// Some Windows filesystems don't support opening a directory handle;
		// the file itself is already flushed, so this is non-fatal.
		return nil
	}
	defer dir.Close()
	_ = dir.Sync()
	return nil
}
