package platform

import (
	"os"

	"github.com/wharflab/envy/internal/envyerr"
)

// TouchFile creates an empty file at path and ensures its existence is
// immediately visible to other processes. On POSIX this is a create+close;
// on Windows it additionally flushes the file and its parent directory
// (see touch_windows.go) so concurrent processes don't observe a stale
// directory-listing cache instead of the fresh marker.
func TouchFile(path string) error {
	if err := mkdirParent(path); err != nil {
		return err
	}
	if err := touchFilePlatform(path); err != nil {
		return &envyerr.IOError{Op: "touch", Path: path, Err: err}
	}
	return nil
}

func touchFileCommon(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	return f.Close()
}
