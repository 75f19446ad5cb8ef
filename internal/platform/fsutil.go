package platform

import (
	"os"
	"path/filepath"

	"github.com/wharflab/envy/internal/envyerr"
)

func mkdirParent(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &envyerr.IOError{Op: "mkdir", Path: dir, Err: err}
	}
	return nil
}

// AtomicRename replaces to with from atomically. Both paths must be on the
// same filesystem volume. Fails loud on any error — callers never treat a
// rename failure as "maybe it worked".
func AtomicRename(from, to string) error {
	if err := mkdirParent(to); err != nil {
		return err
	}
	if err := atomicRenamePlatform(from, to); err != nil {
		return &envyerr.IOError{Op: "rename", Path: to, Err: err}
	}
	return nil
}

// ExpandPath expands a leading "~" and $VAR / ${VAR} references (POSIX) or
// %VAR% references (Windows). An undefined variable fails on POSIX; on
// Windows it substitutes empty, except $HOME/%HOME% which maps to the
// Windows user-profile variable.
func ExpandPath(s string) (string, error) {
	return expandPathPlatform(s)
}
