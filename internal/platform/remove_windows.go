//go:build windows

package platform

import (
	"errors"

	"golang.org/x/sys/windows"
)

func isTransientRemoveErrPossible() bool { return true }

// isTransientRemoveErr reports whether err looks like a transient handle
// contention error (antivirus/indexer scanning a just-written file) rather
// than a real failure (permissions, missing parent, disk full).
func isTransientRemoveErr(err error) bool {
	return errors.Is(err, windows.ERROR_SHARING_VIOLATION) ||
		errors.Is(err, windows.ERROR_LOCK_VIOLATION) ||
		errors.Is(err, windows.ERROR_ACCESS_DENIED)
}
