//go:build windows

package platform

import "golang.org/x/sys/windows"

// atomicRenamePlatform uses MoveFileEx with MOVEFILE_REPLACE_EXISTING so
// that "to", if it already exists, is atomically replaced rather than
// requiring a copy+delete dance that would expose a partial "to" to
// concurrent readers.
func atomicRenamePlatform(from, to string) error {
	fromPtr, err := windows.UTF16PtrFromString(from)
	if err != nil {
		return err
	}
	toPtr, err := windows.UTF16PtrFromString(to)
	if err != nil {
		return err
	}
	return windows.MoveFileEx(fromPtr, toPtr, windows.MOVEFILE_REPLACE_EXISTING|windows.MOVEFILE_WRITE_THROUGH)
}
