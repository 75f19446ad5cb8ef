//go:build !windows

package platform

import "os"

// atomicRenamePlatform on POSIX is a single rename(2) syscall: the kernel
// guarantees "to" is atomically replaced, visible to any process that opens
// it thereafter.
func atomicRenamePlatform(from, to string) error {
	return os.Rename(from, to)
}
