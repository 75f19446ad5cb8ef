//go:build !windows

package platform

// touchFilePlatform on POSIX is a plain create+close: the directory entry
// is visible to other processes as soon as the syscall returns.
func touchFilePlatform(path string) error {
	return touchFileCommon(path)
}
