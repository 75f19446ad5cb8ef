package platform

// FileExists reports whether path exists, bypassing any directory-listing
// cache. On Windows, a cached directory enumeration is not authoritative
// for cross-process visibility of a just-renamed or just-touched file, so
// the Windows implementation uses an explicit open-and-close probe. On
// POSIX it uses os.Lstat, which queries the file system directly.
func FileExists(path string) bool {
	return fileExistsPlatform(path)
}
