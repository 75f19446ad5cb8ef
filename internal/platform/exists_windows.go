//go:build windows

package platform

import "os"

// fileExistsPlatform deliberately opens the path instead of calling Stat on
// a cached directory enumeration. FindFirstFile-backed listings (which
// os.Stat's Windows implementation can hit via a parent directory cache in
// some runtimes) have been observed to lag a fresh rename by tens of
// milliseconds under antivirus contention.
func fileExistsPlatform(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}
