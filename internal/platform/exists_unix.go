//go:build !windows

package platform

import "os"

func fileExistsPlatform(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
