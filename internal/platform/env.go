package platform

import (
	"os"
	"path/filepath"
	"strings"
)

// PrependPath prepends dir to the process's PATH, unless PATH already
// contains it (§6.4).
func PrependPath(dir string) error {
	cur := os.Getenv("PATH")
	if cur == "" {
		return os.Setenv("PATH", dir)
	}
	parts := strings.Split(cur, string(os.PathListSeparator))
	for _, p := range parts {
		if filepath.Clean(p) == filepath.Clean(dir) {
			return nil
		}
	}
	return os.Setenv("PATH", dir+string(os.PathListSeparator)+cur)
}
