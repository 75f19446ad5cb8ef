//go:build darwin

package platform

import (
	"os"
	"path/filepath"

	"github.com/wharflab/envy/internal/envyerr"
)

func defaultCacheRootPlatform() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", &envyerr.IOError{Op: "cache_root", Path: "$HOME", Err: err}
	}
	return filepath.Join(home, "Library", "Caches", "envy"), nil
}
