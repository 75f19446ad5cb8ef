//go:build !windows && !darwin

package platform

import (
	"os"
	"path/filepath"

	"github.com/wharflab/envy/internal/envyerr"
)

func defaultCacheRootPlatform() (string, error) {
	if xdg, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && xdg != "" {
		return filepath.Join(xdg, "envy"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", &envyerr.IOError{Op: "cache_root", Path: "$HOME", Err: err}
	}
	return filepath.Join(home, ".cache", "envy"), nil
}
