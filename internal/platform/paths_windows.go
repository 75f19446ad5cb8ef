//go:build windows

package platform

import (
	"os"
	"path/filepath"

	"github.com/wharflab/envy/internal/envyerr"
)

func defaultCacheRootPlatform() (string, error) {
	if v, ok := os.LookupEnv("LOCALAPPDATA"); ok && v != "" {
		return filepath.Join(v, "envy"), nil
	}
	if up, ok := os.LookupEnv("USERPROFILE"); ok && up != "" {
		return filepath.Join(up, "AppData", "Local", "envy"), nil
	}
	return "", &envyerr.ConfigError{Field: "cache_root", Msg: "neither %LOCALAPPDATA% nor %USERPROFILE% is set"}
}
