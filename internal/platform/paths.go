package platform

import (
	"os"
	"path/filepath"
	"regexp"
	"runtime"

	"github.com/wharflab/envy/internal/envyerr"
)

// varRefPOSIX matches $VAR and ${VAR}.
var varRefPOSIX = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// varRefWindows matches %VAR%.
var varRefWindows = regexp.MustCompile(`%([A-Za-z_][A-Za-z0-9_]*)%`)

func expandPathPlatform(s string) (string, error) {
	if runtime.GOOS == "windows" {
		return expandWindows(s), nil
	}
	return expandPOSIX(s)
}

func expandPOSIX(s string) (string, error) {
	if len(s) > 0 && s[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", &envyerr.IOError{Op: "expand_path", Path: s, Err: err}
		}
		if len(s) == 1 || s[1] == filepath.Separator || s[1] == '/' {
			s = filepath.Join(home, s[1:])
		}
	}

	var undefined string
	expanded := varRefPOSIX.ReplaceAllStringFunc(s, func(m string) string {
		name := varRefPOSIX.FindStringSubmatch(m)
		var key string
		if name[1] != "" {
			key = name[1]
		} else {
			key = name[2]
		}
		v, ok := os.LookupEnv(key)
		if !ok {
			undefined = key
			return ""
		}
		return v
	})
	if undefined != "" {
		return "", &envyerr.ConfigError{Field: "path", Msg: "undefined variable $" + undefined}
	}
	return expanded, nil
}

func expandWindows(s string) string {
	return varRefWindows.ReplaceAllStringFunc(s, func(m string) string {
		name := varRefWindows.FindStringSubmatch(m)[1]
		key := name
		if equalFoldASCII(key, "HOME") {
			key = "USERPROFILE"
		}
		v, _ := os.LookupEnv(key)
		return v
	})
}

func equalFoldASCII(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if ca >= 'a' && ca <= 'z' {
			ca -= 'a' - 'A'
		}
		if cb >= 'a' && cb <= 'z' {
			cb -= 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// DefaultCacheRoot resolves the platform default cache root, honoring
// $ENVY_CACHE_ROOT first.
func DefaultCacheRoot() (string, error) {
	if v, ok := os.LookupEnv("ENVY_CACHE_ROOT"); ok && v != "" {
		return filepath.Clean(v), nil
	}
	return defaultCacheRootPlatform()
}
