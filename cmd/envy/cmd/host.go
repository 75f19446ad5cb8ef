package cmd

import (
	"runtime"

	"github.com/wharflab/envy/internal/pkgcfg"
)

func hostPlatform() string { return runtime.GOOS }
func hostArch() string     { return runtime.GOARCH }

func pkgHashPrefix(canonicalKey string) string { return pkgcfg.HashPrefix(canonicalKey) }
