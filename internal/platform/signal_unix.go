//go:build !windows

package platform

import (
	"os"
	"syscall"
)

func signalNumber(sig os.Signal) int {
	if n, ok := sig.(syscall.Signal); ok {
		return int(n)
	}
	return 0
}
