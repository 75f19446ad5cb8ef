//go:build windows

package platform

import "os"

// signalNumber on Windows only meaningfully distinguishes Interrupt: it
// maps to N=2, matching SIGINT's POSIX value, in the 128+N exit code; any
// other signal maps to N=0.
func signalNumber(sig os.Signal) int {
	if sig == os.Interrupt {
		return 2
	}
	return 0
}
