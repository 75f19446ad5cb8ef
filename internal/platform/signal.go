package platform

import (
	"os"
	"os/signal"
)

// InstallSignalHandler arms the given signals so that receiving one calls
// restore (expected to reset terminal state) and then exits the process
// with code 128+N, bypassing any engine teardown (§6.3, §9 "exceptions for
// control flow" — signal delivery is the one place this codebase bypasses
// its normal explicit-result error handling). Returns a function that
// disarms the handler.
func InstallSignalHandler(restore func(), sigs ...os.Signal) (disarm func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)
	done := make(chan struct{})
	go func() {
		select {
		case sig := <-ch:
			restore()
			os.Exit(128 + signalNumber(sig))
		case <-done:
		}
	}()
	return func() {
		close(done)
		signal.Stop(ch)
	}
}
