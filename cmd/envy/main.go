// Command envy is the content-addressed package manager's CLI entry
// point: a thin urfave/cli/v3 tree over the engine packages under
// internal/ (§6.3 — the CLI's existence is out of scope for the engine
// itself, but envy needs one to be runnable).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/wharflab/envy/cmd/envy/cmd"
	"github.com/wharflab/envy/internal/platform"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	disarm := platform.InstallSignalHandler(restoreTerminal, os.Interrupt)
	defer disarm()

	if err := cmd.Root().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "envy:", err)
		os.Exit(1)
	}
}

// restoreTerminal clears any in-progress status line the tty progress
// reporter left behind before the signal handler calls os.Exit (§6.3):
// a bare newline is enough since the reporter never enters raw mode.
func restoreTerminal() {
	fmt.Fprint(os.Stderr, "\n")
}
