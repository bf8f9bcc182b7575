package main

import (
	"fmt"
	"os"

	"github.com/roach88/vershift/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		// Commands print their own diagnostics; the error carries the exit
		// code plus a terse summary for anything that did not reach them
		// (flag parsing, format validation).
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
