// Command rill compiles signal graphs, runs scenarios against the engine,
// and reads the observation journal.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/rill/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		// Commands print their own formatted errors; flag and config errors
		// surface here.
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
