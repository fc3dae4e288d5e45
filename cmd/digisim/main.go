// Command digisim compiles, simulates, records and replays digital logic
// circuits described in CUE.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/digisim/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		// Commands print their own results; the error is the one-line reason.
		fmt.Fprintln(os.Stderr, "digisim:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
