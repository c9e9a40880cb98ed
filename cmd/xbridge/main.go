// Command xbridge runs and operates cross-chain message bridge nodes.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/xbridge/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
