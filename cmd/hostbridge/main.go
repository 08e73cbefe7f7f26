// hostbridge - command-line front end for the hostbridge export table
//
// Build: go build ./cmd/hostbridge
// Usage:
//
//	hostbridge greet --name World
//	hostbridge run ./batch.yaml
//	hostbridge exec ./script.js
//	hostbridge test ./scenarios
package main

import (
	"fmt"
	"os"

	"github.com/roach88/hostbridge/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "hostbridge:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
