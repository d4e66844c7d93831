// Package main is the entry point of the workload-reconciler CLI and daemon.
//
// Commands: apply, status, get, delete, run.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/skillcoder/workload-reconciler/cmd/workload-reconciler/commands"
)

func main() {
	err := commands.Root().ExecuteContext(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
	}

	os.Exit(commands.ExitCode(err))
}
