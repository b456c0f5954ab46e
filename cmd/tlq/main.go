// Command tlq exercises the two-lock queue.
//
// Usage:
//
//	go run ./cmd/tlq demo --producers 5 --consumers 5 --items 10 --mode try
//	go run ./cmd/tlq demo --config run.yml
//	go run ./cmd/tlq bench -n 10000000 --workers 4
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := cmdRoot().Execute(); err != nil {
		os.Exit(1)
	}
}

func cmdRoot() *cobra.Command {
	root := &cobra.Command{
		Use:   "tlq",
		Short: "Two-lock blocking queue tools",
		Long: `Two-lock blocking queue tools

An unbounded FIFO queue whose producers and consumers take separate
locks. "demo" runs concurrent producers and consumers against it and
checks that every value is delivered exactly once; "bench" compares its
throughput with a single-lock queue and a buffered channel.`,
		SilenceUsage: true,
	}

	cobra.EnableCommandSorting = false
	root.CompletionOptions.HiddenDefaultCmd = true
	root.AddCommand(cmdDemo())
	root.AddCommand(cmdBench())
	return root
}
