package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const (
	exitSuccess = 0
	exitError   = 1
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "gosubsurf",
		Short:         "Catmull-Clark subdivision of polygon cages",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newSubdivideCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "gosubsurf: %v\n", err)
		os.Exit(exitError)
	}
	os.Exit(exitSuccess)
}
