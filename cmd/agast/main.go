package main

import (
	"os"

	"github.com/spf13/cobra"
)

// RootCommand is the base command all subcommands are added to
var RootCommand = &cobra.Command{
	Use:           "agast",
	Short:         "Replay parse strategies and inspect the trees they build",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func main() {
	if err := RootCommand.Execute(); err != nil {
		os.Exit(1)
	}
}
