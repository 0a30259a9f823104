package main

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags
var Version = "dev"

func init() {
	versionCommand := &cobra.Command{
		Use:   "version",
		Short: "Print the version of agast",
		Run: func(cmd *cobra.Command, args []string) {
			printVersion(os.Stdout)
		},
	}
	RootCommand.AddCommand(versionCommand)
}

func printVersion(out io.Writer) {
	fmt.Fprintln(out, "Version: "+Version)
	fmt.Fprintln(out, "Go Version: "+runtime.Version())
}
