// Command tpgctl drives a Tangled Program Graph evolutionary run from
// the command line: seed a population, run the reference harness, and
// inspect the run history it persists.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "tpgctl",
	Short: "Drive Tangled Program Graph evolutionary runs",
	Long:  "tpgctl seeds a program graph, runs the reference evolutionary harness\nagainst it, and inspects the run history a store backend has persisted.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	color.NoColor = !isatty.IsTerminal(os.Stdout.Fd())

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(lineageCmd)
	rootCmd.AddCommand(diagnosticsCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
