// Package cli implements the Qamqor command-line interface using Cobra.
// serve runs the service; the other subcommands are operator read
// projections straight off the local store.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "qamqor",
	Short: "Qamqor — coordinate clients, developers, and workers",
	Long: `Qamqor coordinates a three-role workflow: clients file tasks,
developers turn them into priced technical tasks, and workers claim and
complete those specs. Run 'qamqor serve' to start the service.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
