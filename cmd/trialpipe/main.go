// Package main provides the entry point for the trialpipe CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/trialpipe/trialpipe/cmd/trialpipe/commands"
	"github.com/trialpipe/trialpipe/pkg/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "trialpipe",
		Short: "Trialpipe - clinical trial literature pipeline tooling",
		Long: `Trialpipe validates and manages the outputs of the guideline
citation pipeline.

Commands:
  validate    Run data-quality validation over phase outputs
  checkpoint  Inspect and manage collection checkpoints`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewCheckpointCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "trialpipe %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
