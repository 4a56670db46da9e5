package main

import (
	"fmt"
	"os"

	"github.com/ezyscribe/ezyscribe-e2e/internal/version"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ezyscribe-e2e",
	Short: "Browser end-to-end checks for the EzyScribe web app",
	Long: `ezyscribe-e2e drives the EzyScribe login page and task dashboard
in real browsers through Playwright.

It runs the data-driven login cases and the task dashboard scenarios against
one or more browser projects and writes console, HTML, JSON and CI reports.`,
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

var configPathFlag string

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPathFlag, "config", "c", "", "Path to a YAML config file (default: ./e2e.yaml if present)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(fixturesCmd)
	rootCmd.AddCommand(runCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ezyscribe-e2e %s\n", version.Full())
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
