package main

import (
	"fmt"

	"github.com/ezyscribe/ezyscribe-e2e/internal/browser"
	"github.com/ezyscribe/ezyscribe-e2e/internal/config"
	"github.com/ezyscribe/ezyscribe-e2e/internal/fixtures"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the Playwright driver and the configured browsers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPathFlag)
		if err != nil {
			return err
		}
		if err := browser.Install(cfg.Browser.Projects); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Installed browsers: %v\n", cfg.Browser.Projects)
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the resolved configuration as YAML",
	Long: `Print the configuration after defaults, .env, the config file and
EZYSCRIBE_* environment variables have been applied.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		loader := config.NewLoader()
		if _, err := loader.Load(configPathFlag); err != nil {
			return err
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(loader.Settings())
	},
}

var fixturesCmd = &cobra.Command{
	Use:   "fixtures",
	Short: "Inspect login test data",
}

var fixturesValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Validate a login fixture file (JSON or YAML)",
	Long: `Validate checks a login fixture file against the fixture schema.
Without a path the built-in data set is checked.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			cases  []fixtures.LoginCase
			err    error
			source = "built-in users.json"
		)
		if len(args) == 1 {
			source = args[0]
			cases, err = fixtures.Load(source)
		} else {
			cases, err = fixtures.Default()
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d login cases OK\n", source, len(cases))
		return nil
	},
}

func init() {
	fixturesCmd.AddCommand(fixturesValidateCmd)
}
