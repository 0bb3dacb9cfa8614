// Package cmd provides the CLI commands for billing-fixtures.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"billing-fixtures/internal/config"
	"billing-fixtures/internal/logging"
)

// version is overridden at build time with -ldflags "-X billing-fixtures/cmd/cli/cmd.version=..."
var version = "0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "billing-fixtures",
	Short: "Generate voucher billing test folders for a Postman collection",
	Long: `billing-fixtures derives the expected fee and ledger movements of voucher
generation scenarios and writes them into a Postman collection as test folders.

Every folder is a copy of the baseline folder with its request body, variables
and test scripts rewritten for one scenario. Balance checks compare before and
after values, so they hold on a ledger that already carries unrelated balances.

Examples:
  billing-fixtures generate --collection voucher-billing.postman_collection.json
  billing-fixtures generate --suite scenarios.hcl --dry-run
  billing-fixtures verify
  billing-fixtures fees list
  billing-fixtures report --format xlsx --out fees.xlsx`,
	SilenceUsage: true,
}

// ExecuteContext runs the CLI
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is built-in defaults)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
}

func initConfig() {
	if cfgFile != "" {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		config.Set(cfg)
	}

	// Initialize logging
	cfg := config.Get()
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "billing-fixtures version %s\n", version)
	},
}

// configCmd manages configuration
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init <path>",
	Short: "Write the active configuration to a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Get().Save(args[0]); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
		return nil
	},
}
