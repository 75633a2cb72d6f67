// Package cmd provides the CLI commands for cloudalloc.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cloudalloc/internal/config"
	"cloudalloc/internal/logging"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "cloudalloc",
	Short: "Allocate shared cloud cost across internal cost centers",
	Long: `cloudalloc allocates a shared cloud bill across internal cost centers
for one reporting period.

It fetches itemized usage from the cost-reporting API, reclassifies mistagged
records by policy, breaks out the enterprise support fee and reserved-capacity
prepayments, optionally molds the total to a known invoice amount, and prints
per-cost-center totals ready for general-ledger posting.

Examples:
  cloudalloc allocate --period prev --invoice 425000.00
  cloudalloc allocate --period prev
  cloudalloc allocate --period current --format json`,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.cloudalloc.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	// Add subcommands
	rootCmd.AddCommand(allocateCmd)
	rootCmd.AddCommand(versionCmd)
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
		fmt.Println("cloudalloc version 0.1.0")
	},
}
