package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "wordcoach",
	Short: "Subscription billing and word-usage metering for WordCoach",
	Long: `WordCoach billing service.

It reconciles user subscriptions against the payment provider, meters
word usage per billing cycle, and orchestrates plan changes.

Quick start:
  wordcoach migrate   # Apply database migrations
  wordcoach serve     # Start the billing API server`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "wordcoach.yaml", "config file path")
}
