package main

import (
	"github.com/spf13/cobra"

	"github.com/wordcoach/wordcoach/bootstrap"
	"github.com/wordcoach/wordcoach/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the billing API server",
	Long: `Start the WordCoach billing API server.

The server will:
  - Load configuration from wordcoach.yaml (or --config)
  - Or load configuration from WORDCOACH_* environment variables
  - Connect to the database and apply pending migrations
  - Serve the billing API

Environment variables (for Docker deployments):
  WORDCOACH_DEFAULT_PRICE_ID  - Free-tier price id (required)
  WORDCOACH_BILLING_MODE      - stripe or memory (default: memory)
  WORDCOACH_STRIPE_KEY        - Stripe secret key (stripe mode)
  WORDCOACH_DATABASE_DSN      - Database path (default: wordcoach.db)
  WORDCOACH_SERVER_PORT       - Server port (default: 8080)
  WORDCOACH_LOG_LEVEL         - Log level: debug, info, warn, error

Examples:
  wordcoach serve
  wordcoach serve --config /etc/wordcoach/config.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return err
	}

	a, err := bootstrap.New(cfg)
	if err != nil {
		return err
	}
	return a.Run()
}
