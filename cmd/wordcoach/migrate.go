package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wordcoach/wordcoach/adapters/sqlite"
	"github.com/wordcoach/wordcoach/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadWithFallback(cfgFile)
		if err != nil {
			return err
		}

		db, err := sqlite.Open(cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()

		if err := db.Migrate(); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		fmt.Println("migrations applied")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
