package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wordcoach/wordcoach/config"
	"github.com/wordcoach/wordcoach/domain/plan"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadWithFallback(cfgFile)
		if err != nil {
			return err
		}
		fmt.Printf("configuration valid (billing mode: %s)\n", cfg.Billing.Mode)

		// In memory mode the default price must resolve through the
		// built-in catalog; show what new users will land on.
		if cfg.Billing.Mode == "memory" {
			tiers := plan.Builtin(cfg.Billing.DefaultPriceID)
			tier, ok := plan.FindByPriceID(tiers, cfg.Billing.DefaultPriceID)
			if !ok {
				return fmt.Errorf("default price %s is not in the built-in catalog", cfg.Billing.DefaultPriceID)
			}
			limit := "unlimited words"
			if !plan.IsUnlimited(tier) {
				limit = fmt.Sprintf("%d words/month", tier.WordsPerMonth)
			}
			kind := "paid"
			if plan.IsFree(tier) {
				kind = "free"
			}
			fmt.Printf("default tier: %s (%s, %s)\n", tier.Name, kind, limit)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
