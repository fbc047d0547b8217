package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lqlabs/outflow/internal/config"
	"github.com/lqlabs/outflow/internal/rules"
)

func rulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Show the active business rules",
		Long:  `List the deterministic rules applied before any LLM classification, in evaluation order.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load(viper.GetViper())
			classifier := rules.NewClassifier(cfg.Rules)

			fmt.Fprintln(cmd.OutOrStdout(), "Business rules (evaluated in order):")
			for i, r := range classifier.Rules() {
				fmt.Fprintf(cmd.OutOrStdout(), "  %d. %s\n", i+1, r.Name())
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\nKeyword: %q\n", cfg.Rules.CapexKeyword)
			fmt.Fprintf(cmd.OutOrStdout(), "Actor variants: %v, threshold: %.0f, assigned category: %q\n",
				cfg.Rules.ActorVariants, cfg.Rules.ActorThreshold, cfg.Rules.ActorCategory)

			return nil
		},
	}
}
