package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lqlabs/outflow/internal/cli"
	"github.com/lqlabs/outflow/internal/config"
	"github.com/lqlabs/outflow/internal/engine"
	"github.com/lqlabs/outflow/internal/ingest"
	"github.com/lqlabs/outflow/internal/llm"
	"github.com/lqlabs/outflow/internal/report"
	"github.com/lqlabs/outflow/internal/rules"
	"github.com/lqlabs/outflow/internal/service"
)

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the full expense classification pipeline",
		Long: `Load the configured expense exports, classify every transaction as
CAPEX or OPEX, and write the financial statement workbook.`,
		RunE: runAnalyze,
	}

	cmd.Flags().String("kodo", "", "path to the Kodo Pay reimbursement CSV")
	cmd.Flags().String("card", "", "path to the card transactions CSV")
	cmd.Flags().String("output", "", "directory for the report workbook")
	cmd.Flags().String("provider", "", "LLM provider (gemini, anthropic, openai)")
	cmd.Flags().String("model", "", "model name override")
	cmd.Flags().Int("batch-size", 0, "transactions per LLM request")
	cmd.Flags().Bool("no-progress", false, "disable the progress bar")

	_ = viper.BindPFlag("sources.kodo_pay", cmd.Flags().Lookup("kodo"))
	_ = viper.BindPFlag("sources.card", cmd.Flags().Lookup("card"))
	_ = viper.BindPFlag("report.output_dir", cmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("llm.provider", cmd.Flags().Lookup("provider"))
	_ = viper.BindPFlag("llm.model", cmd.Flags().Lookup("model"))
	_ = viper.BindPFlag("llm.batch_size", cmd.Flags().Lookup("batch-size"))

	return cmd
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	logger := slog.Default()

	cfg := config.Load(viper.GetViper())
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = resolveAPIKey(cfg.LLM.Provider)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	handler := cli.NewInterruptHandler(os.Stdout)
	ctx := handler.HandleInterrupts(cmd.Context())

	client, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}

	classifier := llm.NewClassifier(client, cfg.LLM, cfg.Rules, logger)
	defer func() { _ = classifier.Close() }()

	noProgress, _ := cmd.Flags().GetBool("no-progress")
	if !noProgress {
		classifier.SetProgress(batchProgress())
	}

	eng := engine.New(buildSources(cfg), rules.NewClassifier(cfg.Rules), classifier,
		report.NewWriter(cfg.Report.OutputDir, logger), logger)

	result, err := eng.Run(ctx)
	if err != nil {
		return err
	}

	printSummary(cmd.OutOrStdout(), result)

	if handler.WasInterrupted() {
		logger.Warn("Run was interrupted, remaining transactions used fallback classification")
	}
	for _, runErr := range result.Errors {
		logger.Warn("Run completed with degraded stage", "error", runErr)
	}

	return nil
}

func buildSources(cfg *config.Config) []service.RowSource {
	var sources []service.RowSource
	if cfg.Sources.KodoPayPath != "" {
		sources = append(sources, &ingest.KodoPaySource{Path: cfg.Sources.KodoPayPath, Filters: cfg.Filters})
	}
	if cfg.Sources.CardPath != "" {
		sources = append(sources, &ingest.CardSource{Path: cfg.Sources.CardPath, Filters: cfg.Filters})
	}
	return sources
}

// batchProgress defers bar construction until the first callback, when
// the deferred-transaction total is known.
func batchProgress() service.ProgressFunc {
	var bar *cli.Progress
	return func(done, total int) {
		if bar == nil {
			bar = cli.NewProgress(total, os.Stdout)
		}
		bar.Update(done, total)
	}
}

func printSummary(w io.Writer, result *engine.RunResult) {
	r := result.Report
	s := result.Stats

	fmt.Fprintf(w, "\nAnalyzed %d transactions (₹%s total)\n", r.TotalCount, r.TotalAmount.StringFixed(2))
	fmt.Fprintf(w, "  CAPEX: %d transactions, ₹%s (%.1f%%)\n", r.CapexCount, r.CapexAmount.StringFixed(2), r.CapexShare()*100)
	fmt.Fprintf(w, "  OPEX:  %d transactions, ₹%s (%.1f%%)\n", r.OpexCount, r.OpexAmount.StringFixed(2), r.OpexShare()*100)
	fmt.Fprintf(w, "  Business rules: %d, LLM: %d, fallback: %d\n", s.ByBusinessRule, s.ByLLM, s.ByErrorFallback)
	if s.UncategorizedOriginal > 0 {
		fmt.Fprintf(w, "  Uncategorized: %d originally, %d assigned, %d remaining\n",
			s.UncategorizedOriginal, s.UncategorizedAssigned, s.UncategorizedRemaining)
	}
	fmt.Fprintf(w, "\nReport written to %s\n", result.ReportPath)
}
