// Package engine orchestrates the full analysis run: ingestion,
// deterministic rules, model classification, aggregation, and the
// report sink.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lqlabs/outflow/internal/common"
	"github.com/lqlabs/outflow/internal/model"
	"github.com/lqlabs/outflow/internal/report"
	"github.com/lqlabs/outflow/internal/rules"
	"github.com/lqlabs/outflow/internal/service"
)

// Stats summarizes how the run resolved its transactions.
type Stats struct {
	Total                  int
	ByBusinessRule         int
	ByLLM                  int
	ByErrorFallback        int
	UncategorizedOriginal  int
	UncategorizedAssigned  int
	UncategorizedRemaining int
}

// RunResult is everything a run produced, including the non-fatal
// errors it absorbed along the way.
type RunResult struct {
	Classified []model.ClassifiedTransaction
	Report     *model.AggregateReport
	Stats      Stats
	ReportPath string
	Errors     []error
}

// Engine wires the pipeline stages together.
type Engine struct {
	sources []service.RowSource
	rules   *rules.Classifier
	model   service.ModelClassifier
	writer  service.ReportWriter
	logger  *slog.Logger
}

// New creates an engine over the given stages.
func New(sources []service.RowSource, ruleClassifier *rules.Classifier, modelClassifier service.ModelClassifier, writer service.ReportWriter, logger *slog.Logger) *Engine {
	return &Engine{
		sources: sources,
		rules:   ruleClassifier,
		model:   modelClassifier,
		writer:  writer,
		logger:  logger,
	}
}

// Run executes the pipeline end to end. Individual source failures
// degrade the run; it only aborts when no source yields any data or
// the report cannot be written.
func (e *Engine) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{}

	txns, loadErrs := e.loadSources(ctx)
	result.Errors = append(result.Errors, loadErrs...)
	if len(txns) == 0 {
		if len(loadErrs) > 0 {
			return result, fmt.Errorf("%w: %w", common.ErrNoTransactions, errors.Join(loadErrs...))
		}
		return result, common.ErrNoTransactions
	}

	e.logger.Info("Ingestion complete",
		"transactions", len(txns),
		"failed_sources", len(loadErrs))

	ruled, unresolved := e.rules.Classify(txns)
	e.logger.Info("Rule classification complete",
		"matched", len(ruled),
		"deferred", len(unresolved))

	var modeled []model.ClassifiedTransaction
	if len(unresolved) > 0 {
		var modelErrs []error
		modeled, modelErrs = e.model.Classify(ctx, unresolved)
		result.Errors = append(result.Errors, modelErrs...)
	}

	// Rule matches first, then model outcomes, both in original order.
	classified := make([]model.ClassifiedTransaction, 0, len(ruled)+len(modeled))
	classified = append(classified, ruled...)
	classified = append(classified, modeled...)

	result.Classified = classified
	result.Report = report.Aggregate(classified)
	result.Stats = computeStats(classified)

	path, err := e.writer.Write(ctx, classified, result.Report)
	if err != nil {
		return result, fmt.Errorf("failed to write report: %w", err)
	}
	result.ReportPath = path

	return result, nil
}

// loadSources loads every configured source, collecting per-source
// failures instead of aborting.
func (e *Engine) loadSources(ctx context.Context) ([]model.Transaction, []error) {
	var txns []model.Transaction
	var errs []error

	for _, src := range e.sources {
		loaded, err := src.Load(ctx)
		if err != nil {
			e.logger.Warn("Source failed, continuing without it",
				"source", src.Name(),
				"error", err)
			errs = append(errs, err)
			continue
		}
		e.logger.Info("Source loaded",
			"source", src.Name(),
			"transactions", len(loaded))
		txns = append(txns, loaded...)
	}

	return txns, errs
}

func computeStats(classified []model.ClassifiedTransaction) Stats {
	s := Stats{Total: len(classified)}
	for _, txn := range classified {
		switch txn.Method {
		case model.MethodBusinessRule:
			s.ByBusinessRule++
		case model.MethodLLM:
			s.ByLLM++
		case model.MethodErrorFallback:
			s.ByErrorFallback++
		}
		if txn.OriginalCategory == model.Uncategorized {
			s.UncategorizedOriginal++
			if txn.AssignedCategory != model.Uncategorized {
				s.UncategorizedAssigned++
			} else {
				s.UncategorizedRemaining++
			}
		}
	}
	return s
}
