// Package llm classifies rule-unresolved transactions through an
// external language-model service, one bounded batch at a time.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lqlabs/outflow/internal/common"
	"github.com/lqlabs/outflow/internal/config"
	"github.com/lqlabs/outflow/internal/model"
	"github.com/lqlabs/outflow/internal/service"
)

// Classifier implements service.ModelClassifier against an LLM provider.
type Classifier struct {
	client       Client
	logger       *slog.Logger
	rateLimiter  *rateLimiter
	progress     service.ProgressFunc
	systemPrompt string
	retryOpts    service.RetryOptions
	batchSize    int
	batchDelay   time.Duration
	maxDescLen   int
}

// NewClassifier creates a batch classifier over the given client. The
// system prompt is fixed per run and mirrors the business rules.
func NewClassifier(client Client, cfg config.LLMConfig, rules config.RulesConfig, logger *slog.Logger) *Classifier {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 5
	}

	retryOpts := service.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 2
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	return &Classifier{
		client:       client,
		logger:       logger,
		rateLimiter:  newRateLimiter(cfg.RateLimit),
		systemPrompt: BuildSystemPrompt(rules),
		retryOpts:    retryOpts,
		batchSize:    batchSize,
		batchDelay:   cfg.BatchDelay,
		maxDescLen:   cfg.MaxDescriptionLen,
	}
}

// SetProgress installs a progress callback invoked after each batch.
func (c *Classifier) SetProgress(fn service.ProgressFunc) {
	c.progress = fn
}

// Classify resolves every transaction to exactly one classification.
// Batches run sequentially in original order with an inter-batch
// delay; a failed batch degrades to OPEX/low fallback records for its
// members and never blocks later batches.
func (c *Classifier) Classify(ctx context.Context, txns []model.Transaction) ([]model.ClassifiedTransaction, []error) {
	if len(txns) == 0 {
		return nil, nil
	}

	total := len(txns)
	classified := make([]model.ClassifiedTransaction, 0, total)
	var errs []error

	batches := partition(txns, c.batchSize)
	c.logger.Info("Starting model classification",
		"transactions", total,
		"batches", len(batches),
		"batch_size", c.batchSize)

	for i, batch := range batches {
		if i > 0 && c.batchDelay > 0 {
			select {
			case <-ctx.Done():
				// Degrade the rest of the run instead of dropping
				// transactions; every input still gets an outcome.
				for _, remaining := range batches[i:] {
					classified = append(classified, fallbackBatch(remaining, ctx.Err())...)
				}
				errs = append(errs, ctx.Err())
				return classified, errs
			case <-time.After(c.batchDelay):
			}
		}

		decisions, err := c.classifyBatch(ctx, batch)
		if err != nil {
			batchErr := &common.BatchError{Batch: i + 1, Size: len(batch), Err: err}
			c.logger.Warn("Batch failed, using fallback classification",
				"batch", i+1,
				"size", len(batch),
				"error", err)
			errs = append(errs, batchErr)
			classified = append(classified, fallbackBatch(batch, err)...)
		} else {
			for j, txn := range batch {
				classified = append(classified, applyDecision(txn, decisions[j]))
			}
		}

		if c.progress != nil {
			c.progress(len(classified), total)
		}
	}

	c.logger.Info("Model classification complete",
		"classified", len(classified),
		"failed_batches", len(errs))

	return classified, errs
}

// classifyBatch runs one request with rate limiting and bounded retry.
func (c *Classifier) classifyBatch(ctx context.Context, batch []model.Transaction) ([]Decision, error) {
	if err := c.rateLimiter.wait(ctx); err != nil {
		return nil, err
	}

	prompt := buildBatchPrompt(batch, c.maxDescLen)

	var decisions []Decision
	err := common.WithRetry(ctx, func() error {
		content, err := c.client.Complete(ctx, c.systemPrompt, prompt)
		if err != nil {
			return &common.RetryableError{Err: err, Retryable: true}
		}

		parsed, err := ParseDecisions(content)
		if err != nil {
			return &common.RetryableError{Err: err, Retryable: true}
		}
		if len(parsed) != len(batch) {
			return &common.RetryableError{
				Err:       fmt.Errorf("service returned %d decisions for %d transactions", len(parsed), len(batch)),
				Retryable: true,
			}
		}

		decisions = parsed
		return nil
	}, c.retryOpts)

	return decisions, err
}

// applyDecision merges one order-paired decision into its transaction.
func applyDecision(txn model.Transaction, d Decision) model.ClassifiedTransaction {
	assigned := d.Category
	if assigned == "" {
		assigned = txn.Category
	}

	reasoning := "LLM: " + d.Reasoning
	if txn.IsUncategorized() && assigned != model.Uncategorized {
		reasoning += fmt.Sprintf(" (LLM assigned: %s)", assigned)
	}

	return model.Classify(txn, model.ExpenseType(d.Type), assigned, model.MethodLLM, reasoning)
}

// fallbackBatch produces the conservative default for a failed batch.
func fallbackBatch(batch []model.Transaction, cause error) []model.ClassifiedTransaction {
	out := make([]model.ClassifiedTransaction, 0, len(batch))
	for _, txn := range batch {
		out = append(out, model.Classify(txn, model.Opex, "",
			model.MethodErrorFallback, fmt.Sprintf("Error: %v", cause)))
	}
	return out
}

func partition(txns []model.Transaction, size int) [][]model.Transaction {
	var batches [][]model.Transaction
	for start := 0; start < len(txns); start += size {
		end := start + size
		if end > len(txns) {
			end = len(txns)
		}
		batches = append(batches, txns[start:end])
	}
	return batches
}

// Close stops background goroutines and cleans up resources.
func (c *Classifier) Close() error {
	if c.rateLimiter != nil {
		c.rateLimiter.Close()
	}
	return nil
}
