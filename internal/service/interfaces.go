// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/lqlabs/outflow/internal/model"
)

// RowSource loads one tabular export and normalizes it into canonical
// transactions. A failed load is a source-level error; the pipeline
// degrades that source to zero rows and keeps going.
type RowSource interface {
	Name() string
	Load(ctx context.Context) ([]model.Transaction, error)
}

// ModelClassifier resolves transactions the business rules left
// undecided. It always returns exactly one classification per input
// transaction; batch failures surface in errs and as error-fallback
// records, never as missing entries.
type ModelClassifier interface {
	Classify(ctx context.Context, txns []model.Transaction) (classified []model.ClassifiedTransaction, errs []error)
}

// ReportWriter renders the classified set and its aggregates to a
// distributable artifact, returning the artifact path.
type ReportWriter interface {
	Write(ctx context.Context, classified []model.ClassifiedTransaction, report *model.AggregateReport) (string, error)
}

// ProgressFunc receives batch progress during model classification.
type ProgressFunc func(done, total int)

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
