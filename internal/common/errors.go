// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Ingestion errors.
	ErrNoSources      = errors.New("no transaction sources configured")
	ErrMissingColumn  = errors.New("required column missing")
	ErrNoTransactions = errors.New("no transactions to classify")

	// Classifier errors.
	ErrRateLimit     = errors.New("rate limit exceeded")
	ErrMaxRetries    = errors.New("max retries exceeded")
	ErrEmptyResponse = errors.New("empty response from classifier")

	// Configuration errors. These are fatal and abort before any
	// processing begins.
	ErrMissingConfig = errors.New("missing configuration")
	ErrMissingAPIKey = errors.New("missing classifier API key")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// SourceReadError marks one input export as unreadable or malformed.
// Non-fatal: the source degrades to zero transactions and the run
// continues with the other source.
type SourceReadError struct {
	Err    error
	Source string
}

func (e *SourceReadError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Source, e.Err)
}

func (e *SourceReadError) Unwrap() error {
	return e.Err
}

// NewSourceReadError wraps a source-level ingestion failure.
func NewSourceReadError(source string, err error) error {
	return &SourceReadError{Source: source, Err: err}
}

// BatchError marks one classifier batch as failed. Non-fatal: every
// transaction in the batch degrades to the fallback classification and
// later batches proceed untouched.
type BatchError struct {
	Err   error
	Batch int
	Size  int
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("classifier batch %d (%d transactions): %v", e.Batch, e.Size, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// RetryableError wraps an error with retry-specific metadata.
type RetryableError struct {
	Err       error
	Retryable bool
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimit) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
