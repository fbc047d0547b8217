package llm

import (
	"context"
)

// Client defines the interface for LLM providers. Complete sends one
// batch request and returns the raw response text; decoding and
// length validation happen in the classifier.
type Client interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Decision is one classification decision from the external service.
// The service returns an ordered list, one per transaction in the
// batch; pairing with the request is order-positional.
type Decision struct {
	Type      string `json:"type"`
	Category  string `json:"category"`
	Reasoning string `json:"reasoning"`
}
