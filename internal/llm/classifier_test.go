package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lqlabs/outflow/internal/common"
	"github.com/lqlabs/outflow/internal/config"
	"github.com/lqlabs/outflow/internal/model"
)

// mockClient scripts one response per call, in order. A response can be
// a canned string, an error, or a function of the prompt.
type mockClient struct {
	responses []func(userPrompt string) (string, error)
	calls     int
	prompts   []string
}

func (m *mockClient) Complete(_ context.Context, _ string, userPrompt string) (string, error) {
	m.prompts = append(m.prompts, userPrompt)
	if m.calls >= len(m.responses) {
		return "", errors.New("unexpected call")
	}
	fn := m.responses[m.calls]
	m.calls++
	return fn(userPrompt)
}

func respond(decisions []Decision) func(string) (string, error) {
	return func(string) (string, error) {
		raw, _ := json.Marshal(decisions)
		return string(raw), nil
	}
}

func fail(err error) func(string) (string, error) {
	return func(string) (string, error) { return "", err }
}

// echoDecisions answers any prompt with n OPEX decisions, where n is
// the number of numbered entries in the prompt.
func echoDecisions() func(string) (string, error) {
	return func(prompt string) (string, error) {
		n := strings.Count(prompt, "Current Category:")
		decisions := make([]Decision, n)
		for i := range decisions {
			decisions[i] = Decision{Type: "OPEX", Category: "Food", Reasoning: "recurring"}
		}
		raw, _ := json.Marshal(decisions)
		return string(raw), nil
	}
}

func testLLMConfig() config.LLMConfig {
	return config.LLMConfig{
		Provider:          "gemini",
		BatchSize:         2,
		BatchDelay:        0,
		MaxRetries:        1,
		RateLimit:         10000,
		MaxDescriptionLen: 120,
	}
}

func testRules() config.RulesConfig {
	return config.RulesConfig{
		CapexKeyword:   "mechanical hardware",
		ActorVariants:  []string{"vishwanatha"},
		ActorThreshold: 1000,
	}
}

func makeTxns(n int) []model.Transaction {
	txns := make([]model.Transaction, n)
	for i := range txns {
		txns[i] = model.Transaction{
			Source:      model.SourceKodoPay,
			Amount:      decimal.NewFromInt(int64(100 + i)),
			Category:    "Food",
			Actor:       "Asha Rao",
			Description: fmt.Sprintf("item %d | Food |  | Asha Rao | ", i),
		}
	}
	return txns
}

func newTestClassifier(t *testing.T, client Client, cfg config.LLMConfig) *Classifier {
	t.Helper()
	c := NewClassifier(client, cfg, testRules(), slog.Default())
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestClassify(t *testing.T) {
	ctx := context.Background()

	t.Run("empty input yields no output", func(t *testing.T) {
		c := newTestClassifier(t, &mockClient{}, testLLMConfig())

		classified, errs := c.Classify(ctx, nil)

		assert.Empty(t, classified)
		assert.Empty(t, errs)
	})

	t.Run("decisions pair with transactions by position", func(t *testing.T) {
		client := &mockClient{responses: []func(string) (string, error){
			respond([]Decision{
				{Type: "CAPEX", Category: "Equipment", Reasoning: "machine"},
				{Type: "OPEX", Category: "Food", Reasoning: "lunch"},
			}),
		}}
		c := newTestClassifier(t, client, testLLMConfig())

		classified, errs := c.Classify(ctx, makeTxns(2))

		require.Empty(t, errs)
		require.Len(t, classified, 2)
		assert.Equal(t, model.Capex, classified[0].ExpenseType)
		assert.Equal(t, model.Opex, classified[1].ExpenseType)
		assert.Equal(t, model.MethodLLM, classified[0].Method)
		assert.Equal(t, model.ConfidenceLLM, classified[0].Confidence)
		assert.True(t, strings.HasPrefix(classified[0].Reasoning, "LLM: "))
	})

	t.Run("input splits into batches of the configured size", func(t *testing.T) {
		client := &mockClient{responses: []func(string) (string, error){
			echoDecisions(), echoDecisions(), echoDecisions(),
		}}
		c := newTestClassifier(t, client, testLLMConfig())

		classified, errs := c.Classify(ctx, makeTxns(5))

		require.Empty(t, errs)
		assert.Len(t, classified, 5)
		assert.Equal(t, 3, client.calls)
	})

	t.Run("failed batch falls back without blocking later batches", func(t *testing.T) {
		client := &mockClient{responses: []func(string) (string, error){
			fail(errors.New("boom")), fail(errors.New("boom")),
			echoDecisions(),
		}}
		c := newTestClassifier(t, client, testLLMConfig())

		classified, errs := c.Classify(ctx, makeTxns(4))

		require.Len(t, classified, 4)
		require.Len(t, errs, 1)

		var batchErr *common.BatchError
		require.ErrorAs(t, errs[0], &batchErr)
		assert.Equal(t, 1, batchErr.Batch)
		assert.Equal(t, 2, batchErr.Size)

		for _, txn := range classified[:2] {
			assert.Equal(t, model.Opex, txn.ExpenseType)
			assert.Equal(t, model.MethodErrorFallback, txn.Method)
			assert.Equal(t, model.ConfidenceLow, txn.Confidence)
			assert.True(t, strings.HasPrefix(txn.Reasoning, "Error: "))
		}
		assert.Equal(t, model.MethodLLM, classified[2].Method)
	})

	t.Run("decision count mismatch retries then falls back", func(t *testing.T) {
		short := respond([]Decision{{Type: "OPEX", Reasoning: "only one"}})
		cfg := testLLMConfig()
		cfg.MaxRetries = 2
		cfg.RetryDelay = 1
		client := &mockClient{responses: []func(string) (string, error){short, short}}
		c := newTestClassifier(t, client, cfg)

		classified, errs := c.Classify(ctx, makeTxns(2))

		assert.Equal(t, 2, client.calls)
		require.Len(t, errs, 1)
		require.Len(t, classified, 2)
		assert.Equal(t, model.MethodErrorFallback, classified[0].Method)
	})

	t.Run("uncategorized reassignment is annotated", func(t *testing.T) {
		client := &mockClient{responses: []func(string) (string, error){
			respond([]Decision{{Type: "OPEX", Category: "Utilities", Reasoning: "power bill"}}),
		}}
		cfg := testLLMConfig()
		cfg.BatchSize = 5
		c := newTestClassifier(t, client, cfg)

		txns := makeTxns(1)
		txns[0].Category = model.Uncategorized

		classified, errs := c.Classify(ctx, txns)

		require.Empty(t, errs)
		require.Len(t, classified, 1)
		assert.Equal(t, "Utilities", classified[0].AssignedCategory)
		assert.Equal(t, model.Uncategorized, classified[0].OriginalCategory)
		assert.Contains(t, classified[0].Reasoning, "(LLM assigned: Utilities)")
	})

	t.Run("empty decision category keeps the original", func(t *testing.T) {
		client := &mockClient{responses: []func(string) (string, error){
			respond([]Decision{{Type: "OPEX", Reasoning: "recurring"}}),
		}}
		cfg := testLLMConfig()
		cfg.BatchSize = 5
		c := newTestClassifier(t, client, cfg)

		classified, errs := c.Classify(ctx, makeTxns(1))

		require.Empty(t, errs)
		assert.Equal(t, "Food", classified[0].AssignedCategory)
	})

	t.Run("progress reports after each batch", func(t *testing.T) {
		client := &mockClient{responses: []func(string) (string, error){
			echoDecisions(), echoDecisions(),
		}}
		c := newTestClassifier(t, client, testLLMConfig())

		var reports [][2]int
		c.SetProgress(func(done, total int) {
			reports = append(reports, [2]int{done, total})
		})

		_, errs := c.Classify(ctx, makeTxns(3))

		require.Empty(t, errs)
		assert.Equal(t, [][2]int{{2, 3}, {3, 3}}, reports)
	})

	t.Run("canceled context degrades remaining batches", func(t *testing.T) {
		client := &mockClient{responses: []func(string) (string, error){
			echoDecisions(),
		}}
		cfg := testLLMConfig()
		cfg.BatchDelay = 50_000_000 // 50ms
		c := newTestClassifier(t, client, cfg)

		cancelCtx, cancel := context.WithCancel(ctx)
		c.SetProgress(func(_, _ int) { cancel() })

		classified, errs := c.Classify(cancelCtx, makeTxns(4))

		require.Len(t, classified, 4)
		require.NotEmpty(t, errs)
		assert.Equal(t, model.MethodLLM, classified[0].Method)
		assert.Equal(t, model.MethodErrorFallback, classified[2].Method)
		assert.Equal(t, model.MethodErrorFallback, classified[3].Method)
	})
}

func TestBuildBatchPrompt(t *testing.T) {
	txns := []model.Transaction{
		{
			Source:      model.SourceKodoPay,
			Amount:      decimal.RequireFromString("1250.50"),
			Category:    model.Uncategorized,
			Actor:       "Asha Rao",
			Description: "laptop stand | Uncategorized |  | Asha Rao | SUCCESS",
		},
		{
			Source:      model.SourceCard,
			Amount:      decimal.NewFromInt(480),
			Category:    "Fuel",
			Actor:       "Ravi Kumar",
			Description: strings.Repeat("x", 200),
		},
	}

	prompt := buildBatchPrompt(txns, 120)

	assert.Contains(t, prompt, "1. ₹1250.50")
	assert.Contains(t, prompt, "2. ₹480.00")
	assert.Contains(t, prompt, "Maker: Asha Rao")
	assert.Contains(t, prompt, "Cardholder: Ravi Kumar")
	assert.Contains(t, prompt, "Current Category: Uncategorized")
	assert.NotContains(t, prompt, strings.Repeat("x", 121))
	assert.Contains(t, prompt, strings.Repeat("x", 120))
}

func TestBuildSystemPrompt(t *testing.T) {
	prompt := BuildSystemPrompt(testRules())

	assert.Contains(t, prompt, "mechanical hardware")
	assert.Contains(t, prompt, "vishwanatha")
	assert.Contains(t, prompt, "1000")
	assert.Contains(t, prompt, "JSON array")
}

func TestPartition(t *testing.T) {
	txns := makeTxns(5)

	batches := partition(txns, 2)

	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 2)
	assert.Len(t, batches[1], 2)
	assert.Len(t, batches[2], 1)

	assert.Nil(t, partition(nil, 2))
}
