// Package rules implements the deterministic business-rule classifier.
// Rules are evaluated in a fixed order and the first match wins; a
// matched transaction never reaches the model classifier.
package rules

import (
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/lqlabs/outflow/internal/config"
	"github.com/lqlabs/outflow/internal/model"
)

// Rule is one deterministic classification rule. Apply must be pure
// and side-effect-free; ok reports whether the rule matched.
type Rule interface {
	Name() string
	Apply(txn model.Transaction) (result model.ClassifiedTransaction, ok bool)
}

// Classifier evaluates an ordered rule list against each transaction.
type Classifier struct {
	rules []Rule
}

// NewClassifier builds the canonical rule set from configuration.
func NewClassifier(cfg config.RulesConfig) *Classifier {
	return &Classifier{
		rules: []Rule{
			&KeywordRule{
				Keyword:   cfg.CapexKeyword,
				Reasoning: cfg.KeywordReasoning,
			},
			&ActorThresholdRule{
				Variants:  cfg.ActorVariants,
				Threshold: decimal.NewFromFloat(cfg.ActorThreshold),
				Category:  cfg.ActorCategory,
				Reasoning: cfg.ActorReasoning,
			},
		},
	}
}

// Append adds a rule after the existing ones. The rest of the pipeline
// is untouched by rule set changes.
func (c *Classifier) Append(r Rule) {
	c.rules = append(c.rules, r)
}

// Rules returns the active rules in evaluation order.
func (c *Classifier) Rules() []Rule {
	return c.rules
}

// Classify splits transactions into rule-matched classifications and
// unresolved transactions for the model path. Order is preserved in
// both outputs.
func (c *Classifier) Classify(txns []model.Transaction) ([]model.ClassifiedTransaction, []model.Transaction) {
	var matched []model.ClassifiedTransaction
	var unresolved []model.Transaction

	for _, txn := range txns {
		if result, ok := c.apply(txn); ok {
			matched = append(matched, result)
			continue
		}
		unresolved = append(unresolved, txn)
	}

	slog.Info("Applied business rules",
		"matched", len(matched),
		"unresolved", len(unresolved))

	return matched, unresolved
}

func (c *Classifier) apply(txn model.Transaction) (model.ClassifiedTransaction, bool) {
	for _, rule := range c.rules {
		if result, ok := rule.Apply(txn); ok {
			return result, true
		}
	}
	return model.ClassifiedTransaction{}, false
}

// KeywordRule classifies CAPEX when the keyword appears anywhere in
// the category or the full description text, case-insensitively. This
// is containment over free text, not category equality.
type KeywordRule struct {
	Keyword   string
	Reasoning string
}

// Name implements Rule.
func (r *KeywordRule) Name() string { return "capex-keyword" }

// Apply implements Rule.
func (r *KeywordRule) Apply(txn model.Transaction) (model.ClassifiedTransaction, bool) {
	if r.Keyword == "" {
		return model.ClassifiedTransaction{}, false
	}
	keyword := strings.ToLower(r.Keyword)
	text := strings.ToLower(txn.Category + " " + txn.Description)
	if !strings.Contains(text, keyword) {
		return model.ClassifiedTransaction{}, false
	}
	return model.Classify(txn, model.Capex, "", model.MethodBusinessRule, r.Reasoning), true
}

// ActorThresholdRule classifies CAPEX when a known actor's
// uncategorized spend exceeds the threshold, reassigning the category.
type ActorThresholdRule struct {
	Variants  []string
	Threshold decimal.Decimal
	Category  string
	Reasoning string
}

// Name implements Rule.
func (r *ActorThresholdRule) Name() string { return "actor-threshold" }

// Apply implements Rule.
func (r *ActorThresholdRule) Apply(txn model.Transaction) (model.ClassifiedTransaction, bool) {
	if !txn.IsUncategorized() || !txn.Amount.GreaterThan(r.Threshold) {
		return model.ClassifiedTransaction{}, false
	}
	actor := strings.ToLower(txn.Actor)
	for _, variant := range r.Variants {
		if variant != "" && strings.Contains(actor, strings.ToLower(variant)) {
			return model.Classify(txn, model.Capex, r.Category, model.MethodBusinessRule, r.Reasoning), true
		}
	}
	return model.ClassifiedTransaction{}, false
}
