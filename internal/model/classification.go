// Package model defines the core domain models used throughout the application.
package model

// ExpenseType is the capital/operating split every transaction resolves to.
type ExpenseType string

// Expense type constants.
const (
	Capex ExpenseType = "CAPEX"
	Opex  ExpenseType = "OPEX"
)

// Method records which path produced a classification decision.
type Method string

// Classification methods.
const (
	MethodBusinessRule  Method = "business-rule"
	MethodLLM           Method = "pure-llm"
	MethodErrorFallback Method = "error-fallback"
)

// Confidence is the coarse trust tier tied 1:1 to the method.
type Confidence string

// Confidence tiers.
const (
	ConfidenceHigh Confidence = "high"
	ConfidenceLLM  Confidence = "llm"
	ConfidenceLow  Confidence = "low"
)

// ConfidenceFor maps a decision method to its trust tier. The mapping
// is fixed; confidence is never inferred after the fact.
func ConfidenceFor(m Method) Confidence {
	switch m {
	case MethodBusinessRule:
		return ConfidenceHigh
	case MethodLLM:
		return ConfidenceLLM
	default:
		return ConfidenceLow
	}
}

// ClassifiedTransaction is a Transaction plus its classification
// outcome. OriginalCategory preserves the pre-classification label for
// audit even when a rule or the model reassigns it.
type ClassifiedTransaction struct {
	Transaction
	ExpenseType      ExpenseType
	AssignedCategory string
	OriginalCategory string
	Method           Method
	Confidence       Confidence
	Reasoning        string
}

// Classify builds the outcome record for a transaction, stamping the
// confidence tier from the method and keeping the original category.
func Classify(txn Transaction, expenseType ExpenseType, assignedCategory string, method Method, reasoning string) ClassifiedTransaction {
	if assignedCategory == "" {
		assignedCategory = txn.Category
	}
	return ClassifiedTransaction{
		Transaction:      txn,
		ExpenseType:      expenseType,
		AssignedCategory: assignedCategory,
		OriginalCategory: txn.Category,
		Method:           method,
		Confidence:       ConfidenceFor(method),
		Reasoning:        reasoning,
	}
}
