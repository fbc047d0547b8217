package llm

import (
	"fmt"
	"strings"

	"github.com/lqlabs/outflow/internal/config"
	"github.com/lqlabs/outflow/internal/model"
)

// BuildSystemPrompt renders the fixed system instruction. It restates
// the deterministic business rules so the model never contradicts the
// rule classifier on transactions that slipped past it.
func BuildSystemPrompt(rules config.RulesConfig) string {
	return fmt.Sprintf(`You are a financial analyst for a HARDWARE COMPANY.

CRITICAL BUSINESS RULES:
1. ALL "%s" is CAPEX (since we are a hardware company).
2. If Maker/User is %q AND Category is "Uncategorized" AND Amount > %.0f -> Assign as CAPEX (Equipment).

Categorization Guidelines:
1. Categorize as CAPEX or OPEX
2. If the category is "Uncategorized", assign a proper category based on the description

CAPEX (Capital Expenditure): One-time investments for long-term use
- Equipment, machinery, electronics, IT infrastructure, construction
- Examples: Laptops, manufacturing machines, CCTV, office furniture, vehicles

OPEX (Operating Expenditure): Regular/recurring purchases
- Rent, utilities, supplies, food, travel, salaries, maintenance
- Examples: Electricity bills, office supplies, groceries, fuel, hotel stays

Common Categories:
- Food, Grocery, Office Supplies, Utilities, Rent, Travel, Commute
- Electronics, Mechanical Hardware, IT, Lab Work, Construction
- Logistics, Labour, Dog Care, Maintenance

Respond with a JSON array, one object per transaction in the same
order they are listed, each shaped as:
{"type": "CAPEX" or "OPEX", "category": "assigned category name (use existing if not Uncategorized)", "reasoning": "brief explanation"}

Return ONLY the raw JSON array. Do not wrap it in code fences.`,
		rules.CapexKeyword,
		firstVariant(rules.ActorVariants),
		rules.ActorThreshold)
}

func firstVariant(variants []string) string {
	if len(variants) == 0 {
		return ""
	}
	return variants[0]
}

// buildBatchPrompt renders the user payload for one batch: amount,
// current category, actor, and a bounded-length description per
// transaction. The numbering is the order contract the response must
// follow.
func buildBatchPrompt(batch []model.Transaction, maxDescriptionLen int) string {
	var sb strings.Builder
	sb.WriteString("Categorize and assign proper categories:\n\n")

	for i, txn := range batch {
		actorLabel := "Cardholder"
		if txn.Source == model.SourceKodoPay {
			actorLabel = "Maker"
		}
		actor := txn.Actor
		if actor == "" {
			actor = "N/A"
		}

		fmt.Fprintf(&sb, "%d. ₹%s\n", i+1, txn.Amount.StringFixed(2))
		fmt.Fprintf(&sb, "   Current Category: %s\n", txn.Category)
		fmt.Fprintf(&sb, "   %s: %s\n", actorLabel, actor)
		fmt.Fprintf(&sb, "   Description: %s\n\n", truncate(txn.Description, maxDescriptionLen))
	}

	return sb.String()
}

func truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
