package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Source identifies which export a transaction came from.
type Source string

// Known transaction sources.
const (
	SourceKodoPay Source = "Kodo-Pay"
	SourceCard    Source = "Transactions"
)

// Uncategorized is the sentinel category for transactions the source
// export left unlabeled.
const Uncategorized = "Uncategorized"

// Transaction is the canonical record both sources normalize into.
// Amounts are always debits; credits are filtered out upstream and
// never represented here.
type Transaction struct {
	Source      Source
	Date        string // source-native format, display only
	Amount      decimal.Decimal
	Category    string
	Narration   string
	Comments    string
	Actor       string // maker name or cardholder name
	Description string // pipe-joined evidence text, built once at normalization
}

// BuildDescription joins the classification evidence fields into the
// single text the model classifier sees. Built exactly once per record.
func BuildDescription(narration, category, comments, actor, extra string) string {
	return strings.Join([]string{narration, category, comments, actor, extra}, " | ")
}

// IsUncategorized reports whether the source left this transaction unlabeled.
func (t Transaction) IsUncategorized() bool {
	return t.Category == Uncategorized
}
