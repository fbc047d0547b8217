package ingest

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/lqlabs/outflow/internal/common"
	"github.com/lqlabs/outflow/internal/config"
	"github.com/lqlabs/outflow/internal/model"
)

// Kodo Pay reimbursement export columns.
const (
	kodoDrCr      = "Dr/Cr"
	kodoDate      = "Date (IST)"
	kodoAmount    = "Txn Amount (INR)"
	kodoNarration = "Narration on Kodo Pay"
	kodoCategory  = "Category"
	kodoComments  = "Maker Comments"
	kodoMaker     = "Maker Name"
	kodoStatus    = "Outward Payment Status"
)

// Card transactions export columns.
const (
	cardTxnCategory = "Txn Category"
	cardDate        = "Txn Date"
	cardAmount      = "Txn Amount (Rs.)"
	cardMerchant    = "Merchant/Narration"
	cardCategory    = "Expense Category"
	cardNotes       = "Notes"
	cardFirstName   = "Cardholder First Name"
	cardLastName    = "Cardholder Last Name"
)

// KodoPaySource loads the Kodo Pay reimbursement export.
type KodoPaySource struct {
	Path    string
	Filters config.FiltersConfig
}

// Name identifies the source in errors and audit fields.
func (s *KodoPaySource) Name() string { return string(model.SourceKodoPay) }

// Load reads and normalizes the export. A read failure is wrapped as a
// SourceReadError and contributes zero transactions.
func (s *KodoPaySource) Load(_ context.Context) ([]model.Transaction, error) {
	table, err := LoadTable(s.Path)
	if err != nil {
		return nil, common.NewSourceReadError(s.Name(), err)
	}
	txns := NormalizeKodoPay(table, s.Filters)
	slog.Info("Loaded Kodo Pay export",
		"rows", len(table.Rows),
		"transactions", len(txns))
	return txns, nil
}

// NormalizeKodoPay maps Kodo Pay rows into canonical transactions.
// Only debit rows are kept, and rows carrying the internal-transfer
// marker are removed entirely.
func NormalizeKodoPay(table *Table, filters config.FiltersConfig) []model.Transaction {
	var txns []model.Transaction
	for _, row := range table.Rows {
		if row[kodoDrCr] != "Dr" {
			continue
		}

		narration := row[kodoNarration]
		comments := row[kodoComments]
		if isInternalTransfer(filters.TransferMarker, narration, comments) {
			continue
		}

		category := row[kodoCategory]
		if category == "" {
			category = model.Uncategorized
		}
		maker := row[kodoMaker]

		txns = append(txns, model.Transaction{
			Source:      model.SourceKodoPay,
			Date:        row[kodoDate],
			Amount:      parseAmount(row[kodoAmount]),
			Category:    category,
			Narration:   narration,
			Comments:    comments,
			Actor:       maker,
			Description: model.BuildDescription(narration, category, comments, maker, row[kodoStatus]),
		})
	}
	return txns
}

// CardSource loads the card transactions export.
type CardSource struct {
	Path    string
	Filters config.FiltersConfig
}

// Name identifies the source in errors and audit fields.
func (s *CardSource) Name() string { return string(model.SourceCard) }

// Load reads and normalizes the export.
func (s *CardSource) Load(_ context.Context) ([]model.Transaction, error) {
	table, err := LoadTable(s.Path)
	if err != nil {
		return nil, common.NewSourceReadError(s.Name(), err)
	}
	txns := NormalizeCard(table, s.Filters)
	slog.Info("Loaded card transactions export",
		"rows", len(table.Rows),
		"transactions", len(txns))
	return txns, nil
}

// NormalizeCard maps card rows into canonical transactions. Rows whose
// txn category marks funding or a credit reversal are skipped; if the
// export has no txn category column the filter is skipped and all rows
// pass. The internal-transfer filter runs independently afterwards.
func NormalizeCard(table *Table, filters config.FiltersConfig) []model.Transaction {
	filterByCategory := table.HasColumn(cardTxnCategory)

	var txns []model.Transaction
	for _, row := range table.Rows {
		txnCategory := row[cardTxnCategory]
		if filterByCategory && isExcludedCategory(txnCategory, filters.ExcludedCardCategories) {
			continue
		}

		merchant := row[cardMerchant]
		notes := row[cardNotes]
		if isInternalTransfer(filters.TransferMarker, merchant, notes) {
			continue
		}

		category := row[cardCategory]
		if category == "" {
			category = model.Uncategorized
		}
		cardholder := strings.TrimSpace(row[cardFirstName] + " " + row[cardLastName])

		txns = append(txns, model.Transaction{
			Source:      model.SourceCard,
			Date:        row[cardDate],
			Amount:      parseAmount(row[cardAmount]),
			Category:    category,
			Narration:   merchant,
			Comments:    notes,
			Actor:       cardholder,
			Description: model.BuildDescription(merchant, category, notes, cardholder, txnCategory),
		})
	}
	return txns
}

func isExcludedCategory(category string, excluded []string) bool {
	for _, e := range excluded {
		if category == e {
			return true
		}
	}
	return false
}

// isInternalTransfer checks the transfer marker against the free-text
// fields, case-insensitively. Matching rows never reach the
// transaction sequence and are not counted downstream.
func isInternalTransfer(marker string, fields ...string) bool {
	if marker == "" {
		return false
	}
	needle := strings.ToLower(marker)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

// parseAmount reads a source amount. Missing or malformed values
// default to zero rather than failing the row.
func parseAmount(raw string) decimal.Decimal {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if cleaned == "" {
		return decimal.Zero
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		slog.Warn("Unparseable amount, defaulting to zero", "raw", raw)
		return decimal.Zero
	}
	return amount
}
