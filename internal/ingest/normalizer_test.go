package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lqlabs/outflow/internal/common"
	"github.com/lqlabs/outflow/internal/config"
	"github.com/lqlabs/outflow/internal/model"
)

func testFilters() config.FiltersConfig {
	return config.FiltersConfig{
		ExcludedCardCategories: []string{"FUNDING", "CARD_CREDIT"},
		TransferMarker:         "LQ Prepaid",
	}
}

func kodoRow(overrides map[string]string) Row {
	row := Row{
		kodoDrCr:      "Dr",
		kodoDate:      "01/04/2025",
		kodoAmount:    "1,250.50",
		kodoNarration: "laptop stand",
		kodoCategory:  "Office Supplies",
		kodoComments:  "for standing desk",
		kodoMaker:     "Asha Rao",
		kodoStatus:    "SUCCESS",
	}
	for k, v := range overrides {
		row[k] = v
	}
	return row
}

func TestNormalizeKodoPay(t *testing.T) {
	t.Run("debit row becomes a transaction", func(t *testing.T) {
		table := &Table{Rows: []Row{kodoRow(nil)}}

		txns := NormalizeKodoPay(table, testFilters())

		require.Len(t, txns, 1)
		txn := txns[0]
		assert.Equal(t, model.SourceKodoPay, txn.Source)
		assert.True(t, txn.Amount.Equal(decimal.RequireFromString("1250.50")))
		assert.Equal(t, "Office Supplies", txn.Category)
		assert.Equal(t, "Asha Rao", txn.Actor)
		assert.Equal(t, "laptop stand | Office Supplies | for standing desk | Asha Rao | SUCCESS", txn.Description)
	})

	t.Run("credit rows are dropped", func(t *testing.T) {
		table := &Table{Rows: []Row{kodoRow(map[string]string{kodoDrCr: "Cr"})}}
		assert.Empty(t, NormalizeKodoPay(table, testFilters()))
	})

	t.Run("transfer marker removes the row regardless of case", func(t *testing.T) {
		tests := []struct {
			name string
			row  Row
		}{
			{name: "marker in narration", row: kodoRow(map[string]string{kodoNarration: "transfer to lq prepaid card"})},
			{name: "marker in comments", row: kodoRow(map[string]string{kodoComments: "LQ PREPAID top-up"})},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				table := &Table{Rows: []Row{tt.row}}
				assert.Empty(t, NormalizeKodoPay(table, testFilters()))
			})
		}
	})

	t.Run("missing category defaults to uncategorized", func(t *testing.T) {
		table := &Table{Rows: []Row{kodoRow(map[string]string{kodoCategory: ""})}}

		txns := NormalizeKodoPay(table, testFilters())

		require.Len(t, txns, 1)
		assert.Equal(t, model.Uncategorized, txns[0].Category)
		assert.True(t, txns[0].IsUncategorized())
	})

	t.Run("malformed amount defaults to zero", func(t *testing.T) {
		table := &Table{Rows: []Row{kodoRow(map[string]string{kodoAmount: "n/a"})}}

		txns := NormalizeKodoPay(table, testFilters())

		require.Len(t, txns, 1)
		assert.True(t, txns[0].Amount.IsZero())
	})
}

func cardRow(overrides map[string]string) Row {
	row := Row{
		cardTxnCategory: "PURCHASE",
		cardDate:        "02/04/2025",
		cardAmount:      "480.00",
		cardMerchant:    "Highway Fuels",
		cardCategory:    "Fuel",
		cardNotes:       "site visit",
		cardFirstName:   "Ravi",
		cardLastName:    "Kumar",
	}
	for k, v := range overrides {
		row[k] = v
	}
	return row
}

func TestNormalizeCard(t *testing.T) {
	headers := []string{
		cardTxnCategory, cardDate, cardAmount, cardMerchant,
		cardCategory, cardNotes, cardFirstName, cardLastName,
	}

	t.Run("purchase row becomes a transaction", func(t *testing.T) {
		table := &Table{Headers: headers, Rows: []Row{cardRow(nil)}}

		txns := NormalizeCard(table, testFilters())

		require.Len(t, txns, 1)
		txn := txns[0]
		assert.Equal(t, model.SourceCard, txn.Source)
		assert.Equal(t, "Ravi Kumar", txn.Actor)
		assert.Equal(t, "Highway Fuels | Fuel | site visit | Ravi Kumar | PURCHASE", txn.Description)
	})

	t.Run("funding and credit rows are excluded", func(t *testing.T) {
		table := &Table{Headers: headers, Rows: []Row{
			cardRow(map[string]string{cardTxnCategory: "FUNDING"}),
			cardRow(map[string]string{cardTxnCategory: "CARD_CREDIT"}),
			cardRow(nil),
		}}

		txns := NormalizeCard(table, testFilters())

		require.Len(t, txns, 1)
		assert.Equal(t, "Highway Fuels", txns[0].Narration)
	})

	t.Run("missing txn category column disables the exclusion filter", func(t *testing.T) {
		noCatHeaders := []string{cardDate, cardAmount, cardMerchant, cardCategory, cardNotes, cardFirstName, cardLastName}
		row := cardRow(nil)
		delete(row, cardTxnCategory)
		table := &Table{Headers: noCatHeaders, Rows: []Row{row}}

		txns := NormalizeCard(table, testFilters())

		assert.Len(t, txns, 1)
	})

	t.Run("transfer marker in merchant or notes removes the row", func(t *testing.T) {
		table := &Table{Headers: headers, Rows: []Row{
			cardRow(map[string]string{cardMerchant: "lq prepaid reload"}),
			cardRow(map[string]string{cardNotes: "moved to LQ Prepaid"}),
		}}

		assert.Empty(t, NormalizeCard(table, testFilters()))
	})

	t.Run("cardholder name trims missing last name", func(t *testing.T) {
		table := &Table{Headers: headers, Rows: []Row{cardRow(map[string]string{cardLastName: ""})}}

		txns := NormalizeCard(table, testFilters())

		require.Len(t, txns, 1)
		assert.Equal(t, "Ravi", txns[0].Actor)
	})
}

func TestLoadTable(t *testing.T) {
	t.Run("reads headers and skips empty rows", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "export.csv")
		content := "Name, Amount\nchair,1200\n,\ndesk,\"4,500\"\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		table, err := LoadTable(path)

		require.NoError(t, err)
		assert.Equal(t, []string{"Name", "Amount"}, table.Headers)
		require.Len(t, table.Rows, 2)
		assert.Equal(t, "4,500", table.Rows[1]["Amount"])
		assert.True(t, table.HasColumn("Amount"))
		assert.False(t, table.HasColumn("Missing"))
	})

	t.Run("short records backfill empty cells", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ragged.csv")
		require.NoError(t, os.WriteFile(path, []byte("A,B,C\n1,2\n"), 0o600))

		table, err := LoadTable(path)

		require.NoError(t, err)
		require.Len(t, table.Rows, 1)
		assert.Equal(t, "", table.Rows[0]["C"])
	})

	t.Run("missing file returns an error", func(t *testing.T) {
		_, err := LoadTable(filepath.Join(t.TempDir(), "nope.csv"))
		assert.Error(t, err)
	})

	t.Run("empty file returns an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.csv")
		require.NoError(t, os.WriteFile(path, nil, 0o600))

		_, err := LoadTable(path)
		assert.Error(t, err)
	})
}

func TestSourceLoad(t *testing.T) {
	t.Run("read failure is wrapped as a source error", func(t *testing.T) {
		src := &KodoPaySource{Path: filepath.Join(t.TempDir(), "missing.csv"), Filters: testFilters()}

		_, err := src.Load(context.Background())

		require.Error(t, err)
		var srcErr *common.SourceReadError
		require.ErrorAs(t, err, &srcErr)
		assert.Equal(t, string(model.SourceKodoPay), srcErr.Source)
	})

	t.Run("card source loads end to end", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "card.csv")
		content := "Txn Category,Txn Date,Txn Amount (Rs.),Merchant/Narration,Expense Category,Notes,Cardholder First Name,Cardholder Last Name\n" +
			"PURCHASE,02/04/2025,480.00,Highway Fuels,Fuel,site visit,Ravi,Kumar\n" +
			"FUNDING,02/04/2025,10000.00,Wallet Load,,,Ravi,Kumar\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		src := &CardSource{Path: path, Filters: testFilters()}
		txns, err := src.Load(context.Background())

		require.NoError(t, err)
		require.Len(t, txns, 1)
		assert.Equal(t, "Fuel", txns[0].Category)
	})
}
