package report

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/lqlabs/outflow/internal/model"
)

func TestWriterWrite(t *testing.T) {
	dir := t.TempDir()

	input := []model.ClassifiedTransaction{
		model.Classify(
			model.Transaction{
				Source:      model.SourceKodoPay,
				Date:        "01/04/2025",
				Amount:      decimal.RequireFromString("2500.00"),
				Category:    "Mechanical Hardware",
				Description: "bearings | Mechanical Hardware |  | Asha Rao | SUCCESS",
			},
			model.Capex, "", model.MethodBusinessRule, "hardware purchase"),
		model.Classify(
			model.Transaction{
				Source:      model.SourceCard,
				Date:        "02/04/2025",
				Amount:      decimal.RequireFromString("480.00"),
				Category:    "Fuel",
				Description: strings.Repeat("d", 150),
			},
			model.Opex, "", model.MethodLLM, "recurring fuel spend"),
	}
	report := Aggregate(input)

	writer := NewWriter(dir, slog.Default())
	path, err := writer.Write(context.Background(), input, report)
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "Financial_Statement_"))
	assert.True(t, strings.HasSuffix(path, ".xlsx"))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	t.Run("workbook has all four sheets", func(t *testing.T) {
		sheets := f.GetSheetList()
		assert.Contains(t, sheets, sheetSummary)
		assert.Contains(t, sheets, sheetCapex)
		assert.Contains(t, sheets, sheetOpex)
		assert.Contains(t, sheets, sheetAnalysis)
	})

	t.Run("summary carries the totals", func(t *testing.T) {
		title, err := f.GetCellValue(sheetSummary, "A1")
		require.NoError(t, err)
		assert.Equal(t, "FINANCIAL ANALYSIS REPORT", title)

		capexLabel, err := f.GetCellValue(sheetSummary, "A18")
		require.NoError(t, err)
		assert.Equal(t, "CAPEX", capexLabel)

		totalCount, err := f.GetCellValue(sheetSummary, "D20")
		require.NoError(t, err)
		assert.Equal(t, "2", totalCount)
	})

	t.Run("statement sheets split by expense type", func(t *testing.T) {
		capexCat, err := f.GetCellValue(sheetCapex, "C4")
		require.NoError(t, err)
		assert.Equal(t, "Mechanical Hardware", capexCat)

		opexCat, err := f.GetCellValue(sheetOpex, "C4")
		require.NoError(t, err)
		assert.Equal(t, "Fuel", opexCat)

		method, err := f.GetCellValue(sheetOpex, "F4")
		require.NoError(t, err)
		assert.Equal(t, string(model.MethodLLM), method)
	})

	t.Run("long descriptions are truncated on the sheet", func(t *testing.T) {
		desc, err := f.GetCellValue(sheetOpex, "E4")
		require.NoError(t, err)
		assert.Len(t, desc, descriptionColumnLimit)
	})

	t.Run("analysis sheet lists categories", func(t *testing.T) {
		capexCat, err := f.GetCellValue(sheetAnalysis, "A5")
		require.NoError(t, err)
		assert.Equal(t, "Mechanical Hardware", capexCat)
	})
}

func TestWriterEmptyRun(t *testing.T) {
	dir := t.TempDir()
	writer := NewWriter(dir, slog.Default())

	path, err := writer.Write(context.Background(), nil, Aggregate(nil))
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Len(t, f.GetSheetList(), 4)
}

func TestWriterBadOutputDir(t *testing.T) {
	writer := NewWriter(filepath.Join(t.TempDir(), "does", "not", "exist"), slog.Default())

	_, err := writer.Write(context.Background(), nil, Aggregate(nil))
	assert.Error(t, err)
}
