package report

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/lqlabs/outflow/internal/model"
)

const (
	sheetSummary  = "Executive Summary"
	sheetCapex    = "CAPEX Statement"
	sheetOpex     = "OPEX Statement"
	sheetAnalysis = "Category Analysis"

	currencyFormat = "₹#,##0.00"
	percentFormat  = "0.0%"

	headerFillColor = "1F4E78"

	// Statement sheets truncate descriptions for readability; the full
	// text stays on the record itself.
	descriptionColumnLimit = 100
)

// Writer renders the classified set and aggregates into a multi-sheet
// XLSX workbook.
type Writer struct {
	logger    *slog.Logger
	outputDir string
}

// NewWriter creates a workbook report writer targeting outputDir.
func NewWriter(outputDir string, logger *slog.Logger) *Writer {
	if outputDir == "" {
		outputDir = "."
	}
	return &Writer{outputDir: outputDir, logger: logger}
}

type styles struct {
	title    int
	subtitle int
	header   int
	cell     int
	currency int
	percent  int
	bold     int
}

// Write renders the workbook and returns its path.
func (w *Writer) Write(_ context.Context, classified []model.ClassifiedTransaction, report *model.AggregateReport) (string, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	st, err := buildStyles(f)
	if err != nil {
		return "", fmt.Errorf("failed to build styles: %w", err)
	}

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return "", fmt.Errorf("failed to rename summary sheet: %w", err)
	}
	if err := w.writeSummary(f, st, classified, report); err != nil {
		return "", err
	}

	capex, opex := splitByType(classified)
	if err := w.writeStatement(f, st, sheetCapex, "CAPITAL EXPENDITURES", capex); err != nil {
		return "", err
	}
	if err := w.writeStatement(f, st, sheetOpex, "OPERATING EXPENDITURES", opex); err != nil {
		return "", err
	}
	if err := w.writeAnalysis(f, st, report); err != nil {
		return "", err
	}

	path := filepath.Join(w.outputDir,
		fmt.Sprintf("Financial_Statement_%s.xlsx", time.Now().Format("20060102_150405")))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}

	w.logger.Info("Report written",
		"path", path,
		"records", len(classified))

	return path, nil
}

func buildStyles(f *excelize.File) (*styles, error) {
	border := []excelize.Border{
		{Type: "left", Style: 1, Color: "000000"},
		{Type: "right", Style: 1, Color: "000000"},
		{Type: "top", Style: 1, Color: "000000"},
		{Type: "bottom", Style: 1, Color: "000000"},
	}

	title, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 16}})
	if err != nil {
		return nil, err
	}
	subtitle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 12}})
	if err != nil {
		return nil, err
	}
	header, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFillColor}},
		Border: border,
	})
	if err != nil {
		return nil, err
	}
	cell, err := f.NewStyle(&excelize.Style{
		Border:    border,
		Alignment: &excelize.Alignment{Horizontal: "left", WrapText: true},
	})
	if err != nil {
		return nil, err
	}
	currencyFmt := currencyFormat
	currency, err := f.NewStyle(&excelize.Style{Border: border, CustomNumFmt: &currencyFmt})
	if err != nil {
		return nil, err
	}
	percentFmt := percentFormat
	percent, err := f.NewStyle(&excelize.Style{Border: border, CustomNumFmt: &percentFmt})
	if err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, Border: border})
	if err != nil {
		return nil, err
	}

	return &styles{
		title:    title,
		subtitle: subtitle,
		header:   header,
		cell:     cell,
		currency: currency,
		percent:  percent,
		bold:     bold,
	}, nil
}

func (w *Writer) writeSummary(f *excelize.File, st *styles, classified []model.ClassifiedTransaction, report *model.AggregateReport) error {
	stats := computeStats(classified)

	setCell(f, sheetSummary, "A1", "FINANCIAL ANALYSIS REPORT")
	_ = f.SetCellStyle(sheetSummary, "A1", "A1", st.title)
	_ = f.MergeCell(sheetSummary, "A1", "D1")

	setCell(f, sheetSummary, "A2", fmt.Sprintf("Generated: %s", time.Now().Format("January 2, 2006 at 3:04 PM")))
	setCell(f, sheetSummary, "A3", "Method: business rules + LLM classification")

	setCell(f, sheetSummary, "A5", "ANALYSIS NOTES")
	_ = f.SetCellStyle(sheetSummary, "A5", "A5", st.subtitle)
	notes := []string{
		fmt.Sprintf("• Total Transactions: %d", report.TotalCount),
		fmt.Sprintf("• Business Rules Applied: %d", stats.byRule),
		fmt.Sprintf("• LLM Categorized: %d", stats.byLLM),
		fmt.Sprintf("• Error Fallbacks: %d", stats.byFallback),
		fmt.Sprintf("• Originally Uncategorized: %d", stats.uncategorizedOriginal),
		fmt.Sprintf("• Assigned Categories: %d", stats.uncategorizedAssigned),
		fmt.Sprintf("• Still Uncategorized: %d", stats.uncategorizedRemaining),
		"• Internal transfers: excluded at ingestion",
	}
	for i, note := range notes {
		setCell(f, sheetSummary, fmt.Sprintf("A%d", 6+i), note)
	}

	setCell(f, sheetSummary, "A15", "EXPENDITURE SUMMARY")
	_ = f.SetCellStyle(sheetSummary, "A15", "A15", st.subtitle)
	_ = f.MergeCell(sheetSummary, "A15", "D15")

	headers := []string{"Type", "Amount (INR)", "%", "Count"}
	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 17)
		setCell(f, sheetSummary, cell, h)
	}
	_ = f.SetCellStyle(sheetSummary, "A17", "D17", st.header)

	rows := []struct {
		label  string
		amount float64
		share  float64
		count  int
	}{
		{"CAPEX", report.CapexAmount.InexactFloat64(), report.CapexShare(), report.CapexCount},
		{"OPEX", report.OpexAmount.InexactFloat64(), report.OpexShare(), report.OpexCount},
		{"TOTAL", report.TotalAmount.InexactFloat64(), totalShare(report), report.TotalCount},
	}
	for i, row := range rows {
		r := 18 + i
		setCell(f, sheetSummary, fmt.Sprintf("A%d", r), row.label)
		setCell(f, sheetSummary, fmt.Sprintf("B%d", r), row.amount)
		setCell(f, sheetSummary, fmt.Sprintf("C%d", r), row.share)
		setCell(f, sheetSummary, fmt.Sprintf("D%d", r), row.count)
		_ = f.SetCellStyle(sheetSummary, fmt.Sprintf("A%d", r), fmt.Sprintf("A%d", r), st.cell)
		_ = f.SetCellStyle(sheetSummary, fmt.Sprintf("B%d", r), fmt.Sprintf("B%d", r), st.currency)
		_ = f.SetCellStyle(sheetSummary, fmt.Sprintf("C%d", r), fmt.Sprintf("C%d", r), st.percent)
		_ = f.SetCellStyle(sheetSummary, fmt.Sprintf("D%d", r), fmt.Sprintf("D%d", r), st.cell)
	}
	_ = f.SetCellStyle(sheetSummary, "A20", "A20", st.bold)

	_ = f.SetColWidth(sheetSummary, "A", "A", 45)
	_ = f.SetColWidth(sheetSummary, "B", "B", 20)
	_ = f.SetColWidth(sheetSummary, "C", "C", 15)
	_ = f.SetColWidth(sheetSummary, "D", "D", 12)

	return nil
}

// writeStatement renders one full record listing. CAPEX and OPEX share
// this layout.
func (w *Writer) writeStatement(f *excelize.File, st *styles, sheet, title string, txns []model.ClassifiedTransaction) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	setCell(f, sheet, "A1", title)
	_ = f.SetCellStyle(sheet, "A1", "A1", st.title)
	_ = f.MergeCell(sheet, "A1", "G1")

	headers := []string{"Date", "Source", "Category", "Amount", "Description", "Method", "Reasoning"}
	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 3)
		setCell(f, sheet, cell, h)
	}
	_ = f.SetCellStyle(sheet, "A3", "G3", st.header)

	for i, txn := range txns {
		r := 4 + i
		setCell(f, sheet, fmt.Sprintf("A%d", r), txn.Date)
		setCell(f, sheet, fmt.Sprintf("B%d", r), string(txn.Source))
		setCell(f, sheet, fmt.Sprintf("C%d", r), txn.AssignedCategory)
		setCell(f, sheet, fmt.Sprintf("D%d", r), txn.Amount.InexactFloat64())
		setCell(f, sheet, fmt.Sprintf("E%d", r), truncate(txn.Description, descriptionColumnLimit))
		setCell(f, sheet, fmt.Sprintf("F%d", r), string(txn.Method))
		setCell(f, sheet, fmt.Sprintf("G%d", r), txn.Reasoning)

		_ = f.SetCellStyle(sheet, fmt.Sprintf("A%d", r), fmt.Sprintf("G%d", r), st.cell)
		_ = f.SetCellStyle(sheet, fmt.Sprintf("D%d", r), fmt.Sprintf("D%d", r), st.currency)
	}

	widths := []struct {
		col   string
		width float64
	}{
		{"A", 12}, {"B", 15}, {"C", 20}, {"D", 18}, {"E", 35}, {"F", 15}, {"G", 40},
	}
	for _, cw := range widths {
		_ = f.SetColWidth(sheet, cw.col, cw.col, cw.width)
	}

	return nil
}

func (w *Writer) writeAnalysis(f *excelize.File, st *styles, report *model.AggregateReport) error {
	if _, err := f.NewSheet(sheetAnalysis); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheetAnalysis, err)
	}

	setCell(f, sheetAnalysis, "A1", "CATEGORY BREAKDOWN")
	_ = f.SetCellStyle(sheetAnalysis, "A1", "A1", st.title)
	_ = f.MergeCell(sheetAnalysis, "A1", "C1")

	row := 3
	row = w.writeBreakdown(f, st, "CAPEX BY CATEGORY", report.CapexByCategory, report.CapexAmount.InexactFloat64(), row)
	row += 2
	w.writeBreakdown(f, st, "OPEX BY CATEGORY", report.OpexByCategory, report.OpexAmount.InexactFloat64(), row)

	_ = f.SetColWidth(sheetAnalysis, "A", "A", 30)
	_ = f.SetColWidth(sheetAnalysis, "B", "B", 20)
	_ = f.SetColWidth(sheetAnalysis, "C", "C", 15)

	return nil
}

// writeBreakdown renders one per-category table and returns the row
// after its last entry.
func (w *Writer) writeBreakdown(f *excelize.File, st *styles, title string, totals []model.CategoryTotal, typeTotal float64, startRow int) int {
	setCell(f, sheetAnalysis, fmt.Sprintf("A%d", startRow), title)
	_ = f.SetCellStyle(sheetAnalysis, fmt.Sprintf("A%d", startRow), fmt.Sprintf("A%d", startRow), st.subtitle)
	_ = f.MergeCell(sheetAnalysis, fmt.Sprintf("A%d", startRow), fmt.Sprintf("C%d", startRow))

	headerRow := startRow + 1
	for col, h := range []string{"Category", "Amount", "%"} {
		cell, _ := excelize.CoordinatesToCellName(col+1, headerRow)
		setCell(f, sheetAnalysis, cell, h)
	}
	_ = f.SetCellStyle(sheetAnalysis, fmt.Sprintf("A%d", headerRow), fmt.Sprintf("C%d", headerRow), st.header)

	r := headerRow
	for _, total := range totals {
		r++
		amount := total.Amount.InexactFloat64()
		share := 0.0
		if typeTotal > 0 {
			share = amount / typeTotal
		}
		setCell(f, sheetAnalysis, fmt.Sprintf("A%d", r), total.Category)
		setCell(f, sheetAnalysis, fmt.Sprintf("B%d", r), amount)
		setCell(f, sheetAnalysis, fmt.Sprintf("C%d", r), share)
		_ = f.SetCellStyle(sheetAnalysis, fmt.Sprintf("A%d", r), fmt.Sprintf("A%d", r), st.cell)
		_ = f.SetCellStyle(sheetAnalysis, fmt.Sprintf("B%d", r), fmt.Sprintf("B%d", r), st.currency)
		_ = f.SetCellStyle(sheetAnalysis, fmt.Sprintf("C%d", r), fmt.Sprintf("C%d", r), st.percent)
	}

	return r
}

type runStats struct {
	byRule                 int
	byLLM                  int
	byFallback             int
	uncategorizedOriginal  int
	uncategorizedAssigned  int
	uncategorizedRemaining int
}

func computeStats(classified []model.ClassifiedTransaction) runStats {
	var s runStats
	for _, txn := range classified {
		switch txn.Method {
		case model.MethodBusinessRule:
			s.byRule++
		case model.MethodLLM:
			s.byLLM++
		case model.MethodErrorFallback:
			s.byFallback++
		}
		if txn.OriginalCategory == model.Uncategorized {
			s.uncategorizedOriginal++
			if txn.AssignedCategory != model.Uncategorized {
				s.uncategorizedAssigned++
			} else {
				s.uncategorizedRemaining++
			}
		}
	}
	return s
}

func splitByType(classified []model.ClassifiedTransaction) (capex, opex []model.ClassifiedTransaction) {
	for _, txn := range classified {
		if txn.ExpenseType == model.Capex {
			capex = append(capex, txn)
		} else {
			opex = append(opex, txn)
		}
	}
	return capex, opex
}

func totalShare(report *model.AggregateReport) float64 {
	if report.TotalAmount.IsZero() {
		return 0
	}
	return 1
}

func truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}

func setCell(f *excelize.File, sheet, cell string, value any) {
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		slog.Warn("Failed to set cell", "sheet", sheet, "cell", cell, "error", err)
	}
}
