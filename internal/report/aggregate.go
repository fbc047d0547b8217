// Package report aggregates the classified set and renders the
// distributable workbook.
package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/lqlabs/outflow/internal/model"
)

// Aggregate computes the full report from a classified set. It is a
// pure function: order of the input does not affect the result, and
// decimal accumulation keeps the total equal to the sum of the
// category subtotals exactly.
func Aggregate(classified []model.ClassifiedTransaction) *model.AggregateReport {
	r := &model.AggregateReport{
		TotalCount:  len(classified),
		TotalAmount: decimal.Zero,
		CapexAmount: decimal.Zero,
		OpexAmount:  decimal.Zero,
	}

	capexByCat := make(map[string]*model.CategoryTotal)
	opexByCat := make(map[string]*model.CategoryTotal)

	for _, txn := range classified {
		r.TotalAmount = r.TotalAmount.Add(txn.Amount)

		if txn.ExpenseType == model.Capex {
			r.CapexCount++
			r.CapexAmount = r.CapexAmount.Add(txn.Amount)
			accumulate(capexByCat, txn)
		} else {
			r.OpexCount++
			r.OpexAmount = r.OpexAmount.Add(txn.Amount)
			accumulate(opexByCat, txn)
		}
	}

	r.CapexByCategory = sortedTotals(capexByCat)
	r.OpexByCategory = sortedTotals(opexByCat)

	return r
}

func accumulate(byCat map[string]*model.CategoryTotal, txn model.ClassifiedTransaction) {
	total, ok := byCat[txn.AssignedCategory]
	if !ok {
		total = &model.CategoryTotal{Category: txn.AssignedCategory, Amount: decimal.Zero}
		byCat[txn.AssignedCategory] = total
	}
	total.Amount = total.Amount.Add(txn.Amount)
	total.Count++
}

// sortedTotals orders categories descending by amount for
// presentation, with a name tiebreak so output is stable.
func sortedTotals(byCat map[string]*model.CategoryTotal) []model.CategoryTotal {
	totals := make([]model.CategoryTotal, 0, len(byCat))
	for _, t := range byCat {
		totals = append(totals, *t)
	}
	sort.Slice(totals, func(i, j int) bool {
		if !totals[i].Amount.Equal(totals[j].Amount) {
			return totals[i].Amount.GreaterThan(totals[j].Amount)
		}
		return totals[i].Category < totals[j].Category
	})
	return totals
}
