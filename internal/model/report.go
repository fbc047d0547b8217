package model

import "github.com/shopspring/decimal"

// CategoryTotal is one category's share of an expense type.
type CategoryTotal struct {
	Category string
	Amount   decimal.Decimal
	Count    int
}

// AggregateReport is a pure function of a classified set at a point in
// time; it is recomputed whole on every run and never partially updated.
type AggregateReport struct {
	TotalCount  int
	TotalAmount decimal.Decimal

	CapexCount  int
	CapexAmount decimal.Decimal
	OpexCount   int
	OpexAmount  decimal.Decimal

	// Per-category sums within each expense type, sorted descending by
	// amount for presentation.
	CapexByCategory []CategoryTotal
	OpexByCategory  []CategoryTotal
}

// CapexShare returns CAPEX as a fraction of the total amount. A zero
// total yields 0, not a division error.
func (r *AggregateReport) CapexShare() float64 {
	return share(r.CapexAmount, r.TotalAmount)
}

// OpexShare returns OPEX as a fraction of the total amount.
func (r *AggregateReport) OpexShare() float64 {
	return share(r.OpexAmount, r.TotalAmount)
}

func share(part, total decimal.Decimal) float64 {
	if total.IsZero() {
		return 0
	}
	f, _ := part.Div(total).Float64()
	return f
}
