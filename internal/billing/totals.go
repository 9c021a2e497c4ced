package billing

import "github.com/shopspring/decimal"

// Totals holds the derived monetary totals of a document.
type Totals struct {
	Subtotal   decimal.Decimal
	TaxTotal   decimal.Decimal
	GrandTotal decimal.Decimal
}

// ComputeTotals folds a line set into document totals.
//
// The sums are rounded once at the aggregate (sum first, then round) rather
// than accumulating per-line rounding error; callers must not re-derive
// totals line by line. An empty line set yields all-zero totals. When
// taxExempt is set the tax total is zero regardless of per-line rates.
func ComputeTotals(lines []LineItem, taxExempt bool) Totals {
	subtotal := decimal.Zero
	taxTotal := decimal.Zero

	for _, li := range lines {
		subtotal = subtotal.Add(li.Subtotal())
		taxTotal = taxTotal.Add(li.TaxAmount())
	}

	subtotal = subtotal.Round(2)

	if taxExempt {
		taxTotal = decimal.Zero
	} else {
		taxTotal = taxTotal.Round(2)
	}

	return Totals{
		Subtotal:   subtotal,
		TaxTotal:   taxTotal,
		GrandTotal: subtotal.Add(taxTotal),
	}
}
