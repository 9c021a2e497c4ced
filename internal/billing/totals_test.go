package billing_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/nlorenzo/facturo/internal/billing"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func line(quantity int, price, taxRate string) billing.LineItem {
	return billing.LineItem{
		ID:             uuid.New(),
		ReferenceID:    uuid.New(),
		Quantity:       quantity,
		UnitPrice:      dec(price),
		TaxRatePercent: dec(taxRate),
	}
}

func assertTotals(t *testing.T, got billing.Totals, subtotal, taxTotal, grandTotal string) {
	t.Helper()
	assert.Equal(t, subtotal, got.Subtotal.StringFixed(2), "subtotal")
	assert.Equal(t, taxTotal, got.TaxTotal.StringFixed(2), "tax total")
	assert.Equal(t, grandTotal, got.GrandTotal.StringFixed(2), "grand total")
}

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name       string
		lines      []billing.LineItem
		taxExempt  bool
		subtotal   string
		taxTotal   string
		grandTotal string
	}{
		{
			name:       "EmptyLines",
			lines:      nil,
			subtotal:   "0.00",
			taxTotal:   "0.00",
			grandTotal: "0.00",
		},
		{
			name: "TwoLines",
			lines: []billing.LineItem{
				line(2, "500.00", "21"),
				line(3, "100.00", "10"),
			},
			subtotal:   "1300.00",
			taxTotal:   "240.00",
			grandTotal: "1540.00",
		},
		{
			name: "TaxExemptZeroesTaxRegardlessOfRates",
			lines: []billing.LineItem{
				line(2, "500.00", "21"),
				line(3, "100.00", "10"),
			},
			taxExempt:  true,
			subtotal:   "1300.00",
			taxTotal:   "0.00",
			grandTotal: "1300.00",
		},
		{
			name: "SingleLine",
			lines: []billing.LineItem{
				line(1, "99.99", "21"),
			},
			subtotal:   "99.99",
			taxTotal:   "21.00",
			grandTotal: "120.99",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := billing.ComputeTotals(tt.lines, tt.taxExempt)
			assertTotals(t, got, tt.subtotal, tt.taxTotal, tt.grandTotal)
		})
	}
}

func TestComputeTotals_GrandTotalInvariant(t *testing.T) {
	lines := []billing.LineItem{
		line(7, "13.37", "21"),
		line(1, "0.01", "4"),
		line(3, "249.50", "10"),
	}

	for _, exempt := range []bool{false, true} {
		got := billing.ComputeTotals(lines, exempt)
		assert.True(t, got.GrandTotal.Equal(got.Subtotal.Add(got.TaxTotal)),
			"grand total must equal subtotal + tax total (exempt=%v)", exempt)
	}
}

func TestComputeTotals_Idempotent(t *testing.T) {
	lines := []billing.LineItem{
		line(2, "500.00", "21"),
		line(3, "100.00", "10"),
	}

	first := billing.ComputeTotals(lines, false)
	second := billing.ComputeTotals(lines, false)

	assert.True(t, first.Subtotal.Equal(second.Subtotal))
	assert.True(t, first.TaxTotal.Equal(second.TaxTotal))
	assert.True(t, first.GrandTotal.Equal(second.GrandTotal))
}

func TestLineItem_RoundsHalfUp(t *testing.T) {
	// 0.10 at 5% is 0.005, which must round up to 0.01.
	li := line(1, "0.10", "5")
	assert.Equal(t, "0.01", li.TaxAmount().StringFixed(2))

	// 21% of 99.99 is 20.9979 and must land on 21.00.
	li = line(3, "33.33", "21")
	assert.Equal(t, "99.99", li.Subtotal().StringFixed(2))
	assert.Equal(t, "21.00", li.TaxAmount().StringFixed(2))
}

func TestDocument_Recompute(t *testing.T) {
	doc := &billing.Document{
		Lines: []billing.LineItem{
			line(2, "500.00", "21"),
		},
	}

	doc.Recompute()

	assert.Equal(t, "1000.00", doc.Subtotal.StringFixed(2))
	assert.Equal(t, "210.00", doc.TaxTotal.StringFixed(2))
	assert.Equal(t, "1210.00", doc.GrandTotal.StringFixed(2))

	doc.Lines = nil
	doc.Recompute()

	assert.Equal(t, "0.00", doc.GrandTotal.StringFixed(2))
}
