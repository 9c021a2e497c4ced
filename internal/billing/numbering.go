package billing

import (
	"fmt"
	"time"
)

// NumberPrefix returns the human-readable prefix for a document kind:
// F for invoices (facturas), P for orders (pedidos).
func NumberPrefix(kind Kind) string {
	if kind == KindOrder {
		return "P"
	}

	return "F"
}

// PeriodKey collapses a date to its numbering period (year + month).
func PeriodKey(t time.Time) string {
	return t.Format("200601")
}

// FormatNumber renders a document number, e.g. F202608-0012.
func FormatNumber(kind Kind, period time.Time, seq int64) string {
	return fmt.Sprintf("%s%s-%04d", NumberPrefix(kind), PeriodKey(period), seq)
}
