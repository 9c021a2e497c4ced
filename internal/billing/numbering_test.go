package billing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nlorenzo/facturo/internal/billing"
)

func TestFormatNumber(t *testing.T) {
	period := time.Date(2026, time.February, 14, 10, 30, 0, 0, time.UTC)

	assert.Equal(t, "F202602-0007", billing.FormatNumber(billing.KindInvoice, period, 7))
	assert.Equal(t, "P202602-0123", billing.FormatNumber(billing.KindOrder, period, 123))
	assert.Equal(t, "F202612-10000", billing.FormatNumber(billing.KindInvoice, time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC), 10000))
}

func TestPeriodKey(t *testing.T) {
	assert.Equal(t, "202608", billing.PeriodKey(time.Date(2026, time.August, 31, 23, 59, 0, 0, time.UTC)))
}
