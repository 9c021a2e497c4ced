package catalog

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound      = errors.New("catalog entry not found")
	ErrDuplicateCode = errors.New("catalog code already exists")
	ErrInvalidPrice  = errors.New("price cannot be negative")
	ErrInvalidTax    = errors.New("tax rate must be between 0 and 100")
)

// Entry is a billable service or product. Documents never reference entries
// live: line items copy price and tax rate at attach time.
type Entry struct {
	ID             uuid.UUID
	Code           string
	Name           string
	Description    string
	Price          decimal.Decimal
	TaxRatePercent decimal.Decimal
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}
