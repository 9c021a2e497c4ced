package party

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound       = errors.New("client not found")
	ErrDuplicateTaxID = errors.New("tax id already registered")
	ErrInvalidTerms   = errors.New("payment term days cannot be negative")
	ErrInvalidTax     = errors.New("tax rate must be between 0 and 100")
)

// Client is a billed party. TaxRatePercent and PaymentTermDays are the
// defaults applied to new documents when the caller omits them.
type Client struct {
	ID              uuid.UUID
	Name            string
	TaxID           string
	Email           string
	Phone           string
	Address         string
	TaxRatePercent  decimal.Decimal
	PaymentTermDays int
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       *time.Time
}
