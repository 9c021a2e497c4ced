package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind distinguishes the two document variants, which share all billing
// behaviour.
type Kind string

const (
	KindInvoice Kind = "invoice"
	KindOrder   Kind = "order"
)

// Status represents the lifecycle state of a document.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
	StatusOverdue   Status = "overdue"
)

// LineItem is a single billable row on a document. Price and tax rate are
// snapshots taken from the catalog at attach time; later catalog changes do
// not alter existing documents.
type LineItem struct {
	ID             uuid.UUID
	ReferenceID    uuid.UUID
	Description    string
	Quantity       int
	UnitPrice      decimal.Decimal
	TaxRatePercent decimal.Decimal
}

// Subtotal returns quantity * unit price, rounded to 2 decimal places
// (half-up).
func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity))).Round(2)
}

// TaxAmount returns the tax due on this line, rounded to 2 decimal places
// (half-up).
func (li LineItem) TaxAmount() decimal.Decimal {
	return li.Subtotal().Mul(li.TaxRatePercent).Div(decimal.NewFromInt(100)).Round(2)
}

// Document is the invoice/order aggregate root. It exclusively owns its
// lines; Subtotal, TaxTotal and GrandTotal are derived and must only change
// through Recompute.
type Document struct {
	ID         uuid.UUID
	Kind       Kind
	Number     string // assigned once at creation, immutable
	ClientID   uuid.UUID
	IssueDate  time.Time
	DueDate    time.Time
	Status     Status
	TaxExempt  bool
	Notes      string
	Lines      []LineItem
	Subtotal   decimal.Decimal
	TaxTotal   decimal.Decimal
	GrandTotal decimal.Decimal
	Version    int64
	CreatedAt  time.Time
	UpdatedAt  *time.Time
}

// Recompute folds the current line set into the document totals. Every
// structural mutation must call it before the document is persisted.
func (d *Document) Recompute() {
	t := ComputeTotals(d.Lines, d.TaxExempt)
	d.Subtotal = t.Subtotal
	d.TaxTotal = t.TaxTotal
	d.GrandTotal = t.GrandTotal
}

// lineIndex returns the position of the line with the given id, or -1.
func (d *Document) lineIndex(id uuid.UUID) int {
	for i := range d.Lines {
		if d.Lines[i].ID == id {
			return i
		}
	}

	return -1
}

// CatalogEntry is the snapshot a line item copies from when price, tax rate
// or description are not supplied explicitly.
type CatalogEntry struct {
	ID             uuid.UUID
	Name           string
	Price          decimal.Decimal
	TaxRatePercent decimal.Decimal
}

// Party is the client a document is issued to. PaymentTermDays drives the
// default due date when none is given.
type Party struct {
	ID              uuid.UUID
	Name            string
	TaxRatePercent  decimal.Decimal
	PaymentTermDays int
}
