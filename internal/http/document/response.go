package document

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nlorenzo/facturo/internal/billing"
)

type lineItemResponse struct {
	ID             uuid.UUID       `json:"id"`
	ReferenceID    uuid.UUID       `json:"reference_id"`
	Description    string          `json:"description"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	TaxRatePercent decimal.Decimal `json:"tax_rate_percent"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
}

type documentResponse struct {
	ID         uuid.UUID          `json:"id"`
	Kind       billing.Kind       `json:"kind"`
	Number     string             `json:"number"`
	ClientID   uuid.UUID          `json:"client_id"`
	IssueDate  time.Time          `json:"issue_date"`
	DueDate    time.Time          `json:"due_date"`
	Status     billing.Status     `json:"status"`
	TaxExempt  bool               `json:"tax_exempt"`
	Notes      string             `json:"notes,omitempty"`
	Lines      []lineItemResponse `json:"lines"`
	Subtotal   decimal.Decimal    `json:"subtotal"`
	TaxTotal   decimal.Decimal    `json:"tax_total"`
	GrandTotal decimal.Decimal    `json:"grand_total"`
	Version    int64              `json:"version"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  *time.Time         `json:"updated_at,omitempty"`
}

func toResponse(doc *billing.Document) documentResponse {
	lines := make([]lineItemResponse, len(doc.Lines))
	for i, l := range doc.Lines {
		lines[i] = lineItemResponse{
			ID:             l.ID,
			ReferenceID:    l.ReferenceID,
			Description:    l.Description,
			Quantity:       l.Quantity,
			UnitPrice:      l.UnitPrice,
			TaxRatePercent: l.TaxRatePercent,
			Subtotal:       l.Subtotal(),
			TaxAmount:      l.TaxAmount(),
		}
	}

	return documentResponse{
		ID:         doc.ID,
		Kind:       doc.Kind,
		Number:     doc.Number,
		ClientID:   doc.ClientID,
		IssueDate:  doc.IssueDate,
		DueDate:    doc.DueDate,
		Status:     doc.Status,
		TaxExempt:  doc.TaxExempt,
		Notes:      doc.Notes,
		Lines:      lines,
		Subtotal:   doc.Subtotal,
		TaxTotal:   doc.TaxTotal,
		GrandTotal: doc.GrandTotal,
		Version:    doc.Version,
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
	}
}

func toResponseList(docs []*billing.Document) []documentResponse {
	resp := make([]documentResponse, len(docs))
	for i, doc := range docs {
		resp[i] = toResponse(doc)
	}

	return resp
}
