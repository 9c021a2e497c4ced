package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=service.go -destination=service_mock.go -package=billing
type Repository interface {
	CreateDocument(ctx context.Context, doc *Document) error
	GetDocument(ctx context.Context, id uuid.UUID) (*Document, error)

	// SaveDocument persists doc and bumps its version, but only if the
	// stored version still equals expectedVersion. Otherwise it fails with
	// ErrConcurrentModification and the caller must retry with fresh state.
	SaveDocument(ctx context.Context, doc *Document, expectedVersion int64) error

	ListDocuments(ctx context.Context, filter ListFilter) ([]*Document, error)
	DeleteDocument(ctx context.Context, id uuid.UUID) error

	// NextNumber issues the next document number for the kind and period.
	// Allocation is serialized by the store; a collision surfaces as
	// ErrNumberConflict on CreateDocument.
	NextNumber(ctx context.Context, kind Kind, period time.Time) (string, error)
}

// Catalog resolves the external service/product entries line items reference.
type Catalog interface {
	ResolveEntry(ctx context.Context, id uuid.UUID) (*CatalogEntry, error)
}

// Directory resolves the clients documents are issued to.
type Directory interface {
	ResolveParty(ctx context.Context, id uuid.UUID) (*Party, error)
}

type Service struct {
	repo      Repository
	catalog   Catalog
	directory Directory
	now       func() time.Time
}

type Option func(*Service)

// WithNow overrides the clock used for due-date checks.
func WithNow(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, catalog Catalog, directory Directory, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		catalog:   catalog,
		directory: directory,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// LineItemSpec describes a line to attach. Nil optional fields are resolved
// from the catalog entry at call time (snapshot semantics).
type LineItemSpec struct {
	ReferenceID    uuid.UUID
	Quantity       int
	UnitPrice      *decimal.Decimal
	TaxRatePercent *decimal.Decimal
	Description    string
}

// LinePatch carries partial edits to an existing line. Nil fields are left
// untouched.
type LinePatch struct {
	Quantity       *int
	UnitPrice      *decimal.Decimal
	TaxRatePercent *decimal.Decimal
	Description    *string
}

type CreateParams struct {
	Kind      Kind
	ClientID  uuid.UUID
	IssueDate time.Time
	DueDate   time.Time // zero value: issue date + client payment term
	TaxExempt bool
	Notes     string
	Lines     []LineItemSpec
}

type ListFilter struct {
	Kind     *Kind
	Status   *Status
	ClientID *uuid.UUID
	FromDate *time.Time
	ToDate   *time.Time
}

// Create assembles a draft document: number assignment, line snapshots and
// the initial totals all happen here, before anything is persisted.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Document, error) {
	party, err := s.directory.ResolveParty(ctx, params.ClientID)
	if err != nil {
		return nil, fmt.Errorf("resolving client: %w", err)
	}

	issueDate := params.IssueDate
	if issueDate.IsZero() {
		issueDate = s.now()
	}

	dueDate := params.DueDate
	if dueDate.IsZero() {
		dueDate = issueDate.AddDate(0, 0, party.PaymentTermDays)
	}

	if dueDate.Before(issueDate) {
		return nil, ErrInvalidDates
	}

	lines := make([]LineItem, 0, len(params.Lines))

	for i, spec := range params.Lines {
		line, err := s.buildLine(ctx, spec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}

		lines = append(lines, *line)
	}

	number, err := s.repo.NextNumber(ctx, params.Kind, issueDate)
	if err != nil {
		return nil, fmt.Errorf("issuing document number: %w", err)
	}

	doc := &Document{
		Kind:      params.Kind,
		Number:    number,
		ClientID:  params.ClientID,
		IssueDate: issueDate,
		DueDate:   dueDate,
		Status:    StatusDraft,
		TaxExempt: params.TaxExempt,
		Notes:     params.Notes,
		Lines:     lines,
	}
	doc.Recompute()

	if err := s.repo.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("creating document: %w", err)
	}

	return doc, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Document, error) {
	return s.repo.GetDocument(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Document, error) {
	return s.repo.ListDocuments(ctx, filter)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteDocument(ctx, id)
}

// AttachLineItem validates the spec, appends the line and recomputes totals
// under the document's version check.
func (s *Service) AttachLineItem(ctx context.Context, docID uuid.UUID, spec LineItemSpec) (*Document, error) {
	return s.mutateLines(ctx, docID, func(doc *Document) error {
		line, err := s.buildLine(ctx, spec)
		if err != nil {
			return err
		}

		doc.Lines = append(doc.Lines, *line)

		return nil
	})
}

func (s *Service) UpdateLineItem(ctx context.Context, docID, lineID uuid.UUID, patch LinePatch) (*Document, error) {
	return s.mutateLines(ctx, docID, func(doc *Document) error {
		idx := doc.lineIndex(lineID)
		if idx < 0 {
			return ErrLineItemNotFound
		}

		if patch.Quantity != nil && *patch.Quantity < 1 {
			return ErrInvalidQuantity
		}

		if patch.UnitPrice != nil && patch.UnitPrice.IsNegative() {
			return ErrInvalidPrice
		}

		if patch.TaxRatePercent != nil && !validTaxRate(*patch.TaxRatePercent) {
			return ErrInvalidTaxRate
		}

		line := &doc.Lines[idx]

		if patch.Quantity != nil {
			line.Quantity = *patch.Quantity
		}

		if patch.UnitPrice != nil {
			line.UnitPrice = *patch.UnitPrice
		}

		if patch.TaxRatePercent != nil {
			line.TaxRatePercent = *patch.TaxRatePercent
		}

		if patch.Description != nil {
			line.Description = *patch.Description
		}

		return nil
	})
}

func (s *Service) RemoveLineItem(ctx context.Context, docID, lineID uuid.UUID) (*Document, error) {
	return s.mutateLines(ctx, docID, func(doc *Document) error {
		idx := doc.lineIndex(lineID)
		if idx < 0 {
			return ErrLineItemNotFound
		}

		doc.Lines = append(doc.Lines[:idx], doc.Lines[idx+1:]...)

		return nil
	})
}

// ReplaceAllLineItems swaps the whole line set atomically: every spec is
// validated and resolved before the document is touched, so a single bad
// spec leaves the document unchanged.
func (s *Service) ReplaceAllLineItems(ctx context.Context, docID uuid.UUID, specs []LineItemSpec) (*Document, error) {
	return s.mutateLines(ctx, docID, func(doc *Document) error {
		lines := make([]LineItem, 0, len(specs))

		for i, spec := range specs {
			line, err := s.buildLine(ctx, spec)
			if err != nil {
				return fmt.Errorf("line %d: %w", i+1, err)
			}

			lines = append(lines, *line)
		}

		doc.Lines = lines

		return nil
	})
}

// Transition moves the document along the status graph. Overdue is only
// reachable once the due date has elapsed.
func (s *Service) Transition(ctx context.Context, docID uuid.UUID, target Status) (*Document, error) {
	doc, err := s.repo.GetDocument(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}

	if !CanTransition(doc.Status, target) {
		return nil, fmt.Errorf("%s to %s: %w", doc.Status, target, ErrInvalidTransition)
	}

	if target == StatusOverdue && !s.now().After(doc.DueDate) {
		return nil, fmt.Errorf("due date not elapsed: %w", ErrInvalidTransition)
	}

	expected := doc.Version
	doc.Status = target

	if err := s.repo.SaveDocument(ctx, doc, expected); err != nil {
		return nil, fmt.Errorf("saving document: %w", err)
	}

	return doc, nil
}

// MarkOverdue sweeps pending documents whose due date has elapsed into the
// overdue state. Documents modified concurrently during the sweep are
// skipped; the next sweep picks them up.
func (s *Service) MarkOverdue(ctx context.Context) (int, error) {
	pending := StatusPending

	docs, err := s.repo.ListDocuments(ctx, ListFilter{Status: &pending})
	if err != nil {
		return 0, fmt.Errorf("listing pending documents: %w", err)
	}

	now := s.now()
	marked := 0

	for _, doc := range docs {
		if !now.After(doc.DueDate) {
			continue
		}

		expected := doc.Version
		doc.Status = StatusOverdue

		err := s.repo.SaveDocument(ctx, doc, expected)
		if errors.Is(err, ErrConcurrentModification) {
			continue
		}

		if err != nil {
			return marked, fmt.Errorf("marking document %s overdue: %w", doc.Number, err)
		}

		marked++
	}

	return marked, nil
}

// mutateLines runs a structural line mutation under the status lock and the
// optimistic version check, recomputing totals before the save.
func (s *Service) mutateLines(ctx context.Context, docID uuid.UUID, fn func(*Document) error) (*Document, error) {
	doc, err := s.repo.GetDocument(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}

	if !doc.CanEditLines() {
		return nil, ErrDocumentLocked
	}

	expected := doc.Version

	if err := fn(doc); err != nil {
		return nil, err
	}

	doc.Recompute()

	if err := s.repo.SaveDocument(ctx, doc, expected); err != nil {
		return nil, fmt.Errorf("saving document: %w", err)
	}

	return doc, nil
}

// buildLine validates a spec and resolves the catalog snapshot for any
// omitted fields. The reference must resolve even when all values are
// supplied explicitly.
func (s *Service) buildLine(ctx context.Context, spec LineItemSpec) (*LineItem, error) {
	if spec.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	if spec.UnitPrice != nil && spec.UnitPrice.IsNegative() {
		return nil, ErrInvalidPrice
	}

	if spec.TaxRatePercent != nil && !validTaxRate(*spec.TaxRatePercent) {
		return nil, ErrInvalidTaxRate
	}

	entry, err := s.catalog.ResolveEntry(ctx, spec.ReferenceID)
	if err != nil {
		return nil, err
	}

	line := LineItem{
		ID:             uuid.New(),
		ReferenceID:    spec.ReferenceID,
		Description:    spec.Description,
		Quantity:       spec.Quantity,
		UnitPrice:      entry.Price,
		TaxRatePercent: entry.TaxRatePercent,
	}

	if line.Description == "" {
		line.Description = entry.Name
	}

	if spec.UnitPrice != nil {
		line.UnitPrice = *spec.UnitPrice
	}

	if spec.TaxRatePercent != nil {
		line.TaxRatePercent = *spec.TaxRatePercent
	}

	return &line, nil
}

func validTaxRate(rate decimal.Decimal) bool {
	return !rate.IsNegative() && rate.LessThanOrEqual(decimal.NewFromInt(100))
}
