package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nlorenzo/facturo/internal/billing"
)

type Repository interface {
	CreateEntry(ctx context.Context, e *Entry) error
	CreateEntries(ctx context.Context, entries []*Entry) error
	GetEntry(ctx context.Context, id uuid.UUID) (*Entry, error)
	ListEntries(ctx context.Context, activeOnly bool) ([]*Entry, error)
	UpdateEntry(ctx context.Context, e *Entry) error
	DeactivateEntry(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateParams struct {
	Code           string
	Name           string
	Description    string
	Price          decimal.Decimal
	TaxRatePercent decimal.Decimal
}

func (p CreateParams) validate() error {
	if p.Code == "" {
		return errors.New("code is required")
	}

	if p.Name == "" {
		return errors.New("name is required")
	}

	if p.Price.IsNegative() {
		return ErrInvalidPrice
	}

	if p.TaxRatePercent.IsNegative() || p.TaxRatePercent.GreaterThan(decimal.NewFromInt(100)) {
		return ErrInvalidTax
	}

	return nil
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Entry, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	e := &Entry{
		ID:             uuid.New(),
		Code:           params.Code,
		Name:           params.Name,
		Description:    params.Description,
		Price:          params.Price,
		TaxRatePercent: params.TaxRatePercent,
		Active:         true,
	}

	if err := s.repo.CreateEntry(ctx, e); err != nil {
		return nil, err
	}

	return e, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Entry, error) {
	return s.repo.GetEntry(ctx, id)
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]*Entry, error) {
	return s.repo.ListEntries(ctx, activeOnly)
}

func (s *Service) Update(ctx context.Context, e *Entry) error {
	if e.Price.IsNegative() {
		return ErrInvalidPrice
	}

	if e.TaxRatePercent.IsNegative() || e.TaxRatePercent.GreaterThan(decimal.NewFromInt(100)) {
		return ErrInvalidTax
	}

	return s.repo.UpdateEntry(ctx, e)
}

func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeactivateEntry(ctx, id)
}

// ResolveEntry satisfies billing.Catalog. Inactive entries are not offered
// to new documents; existing documents keep their snapshots either way.
func (s *Service) ResolveEntry(ctx context.Context, id uuid.UUID) (*billing.CatalogEntry, error) {
	e, err := s.repo.GetEntry(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, billing.ErrCatalogEntryNotFound
		}

		return nil, fmt.Errorf("resolving catalog entry: %w", err)
	}

	if !e.Active {
		return nil, billing.ErrCatalogEntryNotFound
	}

	return &billing.CatalogEntry{
		ID:             e.ID,
		Name:           e.Name,
		Price:          e.Price,
		TaxRatePercent: e.TaxRatePercent,
	}, nil
}
