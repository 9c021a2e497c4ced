package party

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nlorenzo/facturo/internal/billing"
)

type Repository interface {
	CreateClient(ctx context.Context, c *Client) error
	GetClient(ctx context.Context, id uuid.UUID) (*Client, error)
	ListClients(ctx context.Context, activeOnly bool) ([]*Client, error)
	UpdateClient(ctx context.Context, c *Client) error
	DeactivateClient(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateParams struct {
	Name            string
	TaxID           string
	Email           string
	Phone           string
	Address         string
	TaxRatePercent  decimal.Decimal
	PaymentTermDays int
}

func (p CreateParams) validate() error {
	if p.Name == "" {
		return errors.New("name is required")
	}

	if p.PaymentTermDays < 0 {
		return ErrInvalidTerms
	}

	if p.TaxRatePercent.IsNegative() || p.TaxRatePercent.GreaterThan(decimal.NewFromInt(100)) {
		return ErrInvalidTax
	}

	return nil
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Client, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	c := &Client{
		ID:              uuid.New(),
		Name:            params.Name,
		TaxID:           params.TaxID,
		Email:           params.Email,
		Phone:           params.Phone,
		Address:         params.Address,
		TaxRatePercent:  params.TaxRatePercent,
		PaymentTermDays: params.PaymentTermDays,
		Active:          true,
	}

	if err := s.repo.CreateClient(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Client, error) {
	return s.repo.GetClient(ctx, id)
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]*Client, error) {
	return s.repo.ListClients(ctx, activeOnly)
}

func (s *Service) Update(ctx context.Context, c *Client) error {
	if c.PaymentTermDays < 0 {
		return ErrInvalidTerms
	}

	if c.TaxRatePercent.IsNegative() || c.TaxRatePercent.GreaterThan(decimal.NewFromInt(100)) {
		return ErrInvalidTax
	}

	return s.repo.UpdateClient(ctx, c)
}

func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeactivateClient(ctx, id)
}

// ResolveParty satisfies billing.Directory. Deactivated clients cannot be
// billed on new documents.
func (s *Service) ResolveParty(ctx context.Context, id uuid.UUID) (*billing.Party, error) {
	c, err := s.repo.GetClient(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, billing.ErrPartyNotFound
		}

		return nil, fmt.Errorf("resolving client: %w", err)
	}

	if !c.Active {
		return nil, billing.ErrPartyNotFound
	}

	return &billing.Party{
		ID:              c.ID,
		Name:            c.Name,
		TaxRatePercent:  c.TaxRatePercent,
		PaymentTermDays: c.PaymentTermDays,
	}, nil
}
