package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nlorenzo/facturo/internal/party"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

const selectClientColumns = `
	id, name, tax_id, email, phone, address, tax_rate_percent, payment_term_days, active, created_at, updated_at
`

func scanClient(s scanner) (*party.Client, error) {
	var c party.Client

	if err := s.Scan(
		&c.ID, &c.Name, &c.TaxID, &c.Email, &c.Phone, &c.Address,
		&c.TaxRatePercent, &c.PaymentTermDays, &c.Active, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return &c, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *Store) CreateClient(ctx context.Context, c *party.Client) error {
	query := `
		INSERT INTO clients (id, name, tax_id, email, phone, address, tax_rate_percent, payment_term_days, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		c.ID, c.Name, c.TaxID, c.Email, c.Phone, c.Address,
		c.TaxRatePercent, c.PaymentTermDays, c.Active,
	).Scan(&c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return party.ErrDuplicateTaxID
		}

		return fmt.Errorf("creating client: %w", err)
	}

	return nil
}

func (s *Store) GetClient(ctx context.Context, id uuid.UUID) (*party.Client, error) {
	query := `SELECT ` + selectClientColumns + ` FROM clients WHERE id = $1`

	c, err := scanClient(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, party.ErrNotFound
		}

		return nil, fmt.Errorf("getting client: %w", err)
	}

	return c, nil
}

func (s *Store) ListClients(ctx context.Context, activeOnly bool) ([]*party.Client, error) {
	query := `SELECT ` + selectClientColumns + ` FROM clients`
	if activeOnly {
		query += ` WHERE active`
	}

	query += ` ORDER BY name ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing clients: %w", err)
	}
	defer rows.Close()

	var clients []*party.Client

	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning client: %w", err)
		}

		clients = append(clients, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating clients: %w", err)
	}

	return clients, nil
}

func (s *Store) UpdateClient(ctx context.Context, c *party.Client) error {
	query := `
		UPDATE clients
		SET name = $1, tax_id = $2, email = $3, phone = $4, address = $5,
			tax_rate_percent = $6, payment_term_days = $7, active = $8, updated_at = NOW()
		WHERE id = $9
	`

	_, err := s.db.ExecContext(ctx, query,
		c.Name, c.TaxID, c.Email, c.Phone, c.Address,
		c.TaxRatePercent, c.PaymentTermDays, c.Active, c.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return party.ErrDuplicateTaxID
		}

		return fmt.Errorf("updating client: %w", err)
	}

	return nil
}

// DeactivateClient keeps the row so existing documents stay resolvable.
func (s *Store) DeactivateClient(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE clients
		SET active = FALSE, updated_at = NOW()
		WHERE id = $1
	`

	_, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deactivating client: %w", err)
	}

	return nil
}
