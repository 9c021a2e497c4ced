package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nlorenzo/facturo/internal/catalog"
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

const selectEntryColumns = `
	id, code, name, description, price, tax_rate_percent, active, created_at, updated_at
`

func scanEntry(s scanner) (*catalog.Entry, error) {
	var e catalog.Entry

	if err := s.Scan(
		&e.ID, &e.Code, &e.Name, &e.Description, &e.Price, &e.TaxRatePercent,
		&e.Active, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return &e, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

const insertEntryQuery = `
	INSERT INTO catalog_entries (id, code, name, description, price, tax_rate_percent, active, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	RETURNING created_at
`

func (s *Store) CreateEntry(ctx context.Context, e *catalog.Entry) error {
	err := s.db.QueryRowContext(ctx, insertEntryQuery,
		e.ID, e.Code, e.Name, e.Description, e.Price, e.TaxRatePercent, e.Active,
	).Scan(&e.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return catalog.ErrDuplicateCode
		}

		return fmt.Errorf("creating catalog entry: %w", err)
	}

	return nil
}

// CreateEntries inserts a batch in one transaction, all-or-nothing.
func (s *Store) CreateEntries(ctx context.Context, entries []*catalog.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, e := range entries {
		err := tx.QueryRowContext(ctx, insertEntryQuery,
			e.ID, e.Code, e.Name, e.Description, e.Price, e.TaxRatePercent, e.Active,
		).Scan(&e.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("code %s: %w", e.Code, catalog.ErrDuplicateCode)
			}

			return fmt.Errorf("creating catalog entry %s: %w", e.Code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (s *Store) GetEntry(ctx context.Context, id uuid.UUID) (*catalog.Entry, error) {
	query := `SELECT ` + selectEntryColumns + ` FROM catalog_entries WHERE id = $1`

	e, err := scanEntry(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}

		return nil, fmt.Errorf("getting catalog entry: %w", err)
	}

	return e, nil
}

func (s *Store) ListEntries(ctx context.Context, activeOnly bool) ([]*catalog.Entry, error) {
	query := `SELECT ` + selectEntryColumns + ` FROM catalog_entries`
	if activeOnly {
		query += ` WHERE active`
	}

	query += ` ORDER BY code ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing catalog entries: %w", err)
	}
	defer rows.Close()

	var entries []*catalog.Entry

	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning catalog entry: %w", err)
		}

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating catalog entries: %w", err)
	}

	return entries, nil
}

func (s *Store) UpdateEntry(ctx context.Context, e *catalog.Entry) error {
	query := `
		UPDATE catalog_entries
		SET code = $1, name = $2, description = $3, price = $4, tax_rate_percent = $5, active = $6, updated_at = NOW()
		WHERE id = $7
	`

	_, err := s.db.ExecContext(ctx, query,
		e.Code, e.Name, e.Description, e.Price, e.TaxRatePercent, e.Active, e.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return catalog.ErrDuplicateCode
		}

		return fmt.Errorf("updating catalog entry: %w", err)
	}

	return nil
}

// DeactivateEntry hides the entry from new documents. Existing line items
// keep their snapshots, so no hard delete is needed.
func (s *Store) DeactivateEntry(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE catalog_entries
		SET active = FALSE, updated_at = NOW()
		WHERE id = $1
	`

	_, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deactivating catalog entry: %w", err)
	}

	return nil
}
