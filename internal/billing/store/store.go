package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nlorenzo/facturo/internal/billing"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectDocumentColumns = `
	d.id, d.kind, d.number, d.client_id, d.issue_date, d.due_date, d.status,
	d.tax_exempt, d.notes, d.subtotal, d.tax_total, d.grand_total,
	d.version, d.created_at, d.updated_at
`

// scanDocument reads a document row without its lines.
// Expected column order: selectDocumentColumns.
func scanDocument(s scanner) (*billing.Document, error) {
	var doc billing.Document

	var kindStr, statusStr string

	var notes sql.NullString

	if err := s.Scan(
		&doc.ID, &kindStr, &doc.Number, &doc.ClientID, &doc.IssueDate, &doc.DueDate, &statusStr,
		&doc.TaxExempt, &notes, &doc.Subtotal, &doc.TaxTotal, &doc.GrandTotal,
		&doc.Version, &doc.CreatedAt, &doc.UpdatedAt,
	); err != nil {
		return nil, err
	}

	doc.Kind = billing.Kind(kindStr)
	doc.Status = billing.Status(statusStr)
	doc.Notes = notes.String

	return &doc, nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func loadLines(ctx context.Context, q querier, docID uuid.UUID) ([]billing.LineItem, error) {
	query := `
		SELECT id, reference_id, description, quantity, unit_price, tax_rate_percent
		FROM document_lines
		WHERE document_id = $1
		ORDER BY position ASC
	`

	rows, err := q.QueryContext(ctx, query, docID)
	if err != nil {
		return nil, fmt.Errorf("loading lines: %w", err)
	}
	defer rows.Close()

	var lines []billing.LineItem

	for rows.Next() {
		var li billing.LineItem
		if err := rows.Scan(
			&li.ID, &li.ReferenceID, &li.Description, &li.Quantity, &li.UnitPrice, &li.TaxRatePercent,
		); err != nil {
			return nil, fmt.Errorf("scanning line: %w", err)
		}

		lines = append(lines, li)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating lines: %w", err)
	}

	return lines, nil
}

func insertLines(ctx context.Context, q querier, docID uuid.UUID, lines []billing.LineItem) error {
	query := `
		INSERT INTO document_lines (id, document_id, reference_id, description, quantity, unit_price, tax_rate_percent, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	for i, li := range lines {
		if _, err := q.ExecContext(ctx, query,
			li.ID, docID, li.ReferenceID, li.Description, li.Quantity, li.UnitPrice, li.TaxRatePercent, i,
		); err != nil {
			return fmt.Errorf("inserting line %d: %w", i+1, err)
		}
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// readTx keeps a document row and its lines on one snapshot, so readers
// cannot interleave with a committing SaveDocument and pair stale totals
// with fresh lines.
var readTx = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}

func (s *Store) CreateDocument(ctx context.Context, doc *billing.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO documents (kind, number, client_id, issue_date, due_date, status, tax_exempt, notes,
			subtotal, tax_total, grand_total, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1, NOW())
		RETURNING id, version, created_at
	`

	err = tx.QueryRowContext(ctx, query,
		doc.Kind, doc.Number, doc.ClientID, doc.IssueDate, doc.DueDate, doc.Status, doc.TaxExempt, doc.Notes,
		doc.Subtotal, doc.TaxTotal, doc.GrandTotal,
	).Scan(&doc.ID, &doc.Version, &doc.CreatedAt)
	if err != nil {
		// The unique index on number backs the numbering policy: a
		// concurrent creation that won the same number surfaces here and
		// the caller retries with a fresh number.
		if isUniqueViolation(err) {
			return billing.ErrNumberConflict
		}

		return fmt.Errorf("creating document: %w", err)
	}

	if err := insertLines(ctx, tx, doc.ID, doc.Lines); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (s *Store) GetDocument(ctx context.Context, id uuid.UUID) (*billing.Document, error) {
	tx, err := s.db.BeginTx(ctx, readTx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	query := `SELECT ` + selectDocumentColumns + ` FROM documents d WHERE d.id = $1`

	doc, err := scanDocument(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, billing.ErrDocumentNotFound
		}

		return nil, fmt.Errorf("getting document: %w", err)
	}

	doc.Lines, err = loadLines(ctx, tx, doc.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	return doc, nil
}

func (s *Store) ListDocuments(ctx context.Context, filter billing.ListFilter) ([]*billing.Document, error) {
	tx, err := s.db.BeginTx(ctx, readTx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	query := `SELECT ` + selectDocumentColumns + ` FROM documents d WHERE 1=1`

	var args []any

	argIdx := 1

	if filter.Kind != nil {
		query += fmt.Sprintf(" AND d.kind = $%d", argIdx)

		args = append(args, *filter.Kind)
		argIdx++
	}

	if filter.Status != nil {
		query += fmt.Sprintf(" AND d.status = $%d", argIdx)

		args = append(args, *filter.Status)
		argIdx++
	}

	if filter.ClientID != nil {
		query += fmt.Sprintf(" AND d.client_id = $%d", argIdx)

		args = append(args, *filter.ClientID)
		argIdx++
	}

	if filter.FromDate != nil {
		query += fmt.Sprintf(" AND d.issue_date >= $%d", argIdx)

		args = append(args, *filter.FromDate)
		argIdx++
	}

	if filter.ToDate != nil {
		query += fmt.Sprintf(" AND d.issue_date <= $%d", argIdx)

		args = append(args, *filter.ToDate)
		argIdx++
	}

	query += " ORDER BY d.issue_date DESC, d.number DESC"

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	var docs []*billing.Document

	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning document: %w", err)
		}

		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	// The tx carries one statement at a time, so the document cursor must be
	// drained and closed before the line loads start.
	rows.Close()

	for _, doc := range docs {
		doc.Lines, err = loadLines(ctx, tx, doc.ID)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	return docs, nil
}

// SaveDocument commits the document and its full line set, but only if the
// stored version still matches expectedVersion. The version bump and the
// line replacement share one database transaction, so readers never observe
// totals inconsistent with the line set.
func (s *Store) SaveDocument(ctx context.Context, doc *billing.Document, expectedVersion int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE documents
		SET client_id = $1, issue_date = $2, due_date = $3, status = $4, tax_exempt = $5, notes = $6,
			subtotal = $7, tax_total = $8, grand_total = $9,
			version = version + 1, updated_at = NOW()
		WHERE id = $10 AND version = $11
		RETURNING version, updated_at
	`

	var updatedAt time.Time

	err = tx.QueryRowContext(ctx, query,
		doc.ClientID, doc.IssueDate, doc.DueDate, doc.Status, doc.TaxExempt, doc.Notes,
		doc.Subtotal, doc.TaxTotal, doc.GrandTotal,
		doc.ID, expectedVersion,
	).Scan(&doc.Version, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.staleOrMissing(ctx, doc.ID)
		}

		return fmt.Errorf("updating document: %w", err)
	}

	doc.UpdatedAt = &updatedAt

	if _, err := tx.ExecContext(ctx, `DELETE FROM document_lines WHERE document_id = $1`, doc.ID); err != nil {
		return fmt.Errorf("clearing lines: %w", err)
	}

	if err := insertLines(ctx, tx, doc.ID, doc.Lines); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// staleOrMissing distinguishes a lost version race from a deleted document.
func (s *Store) staleOrMissing(ctx context.Context, id uuid.UUID) error {
	var exists bool

	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM documents WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking document existence: %w", err)
	}

	if !exists {
		return billing.ErrDocumentNotFound
	}

	return billing.ErrConcurrentModification
}

func (s *Store) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	// document_lines rows go with the document via ON DELETE CASCADE.
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}

	if affected == 0 {
		return billing.ErrDocumentNotFound
	}

	return nil
}

// NextNumber allocates the next sequence value for the kind and period in a
// single upsert, so concurrent creators are serialized by the row lock.
func (s *Store) NextNumber(ctx context.Context, kind billing.Kind, period time.Time) (string, error) {
	query := `
		INSERT INTO document_numbers (kind, period, last_seq)
		VALUES ($1, $2, 1)
		ON CONFLICT (kind, period) DO UPDATE SET last_seq = document_numbers.last_seq + 1
		RETURNING last_seq
	`

	var seq int64
	if err := s.db.QueryRowContext(ctx, query, kind, billing.PeriodKey(period)).Scan(&seq); err != nil {
		return "", fmt.Errorf("allocating document number: %w", err)
	}

	return billing.FormatNumber(kind, period, seq), nil
}
