package store_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nlorenzo/facturo/internal/billing"
	"github.com/nlorenzo/facturo/internal/billing/store"
)

var documentColumns = []string{
	"id", "kind", "number", "client_id", "issue_date", "due_date", "status",
	"tax_exempt", "notes", "subtotal", "tax_total", "grand_total",
	"version", "created_at", "updated_at",
}

var lineColumns = []string{
	"id", "reference_id", "description", "quantity", "unit_price", "tax_rate_percent",
}

func documentRow(docID, clientID uuid.UUID, at time.Time) []driver.Value {
	return []driver.Value{
		docID.String(), "invoice", "F202608-0001", clientID.String(), at, at,
		"pending", false, "Urgente", "1300.00", "240.00", "1540.00",
		int64(3), at, nil,
	}
}

// The document row and its lines must come off one snapshot; reading them in
// separate implicit transactions lets a concurrent save land in between and
// pair stale totals with fresh lines.
func TestStore_GetDocument_ReadsRowAndLinesInOneTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	docID := uuid.New()
	clientID := uuid.New()
	lineID := uuid.New()
	refID := uuid.New()
	at := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM documents d WHERE d.id").
		WillReturnRows(sqlmock.NewRows(documentColumns).AddRow(documentRow(docID, clientID, at)...))
	mock.ExpectQuery("FROM document_lines").
		WillReturnRows(sqlmock.NewRows(lineColumns).
			AddRow(lineID.String(), refID.String(), "Mensajería urgente", int64(2), "500.00", "21"))
	mock.ExpectCommit()

	doc, err := store.New(db).GetDocument(context.Background(), docID)
	require.NoError(t, err)

	assert.Equal(t, docID, doc.ID)
	assert.Equal(t, "F202608-0001", doc.Number)
	assert.Equal(t, int64(3), doc.Version)
	require.Len(t, doc.Lines, 1)
	assert.Equal(t, lineID, doc.Lines[0].ID)
	assert.Equal(t, 2, doc.Lines[0].Quantity)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GetDocument_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM documents d WHERE d.id").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err = store.New(db).GetDocument(context.Background(), uuid.New())
	assert.ErrorIs(t, err, billing.ErrDocumentNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListDocuments_ReadsRowsAndLinesInOneTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	docA := uuid.New()
	docB := uuid.New()
	clientID := uuid.New()
	at := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	rowB := documentRow(docB, clientID, at)
	rowB[2] = "F202608-0002"

	mock.ExpectBegin()
	mock.ExpectQuery("FROM documents d WHERE 1=1").
		WillReturnRows(sqlmock.NewRows(documentColumns).
			AddRow(documentRow(docA, clientID, at)...).
			AddRow(rowB...))
	mock.ExpectQuery("FROM document_lines").
		WillReturnRows(sqlmock.NewRows(lineColumns))
	mock.ExpectQuery("FROM document_lines").
		WillReturnRows(sqlmock.NewRows(lineColumns))
	mock.ExpectCommit()

	pending := billing.StatusPending

	docs, err := store.New(db).ListDocuments(context.Background(), billing.ListFilter{Status: &pending})
	require.NoError(t, err)

	require.Len(t, docs, 2)
	assert.Equal(t, docA, docs[0].ID)
	assert.Equal(t, docB, docs[1].ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}
