package billing_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/nlorenzo/facturo/internal/billing"
)

var testNow = time.Date(2026, time.August, 31, 12, 0, 0, 0, time.UTC)

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func intPtr(i int) *int { return &i }

type serviceMocks struct {
	repo      *billing.MockRepository
	catalog   *billing.MockCatalog
	directory *billing.MockDirectory
}

func newTestService(t *testing.T) (*billing.Service, serviceMocks) {
	t.Helper()

	ctrl := gomock.NewController(t)

	m := serviceMocks{
		repo:      billing.NewMockRepository(ctrl),
		catalog:   billing.NewMockCatalog(ctrl),
		directory: billing.NewMockDirectory(ctrl),
	}

	svc := billing.NewService(m.repo, m.catalog, m.directory,
		billing.WithNow(func() time.Time { return testNow }))

	return svc, m
}

func catalogEntry(id uuid.UUID, name, price, taxRate string) *billing.CatalogEntry {
	return &billing.CatalogEntry{
		ID:             id,
		Name:           name,
		Price:          dec(price),
		TaxRatePercent: dec(taxRate),
	}
}

// expectSave wires a SaveDocument call that bumps the version like the
// Postgres store does.
func expectSave(repo *billing.MockRepository) {
	repo.EXPECT().
		SaveDocument(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, doc *billing.Document, expectedVersion int64) error {
			doc.Version = expectedVersion + 1
			return nil
		})
}

func pendingDocument(lines ...billing.LineItem) *billing.Document {
	doc := &billing.Document{
		ID:        uuid.New(),
		Kind:      billing.KindInvoice,
		Number:    "F202608-0001",
		ClientID:  uuid.New(),
		IssueDate: testNow.AddDate(0, 0, -10),
		DueDate:   testNow.AddDate(0, 0, 20),
		Status:    billing.StatusPending,
		Lines:     lines,
		Version:   3,
	}
	doc.Recompute()

	return doc
}

func TestService_Create(t *testing.T) {
	svc, m := newTestService(t)

	clientID := uuid.New()
	refA := uuid.New()
	refB := uuid.New()

	m.directory.EXPECT().
		ResolveParty(gomock.Any(), clientID).
		Return(&billing.Party{ID: clientID, Name: "Acme SL", PaymentTermDays: 30}, nil)
	m.catalog.EXPECT().
		ResolveEntry(gomock.Any(), refA).
		Return(catalogEntry(refA, "Mensajería urgente", "500.00", "21"), nil)
	m.catalog.EXPECT().
		ResolveEntry(gomock.Any(), refB).
		Return(catalogEntry(refB, "Almacenaje", "100.00", "10"), nil)
	m.repo.EXPECT().
		NextNumber(gomock.Any(), billing.KindInvoice, gomock.Any()).
		Return("F202608-0042", nil)
	m.repo.EXPECT().
		CreateDocument(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, doc *billing.Document) error {
			doc.ID = uuid.New()
			doc.CreatedAt = testNow
			return nil
		})

	doc, err := svc.Create(context.Background(), billing.CreateParams{
		Kind:     billing.KindInvoice,
		ClientID: clientID,
		Lines: []billing.LineItemSpec{
			{ReferenceID: refA, Quantity: 2},
			{ReferenceID: refB, Quantity: 3},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "F202608-0042", doc.Number)
	assert.Equal(t, billing.StatusDraft, doc.Status)
	assert.Equal(t, testNow.AddDate(0, 0, 30), doc.DueDate, "due date defaults to issue date + payment term")
	assert.Equal(t, "1300.00", doc.Subtotal.StringFixed(2))
	assert.Equal(t, "240.00", doc.TaxTotal.StringFixed(2))
	assert.Equal(t, "1540.00", doc.GrandTotal.StringFixed(2))
	assert.Len(t, doc.Lines, 2)
	assert.Equal(t, "Mensajería urgente", doc.Lines[0].Description, "description snapshot from catalog")
}

func TestService_Create_Validation(t *testing.T) {
	clientID := uuid.New()
	refID := uuid.New()

	tests := []struct {
		name      string
		params    billing.CreateParams
		setupMock func(m serviceMocks)
		wantErr   error
	}{
		{
			name: "ClientNotFound",
			params: billing.CreateParams{
				Kind:     billing.KindInvoice,
				ClientID: clientID,
			},
			setupMock: func(m serviceMocks) {
				m.directory.EXPECT().
					ResolveParty(gomock.Any(), clientID).
					Return(nil, billing.ErrPartyNotFound)
			},
			wantErr: billing.ErrPartyNotFound,
		},
		{
			name: "DueDateBeforeIssueDate",
			params: billing.CreateParams{
				Kind:      billing.KindInvoice,
				ClientID:  clientID,
				IssueDate: testNow,
				DueDate:   testNow.AddDate(0, 0, -1),
			},
			setupMock: func(m serviceMocks) {
				m.directory.EXPECT().
					ResolveParty(gomock.Any(), clientID).
					Return(&billing.Party{ID: clientID}, nil)
			},
			wantErr: billing.ErrInvalidDates,
		},
		{
			name: "ZeroQuantity",
			params: billing.CreateParams{
				Kind:     billing.KindInvoice,
				ClientID: clientID,
				Lines:    []billing.LineItemSpec{{ReferenceID: refID, Quantity: 0}},
			},
			setupMock: func(m serviceMocks) {
				m.directory.EXPECT().
					ResolveParty(gomock.Any(), clientID).
					Return(&billing.Party{ID: clientID}, nil)
			},
			wantErr: billing.ErrInvalidQuantity,
		},
		{
			name: "NegativePrice",
			params: billing.CreateParams{
				Kind:     billing.KindInvoice,
				ClientID: clientID,
				Lines: []billing.LineItemSpec{
					{ReferenceID: refID, Quantity: 1, UnitPrice: decPtr("-5.00")},
				},
			},
			setupMock: func(m serviceMocks) {
				m.directory.EXPECT().
					ResolveParty(gomock.Any(), clientID).
					Return(&billing.Party{ID: clientID}, nil)
			},
			wantErr: billing.ErrInvalidPrice,
		},
		{
			name: "TaxRateOverHundred",
			params: billing.CreateParams{
				Kind:     billing.KindInvoice,
				ClientID: clientID,
				Lines: []billing.LineItemSpec{
					{ReferenceID: refID, Quantity: 1, TaxRatePercent: decPtr("101")},
				},
			},
			setupMock: func(m serviceMocks) {
				m.directory.EXPECT().
					ResolveParty(gomock.Any(), clientID).
					Return(&billing.Party{ID: clientID}, nil)
			},
			wantErr: billing.ErrInvalidTaxRate,
		},
		{
			name: "CatalogReferenceNotFound",
			params: billing.CreateParams{
				Kind:     billing.KindInvoice,
				ClientID: clientID,
				Lines:    []billing.LineItemSpec{{ReferenceID: refID, Quantity: 1}},
			},
			setupMock: func(m serviceMocks) {
				m.directory.EXPECT().
					ResolveParty(gomock.Any(), clientID).
					Return(&billing.Party{ID: clientID}, nil)
				m.catalog.EXPECT().
					ResolveEntry(gomock.Any(), refID).
					Return(nil, billing.ErrCatalogEntryNotFound)
			},
			wantErr: billing.ErrCatalogEntryNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newTestService(t)
			tt.setupMock(m)

			doc, err := svc.Create(context.Background(), tt.params)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, doc)
		})
	}
}

func TestService_AttachLineItem_SnapshotsCatalogValues(t *testing.T) {
	svc, m := newTestService(t)

	doc := pendingDocument()
	refID := uuid.New()

	m.repo.EXPECT().GetDocument(gomock.Any(), doc.ID).Return(doc, nil)
	m.catalog.EXPECT().
		ResolveEntry(gomock.Any(), refID).
		Return(catalogEntry(refID, "Recogida", "42.50", "21"), nil)
	expectSave(m.repo)

	got, err := svc.AttachLineItem(context.Background(), doc.ID, billing.LineItemSpec{
		ReferenceID: refID,
		Quantity:    2,
	})
	require.NoError(t, err)

	require.Len(t, got.Lines, 1)
	assert.Equal(t, "Recogida", got.Lines[0].Description)
	assert.Equal(t, "42.50", got.Lines[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "21", got.Lines[0].TaxRatePercent.String())
	assert.Equal(t, "85.00", got.Subtotal.StringFixed(2))
	assert.Equal(t, "17.85", got.TaxTotal.StringFixed(2))
	assert.Equal(t, "102.85", got.GrandTotal.StringFixed(2))
	assert.Equal(t, int64(4), got.Version)
}

func TestService_AttachLineItem_ExplicitValuesWin(t *testing.T) {
	svc, m := newTestService(t)

	doc := pendingDocument()
	refID := uuid.New()

	m.repo.EXPECT().GetDocument(gomock.Any(), doc.ID).Return(doc, nil)
	m.catalog.EXPECT().
		ResolveEntry(gomock.Any(), refID).
		Return(catalogEntry(refID, "Recogida", "42.50", "21"), nil)
	expectSave(m.repo)

	got, err := svc.AttachLineItem(context.Background(), doc.ID, billing.LineItemSpec{
		ReferenceID:    refID,
		Quantity:       1,
		UnitPrice:      decPtr("40.00"),
		TaxRatePercent: decPtr("0"),
		Description:    "Recogida con descuento",
	})
	require.NoError(t, err)

	require.Len(t, got.Lines, 1)
	assert.Equal(t, "Recogida con descuento", got.Lines[0].Description)
	assert.Equal(t, "40.00", got.Lines[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "40.00", got.GrandTotal.StringFixed(2))
}

func TestService_AttachThenRemove_RestoresTotals(t *testing.T) {
	svc, m := newTestService(t)

	doc := pendingDocument(billing.LineItem{
		ID:             uuid.New(),
		ReferenceID:    uuid.New(),
		Description:    "Base",
		Quantity:       3,
		UnitPrice:      dec("100.00"),
		TaxRatePercent: dec("10"),
	})

	before := billing.Totals{Subtotal: doc.Subtotal, TaxTotal: doc.TaxTotal, GrandTotal: doc.GrandTotal}
	refID := uuid.New()

	m.repo.EXPECT().GetDocument(gomock.Any(), doc.ID).Return(doc, nil).Times(2)
	m.catalog.EXPECT().
		ResolveEntry(gomock.Any(), refID).
		Return(catalogEntry(refID, "Extra", "19.99", "21"), nil)
	expectSave(m.repo)
	expectSave(m.repo)

	attached, err := svc.AttachLineItem(context.Background(), doc.ID, billing.LineItemSpec{
		ReferenceID: refID,
		Quantity:    1,
	})
	require.NoError(t, err)
	require.Len(t, attached.Lines, 2)

	restored, err := svc.RemoveLineItem(context.Background(), doc.ID, attached.Lines[1].ID)
	require.NoError(t, err)

	assert.True(t, restored.Subtotal.Equal(before.Subtotal))
	assert.True(t, restored.TaxTotal.Equal(before.TaxTotal))
	assert.True(t, restored.GrandTotal.Equal(before.GrandTotal))
}

func TestService_UpdateLineItem(t *testing.T) {
	svc, m := newTestService(t)

	lineID := uuid.New()
	doc := pendingDocument(billing.LineItem{
		ID:             lineID,
		ReferenceID:    uuid.New(),
		Description:    "Base",
		Quantity:       2,
		UnitPrice:      dec("500.00"),
		TaxRatePercent: dec("21"),
	})

	m.repo.EXPECT().GetDocument(gomock.Any(), doc.ID).Return(doc, nil)
	expectSave(m.repo)

	got, err := svc.UpdateLineItem(context.Background(), doc.ID, lineID, billing.LinePatch{
		Quantity: intPtr(4),
	})
	require.NoError(t, err)

	assert.Equal(t, 4, got.Lines[0].Quantity)
	assert.Equal(t, "2000.00", got.Subtotal.StringFixed(2))
	assert.Equal(t, "420.00", got.TaxTotal.StringFixed(2))
	assert.Equal(t, "2420.00", got.GrandTotal.StringFixed(2))
}

func TestService_UpdateLineItem_NotFound(t *testing.T) {
	svc, m := newTestService(t)

	doc := pendingDocument()
	m.repo.EXPECT().GetDocument(gomock.Any(), doc.ID).Return(doc, nil)

	_, err := svc.UpdateLineItem(context.Background(), doc.ID, uuid.New(), billing.LinePatch{
		Quantity: intPtr(2),
	})
	assert.ErrorIs(t, err, billing.ErrLineItemNotFound)
}

func TestService_UpdateLineItem_LockedDocument(t *testing.T) {
	lockedStatuses := []billing.Status{
		billing.StatusPaid,
		billing.StatusCancelled,
		billing.StatusOverdue,
	}

	for _, status := range lockedStatuses {
		t.Run(string(status), func(t *testing.T) {
			svc, m := newTestService(t)

			lineID := uuid.New()
			doc := pendingDocument(billing.LineItem{
				ID:             lineID,
				ReferenceID:    uuid.New(),
				Quantity:       2,
				UnitPrice:      dec("500.00"),
				TaxRatePercent: dec("21"),
			})
			doc.Status = status
			wantTotal := doc.GrandTotal

			// SaveDocument is deliberately not expected: a locked document
			// must not be written.
			m.repo.EXPECT().GetDocument(gomock.Any(), doc.ID).Return(doc, nil)

			_, err := svc.UpdateLineItem(context.Background(), doc.ID, lineID, billing.LinePatch{
				Quantity: intPtr(99),
			})
			assert.ErrorIs(t, err, billing.ErrDocumentLocked)
			assert.True(t, doc.GrandTotal.Equal(wantTotal), "totals must remain unchanged")
		})
	}
}

func TestService_ReplaceAllLineItems(t *testing.T) {
	svc, m := newTestService(t)

	doc := pendingDocument(billing.LineItem{
		ID:             uuid.New(),
		ReferenceID:    uuid.New(),
		Description:    "Old",
		Quantity:       1,
		UnitPrice:      dec("10.00"),
		TaxRatePercent: dec("21"),
	})
	refID := uuid.New()

	m.repo.EXPECT().GetDocument(gomock.Any(), doc.ID).Return(doc, nil)
	m.catalog.EXPECT().
		ResolveEntry(gomock.Any(), refID).
		Return(catalogEntry(refID, "Nuevo", "200.00", "21"), nil).
		Times(2)
	expectSave(m.repo)

	got, err := svc.ReplaceAllLineItems(context.Background(), doc.ID, []billing.LineItemSpec{
		{ReferenceID: refID, Quantity: 1},
		{ReferenceID: refID, Quantity: 2},
	})
	require.NoError(t, err)

	require.Len(t, got.Lines, 2)
	assert.Equal(t, "600.00", got.Subtotal.StringFixed(2))
}

func TestService_ReplaceAllLineItems_AllOrNothing(t *testing.T) {
	svc, m := newTestService(t)

	original := billing.LineItem{
		ID:             uuid.New(),
		ReferenceID:    uuid.New(),
		Description:    "Original",
		Quantity:       1,
		UnitPrice:      dec("10.00"),
		TaxRatePercent: dec("21"),
	}
	doc := pendingDocument(original)
	wantTotal := doc.GrandTotal
	refID := uuid.New()

	// First spec resolves fine; the second fails validation before any
	// catalog call, and nothing is saved.
	m.repo.EXPECT().GetDocument(gomock.Any(), doc.ID).Return(doc, nil)
	m.catalog.EXPECT().
		ResolveEntry(gomock.Any(), refID).
		Return(catalogEntry(refID, "Nuevo", "200.00", "21"), nil)

	_, err := svc.ReplaceAllLineItems(context.Background(), doc.ID, []billing.LineItemSpec{
		{ReferenceID: refID, Quantity: 1},
		{ReferenceID: refID, Quantity: 0},
	})
	assert.ErrorIs(t, err, billing.ErrInvalidQuantity)

	assert.Len(t, doc.Lines, 1)
	assert.Equal(t, "Original", doc.Lines[0].Description)
	assert.True(t, doc.GrandTotal.Equal(wantTotal))
}

func TestService_AttachLineItem_ConcurrentModification(t *testing.T) {
	svc, m := newTestService(t)

	doc := pendingDocument()
	refID := uuid.New()

	m.repo.EXPECT().GetDocument(gomock.Any(), doc.ID).Return(doc, nil)
	m.catalog.EXPECT().
		ResolveEntry(gomock.Any(), refID).
		Return(catalogEntry(refID, "Recogida", "42.50", "21"), nil)
	m.repo.EXPECT().
		SaveDocument(gomock.Any(), gomock.Any(), doc.Version).
		Return(billing.ErrConcurrentModification)

	_, err := svc.AttachLineItem(context.Background(), doc.ID, billing.LineItemSpec{
		ReferenceID: refID,
		Quantity:    1,
	})
	assert.ErrorIs(t, err, billing.ErrConcurrentModification)
}

func TestService_Transition(t *testing.T) {
	tests := []struct {
		name    string
		status  billing.Status
		dueDate time.Time
		target  billing.Status
		wantErr error
	}{
		{
			name:   "PendingToPaid",
			status: billing.StatusPending,
			target: billing.StatusPaid,
		},
		{
			name:   "PendingToCancelled",
			status: billing.StatusPending,
			target: billing.StatusCancelled,
		},
		{
			name:    "PendingToOverdueAfterDueDate",
			status:  billing.StatusPending,
			dueDate: testNow.AddDate(0, 0, -1),
			target:  billing.StatusOverdue,
		},
		{
			name:    "PendingToOverdueBeforeDueDate",
			status:  billing.StatusPending,
			dueDate: testNow.AddDate(0, 0, 5),
			target:  billing.StatusOverdue,
			wantErr: billing.ErrInvalidTransition,
		},
		{
			name:    "DraftToPaid",
			status:  billing.StatusDraft,
			target:  billing.StatusPaid,
			wantErr: billing.ErrInvalidTransition,
		},
		{
			name:    "PaidIsTerminal",
			status:  billing.StatusPaid,
			target:  billing.StatusCancelled,
			wantErr: billing.ErrInvalidTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newTestService(t)

			doc := pendingDocument()
			doc.Status = tt.status

			if !tt.dueDate.IsZero() {
				doc.DueDate = tt.dueDate
			}

			m.repo.EXPECT().GetDocument(gomock.Any(), doc.ID).Return(doc, nil)

			if tt.wantErr == nil {
				expectSave(m.repo)
			}

			got, err := svc.Transition(context.Background(), doc.ID, tt.target)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.target, got.Status)
		})
	}
}

func TestService_MarkOverdue(t *testing.T) {
	svc, m := newTestService(t)

	due := pendingDocument()
	due.DueDate = testNow.AddDate(0, 0, -3)

	notDue := pendingDocument()
	notDue.DueDate = testNow.AddDate(0, 0, 3)

	contested := pendingDocument()
	contested.DueDate = testNow.AddDate(0, 0, -1)

	m.repo.EXPECT().
		ListDocuments(gomock.Any(), gomock.Any()).
		Return([]*billing.Document{due, notDue, contested}, nil)
	m.repo.EXPECT().
		SaveDocument(gomock.Any(), due, due.Version).
		Return(nil)
	m.repo.EXPECT().
		SaveDocument(gomock.Any(), contested, contested.Version).
		Return(billing.ErrConcurrentModification)

	marked, err := svc.MarkOverdue(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, marked)
	assert.Equal(t, billing.StatusOverdue, due.Status)
	assert.Equal(t, billing.StatusPending, notDue.Status)
}
