package catalog_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nlorenzo/facturo/internal/catalog"
)

// mockRepo is a minimal in-memory Repository for importer tests.
type mockRepo struct {
	created []*catalog.Entry
	entries map[uuid.UUID]*catalog.Entry
}

func newMockRepo() *mockRepo {
	return &mockRepo{entries: make(map[uuid.UUID]*catalog.Entry)}
}

func (m *mockRepo) CreateEntry(ctx context.Context, e *catalog.Entry) error {
	m.entries[e.ID] = e
	return nil
}

func (m *mockRepo) CreateEntries(ctx context.Context, entries []*catalog.Entry) error {
	m.created = append(m.created, entries...)
	for _, e := range entries {
		m.entries[e.ID] = e
	}

	return nil
}

func (m *mockRepo) GetEntry(ctx context.Context, id uuid.UUID) (*catalog.Entry, error) {
	e, ok := m.entries[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}

	return e, nil
}

func (m *mockRepo) ListEntries(ctx context.Context, activeOnly bool) ([]*catalog.Entry, error) {
	return nil, nil
}

func (m *mockRepo) UpdateEntry(ctx context.Context, e *catalog.Entry) error { return nil }

func (m *mockRepo) DeactivateEntry(ctx context.Context, id uuid.UUID) error { return nil }

func TestService_ImportCSV(t *testing.T) {
	repo := newMockRepo()
	svc := catalog.NewService(repo)

	csvData := "code,name,description,price,tax_percent\n" +
		"SRV-01,Mensajería urgente,Entrega en 24h,19.99,21\n" +
		"SRV-02,Almacenaje,,5.00,10\n"

	entries, err := svc.ImportCSV(context.Background(), bytes.NewReader([]byte(csvData)))
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, "SRV-01", entries[0].Code)
	assert.Equal(t, "Mensajería urgente", entries[0].Name)
	assert.Equal(t, "19.99", entries[0].Price.StringFixed(2))
	assert.Equal(t, "21", entries[0].TaxRatePercent.String())
	assert.True(t, entries[0].Active)
	assert.Len(t, repo.created, 2)
}

func TestService_ImportCSV_Windows1252(t *testing.T) {
	repo := newMockRepo()
	svc := catalog.NewService(repo)

	// "SRV-03,Camión pequeño,Recogida a domicilio,45.50,21" in
	// Windows-1252: ó = 0xF3, ñ = 0xF1.
	var data bytes.Buffer
	data.WriteString("code,name,description,price,tax_percent\n")
	data.WriteString("SRV-03,Cami")
	data.WriteByte(0xF3)
	data.WriteString("n peque")
	data.WriteByte(0xF1)
	data.WriteString("o,Recogida a domicilio,45.50,21\n")

	entries, err := svc.ImportCSV(context.Background(), &data)
	require.NoError(t, err)

	require.Len(t, entries, 1)
	assert.Equal(t, "Camión pequeño", entries[0].Name)
}

func TestService_ImportCSV_SpanishDecimalComma(t *testing.T) {
	repo := newMockRepo()
	svc := catalog.NewService(repo)

	csvData := "code,name,description,price,tax_percent\n" +
		"SRV-04,Embalaje,,\"12,50\",21\n"

	entries, err := svc.ImportCSV(context.Background(), bytes.NewReader([]byte(csvData)))
	require.NoError(t, err)

	require.Len(t, entries, 1)
	assert.Equal(t, "12.50", entries[0].Price.StringFixed(2))
}

func TestService_ImportCSV_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		csvData string
	}{
		{
			name:    "WrongHeader",
			csvData: "id,label,price\nX,Y,1\n",
		},
		{
			name: "NegativePrice",
			csvData: "code,name,description,price,tax_percent\n" +
				"SRV-01,Mensajería,,-1.00,21\n",
		},
		{
			name: "TaxOverHundred",
			csvData: "code,name,description,price,tax_percent\n" +
				"SRV-01,Mensajería,,10.00,150\n",
		},
		{
			name: "MissingCode",
			csvData: "code,name,description,price,tax_percent\n" +
				",Mensajería,,10.00,21\n",
		},
		{
			name: "BadAmount",
			csvData: "code,name,description,price,tax_percent\n" +
				"SRV-01,Mensajería,,abc,21\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepo()
			svc := catalog.NewService(repo)

			_, err := svc.ImportCSV(context.Background(), bytes.NewReader([]byte(tt.csvData)))
			assert.Error(t, err)
			assert.Empty(t, repo.created, "a bad row must abort the whole import")
		})
	}
}

func TestService_ImportCSV_Empty(t *testing.T) {
	repo := newMockRepo()
	svc := catalog.NewService(repo)

	entries, err := svc.ImportCSV(context.Background(),
		bytes.NewReader([]byte("code,name,description,price,tax_percent\n")))
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, repo.created)
}
