package sourcing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/sourcing-cli/internal/model"
	"github.com/sells-group/sourcing-cli/pkg/companieshouse"
	"github.com/sells-group/sourcing-cli/pkg/gleif"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type memStore struct {
	orgs      []model.OrganizationProfile
	upsertErr error
}

func (m *memStore) BulkUpsertOrganizations(_ context.Context, orgs []model.OrganizationProfile) (int64, error) {
	if m.upsertErr != nil {
		return 0, m.upsertErr
	}
	m.orgs = append(m.orgs, orgs...)
	return int64(len(orgs)), nil
}

type stubGLEIF struct {
	records []gleif.LEIRecord
	err     error
}

func (s *stubGLEIF) FulltextSearch(context.Context, string, int) ([]gleif.LEIRecord, error) {
	return s.records, s.err
}

type stubCH struct {
	items []companieshouse.Company
	err   error
}

func (s *stubCH) SearchCompanies(context.Context, string, int) ([]companieshouse.Company, error) {
	return s.items, s.err
}

func leiRecord(lei, name, city, country string) gleif.LEIRecord {
	return gleif.LEIRecord{
		ID: lei,
		Attributes: gleif.LEIAttributes{
			LEI: lei,
			Entity: gleif.Entity{
				LegalName:    gleif.Name{Name: name},
				LegalAddress: gleif.Address{City: city, Country: country},
			},
		},
	}
}

func TestFromGLEIF_MapsRecords(t *testing.T) {
	store := &memStore{}
	sourcer := NewSourcer(store, &stubGLEIF{records: []gleif.LEIRecord{
		leiRecord("LEI-1", "ACME CLOUD LTD", "London", "GB"),
		leiRecord("LEI-2", "", "", ""), // skipped, no name
	}}, nil)

	n, err := sourcer.FromGLEIF(context.Background(), "acme cloud", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, store.orgs, 1)

	org := store.orgs[0]
	assert.Equal(t, model.SourceGLEIF, org.Source)
	assert.Equal(t, "LEI-1", org.SourceID)
	assert.Equal(t, "ACME CLOUD LTD", org.Name)
	assert.Equal(t, "London", org.City)
	assert.Equal(t, model.StatusUnknown, org.Status)
	assert.InDelta(t, 0.3, org.StatusConfidence, 0.001)
	assert.Equal(t, "Information Technology", org.GICSSector)
	assert.NotEmpty(t, org.ID)
}

func TestFromCompaniesHouse_StatusHeuristics(t *testing.T) {
	store := &memStore{}
	sourcer := NewSourcer(store, nil, &stubCH{items: []companieshouse.Company{
		{CompanyNumber: "001", Title: "ACME TRADING PLC", CompanyType: "plc"},
		{CompanyNumber: "002", Title: "ACME WIDGETS LTD", CompanyType: "ltd"},
	}})

	n, err := sourcer.FromCompaniesHouse(context.Background(), "acme", 20)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, store.orgs, 2)

	assert.Equal(t, model.StatusPublic, store.orgs[0].Status)
	assert.InDelta(t, 0.9, store.orgs[0].StatusConfidence, 0.001)
	assert.Equal(t, model.StatusPrivate, store.orgs[1].Status)
	assert.InDelta(t, 0.7, store.orgs[1].StatusConfidence, 0.001)
}

func TestFromGLEIF_StoreErrorAborts(t *testing.T) {
	store := &memStore{upsertErr: errors.New("db down")}
	sourcer := NewSourcer(store, &stubGLEIF{records: []gleif.LEIRecord{
		leiRecord("LEI-1", "ACME", "", ""),
	}}, nil)

	_, err := sourcer.FromGLEIF(context.Background(), "acme", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gleif bulk upsert")
}

func TestFromGLEIF_NotConfigured(t *testing.T) {
	sourcer := NewSourcer(&memStore{}, nil, nil)
	_, err := sourcer.FromGLEIF(context.Background(), "x", 10)
	require.Error(t, err)

	_, err = sourcer.FromCompaniesHouse(context.Background(), "x", 10)
	require.Error(t, err)
}

func TestSuggestSector(t *testing.T) {
	tests := []struct {
		query  string
		sector string
	}{
		{"cloud infrastructure providers", "Information Technology"},
		{"renewable energy", "Energy"},
		{"fintech startups", "Financials"},
		{"biotech research", "Health Care"},
		{"wireless carriers", "Communication Services"},
		{"bakeries in portland", ""},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.sector, SuggestSector(tt.query))
		})
	}
}
