package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/sourcing-cli/internal/discover"
	"github.com/sells-group/sourcing-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testOrg(name, domain string) *model.OrganizationProfile {
	return &model.OrganizationProfile{
		ID:            uuid.New().String(),
		Source:        model.SourceGLEIF,
		SourceID:      "LEI-" + uuid.New().String(),
		Name:          name,
		Country:       "US",
		WebsiteURL:    "https://" + domain,
		WebsiteDomain: domain,
		Status:        model.StatusUnknown,
	}
}

// --- Organizations ---

func TestSQLite_Organization_UpsertAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	org := testOrg("Acme Robotics", "acmerobotics.com")
	org.Peers = &model.PeerArtifact{Suggested: []string{"Globex", "Initech"}}
	require.NoError(t, st.UpsertOrganization(ctx, org))

	got, err := st.GetOrganization(ctx, org.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Robotics", got.Name)
	assert.Equal(t, "acmerobotics.com", got.WebsiteDomain)
	require.NotNil(t, got.Peers)
	assert.Equal(t, []string{"Globex", "Initech"}, got.Peers.Suggested)
	assert.Nil(t, got.EnrichedAt)
}

func TestSQLite_Organization_UpsertRefreshesIdentityOnly(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	org := testOrg("Acme", "acme.com")
	require.NoError(t, st.UpsertOrganization(ctx, org))

	// Re-sweep of the same registry record: new city, but the website
	// binding from the first pass must survive.
	refresh := &model.OrganizationProfile{
		ID:       uuid.New().String(),
		Source:   org.Source,
		SourceID: org.SourceID,
		Name:     "Acme Inc",
		City:     "Austin",
	}
	require.NoError(t, st.UpsertOrganization(ctx, refresh))
	assert.Equal(t, org.ID, refresh.ID) // canonical id returned

	got, err := st.GetOrganization(ctx, org.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Inc", got.Name)
	assert.Equal(t, "Austin", got.City)
	assert.Equal(t, "acme.com", got.WebsiteDomain)
}

func TestSQLite_GetByDomain_CaseInsensitive(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	org := testOrg("Acme", "acme.com")
	require.NoError(t, st.UpsertOrganization(ctx, org))

	got, err := st.GetByDomain(ctx, "ACME.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, org.ID, got.ID)
}

func TestSQLite_GetByDomain_Missing(t *testing.T) {
	st := newTestSQLiteStore(t)

	got, err := st.GetByDomain(context.Background(), "nowhere.com")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_GetOrganization_Missing(t *testing.T) {
	st := newTestSQLiteStore(t)

	got, err := st.GetOrganization(context.Background(), "no-such-id")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_UpdateWebsite_DuplicateDomain(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	first := testOrg("Acme", "acme.com")
	require.NoError(t, st.UpsertOrganization(ctx, first))

	second := testOrg("Acme Europe", "")
	second.WebsiteURL = ""
	require.NoError(t, st.UpsertOrganization(ctx, second))

	err := st.UpdateWebsite(ctx, second.ID, "https://acme.com", "ACME.com")
	require.Error(t, err)
	assert.True(t, errors.Is(err, discover.ErrDuplicateDomain))
}

func TestSQLite_UpdateWebsite_UnresolvedProfilesDoNotCollide(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	// Many profiles without a website; the empty domain must not trip
	// the unique index.
	for i := 0; i < 3; i++ {
		org := testOrg("Org", "")
		org.WebsiteURL = ""
		require.NoError(t, st.UpsertOrganization(ctx, org))
	}
}

func TestSQLite_UpdateEnrichment_OverwritesArtifacts(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	org := testOrg("Acme", "acme.com")
	org.ProductsServices = "old artifact"
	require.NoError(t, st.UpsertOrganization(ctx, org))

	now := time.Now().UTC()
	org.ProductsServices = "1. cloud security monitoring"
	org.CapabilityAlignment = "- Security: monitoring"
	org.GTMAlignment = "Recent launches suggest active expansion."
	org.Status = model.StatusPrivate
	org.StatusConfidence = 0.6
	org.RecentNews = []model.NewsArticle{{URL: "https://news.example/a", Title: "A", RetrievedAt: now}}
	org.EnrichedAt = &now
	require.NoError(t, st.UpdateEnrichment(ctx, org))

	got, err := st.GetOrganization(ctx, org.ID)
	require.NoError(t, err)
	assert.Equal(t, "1. cloud security monitoring", got.ProductsServices)
	assert.Equal(t, model.StatusPrivate, got.Status)
	require.Len(t, got.RecentNews, 1)
	assert.Equal(t, "https://news.example/a", got.RecentNews[0].URL)
	require.NotNil(t, got.EnrichedAt)
}

func TestSQLite_SearchByName(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertOrganization(ctx, testOrg("CoreWeave", "coreweave.com")))
	require.NoError(t, st.UpsertOrganization(ctx, testOrg("Corewell Health", "corewellhealth.org")))
	require.NoError(t, st.UpsertOrganization(ctx, testOrg("Unrelated", "unrelated.com")))

	got, err := st.SearchByName(ctx, "core", 10)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSQLite_ListOrganizations_Filters(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	enriched := testOrg("Enriched", "enriched.com")
	now := time.Now().UTC()
	require.NoError(t, st.UpsertOrganization(ctx, enriched))
	enriched.EnrichedAt = &now
	require.NoError(t, st.UpdateEnrichment(ctx, enriched))

	plain := testOrg("Plain", "plain.com")
	require.NoError(t, st.UpsertOrganization(ctx, plain))

	got, err := st.ListOrganizations(ctx, OrgFilter{EnrichedOnly: true})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Enriched", got[0].Name)

	got, err = st.ListOrganizations(ctx, OrgFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

// --- Taxonomy ---

func seedIndustry(t *testing.T, st *SQLiteStore, slug string) {
	t.Helper()
	require.NoError(t, st.UpsertIndustries(context.Background(), []model.TaxonomyIndustry{
		{Slug: slug, Name: slug, URL: "https://example.com/" + slug + ".html"},
	}))
}

func TestSQLite_UpsertIndustries_Idempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	seedIndustry(t, st, "healthcare")
	require.NoError(t, st.UpsertIndustries(ctx, []model.TaxonomyIndustry{
		{Slug: "healthcare", Name: "Healthcare", URL: "https://example.com/healthcare.html"},
	}))

	got, err := st.ListIndustries(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Healthcare", got[0].Name)
}

func TestSQLite_ReplacePriorityTopics_FullReplace(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	seedIndustry(t, st, "education")

	require.NoError(t, st.ReplacePriorityTopics(ctx, "education", []model.PriorityTopic{
		{IndustrySlug: "education", Topic: "Hybrid work"},
		{IndustrySlug: "education", Topic: "Zero trust"},
	}))
	require.NoError(t, st.ReplacePriorityTopics(ctx, "education", []model.PriorityTopic{
		{IndustrySlug: "education", Topic: "Campus networking"},
	}))

	got, err := st.ListPriorityTopics(ctx, "education")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Campus networking", got[0].Topic)
}

func TestSQLite_ReplaceUseCases_EmptySetClears(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	seedIndustry(t, st, "retail")

	require.NoError(t, st.ReplaceUseCases(ctx, "retail", []model.UseCaseEdge{
		{IndustrySlug: "retail", Category: "Cloud", SubUseCase: "Inventory"},
	}))
	require.NoError(t, st.ReplaceUseCases(ctx, "retail", nil))

	got, err := st.ListUseCases(ctx, "retail")
	require.NoError(t, err)
	assert.Empty(t, got)
}

// --- Relevance ---

func TestSQLite_RelevanceEdges_RoundTrip(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	org := testOrg("Acme", "acme.com")
	require.NoError(t, st.UpsertOrganization(ctx, org))

	edges := []model.RelevanceEdge{
		{ID: uuid.New().String(), OrganizationID: org.ID, Cluster: "healthcare:Cloud:Security Monitoring", Score: 3, EvidenceURLs: []string{"https://acme.com"}, Notes: "Keyword overlap score=3"},
		{ID: uuid.New().String(), OrganizationID: org.ID, Cluster: "healthcare:Cloud:Telemetry", Score: 1, Notes: "Keyword overlap score=1"},
	}
	require.NoError(t, st.ReplaceRelevanceEdges(ctx, org.ID, "healthcare", edges))

	got, err := st.ListRelevanceEdges(ctx, org.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Highest score first.
	assert.Equal(t, 3, got[0].Score)
	assert.Equal(t, []string{"https://acme.com"}, got[0].EvidenceURLs)

	// A re-map for the same industry fully replaces.
	require.NoError(t, st.ReplaceRelevanceEdges(ctx, org.ID, "healthcare", nil))
	got, err = st.ListRelevanceEdges(ctx, org.ID)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLite_RelevanceEdges_OtherIndustryUntouched(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	org := testOrg("Acme", "acme.com")
	require.NoError(t, st.UpsertOrganization(ctx, org))

	require.NoError(t, st.ReplaceRelevanceEdges(ctx, org.ID, "healthcare", []model.RelevanceEdge{
		{ID: uuid.New().String(), OrganizationID: org.ID, Cluster: "healthcare:Cloud:X", Score: 2},
	}))
	require.NoError(t, st.ReplaceRelevanceEdges(ctx, org.ID, "retail", []model.RelevanceEdge{
		{ID: uuid.New().String(), OrganizationID: org.ID, Cluster: "retail:Cloud:Y", Score: 1},
	}))

	require.NoError(t, st.ReplaceRelevanceEdges(ctx, org.ID, "retail", nil))
	got, err := st.ListRelevanceEdges(ctx, org.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "healthcare:Cloud:X", got[0].Cluster)
}

func TestSQLite_BulkUpsertOrganizations(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	n, err := st.BulkUpsertOrganizations(ctx, []model.OrganizationProfile{
		*testOrg("Acme Robotics", "acme.com"),
		*testOrg("Bolt Industries", "bolt.io"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got, err := st.SearchByName(ctx, "acme", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Acme Robotics", got[0].Name)
}
