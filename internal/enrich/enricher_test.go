package enrich

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/sourcing-cli/internal/classify"
	"github.com/sells-group/sourcing-cli/internal/corpus"
	"github.com/sells-group/sourcing-cli/internal/model"
	"github.com/sells-group/sourcing-cli/pkg/gdelt"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type stubStore struct {
	updated   *model.OrganizationProfile
	updateErr error
	byName    map[string]model.OrganizationProfile
}

func (s *stubStore) UpdateEnrichment(_ context.Context, org *model.OrganizationProfile) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updated = org
	return nil
}

func (s *stubStore) SearchByName(_ context.Context, query string, _ int) ([]model.OrganizationProfile, error) {
	for name, org := range s.byName {
		if strings.Contains(strings.ToLower(name), strings.ToLower(query)) {
			return []model.OrganizationProfile{org}, nil
		}
	}
	return nil, nil
}

type stubNews struct {
	calls    []string
	articles []gdelt.Article
	err      error
}

func (s *stubNews) ArticleList(_ context.Context, query string, _ int) ([]gdelt.Article, error) {
	s.calls = append(s.calls, query)
	if s.err != nil {
		return nil, s.err
	}
	return s.articles, nil
}

const homepageHTML = `<html><head><title>Acme Robotics</title></head><body>
<h1>Acme Robotics</h1>
<ul><li>Product: warehouse automation</li><li>Platform: fleet observability</li>
<li>Solution: robotic picking</li><li>Service: deployment support</li>
<li>Product: conveyor integration</li><li>Platform: fleet analytics</li></ul>
<p>We announce a new partnership with a global integrator.</p>
</body></html>`

func TestEnrich_FullPass(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(homepageHTML))
	}))
	defer srv.Close()

	store := &stubStore{}
	news := &stubNews{articles: []gdelt.Article{
		{URL: "https://news.example/a", Title: "Acme expands", Domain: "news.example", SeenDate: "20260810T000000Z"},
	}}

	e := NewEnricher(store, corpus.Default(), news, 5*time.Second, 30)
	org := &model.OrganizationProfile{ID: "org-1", Name: "Acme Robotics", WebsiteURL: srv.URL}
	require.NoError(t, e.Enrich(context.Background(), org))

	require.NotNil(t, store.updated)
	assert.Contains(t, org.ProductsServices, "1. ")
	assert.NotEmpty(t, org.GTMAlignment)
	require.NotNil(t, org.EnrichedAt)
	require.Len(t, org.RecentNews, 1)
	assert.Equal(t, "news.example", org.RecentNews[0].Publisher)
	require.NotNil(t, org.RecentNews[0].PublishedAt)
	require.Len(t, news.calls, 1)
	assert.Equal(t, `"Acme Robotics"`, news.calls[0])
}

func TestEnrich_NoWebsite(t *testing.T) {
	store := &stubStore{}
	e := NewEnricher(store, corpus.Default(), nil, time.Second, 30)

	org := &model.OrganizationProfile{ID: "org-1", Name: "Acme"}
	require.NoError(t, e.Enrich(context.Background(), org))

	assert.Equal(t, NoWebsiteArtifact, org.ProductsServices)
	assert.Equal(t, NoWebsiteCapabilityArtifact, org.CapabilityAlignment)
	assert.Equal(t, NoWebsiteGTMArtifact, org.GTMAlignment)
	assert.Empty(t, org.RecentNews)
	require.NotNil(t, org.EnrichedAt)
}

func TestEnrich_UnreachableHomepageDegradesToSentinels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	store := &stubStore{}
	e := NewEnricher(store, corpus.Default(), nil, time.Second, 30)

	org := &model.OrganizationProfile{ID: "org-1", Name: "Acme", WebsiteURL: srv.URL}
	require.NoError(t, e.Enrich(context.Background(), org))
	assert.Equal(t, classify.NoOfferingsSentinel, org.ProductsServices)
}

func TestEnrich_NewsFallbackQuery(t *testing.T) {
	news := &stubNews{} // always empty
	store := &stubStore{}
	e := NewEnricher(store, corpus.Default(), news, time.Second, 30)

	org := &model.OrganizationProfile{ID: "org-1", Name: "CoreWeave Inc"}
	require.NoError(t, e.Enrich(context.Background(), org))

	require.Len(t, news.calls, 2)
	assert.Equal(t, `"CoreWeave Inc"`, news.calls[0])
	assert.Equal(t, `"CoreWeave Inc" OR CoreWeave`, news.calls[1])
}

func TestEnrich_NewsFailureTolerated(t *testing.T) {
	news := &stubNews{err: errors.New("gdelt down")}
	store := &stubStore{}
	e := NewEnricher(store, corpus.Default(), news, time.Second, 30)

	org := &model.OrganizationProfile{ID: "org-1", Name: "Acme"}
	require.NoError(t, e.Enrich(context.Background(), org))
	assert.Empty(t, org.RecentNews)
}

func TestEnrich_StoreFailureSurfaces(t *testing.T) {
	store := &stubStore{updateErr: errors.New("db down")}
	e := NewEnricher(store, corpus.Default(), nil, time.Second, 30)

	err := e.Enrich(context.Background(), &model.OrganizationProfile{ID: "org-1", Name: "Acme"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persist artifacts")
}

func TestSuggestPeers_SplitsKnownAndSuggested(t *testing.T) {
	c := corpus.Default()
	c.PeerSets = []corpus.PeerSet{
		{Keyword: "robotics", Peers: []string{"Globex Robotics", "Initech Automation"}},
	}
	store := &stubStore{byName: map[string]model.OrganizationProfile{
		"Globex Robotics": {ID: "org-2", Name: "Globex Robotics", Country: "US"},
	}}

	e := NewEnricher(store, c, nil, time.Second, 30)
	org := &model.OrganizationProfile{ID: "org-1", Name: "Acme Robotics"}
	artifact := e.suggestPeers(context.Background(), org, "")

	require.Len(t, artifact.KnownInStore, 1)
	assert.Equal(t, "org-2", artifact.KnownInStore[0].ID)
	assert.Equal(t, []string{"Initech Automation"}, artifact.Suggested)
}

func TestSuggestPeers_ExcludesSelf(t *testing.T) {
	c := corpus.Default()
	c.PeerSets = []corpus.PeerSet{
		{Keyword: "robotics", Peers: []string{"Acme Robotics", "Globex Robotics"}},
	}
	e := NewEnricher(&stubStore{}, c, nil, time.Second, 30)
	org := &model.OrganizationProfile{ID: "org-1", Name: "Acme Robotics"}
	artifact := e.suggestPeers(context.Background(), org, "")

	assert.Empty(t, artifact.KnownInStore)
	assert.Equal(t, []string{"Globex Robotics"}, artifact.Suggested)
}
