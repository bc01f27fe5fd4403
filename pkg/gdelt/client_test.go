package gdelt

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArticleList_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/doc/doc", r.URL.Path)
		assert.Equal(t, `"Acme Robotics"`, r.URL.Query().Get("query"))
		assert.Equal(t, "ArtList", r.URL.Query().Get("mode"))
		assert.Equal(t, "25", r.URL.Query().Get("maxrecords"))
		assert.Equal(t, "30d", r.URL.Query().Get("timespan"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(articleListResponse{
			Articles: []Article{
				{URL: "https://news.example/acme-funding", Title: "Acme raises Series C", Domain: "news.example", SeenDate: "20260815T093000Z"},
			},
		})
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	articles, err := client.ArticleList(context.Background(), `"Acme Robotics"`, 30)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "Acme raises Series C", articles[0].Title)

	published := articles[0].PublishedAt()
	require.NotNil(t, published)
	assert.Equal(t, 2026, published.Year())
}

func TestArticleList_ClampsDays(t *testing.T) {
	var gotTimespan string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTimespan = r.URL.Query().Get("timespan")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(articleListResponse{})
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))

	_, err := client.ArticleList(context.Background(), "x", 500)
	require.NoError(t, err)
	assert.Equal(t, "90d", gotTimespan)

	_, err = client.ArticleList(context.Background(), "x", 0)
	require.NoError(t, err)
	assert.Equal(t, "1d", gotTimespan)
}

func TestArticleList_NonJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("Your query was too short or too common."))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.ArticleList(context.Background(), "a", 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal response")
}

func TestPublishedAt_Malformed(t *testing.T) {
	assert.Nil(t, Article{SeenDate: "not-a-date"}.PublishedAt())
	assert.Nil(t, Article{}.PublishedAt())
}
