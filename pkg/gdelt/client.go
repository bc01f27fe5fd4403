// Package gdelt wraps the GDELT DOC 2.0 article list API. No key required.
package gdelt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/sourcing-cli/internal/resilience"
)

const (
	defaultBaseURL = "https://api.gdeltproject.org"
	maxRecords     = 25
	maxDays        = 90
)

// Client performs GDELT article searches.
type Client interface {
	ArticleList(ctx context.Context, query string, days int) ([]Article, error)
}

// Article is one GDELT article record.
type Article struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Domain   string `json:"domain"`
	SeenDate string `json:"seendate"`
	Language string `json:"language"`
}

// PublishedAt parses the GDELT seendate timestamp. Returns nil when the
// field is absent or malformed.
func (a Article) PublishedAt() *time.Time {
	ts, err := time.Parse("20060102T150405Z", a.SeenDate)
	if err != nil {
		return nil
	}
	return &ts
}

type articleListResponse struct {
	Articles []Article `json:"articles"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a GDELT client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ArticleList queries the DOC 2.0 API in ArtList mode. The lookback window
// is clamped to [1, 90] days and results are capped at 25 records.
func (c *httpClient) ArticleList(ctx context.Context, query string, days int) ([]Article, error) {
	if days < 1 {
		days = 1
	}
	if days > maxDays {
		days = maxDays
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("mode", "ArtList")
	params.Set("format", "json")
	params.Set("maxrecords", fmt.Sprintf("%d", maxRecords))
	params.Set("timespan", fmt.Sprintf("%dd", days))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v2/doc/doc?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "gdelt: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "gdelt: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "gdelt: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, resilience.Upstream("gdelt", resp.StatusCode, respBody)
	}

	// GDELT answers some malformed queries with 200 and a plain-text
	// complaint instead of JSON.
	var result articleListResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrapf(err, "gdelt: unmarshal response: %.120s", string(respBody))
	}

	return result.Articles, nil
}
