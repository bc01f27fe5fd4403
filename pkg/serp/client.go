// Package serp wraps the SerpAPI Google search endpoint. The resolver uses
// it as an optional hint source: only the first organic result matters.
package serp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/sourcing-cli/internal/resilience"
)

const defaultBaseURL = "https://serpapi.com"

// Client performs SerpAPI search operations.
type Client interface {
	Search(ctx context.Context, query string) (*SearchResponse, error)
	FirstResult(ctx context.Context, query string) (string, error)
}

// SearchResponse is the subset of the SerpAPI payload we read.
type SearchResponse struct {
	OrganicResults []OrganicResult `json:"organic_results"`
}

// OrganicResult is one organic search hit.
type OrganicResult struct {
	Position int    `json:"position"`
	Title    string `json:"title"`
	Link     string `json:"link"`
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

// WithEngine selects the SerpAPI engine. Empty keeps "google".
func WithEngine(engine string) Option {
	return func(c *httpClient) {
		if engine != "" {
			c.engine = engine
		}
	}
}

// WithResults caps how many results each search requests. Zero or negative
// keeps the default of 5.
func WithResults(n int) Option {
	return func(c *httpClient) {
		if n > 0 {
			c.results = n
		}
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	engine  string
	results int
	http    *http.Client
}

// NewClient creates a SerpAPI client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		engine:  "google",
		results: 5,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, query string) (*SearchResponse, error) {
	params := url.Values{}
	params.Set("engine", c.engine)
	params.Set("q", query)
	params.Set("api_key", c.apiKey)
	params.Set("num", strconv.Itoa(c.results))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "serp: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "serp: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "serp: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, resilience.Upstream("serp", resp.StatusCode, respBody)
	}

	var result SearchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "serp: unmarshal response")
	}

	return &result, nil
}

// FirstResult returns the first organic result with a usable http(s) link,
// or "" when no result carries one. SerpAPI sometimes fronts the list with
// ad or knowledge-panel entries that have no link.
func (c *httpClient) FirstResult(ctx context.Context, query string) (string, error) {
	resp, err := c.Search(ctx, query)
	if err != nil {
		return "", err
	}
	for _, r := range resp.OrganicResults {
		if strings.HasPrefix(r.Link, "http") {
			return r.Link, nil
		}
	}
	return "", nil
}
