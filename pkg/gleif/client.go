// Package gleif wraps the GLEIF LEI records API (JSON:API). No key required.
package gleif

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

const defaultBaseURL = "https://api.gleif.org"

// Client performs GLEIF LEI record searches.
type Client interface {
	FulltextSearch(ctx context.Context, query string, pageSize int) ([]LEIRecord, error)
}

// LEIRecord is one LEI record from the fulltext search.
type LEIRecord struct {
	ID         string        `json:"id"`
	Attributes LEIAttributes `json:"attributes"`
}

// LEIAttributes holds the entity block of a record.
type LEIAttributes struct {
	LEI    string `json:"lei"`
	Entity Entity `json:"entity"`
}

// Entity describes the registered legal entity.
type Entity struct {
	LegalName    Name    `json:"legalName"`
	LegalAddress Address `json:"legalAddress"`
	Category     string  `json:"category"`
	Status       string  `json:"status"`
}

// Name is a localized name value.
type Name struct {
	Name string `json:"name"`
}

// Address is the registered address of an entity.
type Address struct {
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country"`
}

type searchResponse struct {
	Data []LEIRecord `json:"data"`
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

// NewClient creates a GLEIF API client.
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

// FulltextSearch queries lei-records with a fulltext filter. pageSize is
// clamped to [1, 200] (the API maximum).
func (c *httpClient) FulltextSearch(ctx context.Context, query string, pageSize int) ([]LEIRecord, error) {
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > 200 {
		pageSize = 200
	}

	params := url.Values{}
	params.Set("filter[fulltext]", query)
	params.Set("page[size]", fmt.Sprintf("%d", pageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/lei-records?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "gleif: create request")
	}
	req.Header.Set("Accept", "application/vnd.api+json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "gleif: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "gleif: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, resilience.Upstream("gleif", resp.StatusCode, respBody)
	}

	var result searchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "gleif: unmarshal response")
	}

	return result.Data, nil
}
