// Package companieshouse wraps the Companies House company search API.
// Authentication is HTTP basic with the API key as username.
package companieshouse

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

const defaultBaseURL = "https://api.company-information.service.gov.uk"

// Client performs Companies House search operations.
type Client interface {
	SearchCompanies(ctx context.Context, query string, itemsPerPage int) ([]Company, error)
}

// Company is one company search result.
type Company struct {
	CompanyNumber string  `json:"company_number"`
	Title         string  `json:"title"`
	CompanyStatus string  `json:"company_status"`
	CompanyType   string  `json:"company_type"`
	Description   string  `json:"description"`
	Address       Address `json:"address"`
}

// Address is the registered office address.
type Address struct {
	Locality string `json:"locality"`
	Region   string `json:"region"`
	Country  string `json:"country"`
}

type searchResponse struct {
	Items []Company `json:"items"`
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
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Companies House client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
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

// SearchCompanies runs a company search. itemsPerPage is clamped to [1, 100].
func (c *httpClient) SearchCompanies(ctx context.Context, query string, itemsPerPage int) ([]Company, error) {
	if itemsPerPage < 1 {
		itemsPerPage = 20
	}
	if itemsPerPage > 100 {
		itemsPerPage = 100
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("items_per_page", fmt.Sprintf("%d", itemsPerPage))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search/companies?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "companieshouse: create request")
	}
	req.SetBasicAuth(c.apiKey, "")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "companieshouse: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "companieshouse: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, resilience.Upstream("companieshouse", resp.StatusCode, respBody)
	}

	var result searchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "companieshouse: unmarshal response")
	}

	return result.Items, nil
}
