package store

import (
	"context"

	"github.com/sells-group/sourcing-cli/internal/model"
)

// OrgFilter specifies criteria for listing organization profiles.
type OrgFilter struct {
	Source       string `json:"source,omitempty"`
	Status       string `json:"status,omitempty"`
	Country      string `json:"country,omitempty"`
	EnrichedOnly bool   `json:"enriched_only,omitempty"`
	Limit        int    `json:"limit,omitempty"`
	Offset       int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for the sourcing pipeline.
// Replace operations are transactional delete-then-insert: the prior rows
// for the scoping key are removed even when the new set is empty.
type Store interface {
	// Organizations. Lookups return (nil, nil) when no row matches.
	UpsertOrganization(ctx context.Context, org *model.OrganizationProfile) error
	BulkUpsertOrganizations(ctx context.Context, orgs []model.OrganizationProfile) (int64, error)
	GetOrganization(ctx context.Context, id string) (*model.OrganizationProfile, error)
	GetByDomain(ctx context.Context, domain string) (*model.OrganizationProfile, error)
	SearchByName(ctx context.Context, query string, limit int) ([]model.OrganizationProfile, error)
	ListOrganizations(ctx context.Context, filter OrgFilter) ([]model.OrganizationProfile, error)
	UpdateWebsite(ctx context.Context, orgID, websiteURL, websiteDomain string) error
	UpdateEnrichment(ctx context.Context, org *model.OrganizationProfile) error

	// Taxonomy
	UpsertIndustries(ctx context.Context, industries []model.TaxonomyIndustry) error
	ListIndustries(ctx context.Context) ([]model.TaxonomyIndustry, error)
	ReplacePriorityTopics(ctx context.Context, industrySlug string, topics []model.PriorityTopic) error
	ListPriorityTopics(ctx context.Context, industrySlug string) ([]model.PriorityTopic, error)
	ReplaceUseCases(ctx context.Context, industrySlug string, edges []model.UseCaseEdge) error
	ListUseCases(ctx context.Context, industrySlug string) ([]model.UseCaseEdge, error)

	// Relevance
	ReplaceRelevanceEdges(ctx context.Context, orgID, industrySlug string, edges []model.RelevanceEdge) error
	ListRelevanceEdges(ctx context.Context, orgID string) ([]model.RelevanceEdge, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
