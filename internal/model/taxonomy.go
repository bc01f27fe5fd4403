package model

import "time"

// TaxonomyIndustry is one industry page discovered on the taxonomy landing page.
type TaxonomyIndustry struct {
	Slug      string    `json:"slug" db:"slug"`
	Name      string    `json:"name" db:"name"`
	URL       string    `json:"url" db:"url"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// PriorityTopic is a topic listed under an industry's "Priority topics" section.
// Topics are deduplicated by text per industry; order is not significant.
type PriorityTopic struct {
	IndustrySlug string `json:"industry_slug" db:"industry_slug"`
	Topic        string `json:"topic" db:"topic"`
	SourceURL    string `json:"source_url" db:"source_url"`
}

// UseCaseEdge is a (category, sub-item) pair parsed from an industry's
// "Use cases" section. Pairs are deduplicated case-insensitively.
type UseCaseEdge struct {
	IndustrySlug string `json:"industry_slug" db:"industry_slug"`
	Category     string `json:"category" db:"category"`
	SubUseCase   string `json:"sub_use_case" db:"sub_use_case"`
	SourceURL    string `json:"source_url" db:"source_url"`
}

// RelevanceEdge links an organization to a taxonomy cluster. The cluster key
// is "industry:category:sub_use_case". Edges for one organization+industry are
// fully replaced on each mapping run.
type RelevanceEdge struct {
	ID             string    `json:"id" db:"id"`
	OrganizationID string    `json:"organization_id" db:"organization_id"`
	Cluster        string    `json:"cluster" db:"cluster"`
	Score          int       `json:"score" db:"score"`
	EvidenceURLs   []string  `json:"evidence_urls,omitempty" db:"evidence_urls"`
	Notes          string    `json:"notes,omitempty" db:"notes"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
