// Package model defines the persisted record types for the sourcing pipeline.
package model

import (
	"time"
)

// OrganizationProfile is the golden record for a sourced organization.
type OrganizationProfile struct {
	ID       string `json:"id" db:"id"`
	Source   string `json:"source" db:"source"`
	SourceID string `json:"source_id" db:"source_id"`
	Name     string `json:"name" db:"name"`

	// Location
	City    string `json:"city,omitempty" db:"city"`
	Region  string `json:"region,omitempty" db:"region"`
	Country string `json:"country,omitempty" db:"country"`

	// Website binding. WebsiteDomain is normalized (leading "www." stripped,
	// lowercased) and unique across all profiles.
	WebsiteURL    string `json:"website_url,omitempty" db:"website_url"`
	WebsiteDomain string `json:"website_domain,omitempty" db:"website_domain"`

	// Classification
	DescriptionShort string  `json:"description_short,omitempty" db:"description_short"`
	GICSSector       string  `json:"gics_sector,omitempty" db:"gics_sector"`
	Status           string  `json:"status,omitempty" db:"status"`
	StatusConfidence float64 `json:"status_confidence,omitempty" db:"status_confidence"`

	// Enrichment artifacts. Overwritten wholesale on each enrichment run,
	// never merged. Sentinel strings are used when no signal was found.
	ProductsServices    string        `json:"products_services,omitempty" db:"products_services"`
	CapabilityAlignment string        `json:"capability_alignment,omitempty" db:"capability_alignment"`
	GTMAlignment        string        `json:"gtm_alignment,omitempty" db:"gtm_alignment"`
	Peers               *PeerArtifact `json:"peers,omitempty" db:"peers"`
	RecentNews          []NewsArticle `json:"recent_news,omitempty" db:"recent_news"`

	EnrichedAt    *time.Time `json:"enriched_at,omitempty" db:"enriched_at"`
	LastCheckedAt *time.Time `json:"last_checked_at,omitempty" db:"last_checked_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// Known sourcing registries.
const (
	SourceGLEIF          = "gleif"
	SourceCompaniesHouse = "companies_house"
	SourceManual         = "manual"
)

// Organization statuses.
const (
	StatusPublic  = "public"
	StatusPrivate = "private"
	StatusUnknown = "unknown"
)

// PeerArtifact records suggested peers for an organization, split into those
// already present in the profile store and those not yet sourced.
type PeerArtifact struct {
	KnownInStore []PeerRef `json:"known_in_store,omitempty"`
	Suggested    []string  `json:"suggested,omitempty"`
}

// PeerRef is a lightweight reference to a known peer profile.
type PeerRef struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	WebsiteURL string `json:"website_url,omitempty"`
	Country    string `json:"country,omitempty"`
}

// NewsArticle is a news item associated with an organization.
type NewsArticle struct {
	URL         string     `json:"url" db:"url"`
	Title       string     `json:"title" db:"title"`
	Publisher   string     `json:"publisher,omitempty" db:"publisher"`
	PublishedAt *time.Time `json:"published_at,omitempty" db:"published_at"`
	RetrievedAt time.Time  `json:"retrieved_at" db:"retrieved_at"`
}
