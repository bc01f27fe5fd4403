// Package sourcing pulls organization profiles out of public company
// registries and lands them in the store.
package sourcing

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/sourcing-cli/internal/model"
	"github.com/sells-group/sourcing-cli/internal/resilience"
	"github.com/sells-group/sourcing-cli/pkg/companieshouse"
	"github.com/sells-group/sourcing-cli/pkg/gleif"
)

// Store is the subset of the persistence layer the sourcer writes to.
// Sweeps land as a single bulk upsert so the postgres store can use the
// COPY-backed path.
type Store interface {
	BulkUpsertOrganizations(ctx context.Context, orgs []model.OrganizationProfile) (int64, error)
}

// sectorPatterns suggests a GICS sector from query keywords. First match wins.
var sectorPatterns = []struct {
	re     *regexp.Regexp
	sector string
}{
	{regexp.MustCompile(`(?i)\b(cloud|software|saas|cyber|data|ai|semiconductor)\b`), "Information Technology"},
	{regexp.MustCompile(`(?i)\b(energy|solar|wind|oil|gas|renewable)\b`), "Energy"},
	{regexp.MustCompile(`(?i)\b(financial|bank|banking|insurance|asset|capital|fintech)\b`), "Financials"},
	{regexp.MustCompile(`(?i)\b(health|healthcare|pharma|medical|biotech|clinic)\b`), "Health Care"},
	{regexp.MustCompile(`(?i)\b(telecom|broadband|wireless|network|media)\b`), "Communication Services"},
}

// SuggestSector maps query keywords to a GICS sector name, or "" when no
// keyword matches.
func SuggestSector(query string) string {
	for _, p := range sectorPatterns {
		if p.re.MatchString(query) {
			return p.sector
		}
	}
	return ""
}

// Sourcer maps registry search results to organization profiles.
type Sourcer struct {
	store Store
	gleif gleif.Client
	ch    companieshouse.Client
}

// NewSourcer creates a Sourcer. Either client may be nil; the corresponding
// source is then unavailable.
func NewSourcer(store Store, gleifClient gleif.Client, chClient companieshouse.Client) *Sourcer {
	return &Sourcer{store: store, gleif: gleifClient, ch: chClient}
}

// FromGLEIF searches the GLEIF LEI register and upserts the results.
// Returns the number of profiles written.
func (s *Sourcer) FromGLEIF(ctx context.Context, query string, limit int) (int, error) {
	if s.gleif == nil {
		return 0, eris.New("sourcing: gleif client not configured")
	}

	retryCfg := resilience.DefaultRetryConfig()
	retryCfg.OnRetry = resilience.RetryLogger("gleif", "fulltext_search")
	records, err := resilience.DoVal(ctx, retryCfg, func(ctx context.Context) ([]gleif.LEIRecord, error) {
		return s.gleif.FulltextSearch(ctx, query, limit)
	})
	if err != nil {
		return 0, eris.Wrap(err, "sourcing: gleif search")
	}

	sector := SuggestSector(query)
	orgs := make([]model.OrganizationProfile, 0, len(records))
	for _, rec := range records {
		org := mapGLEIF(rec, sector)
		if org == nil {
			zap.L().Warn("sourcing: skipping gleif record without a name", zap.String("lei", rec.ID))
			continue
		}
		orgs = append(orgs, *org)
	}

	written, err := s.store.BulkUpsertOrganizations(ctx, orgs)
	if err != nil {
		return int(written), eris.Wrap(err, "sourcing: gleif bulk upsert")
	}

	zap.L().Info("sourcing: gleif sweep complete",
		zap.String("query", query),
		zap.Int("records", len(records)),
		zap.Int64("written", written),
	)
	return int(written), nil
}

// FromCompaniesHouse searches the Companies House register and upserts the
// results. Returns the number of profiles written.
func (s *Sourcer) FromCompaniesHouse(ctx context.Context, query string, limit int) (int, error) {
	if s.ch == nil {
		return 0, eris.New("sourcing: companies house client not configured")
	}

	retryCfg := resilience.DefaultRetryConfig()
	retryCfg.OnRetry = resilience.RetryLogger("companies_house", "search_companies")
	items, err := resilience.DoVal(ctx, retryCfg, func(ctx context.Context) ([]companieshouse.Company, error) {
		return s.ch.SearchCompanies(ctx, query, limit)
	})
	if err != nil {
		return 0, eris.Wrap(err, "sourcing: companies house search")
	}

	sector := SuggestSector(query)
	orgs := make([]model.OrganizationProfile, 0, len(items))
	for _, item := range items {
		org := mapCompaniesHouse(item, sector)
		if org == nil {
			zap.L().Warn("sourcing: skipping companies house record without a name",
				zap.String("company_number", item.CompanyNumber))
			continue
		}
		orgs = append(orgs, *org)
	}

	written, err := s.store.BulkUpsertOrganizations(ctx, orgs)
	if err != nil {
		return int(written), eris.Wrap(err, "sourcing: companies house bulk upsert")
	}

	zap.L().Info("sourcing: companies house sweep complete",
		zap.String("query", query),
		zap.Int("records", len(items)),
		zap.Int64("written", written),
	)
	return int(written), nil
}

func mapGLEIF(rec gleif.LEIRecord, sector string) *model.OrganizationProfile {
	name := strings.TrimSpace(rec.Attributes.Entity.LegalName.Name)
	if name == "" {
		return nil
	}
	// LEI records carry no listing information.
	return &model.OrganizationProfile{
		ID:               uuid.New().String(),
		Source:           model.SourceGLEIF,
		SourceID:         rec.ID,
		Name:             name,
		City:             rec.Attributes.Entity.LegalAddress.City,
		Region:           rec.Attributes.Entity.LegalAddress.Region,
		Country:          rec.Attributes.Entity.LegalAddress.Country,
		GICSSector:       sector,
		Status:           model.StatusUnknown,
		StatusConfidence: 0.3,
	}
}

func mapCompaniesHouse(item companieshouse.Company, sector string) *model.OrganizationProfile {
	name := strings.TrimSpace(item.Title)
	if name == "" {
		return nil
	}

	// UK plcs are overwhelmingly listed or listable; everything else on the
	// register is private.
	status := model.StatusPrivate
	confidence := 0.7
	if strings.Contains(strings.ToLower(item.CompanyType), "plc") {
		status = model.StatusPublic
		confidence = 0.9
	}

	return &model.OrganizationProfile{
		ID:               uuid.New().String(),
		Source:           model.SourceCompaniesHouse,
		SourceID:         item.CompanyNumber,
		Name:             name,
		City:             item.Address.Locality,
		Region:           item.Address.Region,
		Country:          item.Address.Country,
		DescriptionShort: item.Description,
		GICSSector:       sector,
		Status:           status,
		StatusConfidence: confidence,
	}
}
