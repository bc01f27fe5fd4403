package match

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/sourcing-cli/internal/model"
)

// maxEvidenceNews caps how many news links are attached as evidence.
const maxEvidenceNews = 5

// Store is the persistence surface the mapper needs. ReplaceRelevanceEdges
// carries delete-then-insert semantics for one organization+industry.
type Store interface {
	ListUseCases(ctx context.Context, industrySlug string) ([]model.UseCaseEdge, error)
	ReplaceRelevanceEdges(ctx context.Context, orgID, industrySlug string, edges []model.RelevanceEdge) error
}

// Mapper maps one organization's profile onto one industry's use cases
// and persists the resulting relevance edges.
type Mapper struct {
	store Store
}

// NewMapper creates a Mapper.
func NewMapper(store Store) *Mapper {
	return &Mapper{store: store}
}

// Map ranks the industry's use cases against the organization's enriched
// products/services text and fully replaces the organization's relevance
// edges for that industry. The organization must have been enriched first.
func (m *Mapper) Map(ctx context.Context, org *model.OrganizationProfile, industrySlug string) ([]Scored, error) {
	if org.ProductsServices == "" {
		return nil, eris.Errorf("match: organization %s has no products/services text; enrich first", org.ID)
	}

	items, err := m.store.ListUseCases(ctx, industrySlug)
	if err != nil {
		return nil, eris.Wrapf(err, "match: list use cases for %s", industrySlug)
	}

	scored := Rank(org.ProductsServices, items)

	evidence := make([]string, 0, 1+maxEvidenceNews)
	if org.WebsiteURL != "" {
		evidence = append(evidence, org.WebsiteURL)
	}
	for i, n := range org.RecentNews {
		if i >= maxEvidenceNews {
			break
		}
		if n.URL != "" {
			evidence = append(evidence, n.URL)
		}
	}

	edges := make([]model.RelevanceEdge, 0, len(scored))
	for _, s := range scored {
		edges = append(edges, model.RelevanceEdge{
			ID:             uuid.NewString(),
			OrganizationID: org.ID,
			Cluster:        fmt.Sprintf("%s:%s:%s", industrySlug, s.Edge.Category, s.Edge.SubUseCase),
			Score:          s.Score,
			EvidenceURLs:   evidence,
			Notes:          fmt.Sprintf("Keyword overlap score=%d", s.Score),
		})
	}

	if err := m.store.ReplaceRelevanceEdges(ctx, org.ID, industrySlug, edges); err != nil {
		return nil, eris.Wrapf(err, "match: replace edges for %s/%s", org.ID, industrySlug)
	}

	zap.L().Info("match: relevance edges replaced",
		zap.String("organization_id", org.ID),
		zap.String("industry", industrySlug),
		zap.Int("matches", len(scored)),
	)
	return scored, nil
}
