// Package enrich orchestrates homepage enrichment: fetch the resolved
// website, derive classification artifacts, suggest peers, attach recent
// news, and overwrite the profile's enrichment fields in one pass.
package enrich

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/sourcing-cli/internal/classify"
	"github.com/sells-group/sourcing-cli/internal/corpus"
	"github.com/sells-group/sourcing-cli/internal/htmltext"
	"github.com/sells-group/sourcing-cli/internal/model"
	"github.com/sells-group/sourcing-cli/internal/resilience"
	"github.com/sells-group/sourcing-cli/pkg/gdelt"
)

// Artifacts written when a profile has no resolved website. Each field gets
// its own wording so exports make clear that enrichment ran but had no text
// to work with, rather than finding no signal in real text.
const (
	NoWebsiteArtifact           = "No website text available; the organization has no resolved website."
	NoWebsiteCapabilityArtifact = "No website text available to assess partner capability alignment."
	NoWebsiteGTMArtifact        = "No website text available to assess GTM alignment."
)

const (
	maxSuggestedPeers = 25
	maxNewsAttached   = 10
	maxBodyBytes      = 2 << 20
)

// Store is the subset of the persistence layer the enricher needs.
type Store interface {
	UpdateEnrichment(ctx context.Context, org *model.OrganizationProfile) error
	SearchByName(ctx context.Context, query string, limit int) ([]model.OrganizationProfile, error)
}

// Enricher derives and persists enrichment artifacts for one profile at a
// time. Artifacts are overwritten wholesale on every run, never merged.
type Enricher struct {
	store    Store
	corpus   *corpus.Corpus
	news     gdelt.Client // nil when news attachment is disabled
	http     *http.Client
	newsDays int
}

// NewEnricher creates an Enricher. newsClient may be nil.
func NewEnricher(store Store, c *corpus.Corpus, newsClient gdelt.Client, fetchTimeout time.Duration, newsDays int) *Enricher {
	if fetchTimeout <= 0 {
		fetchTimeout = 10 * time.Second
	}
	if newsDays <= 0 {
		newsDays = 30
	}
	return &Enricher{
		store:    store,
		corpus:   c,
		news:     newsClient,
		http:     &http.Client{Timeout: fetchTimeout},
		newsDays: newsDays,
	}
}

// Enrich rebuilds all enrichment artifacts for the profile and persists
// them. Upstream failures (unreachable homepage, news outage) degrade to
// sentinel artifacts; only store failures are returned.
func (e *Enricher) Enrich(ctx context.Context, org *model.OrganizationProfile) error {
	text := ""
	if org.WebsiteURL == "" {
		org.ProductsServices = NoWebsiteArtifact
		org.CapabilityAlignment = NoWebsiteCapabilityArtifact
		org.GTMAlignment = NoWebsiteGTMArtifact
	} else {
		text = e.fetchText(ctx, org.WebsiteURL)
		org.ProductsServices = classify.SummarizeOfferings(text, e.corpus.OfferingCues)
		org.CapabilityAlignment = classify.CapabilityAlignment(text, e.corpus.Capabilities)
		org.GTMAlignment = classify.GTMSignals(text, e.corpus.GTMSignals)
	}
	org.Peers = e.suggestPeers(ctx, org, text)
	org.RecentNews = e.attachNews(ctx, org)

	now := time.Now().UTC()
	org.EnrichedAt = &now

	if err := e.store.UpdateEnrichment(ctx, org); err != nil {
		return eris.Wrapf(err, "enrich: persist artifacts for %s", org.ID)
	}

	zap.L().Info("enrich: profile enriched",
		zap.String("organization_id", org.ID),
		zap.String("name", org.Name),
		zap.Bool("website_text", text != ""),
		zap.Int("news", len(org.RecentNews)),
	)
	return nil
}

// fetchText downloads the homepage and extracts normalized text. Any
// failure yields "" so classification falls through to sentinels.
func (e *Enricher) fetchText(ctx context.Context, pageURL string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		zap.L().Warn("enrich: bad website url", zap.String("url", pageURL), zap.Error(err))
		return ""
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; sourcing-cli)")

	resp, err := e.http.Do(req)
	if err != nil {
		zap.L().Warn("enrich: homepage unreachable", zap.String("url", pageURL), zap.Error(err))
		return ""
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		zap.L().Warn("enrich: homepage returned non-2xx",
			zap.String("url", pageURL), zap.Int("status", resp.StatusCode))
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		zap.L().Warn("enrich: read homepage", zap.String("url", pageURL), zap.Error(err))
		return ""
	}

	text, err := htmltext.Text(string(body))
	if err != nil {
		zap.L().Warn("enrich: extract homepage text", zap.String("url", pageURL), zap.Error(err))
		return ""
	}
	return text
}

// suggestPeers matches corpus peer sets against the profile's name, short
// description, and offerings text, then splits suggestions into those
// already present in the store and those not yet sourced.
func (e *Enricher) suggestPeers(ctx context.Context, org *model.OrganizationProfile, text string) *model.PeerArtifact {
	haystack := strings.ToLower(org.Name + " " + org.DescriptionShort + " " + text)
	selfName := strings.ToLower(org.Name)

	var suggested []string
	seen := map[string]bool{}
	for _, set := range e.corpus.PeerSets {
		if !strings.Contains(haystack, strings.ToLower(set.Keyword)) {
			continue
		}
		for _, peer := range set.Peers {
			key := strings.ToLower(peer)
			if key == selfName || seen[key] {
				continue
			}
			seen[key] = true
			suggested = append(suggested, peer)
			if len(suggested) >= maxSuggestedPeers {
				break
			}
		}
		if len(suggested) >= maxSuggestedPeers {
			break
		}
	}

	artifact := &model.PeerArtifact{}
	for _, peer := range suggested {
		matches, err := e.store.SearchByName(ctx, peer, 1)
		if err != nil {
			zap.L().Warn("enrich: peer lookup failed", zap.String("peer", peer), zap.Error(err))
			artifact.Suggested = append(artifact.Suggested, peer)
			continue
		}
		if len(matches) > 0 && matches[0].ID != org.ID {
			artifact.KnownInStore = append(artifact.KnownInStore, model.PeerRef{
				ID:         matches[0].ID,
				Name:       matches[0].Name,
				WebsiteURL: matches[0].WebsiteURL,
				Country:    matches[0].Country,
			})
			continue
		}
		artifact.Suggested = append(artifact.Suggested, peer)
	}
	return artifact
}

// attachNews pulls recent coverage from GDELT. Best effort: failures and
// empty results leave the profile without news.
func (e *Enricher) attachNews(ctx context.Context, org *model.OrganizationProfile) []model.NewsArticle {
	if e.news == nil {
		return nil
	}

	retryCfg := resilience.DefaultRetryConfig()
	retryCfg.OnRetry = resilience.RetryLogger("gdelt", "article_list")
	search := func(query string) ([]gdelt.Article, error) {
		return resilience.DoVal(ctx, retryCfg, func(ctx context.Context) ([]gdelt.Article, error) {
			return e.news.ArticleList(ctx, query, e.newsDays)
		})
	}

	articles, err := search(`"` + org.Name + `"`)
	if err != nil {
		zap.L().Warn("enrich: news search failed", zap.String("name", org.Name), zap.Error(err))
		return nil
	}
	if len(articles) == 0 {
		// Fall back to a looser query using the leading brand token.
		if brand := brandToken(org.Name); brand != "" && !strings.EqualFold(brand, org.Name) {
			articles, err = search(`"` + org.Name + `" OR ` + brand)
			if err != nil {
				zap.L().Warn("enrich: fallback news search failed", zap.String("name", org.Name), zap.Error(err))
				return nil
			}
		}
	}

	now := time.Now().UTC()
	var out []model.NewsArticle
	for _, a := range articles {
		if a.URL == "" {
			continue
		}
		out = append(out, model.NewsArticle{
			URL:         a.URL,
			Title:       a.Title,
			Publisher:   a.Domain,
			PublishedAt: a.PublishedAt(),
			RetrievedAt: now,
		})
		if len(out) >= maxNewsAttached {
			break
		}
	}
	return out
}

// brandToken returns the first word of the name when it is distinctive
// enough to search on.
func brandToken(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	token := fields[0]
	if len(token) < 4 {
		return ""
	}
	return token
}
