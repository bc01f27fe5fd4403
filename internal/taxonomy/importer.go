package taxonomy

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/sourcing-cli/internal/config"
	"github.com/sells-group/sourcing-cli/internal/htmltext"
	"github.com/sells-group/sourcing-cli/internal/model"
)

// Store is the subset of the persistence layer the importer writes to.
// Replace operations carry delete-then-insert semantics per industry.
type Store interface {
	UpsertIndustries(ctx context.Context, industries []model.TaxonomyIndustry) error
	ReplacePriorityTopics(ctx context.Context, industrySlug string, topics []model.PriorityTopic) error
	ReplaceUseCases(ctx context.Context, industrySlug string, edges []model.UseCaseEdge) error
}

// Summary reports what an import sweep touched.
type Summary struct {
	Industries       int `json:"industries"`
	TopicsInserted   int `json:"topics_inserted"`
	UseCasesInserted int `json:"use_cases_inserted"`
	PagesSkipped     int `json:"pages_skipped"`
}

// Importer sweeps the taxonomy landing page and each industry detail page
// into the store.
type Importer struct {
	client  *http.Client
	store   Store
	parser  *Parser
	cfg     config.TaxonomyConfig
	limiter *rate.Limiter
}

// NewImporter creates an Importer. The per-page request delay is enforced
// by a rate limiter so the sweep respects the source's rate limits; keep
// that invariant if the loop is ever parallelized.
func NewImporter(store Store, parser *Parser, cfg config.TaxonomyConfig) *Importer {
	timeout := time.Duration(cfg.FetchTimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	delay := time.Duration(cfg.RequestDelayMS) * time.Millisecond
	if delay <= 0 {
		delay = 800 * time.Millisecond
	}
	return &Importer{
		client:  &http.Client{Timeout: timeout},
		store:   store,
		parser:  parser,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Every(delay), 1),
	}
}

// Import runs a full sweep. Per-industry fetch or parse failures are
// logged and skipped; store write failures abort the run.
func (im *Importer) Import(ctx context.Context) (*Summary, error) {
	industries, err := im.discoverIndustries(ctx)
	if err != nil {
		return nil, err
	}
	if len(industries) == 0 {
		return nil, eris.Errorf("taxonomy: no industry links on %s", im.cfg.LandingURL)
	}

	if err := im.store.UpsertIndustries(ctx, industries); err != nil {
		return nil, eris.Wrap(err, "taxonomy: upsert industries")
	}

	sum := &Summary{Industries: len(industries)}
	for _, ind := range industries {
		if err := im.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "taxonomy: rate limit wait")
		}

		html, err := im.fetch(ctx, ind.URL)
		if err != nil {
			zap.L().Warn("taxonomy: industry page fetch failed, skipping",
				zap.String("slug", ind.Slug), zap.Error(err))
			sum.PagesSkipped++
			continue
		}

		lines, err := htmltext.Lines(html)
		if err != nil {
			zap.L().Warn("taxonomy: industry page parse failed, skipping",
				zap.String("slug", ind.Slug), zap.Error(err))
			sum.PagesSkipped++
			continue
		}

		var topics []model.PriorityTopic
		for _, t := range im.parser.PriorityTopics(lines) {
			topics = append(topics, model.PriorityTopic{
				IndustrySlug: ind.Slug, Topic: t, SourceURL: ind.URL,
			})
		}
		if err := im.store.ReplacePriorityTopics(ctx, ind.Slug, topics); err != nil {
			return nil, eris.Wrapf(err, "taxonomy: replace topics for %s", ind.Slug)
		}
		sum.TopicsInserted += len(topics)

		var edges []model.UseCaseEdge
		for _, p := range im.parser.UseCases(lines) {
			edges = append(edges, model.UseCaseEdge{
				IndustrySlug: ind.Slug, Category: p.Category, SubUseCase: p.Sub, SourceURL: ind.URL,
			})
		}
		if err := im.store.ReplaceUseCases(ctx, ind.Slug, edges); err != nil {
			return nil, eris.Wrapf(err, "taxonomy: replace use cases for %s", ind.Slug)
		}
		sum.UseCasesInserted += len(edges)

		zap.L().Info("taxonomy: industry imported",
			zap.String("slug", ind.Slug),
			zap.Int("topics", len(topics)),
			zap.Int("use_cases", len(edges)),
		)
	}

	return sum, nil
}

// discoverIndustries fetches the landing page and harvests industry links
// whose path contains the configured substring, deduplicated by slug.
func (im *Importer) discoverIndustries(ctx context.Context) ([]model.TaxonomyIndustry, error) {
	html, err := im.fetch(ctx, im.cfg.LandingURL)
	if err != nil {
		return nil, eris.Wrap(err, "taxonomy: fetch landing page")
	}

	base, err := url.Parse(im.cfg.LandingURL)
	if err != nil {
		return nil, eris.Wrap(err, "taxonomy: parse landing url")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, eris.Wrap(err, "taxonomy: parse landing html")
	}

	now := time.Now().UTC()
	bySlug := map[string]model.TaxonomyIndustry{}
	var order []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		name := strings.TrimSpace(s.Text())
		href, _ := s.Attr("href")
		if name == "" || href == "" || !strings.Contains(href, im.cfg.LinkPathSubstring) {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref).String()
		slug := SlugFromURL(abs)
		if slug == "" {
			return
		}
		if _, ok := bySlug[slug]; !ok {
			order = append(order, slug)
		}
		bySlug[slug] = model.TaxonomyIndustry{Slug: slug, Name: name, URL: abs, UpdatedAt: now}
	})

	out := make([]model.TaxonomyIndustry, 0, len(order))
	for _, slug := range order {
		out = append(out, bySlug[slug])
	}
	return out, nil
}

func (im *Importer) fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", eris.Wrap(err, "taxonomy: create request")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; SourcingBot/1.0)")

	resp, err := im.client.Do(req)
	if err != nil {
		return "", eris.Wrapf(err, "taxonomy: fetch %s", pageURL)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", eris.Errorf("taxonomy: fetch %s: status %d", pageURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return "", eris.Wrapf(err, "taxonomy: read %s", pageURL)
	}
	return string(body), nil
}

// SlugFromURL derives an industry slug from the last path element of its
// page URL, stripping a trailing ".html".
func SlugFromURL(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	parts := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
	if len(parts) == 0 {
		return ""
	}
	last := parts[len(parts)-1]
	return strings.TrimSuffix(strings.ToLower(last), ".html")
}
