package discover

import (
	"context"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/sourcing-cli/internal/config"
	"github.com/sells-group/sourcing-cli/internal/model"
)

// ErrDuplicateDomain is returned when a resolution would bind a domain
// already owned by a different organization profile. It is the only
// resolution failure surfaced to callers as an error; every other failure
// mode degrades uniformly to "no website discovered" (a nil Resolution).
var ErrDuplicateDomain = eris.New("discover: domain already bound to another organization")

// SearchHinter provides an optional external web-search hint. FirstResult
// returns the first result link for a free-text query, or "" when the
// provider found nothing.
type SearchHinter interface {
	FirstResult(ctx context.Context, query string) (string, error)
}

// ProfileDirectory is the subset of the profile store the resolver needs
// to enforce the domain-uniqueness invariant.
type ProfileDirectory interface {
	GetByDomain(ctx context.Context, domain string) (*model.OrganizationProfile, error)
}

// Prober fetches and scores a single candidate homepage.
type Prober interface {
	Probe(ctx context.Context, url, name string) *Probe
}

// Resolution is an accepted (url, domain) binding for one organization.
type Resolution struct {
	URL    string
	Domain string
	Score  int
}

// Resolver produces at most one resolved website per organization.
type Resolver struct {
	scorer Prober
	hinter SearchHinter // nil when no hint provider is configured
	dir    ProfileDirectory
	cfg    config.DiscoverConfig
}

// NewResolver creates a Resolver. hinter may be nil.
func NewResolver(scorer Prober, hinter SearchHinter, dir ProfileDirectory, cfg config.DiscoverConfig) *Resolver {
	return &Resolver{scorer: scorer, hinter: hinter, dir: dir, cfg: cfg}
}

// Resolve discovers the website for the named organization. It returns
// (nil, nil) when no confident match was found, and ErrDuplicateDomain
// when the discovered domain is already bound to a different profile.
//
// Candidates are probed serially in generated order so the running-best
// accumulation and the high-confidence early exit stay deterministic.
func (r *Resolver) Resolve(ctx context.Context, orgID, name string) (*Resolution, error) {
	best := r.searchHint(ctx, name)

	if best == nil {
		candidates := Candidates(name, r.cfg.TLDs)
		if len(candidates) == 0 {
			zap.L().Info("discover: no candidates for name", zap.String("name", name))
			return nil, nil
		}

		for _, c := range candidates {
			probe := r.scorer.Probe(ctx, c.URL, name)
			if !probe.Reachable || probe.Score < r.cfg.AcceptScore {
				continue
			}
			if best == nil || probe.Score > best.Score {
				best = &Resolution{URL: probe.URL, Score: probe.Score}
			}
			if best.Score >= r.cfg.HighConfidenceScore {
				break
			}
		}
	}

	if best == nil {
		zap.L().Info("discover: no confident match", zap.String("name", name))
		return nil, nil
	}

	domain, err := NormalizeDomain(best.URL)
	if err != nil {
		zap.L().Warn("discover: unparsable accepted url",
			zap.String("url", best.URL), zap.Error(err))
		return nil, nil
	}
	best.Domain = domain

	// Domain uniqueness invariant: at most one profile per normalized
	// domain. The store backs this with a unique index, so a concurrent
	// racer that slips past this check still fails at commit.
	existing, err := r.dir.GetByDomain(ctx, domain)
	if err != nil {
		return nil, eris.Wrap(err, "discover: check domain uniqueness")
	}
	if existing != nil && existing.ID != orgID {
		zap.L().Warn("discover: duplicate domain",
			zap.String("domain", domain),
			zap.String("owner_id", existing.ID),
			zap.String("owner_name", existing.Name),
		)
		return nil, ErrDuplicateDomain
	}

	zap.L().Info("discover: website resolved",
		zap.String("name", name),
		zap.String("domain", domain),
		zap.Int("score", best.Score),
	)
	return best, nil
}

// searchHint queries the external hint provider, if configured, and scores
// its first http(s) result. Provider failures degrade to candidate
// guessing rather than failing the resolution.
func (r *Resolver) searchHint(ctx context.Context, name string) *Resolution {
	if r.hinter == nil {
		return nil
	}

	link, err := r.hinter.FirstResult(ctx, name+" official website")
	if err != nil {
		zap.L().Warn("discover: search hint unavailable", zap.Error(err))
		return nil
	}
	if !strings.HasPrefix(link, "http") {
		return nil
	}

	probe := r.scorer.Probe(ctx, link, name)
	if !probe.Reachable || probe.Score < r.cfg.AcceptScore {
		return nil
	}
	return &Resolution{URL: link, Score: probe.Score}
}

// NormalizeDomain extracts the hostname from a URL, strips a leading
// "www.", and lowercases it for comparison.
func NormalizeDomain(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", eris.Wrapf(err, "discover: parse url %s", rawURL)
	}
	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return "", eris.Errorf("discover: url %s has no host", rawURL)
	}
	return host, nil
}
