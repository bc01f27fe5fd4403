package main

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/sourcing-cli/internal/corpus"
	"github.com/sells-group/sourcing-cli/internal/discover"
	"github.com/sells-group/sourcing-cli/internal/enrich"
	"github.com/sells-group/sourcing-cli/internal/model"
	"github.com/sells-group/sourcing-cli/internal/store"
	"github.com/sells-group/sourcing-cli/pkg/gdelt"
	"github.com/sells-group/sourcing-cli/pkg/serp"
)

func initStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "sourcing.db"
		}
		st, err = store.NewSQLite(dsn)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

func loadCorpus() (*corpus.Corpus, error) {
	return corpus.Load(cfg.Corpus.CapabilitiesPath, cfg.Corpus.PeerSetsPath)
}

func newResolver(st store.Store) *discover.Resolver {
	scorer := discover.NewScorer(time.Duration(cfg.Discover.FetchTimeoutSecs) * time.Second)

	var hinter discover.SearchHinter
	if cfg.Serp.Key != "" {
		hinter = serp.NewClient(cfg.Serp.Key,
			serp.WithBaseURL(cfg.Serp.BaseURL),
			serp.WithEngine(cfg.Serp.Engine),
			serp.WithResults(cfg.Serp.Results))
	}
	return discover.NewResolver(scorer, hinter, st, cfg.Discover)
}

func newEnricher(st store.Store, c *corpus.Corpus) *enrich.Enricher {
	news := gdelt.NewClient(gdelt.WithBaseURL(cfg.GDELT.BaseURL))
	timeout := time.Duration(cfg.Discover.FetchTimeoutSecs) * time.Second
	return enrich.NewEnricher(st, c, news, timeout, cfg.GDELT.Days)
}

// resolveAndEnrich runs the standard per-organization pipeline: bind a
// website unless one is already bound (or force is set), then rebuild the
// enrichment artifacts. A failed resolution is not an error; the profile is
// enriched with whatever is available.
func resolveAndEnrich(ctx context.Context, st store.Store, resolver *discover.Resolver, enricher *enrich.Enricher, org *model.OrganizationProfile, force bool) error {
	if org.WebsiteURL == "" || force {
		res, err := resolver.Resolve(ctx, org.ID, org.Name)
		if err != nil {
			if errors.Is(err, discover.ErrDuplicateDomain) {
				return err
			}
			return eris.Wrapf(err, "resolve %s", org.Name)
		}
		if res != nil {
			if err := st.UpdateWebsite(ctx, org.ID, res.URL, res.Domain); err != nil {
				return err
			}
			org.WebsiteURL = res.URL
			org.WebsiteDomain = res.Domain
		} else {
			zap.L().Info("no website discovered", zap.String("name", org.Name))
		}
	}

	return enricher.Enrich(ctx, org)
}
