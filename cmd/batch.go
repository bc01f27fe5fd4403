package main

import (
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/sourcing-cli/internal/store"
)

var (
	batchLimit  int
	batchSource string
	batchForce  bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Resolve and enrich organizations in bulk",
	Long:  "Runs the resolve-then-enrich pipeline across stored organizations with bounded concurrency. Per-organization failures are logged and skipped.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		c, err := loadCorpus()
		if err != nil {
			return err
		}

		orgs, err := st.ListOrganizations(ctx, store.OrgFilter{
			Source: batchSource,
			Limit:  batchLimit,
		})
		if err != nil {
			return err
		}

		resolver := newResolver(st)
		enricher := newEnricher(st, c)
		log := zap.L().With(zap.String("command", "batch"))

		maxConcurrent := cfg.Batch.MaxConcurrent
		if maxConcurrent <= 0 {
			maxConcurrent = 4
		}

		var done, failed atomic.Int64
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(maxConcurrent)
		for i := range orgs {
			org := orgs[i]
			g.Go(func() error {
				if err := resolveAndEnrich(gctx, st, resolver, enricher, &org, batchForce); err != nil {
					failed.Add(1)
					log.Warn("organization failed",
						zap.String("org", org.Name), zap.Error(err))
					return nil
				}
				done.Add(1)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		log.Info("batch complete",
			zap.Int64("enriched", done.Load()),
			zap.Int64("failed", failed.Load()))
		return nil
	},
}

func init() {
	batchCmd.Flags().IntVar(&batchLimit, "limit", 100, "max number of organizations to process")
	batchCmd.Flags().StringVar(&batchSource, "source", "", "restrict to a registry source (gleif, companies_house, manual)")
	batchCmd.Flags().BoolVar(&batchForce, "force", false, "re-run discovery even when a website is already bound")
	rootCmd.AddCommand(batchCmd)
}
