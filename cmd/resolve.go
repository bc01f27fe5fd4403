package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	resolveID    string
	resolveForce bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Discover and bind a website for an organization",
	Long:  "Enumerates candidate URLs from the organization's name, scores the homepages, binds the winner when it clears the accept threshold, then rebuilds the enrichment artifacts.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if resolveID == "" {
			return eris.New("--id is required")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		c, err := loadCorpus()
		if err != nil {
			return err
		}

		org, err := st.GetOrganization(ctx, resolveID)
		if err != nil {
			return err
		}
		if org == nil {
			return eris.Errorf("organization %s not found", resolveID)
		}

		log := zap.L().With(zap.String("command", "resolve"), zap.String("org", org.Name))

		if err := resolveAndEnrich(ctx, st, newResolver(st), newEnricher(st, c), org, resolveForce); err != nil {
			return err
		}

		log.Info("resolve complete",
			zap.String("website", org.WebsiteURL),
			zap.String("domain", org.WebsiteDomain))
		return nil
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveID, "id", "", "organization id")
	resolveCmd.Flags().BoolVar(&resolveForce, "force", false, "re-run discovery even when a website is already bound")
	rootCmd.AddCommand(resolveCmd)
}
