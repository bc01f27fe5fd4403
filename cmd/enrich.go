package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/sourcing-cli/internal/model"
)

var enrichID string

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Rebuild enrichment artifacts for an organization",
	Long:  "Fetches the bound homepage, classifies its text against the static corpora, suggests peers, and attaches recent news. Discovery is not run; use resolve for that.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if enrichID == "" {
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

		org, err := st.GetOrganization(ctx, enrichID)
		if err != nil {
			return err
		}
		if org == nil {
			return eris.Errorf("organization %s not found", enrichID)
		}

		if err := newEnricher(st, c).Enrich(ctx, org); err != nil {
			return err
		}

		zap.L().Info("enrich complete",
			zap.String("org", org.Name),
			zap.Int("peers_suggested", peerCount(org)),
			zap.Int("news", len(org.RecentNews)))
		return nil
	},
}

func init() {
	enrichCmd.Flags().StringVar(&enrichID, "id", "", "organization id")
	rootCmd.AddCommand(enrichCmd)
}

func peerCount(org *model.OrganizationProfile) int {
	if org.Peers == nil {
		return 0
	}
	return len(org.Peers.KnownInStore) + len(org.Peers.Suggested)
}
