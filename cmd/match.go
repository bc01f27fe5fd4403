package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/sourcing-cli/internal/match"
)

var (
	matchID       string
	matchIndustry string
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Map an organization onto taxonomy clusters",
	Long:  "Scores the organization's enrichment text against the imported use-case edges for an industry and replaces the stored relevance edges with the ranked matches.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if matchID == "" {
			return eris.New("--id is required")
		}
		if matchIndustry == "" {
			return eris.New("--industry is required")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		org, err := st.GetOrganization(ctx, matchID)
		if err != nil {
			return err
		}
		if org == nil {
			return eris.Errorf("organization %s not found", matchID)
		}

		scored, err := match.NewMapper(st).Map(ctx, org, matchIndustry)
		if err != nil {
			return err
		}

		for _, s := range scored {
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s > %s\n", s.Score, s.Edge.Category, s.Edge.SubUseCase)
		}
		zap.L().Info("match complete",
			zap.String("org", org.Name),
			zap.String("industry", matchIndustry),
			zap.Int("edges", len(scored)))
		return nil
	},
}

func init() {
	matchCmd.Flags().StringVar(&matchID, "id", "", "organization id")
	matchCmd.Flags().StringVar(&matchIndustry, "industry", "", "taxonomy industry slug")
	rootCmd.AddCommand(matchCmd)
}
