package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/sourcing-cli/internal/model"
	"github.com/sells-group/sourcing-cli/pkg/gdelt"
)

var (
	newsID   string
	newsDays int
)

var newsCmd = &cobra.Command{
	Use:   "news",
	Short: "Refresh recent news for an organization",
	Long:  "Queries the GDELT DOC API by organization name and replaces the stored recent-news list without touching the other enrichment artifacts.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if newsID == "" {
			return eris.New("--id is required")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		org, err := st.GetOrganization(ctx, newsID)
		if err != nil {
			return err
		}
		if org == nil {
			return eris.Errorf("organization %s not found", newsID)
		}

		client := gdelt.NewClient(gdelt.WithBaseURL(cfg.GDELT.BaseURL))
		articles, err := client.ArticleList(ctx, fmt.Sprintf("%q", org.Name), newsDays)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		news := make([]model.NewsArticle, 0, len(articles))
		for _, a := range articles {
			news = append(news, model.NewsArticle{
				URL:         a.URL,
				Title:       a.Title,
				Publisher:   a.Domain,
				PublishedAt: a.PublishedAt(),
				RetrievedAt: now,
			})
		}
		org.RecentNews = news

		if err := st.UpdateEnrichment(ctx, org); err != nil {
			return err
		}

		zap.L().Info("news refresh complete",
			zap.String("org", org.Name), zap.Int("articles", len(news)))
		return nil
	},
}

func init() {
	newsCmd.Flags().StringVar(&newsID, "id", "", "organization id")
	newsCmd.Flags().IntVar(&newsDays, "days", 30, "lookback window in days")
	rootCmd.AddCommand(newsCmd)
}
