package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/sourcing-cli/internal/taxonomy"
)

var taxonomyCmd = &cobra.Command{
	Use:   "taxonomy",
	Short: "Taxonomy import and inspection",
}

var taxonomyImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Sweep the taxonomy pages into the store",
	Long:  "Discovers industry links on the landing page, parses priority topics and use-case edges from each detail page, and replaces the stored rows per industry.",
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

		parser := taxonomy.NewParser(c, nil)
		sum, err := taxonomy.NewImporter(st, parser, cfg.Taxonomy).Import(ctx)
		if err != nil {
			return err
		}

		zap.L().Info("taxonomy import complete",
			zap.Int("industries", sum.Industries),
			zap.Int("topics", sum.TopicsInserted),
			zap.Int("use_cases", sum.UseCasesInserted),
			zap.Int("pages_skipped", sum.PagesSkipped))
		return nil
	},
}

var taxonomyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List imported industries",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		industries, err := st.ListIndustries(ctx)
		if err != nil {
			return err
		}

		for _, ind := range industries {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", ind.Slug, ind.Name)
		}
		return nil
	},
}

func init() {
	taxonomyCmd.AddCommand(taxonomyImportCmd)
	taxonomyCmd.AddCommand(taxonomyListCmd)
	rootCmd.AddCommand(taxonomyCmd)
}
