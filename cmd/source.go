package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/sourcing-cli/internal/sourcing"
	"github.com/sells-group/sourcing-cli/pkg/companieshouse"
	"github.com/sells-group/sourcing-cli/pkg/gleif"
)

var (
	sourceQuery string
	sourceLimit int
)

var sourceCmd = &cobra.Command{
	Use:   "source",
	Short: "Sweep public registries into the store",
}

var sourceGLEIFCmd = &cobra.Command{
	Use:   "gleif",
	Short: "Source organizations from the GLEIF LEI registry",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if sourceQuery == "" {
			return eris.New("--query is required")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		sc := sourcing.NewSourcer(st, gleif.NewClient(), nil)
		n, err := sc.FromGLEIF(ctx, sourceQuery, sourceLimit)
		if err != nil {
			return err
		}

		zap.L().Info("gleif sweep complete", zap.Int("upserted", n))
		return nil
	},
}

var sourceCHCmd = &cobra.Command{
	Use:   "companies-house",
	Short: "Source organizations from the Companies House register",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if sourceQuery == "" {
			return eris.New("--query is required")
		}
		if cfg.CompaniesHouse.Key == "" {
			return eris.New("companies_house.key is required")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		ch := companieshouse.NewClient(cfg.CompaniesHouse.Key)
		sc := sourcing.NewSourcer(st, nil, ch)
		n, err := sc.FromCompaniesHouse(ctx, sourceQuery, sourceLimit)
		if err != nil {
			return err
		}

		zap.L().Info("companies house sweep complete", zap.Int("upserted", n))
		return nil
	},
}

func init() {
	sourceCmd.PersistentFlags().StringVar(&sourceQuery, "query", "", "registry search query")
	sourceCmd.PersistentFlags().IntVar(&sourceLimit, "limit", 50, "max records to pull")
	sourceCmd.AddCommand(sourceGLEIFCmd)
	sourceCmd.AddCommand(sourceCHCmd)
	rootCmd.AddCommand(sourceCmd)
}
