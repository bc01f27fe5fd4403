package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/sourcing-cli/internal/export"
	"github.com/sells-group/sourcing-cli/internal/store"
)

var (
	exportFormat       string
	exportOut          string
	exportLimit        int
	exportSource       string
	exportEnrichedOnly bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export organization profiles to TSV or XLSX",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if exportOut == "" {
			return eris.New("--out is required")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		orgs, err := st.ListOrganizations(ctx, store.OrgFilter{
			Source:       exportSource,
			EnrichedOnly: exportEnrichedOnly,
			Limit:        export.ClampLimit(exportLimit),
		})
		if err != nil {
			return err
		}

		f, err := os.Create(exportOut)
		if err != nil {
			return eris.Wrapf(err, "create %s", exportOut)
		}
		defer f.Close()

		switch exportFormat {
		case "tsv":
			err = export.WriteTSV(f, orgs)
		case "xlsx":
			err = export.WriteXLSX(f, orgs)
		default:
			return eris.Errorf("unknown format %q (use tsv or xlsx)", exportFormat)
		}
		if err != nil {
			return err
		}

		zap.L().Info("export complete",
			zap.String("out", exportOut),
			zap.String("format", exportFormat),
			zap.Int("rows", len(orgs)))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "tsv", "output format: tsv or xlsx")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file path")
	exportCmd.Flags().IntVar(&exportLimit, "limit", 200, "max rows to export")
	exportCmd.Flags().StringVar(&exportSource, "source", "", "restrict to a registry source")
	exportCmd.Flags().BoolVar(&exportEnrichedOnly, "enriched-only", false, "only profiles with enrichment artifacts")
	rootCmd.AddCommand(exportCmd)
}
