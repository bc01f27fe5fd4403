package main

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/sourcing-cli/internal/discover"
	"github.com/sells-group/sourcing-cli/internal/enrich"
	"github.com/sells-group/sourcing-cli/internal/export"
	"github.com/sells-group/sourcing-cli/internal/match"
	"github.com/sells-group/sourcing-cli/internal/model"
	"github.com/sells-group/sourcing-cli/internal/store"
	"github.com/sells-group/sourcing-cli/internal/taxonomy"
)

var servePort int

// serverApp bundles the pipeline pieces behind the HTTP API so the routes
// can be exercised without a network listener.
type serverApp struct {
	store    store.Store
	resolver *discover.Resolver
	enricher *enrich.Enricher
	importer *taxonomy.Importer
	adminKey string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  "Exposes resolve, enrich, match, taxonomy import, and export over HTTP. Taxonomy import is gated by the configured admin key.",
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

		app := &serverApp{
			store:    st,
			resolver: newResolver(st),
			enricher: newEnricher(st, c),
			importer: taxonomy.NewImporter(st, taxonomy.NewParser(c, nil), cfg.Taxonomy),
			adminKey: cfg.Server.AdminKey,
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newServeMux(app),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func newServeMux(app *serverApp) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type", "X-Admin-Key"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/organizations/{id}/resolve", app.handleResolve)
		r.Post("/organizations/{id}/enrich", app.handleEnrich)
		r.Post("/organizations/{id}/match", app.handleMatch)
		r.Get("/organizations/{id}", app.handleGet)
		r.Get("/export", app.handleExport)
		r.With(app.requireAdmin).Post("/taxonomy/import", app.handleTaxonomyImport)
	})

	return r
}

// requireAdmin rejects requests whose X-Admin-Key header does not match the
// configured key. An unconfigured key denies everything rather than opening
// the endpoint.
func (app *serverApp) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-Admin-Key")
		if app.adminKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(app.adminKey)) != 1 {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (app *serverApp) loadOrg(w http.ResponseWriter, r *http.Request) *model.OrganizationProfile {
	id := chi.URLParam(r, "id")
	org, err := app.store.GetOrganization(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return nil
	}
	if org == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "organization not found"})
		return nil
	}
	return org
}

func (app *serverApp) handleGet(w http.ResponseWriter, r *http.Request) {
	org := app.loadOrg(w, r)
	if org == nil {
		return
	}
	writeJSON(w, http.StatusOK, org)
}

func (app *serverApp) handleResolve(w http.ResponseWriter, r *http.Request) {
	org := app.loadOrg(w, r)
	if org == nil {
		return
	}

	force := r.URL.Query().Get("force") == "true"
	if err := resolveAndEnrich(r.Context(), app.store, app.resolver, app.enricher, org, force); err != nil {
		status := http.StatusInternalServerError
		if eris.Is(err, discover.ErrDuplicateDomain) {
			status = http.StatusConflict
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, org)
}

func (app *serverApp) handleEnrich(w http.ResponseWriter, r *http.Request) {
	org := app.loadOrg(w, r)
	if org == nil {
		return
	}

	if err := app.enricher.Enrich(r.Context(), org); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, org)
}

func (app *serverApp) handleMatch(w http.ResponseWriter, r *http.Request) {
	org := app.loadOrg(w, r)
	if org == nil {
		return
	}

	industry := r.URL.Query().Get("industry")
	if industry == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "industry is required"})
		return
	}

	scored, err := match.NewMapper(app.store).Map(r.Context(), org, industry)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, scored)
}

func (app *serverApp) handleTaxonomyImport(w http.ResponseWriter, r *http.Request) {
	sum, err := app.importer.Import(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (app *serverApp) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	fmt.Sscanf(q.Get("limit"), "%d", &limit)

	orgs, err := app.store.ListOrganizations(r.Context(), store.OrgFilter{
		Source:       q.Get("source"),
		EnrichedOnly: q.Get("enriched_only") == "true",
		Limit:        export.ClampLimit(limit),
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	switch q.Get("format") {
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="organizations.xlsx"`)
		if err := export.WriteXLSX(w, orgs); err != nil {
			zap.L().Error("xlsx export failed", zap.Error(err))
		}
	default:
		w.Header().Set("Content-Type", "text/tab-separated-values")
		if err := export.WriteTSV(w, orgs); err != nil {
			zap.L().Error("tsv export failed", zap.Error(err))
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
