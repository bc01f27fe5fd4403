package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/sourcing-cli/internal/db"
	"github.com/sells-group/sourcing-cli/internal/discover"
	"github.com/sells-group/sourcing-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const orgColumns = `id, source, source_id, name, city, region, country,
	website_url, website_domain, description_short, gics_sector,
	status, status_confidence, products_services, capability_alignment,
	gtm_alignment, peers, recent_news, enriched_at, last_checked_at,
	created_at, updated_at`

// orgColumnList mirrors orgColumns for the COPY-based bulk path.
var orgColumnList = []string{
	"id", "source", "source_id", "name", "city", "region", "country",
	"website_url", "website_domain", "description_short", "gics_sector",
	"status", "status_confidence", "products_services", "capability_alignment",
	"gtm_alignment", "peers", "recent_news", "enriched_at", "last_checked_at",
	"created_at", "updated_at",
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"get_org":           `SELECT ` + orgColumns + ` FROM organizations WHERE id = $1`,
	"get_org_by_domain": `SELECT ` + orgColumns + ` FROM organizations WHERE lower(website_domain) = lower($1)`,
	"update_website":    `UPDATE organizations SET website_url = $1, website_domain = $2, last_checked_at = $3, updated_at = $3 WHERE id = $4`,
	"list_use_cases":    `SELECT industry_slug, category, sub_use_case, source_url FROM use_cases WHERE industry_slug = $1 ORDER BY category, sub_use_case`,
	"list_topics":       `SELECT industry_slug, topic, source_url FROM priority_topics WHERE industry_slug = $1 ORDER BY topic`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS organizations (
	id                   TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	source               TEXT NOT NULL,
	source_id            TEXT NOT NULL,
	name                 TEXT NOT NULL,
	city                 TEXT NOT NULL DEFAULT '',
	region               TEXT NOT NULL DEFAULT '',
	country              TEXT NOT NULL DEFAULT '',
	website_url          TEXT NOT NULL DEFAULT '',
	website_domain       TEXT,
	description_short    TEXT NOT NULL DEFAULT '',
	gics_sector          TEXT NOT NULL DEFAULT '',
	status               TEXT NOT NULL DEFAULT 'unknown',
	status_confidence    DOUBLE PRECISION NOT NULL DEFAULT 0,
	products_services    TEXT NOT NULL DEFAULT '',
	capability_alignment TEXT NOT NULL DEFAULT '',
	gtm_alignment        TEXT NOT NULL DEFAULT '',
	peers                JSONB,
	recent_news          JSONB,
	enriched_at          TIMESTAMPTZ,
	last_checked_at      TIMESTAMPTZ,
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (source, source_id)
);

-- One profile per website. The second writer in a racing resolution loses
-- here with a unique violation, surfaced as ErrDuplicateDomain.
CREATE UNIQUE INDEX IF NOT EXISTS idx_organizations_domain
	ON organizations (lower(website_domain)) WHERE website_domain IS NOT NULL AND website_domain <> '';

CREATE INDEX IF NOT EXISTS idx_organizations_source ON organizations(source);
CREATE INDEX IF NOT EXISTS idx_organizations_name ON organizations(name);

CREATE TABLE IF NOT EXISTS taxonomy_industries (
	slug       TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	url        TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS priority_topics (
	industry_slug TEXT NOT NULL REFERENCES taxonomy_industries(slug),
	topic         TEXT NOT NULL,
	source_url    TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (industry_slug, topic)
);

CREATE TABLE IF NOT EXISTS use_cases (
	industry_slug TEXT NOT NULL REFERENCES taxonomy_industries(slug),
	category      TEXT NOT NULL,
	sub_use_case  TEXT NOT NULL,
	source_url    TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (industry_slug, category, sub_use_case)
);

CREATE TABLE IF NOT EXISTS relevance_edges (
	id              TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	organization_id TEXT NOT NULL REFERENCES organizations(id),
	industry_slug   TEXT NOT NULL,
	cluster         TEXT NOT NULL,
	score           INTEGER NOT NULL,
	evidence_urls   JSONB,
	notes           TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_relevance_org ON relevance_edges(organization_id);
CREATE INDEX IF NOT EXISTS idx_relevance_org_industry ON relevance_edges(organization_id, industry_slug);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *PostgresStore) UpsertOrganization(ctx context.Context, org *model.OrganizationProfile) error {
	now := time.Now().UTC()
	if org.CreatedAt.IsZero() {
		org.CreatedAt = now
	}
	org.UpdatedAt = now

	peersJSON, newsJSON, err := marshalArtifacts(org)
	if err != nil {
		return eris.Wrap(err, "postgres: upsert organization")
	}

	// A registry re-sweep refreshes identity fields only; website binding
	// and enrichment artifacts survive the conflict path.
	err = s.pool.QueryRow(ctx,
		`INSERT INTO organizations (`+orgColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		 ON CONFLICT (source, source_id) DO UPDATE SET
			name = EXCLUDED.name,
			city = EXCLUDED.city,
			region = EXCLUDED.region,
			country = EXCLUDED.country,
			updated_at = EXCLUDED.updated_at
		 RETURNING id`,
		org.ID, org.Source, org.SourceID, org.Name, org.City, org.Region, org.Country,
		org.WebsiteURL, nullableDomain(org.WebsiteDomain), org.DescriptionShort, org.GICSSector,
		org.Status, org.StatusConfidence, org.ProductsServices, org.CapabilityAlignment,
		org.GTMAlignment, peersJSON, newsJSON, org.EnrichedAt, org.LastCheckedAt,
		org.CreatedAt, org.UpdatedAt,
	).Scan(&org.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return eris.Wrapf(discover.ErrDuplicateDomain, "postgres: upsert organization %s", org.Name)
		}
		return eris.Wrapf(err, "postgres: upsert organization %s", org.Name)
	}
	return nil
}

// BulkUpsertOrganizations lands a whole registry sweep in one COPY-backed
// temp-table upsert. Conflict semantics match UpsertOrganization: a re-sweep
// refreshes identity fields only.
func (s *PostgresStore) BulkUpsertOrganizations(ctx context.Context, orgs []model.OrganizationProfile) (int64, error) {
	if len(orgs) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	rows := make([][]any, 0, len(orgs))
	for i := range orgs {
		org := &orgs[i]
		if org.CreatedAt.IsZero() {
			org.CreatedAt = now
		}
		org.UpdatedAt = now

		peersJSON, newsJSON, err := marshalArtifacts(org)
		if err != nil {
			return 0, eris.Wrapf(err, "postgres: bulk upsert %s", org.Name)
		}
		rows = append(rows, []any{
			org.ID, org.Source, org.SourceID, org.Name, org.City, org.Region, org.Country,
			org.WebsiteURL, nullableDomain(org.WebsiteDomain), org.DescriptionShort, org.GICSSector,
			org.Status, org.StatusConfidence, org.ProductsServices, org.CapabilityAlignment,
			org.GTMAlignment, peersJSON, newsJSON, org.EnrichedAt, org.LastCheckedAt,
			org.CreatedAt, org.UpdatedAt,
		})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "organizations",
		Columns:      orgColumnList,
		ConflictKeys: []string{"source", "source_id"},
		UpdateCols:   []string{"name", "city", "region", "country", "updated_at"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: bulk upsert organizations")
	}
	return n, nil
}

func (s *PostgresStore) GetOrganization(ctx context.Context, id string) (*model.OrganizationProfile, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+orgColumns+` FROM organizations WHERE id = $1`, id)
	org, err := scanOrganization(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get organization %s", id)
	}
	return org, nil
}

func (s *PostgresStore) GetByDomain(ctx context.Context, domain string) (*model.OrganizationProfile, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+orgColumns+` FROM organizations WHERE lower(website_domain) = lower($1)`, domain)
	org, err := scanOrganization(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get by domain %s", domain)
	}
	return org, nil
}

func (s *PostgresStore) SearchByName(ctx context.Context, query string, limit int) ([]model.OrganizationProfile, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+orgColumns+` FROM organizations WHERE name ILIKE '%' || $1 || '%' ORDER BY name LIMIT $2`,
		query, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: search by name")
	}
	defer rows.Close()
	return collectOrganizations(rows, "postgres: search by name")
}

func (s *PostgresStore) ListOrganizations(ctx context.Context, filter OrgFilter) ([]model.OrganizationProfile, error) {
	query := `SELECT ` + orgColumns + ` FROM organizations WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Source != "" {
		query += fmt.Sprintf(` AND source = $%d`, argIdx)
		args = append(args, filter.Source)
		argIdx++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, filter.Status)
		argIdx++
	}
	if filter.Country != "" {
		query += fmt.Sprintf(` AND country = $%d`, argIdx)
		args = append(args, filter.Country)
		argIdx++
	}
	if filter.EnrichedOnly {
		query += ` AND enriched_at IS NOT NULL`
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
		argIdx++
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list organizations")
	}
	defer rows.Close()
	return collectOrganizations(rows, "postgres: list organizations")
}

func (s *PostgresStore) UpdateWebsite(ctx context.Context, orgID, websiteURL, websiteDomain string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE organizations SET website_url = $1, website_domain = $2, last_checked_at = $3, updated_at = $3 WHERE id = $4`,
		websiteURL, nullableDomain(websiteDomain), time.Now().UTC(), orgID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return eris.Wrapf(discover.ErrDuplicateDomain, "postgres: update website for %s", orgID)
		}
		return eris.Wrapf(err, "postgres: update website for %s", orgID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("organization not found: %s", orgID)
	}
	return nil
}

func (s *PostgresStore) UpdateEnrichment(ctx context.Context, org *model.OrganizationProfile) error {
	peersJSON, newsJSON, err := marshalArtifacts(org)
	if err != nil {
		return eris.Wrap(err, "postgres: update enrichment")
	}

	now := time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE organizations SET
			description_short = $1, status = $2, status_confidence = $3,
			products_services = $4, capability_alignment = $5, gtm_alignment = $6,
			peers = $7, recent_news = $8, enriched_at = $9, updated_at = $10
		 WHERE id = $11`,
		org.DescriptionShort, org.Status, org.StatusConfidence,
		org.ProductsServices, org.CapabilityAlignment, org.GTMAlignment,
		peersJSON, newsJSON, org.EnrichedAt, now, org.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update enrichment for %s", org.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("organization not found: %s", org.ID)
	}
	return nil
}

func (s *PostgresStore) UpsertIndustries(ctx context.Context, industries []model.TaxonomyIndustry) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: upsert industries: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, ind := range industries {
		_, err := tx.Exec(ctx,
			`INSERT INTO taxonomy_industries (slug, name, url, updated_at) VALUES ($1, $2, $3, $4)
			 ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name, url = EXCLUDED.url, updated_at = EXCLUDED.updated_at`,
			ind.Slug, ind.Name, ind.URL, time.Now().UTC(),
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: upsert industry %s", ind.Slug)
		}
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: upsert industries: commit")
}

func (s *PostgresStore) ListIndustries(ctx context.Context) ([]model.TaxonomyIndustry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT slug, name, url, updated_at FROM taxonomy_industries ORDER BY slug`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list industries")
	}
	defer rows.Close()

	var out []model.TaxonomyIndustry
	for rows.Next() {
		var ind model.TaxonomyIndustry
		if err := rows.Scan(&ind.Slug, &ind.Name, &ind.URL, &ind.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan industry")
		}
		out = append(out, ind)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list industries iterate")
}

func (s *PostgresStore) ReplacePriorityTopics(ctx context.Context, industrySlug string, topics []model.PriorityTopic) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: replace topics: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM priority_topics WHERE industry_slug = $1`, industrySlug); err != nil {
		return eris.Wrapf(err, "postgres: delete topics for %s", industrySlug)
	}
	for _, topic := range topics {
		_, err := tx.Exec(ctx,
			`INSERT INTO priority_topics (industry_slug, topic, source_url) VALUES ($1, $2, $3)`,
			industrySlug, topic.Topic, topic.SourceURL,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert topic for %s", industrySlug)
		}
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: replace topics: commit")
}

func (s *PostgresStore) ListPriorityTopics(ctx context.Context, industrySlug string) ([]model.PriorityTopic, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT industry_slug, topic, source_url FROM priority_topics WHERE industry_slug = $1 ORDER BY topic`,
		industrySlug)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list topics")
	}
	defer rows.Close()

	var out []model.PriorityTopic
	for rows.Next() {
		var topic model.PriorityTopic
		if err := rows.Scan(&topic.IndustrySlug, &topic.Topic, &topic.SourceURL); err != nil {
			return nil, eris.Wrap(err, "postgres: scan topic")
		}
		out = append(out, topic)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list topics iterate")
}

func (s *PostgresStore) ReplaceUseCases(ctx context.Context, industrySlug string, edges []model.UseCaseEdge) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: replace use cases: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM use_cases WHERE industry_slug = $1`, industrySlug); err != nil {
		return eris.Wrapf(err, "postgres: delete use cases for %s", industrySlug)
	}

	// Use-case sweeps produce the largest row sets of any replace, so the
	// insert half rides the COPY protocol.
	rows := make([][]any, 0, len(edges))
	for _, edge := range edges {
		rows = append(rows, []any{industrySlug, edge.Category, edge.SubUseCase, edge.SourceURL})
	}
	if _, err := db.CopyFrom(ctx, tx, "use_cases",
		[]string{"industry_slug", "category", "sub_use_case", "source_url"}, rows); err != nil {
		return eris.Wrapf(err, "postgres: insert use cases for %s", industrySlug)
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: replace use cases: commit")
}

func (s *PostgresStore) ListUseCases(ctx context.Context, industrySlug string) ([]model.UseCaseEdge, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT industry_slug, category, sub_use_case, source_url FROM use_cases WHERE industry_slug = $1 ORDER BY category, sub_use_case`,
		industrySlug)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list use cases")
	}
	defer rows.Close()

	var out []model.UseCaseEdge
	for rows.Next() {
		var edge model.UseCaseEdge
		if err := rows.Scan(&edge.IndustrySlug, &edge.Category, &edge.SubUseCase, &edge.SourceURL); err != nil {
			return nil, eris.Wrap(err, "postgres: scan use case")
		}
		out = append(out, edge)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list use cases iterate")
}

func (s *PostgresStore) ReplaceRelevanceEdges(ctx context.Context, orgID, industrySlug string, edges []model.RelevanceEdge) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: replace edges: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx,
		`DELETE FROM relevance_edges WHERE organization_id = $1 AND industry_slug = $2`,
		orgID, industrySlug); err != nil {
		return eris.Wrapf(err, "postgres: delete edges for %s/%s", orgID, industrySlug)
	}
	for _, edge := range edges {
		evidenceJSON, err := json.Marshal(edge.EvidenceURLs)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal evidence")
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO relevance_edges (id, organization_id, industry_slug, cluster, score, evidence_urls, notes, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			edge.ID, orgID, industrySlug, edge.Cluster, edge.Score, evidenceJSON, edge.Notes, time.Now().UTC(),
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert edge for %s/%s", orgID, industrySlug)
		}
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: replace edges: commit")
}

func (s *PostgresStore) ListRelevanceEdges(ctx context.Context, orgID string) ([]model.RelevanceEdge, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, organization_id, cluster, score, evidence_urls, notes, created_at
		 FROM relevance_edges WHERE organization_id = $1 ORDER BY score DESC, cluster`,
		orgID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list edges")
	}
	defer rows.Close()

	var out []model.RelevanceEdge
	for rows.Next() {
		var edge model.RelevanceEdge
		var evidenceJSON *[]byte
		if err := rows.Scan(&edge.ID, &edge.OrganizationID, &edge.Cluster, &edge.Score, &evidenceJSON, &edge.Notes, &edge.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan edge")
		}
		if evidenceJSON != nil {
			if err := json.Unmarshal(*evidenceJSON, &edge.EvidenceURLs); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal evidence")
			}
		}
		out = append(out, edge)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list edges iterate")
}

// nullableDomain maps the empty string to NULL so unresolved profiles do
// not collide on the domain unique index.
func nullableDomain(domain string) *string {
	if domain == "" {
		return nil
	}
	return &domain
}

func marshalArtifacts(org *model.OrganizationProfile) (peersJSON, newsJSON []byte, err error) {
	if org.Peers != nil {
		peersJSON, err = json.Marshal(org.Peers)
		if err != nil {
			return nil, nil, eris.Wrap(err, "marshal peers")
		}
	}
	if len(org.RecentNews) > 0 {
		newsJSON, err = json.Marshal(org.RecentNews)
		if err != nil {
			return nil, nil, eris.Wrap(err, "marshal recent news")
		}
	}
	return peersJSON, newsJSON, nil
}

// scanOrganization reads one organization row. The caller maps pgx.ErrNoRows.
func scanOrganization(row pgx.Row) (*model.OrganizationProfile, error) {
	var org model.OrganizationProfile
	var domain *string
	var peersJSON, newsJSON *[]byte

	err := row.Scan(
		&org.ID, &org.Source, &org.SourceID, &org.Name, &org.City, &org.Region, &org.Country,
		&org.WebsiteURL, &domain, &org.DescriptionShort, &org.GICSSector,
		&org.Status, &org.StatusConfidence, &org.ProductsServices, &org.CapabilityAlignment,
		&org.GTMAlignment, &peersJSON, &newsJSON, &org.EnrichedAt, &org.LastCheckedAt,
		&org.CreatedAt, &org.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if domain != nil {
		org.WebsiteDomain = *domain
	}
	if peersJSON != nil {
		org.Peers = &model.PeerArtifact{}
		if err := json.Unmarshal(*peersJSON, org.Peers); err != nil {
			return nil, eris.Wrap(err, "unmarshal peers")
		}
	}
	if newsJSON != nil {
		if err := json.Unmarshal(*newsJSON, &org.RecentNews); err != nil {
			return nil, eris.Wrap(err, "unmarshal recent news")
		}
	}
	return &org, nil
}

func collectOrganizations(rows pgx.Rows, label string) ([]model.OrganizationProfile, error) {
	var out []model.OrganizationProfile
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, eris.Wrapf(err, "%s: scan", label)
		}
		out = append(out, *org)
	}
	return out, eris.Wrapf(rows.Err(), "%s: iterate", label)
}
