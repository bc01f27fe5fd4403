package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/sourcing-cli/internal/discover"
	"github.com/sells-group/sourcing-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS organizations (
	id                   TEXT PRIMARY KEY,
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
	status_confidence    REAL NOT NULL DEFAULT 0,
	products_services    TEXT NOT NULL DEFAULT '',
	capability_alignment TEXT NOT NULL DEFAULT '',
	gtm_alignment        TEXT NOT NULL DEFAULT '',
	peers                TEXT,
	recent_news          TEXT,
	enriched_at          DATETIME,
	last_checked_at      DATETIME,
	created_at           DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at           DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (source, source_id)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_organizations_domain
	ON organizations (lower(website_domain)) WHERE website_domain IS NOT NULL AND website_domain <> '';

CREATE INDEX IF NOT EXISTS idx_organizations_source ON organizations(source);
CREATE INDEX IF NOT EXISTS idx_organizations_name ON organizations(name);

CREATE TABLE IF NOT EXISTS taxonomy_industries (
	slug       TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	url        TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
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
	id              TEXT PRIMARY KEY,
	organization_id TEXT NOT NULL REFERENCES organizations(id),
	industry_slug   TEXT NOT NULL,
	cluster         TEXT NOT NULL,
	score           INTEGER NOT NULL,
	evidence_urls   TEXT,
	notes           TEXT NOT NULL DEFAULT '',
	created_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_relevance_org ON relevance_edges(organization_id);
CREATE INDEX IF NOT EXISTS idx_relevance_org_industry ON relevance_edges(organization_id, industry_slug);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// isSQLiteUniqueViolation matches modernc's constraint error text.
func isSQLiteUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (s *SQLiteStore) UpsertOrganization(ctx context.Context, org *model.OrganizationProfile) error {
	now := time.Now().UTC()
	if org.CreatedAt.IsZero() {
		org.CreatedAt = now
	}
	org.UpdatedAt = now

	peersJSON, newsJSON, err := marshalArtifacts(org)
	if err != nil {
		return eris.Wrap(err, "sqlite: upsert organization")
	}

	err = s.db.QueryRowContext(ctx,
		`INSERT INTO organizations (`+orgColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (source, source_id) DO UPDATE SET
			name = excluded.name,
			city = excluded.city,
			region = excluded.region,
			country = excluded.country,
			updated_at = excluded.updated_at
		 RETURNING id`,
		org.ID, org.Source, org.SourceID, org.Name, org.City, org.Region, org.Country,
		org.WebsiteURL, nullableDomain(org.WebsiteDomain), org.DescriptionShort, org.GICSSector,
		org.Status, org.StatusConfidence, org.ProductsServices, org.CapabilityAlignment,
		org.GTMAlignment, nullString(peersJSON), nullString(newsJSON), org.EnrichedAt, org.LastCheckedAt,
		org.CreatedAt, org.UpdatedAt,
	).Scan(&org.ID)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return eris.Wrapf(discover.ErrDuplicateDomain, "sqlite: upsert organization %s", org.Name)
		}
		return eris.Wrapf(err, "sqlite: upsert organization %s", org.Name)
	}
	return nil
}

// BulkUpsertOrganizations upserts a registry sweep row by row; sqlite has
// no COPY protocol. Conflict semantics match UpsertOrganization.
func (s *SQLiteStore) BulkUpsertOrganizations(ctx context.Context, orgs []model.OrganizationProfile) (int64, error) {
	var n int64
	for i := range orgs {
		if err := s.UpsertOrganization(ctx, &orgs[i]); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (s *SQLiteStore) GetOrganization(ctx context.Context, id string) (*model.OrganizationProfile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+orgColumns+` FROM organizations WHERE id = ?`, id)
	org, err := scanSQLiteOrganization(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get organization %s", id)
	}
	return org, nil
}

func (s *SQLiteStore) GetByDomain(ctx context.Context, domain string) (*model.OrganizationProfile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+orgColumns+` FROM organizations WHERE lower(website_domain) = lower(?)`, domain)
	org, err := scanSQLiteOrganization(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get by domain %s", domain)
	}
	return org, nil
}

func (s *SQLiteStore) SearchByName(ctx context.Context, query string, limit int) ([]model.OrganizationProfile, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+orgColumns+` FROM organizations WHERE name LIKE '%' || ? || '%' COLLATE NOCASE ORDER BY name LIMIT ?`,
		query, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: search by name")
	}
	defer rows.Close()
	return collectSQLiteOrganizations(rows, "sqlite: search by name")
}

func (s *SQLiteStore) ListOrganizations(ctx context.Context, filter OrgFilter) ([]model.OrganizationProfile, error) {
	query := `SELECT ` + orgColumns + ` FROM organizations WHERE true`
	args := []any{}

	if filter.Source != "" {
		query += ` AND source = ?`
		args = append(args, filter.Source)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.Country != "" {
		query += ` AND country = ?`
		args = append(args, filter.Country)
	}
	if filter.EnrichedOnly {
		query += ` AND enriched_at IS NOT NULL`
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list organizations")
	}
	defer rows.Close()
	return collectSQLiteOrganizations(rows, "sqlite: list organizations")
}

func (s *SQLiteStore) UpdateWebsite(ctx context.Context, orgID, websiteURL, websiteDomain string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE organizations SET website_url = ?, website_domain = ?, last_checked_at = ?, updated_at = ? WHERE id = ?`,
		websiteURL, nullableDomain(websiteDomain), time.Now().UTC(), time.Now().UTC(), orgID,
	)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return eris.Wrapf(discover.ErrDuplicateDomain, "sqlite: update website for %s", orgID)
		}
		return eris.Wrapf(err, "sqlite: update website for %s", orgID)
	}
	return checkRowsAffected(res, "organization", orgID)
}

func (s *SQLiteStore) UpdateEnrichment(ctx context.Context, org *model.OrganizationProfile) error {
	peersJSON, newsJSON, err := marshalArtifacts(org)
	if err != nil {
		return eris.Wrap(err, "sqlite: update enrichment")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE organizations SET
			description_short = ?, status = ?, status_confidence = ?,
			products_services = ?, capability_alignment = ?, gtm_alignment = ?,
			peers = ?, recent_news = ?, enriched_at = ?, updated_at = ?
		 WHERE id = ?`,
		org.DescriptionShort, org.Status, org.StatusConfidence,
		org.ProductsServices, org.CapabilityAlignment, org.GTMAlignment,
		nullString(peersJSON), nullString(newsJSON), org.EnrichedAt, time.Now().UTC(), org.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update enrichment for %s", org.ID)
	}
	return checkRowsAffected(res, "organization", org.ID)
}

func (s *SQLiteStore) UpsertIndustries(ctx context.Context, industries []model.TaxonomyIndustry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: upsert industries: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, ind := range industries {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO taxonomy_industries (slug, name, url, updated_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT (slug) DO UPDATE SET name = excluded.name, url = excluded.url, updated_at = excluded.updated_at`,
			ind.Slug, ind.Name, ind.URL, time.Now().UTC(),
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: upsert industry %s", ind.Slug)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: upsert industries: commit")
}

func (s *SQLiteStore) ListIndustries(ctx context.Context) ([]model.TaxonomyIndustry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT slug, name, url, updated_at FROM taxonomy_industries ORDER BY slug`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list industries")
	}
	defer rows.Close()

	var out []model.TaxonomyIndustry
	for rows.Next() {
		var ind model.TaxonomyIndustry
		if err := rows.Scan(&ind.Slug, &ind.Name, &ind.URL, &ind.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan industry")
		}
		out = append(out, ind)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list industries iterate")
}

func (s *SQLiteStore) ReplacePriorityTopics(ctx context.Context, industrySlug string, topics []model.PriorityTopic) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: replace topics: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM priority_topics WHERE industry_slug = ?`, industrySlug); err != nil {
		return eris.Wrapf(err, "sqlite: delete topics for %s", industrySlug)
	}
	for _, topic := range topics {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO priority_topics (industry_slug, topic, source_url) VALUES (?, ?, ?)`,
			industrySlug, topic.Topic, topic.SourceURL,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert topic for %s", industrySlug)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: replace topics: commit")
}

func (s *SQLiteStore) ListPriorityTopics(ctx context.Context, industrySlug string) ([]model.PriorityTopic, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT industry_slug, topic, source_url FROM priority_topics WHERE industry_slug = ? ORDER BY topic`,
		industrySlug)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list topics")
	}
	defer rows.Close()

	var out []model.PriorityTopic
	for rows.Next() {
		var topic model.PriorityTopic
		if err := rows.Scan(&topic.IndustrySlug, &topic.Topic, &topic.SourceURL); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan topic")
		}
		out = append(out, topic)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list topics iterate")
}

func (s *SQLiteStore) ReplaceUseCases(ctx context.Context, industrySlug string, edges []model.UseCaseEdge) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: replace use cases: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM use_cases WHERE industry_slug = ?`, industrySlug); err != nil {
		return eris.Wrapf(err, "sqlite: delete use cases for %s", industrySlug)
	}
	for _, edge := range edges {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO use_cases (industry_slug, category, sub_use_case, source_url) VALUES (?, ?, ?, ?)`,
			industrySlug, edge.Category, edge.SubUseCase, edge.SourceURL,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert use case for %s", industrySlug)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: replace use cases: commit")
}

func (s *SQLiteStore) ListUseCases(ctx context.Context, industrySlug string) ([]model.UseCaseEdge, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT industry_slug, category, sub_use_case, source_url FROM use_cases WHERE industry_slug = ? ORDER BY category, sub_use_case`,
		industrySlug)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list use cases")
	}
	defer rows.Close()

	var out []model.UseCaseEdge
	for rows.Next() {
		var edge model.UseCaseEdge
		if err := rows.Scan(&edge.IndustrySlug, &edge.Category, &edge.SubUseCase, &edge.SourceURL); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan use case")
		}
		out = append(out, edge)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list use cases iterate")
}

func (s *SQLiteStore) ReplaceRelevanceEdges(ctx context.Context, orgID, industrySlug string, edges []model.RelevanceEdge) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: replace edges: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM relevance_edges WHERE organization_id = ? AND industry_slug = ?`,
		orgID, industrySlug); err != nil {
		return eris.Wrapf(err, "sqlite: delete edges for %s/%s", orgID, industrySlug)
	}
	for _, edge := range edges {
		evidenceJSON, err := json.Marshal(edge.EvidenceURLs)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal evidence")
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO relevance_edges (id, organization_id, industry_slug, cluster, score, evidence_urls, notes, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			edge.ID, orgID, industrySlug, edge.Cluster, edge.Score, string(evidenceJSON), edge.Notes, time.Now().UTC(),
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert edge for %s/%s", orgID, industrySlug)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: replace edges: commit")
}

func (s *SQLiteStore) ListRelevanceEdges(ctx context.Context, orgID string) ([]model.RelevanceEdge, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, organization_id, cluster, score, evidence_urls, notes, created_at
		 FROM relevance_edges WHERE organization_id = ? ORDER BY score DESC, cluster`,
		orgID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list edges")
	}
	defer rows.Close()

	var out []model.RelevanceEdge
	for rows.Next() {
		var edge model.RelevanceEdge
		var evidenceJSON sql.NullString
		if err := rows.Scan(&edge.ID, &edge.OrganizationID, &edge.Cluster, &edge.Score, &evidenceJSON, &edge.Notes, &edge.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan edge")
		}
		if evidenceJSON.Valid && evidenceJSON.String != "" {
			if err := json.Unmarshal([]byte(evidenceJSON.String), &edge.EvidenceURLs); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal evidence")
			}
		}
		out = append(out, edge)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list edges iterate")
}

// nullString maps empty JSON to NULL for TEXT artifact columns.
func nullString(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

func checkRowsAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrapf(err, "sqlite: rows affected for %s %s", kind, id)
	}
	if n == 0 {
		return eris.New(fmt.Sprintf("%s not found: %s", kind, id))
	}
	return nil
}

func scanSQLiteOrganization(row *sql.Row) (*model.OrganizationProfile, error) {
	var org model.OrganizationProfile
	var domain, peersJSON, newsJSON sql.NullString

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
	return decodeSQLiteOrg(&org, domain, peersJSON, newsJSON)
}

func collectSQLiteOrganizations(rows *sql.Rows, label string) ([]model.OrganizationProfile, error) {
	var out []model.OrganizationProfile
	for rows.Next() {
		var org model.OrganizationProfile
		var domain, peersJSON, newsJSON sql.NullString

		err := rows.Scan(
			&org.ID, &org.Source, &org.SourceID, &org.Name, &org.City, &org.Region, &org.Country,
			&org.WebsiteURL, &domain, &org.DescriptionShort, &org.GICSSector,
			&org.Status, &org.StatusConfidence, &org.ProductsServices, &org.CapabilityAlignment,
			&org.GTMAlignment, &peersJSON, &newsJSON, &org.EnrichedAt, &org.LastCheckedAt,
			&org.CreatedAt, &org.UpdatedAt,
		)
		if err != nil {
			return nil, eris.Wrapf(err, "%s: scan", label)
		}
		decoded, err := decodeSQLiteOrg(&org, domain, peersJSON, newsJSON)
		if err != nil {
			return nil, eris.Wrapf(err, "%s: decode", label)
		}
		out = append(out, *decoded)
	}
	return out, eris.Wrapf(rows.Err(), "%s: iterate", label)
}

func decodeSQLiteOrg(org *model.OrganizationProfile, domain, peersJSON, newsJSON sql.NullString) (*model.OrganizationProfile, error) {
	if domain.Valid {
		org.WebsiteDomain = domain.String
	}
	if peersJSON.Valid && peersJSON.String != "" {
		org.Peers = &model.PeerArtifact{}
		if err := json.Unmarshal([]byte(peersJSON.String), org.Peers); err != nil {
			return nil, eris.Wrap(err, "unmarshal peers")
		}
	}
	if newsJSON.Valid && newsJSON.String != "" {
		if err := json.Unmarshal([]byte(newsJSON.String), &org.RecentNews); err != nil {
			return nil, eris.Wrap(err, "unmarshal recent news")
		}
	}
	return org, nil
}
