package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/everafter-market/ingest-cli/internal/db"
	"github.com/everafter-market/ingest-cli/internal/model"
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

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

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

// NewPostgresWithPool wraps an existing pool, used by tests.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS import_batches (
	id              TEXT PRIMARY KEY,
	source          TEXT NOT NULL,
	status          TEXT NOT NULL DEFAULT 'processing',
	total_items     INTEGER NOT NULL DEFAULT 0,
	imported_items  INTEGER NOT NULL DEFAULT 0,
	failed_items    INTEGER NOT NULL DEFAULT 0,
	duplicate_items INTEGER NOT NULL DEFAULT 0,
	errors          JSONB,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_import_batches_source ON import_batches(source);
CREATE INDEX IF NOT EXISTS idx_import_batches_status ON import_batches(status);
CREATE INDEX IF NOT EXISTS idx_import_batches_created_at ON import_batches(created_at DESC);

CREATE TABLE IF NOT EXISTS vendors (
	id           TEXT PRIMARY KEY,
	company_name TEXT NOT NULL UNIQUE,
	slug         TEXT NOT NULL,
	description  TEXT,
	website      TEXT,
	status       TEXT NOT NULL DEFAULT 'pending',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_vendors_slug ON vendors(slug);

CREATE TABLE IF NOT EXISTS staged_products (
	id                TEXT PRIMARY KEY,
	batch_id          TEXT NOT NULL REFERENCES import_batches(id),
	import_source     TEXT NOT NULL,
	external_id       TEXT NOT NULL,
	source_url        TEXT,
	name              TEXT NOT NULL,
	description       TEXT,
	raw_category      TEXT,
	price             NUMERIC(12,2) NOT NULL,
	currency          TEXT NOT NULL DEFAULT 'USD',
	images            JSONB NOT NULL,
	primary_image     TEXT,
	vendor_id         TEXT REFERENCES vendors(id),
	vendor_name       TEXT,
	vendor_url        TEXT,
	suggested         JSONB NOT NULL,
	affiliate_network TEXT,
	affiliate_url     TEXT,
	review_status     TEXT NOT NULL DEFAULT 'pending',
	raw_data          JSONB,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (import_source, external_id)
);

CREATE INDEX IF NOT EXISTS idx_staged_products_batch_id ON staged_products(batch_id);
CREATE INDEX IF NOT EXISTS idx_staged_products_review_status ON staged_products(review_status);

CREATE TABLE IF NOT EXISTS products (
	id            TEXT PRIMARY KEY,
	import_source TEXT NOT NULL,
	external_id   TEXT NOT NULL,
	name          TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (import_source, external_id)
);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateBatch(ctx context.Context, source string, totalItems int) (*model.ImportBatch, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO import_batches (id, source, status, total_items, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, source, string(model.BatchStatusProcessing), totalItems, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert batch")
	}

	return &model.ImportBatch{
		ID:         id,
		Source:     source,
		Status:     model.BatchStatusProcessing,
		TotalItems: totalItems,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (s *PostgresStore) CompleteBatch(ctx context.Context, batchID string, stats model.ImportStats, errs []string) error {
	errsJSON, err := marshalErrors(errs)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal batch errors")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE import_batches SET status = $1, imported_items = $2, failed_items = $3, duplicate_items = $4, errors = $5, updated_at = $6 WHERE id = $7`,
		string(model.BatchStatusCompleted), stats.Imported, stats.Failed, stats.Duplicates, errsJSON, time.Now().UTC(), batchID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete batch %s", batchID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("batch not found: %s", batchID)
	}
	return nil
}

func (s *PostgresStore) FailBatch(ctx context.Context, batchID string, errs []string) error {
	errsJSON, err := marshalErrors(errs)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal batch errors")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE import_batches SET status = $1, errors = $2, updated_at = $3 WHERE id = $4`,
		string(model.BatchStatusFailed), errsJSON, time.Now().UTC(), batchID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail batch %s", batchID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("batch not found: %s", batchID)
	}
	return nil
}

func (s *PostgresStore) GetBatch(ctx context.Context, batchID string) (*model.ImportBatch, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, source, status, total_items, imported_items, failed_items, duplicate_items, errors, created_at, updated_at FROM import_batches WHERE id = $1`,
		batchID,
	)
	b, err := scanBatch(row)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get batch %s", batchID)
	}
	return b, nil
}

func (s *PostgresStore) ListBatches(ctx context.Context, filter BatchFilter) ([]model.ImportBatch, error) {
	query := `SELECT id, source, status, total_items, imported_items, failed_items, duplicate_items, errors, created_at, updated_at FROM import_batches WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Source != "" {
		query += fmt.Sprintf(` AND source = $%d`, argIdx)
		args = append(args, filter.Source)
		argIdx++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
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
		return nil, eris.Wrap(err, "postgres: list batches")
	}
	defer rows.Close()

	var batches []model.ImportBatch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan batch")
		}
		batches = append(batches, *b)
	}
	return batches, eris.Wrap(rows.Err(), "postgres: list batches iterate")
}

func (s *PostgresStore) IsDuplicate(ctx context.Context, source, externalID string) (bool, error) {
	var dup bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM staged_products WHERE import_source = $1 AND external_id = $2) OR EXISTS (SELECT 1 FROM products WHERE import_source = $1 AND external_id = $2)`,
		source, externalID,
	).Scan(&dup)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: duplicate check %s/%s", source, externalID)
	}
	return dup, nil
}

func (s *PostgresStore) GetVendorByName(ctx context.Context, companyName string) (*model.Vendor, error) {
	var v model.Vendor
	err := s.pool.QueryRow(ctx,
		`SELECT id, company_name, slug, description, website, status, created_at FROM vendors WHERE company_name = $1`,
		companyName,
	).Scan(&v.ID, &v.CompanyName, &v.Slug, &v.Description, &v.Website, &v.Status, &v.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get vendor %q", companyName)
	}
	return &v, nil
}

func (s *PostgresStore) CreateVendor(ctx context.Context, v *model.Vendor) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO vendors (id, company_name, slug, description, website, status, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		v.ID, v.CompanyName, v.Slug, v.Description, v.Website, string(v.Status), v.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert vendor %q", v.CompanyName)
}

func (s *PostgresStore) InsertStaged(ctx context.Context, p *model.StagedProduct) error {
	imagesJSON, err := json.Marshal(p.Images)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal images")
	}
	suggestedJSON, err := json.Marshal(p.Suggested)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal suggested categorization")
	}
	var rawJSON []byte
	if p.RawData != nil {
		rawJSON, err = json.Marshal(p.RawData)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal raw data")
		}
	}

	// ON CONFLICT DO NOTHING backstops the pre-insert duplicate check
	// against concurrent writers.
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO staged_products (id, batch_id, import_source, external_id, source_url, name, description, raw_category, price, currency, images, primary_image, vendor_id, vendor_name, vendor_url, suggested, affiliate_network, affiliate_url, review_status, raw_data, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		 ON CONFLICT (import_source, external_id) DO NOTHING`,
		p.ID, p.BatchID, p.Source, p.ExternalID, p.SourceURL, p.Name, p.Description, p.RawCategory,
		p.Price.String(), p.Currency, imagesJSON, p.PrimaryImage, nullableString(p.VendorID), p.VendorName, p.VendorURL,
		suggestedJSON, p.AffiliateNet, p.AffiliateURL, string(p.ReviewStatus), rawJSON, p.CreatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert staged product %s/%s", p.Source, p.ExternalID)
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicate
	}
	return nil
}

// scanner abstracts pgx.Row and pgx.Rows for shared scan logic.
type scanner interface {
	Scan(dest ...any) error
}

func scanBatch(row scanner) (*model.ImportBatch, error) {
	var b model.ImportBatch
	var errsJSON []byte

	if err := row.Scan(&b.ID, &b.Source, &b.Status, &b.TotalItems, &b.ImportedItems, &b.FailedItems, &b.DuplicateItems, &errsJSON, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	if len(errsJSON) > 0 {
		if err := json.Unmarshal(errsJSON, &b.Errors); err != nil {
			return nil, eris.Wrap(err, "unmarshal batch errors")
		}
	}
	return &b, nil
}

func marshalErrors(errs []string) ([]byte, error) {
	if len(errs) == 0 {
		return nil, nil
	}
	return json.Marshal(errs)
}
