package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/everafter-market/ingest-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite, for local
// development and one-off imports without a Postgres instance.
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
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS import_batches (
	id              TEXT PRIMARY KEY,
	source          TEXT NOT NULL,
	status          TEXT NOT NULL DEFAULT 'processing',
	total_items     INTEGER NOT NULL DEFAULT 0,
	imported_items  INTEGER NOT NULL DEFAULT 0,
	failed_items    INTEGER NOT NULL DEFAULT 0,
	duplicate_items INTEGER NOT NULL DEFAULT 0,
	errors          TEXT,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_import_batches_source ON import_batches(source);
CREATE INDEX IF NOT EXISTS idx_import_batches_status ON import_batches(status);

CREATE TABLE IF NOT EXISTS vendors (
	id           TEXT PRIMARY KEY,
	company_name TEXT NOT NULL UNIQUE,
	slug         TEXT NOT NULL,
	description  TEXT,
	website      TEXT,
	status       TEXT NOT NULL DEFAULT 'pending',
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS staged_products (
	id                TEXT PRIMARY KEY,
	batch_id          TEXT NOT NULL REFERENCES import_batches(id),
	import_source     TEXT NOT NULL,
	external_id       TEXT NOT NULL,
	source_url        TEXT,
	name              TEXT NOT NULL,
	description       TEXT,
	raw_category      TEXT,
	price             TEXT NOT NULL,
	currency          TEXT NOT NULL DEFAULT 'USD',
	images            TEXT NOT NULL,
	primary_image     TEXT,
	vendor_id         TEXT REFERENCES vendors(id),
	vendor_name       TEXT,
	vendor_url        TEXT,
	suggested         TEXT NOT NULL,
	affiliate_network TEXT,
	affiliate_url     TEXT,
	review_status     TEXT NOT NULL DEFAULT 'pending',
	raw_data          TEXT,
	created_at        DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (import_source, external_id)
);

CREATE INDEX IF NOT EXISTS idx_staged_products_batch_id ON staged_products(batch_id);

CREATE TABLE IF NOT EXISTS products (
	id            TEXT PRIMARY KEY,
	import_source TEXT NOT NULL,
	external_id   TEXT NOT NULL,
	name          TEXT NOT NULL,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (import_source, external_id)
);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateBatch(ctx context.Context, source string, totalItems int) (*model.ImportBatch, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO import_batches (id, source, status, total_items, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, source, string(model.BatchStatusProcessing), totalItems, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert batch")
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

func (s *SQLiteStore) CompleteBatch(ctx context.Context, batchID string, stats model.ImportStats, errs []string) error {
	errsJSON, err := marshalErrors(errs)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal batch errors")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE import_batches SET status = ?, imported_items = ?, failed_items = ?, duplicate_items = ?, errors = ?, updated_at = ? WHERE id = ?`,
		string(model.BatchStatusCompleted), stats.Imported, stats.Failed, stats.Duplicates, nullableText(errsJSON), time.Now().UTC(), batchID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete batch %s", batchID)
	}
	return checkRowsAffected(res, "batch", batchID)
}

func (s *SQLiteStore) FailBatch(ctx context.Context, batchID string, errs []string) error {
	errsJSON, err := marshalErrors(errs)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal batch errors")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE import_batches SET status = ?, errors = ?, updated_at = ? WHERE id = ?`,
		string(model.BatchStatusFailed), nullableText(errsJSON), time.Now().UTC(), batchID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail batch %s", batchID)
	}
	return checkRowsAffected(res, "batch", batchID)
}

func (s *SQLiteStore) GetBatch(ctx context.Context, batchID string) (*model.ImportBatch, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, source, status, total_items, imported_items, failed_items, duplicate_items, errors, created_at, updated_at FROM import_batches WHERE id = ?`,
		batchID,
	)
	b, err := scanSQLiteBatch(row)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get batch %s", batchID)
	}
	return b, nil
}

func (s *SQLiteStore) ListBatches(ctx context.Context, filter BatchFilter) ([]model.ImportBatch, error) {
	query := `SELECT id, source, status, total_items, imported_items, failed_items, duplicate_items, errors, created_at, updated_at FROM import_batches WHERE 1=1`
	var args []any

	if filter.Source != "" {
		query += ` AND source = ?`
		args = append(args, filter.Source)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
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
		return nil, eris.Wrap(err, "sqlite: list batches")
	}
	defer rows.Close()

	var batches []model.ImportBatch
	for rows.Next() {
		b, err := scanSQLiteBatch(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan batch")
		}
		batches = append(batches, *b)
	}
	return batches, eris.Wrap(rows.Err(), "sqlite: list batches iterate")
}

func (s *SQLiteStore) IsDuplicate(ctx context.Context, source, externalID string) (bool, error) {
	var dup bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM staged_products WHERE import_source = ? AND external_id = ?) OR EXISTS (SELECT 1 FROM products WHERE import_source = ? AND external_id = ?)`,
		source, externalID, source, externalID,
	).Scan(&dup)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: duplicate check %s/%s", source, externalID)
	}
	return dup, nil
}

func (s *SQLiteStore) GetVendorByName(ctx context.Context, companyName string) (*model.Vendor, error) {
	var v model.Vendor
	err := s.db.QueryRowContext(ctx,
		`SELECT id, company_name, slug, description, website, status, created_at FROM vendors WHERE company_name = ?`,
		companyName,
	).Scan(&v.ID, &v.CompanyName, &v.Slug, &v.Description, &v.Website, &v.Status, &v.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get vendor %q", companyName)
	}
	return &v, nil
}

func (s *SQLiteStore) CreateVendor(ctx context.Context, v *model.Vendor) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO vendors (id, company_name, slug, description, website, status, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.CompanyName, v.Slug, v.Description, v.Website, string(v.Status), v.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert vendor %q", v.CompanyName)
}

func (s *SQLiteStore) InsertStaged(ctx context.Context, p *model.StagedProduct) error {
	imagesJSON, err := json.Marshal(p.Images)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal images")
	}
	suggestedJSON, err := json.Marshal(p.Suggested)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal suggested categorization")
	}
	var rawJSON []byte
	if p.RawData != nil {
		rawJSON, err = json.Marshal(p.RawData)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal raw data")
		}
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO staged_products (id, batch_id, import_source, external_id, source_url, name, description, raw_category, price, currency, images, primary_image, vendor_id, vendor_name, vendor_url, suggested, affiliate_network, affiliate_url, review_status, raw_data, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (import_source, external_id) DO NOTHING`,
		p.ID, p.BatchID, p.Source, p.ExternalID, p.SourceURL, p.Name, p.Description, p.RawCategory,
		p.Price.String(), p.Currency, string(imagesJSON), p.PrimaryImage, nullableString(p.VendorID), p.VendorName, p.VendorURL,
		string(suggestedJSON), p.AffiliateNet, p.AffiliateURL, string(p.ReviewStatus), nullableText(rawJSON), p.CreatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert staged product %s/%s", p.Source, p.ExternalID)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return ErrDuplicate
	}
	return nil
}

func scanSQLiteBatch(row scanner) (*model.ImportBatch, error) {
	var b model.ImportBatch
	var errsJSON sql.NullString

	if err := row.Scan(&b.ID, &b.Source, &b.Status, &b.TotalItems, &b.ImportedItems, &b.FailedItems, &b.DuplicateItems, &errsJSON, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	if errsJSON.Valid && errsJSON.String != "" {
		if err := json.Unmarshal([]byte(errsJSON.String), &b.Errors); err != nil {
			return nil, eris.Wrap(err, "unmarshal batch errors")
		}
	}
	return &b, nil
}

func checkRowsAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", kind, id)
	}
	return nil
}

// nullableText converts empty JSON payloads to NULL.
func nullableText(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

// nullableString converts empty strings to NULL, for foreign key
// columns where "" would violate the constraint.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
