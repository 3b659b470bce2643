// Package store persists import batches, vendors, and staged products
// behind a driver-agnostic interface with Postgres and SQLite backends.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/everafter-market/ingest-cli/internal/model"
)

// ErrDuplicate is returned by InsertStaged when the (source,
// external_id) pair already exists. The pipeline counts it as a
// duplicate, not a failure.
var ErrDuplicate = eris.New("store: duplicate staged product")

// BatchFilter specifies criteria for listing import batches.
type BatchFilter struct {
	Source string            `json:"source,omitempty"`
	Status model.BatchStatus `json:"status,omitempty"`
	Limit  int               `json:"limit,omitempty"`
	Offset int               `json:"offset,omitempty"`
}

// Store defines the persistence interface for the ingestion pipeline.
type Store interface {
	// Batches
	CreateBatch(ctx context.Context, source string, totalItems int) (*model.ImportBatch, error)
	CompleteBatch(ctx context.Context, batchID string, stats model.ImportStats, errs []string) error
	FailBatch(ctx context.Context, batchID string, errs []string) error
	GetBatch(ctx context.Context, batchID string) (*model.ImportBatch, error)
	ListBatches(ctx context.Context, filter BatchFilter) ([]model.ImportBatch, error)

	// Staged products
	IsDuplicate(ctx context.Context, source, externalID string) (bool, error)
	InsertStaged(ctx context.Context, p *model.StagedProduct) error

	// Vendors
	GetVendorByName(ctx context.Context, companyName string) (*model.Vendor, error)
	CreateVendor(ctx context.Context, v *model.Vendor) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
