package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/everafter-market/ingest-cli/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteBatchLifecycle(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	batch, err := s.CreateBatch(ctx, "etsy", 10)
	require.NoError(t, err)
	assert.Equal(t, model.BatchStatusProcessing, batch.Status)

	stats := model.ImportStats{Total: 10, Imported: 7, Failed: 2, Duplicates: 1}
	require.NoError(t, s.CompleteBatch(ctx, batch.ID, stats, []string{"listing 9: no images"}))

	got, err := s.GetBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BatchStatusCompleted, got.Status)
	assert.Equal(t, 10, got.TotalItems)
	assert.Equal(t, 7, got.ImportedItems)
	assert.Equal(t, 2, got.FailedItems)
	assert.Equal(t, 1, got.DuplicateItems)
	assert.Equal(t, got.TotalItems, got.ImportedItems+got.FailedItems+got.DuplicateItems)
	assert.Equal(t, []string{"listing 9: no images"}, got.Errors)
}

func TestSQLiteFailBatch(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	batch, err := s.CreateBatch(ctx, "manual", 3)
	require.NoError(t, err)
	require.NoError(t, s.FailBatch(ctx, batch.ID, []string{"database went away"}))

	got, err := s.GetBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BatchStatusFailed, got.Status)
	assert.Equal(t, []string{"database went away"}, got.Errors)
}

func TestSQLiteBatchNotFound(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.Error(t, s.CompleteBatch(ctx, "missing", model.ImportStats{}, nil))
	require.Error(t, s.FailBatch(ctx, "missing", nil))
	_, err := s.GetBatch(ctx, "missing")
	require.Error(t, err)
}

func TestSQLiteListBatches(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	_, err := s.CreateBatch(ctx, "amazon", 5)
	require.NoError(t, err)
	b2, err := s.CreateBatch(ctx, "etsy", 8)
	require.NoError(t, err)
	require.NoError(t, s.CompleteBatch(ctx, b2.ID, model.ImportStats{Total: 8, Imported: 8}, nil))

	all, err := s.ListBatches(ctx, BatchFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	etsyOnly, err := s.ListBatches(ctx, BatchFilter{Source: "etsy"})
	require.NoError(t, err)
	require.Len(t, etsyOnly, 1)
	assert.Equal(t, b2.ID, etsyOnly[0].ID)

	completed, err := s.ListBatches(ctx, BatchFilter{Status: model.BatchStatusCompleted})
	require.NoError(t, err)
	assert.Len(t, completed, 1)
}

func TestSQLiteVendorFindOrCreate(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	missing, err := s.GetVendorByName(ctx, "BohoBlooms")
	require.NoError(t, err)
	assert.Nil(t, missing)

	v := &model.Vendor{
		ID:          "v-1",
		CompanyName: "BohoBlooms",
		Slug:        "bohoblooms",
		Description: "BohoBlooms - Wedding products",
		Status:      model.VendorApproved,
	}
	require.NoError(t, s.CreateVendor(ctx, v))

	got, err := s.GetVendorByName(ctx, "BohoBlooms")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "v-1", got.ID)
	assert.Equal(t, model.VendorApproved, got.Status)

	// Exact-string matching: a differently cased name is a different vendor.
	other, err := s.GetVendorByName(ctx, "bohoblooms")
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestSQLiteStagedDeduplication(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	batch, err := s.CreateBatch(ctx, "amazon", 2)
	require.NoError(t, err)

	dup, err := s.IsDuplicate(ctx, "amazon", "B0AAA")
	require.NoError(t, err)
	assert.False(t, dup)

	p := &model.StagedProduct{
		ID:           "sp-1",
		BatchID:      batch.ID,
		Source:       "amazon",
		ExternalID:   "B0AAA",
		Name:         "Wedding Arch",
		Price:        decimal.NewFromFloat(129.99),
		Currency:     "USD",
		Images:       []string{"https://img/main.jpg"},
		PrimaryImage: "https://img/main.jpg",
		Suggested:    model.FallbackCategorization(),
		AffiliateNet: "amazon",
		ReviewStatus: model.ReviewPending,
	}
	require.NoError(t, s.InsertStaged(ctx, p))

	dup, err = s.IsDuplicate(ctx, "amazon", "B0AAA")
	require.NoError(t, err)
	assert.True(t, dup)

	// Same identity from a different batch hits the unique backstop.
	p2 := *p
	p2.ID = "sp-2"
	err = s.InsertStaged(ctx, &p2)
	require.ErrorIs(t, err, ErrDuplicate)

	// Same external id from a different source is a distinct product.
	dup, err = s.IsDuplicate(ctx, "etsy", "B0AAA")
	require.NoError(t, err)
	assert.False(t, dup)
}
