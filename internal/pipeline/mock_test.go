package pipeline

import (
	"context"
	"fmt"

	"github.com/stretchr/testify/mock"

	"github.com/everafter-market/ingest-cli/internal/model"
	"github.com/everafter-market/ingest-cli/internal/store"
	"github.com/everafter-market/ingest-cli/pkg/anthropic"
)

// fakeStore is an in-memory store.Store with injectable failures.
type fakeStore struct {
	batches map[string]*model.ImportBatch
	vendors map[string]*model.Vendor
	staged  map[string]*model.StagedProduct

	createBatchErr   error
	completeBatchErr error
	failBatchErr     error
	vendorErr        error
	insertErrFor     map[string]error // keyed by external id
	dupCheckErrFor   map[string]error

	failedBatches []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		batches:        map[string]*model.ImportBatch{},
		vendors:        map[string]*model.Vendor{},
		staged:         map[string]*model.StagedProduct{},
		insertErrFor:   map[string]error{},
		dupCheckErrFor: map[string]error{},
	}
}

func stagedKey(source, externalID string) string {
	return fmt.Sprintf("%s/%s", source, externalID)
}

func (f *fakeStore) CreateBatch(ctx context.Context, source string, totalItems int) (*model.ImportBatch, error) {
	if f.createBatchErr != nil {
		return nil, f.createBatchErr
	}
	b := &model.ImportBatch{
		ID:         fmt.Sprintf("batch-%d", len(f.batches)+1),
		Source:     source,
		Status:     model.BatchStatusProcessing,
		TotalItems: totalItems,
	}
	f.batches[b.ID] = b
	return b, nil
}

func (f *fakeStore) CompleteBatch(ctx context.Context, batchID string, stats model.ImportStats, errs []string) error {
	if f.completeBatchErr != nil {
		return f.completeBatchErr
	}
	b, ok := f.batches[batchID]
	if !ok {
		return fmt.Errorf("batch not found: %s", batchID)
	}
	b.Status = model.BatchStatusCompleted
	b.ImportedItems = stats.Imported
	b.FailedItems = stats.Failed
	b.DuplicateItems = stats.Duplicates
	b.Errors = errs
	return nil
}

func (f *fakeStore) FailBatch(ctx context.Context, batchID string, errs []string) error {
	if f.failBatchErr != nil {
		return f.failBatchErr
	}
	f.failedBatches = append(f.failedBatches, batchID)
	if b, ok := f.batches[batchID]; ok {
		b.Status = model.BatchStatusFailed
		b.Errors = errs
	}
	return nil
}

func (f *fakeStore) GetBatch(ctx context.Context, batchID string) (*model.ImportBatch, error) {
	b, ok := f.batches[batchID]
	if !ok {
		return nil, fmt.Errorf("batch not found: %s", batchID)
	}
	return b, nil
}

func (f *fakeStore) ListBatches(ctx context.Context, filter store.BatchFilter) ([]model.ImportBatch, error) {
	var out []model.ImportBatch
	for _, b := range f.batches {
		out = append(out, *b)
	}
	return out, nil
}

func (f *fakeStore) IsDuplicate(ctx context.Context, source, externalID string) (bool, error) {
	if err := f.dupCheckErrFor[externalID]; err != nil {
		return false, err
	}
	_, ok := f.staged[stagedKey(source, externalID)]
	return ok, nil
}

func (f *fakeStore) InsertStaged(ctx context.Context, p *model.StagedProduct) error {
	if err := f.insertErrFor[p.ExternalID]; err != nil {
		return err
	}
	key := stagedKey(p.Source, p.ExternalID)
	if _, ok := f.staged[key]; ok {
		return store.ErrDuplicate
	}
	f.staged[key] = p
	return nil
}

func (f *fakeStore) GetVendorByName(ctx context.Context, companyName string) (*model.Vendor, error) {
	if f.vendorErr != nil {
		return nil, f.vendorErr
	}
	return f.vendors[companyName], nil
}

func (f *fakeStore) CreateVendor(ctx context.Context, v *model.Vendor) error {
	if f.vendorErr != nil {
		return f.vendorErr
	}
	f.vendors[v.CompanyName] = v
	return nil
}

func (f *fakeStore) Migrate(ctx context.Context) error { return nil }
func (f *fakeStore) Ping(ctx context.Context) error    { return nil }
func (f *fakeStore) Close() error                      { return nil }

// stubCategorizer returns a fixed categorization and counts calls.
type stubCategorizer struct {
	result model.Categorization
	calls  int
}

func (s *stubCategorizer) Categorize(ctx context.Context, c model.Candidate) model.Categorization {
	s.calls++
	return s.result
}

// mockAnthropic mocks the Anthropic client for categorizer tests.
type mockAnthropic struct {
	mock.Mock
}

func (m *mockAnthropic) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content:    []anthropic.ContentBlock{{Type: "text", Text: text}},
		StopReason: "end_turn",
	}
}
