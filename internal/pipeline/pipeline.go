// Package pipeline runs the import lifecycle: batch creation,
// per-item dedup, validation, vendor resolution, categorization, and
// staging, with fail-soft item handling throughout.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/everafter-market/ingest-cli/internal/model"
	"github.com/everafter-market/ingest-cli/internal/scraper"
	"github.com/everafter-market/ingest-cli/internal/store"
)

// DefaultErrorSampleSize caps how many item errors a batch record keeps.
const DefaultErrorSampleSize = 10

// Pipeline stages candidates into the review queue. One run per
// source at a time: concurrent runs for the same source would race the
// pre-insert duplicate check (the unique constraint still backstops
// correctness, duplicates would just surface as ErrDuplicate).
type Pipeline struct {
	store           store.Store
	categorizer     Categorizer
	errorSampleSize int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithErrorSampleSize overrides how many item errors are persisted
// per batch.
func WithErrorSampleSize(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.errorSampleSize = n
		}
	}
}

// New creates a Pipeline.
func New(st store.Store, categorizer Categorizer, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:           st,
		categorizer:     categorizer,
		errorSampleSize: DefaultErrorSampleSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ImportFromFile parses a manual feed and stages its candidates.
func (p *Pipeline) ImportFromFile(ctx context.Context, importer *scraper.ManualImporter, location string) (*Report, error) {
	result, err := importer.ImportFile(ctx, location)
	if err != nil {
		return nil, err
	}
	source := model.SourceManual
	if len(result.Candidates) > 0 {
		source = result.Candidates[0].Source
	}
	return p.ImportCandidates(ctx, source, result.Candidates)
}

// ImportCandidates stages a slice of candidates as one batch. Batch
// creation failure is fatal; every per-item failure is recorded and
// the loop continues. On return the batch is terminal and
// imported+failed+duplicates equals the batch total.
func (p *Pipeline) ImportCandidates(ctx context.Context, source string, candidates []model.Candidate) (*Report, error) {
	started := time.Now()

	batch, err := p.store.CreateBatch(ctx, source, len(candidates))
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create batch")
	}

	zap.L().Info("pipeline: batch started",
		zap.String("batch_id", batch.ID),
		zap.String("source", source),
		zap.Int("total", len(candidates)),
	)

	stats := model.ImportStats{Total: len(candidates)}
	var errs []string

	fail := func(c model.Candidate, err error) {
		stats.Failed++
		errs = append(errs, fmt.Sprintf("%s: %s", itemLabel(c), err.Error()))
		zap.L().Warn("pipeline: item failed",
			zap.String("batch_id", batch.ID),
			zap.String("item", itemLabel(c)),
			zap.Error(err),
		)
	}

	for _, c := range candidates {
		dup, err := p.store.IsDuplicate(ctx, c.Source, c.ExternalID)
		if err != nil {
			fail(c, eris.Wrap(err, "duplicate check"))
			continue
		}
		if dup {
			stats.Duplicates++
			continue
		}

		if err := scraper.ValidateCandidate(c); err != nil {
			fail(c, err)
			continue
		}

		vendor, err := p.resolveVendor(ctx, c)
		if err != nil {
			fail(c, eris.Wrap(err, "resolve vendor"))
			continue
		}

		suggested := p.categorizer.Categorize(ctx, c)

		staged := buildStaged(batch.ID, c, vendor, suggested)
		if err := p.store.InsertStaged(ctx, staged); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				stats.Duplicates++
				continue
			}
			fail(c, eris.Wrap(err, "stage product"))
			continue
		}

		stats.Imported++
	}

	if err := p.store.CompleteBatch(ctx, batch.ID, stats, sample(errs, p.errorSampleSize)); err != nil {
		if failErr := p.store.FailBatch(ctx, batch.ID, []string{err.Error()}); failErr != nil {
			zap.L().Error("pipeline: could not mark batch failed",
				zap.String("batch_id", batch.ID),
				zap.Error(failErr),
			)
		}
		return nil, eris.Wrapf(err, "pipeline: complete batch %s", batch.ID)
	}

	report := &Report{
		BatchID:  batch.ID,
		Source:   source,
		Stats:    stats,
		Errors:   errs,
		Duration: time.Since(started),
	}
	report.Log()
	return report, nil
}

// resolveVendor finds the vendor by exact company name or creates an
// auto-approved one.
func (p *Pipeline) resolveVendor(ctx context.Context, c model.Candidate) (*model.Vendor, error) {
	vendor, err := p.store.GetVendorByName(ctx, c.VendorName)
	if err != nil {
		return nil, err
	}
	if vendor != nil {
		return vendor, nil
	}

	vendor = &model.Vendor{
		ID:          uuid.New().String(),
		CompanyName: c.VendorName,
		Slug:        model.Slugify(c.VendorName),
		Description: fmt.Sprintf("%s - Wedding products", c.VendorName),
		Website:     c.VendorURL,
		Status:      model.VendorApproved,
		CreatedAt:   time.Now().UTC(),
	}
	if err := p.store.CreateVendor(ctx, vendor); err != nil {
		return nil, err
	}

	zap.L().Info("pipeline: vendor created",
		zap.String("vendor_id", vendor.ID),
		zap.String("company_name", vendor.CompanyName),
		zap.String("slug", vendor.Slug),
	)
	return vendor, nil
}

func buildStaged(batchID string, c model.Candidate, vendor *model.Vendor, suggested model.Categorization) *model.StagedProduct {
	primary := ""
	if len(c.Images) > 0 {
		primary = c.Images[0]
	}

	return &model.StagedProduct{
		ID:           uuid.New().String(),
		BatchID:      batchID,
		Source:       c.Source,
		ExternalID:   c.ExternalID,
		SourceURL:    c.SourceURL,
		Name:         c.Name,
		Description:  c.Description,
		RawCategory:  c.RawCategory,
		Price:        c.Price,
		Currency:     c.Currency,
		Images:       c.Images,
		PrimaryImage: primary,
		VendorID:     vendor.ID,
		VendorName:   vendor.CompanyName,
		VendorURL:    vendor.Website,
		Suggested:    suggested,
		AffiliateNet: model.AffiliateNetworkFor(c.Source),
		AffiliateURL: c.AffiliateURL(),
		ReviewStatus: model.ReviewPending,
		RawData:      c.Metadata,
		CreatedAt:    time.Now().UTC(),
	}
}

// itemLabel names an item in error samples: product name when
// present, otherwise the identity pair.
func itemLabel(c model.Candidate) string {
	if c.Name != "" {
		return c.Name
	}
	return fmt.Sprintf("%s/%s", c.Source, c.ExternalID)
}

func sample(errs []string, n int) []string {
	if len(errs) <= n {
		return errs
	}
	return errs[:n]
}
