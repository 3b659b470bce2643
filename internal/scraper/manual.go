package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/everafter-market/ingest-cli/internal/fetcher"
	"github.com/everafter-market/ingest-cli/internal/model"
)

// ManualImporter parses curated product feeds from JSON, CSV, and
// XLSX files, local or remote. It performs no validation of its own;
// the pipeline validates each candidate so one bad row never sinks
// the batch.
type ManualImporter struct {
	fetchOpts fetcher.Options
	descMax   int
}

// NewManualImporter creates the file feed adapter.
func NewManualImporter(fetchOpts fetcher.Options, descMax int) *ManualImporter {
	return &ManualImporter{fetchOpts: fetchOpts, descMax: descMax}
}

// Source identifies the adapter.
func (m *ManualImporter) Source() string {
	return model.SourceManual
}

// ValidateConfig always passes; file imports need no credentials.
func (m *ManualImporter) ValidateConfig() error {
	return nil
}

// Scrape is not supported: manual feeds come from files, not queries.
func (m *ManualImporter) Scrape(ctx context.Context, query string) (*model.ScrapeResult, error) {
	return nil, eris.New("manual: source requires a feed file, use ImportFile")
}

// ImportFile parses the feed at location into candidates. The format
// is chosen by file extension: .json, .csv, or .xlsx.
func (m *ManualImporter) ImportFile(ctx context.Context, location string) (*model.ScrapeResult, error) {
	var (
		candidates []model.Candidate
		err        error
	)

	switch strings.ToLower(filepath.Ext(location)) {
	case ".json":
		candidates, err = m.importJSON(ctx, location)
	case ".csv":
		candidates, err = m.importCSV(ctx, location)
	case ".xlsx":
		candidates, err = m.importXLSX(ctx, location)
	default:
		return nil, eris.Errorf("manual: unsupported feed format %q (want .json, .csv, or .xlsx)", filepath.Ext(location))
	}
	if err != nil {
		return nil, err
	}

	zap.L().Info("manual: feed parsed",
		zap.String("location", location),
		zap.Int("rows", len(candidates)),
	)

	return &model.ScrapeResult{
		Success:    len(candidates) > 0,
		Candidates: candidates,
		Stats: model.ScrapeStats{
			Total:      len(candidates),
			Successful: len(candidates),
		},
	}, nil
}

// manualFeed is the JSON envelope shape; bare arrays are also accepted.
type manualFeed struct {
	Products []model.Candidate `json:"products"`
}

func (m *ManualImporter) importJSON(ctx context.Context, location string) ([]model.Candidate, error) {
	rc, err := fetcher.Open(ctx, location, m.fetchOpts)
	if err != nil {
		return nil, err
	}
	defer rc.Close() //nolint:errcheck

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, eris.Wrap(err, "manual: read json feed")
	}

	var candidates []model.Candidate
	if err := json.Unmarshal(data, &candidates); err != nil {
		var feed manualFeed
		if envErr := json.Unmarshal(data, &feed); envErr != nil {
			return nil, eris.Wrap(err, "manual: parse json feed")
		}
		candidates = feed.Products
	}

	for i := range candidates {
		m.finishCandidate(&candidates[i], i)
	}
	return candidates, nil
}

func (m *ManualImporter) importCSV(ctx context.Context, location string) ([]model.Candidate, error) {
	rc, err := fetcher.Open(ctx, location, m.fetchOpts)
	if err != nil {
		return nil, err
	}
	defer rc.Close() //nolint:errcheck

	headerCh := make(chan []string, 1)
	rowCh, errCh := fetcher.StreamCSV(ctx, rc, fetcher.CSVOptions{
		HasHeader: true,
		HeaderCh:  headerCh,
		TrimSpace: true,
	})

	var (
		columns    map[string]int
		candidates []model.Candidate
		rowNum     int
	)
	for row := range rowCh {
		if columns == nil {
			columns = mapColumns(<-headerCh)
		}
		c := m.candidateFromRow(columns, row, rowNum)
		candidates = append(candidates, c)
		rowNum++
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	return candidates, nil
}

func (m *ManualImporter) importXLSX(ctx context.Context, location string) ([]model.Candidate, error) {
	path, cleanup, err := fetcher.Localize(ctx, location, m.fetchOpts)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	rows, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	columns := mapColumns(rows[0])
	candidates := make([]model.Candidate, 0, len(rows)-1)
	for i, row := range rows[1:] {
		candidates = append(candidates, m.candidateFromRow(columns, row, i))
	}
	return candidates, nil
}

// columnAliases maps the header names suppliers actually use onto the
// canonical candidate fields.
var columnAliases = map[string]string{
	"name": "name", "title": "name", "product_name": "name",
	"description": "description", "desc": "description",
	"price": "price", "cost": "price",
	"currency": "currency",
	"images":   "images", "image": "images", "image_url": "images", "image_urls": "images",
	"vendor": "vendor_name", "vendor_name": "vendor_name", "brand": "vendor_name", "shop": "vendor_name",
	"vendor_url": "vendor_url", "vendor_website": "vendor_url",
	"category": "raw_category", "raw_category": "raw_category",
	"external_id": "external_id", "sku": "external_id", "id": "external_id",
	"source_url": "source_url", "url": "source_url", "product_url": "source_url", "link": "source_url",
	"source": "source",
}

func mapColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		key = strings.ReplaceAll(key, " ", "_")
		if field, ok := columnAliases[key]; ok {
			if _, taken := columns[field]; !taken {
				columns[field] = i
			}
		}
	}
	return columns
}

func (m *ManualImporter) candidateFromRow(columns map[string]int, row []string, rowNum int) model.Candidate {
	cell := func(field string) string {
		i, ok := columns[field]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	c := model.Candidate{
		Source:      cell("source"),
		ExternalID:  cell("external_id"),
		SourceURL:   cell("source_url"),
		Name:        cell("name"),
		Description: cell("description"),
		Price:       NormalizePrice(cell("price")),
		Currency:    cell("currency"),
		Images:      splitImages(cell("images")),
		VendorName:  cell("vendor_name"),
		VendorURL:   cell("vendor_url"),
		RawCategory: cell("raw_category"),
	}
	m.finishCandidate(&c, rowNum)
	return c
}

// finishCandidate fills the defaults shared by every feed format.
func (m *ManualImporter) finishCandidate(c *model.Candidate, rowNum int) {
	if c.Source == "" {
		c.Source = model.SourceManual
	}
	if c.ExternalID == "" {
		c.ExternalID = fmt.Sprintf("manual-%d", rowNum)
	}
	if c.Currency == "" {
		c.Currency = "USD"
	}
	if c.VendorName == "" {
		c.VendorName = "Manual Import"
	}
	if c.ScrapedAt.IsZero() {
		c.ScrapedAt = time.Now().UTC()
	}
	c.Description = CleanDescription(c.Description, m.descMax)
}

// splitImages splits an images cell and keeps only URL tokens, so
// placeholder text like "n/a" never counts as an image.
func splitImages(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '|' || r == ';'
	})
	images := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); strings.HasPrefix(p, "http") {
			images = append(images, p)
		}
	}
	return images
}
