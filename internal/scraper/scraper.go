// Package scraper implements the product source adapters. Each source
// (Amazon, Etsy, manual files) produces normalized candidates that the
// import pipeline stages for review.
package scraper

import (
	"context"

	"github.com/everafter-market/ingest-cli/internal/model"
)

// Scraper is the contract every product source adapter satisfies.
type Scraper interface {
	// Source identifies the adapter.
	Source() string

	// ValidateConfig checks that the adapter has the credentials it
	// needs before any network call is made.
	ValidateConfig() error

	// Scrape searches the source for the query and returns normalized
	// candidates. Individual item failures are recorded in the result;
	// only a failure of the search itself returns an error.
	Scrape(ctx context.Context, query string) (*model.ScrapeResult, error)
}
