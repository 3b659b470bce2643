package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Known import sources. Sources are plain strings so manual feeds can
// introduce new ones without a code change; these constants cover the
// adapters shipped with the CLI.
const (
	SourceAmazon = "amazon"
	SourceEtsy   = "etsy"
	SourceRental = "rental"
	SourceManual = "manual"
)

// Candidate is a single normalized product listing produced by an
// adapter. It is transient: the pipeline consumes it and persists a
// StagedProduct instead. The (Source, ExternalID) pair is the identity
// key used for deduplication everywhere downstream.
type Candidate struct {
	Source      string          `json:"source"`
	ExternalID  string          `json:"external_id"`
	SourceURL   string          `json:"source_url"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
	Images      []string        `json:"images"`
	VendorName  string          `json:"vendor_name"`
	VendorURL   string          `json:"vendor_url,omitempty"`
	RawCategory string          `json:"raw_category,omitempty"`
	Metadata    map[string]any  `json:"metadata,omitempty"`
	ScrapedAt   time.Time       `json:"scraped_at"`
}

// AffiliateURL returns the adapter-provided affiliate link from the
// candidate metadata, falling back to the source URL.
func (c Candidate) AffiliateURL() string {
	if c.Metadata != nil {
		if u, ok := c.Metadata["affiliate_url"].(string); ok && u != "" {
			return u
		}
	}
	return c.SourceURL
}

// ScrapeStats tallies per-item outcomes of one adapter run.
type ScrapeStats struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// ScrapeResult is the common output shape of every adapter run.
// Success means at least one candidate survived validation.
type ScrapeResult struct {
	Success    bool        `json:"success"`
	Candidates []Candidate `json:"candidates"`
	Errors     []string    `json:"errors"`
	Stats      ScrapeStats `json:"stats"`
}

// affiliateNetworks maps an import source to the affiliate network its
// links belong to.
var affiliateNetworks = map[string]string{
	SourceAmazon: "amazon",
	SourceEtsy:   "awin",
	SourceRental: "direct",
	SourceManual: "direct",
}

// AffiliateNetworkFor returns the affiliate network label for a source.
// Unknown sources are treated as direct links.
func AffiliateNetworkFor(source string) string {
	if n, ok := affiliateNetworks[source]; ok {
		return n
	}
	return "direct"
}
