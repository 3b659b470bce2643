package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/everafter-market/ingest-cli/internal/config"
	"github.com/everafter-market/ingest-cli/internal/model"
	"github.com/everafter-market/ingest-cli/pkg/etsyapi"
)

// awinMerchantID is Etsy's merchant id on the Awin affiliate network.
const awinMerchantID = "6983"

// EtsyScraper finds handmade goods through the Etsy Open API. Each
// listing needs two follow-up calls (images and shop detail), so the
// per-listing budget runs through the shared rate limiter with a short
// pause between the sub-calls.
type EtsyScraper struct {
	client       etsyapi.Client
	cfg          config.EtsyConfig
	limiter      *RateLimiter
	descMax      int
	subcallDelay time.Duration
}

// NewEtsyScraper creates the Etsy adapter.
func NewEtsyScraper(client etsyapi.Client, cfg config.EtsyConfig, descMax int) *EtsyScraper {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 50
	}
	return &EtsyScraper{
		client:       client,
		cfg:          cfg,
		limiter:      NewRateLimiter(cfg.RateLimit),
		descMax:      descMax,
		subcallDelay: 200 * time.Millisecond,
	}
}

// Source identifies the adapter.
func (s *EtsyScraper) Source() string {
	return model.SourceEtsy
}

// ValidateConfig requires an Etsy API key. A missing Awin affiliate id
// is allowed but logged.
func (s *EtsyScraper) ValidateConfig() error {
	if s.cfg.APIKey == "" {
		return eris.New("etsy: api key is required")
	}
	if s.cfg.AffiliateID == "" {
		zap.L().Warn("etsy: no awin affiliate id configured, links will not be monetized")
	}
	return nil
}

// Scrape searches Etsy listings and enriches each with its images and
// shop. Per-listing failures are fail-soft; only a failure of the
// search itself is fatal.
func (s *EtsyScraper) Scrape(ctx context.Context, query string) (*model.ScrapeResult, error) {
	listings, err := s.client.SearchListings(ctx, query, s.cfg.MaxResults)
	if err != nil {
		return nil, eris.Wrap(err, "etsy: search listings")
	}

	zap.L().Info("etsy: search complete",
		zap.String("query", query),
		zap.Int("results", len(listings)),
	)

	out := &model.ScrapeResult{Stats: model.ScrapeStats{Total: len(listings)}}
	for _, listing := range listings {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "etsy: rate limiter wait")
		}

		candidate, err := s.enrichOne(ctx, listing)
		if err != nil {
			out.Stats.Failed++
			out.Errors = append(out.Errors, fmt.Sprintf("listing %d: %s", listing.ListingID, err.Error()))
			zap.L().Warn("etsy: listing skipped",
				zap.Int64("listing_id", listing.ListingID),
				zap.Error(err),
			)
			continue
		}

		out.Stats.Successful++
		out.Candidates = append(out.Candidates, *candidate)
	}

	out.Success = len(out.Candidates) > 0
	return out, nil
}

func (s *EtsyScraper) enrichOne(ctx context.Context, listing etsyapi.Listing) (*model.Candidate, error) {
	images, err := s.client.ListingImages(ctx, listing.ListingID)
	if err != nil {
		return nil, eris.Wrap(err, "fetch images")
	}

	s.pause(ctx)

	// A broken shop lookup should not sink the listing; fall back to a
	// generic vendor and keep going.
	vendorName := "Etsy Shop"
	vendorURL := ""
	shop, err := s.client.Shop(ctx, listing.ShopID)
	if err != nil {
		zap.L().Warn("etsy: shop lookup failed, using fallback vendor",
			zap.Int64("shop_id", listing.ShopID),
			zap.Error(err),
		)
	} else {
		vendorName = shop.ShopName
		vendorURL = shop.URL
	}

	urls := make([]string, 0, len(images))
	for _, img := range images {
		if u := img.Best(); u != "" {
			urls = append(urls, u)
		}
	}

	price := decimal.Zero
	if listing.Price.Divisor > 0 {
		price = decimal.NewFromInt(listing.Price.Amount).Div(decimal.NewFromInt(listing.Price.Divisor))
	}

	c := model.Candidate{
		Source:      model.SourceEtsy,
		ExternalID:  strconv.FormatInt(listing.ListingID, 10),
		SourceURL:   listing.URL,
		Name:        listing.Title,
		Description: CleanDescription(listing.Description, s.descMax),
		Price:       price,
		Currency:    listing.Price.CurrencyCode,
		Images:      urls,
		VendorName:  vendorName,
		VendorURL:   vendorURL,
		ScrapedAt:   time.Now().UTC(),
	}
	if c.Currency == "" {
		c.Currency = "USD"
	}
	if listing.TaxonomyID > 0 {
		c.Metadata = map[string]any{"taxonomy_id": listing.TaxonomyID}
	}
	if s.cfg.AffiliateID != "" && listing.URL != "" {
		if c.Metadata == nil {
			c.Metadata = map[string]any{}
		}
		c.Metadata["affiliate_url"] = awinDeepLink(s.cfg.AffiliateID, listing.URL)
	}

	if err := ValidateCandidate(c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *EtsyScraper) pause(ctx context.Context) {
	t := time.NewTimer(s.subcallDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// awinDeepLink wraps a listing URL in an Awin tracking link.
func awinDeepLink(affiliateID, listingURL string) string {
	return fmt.Sprintf("https://www.awin1.com/cread.php?awinmid=%s&awinaffid=%s&ued=%s",
		awinMerchantID, affiliateID, url.QueryEscape(listingURL))
}
