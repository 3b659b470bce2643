package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/everafter-market/ingest-cli/internal/config"
	"github.com/everafter-market/ingest-cli/internal/model"
	"github.com/everafter-market/ingest-cli/pkg/rainforest"
)

// AmazonScraper finds marketplace products through the Rainforest API.
// It runs in two phases: a search for ASINs, then a rate-limited
// detail fetch per ASIN, since search results carry no description or
// image set.
type AmazonScraper struct {
	client  rainforest.Client
	cfg     config.AmazonConfig
	limiter *RateLimiter
	descMax int
}

// NewAmazonScraper creates the Amazon adapter.
func NewAmazonScraper(client rainforest.Client, cfg config.AmazonConfig, descMax int) *AmazonScraper {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 50
	}
	return &AmazonScraper{
		client:  client,
		cfg:     cfg,
		limiter: NewRateLimiter(cfg.RateLimit),
		descMax: descMax,
	}
}

// Source identifies the adapter.
func (s *AmazonScraper) Source() string {
	return model.SourceAmazon
}

// ValidateConfig requires a Rainforest API key. A missing affiliate
// tag is allowed but logged, since links then earn no commission.
func (s *AmazonScraper) ValidateConfig() error {
	if s.cfg.APIKey == "" {
		return eris.New("amazon: rainforest api key is required")
	}
	if s.cfg.AffiliateID == "" {
		zap.L().Warn("amazon: no affiliate id configured, links will not be monetized")
	}
	return nil
}

// Scrape searches Amazon and fetches product detail for each result.
// Per-item failures are fail-soft; only a search failure is fatal.
func (s *AmazonScraper) Scrape(ctx context.Context, query string) (*model.ScrapeResult, error) {
	results, err := s.client.Search(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "amazon: search")
	}

	if len(results) > s.cfg.MaxResults {
		results = results[:s.cfg.MaxResults]
	}

	zap.L().Info("amazon: search complete",
		zap.String("query", query),
		zap.Int("results", len(results)),
		zap.Duration("detail_interval", s.limiter.Interval()),
	)

	out := &model.ScrapeResult{Stats: model.ScrapeStats{Total: len(results)}}
	for _, r := range results {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "amazon: rate limiter wait")
		}

		candidate, err := s.fetchOne(ctx, r.ASIN)
		if err != nil {
			out.Stats.Failed++
			out.Errors = append(out.Errors, fmt.Sprintf("%s: %s", r.ASIN, err.Error()))
			zap.L().Warn("amazon: product skipped",
				zap.String("asin", r.ASIN),
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

func (s *AmazonScraper) fetchOne(ctx context.Context, asin string) (*model.Candidate, error) {
	p, err := s.client.Product(ctx, asin)
	if err != nil {
		return nil, err
	}

	var images []string
	if p.MainImage != nil && p.MainImage.Link != "" {
		images = append(images, p.MainImage.Link)
	}
	for _, img := range p.Images {
		if img.Link != "" && (p.MainImage == nil || img.Link != p.MainImage.Link) {
			images = append(images, img.Link)
		}
	}

	c := model.Candidate{
		Source:      model.SourceAmazon,
		ExternalID:  p.ASIN,
		SourceURL:   p.Link,
		Name:        p.Title,
		Description: CleanDescription(p.Description, s.descMax),
		Images:      images,
		VendorName:  p.Brand,
		ScrapedAt:   time.Now().UTC(),
	}
	if c.SourceURL == "" {
		c.SourceURL = fmt.Sprintf("https://amazon.com/dp/%s", p.ASIN)
	}
	if c.VendorName == "" {
		c.VendorName = "Amazon Marketplace"
	}
	if p.Price != nil {
		c.Price = NormalizePrice(p.Price.Value)
		c.Currency = p.Price.Currency
	}
	if c.Currency == "" {
		c.Currency = "USD"
	}
	if len(p.Categories) > 0 {
		c.RawCategory = p.Categories[len(p.Categories)-1].Name
	}
	if s.cfg.AffiliateID != "" {
		c.Metadata = map[string]any{
			"affiliate_url": fmt.Sprintf("https://amazon.com/dp/%s?tag=%s", p.ASIN, s.cfg.AffiliateID),
		}
	}

	if err := ValidateCandidate(c); err != nil {
		return nil, err
	}
	return &c, nil
}
