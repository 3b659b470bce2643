package scraper

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/everafter-market/ingest-cli/internal/config"
	"github.com/everafter-market/ingest-cli/internal/model"
	"github.com/everafter-market/ingest-cli/pkg/etsyapi"
)

func fastEtsyScraper(client etsyapi.Client) *EtsyScraper {
	s := NewEtsyScraper(client, config.EtsyConfig{
		APIKey:      "etsy-key",
		AffiliateID: "101010",
		MaxResults:  50,
		RateLimit:   60000,
	}, 0)
	s.subcallDelay = time.Millisecond
	return s
}

func TestEtsyValidateConfig(t *testing.T) {
	s := NewEtsyScraper(&mockEtsy{}, config.EtsyConfig{}, 0)
	require.Error(t, s.ValidateConfig())

	s = NewEtsyScraper(&mockEtsy{}, config.EtsyConfig{APIKey: "k"}, 0)
	assert.NoError(t, s.ValidateConfig())
}

func TestEtsyScrapeEnrichment(t *testing.T) {
	client := &mockEtsy{}
	client.On("SearchListings", mock.Anything, "macrame backdrop", 50).Return([]etsyapi.Listing{
		{
			ListingID:   111,
			Title:       "Macrame Backdrop",
			Description: "Hand-knotted <br> backdrop",
			Price:       etsyapi.Money{Amount: 12550, Divisor: 100, CurrencyCode: "USD"},
			URL:         "https://www.etsy.com/listing/111/macrame-backdrop",
			ShopID:      7,
			TaxonomyID:  1633,
		},
	}, nil)
	client.On("ListingImages", mock.Anything, int64(111)).Return([]etsyapi.ListingImage{
		{URLFullxfull: "https://img/full.jpg"},
		{URL570xN: "https://img/small.jpg"},
	}, nil)
	client.On("Shop", mock.Anything, int64(7)).Return(&etsyapi.Shop{
		ShopID:   7,
		ShopName: "BohoBlooms",
		URL:      "https://www.etsy.com/shop/BohoBlooms",
	}, nil)

	s := fastEtsyScraper(client)
	result, err := s.Scrape(context.Background(), "macrame backdrop")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Stats.Successful)
	require.Len(t, result.Candidates, 1)

	c := result.Candidates[0]
	assert.Equal(t, model.SourceEtsy, c.Source)
	assert.Equal(t, "111", c.ExternalID)
	assert.Equal(t, "125.5", c.Price.String())
	assert.Equal(t, "USD", c.Currency)
	assert.Equal(t, []string{"https://img/full.jpg", "https://img/small.jpg"}, c.Images)
	assert.Equal(t, "BohoBlooms", c.VendorName)
	assert.Equal(t, "Hand-knotted backdrop", c.Description)
	assert.Equal(t,
		"https://www.awin1.com/cread.php?awinmid=6983&awinaffid=101010&ued=https%3A%2F%2Fwww.etsy.com%2Flisting%2F111%2Fmacrame-backdrop",
		c.AffiliateURL(),
	)

	client.AssertExpectations(t)
}

func TestEtsyShopFailureFallsBack(t *testing.T) {
	client := &mockEtsy{}
	client.On("SearchListings", mock.Anything, "garland", 50).Return([]etsyapi.Listing{
		{
			ListingID: 222,
			Title:     "Eucalyptus Garland",
			Price:     etsyapi.Money{Amount: 4000, Divisor: 100, CurrencyCode: "USD"},
			URL:       "https://www.etsy.com/listing/222",
			ShopID:    9,
		},
	}, nil)
	client.On("ListingImages", mock.Anything, int64(222)).Return([]etsyapi.ListingImage{
		{URLFullxfull: "https://img/g.jpg"},
	}, nil)
	client.On("Shop", mock.Anything, int64(9)).Return(nil, eris.New("shop 404"))

	result, err := fastEtsyScraper(client).Scrape(context.Background(), "garland")
	require.NoError(t, err)

	require.Len(t, result.Candidates, 1)
	assert.Equal(t, "Etsy Shop", result.Candidates[0].VendorName)
	assert.Empty(t, result.Candidates[0].VendorURL)
}

func TestEtsyImageFailureIsFailSoft(t *testing.T) {
	client := &mockEtsy{}
	client.On("SearchListings", mock.Anything, "runner", 50).Return([]etsyapi.Listing{
		{ListingID: 333, Title: "Table Runner", Price: etsyapi.Money{Amount: 1500, Divisor: 100}, ShopID: 3},
		{ListingID: 444, Title: "Velvet Runner", Price: etsyapi.Money{Amount: 2500, Divisor: 100}, URL: "https://etsy.com/l/444", ShopID: 3},
	}, nil)
	client.On("ListingImages", mock.Anything, int64(333)).Return(nil, eris.New("timeout"))
	client.On("ListingImages", mock.Anything, int64(444)).Return([]etsyapi.ListingImage{
		{URL570xN: "https://img/444.jpg"},
	}, nil)
	client.On("Shop", mock.Anything, int64(3)).Return(&etsyapi.Shop{ShopID: 3, ShopName: "RunnerShop"}, nil)

	result, err := fastEtsyScraper(client).Scrape(context.Background(), "runner")
	require.NoError(t, err)

	assert.Equal(t, 2, result.Stats.Total)
	assert.Equal(t, 1, result.Stats.Successful)
	assert.Equal(t, 1, result.Stats.Failed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "333")
}

func TestEtsyScrapeSearchFailure(t *testing.T) {
	client := &mockEtsy{}
	client.On("SearchListings", mock.Anything, "x", 50).Return(nil, eris.New("quota exceeded"))

	_, err := fastEtsyScraper(client).Scrape(context.Background(), "x")
	require.Error(t, err)
}
