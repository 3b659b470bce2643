// Package etsyapi provides a client for the Etsy Open API v3.
package etsyapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the Etsy API operations used by the Etsy adapter.
type Client interface {
	// SearchListings searches active listings by keywords.
	SearchListings(ctx context.Context, keywords string, limit int) ([]Listing, error)
	// ListingImages returns the image set for one listing.
	ListingImages(ctx context.Context, listingID int64) ([]ListingImage, error)
	// Shop fetches shop detail for vendor attribution.
	Shop(ctx context.Context, shopID int64) (*Shop, error)
}

// Money is Etsy's fixed-point price representation.
type Money struct {
	Amount       int64  `json:"amount"`
	Divisor      int64  `json:"divisor"`
	CurrencyCode string `json:"currency_code"`
}

// Listing is one active listing from a search response.
type Listing struct {
	ListingID   int64  `json:"listing_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       Money  `json:"price"`
	URL         string `json:"url"`
	ShopID      int64  `json:"shop_id"`
	TaxonomyID  int64  `json:"taxonomy_id"`
}

// ListingImage is one image of a listing; the full-size URL is
// preferred over the 570px thumbnail.
type ListingImage struct {
	ListingID    int64  `json:"listing_id"`
	URL570xN     string `json:"url_570xN"`
	URLFullxfull string `json:"url_fullxfull"`
}

// Best returns the preferred URL for an image.
func (i ListingImage) Best() string {
	if i.URLFullxfull != "" {
		return i.URLFullxfull
	}
	return i.URL570xN
}

// Shop holds the vendor-facing shop detail.
type Shop struct {
	ShopID   int64  `json:"shop_id"`
	ShopName string `json:"shop_name"`
	URL      string `json:"url"`
}

type listingsResponse struct {
	Results []Listing `json:"results"`
	Error   string    `json:"error"`
}

type imagesResponse struct {
	Results []ListingImage `json:"results"`
	Error   string         `json:"error"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates an Etsy Open API v3 client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://openapi.etsy.com/v3/application",
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, eris.Wrap(err, "etsy: create request")
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "etsy: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "etsy: read response body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("etsy: unexpected status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

func (c *httpClient) SearchListings(ctx context.Context, keywords string, limit int) ([]Listing, error) {
	if limit <= 0 {
		limit = 50
	}
	params := url.Values{}
	params.Set("keywords", keywords)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("sort_on", "score")
	params.Set("min_price", "10")

	body, err := c.get(ctx, "/listings/active?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var result listingsResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "etsy: unmarshal listings response")
	}
	return result.Results, nil
}

func (c *httpClient) ListingImages(ctx context.Context, listingID int64) ([]ListingImage, error) {
	body, err := c.get(ctx, fmt.Sprintf("/listings/%d/images", listingID))
	if err != nil {
		return nil, err
	}

	var result imagesResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "etsy: unmarshal images response")
	}
	return result.Results, nil
}

func (c *httpClient) Shop(ctx context.Context, shopID int64) (*Shop, error) {
	body, err := c.get(ctx, fmt.Sprintf("/shops/%d", shopID))
	if err != nil {
		return nil, err
	}

	var shop Shop
	if err := json.Unmarshal(body, &shop); err != nil {
		return nil, eris.Wrap(err, "etsy: unmarshal shop response")
	}
	return &shop, nil
}
