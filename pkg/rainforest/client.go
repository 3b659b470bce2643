// Package rainforest provides a client for the Rainforest Amazon
// product data API.
package rainforest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the Rainforest API operations used by the Amazon adapter.
type Client interface {
	// Search runs a search request and returns the raw results.
	Search(ctx context.Context, query string) ([]SearchResult, error)
	// Product fetches full product detail for one ASIN.
	Product(ctx context.Context, asin string) (*Product, error)
}

// SearchResult is a single entry from a search response.
type SearchResult struct {
	ASIN  string `json:"asin"`
	Title string `json:"title"`
	Link  string `json:"link"`
}

// Price holds a product price as reported by Amazon.
type Price struct {
	Value    float64 `json:"value"`
	Currency string  `json:"currency"`
}

// Image is a product image link.
type Image struct {
	Link string `json:"link"`
}

// Category is a product category node.
type Category struct {
	Name string `json:"name"`
}

// Product is the detail payload for one listing.
type Product struct {
	ASIN        string     `json:"asin"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Price       *Price     `json:"price"`
	MainImage   *Image     `json:"main_image"`
	Images      []Image    `json:"images"`
	Categories  []Category `json:"categories"`
	Brand       string     `json:"brand"`
	Link        string     `json:"link"`
}

type searchResponse struct {
	SearchResults []SearchResult `json:"search_results"`
	Message       string         `json:"message"`
}

type productResponse struct {
	Product *Product `json:"product"`
	Message string   `json:"message"`
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

// NewClient creates a Rainforest API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://api.rainforestapi.com/request",
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

func (c *httpClient) get(ctx context.Context, params url.Values) ([]byte, error) {
	params.Set("api_key", c.apiKey)
	params.Set("amazon_domain", "amazon.com")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "rainforest: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "rainforest: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "rainforest: read response body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("rainforest: unexpected status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

func (c *httpClient) Search(ctx context.Context, query string) ([]SearchResult, error) {
	params := url.Values{}
	params.Set("type", "search")
	params.Set("search_term", query)
	params.Set("max_page", "1")

	body, err := c.get(ctx, params)
	if err != nil {
		return nil, err
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "rainforest: unmarshal search response")
	}
	return result.SearchResults, nil
}

func (c *httpClient) Product(ctx context.Context, asin string) (*Product, error) {
	params := url.Values{}
	params.Set("type", "product")
	params.Set("asin", asin)

	body, err := c.get(ctx, params)
	if err != nil {
		return nil, err
	}

	var result productResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "rainforest: unmarshal product response")
	}
	if result.Product == nil {
		return nil, eris.Errorf("rainforest: no product in response for %s", asin)
	}
	return result.Product, nil
}
