package rainforest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "search", r.URL.Query().Get("type"))
		assert.Equal(t, "wedding centerpieces", r.URL.Query().Get("search_term"))
		w.Write([]byte(`{"search_results":[{"asin":"B0001","title":"Gold Candlestick"},{"asin":"B0002","title":"Votive Holder"}]}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	results, err := c.Search(context.Background(), "wedding centerpieces")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "B0001", results[0].ASIN)
}

func TestProduct(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "product", r.URL.Query().Get("type"))
		assert.Equal(t, "B0001", r.URL.Query().Get("asin"))
		w.Write([]byte(`{"product":{"asin":"B0001","title":"Gold Candlestick","price":{"value":45.99,"currency":"USD"},"main_image":{"link":"https://img/1.jpg"},"brand":"Bella Decor","link":"https://amazon.com/dp/B0001"}}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	p, err := c.Product(context.Background(), "B0001")
	require.NoError(t, err)
	assert.Equal(t, "Gold Candlestick", p.Title)
	assert.Equal(t, 45.99, p.Price.Value)
	assert.Equal(t, "https://img/1.jpg", p.MainImage.Link)
}

func TestProductAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"invalid api key"}`))
	}))
	defer srv.Close()

	c := NewClient("bad-key", WithBaseURL(srv.URL))
	_, err := c.Product(context.Background(), "B0001")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestProductMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := c.Product(context.Background(), "B0404")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no product")
}
