package etsyapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchListings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "/listings/active", r.URL.Path)
		assert.Equal(t, "wedding decor", r.URL.Query().Get("keywords"))
		assert.Equal(t, "25", r.URL.Query().Get("limit"))
		assert.Equal(t, "score", r.URL.Query().Get("sort_on"))
		w.Write([]byte(`{"results":[{"listing_id":111,"title":"Macrame Backdrop","price":{"amount":12550,"divisor":100,"currency_code":"USD"},"url":"https://etsy.com/listing/111","shop_id":7}]}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	listings, err := c.SearchListings(context.Background(), "wedding decor", 25)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, int64(111), listings[0].ListingID)
	assert.Equal(t, int64(12550), listings[0].Price.Amount)
}

func TestListingImages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/listings/111/images", r.URL.Path)
		w.Write([]byte(`{"results":[{"listing_id":111,"url_570xN":"https://img/small.jpg","url_fullxfull":"https://img/full.jpg"},{"listing_id":111,"url_570xN":"https://img/small2.jpg"}]}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	images, err := c.ListingImages(context.Background(), 111)
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, "https://img/full.jpg", images[0].Best())
	assert.Equal(t, "https://img/small2.jpg", images[1].Best())
}

func TestShop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/shops/7", r.URL.Path)
		w.Write([]byte(`{"shop_id":7,"shop_name":"BohoBlooms","url":"https://etsy.com/shop/BohoBlooms"}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	shop, err := c.Shop(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "BohoBlooms", shop.ShopName)
}

func TestShopError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"Shop not found"}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := c.Shop(context.Background(), 404)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
