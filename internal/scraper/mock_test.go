package scraper

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/everafter-market/ingest-cli/pkg/etsyapi"
	"github.com/everafter-market/ingest-cli/pkg/rainforest"
)

type mockRainforest struct {
	mock.Mock
}

func (m *mockRainforest) Search(ctx context.Context, query string) ([]rainforest.SearchResult, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]rainforest.SearchResult), args.Error(1)
}

func (m *mockRainforest) Product(ctx context.Context, asin string) (*rainforest.Product, error) {
	args := m.Called(ctx, asin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rainforest.Product), args.Error(1)
}

type mockEtsy struct {
	mock.Mock
}

func (m *mockEtsy) SearchListings(ctx context.Context, keywords string, limit int) ([]etsyapi.Listing, error) {
	args := m.Called(ctx, keywords, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]etsyapi.Listing), args.Error(1)
}

func (m *mockEtsy) ListingImages(ctx context.Context, listingID int64) ([]etsyapi.ListingImage, error) {
	args := m.Called(ctx, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]etsyapi.ListingImage), args.Error(1)
}

func (m *mockEtsy) Shop(ctx context.Context, shopID int64) (*etsyapi.Shop, error) {
	args := m.Called(ctx, shopID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*etsyapi.Shop), args.Error(1)
}
