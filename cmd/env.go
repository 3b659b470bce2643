package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/everafter-market/ingest-cli/internal/fetcher"
	"github.com/everafter-market/ingest-cli/internal/model"
	"github.com/everafter-market/ingest-cli/internal/pipeline"
	"github.com/everafter-market/ingest-cli/internal/scraper"
	"github.com/everafter-market/ingest-cli/internal/store"
	anthropicpkg "github.com/everafter-market/ingest-cli/pkg/anthropic"
	"github.com/everafter-market/ingest-cli/pkg/etsyapi"
	"github.com/everafter-market/ingest-cli/pkg/rainforest"
)

// importEnv holds the initialized store, pipeline, and file importer
// shared by the import/serve commands.
type importEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
	Importer *scraper.ManualImporter
}

// Close releases resources held by the environment.
func (e *importEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initStore opens the configured database backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		if cfg.Store.DatabaseURL == "" {
			return nil, eris.New("store: database_url is required for the postgres driver (INGEST_STORE_DATABASE_URL)")
		}
		poolCfg := &store.PoolConfig{
			MaxConns: cfg.Store.Pool.MaxConns,
			MinConns: cfg.Store.Pool.MinConns,
		}
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, poolCfg)
	case "sqlite":
		return store.NewSQLite(cfg.Store.SQLitePath)
	default:
		return nil, eris.Errorf("store: unknown driver %q (want postgres or sqlite)", cfg.Store.Driver)
	}
}

// initEnv sets up the store, runs migrations, and builds the pipeline.
// Callers should defer env.Close().
func initEnv(ctx context.Context) (*importEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	if cfg.Anthropic.Key == "" {
		_ = st.Close()
		return nil, eris.New("anthropic key is required (INGEST_ANTHROPIC_KEY)")
	}
	categorizer := pipeline.NewAICategorizer(anthropicpkg.NewClient(cfg.Anthropic.Key), cfg.Anthropic.Model)

	p := pipeline.New(st, categorizer, pipeline.WithErrorSampleSize(cfg.Import.ErrorSampleSize))
	importer := scraper.NewManualImporter(fetchOptions(), cfg.Import.DescriptionMaxLength)

	return &importEnv{Store: st, Pipeline: p, Importer: importer}, nil
}

func fetchOptions() fetcher.Options {
	return fetcher.Options{
		Timeout:   time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		UserAgent: cfg.Fetch.UserAgent,
	}
}

// buildScraper constructs the adapter for an API-backed source.
func buildScraper(source string) (scraper.Scraper, error) {
	switch source {
	case model.SourceAmazon:
		client := rainforest.NewClient(cfg.Amazon.APIKey)
		return scraper.NewAmazonScraper(client, cfg.Amazon, cfg.Import.DescriptionMaxLength), nil
	case model.SourceEtsy:
		client := etsyapi.NewClient(cfg.Etsy.APIKey)
		return scraper.NewEtsyScraper(client, cfg.Etsy, cfg.Import.DescriptionMaxLength), nil
	default:
		return nil, eris.Errorf("unknown scrape source %q (want amazon or etsy)", source)
	}
}
