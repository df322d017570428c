package main

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/sells-group/housing-atlas/internal/config"
	"github.com/sells-group/housing-atlas/internal/dataset"
	"github.com/sells-group/housing-atlas/internal/fetcher"
	"github.com/sells-group/housing-atlas/internal/index"
	"github.com/sells-group/housing-atlas/internal/reduce"
	"github.com/sells-group/housing-atlas/internal/statecache"
)

// newFetcher builds the production HTTP fetcher from config.
func newFetcher(cfg *config.Config) fetcher.Fetcher {
	return fetcher.NewHTTP(nil, fetcher.HTTPOptions{
		UserAgent:      cfg.Fetch.UserAgent,
		Timeout:        cfg.Fetch.Timeout,
		MaxAttempts:    cfg.Fetch.MaxAttempts,
		InitialBackoff: cfg.Fetch.InitialBackoff,
		HostRate:       rate.Limit(cfg.Fetch.HostRate),
		HostBurst:      cfg.Fetch.HostBurst,
	})
}

// newStateCache builds the state-scoped index cache. Constructed once and
// passed by reference; there is no package-level cache.
func newStateCache(cfg *config.Config, f fetcher.Fetcher) *statecache.Cache {
	return statecache.New(statecache.NewCSVRowFetcher(f, cfg.Cache.IndexURLTemplate))
}

// newReducer builds the payload reducer over a cache.
func newReducer(cfg *config.Config, cache *statecache.Cache) *reduce.Reducer {
	return reduce.New(cache, reduce.WithSampleSize(cfg.Reduce.SampleSize))
}

func sourceURLs(cfg *config.Config) dataset.SourceURLs {
	return dataset.SourceURLs{
		Taxonomy: cfg.Sources.TaxonomyURL,
		FlatGeo:  cfg.Sources.FlatGeoURL,
		Census:   cfg.Sources.CensusURL,
		FRED:     cfg.Sources.FREDURL,
		Redfin:   cfg.Sources.RedfinURL,
		GeoJSON:  cfg.Sources.GeoJSONURL,
	}
}

// buildIndex loads the taxonomy and flat geographic sources and builds the
// unified index. forceSubstitute skips the remote taxonomy entirely.
func buildIndex(ctx context.Context, cfg *config.Config, f fetcher.Fetcher, forceSubstitute bool) (*index.Index, *dataset.Bundle, *dataset.LoadReport) {
	urls := sourceURLs(cfg)
	if forceSubstitute {
		urls.Taxonomy = ""
	}

	loader := dataset.NewLoader(f, urls)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	bundle, report := loader.LoadAll(ctx)
	if forceSubstitute {
		bundle.Taxonomy = dataset.SubstituteTaxonomy()
	}
	return index.Build(bundle.Taxonomy, bundle.Flat), bundle, report
}
