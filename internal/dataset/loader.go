package dataset

import (
	"context"
	"io"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/housing-atlas/internal/fetcher"
	"github.com/sells-group/housing-atlas/internal/match"
)

// Source names used in load reports.
const (
	SourceTaxonomy = "taxonomy"
	SourceFlatGeo  = "flat_geo"
	SourceCensus   = "census"
	SourceFRED     = "fred"
	SourceRedfin   = "redfin"
	SourceGeoJSON  = "geojson"
)

// SourceURLs points the loader at each dataset. Empty URLs are skipped and
// left not-attempted in the report.
type SourceURLs struct {
	Taxonomy string
	FlatGeo  string
	Census   string
	FRED     string
	Redfin   string
	GeoJSON  string
}

// Bundle holds everything one LoadAll run produced. Sources that failed are
// present with their zero value; the report says which.
type Bundle struct {
	Taxonomy *TaxonomyIndex
	Flat     []FlatGeoRecord
	Census   []match.Record
	FRED     []match.Record
	Redfin   []match.Record
	Features []match.GeoFeature
}

// Loader fetches and decodes all source datasets.
type Loader struct {
	f    fetcher.Fetcher
	urls SourceURLs
}

// NewLoader creates a Loader over the given fetcher and source URLs.
func NewLoader(f fetcher.Fetcher, urls SourceURLs) *Loader {
	return &Loader{f: f, urls: urls}
}

// LoadAll fetches every configured source concurrently. A failure in one
// source never aborts the others; each records its own status in the report.
// If the taxonomy source fails entirely the bundle carries the fixed
// substitute index (Origin == OriginSubstitute) so navigation stays alive.
func (l *Loader) LoadAll(ctx context.Context) (*Bundle, *LoadReport) {
	log := zap.L().With(zap.String("component", "dataset.loader"))
	report := NewLoadReport(SourceTaxonomy, SourceFlatGeo, SourceCensus, SourceFRED, SourceRedfin, SourceGeoJSON)
	bundle := &Bundle{}

	g, ctx := errgroup.WithContext(ctx)

	l.loadOne(ctx, g, report, SourceTaxonomy, l.urls.Taxonomy, func(r io.Reader) (int, error) {
		idx, err := DecodeTaxonomy(r)
		if err != nil {
			return 0, err
		}
		bundle.Taxonomy = idx
		return len(idx.States) + len(idx.Counties) + len(idx.Cities) + len(idx.ZipCodes), nil
	})

	l.loadOne(ctx, g, report, SourceFlatGeo, l.urls.FlatGeo, func(r io.Reader) (int, error) {
		recs, err := DecodeFlatGeo(r)
		if err != nil {
			return 0, err
		}
		bundle.Flat = recs
		return len(recs), nil
	})

	l.loadOne(ctx, g, report, SourceCensus, l.urls.Census, func(r io.Reader) (int, error) {
		rows, err := DecodeRawRecords(match.SourceCensus, r)
		if err != nil {
			return 0, err
		}
		bundle.Census = rows
		return len(rows), nil
	})

	l.loadOne(ctx, g, report, SourceFRED, l.urls.FRED, func(r io.Reader) (int, error) {
		rows, err := DecodeRawRecords(match.SourceFRED, r)
		if err != nil {
			return 0, err
		}
		bundle.FRED = rows
		return len(rows), nil
	})

	l.loadOne(ctx, g, report, SourceRedfin, l.urls.Redfin, func(r io.Reader) (int, error) {
		rows, err := DecodeRawRecords(match.SourceRedfin, r)
		if err != nil {
			return 0, err
		}
		bundle.Redfin = rows
		return len(rows), nil
	})

	l.loadOne(ctx, g, report, SourceGeoJSON, l.urls.GeoJSON, func(r io.Reader) (int, error) {
		features, err := DecodeFeatures(r)
		if err != nil {
			return 0, err
		}
		bundle.Features = features
		return len(features), nil
	})

	// Goroutines record failures in the report instead of returning them, so
	// Wait never surfaces an error here.
	_ = g.Wait()

	if bundle.Taxonomy == nil {
		log.Warn("taxonomy source unavailable, using fixed substitute dataset")
		bundle.Taxonomy = SubstituteTaxonomy()
	}

	if report.Partial() {
		log.Warn("partial load", zap.String("run_id", report.RunID))
	}
	return bundle, report
}

// loadOne schedules a single source fetch+decode on the group. Decode
// closures write into the bundle; each source owns a distinct field, so there
// is no cross-goroutine aliasing.
func (l *Loader) loadOne(ctx context.Context, g *errgroup.Group, report *LoadReport, name, url string, decode func(io.Reader) (int, error)) {
	if url == "" {
		return
	}
	g.Go(func() error {
		started := report.begin(name)

		body, err := l.f.Download(ctx, url)
		if err != nil {
			report.finish(name, started, 0, Unavailable(name, err))
			return nil
		}
		defer func() { _ = body.Close() }()

		rows, err := decode(body)
		if err != nil {
			report.finish(name, started, 0, Unavailable(name, err))
			return nil
		}

		report.finish(name, started, rows, nil)
		zap.L().Debug("source loaded", zap.String("source", name), zap.Int("rows", rows))
		return nil
	})
}
