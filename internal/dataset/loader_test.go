package dataset

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher serves canned bodies by URL and counts downloads.
type fakeFetcher struct {
	mu     sync.Mutex
	bodies map[string]string
	fail   map[string]bool
	calls  map[string]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		bodies: make(map[string]string),
		fail:   make(map[string]bool),
		calls:  make(map[string]int),
	}
}

func (f *fakeFetcher) Download(_ context.Context, url string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[url]++
	if f.fail[url] {
		return nil, eris.New("connection refused")
	}
	body, ok := f.bodies[url]
	if !ok {
		return nil, eris.Errorf("no fixture for %s", url)
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

const (
	taxonomyDoc = `{"states": {"Nevada": {"state_code": "NV"}}, "counties": {}, "cities": {}, "zip_codes": {}}`
	flatGeoDoc  = "zipcode,state_code,has_census_data\n89501,NV,true\n"
	censusDoc   = `[{"zipcode": "89501"}]`
	fredDoc     = `{"observations": [{"series_id": "NVSTHPI"}]}`
	redfinDoc   = `[{"table_id": 2061}]`
	geojsonDoc  = `{"type": "FeatureCollection", "features": []}`
)

func allURLs() SourceURLs {
	return SourceURLs{
		Taxonomy: "https://cdn/taxonomy.json",
		FlatGeo:  "https://cdn/flat.csv",
		Census:   "https://cdn/census.json",
		FRED:     "https://cdn/fred.json",
		Redfin:   "https://cdn/redfin.json",
		GeoJSON:  "https://cdn/shapes.geojson",
	}
}

func healthyFetcher() *fakeFetcher {
	f := newFakeFetcher()
	f.bodies["https://cdn/taxonomy.json"] = taxonomyDoc
	f.bodies["https://cdn/flat.csv"] = flatGeoDoc
	f.bodies["https://cdn/census.json"] = censusDoc
	f.bodies["https://cdn/fred.json"] = fredDoc
	f.bodies["https://cdn/redfin.json"] = redfinDoc
	f.bodies["https://cdn/shapes.geojson"] = geojsonDoc
	return f
}

func TestLoadAllSuccess(t *testing.T) {
	loader := NewLoader(healthyFetcher(), allURLs())
	bundle, report := loader.LoadAll(context.Background())

	require.NotNil(t, bundle.Taxonomy)
	assert.Equal(t, OriginRemote, bundle.Taxonomy.Origin)
	assert.Len(t, bundle.Flat, 1)
	assert.Len(t, bundle.Census, 1)
	assert.Len(t, bundle.FRED, 1)
	assert.Len(t, bundle.Redfin, 1)
	assert.Empty(t, bundle.Features)

	assert.NotEmpty(t, report.RunID)
	assert.False(t, report.Partial())
	assert.False(t, report.AllFailed())
	for _, name := range []string{SourceTaxonomy, SourceFlatGeo, SourceCensus, SourceFRED, SourceRedfin, SourceGeoJSON} {
		assert.Equal(t, StatusSuccess, report.Sources[name].Status, name)
	}
}

func TestLoadAllSingleFailureDoesNotAbortSiblings(t *testing.T) {
	f := healthyFetcher()
	f.fail["https://cdn/redfin.json"] = true

	bundle, report := NewLoader(f, allURLs()).LoadAll(context.Background())

	assert.Empty(t, bundle.Redfin)
	assert.Len(t, bundle.Census, 1)
	assert.Equal(t, StatusFailed, report.Sources[SourceRedfin].Status)
	assert.True(t, IsSourceUnavailable(report.Sources[SourceRedfin].Err))
	assert.Equal(t, StatusSuccess, report.Sources[SourceCensus].Status)
	assert.True(t, report.Partial())
}

func TestLoadAllTaxonomyFailureFallsBackToSubstitute(t *testing.T) {
	f := healthyFetcher()
	f.fail["https://cdn/taxonomy.json"] = true

	bundle, report := NewLoader(f, allURLs()).LoadAll(context.Background())

	require.NotNil(t, bundle.Taxonomy)
	assert.Equal(t, OriginSubstitute, bundle.Taxonomy.Origin)
	assert.Equal(t, StatusFailed, report.Sources[SourceTaxonomy].Status)
}

func TestLoadAllSkipsEmptyURLs(t *testing.T) {
	f := healthyFetcher()
	urls := allURLs()
	urls.FRED = ""

	_, report := NewLoader(f, urls).LoadAll(context.Background())

	assert.Equal(t, StatusNotAttempted, report.Sources[SourceFRED].Status)
	assert.Zero(t, f.calls["https://cdn/fred.json"])
}

func TestLoadAllDecodeFailureIsSourceFailure(t *testing.T) {
	f := healthyFetcher()
	f.bodies["https://cdn/census.json"] = "<html>offline</html>"

	bundle, report := NewLoader(f, allURLs()).LoadAll(context.Background())

	assert.Empty(t, bundle.Census)
	assert.Equal(t, StatusFailed, report.Sources[SourceCensus].Status)
}

func TestReportAllFailed(t *testing.T) {
	f := newFakeFetcher()
	for _, url := range []string{
		"https://cdn/taxonomy.json", "https://cdn/flat.csv", "https://cdn/census.json",
		"https://cdn/fred.json", "https://cdn/redfin.json", "https://cdn/shapes.geojson",
	} {
		f.fail[url] = true
	}

	bundle, report := NewLoader(f, allURLs()).LoadAll(context.Background())

	assert.True(t, report.AllFailed())
	assert.False(t, report.Partial())
	// Even with everything down, navigation stays alive on the substitute.
	require.NotNil(t, bundle.Taxonomy)
	assert.Equal(t, OriginSubstitute, bundle.Taxonomy.Origin)
}
