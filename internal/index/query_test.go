package index

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/housing-atlas/internal/dataset"
)

func builtIndex(t *testing.T) *Index {
	t.Helper()
	return Build(testTaxonomy(), testFlatRecords())
}

func TestStates(t *testing.T) {
	states := builtIndex(t).States()
	require.Len(t, states, 2)
	// Sorted by key: state:CA before state:NV.
	assert.Equal(t, "California", states[0].Name)
	assert.Equal(t, "Nevada", states[1].Name)
}

func TestCountiesIn(t *testing.T) {
	ix := builtIndex(t)
	counties := ix.CountiesIn("CA")
	require.Len(t, counties, 1)
	assert.Equal(t, "Los Angeles County", counties[0].Name)

	assert.Empty(t, ix.CountiesIn("ZZ"))
}

func TestCitiesAndZipsIn(t *testing.T) {
	ix := builtIndex(t)
	assert.Len(t, ix.CitiesIn("CA"), 1)
	assert.Len(t, ix.ZipsIn("CA"), 2)
	assert.Len(t, ix.ZipsIn("NV"), 1)
}

func TestSearch(t *testing.T) {
	ix := builtIndex(t)

	hits := ix.Search("los angeles")
	require.NotEmpty(t, hits)
	assert.Equal(t, "county:Los Angeles County,CA", hits[0].Key)

	assert.Empty(t, ix.Search(""))
	assert.Empty(t, ix.Search("atlantis"))
}

func TestSearchCap(t *testing.T) {
	tax := &dataset.TaxonomyIndex{
		Origin:   dataset.OriginRemote,
		States:   map[string]dataset.TaxonomyEntry{"California": {StateCode: "CA"}},
		ZipCodes: map[string]dataset.TaxonomyEntry{},
	}
	for i := 0; i < 80; i++ {
		tax.ZipCodes[fmt.Sprintf("90%03d", i)] = dataset.TaxonomyEntry{StateCode: "CA"}
	}

	hits := Build(tax, nil).Search("california")
	assert.Len(t, hits, 50)
}

func TestNear(t *testing.T) {
	ix := builtIndex(t)

	// Close to Beverly Hills. The city, county, state, and zip nodes all
	// carry the same representative coordinates, so they tie on distance and
	// order by key; 90001 is farther but within a degree, Reno is not.
	hits := ix.Near(34.09, -118.40, 1.0)
	require.Len(t, hits, 5)
	assert.Equal(t, "city:Beverly Hills,CA", hits[0].Key)
	assert.Equal(t, "zip:90001", hits[4].Key)
	for _, h := range hits {
		assert.NotEqual(t, "zip:89501", h.Key)
	}
}

func TestNearSkipsZeroCoordinates(t *testing.T) {
	ix := builtIndex(t)

	// zip:10001 has default (0,0) coordinates and must not appear for a
	// query far from the origin.
	for _, h := range ix.Near(34.0, -118.0, 5.0) {
		assert.NotEqual(t, "zip:10001", h.Key)
	}
}

func TestNearNearestFirst(t *testing.T) {
	ix := builtIndex(t)

	hits := ix.Near(33.97, -118.25, 2.0)
	require.True(t, len(hits) >= 2)
	assert.Equal(t, "zip:90001", hits[0].Key)
}

func TestStats(t *testing.T) {
	s := builtIndex(t).Stats()

	assert.Equal(t, 2, s.ByLevel[LevelState])
	assert.Equal(t, 2, s.ByLevel[LevelCounty])
	assert.Equal(t, 1, s.ByLevel[LevelCity])
	assert.Equal(t, 4, s.ByLevel[LevelZip])
	assert.Equal(t, s.Total, s.ByLevel[LevelState]+s.ByLevel[LevelCounty]+s.ByLevel[LevelCity]+s.ByLevel[LevelZip])
	assert.False(t, s.Substitute)
	assert.Positive(t, s.WithCensus)
}
