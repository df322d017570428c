package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/housing-atlas/internal/dataset"
)

func testTaxonomy() *dataset.TaxonomyIndex {
	return &dataset.TaxonomyIndex{
		Origin: dataset.OriginRemote,
		States: map[string]dataset.TaxonomyEntry{
			"California": {
				StateCode:      "CA",
				PrimaryTableID: 9,
				PropertyTypes:  map[string]int64{"All Residential": 9},
				Counties:       []string{"Los Angeles County"},
				Cities:         []string{"Beverly Hills"},
			},
			"Nevada": {
				StateCode: "NV",
				Counties:  []string{"Washoe County"},
			},
		},
		Counties: map[string]dataset.TaxonomyEntry{
			"Los Angeles County": {StateCode: "CA", PrimaryTableID: 1203, ZipCodes: []string{"90210", "90001"}},
			"Washoe County":      {StateCode: "NV", ZipCodes: []string{"89501"}},
		},
		Cities: map[string]dataset.TaxonomyEntry{
			"Beverly Hills": {StateCode: "CA", ZipCodes: []string{"90210"}},
		},
		ZipCodes: map[string]dataset.TaxonomyEntry{
			"90210": {StateCode: "CA", PrimaryTableID: 21203},
			"90001": {StateCode: "CA"},
			"89501": {StateCode: "NV"},
			"10001": {StateCode: ""}, // no flat record, no state mapping
		},
	}
}

func testFlatRecords() []dataset.FlatGeoRecord {
	return []dataset.FlatGeoRecord{
		{
			Zipcode:          "90210",
			StateCode:        "CA",
			Lat:              34.0901,
			Lon:              -118.4065,
			HasGeometry:      true,
			HasCensusData:    true,
			RedfinCountyName: "Los Angeles County",
			RedfinCity:       "Beverly Hills",
			LandArea:         14942525,
			MetroRegion:      "Los Angeles, CA",
		},
		{
			Zipcode:          "90001",
			StateCode:        "CA",
			Lat:              33.9731,
			Lon:              -118.2479,
			HasRedfinData:    true,
			RedfinCountyName: "Los Angeles County",
			RedfinCity:       "Los Angeles",
		},
		{
			Zipcode:          "89501",
			StateCode:        "NV",
			Lat:              39.5296,
			Lon:              -119.8138,
			HasCensusData:    true,
			RedfinCountyName: "Washoe County",
			RedfinCity:       "Reno",
		},
	}
}

func TestBuildZipScenario(t *testing.T) {
	ix := Build(testTaxonomy(), testFlatRecords())

	loc, ok := ix.ByZip("90210")
	require.True(t, ok)
	assert.Equal(t, "zip:90210", loc.Key)
	assert.Equal(t, LevelZip, loc.Level)
	assert.Equal(t, "California > 90210", loc.PathString())
	assert.InDelta(t, 34.0901, loc.Lat, 1e-9)
	assert.InDelta(t, -118.4065, loc.Lon, 1e-9)
	assert.True(t, loc.Has.Geometry)
	assert.True(t, loc.Has.Census)
	assert.False(t, loc.Has.Redfin)
	assert.Equal(t, int64(21203), loc.PrimaryTableID)
}

func TestBuildZipWithoutFlatRecord(t *testing.T) {
	ix := Build(testTaxonomy(), testFlatRecords())

	loc, ok := ix.ByZip("10001")
	require.True(t, ok)
	assert.Zero(t, loc.Lat)
	assert.Zero(t, loc.Lon)
	assert.Equal(t, Availability{}, loc.Has)
	// No state mapping: path is just the zip itself.
	assert.Equal(t, "10001", loc.PathString())
}

func TestBuildStateAggregation(t *testing.T) {
	ix := Build(testTaxonomy(), testFlatRecords())

	loc, ok := ix.Get("state:CA")
	require.True(t, ok)
	assert.Equal(t, LevelState, loc.Level)
	assert.Equal(t, "California", loc.PathString())
	// Representative coordinates come from the first CA record.
	assert.InDelta(t, 34.0901, loc.Lat, 1e-9)
	// Availability flags OR across the member set.
	assert.True(t, loc.Has.Census)
	assert.True(t, loc.Has.Redfin)
	assert.True(t, loc.Has.Geometry)
	assert.Equal(t, []string{"90210", "90001"}, loc.ZipCodes)
	assert.Contains(t, loc.Children, "county:Los Angeles County,CA")
	assert.Contains(t, loc.Children, "city:Beverly Hills,CA")
}

func TestBuildCountyLooseMembership(t *testing.T) {
	ix := Build(testTaxonomy(), testFlatRecords())

	loc, ok := ix.Get("county:Los Angeles County,CA")
	require.True(t, ok)
	assert.Equal(t, LevelCounty, loc.Level)
	assert.Equal(t, "California > Los Angeles County", loc.PathString())
	assert.Equal(t, []string{"90210", "90001"}, loc.ZipCodes)
	assert.Equal(t, "state:CA", loc.Parent)

	// Washoe county must not pick up CA records.
	washoe, ok := ix.Get("county:Washoe County,NV")
	require.True(t, ok)
	assert.Equal(t, []string{"89501"}, washoe.ZipCodes)
}

func TestBuildCityMembership(t *testing.T) {
	ix := Build(testTaxonomy(), testFlatRecords())

	loc, ok := ix.Get("city:Beverly Hills,CA")
	require.True(t, ok)
	assert.Equal(t, LevelCity, loc.Level)
	assert.Equal(t, []string{"90210"}, loc.ZipCodes)
	assert.True(t, loc.Has.Geometry)
}

func TestBuildDeterminism(t *testing.T) {
	a := Build(testTaxonomy(), testFlatRecords())
	b := Build(testTaxonomy(), testFlatRecords())

	require.Equal(t, a.Len(), b.Len())
	for key, loc := range a.locations {
		other, ok := b.locations[key]
		require.True(t, ok, "key %s missing on rebuild", key)
		assert.Equal(t, loc, other)
	}
}

func TestBuildSubstituteFlag(t *testing.T) {
	ix := Build(dataset.SubstituteTaxonomy(), nil)
	assert.True(t, ix.SubstituteData())
	assert.NotZero(t, ix.Len())

	ix = Build(testTaxonomy(), testFlatRecords())
	assert.False(t, ix.SubstituteData())
}

func TestClassifyPath(t *testing.T) {
	tests := []struct {
		name     string
		path     []string
		zip      string
		expected Level
	}{
		{"single segment is a state", []string{"California"}, "", LevelState},
		{"county segment", []string{"California", "Los Angeles County"}, "", LevelCounty},
		{"zip via zip code set", []string{"California", "90210"}, "90210", LevelZip},
		{"zip via digits-only segment", []string{"California", "90210"}, "", LevelZip},
		{"city otherwise", []string{"California", "Beverly Hills"}, "", LevelCity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyPath(tt.path, tt.zip))
		})
	}
}
