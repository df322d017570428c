// Package match joins GeoJSON features and taxonomy entries against raw
// source records (census, Redfin, FRED) using a static per-level, per-source
// rule table plus identifier normalization fallbacks.
package match

import "github.com/rotisserie/eris"

// Level is a geographic aggregation level.
type Level string

// Geographic levels the rule table knows about.
const (
	LevelState  Level = "state"
	LevelCounty Level = "county"
	LevelZip    Level = "zip"
	LevelTract  Level = "tract"
)

// ParseLevel converts a string into a Level.
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case LevelState, LevelCounty, LevelZip, LevelTract:
		return Level(s), nil
	default:
		return "", eris.Errorf("match: unknown geographic level %q (valid: state, county, zip, tract)", s)
	}
}

// Source identifies a raw dataset producer.
type Source string

// Raw data sources.
const (
	SourceCensus Source = "census"
	SourceRedfin Source = "redfin"
	SourceFRED   Source = "fred"
)

// ParseSource converts a string into a Source.
func ParseSource(s string) (Source, error) {
	switch Source(s) {
	case SourceCensus, SourceRedfin, SourceFRED:
		return Source(s), nil
	default:
		return "", eris.Errorf("match: unknown data source %q (valid: census, redfin, fred)", s)
	}
}

// Rule lists the ordered candidate identifier fields on each side of a join
// for one (level, source) pair. FeatureFields are probed on the GeoJSON or
// taxonomy side, DataFields on the raw record side. Both lists are tried in
// order; earlier fields are preferred.
type Rule struct {
	FeatureFields []string
	DataFields    []string
}

// Empty reports whether the rule carries no fields and therefore can never match.
func (r Rule) Empty() bool {
	return len(r.FeatureFields) == 0 || len(r.DataFields) == 0
}

type ruleKey struct {
	level  Level
	source Source
}

// ruleTable maps (level, source) to its join rule. Four levels by three
// sources; combinations absent from the table yield the empty rule and
// therefore no matches.
var ruleTable = map[ruleKey]Rule{
	{LevelState, SourceCensus}: {
		FeatureFields: []string{"STATEFP", "STUSPS", "state_code"},
		DataFields:    []string{"state", "state_code", "NAME"},
	},
	{LevelState, SourceRedfin}: {
		FeatureFields: []string{"STUSPS", "state_code", "STATEFP"},
		DataFields:    []string{"state_code", "state", "region"},
	},
	{LevelState, SourceFRED}: {
		FeatureFields: []string{"STUSPS", "state_code"},
		DataFields:    []string{"state_code", "series_prefix"},
	},
	{LevelCounty, SourceCensus}: {
		FeatureFields: []string{"GEOID", "COUNTYFP", "county_fips"},
		DataFields:    []string{"county_fips", "county", "GEOID"},
	},
	{LevelCounty, SourceRedfin}: {
		FeatureFields: []string{"GEOID", "COUNTYFP", "county_fips", "NAME"},
		DataFields:    []string{"table_id", "county_fips", "region"},
	},
	{LevelCounty, SourceFRED}: {
		FeatureFields: []string{"GEOID", "county_fips"},
		DataFields:    []string{"county_fips", "series_id"},
	},
	{LevelZip, SourceCensus}: {
		FeatureFields: []string{"ZCTA5CE10", "ZCTA5CE20", "GEOID10", "zipcode"},
		DataFields:    []string{"zip code tabulation area", "zipcode", "NAME"},
	},
	{LevelZip, SourceRedfin}: {
		FeatureFields: []string{"ZCTA5CE10", "ZCTA5CE20", "zipcode"},
		DataFields:    []string{"zipcode", "region", "table_id"},
	},
	{LevelZip, SourceFRED}: {
		FeatureFields: []string{"ZCTA5CE10", "zipcode"},
		DataFields:    []string{"zipcode", "series_id"},
	},
	{LevelTract, SourceCensus}: {
		FeatureFields: []string{"GEOID", "GEOID10", "TRACTCE"},
		DataFields:    []string{"GEOID", "tract", "geoid"},
	},
	{LevelTract, SourceRedfin}: {
		FeatureFields: []string{"GEOID", "TRACTCE"},
		DataFields:    []string{"GEOID", "table_id"},
	},
	{LevelTract, SourceFRED}: {
		FeatureFields: []string{"GEOID"},
		DataFields:    []string{"GEOID", "series_id"},
	},
}

// stateFIPSFields are probed on the feature side to recover the state FIPS
// prefix used when widening county-only FIPS codes.
var stateFIPSFields = []string{"STATEFP", "STATEFP10", "STATEFP20", "state_fips"}

// RuleFor returns the join rule for a (level, source) pair. Unknown pairs
// return the empty rule, which matches nothing; that is a valid outcome, not
// an error.
func RuleFor(level Level, source Source) Rule {
	return ruleTable[ruleKey{level, source}]
}
