// Package reduce shrinks raw dataset payloads to the records relevant to a
// map viewport, by resolving GeoJSON feature identifiers to source table IDs
// through the state-scoped index cache. It is purely a throughput
// optimization: it only skips records that provably cannot match.
package reduce

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/housing-atlas/internal/geoid"
	"github.com/sells-group/housing-atlas/internal/match"
	"github.com/sells-group/housing-atlas/internal/statecache"
)

// defaultSampleSize bounds how many features are resolved per call, keeping
// cost flat on very large feature sets.
const defaultSampleSize = 25

// featureNameFields are probed for the loose name fallback.
var featureNameFields = []string{"NAME", "NAMELSAD", "name"}

// rowNameFields are the index-row columns the loose name fallback scans.
var rowNameFields = []string{"name", "county_name", "region", "city"}

// tableIDFields are the index-row columns holding the secondary-source
// identifier, probed in order.
var tableIDFields = []string{"table_id", "redfin_table_id", "redfin_county_table_id", "redfin_city_table_id", "primary_table_id"}

// recordIDFields are the raw-record fields a resolved ID set filters on.
var recordIDFields = []string{"table_id", "region_id", "id"}

// Option configures a Reducer.
type Option func(*Reducer)

// WithSampleSize overrides the per-call feature sample bound.
func WithSampleSize(n int) Option {
	return func(r *Reducer) {
		if n > 0 {
			r.sample = n
		}
	}
}

// Reducer filters raw records down to the IDs reachable from a viewport's
// features.
type Reducer struct {
	cache  *statecache.Cache
	sample int
}

// New creates a Reducer reading the given cache.
func New(cache *statecache.Cache, opts ...Option) *Reducer {
	r := &Reducer{cache: cache, sample: defaultSampleSize}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reduce resolves a bounded sample of features against the cached index rows
// for stateCode and returns only the raw records whose ID was resolved.
// Degraded-but-correct fallbacks, in order: cache not populated for the
// state, a level with no cached rows, or an empty resolved ID set all return
// raw unfiltered. Resolution never errors; it only widens the result.
func (r *Reducer) Reduce(stateCode string, level match.Level, features []match.GeoFeature, raw []match.Record) []match.Record {
	entry, ok := r.cache.Get(stateCode)
	if !ok {
		return raw
	}

	rows := rowsForLevel(entry, level)
	if len(rows) == 0 {
		return raw
	}

	sample := features
	if len(sample) > r.sample {
		sample = sample[:r.sample]
	}

	ids := make(map[string]struct{})
	for _, feature := range sample {
		if row, ok := resolveFeature(feature, rows, level); ok {
			for _, id := range rowTableIDs(row) {
				ids[id] = struct{}{}
			}
		}
	}
	if len(ids) == 0 {
		return raw
	}

	filtered := make([]match.Record, 0, len(raw))
	for _, rec := range raw {
		if recordInSet(rec, ids) {
			filtered = append(filtered, rec)
		}
	}

	zap.L().Debug("payload reduced",
		zap.String("state", stateCode),
		zap.String("level", string(level)),
		zap.Int("resolved_ids", len(ids)),
		zap.Int("in", len(raw)),
		zap.Int("out", len(filtered)),
	)
	return filtered
}

func rowsForLevel(entry *statecache.Entry, level match.Level) []statecache.Row {
	switch level {
	case match.LevelZip:
		return entry.Zips
	case match.LevelCounty:
		return entry.Counties
	case match.LevelTract:
		return entry.Tracts
	default:
		return nil
	}
}

// resolveFeature finds the index row for one feature via the fallback chain:
// exact identifier equality, then normalized-candidate intersection, then
// loose name containment.
func resolveFeature(feature match.GeoFeature, rows []statecache.Row, level match.Level) (statecache.Row, bool) {
	idFields := match.RuleFor(level, match.SourceCensus).FeatureFields

	var featureIDs []string
	for _, f := range idFields {
		if v, ok := feature.Field(f); ok {
			featureIDs = append(featureIDs, v)
		}
	}

	rowIDField := "county_fips"
	if level == match.LevelZip {
		rowIDField = "zipcode"
	} else if level == match.LevelTract {
		rowIDField = "GEOID"
	}

	// Pass 1: exact.
	for _, row := range rows {
		rowID, ok := row.Get(rowIDField)
		if !ok {
			continue
		}
		for _, fid := range featureIDs {
			if fid == rowID {
				return row, true
			}
		}
	}

	// Pass 2: normalized candidates.
	for _, row := range rows {
		rowID, ok := row.Get(rowIDField)
		if !ok {
			continue
		}
		for _, fid := range featureIDs {
			if normalizedEqual(level, fid, rowID) {
				return row, true
			}
		}
	}

	// Pass 3: loose name containment, tried last.
	var featureName string
	for _, f := range featureNameFields {
		if v, ok := feature.Field(f); ok {
			featureName = v
			break
		}
	}
	if featureName != "" {
		for _, row := range rows {
			for _, col := range rowNameFields {
				if rowName, ok := row.Get(col); ok && match.LooseNameMatch(featureName, rowName) {
					return row, true
				}
			}
		}
	}
	return nil, false
}

func normalizedEqual(level match.Level, featureID, rowID string) bool {
	switch level {
	case match.LevelZip:
		return geoid.NormalizeZIP(featureID) == geoid.NormalizeZIP(rowID)
	case match.LevelCounty:
		return geoid.Intersects(geoid.CountyCandidates(featureID, ""), geoid.CountyCandidates(rowID, ""))
	default:
		return strings.TrimSpace(featureID) == strings.TrimSpace(rowID)
	}
}

// rowTableIDs extracts every table-ID value carried by an index row: the
// known columns first, then any remaining *table_id* column in sorted order.
func rowTableIDs(row statecache.Row) []string {
	var out []string
	seen := make(map[string]struct{})

	add := func(col string) {
		if _, done := seen[col]; done {
			return
		}
		seen[col] = struct{}{}
		if v, ok := row.Get(col); ok {
			out = append(out, v)
		}
	}

	for _, col := range tableIDFields {
		add(col)
	}

	var extra []string
	for col := range row {
		if strings.Contains(strings.ToLower(col), "table_id") {
			extra = append(extra, col)
		}
	}
	sort.Strings(extra)
	for _, col := range extra {
		add(col)
	}
	return out
}

func recordInSet(rec match.Record, ids map[string]struct{}) bool {
	for _, f := range recordIDFields {
		if v, ok := rec.Field(f); ok {
			if _, hit := ids[v]; hit {
				return true
			}
		}
	}
	return false
}
