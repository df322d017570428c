package match

import (
	"strings"

	"github.com/sells-group/housing-atlas/internal/geoid"
)

// Result carries the outcome of a Match call. The matched record is returned
// here rather than written back onto the feature, so annotation is an explicit
// output of the caller's choosing.
type Result struct {
	Record    Record
	FeatureID string // the feature-side identifier that produced the match
	DataField string // the data-side field it matched against
}

// Match finds the first candidate record joinable to feature under the rule
// table entry for (level, source). At most one record is returned; the scan is
// first-match-wins in candidate order, with no scoring between ties.
//
// County-level comparison widens both sides through geoid.CountyCandidates so
// FIPS width mismatches (037 vs 06037 vs 6037) still join. Tract-level GEOIDs
// are already canonical and compare by trimmed equality, as do all other
// levels. An unknown (level, source) pair has an empty rule and matches
// nothing; that is a no-match outcome, not an error.
func Match(feature Record, candidates []Record, level Level, source Source) (Result, bool) {
	rule := RuleFor(level, source)
	if rule.Empty() {
		return Result{}, false
	}

	// Collect every non-empty feature-side identifier up front. No
	// identifiers means no candidate scan at all.
	type featureID struct {
		value      string
		candidates []string // county level only
	}
	var ids []featureID

	stateFIPS := ""
	if level == LevelCounty {
		for _, f := range stateFIPSFields {
			if v, ok := feature.Field(f); ok {
				stateFIPS = v
				break
			}
		}
	}

	for _, f := range rule.FeatureFields {
		v, ok := feature.Field(f)
		if !ok {
			continue
		}
		id := featureID{value: v}
		if level == LevelCounty {
			id.candidates = geoid.CountyCandidates(v, stateFIPS)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return Result{}, false
	}

	for _, cand := range candidates {
		for _, id := range ids {
			for _, df := range rule.DataFields {
				dv, ok := cand.Field(df)
				if !ok {
					continue
				}
				if equalForLevel(level, id.value, id.candidates, dv, stateFIPS) {
					return Result{Record: cand, FeatureID: id.value, DataField: df}, true
				}
			}
		}
	}
	return Result{}, false
}

// equalForLevel applies the per-level comparison policy.
func equalForLevel(level Level, featureVal string, featureCands []string, dataVal, stateFIPS string) bool {
	switch level {
	case LevelCounty:
		return geoid.Intersects(featureCands, geoid.CountyCandidates(dataVal, stateFIPS))
	default:
		// Tract GEOIDs and everything else: trimmed string equality.
		return strings.TrimSpace(featureVal) == strings.TrimSpace(dataVal)
	}
}
