package index

import (
	"math"
	"sort"
	"strings"
)

// maxResults caps Search and Near result sets.
const maxResults = 50

// byLevel returns all locations at a level, sorted by key for deterministic
// output.
func (ix *Index) byLevel(level Level) []*UnifiedLocation {
	var out []*UnifiedLocation
	for _, loc := range ix.locations {
		if loc.Level == level {
			out = append(out, loc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// States lists every state node.
func (ix *Index) States() []*UnifiedLocation {
	return ix.byLevel(LevelState)
}

// CountiesIn lists the county nodes for a state code.
func (ix *Index) CountiesIn(stateCode string) []*UnifiedLocation {
	return ix.inState(LevelCounty, stateCode)
}

// CitiesIn lists the city nodes for a state code.
func (ix *Index) CitiesIn(stateCode string) []*UnifiedLocation {
	return ix.inState(LevelCity, stateCode)
}

// ZipsIn lists the zip nodes for a state code.
func (ix *Index) ZipsIn(stateCode string) []*UnifiedLocation {
	return ix.inState(LevelZip, stateCode)
}

func (ix *Index) inState(level Level, stateCode string) []*UnifiedLocation {
	var out []*UnifiedLocation
	for _, loc := range ix.byLevel(level) {
		if loc.StateCode == stateCode {
			out = append(out, loc)
		}
	}
	return out
}

// ByZip looks up the single zip node for a (normalized) ZIP code.
func (ix *Index) ByZip(zip string) (*UnifiedLocation, bool) {
	return ix.Get(zipKey(zip))
}

// Search finds locations whose hierarchical path contains the query,
// case-insensitively. Results are sorted by key and capped at 50.
func (ix *Index) Search(query string) []*UnifiedLocation {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var out []*UnifiedLocation
	for _, loc := range ix.locations {
		if strings.Contains(strings.ToLower(loc.PathString()), q) {
			out = append(out, loc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	if len(out) > maxResults {
		out = out[:maxResults]
	}
	return out
}

// Near finds locations within a bounding box of ±tolerance degrees around
// (lat, lon), nearest first, capped at 50. Locations without coordinates
// (the (0,0) default) are skipped unless the query point is itself near the
// origin.
func (ix *Index) Near(lat, lon, tolerance float64) []*UnifiedLocation {
	if tolerance <= 0 {
		tolerance = 0.5
	}

	type scored struct {
		loc  *UnifiedLocation
		dist float64
	}
	var hits []scored
	for _, loc := range ix.locations {
		if loc.Lat == 0 && loc.Lon == 0 && (math.Abs(lat) > tolerance || math.Abs(lon) > tolerance) {
			continue
		}
		dLat := loc.Lat - lat
		dLon := loc.Lon - lon
		if math.Abs(dLat) > tolerance || math.Abs(dLon) > tolerance {
			continue
		}
		hits = append(hits, scored{loc: loc, dist: dLat*dLat + dLon*dLon})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return hits[i].loc.Key < hits[j].loc.Key
	})

	out := make([]*UnifiedLocation, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.loc)
		if len(out) == maxResults {
			break
		}
	}
	return out
}

// Stats summarizes the index for observability endpoints.
type Stats struct {
	Total        int            `json:"total"`
	ByLevel      map[Level]int  `json:"by_level"`
	ByState      map[string]int `json:"by_state"`
	WithCensus   int            `json:"with_census"`
	WithRedfin   int            `json:"with_redfin"`
	WithGeometry int            `json:"with_geometry"`
	Substitute   bool           `json:"substitute"`
}

// Stats computes counts by level, state, and data availability.
func (ix *Index) Stats() Stats {
	s := Stats{
		Total:      len(ix.locations),
		ByLevel:    make(map[Level]int),
		ByState:    make(map[string]int),
		Substitute: ix.SubstituteData(),
	}
	for _, loc := range ix.locations {
		s.ByLevel[loc.Level]++
		if loc.StateCode != "" {
			s.ByState[loc.StateCode]++
		}
		if loc.Has.Census {
			s.WithCensus++
		}
		if loc.Has.Redfin {
			s.WithRedfin++
		}
		if loc.Has.Geometry {
			s.WithGeometry++
		}
	}
	return s
}
