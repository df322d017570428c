// Package index builds and queries the unified location graph: one
// addressable entity per state, county, city, and ZIP, merged from the
// hierarchical taxonomy index and the flat per-zip geographic dataset.
package index

import "strings"

// Level is a node's geographic level in the unified hierarchy.
type Level string

// Hierarchy levels.
const (
	LevelState  Level = "state"
	LevelCounty Level = "county"
	LevelCity   Level = "city"
	LevelZip    Level = "zip"
)

// PathSeparator joins hierarchical path segments for display,
// e.g. "California > Los Angeles County".
const PathSeparator = " > "

// Availability flags which per-source data exists for a location.
type Availability struct {
	Census   bool `json:"census"`
	Redfin   bool `json:"redfin"`
	Geometry bool `json:"geometry"`
}

// Or merges another availability set into this one.
func (a Availability) Or(b Availability) Availability {
	return Availability{
		Census:   a.Census || b.Census,
		Redfin:   a.Redfin || b.Redfin,
		Geometry: a.Geometry || b.Geometry,
	}
}

// UnifiedLocation is the merged view of one taxonomy node plus its matched
// flat records. A node with no matched record still exists, with coordinates
// (0,0) and all availability flags false.
type UnifiedLocation struct {
	Key       string   `json:"key"` // "<level>:<identifier>", unique in the index
	Level     Level    `json:"level"`
	Name      string   `json:"name"`
	StateCode string   `json:"state_code"`
	Path      []string `json:"path"` // ordered ancestor names, self last

	Lat float64      `json:"lat"`
	Lon float64      `json:"lon"`
	Has Availability `json:"has"`

	PrimaryTableID int64            `json:"primary_table_id,omitempty"`
	PropertyTypes  map[string]int64 `json:"property_types,omitempty"`

	Parent   string   `json:"parent,omitempty"`   // parent key
	Children []string `json:"children,omitempty"` // child keys
	ZipCodes []string `json:"zip_codes,omitempty"`

	// Zip-only attributes from the flat record.
	Zip         string  `json:"zip,omitempty"`
	LandArea    float64 `json:"land_area,omitempty"`
	WaterArea   float64 `json:"water_area,omitempty"`
	MetroRegion string  `json:"metro_region,omitempty"`
}

// PathString renders the hierarchical path as a display label.
func (u *UnifiedLocation) PathString() string {
	return strings.Join(u.Path, PathSeparator)
}

// looksLikeZip reports whether s is all digits (a ZIP path segment).
func looksLikeZip(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ClassifyPath derives a node's level from its hierarchical path. One segment
// is a state; two segments are a zip when the node carries a ZIP code (or the
// segment is all digits), a county when the segment contains the literal
// "County", otherwise a city.
func ClassifyPath(path []string, zip string) Level {
	if len(path) <= 1 {
		return LevelState
	}
	last := path[len(path)-1]
	switch {
	case zip != "" || looksLikeZip(last):
		return LevelZip
	case strings.Contains(last, "County"):
		return LevelCounty
	default:
		return LevelCity
	}
}
