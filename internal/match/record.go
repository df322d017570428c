package match

import (
	"strconv"
	"strings"

	"github.com/twpayne/go-geom/encoding/geojson"
)

// Record is the uniform view the matcher takes of one raw source row or
// feature. Each data source gets its own tagged variant so call sites never
// guess field names against bare maps.
type Record interface {
	// Field returns the trimmed string form of the named field, and whether
	// the field exists with a non-empty value.
	Field(name string) (string, bool)

	// Source reports which dataset produced this record.
	Source() Source
}

// stringify renders a raw JSON/CSV cell as a trimmed string. Floats that are
// really integers (the usual JSON number decoding) keep their integer form so
// identifiers like table IDs survive the round trip.
func stringify(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		s := strings.TrimSpace(t)
		return s, s != ""
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10), true
		}
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

// CensusRow is one row of a raw census table.
type CensusRow map[string]any

func (r CensusRow) Field(name string) (string, bool) { return stringify(r[name]) }
func (r CensusRow) Source() Source                   { return SourceCensus }

// RedfinRow is one row of a raw Redfin market-data table.
type RedfinRow map[string]any

func (r RedfinRow) Field(name string) (string, bool) { return stringify(r[name]) }
func (r RedfinRow) Source() Source                   { return SourceRedfin }

// FREDRow is one observation row of a FRED series.
type FREDRow map[string]any

func (r FREDRow) Field(name string) (string, bool) { return stringify(r[name]) }
func (r FREDRow) Source() Source                   { return SourceFRED }

// GeoFeature wraps a decoded GeoJSON feature for the matcher. Properties are
// probed first; the literal name "id" falls through to the feature ID.
type GeoFeature struct {
	Feature *geojson.Feature
}

func (g GeoFeature) Field(name string) (string, bool) {
	if g.Feature == nil {
		return "", false
	}
	if v, ok := g.Feature.Properties[name]; ok {
		if s, ok := stringify(v); ok {
			return s, true
		}
	}
	if name == "id" && g.Feature.ID != "" {
		return strings.TrimSpace(g.Feature.ID), true
	}
	return "", false
}

// Source classifies GeoJSON features under the census source: polygon files
// come from TIGER/ZCTA exports and carry census-style property names.
func (g GeoFeature) Source() Source { return SourceCensus }

// RowsFor wraps a slice of decoded JSON objects in the tagged variant for the
// given source.
func RowsFor(source Source, rows []map[string]any) []Record {
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		switch source {
		case SourceRedfin:
			out = append(out, RedfinRow(row))
		case SourceFRED:
			out = append(out, FREDRow(row))
		default:
			out = append(out, CensusRow(row))
		}
	}
	return out
}
