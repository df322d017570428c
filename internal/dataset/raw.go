package dataset

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/housing-atlas/internal/match"
)

// DecodeFeatures parses a GeoJSON FeatureCollection into matcher-ready
// features.
func DecodeFeatures(r io.Reader) ([]match.GeoFeature, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: read geojson")
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(raw, &fc); err != nil {
		return nil, eris.Wrap(err, "dataset: decode feature collection")
	}

	features := make([]match.GeoFeature, 0, len(fc.Features))
	for _, f := range fc.Features {
		features = append(features, match.GeoFeature{Feature: f})
	}
	return features, nil
}

// rawEnvelope covers the document shapes the raw sources produce: a bare
// array, a census-style {"data": [...]}, or a FRED-style
// {"observations": [...]}.
type rawEnvelope struct {
	Data         []map[string]any `json:"data"`
	Observations []map[string]any `json:"observations"`
	Rows         []map[string]any `json:"rows"`
}

// DecodeRawRecords parses an arbitrary raw dataset document into tagged
// records for the given source. The document must be a JSON array of objects
// or an envelope object wrapping one.
func DecodeRawRecords(source match.Source, r io.Reader) ([]match.Record, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: read %s document", source)
	}

	var rows []map[string]any
	if err := json.Unmarshal(raw, &rows); err != nil {
		var env rawEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, eris.Wrapf(err, "dataset: decode %s document", source)
		}
		switch {
		case env.Data != nil:
			rows = env.Data
		case env.Observations != nil:
			rows = env.Observations
		case env.Rows != nil:
			rows = env.Rows
		default:
			return nil, eris.Errorf("dataset: %s document has no recognizable record array", source)
		}
	}

	return match.RowsFor(source, rows), nil
}
