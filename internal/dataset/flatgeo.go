package dataset

import (
	"encoding/csv"
	"io"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/sells-group/housing-atlas/internal/geoid"
)

// FlatGeoRecord is one zip-level row of the flat geographic dataset:
// coordinates, land/water area, per-source data-availability flags, and the
// Redfin naming/table-ID columns used for cross-source joins. Immutable after
// load.
type FlatGeoRecord struct {
	Zipcode             string  `csv:"zipcode"`
	StateCode           string  `csv:"state_code"`
	HasCensusData       bool    `csv:"has_census_data"`
	HasRedfinData       bool    `csv:"has_redfin_data"`
	HasGeometry         bool    `csv:"has_geometry"`
	Lat                 float64 `csv:"INTPTLAT"`
	Lon                 float64 `csv:"INTPTLON"`
	LandArea            float64 `csv:"ALAND"`
	WaterArea           float64 `csv:"AWATER"`
	RedfinCity          string  `csv:"redfin_city"`
	RedfinCountyName    string  `csv:"redfin_county_name"`
	CensusCity          string  `csv:"census_city"`
	MetroRegion         string  `csv:"metro_region"`
	RedfinCityTableID   int64   `csv:"redfin_city_table_id"`
	RedfinCountyTableID int64   `csv:"redfin_county_table_id"`
	CensusFile          string  `csv:"census_file"`
	RedfinFile          string  `csv:"redfin_file"`
	GeometryFile        string  `csv:"geometry_file"`
}

// DecodeFlatGeo parses the flat geographic CSV (header row required). ZIP
// codes are re-padded to the canonical 5-digit form on the way in, since the
// upstream export drops leading zeros.
func DecodeFlatGeo(r io.Reader) ([]FlatGeoRecord, error) {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1

	dec, err := csvutil.NewDecoder(csvr)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: read flat geo header")
	}

	var records []FlatGeoRecord
	for {
		var rec FlatGeoRecord
		if err := dec.Decode(&rec); err == io.EOF {
			break
		} else if err != nil {
			return nil, eris.Wrap(err, "dataset: decode flat geo row")
		}
		rec.Zipcode = geoid.NormalizeZIP(rec.Zipcode)
		if rec.Zipcode == "" {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
