package reduce

import "github.com/sells-group/housing-atlas/internal/match"

// essentialColumns is the fixed per-source allow-list applied before records
// leave the process. Identifier columns stay so downstream joins keep
// working; everything else is display data the dashboard actually charts.
var essentialColumns = map[match.Source][]string{
	match.SourceCensus: {
		"zipcode", "geoid", "state_code", "name",
		"population", "median_household_income", "median_age",
		"housing_units", "occupied_housing_units",
	},
	match.SourceRedfin: {
		"zipcode", "region", "table_id", "state_code",
		"period_begin", "period_end", "property_type",
		"median_sale_price", "median_list_price",
		"homes_sold", "inventory", "median_dom",
	},
	match.SourceFRED: {
		"series_id", "region", "table_id",
		"date", "value", "units",
	},
}

// EssentialColumns returns the column allow-list for a source. The returned
// slice is shared; callers must not modify it.
func EssentialColumns(source match.Source) []string {
	return essentialColumns[source]
}

// ProjectEssential shrinks map-backed records to their source's essential
// columns. Absent columns are simply omitted. Feature records and sources
// without an allow-list pass through untouched.
func ProjectEssential(records []match.Record) []match.Record {
	out := make([]match.Record, 0, len(records))
	for _, rec := range records {
		switch row := rec.(type) {
		case match.CensusRow:
			out = append(out, match.CensusRow(projectRow(row, rec.Source())))
		case match.RedfinRow:
			out = append(out, match.RedfinRow(projectRow(row, rec.Source())))
		case match.FREDRow:
			out = append(out, match.FREDRow(projectRow(row, rec.Source())))
		default:
			out = append(out, rec)
		}
	}
	return out
}

func projectRow(row map[string]any, source match.Source) map[string]any {
	cols := essentialColumns[source]
	if len(cols) == 0 {
		return row
	}
	slim := make(map[string]any, len(cols))
	for _, col := range cols {
		if v, ok := row[col]; ok {
			slim[col] = v
		}
	}
	return slim
}
