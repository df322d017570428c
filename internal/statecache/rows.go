// Package statecache memoizes the per-state county/zip/tract index files so
// repeated logical queries for a state never re-fetch within the process
// lifetime.
package statecache

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cast"

	"github.com/sells-group/housing-atlas/internal/fetcher"
)

// Kind names one of the three per-state index files.
type Kind string

// Index file kinds.
const (
	KindCounty Kind = "county"
	KindZip    Kind = "zip"
	KindTract  Kind = "tract"
)

// Row is one flat key→value index record. Numeric-looking columns (zipcode,
// *table_id*, *fips*, GEOID) are typed int64, everything else string.
type Row map[string]any

// Get returns a field as its trimmed string form.
func (r Row) Get(name string) (string, bool) {
	v, ok := r[name]
	if !ok {
		return "", false
	}
	s := strings.TrimSpace(cast.ToString(v))
	return s, s != ""
}

// Int returns a field as int64 when it is numeric.
func (r Row) Int(name string) (int64, bool) {
	v, ok := r[name]
	if !ok {
		return 0, false
	}
	n, err := cast.ToInt64E(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// numericColumn reports whether a column holds integer identifiers.
func numericColumn(name string) bool {
	lower := strings.ToLower(name)
	return lower == "zipcode" ||
		lower == "geoid" ||
		strings.Contains(lower, "table_id") ||
		strings.Contains(lower, "fips")
}

// decodeRows parses one index CSV (header required) into typed rows.
func decodeRows(r io.Reader) ([]Row, error) {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1

	header, err := csvr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "statecache: read index header")
	}

	var rows []Row
	for {
		record, err := csvr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "statecache: read index row")
		}

		row := make(Row, len(header))
		for i, col := range header {
			if i >= len(record) {
				break
			}
			val := strings.TrimSpace(record[i])
			if val == "" {
				continue
			}
			if numericColumn(col) {
				if n, err := cast.ToInt64E(val); err == nil {
					row[col] = n
					continue
				}
			}
			row[col] = val
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// RowFetcher retrieves the rows of one per-state index file.
type RowFetcher interface {
	FetchRows(ctx context.Context, stateCode string, kind Kind) ([]Row, error)
}

// CSVRowFetcher fetches index files over the Fetcher collaborator, expanding
// a URL template with {state} and {kind} placeholders.
type CSVRowFetcher struct {
	f        fetcher.Fetcher
	template string
}

// NewCSVRowFetcher creates a CSVRowFetcher. The template must contain
// {state} and {kind}, e.g. "https://cdn.example.com/indexes/{state}/{kind}.csv".
func NewCSVRowFetcher(f fetcher.Fetcher, template string) *CSVRowFetcher {
	return &CSVRowFetcher{f: f, template: template}
}

// FetchRows downloads and decodes one index file.
func (c *CSVRowFetcher) FetchRows(ctx context.Context, stateCode string, kind Kind) ([]Row, error) {
	url := strings.NewReplacer("{state}", stateCode, "{kind}", string(kind)).Replace(c.template)

	body, err := c.f.Download(ctx, url)
	if err != nil {
		return nil, eris.Wrapf(err, "statecache: fetch %s index for %s", kind, stateCode)
	}
	defer func() { _ = body.Close() }()

	return decodeRows(body)
}
