// Package dataset loads and decodes the source datasets the location engine
// reconciles: the hierarchical taxonomy index, the flat per-zip geographic
// table, raw census/FRED/Redfin documents, and GeoJSON polygon features.
package dataset

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
)

// Taxonomy origins.
const (
	OriginRemote     = "remote"
	OriginSubstitute = "substitute"
)

// TaxonomyEntry is one node of the hierarchical master index. The same shape
// serves all four levels; the child-name slices are populated only where the
// level has children.
type TaxonomyEntry struct {
	StateCode      string           `json:"state_code"`
	PropertyTypes  map[string]int64 `json:"property_types,omitempty"`
	PrimaryTableID int64            `json:"primary_table_id,omitempty"`
	Counties       []string         `json:"counties,omitempty"`
	Cities         []string         `json:"cities,omitempty"`
	ZipCodes       []string         `json:"zip_codes,omitempty"`
}

// TaxonomyIndex is the decoded master index, keyed by display name (states,
// counties, cities) or ZIP code. Immutable after load.
type TaxonomyIndex struct {
	States   map[string]TaxonomyEntry `json:"states"`
	Counties map[string]TaxonomyEntry `json:"counties"`
	Cities   map[string]TaxonomyEntry `json:"cities"`
	ZipCodes map[string]TaxonomyEntry `json:"zip_codes"`

	// Origin records where the index came from, so callers can detect the
	// fixed substitute dataset explicitly instead of guessing from size.
	Origin string `json:"-"`
}

// DecodeTaxonomy parses the taxonomy index JSON document.
func DecodeTaxonomy(r io.Reader) (*TaxonomyIndex, error) {
	var idx TaxonomyIndex
	if err := json.NewDecoder(r).Decode(&idx); err != nil {
		return nil, eris.Wrap(err, "dataset: decode taxonomy index")
	}
	idx.Origin = OriginRemote
	return &idx, nil
}

// StateNameByCode reverse-looks-up a state's display name from its two-letter
// code. Returns the empty string for unknown codes.
func (t *TaxonomyIndex) StateNameByCode(code string) string {
	for name, entry := range t.States {
		if entry.StateCode == code {
			return name
		}
	}
	return ""
}
