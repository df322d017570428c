package index

import (
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/housing-atlas/internal/dataset"
	"github.com/sells-group/housing-atlas/internal/match"
)

// Index is the built location graph, keyed "<level>:<identifier>". Consumers
// use the query methods; iteration order of the underlying map carries no
// meaning.
type Index struct {
	locations map[string]*UnifiedLocation
	origin    string // dataset.OriginRemote or dataset.OriginSubstitute
}

// Key builders. County and city identifiers carry the state code because
// display names repeat across states.
func stateKey(code string) string        { return "state:" + code }
func countyKey(name, code string) string { return "county:" + name + "," + code }
func cityKey(name, code string) string   { return "city:" + name + "," + code }
func zipKey(zip string) string           { return "zip:" + zip }

// Build merges the taxonomy index with the flat geographic records into a
// unified location graph. Deterministic for fixed inputs: nodes are created
// in sorted name order per level, states first, then counties, cities, zips;
// representative records follow flat-record input order.
func Build(tax *dataset.TaxonomyIndex, flat []dataset.FlatGeoRecord) *Index {
	log := zap.L().With(zap.String("component", "index.builder"))

	ix := &Index{
		locations: make(map[string]*UnifiedLocation),
		origin:    tax.Origin,
	}

	// Auxiliary maps: O(1) zip lookup, per-state record sets in input order.
	zipMap := make(map[string]*dataset.FlatGeoRecord, len(flat))
	byState := make(map[string][]*dataset.FlatGeoRecord)
	for i := range flat {
		rec := &flat[i]
		if _, ok := zipMap[rec.Zipcode]; !ok {
			zipMap[rec.Zipcode] = rec
		}
		byState[rec.StateCode] = append(byState[rec.StateCode], rec)
	}

	for _, name := range sortedKeys(tax.States) {
		entry := tax.States[name]
		ix.addState(name, entry, byState[entry.StateCode])
	}
	for _, name := range sortedKeys(tax.Counties) {
		entry := tax.Counties[name]
		ix.addRegion(LevelCounty, name, entry, tax, byState[entry.StateCode])
	}
	for _, name := range sortedKeys(tax.Cities) {
		entry := tax.Cities[name]
		ix.addRegion(LevelCity, name, entry, tax, byState[entry.StateCode])
	}
	for _, zip := range sortedKeys(tax.ZipCodes) {
		entry := tax.ZipCodes[zip]
		ix.addZip(zip, entry, tax, zipMap)
	}

	log.Info("unified index built",
		zap.Int("locations", len(ix.locations)),
		zap.String("origin", ix.origin),
	)
	return ix
}

func (ix *Index) addState(name string, entry dataset.TaxonomyEntry, records []*dataset.FlatGeoRecord) {
	loc := &UnifiedLocation{
		Key:            stateKey(entry.StateCode),
		Level:          LevelState,
		Name:           name,
		StateCode:      entry.StateCode,
		Path:           []string{name},
		PrimaryTableID: entry.PrimaryTableID,
		PropertyTypes:  entry.PropertyTypes,
	}
	aggregate(loc, records)
	for _, county := range entry.Counties {
		loc.Children = append(loc.Children, countyKey(county, entry.StateCode))
	}
	for _, city := range entry.Cities {
		loc.Children = append(loc.Children, cityKey(city, entry.StateCode))
	}
	ix.locations[loc.Key] = loc
}

// addRegion adds a county or city node. Membership of flat records is decided
// by the loose name policy against the Redfin/census name columns, restricted
// to records in the same state.
func (ix *Index) addRegion(level Level, name string, entry dataset.TaxonomyEntry, tax *dataset.TaxonomyIndex, stateRecords []*dataset.FlatGeoRecord) {
	key := countyKey(name, entry.StateCode)
	if level == LevelCity {
		key = cityKey(name, entry.StateCode)
	}

	stateName := tax.StateNameByCode(entry.StateCode)
	path := []string{name}
	if stateName != "" {
		path = []string{stateName, name}
	}

	loc := &UnifiedLocation{
		Key:            key,
		Level:          level,
		Name:           name,
		StateCode:      entry.StateCode,
		Path:           path,
		Parent:         stateKey(entry.StateCode),
		PrimaryTableID: entry.PrimaryTableID,
		PropertyTypes:  entry.PropertyTypes,
	}

	var members []*dataset.FlatGeoRecord
	for _, rec := range stateRecords {
		if regionContains(level, name, rec) {
			members = append(members, rec)
		}
	}
	aggregate(loc, members)

	for _, zip := range entry.ZipCodes {
		loc.Children = append(loc.Children, zipKey(zip))
	}
	ix.locations[loc.Key] = loc
}

// regionContains applies the loose membership policy for county/city nodes.
// Deliberately fuzzier than the ID matcher and can over-match on nested names.
func regionContains(level Level, name string, rec *dataset.FlatGeoRecord) bool {
	if level == LevelCounty {
		return match.LooseNameMatch(name, rec.RedfinCountyName)
	}
	return match.LooseNameMatch(name, rec.RedfinCity) || match.LooseNameMatch(name, rec.CensusCity)
}

func (ix *Index) addZip(zip string, entry dataset.TaxonomyEntry, tax *dataset.TaxonomyIndex, zipMap map[string]*dataset.FlatGeoRecord) {
	stateName := tax.StateNameByCode(entry.StateCode)
	path := []string{zip}
	if stateName != "" {
		path = []string{stateName, zip}
	}

	loc := &UnifiedLocation{
		Key:            zipKey(zip),
		Level:          LevelZip,
		Name:           zip,
		Zip:            zip,
		StateCode:      entry.StateCode,
		Path:           path,
		Parent:         stateKey(entry.StateCode),
		PrimaryTableID: entry.PrimaryTableID,
		PropertyTypes:  entry.PropertyTypes,
	}

	if rec, ok := zipMap[zip]; ok {
		loc.Lat = rec.Lat
		loc.Lon = rec.Lon
		loc.Has = Availability{Census: rec.HasCensusData, Redfin: rec.HasRedfinData, Geometry: rec.HasGeometry}
		loc.LandArea = rec.LandArea
		loc.WaterArea = rec.WaterArea
		loc.MetroRegion = rec.MetroRegion
		if loc.StateCode == "" {
			loc.StateCode = rec.StateCode
		}
	}
	ix.locations[loc.Key] = loc
}

// aggregate fills an aggregate node (state/county/city) from its member
// records: representative coordinates from the first member, availability
// flags OR-ed across the set, child zips collected in input order.
func aggregate(loc *UnifiedLocation, records []*dataset.FlatGeoRecord) {
	for i, rec := range records {
		if i == 0 {
			loc.Lat = rec.Lat
			loc.Lon = rec.Lon
		}
		loc.Has = loc.Has.Or(Availability{Census: rec.HasCensusData, Redfin: rec.HasRedfinData, Geometry: rec.HasGeometry})
		loc.ZipCodes = append(loc.ZipCodes, rec.Zipcode)
	}
}

func sortedKeys(m map[string]dataset.TaxonomyEntry) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SubstituteData reports whether this index was built from the fixed
// substitute dataset instead of the remote taxonomy source.
func (ix *Index) SubstituteData() bool {
	return ix.origin == dataset.OriginSubstitute
}

// Len returns the number of locations in the index.
func (ix *Index) Len() int {
	return len(ix.locations)
}

// Get returns the location for a key.
func (ix *Index) Get(key string) (*UnifiedLocation, bool) {
	loc, ok := ix.locations[key]
	return loc, ok
}
