package dataset

// SubstituteTaxonomy returns the fixed three-state fallback index used when
// the taxonomy source is entirely unavailable. It keeps the dashboard
// navigable in a degraded mode; callers detect it via Origin ==
// OriginSubstitute, never by result size.
func SubstituteTaxonomy() *TaxonomyIndex {
	return &TaxonomyIndex{
		Origin: OriginSubstitute,
		States: map[string]TaxonomyEntry{
			"California": {
				StateCode:      "CA",
				PrimaryTableID: 9,
				PropertyTypes:  map[string]int64{"All Residential": 9, "Single Family Residential": 10},
				Counties:       []string{"Los Angeles County"},
				Cities:         []string{"Beverly Hills"},
			},
			"Nevada": {
				StateCode:      "NV",
				PrimaryTableID: 33,
				PropertyTypes:  map[string]int64{"All Residential": 33},
				Counties:       []string{"Washoe County"},
				Cities:         []string{"Reno"},
			},
			"Texas": {
				StateCode:      "TX",
				PrimaryTableID: 48,
				PropertyTypes:  map[string]int64{"All Residential": 48},
				Counties:       []string{"Travis County"},
				Cities:         []string{"Austin"},
			},
		},
		Counties: map[string]TaxonomyEntry{
			"Los Angeles County": {StateCode: "CA", PrimaryTableID: 1203, ZipCodes: []string{"90210"}},
			"Washoe County":      {StateCode: "NV", PrimaryTableID: 2061, ZipCodes: []string{"89501"}},
			"Travis County":      {StateCode: "TX", PrimaryTableID: 2818, ZipCodes: []string{"78701"}},
		},
		Cities: map[string]TaxonomyEntry{
			"Beverly Hills": {StateCode: "CA", PrimaryTableID: 11203, ZipCodes: []string{"90210"}},
			"Reno":          {StateCode: "NV", PrimaryTableID: 12061, ZipCodes: []string{"89501"}},
			"Austin":        {StateCode: "TX", PrimaryTableID: 12818, ZipCodes: []string{"78701"}},
		},
		ZipCodes: map[string]TaxonomyEntry{
			"90210": {StateCode: "CA", PrimaryTableID: 21203},
			"89501": {StateCode: "NV", PrimaryTableID: 22061},
			"78701": {StateCode: "TX", PrimaryTableID: 22818},
		},
	}
}
