package match

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Loose name matching is the deliberately fuzzy policy used for hierarchical
// taxonomy joins (county and city membership), where the only shared key is a
// display name. It is lossy by construction: substring containment can
// over-match when one place name contains another. Callers that need the
// strict policy use Match instead.

// stripMarks removes combining diacritical marks so "Doña Ana" and
// "Dona Ana" fold to the same name.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var caseFold = cases.Fold()

// FoldName canonicalizes a place name for loose comparison: case-folded,
// diacritics stripped, whitespace trimmed.
func FoldName(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}
	return strings.TrimSpace(caseFold.String(folded))
}

// firstSegment returns the text before the first comma, trimmed. Taxonomy
// names arrive as "Los Angeles County, CA"; only the leading segment is the
// place name.
func firstSegment(s string) string {
	if i := strings.IndexByte(s, ','); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// LooseNameMatch reports whether the first comma-delimited segment of the
// taxonomy name is contained, case- and diacritic-insensitively, in the
// record-side name.
func LooseNameMatch(taxonomyName, recordName string) bool {
	needle := FoldName(firstSegment(taxonomyName))
	if needle == "" {
		return false
	}
	return strings.Contains(FoldName(recordName), needle)
}

// LooseConfidence grades a loose match for future tightening: 1.0 for a full
// folded-name equality, 0.6 for substring containment, 0 for no match.
func LooseConfidence(taxonomyName, recordName string) float64 {
	needle := FoldName(firstSegment(taxonomyName))
	if needle == "" {
		return 0
	}
	haystack := FoldName(recordName)
	switch {
	case needle == haystack:
		return 1.0
	case strings.Contains(haystack, needle):
		return 0.6
	default:
		return 0
	}
}
