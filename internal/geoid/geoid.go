// Package geoid normalizes geographic identifiers (ZIP codes, county and
// state FIPS codes) into canonical candidate sets for cross-dataset matching.
package geoid

import "strings"

// digitsOnly strips every non-digit rune from s.
func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// leftPad pads s with leading zeros to width n. Strings already at or past
// the width are returned unchanged.
func leftPad(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return strings.Repeat("0", n-len(s)) + s
}

// appendUnique appends v to out unless it is already present, preserving order.
func appendUnique(out []string, v string) []string {
	for _, existing := range out {
		if existing == v {
			return out
		}
	}
	return append(out, v)
}

// ZIPCandidates returns the canonical candidate forms of a raw ZIP code:
// the digit-stripped input left-padded to 5 digits, plus the unpadded digits
// when they differ. Returns nil for input with no digits.
func ZIPCandidates(raw string) []string {
	digits := digitsOnly(raw)
	if digits == "" {
		return nil
	}
	var out []string
	out = appendUnique(out, leftPad(digits, 5))
	out = appendUnique(out, digits)
	return out
}

// NormalizeZIP returns the single canonical 5-digit form of a raw ZIP code,
// or the empty string for input with no digits.
func NormalizeZIP(raw string) string {
	digits := digitsOnly(raw)
	if digits == "" {
		return ""
	}
	return leftPad(digits, 5)
}

// CountyCandidates returns every equivalent textual form of a raw county
// identifier, widened across the FIPS encodings the source datasets use:
//
//   - 5 digits: full state+county FIPS; also emit the trailing 3 digits.
//   - 3 digits: county-only FIPS; also emit the 5-digit form prefixed with
//     stateFIPS when a state code is supplied.
//   - 4 digits: also emit the 5-digit zero-padded form.
//
// Shorter inputs are zero-padded to 3 digits and then widened the same way.
// The raw digit string itself is always included. Returns nil when the input
// carries no digits.
func CountyCandidates(raw, stateFIPS string) []string {
	digits := digitsOnly(raw)
	if digits == "" {
		return nil
	}

	var out []string
	out = appendUnique(out, digits)

	switch {
	case len(digits) >= 5:
		out = appendUnique(out, digits[len(digits)-3:])
	case len(digits) == 4:
		out = appendUnique(out, leftPad(digits, 5))
	default:
		county3 := leftPad(digits, 3)
		out = appendUnique(out, county3)
		if sf := StateFIPS(stateFIPS); sf != "" {
			out = appendUnique(out, sf+county3)
		}
	}
	return out
}

// StateFIPS returns the canonical 2-digit state FIPS form of raw, or the
// empty string when raw carries no digits.
func StateFIPS(raw string) string {
	digits := digitsOnly(raw)
	if digits == "" {
		return ""
	}
	return leftPad(digits, 2)
}

// Intersects reports whether the two candidate sets share at least one value.
func Intersects(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
