package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLooseNameMatch(t *testing.T) {
	tests := []struct {
		name         string
		taxonomyName string
		recordName   string
		expected     bool
	}{
		{
			name:         "exact county name",
			taxonomyName: "Los Angeles County",
			recordName:   "Los Angeles County",
			expected:     true,
		},
		{
			name:         "case insensitive containment",
			taxonomyName: "Los Angeles County, CA",
			recordName:   "los angeles county",
			expected:     true,
		},
		{
			name:         "first comma segment only",
			taxonomyName: "Washoe County, NV",
			recordName:   "Washoe County",
			expected:     true,
		},
		{
			name:         "diacritics fold away",
			taxonomyName: "Doña Ana County",
			recordName:   "Dona Ana County",
			expected:     true,
		},
		{
			name:         "substring over-match is accepted by design of the policy",
			taxonomyName: "York County",
			recordName:   "New York County",
			expected:     true,
		},
		{
			name:         "different place",
			taxonomyName: "Clark County",
			recordName:   "Washoe County",
			expected:     false,
		},
		{
			name:         "empty taxonomy name never matches",
			taxonomyName: "",
			recordName:   "Washoe County",
			expected:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, LooseNameMatch(tt.taxonomyName, tt.recordName))
		})
	}
}

func TestLooseConfidence(t *testing.T) {
	assert.InDelta(t, 1.0, LooseConfidence("Washoe County, NV", "washoe county"), 1e-9)
	assert.InDelta(t, 0.6, LooseConfidence("York County", "New York County"), 1e-9)
	assert.InDelta(t, 0.0, LooseConfidence("Clark County", "Washoe County"), 1e-9)
}

func TestFoldName(t *testing.T) {
	assert.Equal(t, "dona ana", FoldName("  Doña Ana "))
	assert.Equal(t, "strasse", FoldName("Straße"))
}
