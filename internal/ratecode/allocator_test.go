package ratecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var testPrefixes = map[string]string{
	"concrete":  "CONC",
	"blockwork": "BLCK",
}

func TestNext(t *testing.T) {
	tests := []struct {
		name     string
		category string
		existing []string
		want     string
	}{
		{
			name:     "no existing codes",
			category: "concrete",
			existing: nil,
			want:     "CONC1A",
		},
		{
			name:     "letter advances within highest number",
			category: "concrete",
			existing: []string{"CONC1A", "CONC1B", "CONC2A"},
			want:     "CONC2B",
		},
		{
			name:     "letter wraps past Z into next number",
			category: "concrete",
			existing: []string{"CONC1Z"},
			want:     "CONC2A",
		},
		{
			name:     "malformed codes ignored",
			category: "concrete",
			existing: []string{"CONC", "CONC1", "CONCXA", "CONC1a", "BLCK9Z", "CONC3C"},
			want:     "CONC3D",
		},
		{
			name:     "unknown category falls back to MISC",
			category: "scaffolding",
			existing: []string{"MISC4D"},
			want:     "MISC4E",
		},
		{
			name:     "prefixes are independent sequences",
			category: "blockwork",
			existing: []string{"BLCK1A"},
			want:     "BLCK1B",
		},
		{
			name:     "multi-digit numbers compared numerically",
			category: "concrete",
			existing: []string{"CONC9B", "CONC10A"},
			want:     "CONC10B",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Next(tt.category, tt.existing, testPrefixes))
		})
	}
}

func TestPrefix(t *testing.T) {
	assert.Equal(t, "CONC", Prefix("concrete", testPrefixes))
	assert.Equal(t, FallbackPrefix, Prefix("unknown", testPrefixes))
	assert.Equal(t, FallbackPrefix, Prefix("", testPrefixes))
	assert.Equal(t, FallbackPrefix, Prefix("concrete", nil))
}
