package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate_SingleLine(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantTotal   float64
		wantFormula string
	}{
		{
			name:        "formula with inline comment and notes suffix",
			input:       `= (10 * 5) "initial qty"; note`,
			wantTotal:   50.0,
			wantFormula: `= (10 * 5) "initial qty"; note`,
		},
		{
			name:      "plain literal number",
			input:     "12.5",
			wantTotal: 12.5,
		},
		{
			name:        "slash unit stripped",
			input:       "=10/hr",
			wantTotal:   10.0,
			wantFormula: "=10/hr",
		},
		{
			name:        "division of numbers preserved",
			input:       "=10/2",
			wantTotal:   5.0,
			wantFormula: "=10/2",
		},
		{
			name:        "x as multiplication sign",
			input:       "=3 x 4",
			wantTotal:   12.0,
			wantFormula: "=3 x 4",
		},
		{
			name:        "chained x without spaces",
			input:       "=2x3x4",
			wantTotal:   24.0,
			wantFormula: "=2x3x4",
		},
		{
			name:        "percent becomes division by hundred",
			input:       "=50%",
			wantTotal:   0.5,
			wantFormula: "=50%",
		},
		{
			name:        "bare unit tokens stripped",
			input:       "=8 hrs x 12",
			wantTotal:   96.0,
			wantFormula: "=8 hrs x 12",
		},
		{
			name:        "comments only evaluates to zero but keeps formula",
			input:       `= "waiting on supplier quote"`,
			wantTotal:   0,
			wantFormula: `= "waiting on supplier quote"`,
		},
		{
			name:      "empty input",
			input:     "",
			wantTotal: 0,
		},
		{
			name:      "garbage literal",
			input:     "lots",
			wantTotal: 0,
		},
		{
			name:      "negative literal rejected",
			input:     "-4",
			wantTotal: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Evaluate(tt.input)
			assert.InDelta(t, tt.wantTotal, res.Total, 1e-9)
			assert.Equal(t, tt.wantFormula, res.Formula)
		})
	}
}

func TestEvaluate_MultiLine(t *testing.T) {
	input := "=2 x 10\n\n=5/m3\nnot a number\n=3+4"
	res := Evaluate(input)

	// 20 + 0 (blank) + 5 + 0 (bad literal) + 7
	assert.InDelta(t, 32.0, res.Total, 1e-9)
	assert.Equal(t, input, res.Formula)
	assert.Len(t, res.Lines, 5)

	assert.InDelta(t, 20.0, res.Lines[0].Value, 1e-9)
	assert.True(t, res.Lines[0].IsFormula)
	assert.InDelta(t, 20.0, res.Lines[1].Running, 1e-9)
	assert.False(t, res.Lines[3].Numeric)
	assert.InDelta(t, 32.0, res.Lines[4].Running, 1e-9)
}

func TestEvaluate_MalformedFormulaContributesZero(t *testing.T) {
	res := Evaluate("=2+\n=3*3")

	assert.InDelta(t, 9.0, res.Total, 1e-9)
	assert.False(t, res.Lines[0].Numeric)
	assert.True(t, res.Lines[1].Numeric)
}

func TestEvaluate_NoIdentifierResolution(t *testing.T) {
	// Anything that survives sanitization as a name must be rejected, never
	// resolved.
	res := Evaluate("=__import__(1)")
	assert.InDelta(t, 0.0, res.Total, 1e-9)
	assert.False(t, res.Lines[0].Numeric)
}

func TestEvaluate_LiteralWithWhitespace(t *testing.T) {
	res := Evaluate("  42.75  ")
	assert.InDelta(t, 42.75, res.Total, 1e-9)
	assert.Empty(t, res.Formula)
}
