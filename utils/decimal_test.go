package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocaleDecimal(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    float64
		expectError bool
	}{
		{name: "plain integer", input: "160", expected: 160},
		{name: "comma decimal separator", input: "11,2", expected: 11.2},
		{name: "dot decimal separator", input: "11.2", expected: 11.2},
		{name: "grouped thousands with comma decimals", input: "1 234,56", expected: 1234.56},
		{name: "non-breaking space group separator", input: "1 234,5", expected: 1234.5},
		{name: "leading and trailing whitespace", input: "  48 ", expected: 48},
		{name: "empty string is zero", input: "", expected: 0},
		{name: "dash placeholder is zero", input: "-", expected: 0},
		{name: "negative value", input: "-0,1", expected: -0.1},
		{name: "two decimal separators", input: "1,2,3", expectError: true},
		{name: "letters", input: "abc", expectError: true},
		{name: "mixed digits and letters", input: "12x", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLocaleDecimal(tt.input)
			if tt.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 1e-9)
		})
	}
}
