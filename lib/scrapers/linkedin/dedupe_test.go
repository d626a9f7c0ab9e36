package linkedin

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDedupeDegrees(t *testing.T) {
	testCases := []struct {
		name     string
		input    []string
		expected string
	}{
		{
			name:     "single",
			input:    []string{"Master Ingénierie du Web"},
			expected: "Master Ingénierie du Web",
		},
		{
			name:     "exact duplicates collapse",
			input:    []string{"Master", "Master", "Licence"},
			expected: "Master / Licence",
		},
		{
			name:     "first seen order kept",
			input:    []string{"Licence", "Master", "Licence"},
			expected: "Licence / Master",
		},
		{
			name:     "whitespace trimmed before comparison",
			input:    []string{"  Master  ", "Master"},
			expected: "Master",
		},
		{
			name:     "substrings stay distinct",
			input:    []string{"Bachelor", "Bachelor Développeur Web"},
			expected: "Bachelor / Bachelor Développeur Web",
		},
		{
			name:     "empty input",
			input:    nil,
			expected: DegreeNotFound,
		},
		{
			name:     "only blanks",
			input:    []string{"", "   "},
			expected: DegreeNotFound,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.expected, DedupeDegrees(test.input))
		})
	}
}
