package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValid(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"russian plus seven", "+79001234567", true},
		{"russian leading eight", "89001234567", true},
		{"formatted with punctuation", "8 (900) 123-45-67", true},
		{"plus seven too short", "+7900123456", false},
		{"plus seven too long", "+790012345678", false},
		{"international", "+995591234567", true},
		{"international min digits", "+123456789", true},
		{"international max digits", "+1234567890123456", true},
		{"international too short", "+12345678", false},
		{"international too long", "+12345678901234567", false},
		{"no plus no eight", "79001234567", false},
		{"letters", "phone", false},
		{"empty", "", false},
		{"just plus", "+", false},
		{"just eight", "8", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Valid(tt.input), "input %q", tt.input)
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "+79001234567", Normalize("8 (900) 123-45-67"))
	assert.Equal(t, "+79001234567", Normalize(" +7 900 123 45 67"))
	assert.Equal(t, "", Normalize("abc"))
}

// Accept/reject decisions must not change when the validator is re-run on
// the normalized form.
func TestValidIdempotentOverNormalize(t *testing.T) {
	inputs := []string{
		"+79001234567", "89001234567", "8 (900) 123-45-67",
		"+995591234567", "12345", "", "+7900123456", "phone",
	}
	for _, input := range inputs {
		normalized := Normalize(input)
		assert.Equal(t, Valid(input), Valid(normalized), "input %q normalized %q", input, normalized)
		assert.Equal(t, normalized, Normalize(normalized), "normalize not idempotent for %q", input)
	}
}
