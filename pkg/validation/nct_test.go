package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractNCTs_OrderAndDedup(t *testing.T) {
	t.Parallel()

	got := ExtractNCTs("NCT11111111; NCT22222222; NCT11111111")

	assert.Equal(t, []string{"NCT11111111", "NCT22222222"}, got)
}

func TestExtractNCTs_CaseInsensitiveUppercased(t *testing.T) {
	t.Parallel()

	got := ExtractNCTs("see nct11111111 and Nct22222222")

	assert.Equal(t, []string{"NCT11111111", "NCT22222222"}, got)
}

func TestExtractNCTs_MultipleFields(t *testing.T) {
	t.Parallel()

	got := ExtractNCTs("NCT11111111", "NCT22222222")

	assert.Equal(t, []string{"NCT11111111", "NCT22222222"}, got)

	// A duplicate across fields still dedups to first appearance.
	got = ExtractNCTs("NCT22222222", "nct22222222 NCT11111111")

	assert.Equal(t, []string{"NCT22222222", "NCT11111111"}, got)
}

func TestExtractNCTs_RejectsWrongDigitCount(t *testing.T) {
	t.Parallel()

	assert.Empty(t, ExtractNCTs("NCT1234567"))
	assert.Empty(t, ExtractNCTs("NCT123456789"))
	assert.Empty(t, ExtractNCTs("", "   "))
	assert.Empty(t, ExtractNCTs("no identifiers here"))
}

func TestHasMalformedNCT(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want bool
	}{
		{"truncated", "NCT1234567", true},
		{"too long", "trial NCT123456789 reported", true},
		{"well formed", "NCT12345678", false},
		{"well formed alongside malformed", "NCT12345678 NCT99", false},
		{"no nct at all", "some text", false},
		{"empty", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, HasMalformedNCT(tc.text))
		})
	}
}

func TestNCTFormat_ExactFieldMatch(t *testing.T) {
	t.Parallel()

	assert.True(t, NCTFormat.MatchString("NCT12345678"))
	assert.False(t, NCTFormat.MatchString("nct12345678"))
	assert.False(t, NCTFormat.MatchString(" NCT12345678"))
	assert.False(t, NCTFormat.MatchString("NCT12345678 NCT87654321"))
}
