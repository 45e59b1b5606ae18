package quality

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWordCount(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"collapsed spaces", "a b  c", 3},
		{"empty", "", 0},
		{"only whitespace", " \t\n ", 0},
		{"leading and trailing", "  Built APIs  ", 2},
		{"no-break space separates", "Built\u00a0APIs", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WordCount(tt.in))
		})
	}
}

func TestWithinLimits(t *testing.T) {
	words := func(n int) string {
		return strings.TrimSpace(strings.Repeat("w ", n))
	}

	assert.True(t, WithinLimits(words(28)))
	assert.False(t, WithinLimits(words(29)))

	assert.True(t, WithinLimits(strings.Repeat("a", 220)))
	assert.False(t, WithinLimits(strings.Repeat("a", 221)))
}

func TestCharLength_CountsUTF16Units(t *testing.T) {
	assert.Equal(t, 8, CharLength("Çalıştım"))
	// emoji outside the BMP is a surrogate pair
	assert.Equal(t, 2, CharLength("🚀"))

	// two-byte runes count once each
	assert.True(t, WithinLimits(strings.Repeat("ş", 220)))
	assert.False(t, WithinLimits(strings.Repeat("🚀", 111)))
}

func TestIsSingleSentence(t *testing.T) {
	assert.True(t, IsSingleSentence("Built APIs."))
	assert.True(t, IsSingleSentence("Built APIs"))
	assert.False(t, IsSingleSentence("Built APIs. Shipped fast."))
	assert.False(t, IsSingleSentence("Shipped it?!"))
	// abbreviations are counted too
	assert.False(t, IsSingleSentence("Built tools, e.g. linters."))
}

func TestChangedMeaning(t *testing.T) {
	assert.False(t, ChangedMeaning("Worked on billing.", "  worked ON billing. "))
	assert.True(t, ChangedMeaning("Worked on billing.", "Built billing."))
}

func TestTruncateUnits(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "short", in: "abc", max: 5, want: "abc"},
		{name: "exact", in: "abcde", max: 5, want: "abcde"},
		{name: "cut", in: "abcdef", max: 3, want: "abc"},
		{name: "multibyte counts once", in: "çalış", max: 3, want: "çal"},
		{name: "surrogate pair not split", in: "ab🚀c", max: 3, want: "ab"},
		{name: "zero", in: "abc", max: 0, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateUnits(tt.in, tt.max)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, CharLength(got), tt.max)
		})
	}
}
