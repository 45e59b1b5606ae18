package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWords_Reconstructs(t *testing.T) {
	tests := []struct {
		name   string
		before string
		after  string
	}{
		{"verb swap", "Worked on billing stuff.", "Built the billing API serving 2M requests."},
		{"whitespace change", "Led  the team.", "Led the team."},
		{"from empty", "", "Built APIs."},
		{"to empty", "Built APIs.", ""},
		{"turkish", "Ödeme sistemi üzerinde çalıştım.", "Ödeme sistemini yeniden geliştirdim."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts := Words(tt.before, tt.after)
			assert.Equal(t, tt.after, Apply(parts, Insert))
			assert.Equal(t, tt.before, Apply(parts, Delete))
		})
	}
}

func TestWords_Identical(t *testing.T) {
	parts := Words("Built APIs.", "Built APIs.")
	require.Len(t, parts, 1)
	assert.Equal(t, Part{Type: Equal, Text: "Built APIs."}, parts[0])
}

func TestWords_KeepsWholeWords(t *testing.T) {
	parts := Words("Built billing.", "Built payments.")

	for _, p := range parts {
		if p.Type == Insert {
			assert.Contains(t, p.Text, "payments.")
		}
		if p.Type == Delete {
			assert.Contains(t, p.Text, "billing.")
		}
	}
	assert.Equal(t, Part{Type: Equal, Text: "Built "}, parts[0])
}

func TestWords_Empty(t *testing.T) {
	assert.Empty(t, Words("", ""))
}
