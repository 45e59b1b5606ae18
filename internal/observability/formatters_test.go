package observability

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/cv-assistant/internal/diff"
	"github.com/jonathan/cv-assistant/internal/types"
)

func TestPrintRewrite(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	res := &types.RewriteResult{
		Before:    "Built the billing API.",
		After:     "Built and shipped the billing API.",
		Rationale: "Adds delivery.",
	}
	p.PrintRewrite(res, diff.Words(res.Before, res.After))
	output := buf.String()

	assert.Contains(t, output, "REWRITTEN BULLET")
	assert.Contains(t, output, "Before: Built the billing API.")
	assert.Contains(t, output, "Why:    Adds delivery.")
	assert.Contains(t, output, "{+")
	assert.Contains(t, output, "shipped")
}

func TestPrintRewrite_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintRewrite(nil, nil)
	assert.Empty(t, buf.String())
}

func TestPrintRejection(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintRejection("Worked on billing stuff.", "fabrication_detected", "Possible fabrication detected")

	output := buf.String()
	assert.Contains(t, output, "REWRITE REJECTED")
	assert.Contains(t, output, "fabrication_detected")
	assert.Contains(t, output, "Worked on billing stuff.")
}

func TestPrintScore(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	score := &types.ScoreResult{
		ATSScore:     75,
		RoleFitScore: 60,
		Issues: []types.Issue{
			{Path: "experience[0].startDate", Message: "Invalid start date"},
			{Message: "Missing keywords: kafka, grpc"},
		},
		FixHints: []string{"Invalid start date", "Missing keywords: kafka, grpc", "Add metrics", "Mention Go"},
	}
	p.PrintScore(score)
	output := buf.String()

	assert.Contains(t, output, "CV SCORE")
	assert.Contains(t, output, "75/100")
	assert.Contains(t, output, "60/100")
	assert.Contains(t, output, "experience[0].startDate: Invalid start date")
	assert.Contains(t, output, "... and 1 more")
}

func TestPrintGaps(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintGaps(&types.GapsResult{
		Gaps:            []types.Gap{{Path: "summary", Message: "Summary is missing", Severity: "high"}},
		MissingKeywords: []string{"kubernetes"},
	})
	output := buf.String()

	assert.Contains(t, output, "CONTENT GAPS")
	assert.Contains(t, output, "summary [high]")
	assert.Contains(t, output, "Missing keywords: kubernetes")
}

func TestPrintValidation(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintValidation("cv.json", nil)
	assert.Contains(t, buf.String(), "✅ cv.json is valid")

	buf.Reset()
	p.PrintValidation("cv.json", []string{"email: Does not match format 'email'"})
	assert.Contains(t, buf.String(), "VALIDATION FAILED: cv.json")
	assert.Contains(t, buf.String(), "Found 1 problems")
}

func TestPrintBox_WrapsLongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.printBox("TITLE", strings.Repeat("Çalıştım ", 20))

	for _, line := range strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n") {
		assert.Equal(t, boxWidth, utf8.RuneCountInString(line), "line %q", line)
	}
}

func TestWrap(t *testing.T) {
	assert.Equal(t, []string{"short"}, wrap("short", 10))
	assert.Equal(t, []string{"one two", "three"}, wrap("one two three", 8))
	assert.Equal(t, []string{"abcd", "efgh", "ij"}, wrap("abcdefghij", 4))
}
