package gaps

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/cv-assistant/internal/llm/llmtest"
	"github.com/jonathan/cv-assistant/internal/taxonomy"
	"github.com/jonathan/cv-assistant/internal/types"
)

func sampleCV() *types.CV {
	return &types.CV{
		Name:    "Ada Yilmaz",
		Email:   "ada@example.com",
		Summary: "Backend engineer.",
		Links:   []types.Link{},
		Skills:  types.Skills{Primary: []string{"Go"}, Secondary: []string{}, Tools: []string{"Docker"}},
		Experience: []types.Experience{{
			Role:      "Engineer",
			Company:   "Acme",
			StartDate: "2021-01",
			Bullets: []types.Bullet{
				{Text: "Built the billing API."},
				{Text: "Maintained CI pipelines."},
			},
		}},
		Education: []types.Education{},
	}
}

func sampleRequest() Request {
	return Request{CV: sampleCV(), TargetRole: "Backend Engineer", Locale: types.LocaleEN}
}

func TestPathExists(t *testing.T) {
	cv := sampleCV()
	tests := []struct {
		path string
		want bool
	}{
		{"summary", true},
		{"experience[0].bullets[1]", true},
		{"experience[0].bullets[2]", false},
		{"experience[1]", false},
		{"skills.primary[0]", true},
		{"skills.primary.0", true},
		{"skills[0]", false},
		{"headline", false},
		{"experience[0].bullets[0].text.length", false},
		{"", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, PathExists(cv, tt.path))
		})
	}
}

func TestNormalizeJobDescription(t *testing.T) {
	got := NormalizeJobDescription("  The   team is looking for a Go engineer\n with Kafka ve Redis için  ")
	assert.Equal(t, "team is looking Go engineer Kafka Redis", got)
	assert.Equal(t, "", NormalizeJobDescription("   "))
}

func TestAnalyze_FiltersUnknownPaths(t *testing.T) {
	client := llmtest.NewScripted(llmtest.Text(`{
		"gaps": [
			{"path": "experience[0].bullets[0]", "message": "No metric", "severity": "high"},
			{"path": "experience[3].bullets[0]", "message": "Does not exist"},
			{"path": "projects", "message": "Missing section"}
		],
		"missingKeywords": ["kubernetes"]
	}`))
	a := NewAnalyzer(client)

	res, err := a.Analyze(context.Background(), sampleRequest())
	require.NoError(t, err)
	require.Len(t, res.Gaps, 1)
	assert.Equal(t, "experience[0].bullets[0]", res.Gaps[0].Path)
	assert.Equal(t, "high", res.Gaps[0].Severity)
	assert.Equal(t, []string{"kubernetes"}, res.MissingKeywords)

	calls := client.Calls()
	require.Len(t, calls, 1)
	assert.True(t, calls[0].Opts.JSONMode)
	assert.Equal(t, maxTokens, calls[0].Opts.MaxTokens)
	assert.Contains(t, calls[0].User, "Target role: Backend Engineer")
	assert.Contains(t, calls[0].User, `"name": "Ada Yilmaz"`)
}

func TestAnalyze_MissingKeywordsNeverNil(t *testing.T) {
	client := llmtest.NewScripted(llmtest.Text(`{"gaps": []}`))

	res, err := NewAnalyzer(client).Analyze(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.NotNil(t, res.MissingKeywords)
	assert.Empty(t, res.Gaps)
}

func TestAnalyze_NormalizesJobDescription(t *testing.T) {
	client := llmtest.NewScripted(llmtest.Text(`{"gaps": []}`))
	req := sampleRequest()
	req.JobDescription = "Experience with   the Go language"

	_, err := NewAnalyzer(client).Analyze(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, client.Calls()[0].User, "Experience Go language")
}

func TestAnalyze_RoleKeywordsFromTaxonomy(t *testing.T) {
	tax, err := taxonomy.Parse([]byte(`
sectors:
  - id: software
    name: Software
    roles:
      - id: backend
        seniority: [mid]
        core_skills: [golang, postgresql]
        metrics_templates: ["Served N requests per day"]
        followup_templates:
          impact: "What changed?"
          scale: "How many requests?"
          reliability: "How was it monitored?"
`))
	require.NoError(t, err)

	client := llmtest.NewScripted(llmtest.Text(`{"gaps": []}`))
	req := sampleRequest()
	req.SectorID, req.RoleID = "software", "backend"

	_, err = NewAnalyzer(client, WithTaxonomy(taxonomy.Static(tax))).Analyze(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, client.Calls()[0].User, "golang")
	assert.Contains(t, client.Calls()[0].User, "postgresql")
}

func TestAnalyze_ShortensCVAfterInvalidReply(t *testing.T) {
	cv := sampleCV()
	cv.Summary = strings.Repeat("Long summary text. ", 300)
	req := sampleRequest()
	req.CV = cv

	client := llmtest.NewScripted(
		llmtest.Text("not json at all"),
		llmtest.Text(`{"gaps": [{"path": "summary", "message": "Too long"}]}`),
	)

	res, err := NewAnalyzer(client).Analyze(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, res.Gaps, 1)

	calls := client.Calls()
	require.Len(t, calls, 2)
	assert.Less(t, len(calls[1].User), len(calls[0].User))
}

func TestAnalyze_TransportRetryKeepsPrompt(t *testing.T) {
	client := llmtest.NewScripted(
		llmtest.Fail(errors.New("connection reset")),
		llmtest.Text(`{"gaps": []}`),
	)

	_, err := NewAnalyzer(client).Analyze(context.Background(), sampleRequest())
	require.NoError(t, err)

	calls := client.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, calls[0].User, calls[1].User)
}

func TestAnalyze_FailsAfterTwoInvalidReplies(t *testing.T) {
	client := llmtest.NewScripted(
		llmtest.Text(`{"gaps": [{"message": "no path"}]}`),
		llmtest.Text(`{"gaps": "nope"}`),
	)

	_, err := NewAnalyzer(client).Analyze(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGapAnalysisFailed)
	assert.Len(t, client.Calls(), 2)
}

func TestAnalyze_InvalidRequest(t *testing.T) {
	client := llmtest.NewScripted()
	req := sampleRequest()
	req.TargetRole = ""
	req.Locale = "de"

	_, err := NewAnalyzer(client).Analyze(context.Background(), req)
	var invalid *types.InvalidRequestError
	require.ErrorAs(t, err, &invalid)
	assert.Len(t, invalid.Violations, 2)
	assert.Empty(t, client.Calls())
}

func TestSetPath(t *testing.T) {
	cv := sampleCV()

	out, err := SetPath(cv, "summary", "Backend engineer with payments focus.")
	require.NoError(t, err)
	assert.Equal(t, "Backend engineer with payments focus.", out.(map[string]any)["summary"])
	assert.Equal(t, "Backend engineer.", cv.Summary, "input must not change")

	out, err = SetPath(cv, "experience[0].bullets[3].text", "Cut costs by 20%.")
	require.NoError(t, err)
	bullets := out.(map[string]any)["experience"].([]any)[0].(map[string]any)["bullets"].([]any)
	require.Len(t, bullets, 4)
	assert.Nil(t, bullets[2])
	assert.Equal(t, "Cut costs by 20%.", bullets[3].(map[string]any)["text"])

	out, err = SetPath(cv, "personal.phone", "+90 555 000 0000")
	require.NoError(t, err)
	assert.Equal(t, "+90 555 000 0000", out.(map[string]any)["personal"].(map[string]any)["phone"])

	_, err = SetPath(cv, "summary.text", "x")
	assert.Error(t, err)
	_, err = SetPath(cv, "experience.first", "x")
	assert.Error(t, err)
	_, err = SetPath(cv, "", "x")
	assert.Error(t, err)
}
