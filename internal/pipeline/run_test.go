package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/cv-assistant/internal/ats"
	"github.com/jonathan/cv-assistant/internal/extraction"
	"github.com/jonathan/cv-assistant/internal/gaps"
	"github.com/jonathan/cv-assistant/internal/llm"
	"github.com/jonathan/cv-assistant/internal/llm/llmtest"
	"github.com/jonathan/cv-assistant/internal/questions"
	"github.com/jonathan/cv-assistant/internal/rewriting"
	"github.com/jonathan/cv-assistant/internal/types"
)

const extractedCV = `{
  "name": "Ada Yilmaz",
  "email": "ada@example.com",
  "summary": "Backend engineer.",
  "links": [],
  "skills": {"primary": ["Go"], "secondary": [], "tools": []},
  "experience": [{"role": "Engineer", "company": "Acme", "startDate": "2021-01", "endDate": null,
    "bullets": [{"text": "Built the billing API."}, {"text": "Maintained the CI pipeline."}]}],
  "education": []
}`

// routedClient answers by recognizing which prompt it received
func routedClient(replies map[string]string) *llmtest.MockClient {
	return &llmtest.MockClient{
		GenerateFunc: func(_ context.Context, system, user string, _ llm.GenerateOptions) (string, error) {
			for marker, reply := range replies {
				if strings.Contains(system, marker) {
					if strings.HasPrefix(reply, "ERR:") {
						return "", errors.New(strings.TrimPrefix(reply, "ERR:"))
					}
					if marker == "single CV bullet" && strings.Contains(user, "CI pipeline") {
						return `{"after": "Maintained the CI pipeline for 40 services."}`, nil
					}
					return reply, nil
				}
			}
			return "", errors.New("unexpected prompt")
		},
	}
}

func newPipeline(client llm.Client) *Pipeline {
	return &Pipeline{
		Extractor: extraction.NewExtractor(client),
		Analyzer:  gaps.NewAnalyzer(client),
		Generator: questions.NewGenerator(client),
		Scorer:    ats.NewScorer(client),
		Rewriter:  rewriting.NewRewriter(client),
	}
}

func defaultReplies() map[string]string {
	return map[string]string{
		"raw CV text":        extractedCV,
		"structured CV":      `{"gaps": [{"path": "experience[0].bullets[0]", "message": "No metric"}], "missingKeywords": ["kafka"]}`,
		"CV gaps":            `{"questions": [{"path": "experience[0].bullets[0]", "text": "How many requests per day?"}]}`,
		"how well a CV fits": `{"roleFitScore": 65, "reasons": ["Add streaming experience"]}`,
		"single CV bullet":   `{"after": "Built and shipped the billing API."}`,
	}
}

func TestRun_AllSteps(t *testing.T) {
	client := routedClient(defaultReplies())
	var (
		mu    sync.Mutex
		steps []string
	)

	res, err := newPipeline(client).Run(context.Background(), Request{
		RawText:        "Ada Yilmaz\nBuilt the billing API.",
		TargetRole:     "Backend Engineer",
		Locale:         types.LocaleEN,
		RewriteBullets: true,
	}, func(e ProgressEvent) {
		mu.Lock()
		steps = append(steps, e.Step)
		mu.Unlock()
	})
	require.NoError(t, err)

	assert.Equal(t, "Ada Yilmaz", res.CV.Name)
	require.Len(t, res.Gaps.Gaps, 1)
	require.Len(t, res.Questions, 1)
	assert.Equal(t, 65, res.Score.RoleFitScore)
	assert.Contains(t, res.Score.FixHints, "Add streaming experience")

	require.Len(t, res.Rewrites, 2)
	assert.Equal(t, "experience[0].bullets[0]", res.Rewrites[0].Path)
	assert.Equal(t, "Built and shipped the billing API.", res.Rewrites[0].After)
	assert.Empty(t, res.Rewrites[1].After)
	assert.Equal(t, "Possible fabrication detected", res.Rewrites[1].Error)

	assert.Equal(t, StepExtract, steps[0])
	assert.ElementsMatch(t, []string{StepExtract, StepGaps, StepQuestions, StepScore, StepRewrite}, steps)
}

func TestRun_SkipsRewritesByDefault(t *testing.T) {
	client := routedClient(defaultReplies())

	res, err := newPipeline(client).Run(context.Background(), Request{
		RawText: "Ada", TargetRole: "Backend Engineer", Locale: types.LocaleEN,
	}, nil)
	require.NoError(t, err)
	assert.Nil(t, res.Rewrites)
	for _, c := range client.Calls() {
		assert.NotContains(t, c.System, "single CV bullet")
	}
}

func TestRun_ExtractionFailureStops(t *testing.T) {
	replies := defaultReplies()
	replies["raw CV text"] = "ERR:boom"
	client := routedClient(replies)

	_, err := newPipeline(client).Run(context.Background(), Request{
		RawText: "Ada", TargetRole: "Backend Engineer", Locale: types.LocaleEN,
	}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, extraction.ErrExtractionFailed)
	for _, c := range client.Calls() {
		assert.Contains(t, c.System, "raw CV text")
	}
}

func TestRun_GapFailureFailsRun(t *testing.T) {
	replies := defaultReplies()
	replies["structured CV"] = "not json"

	_, err := newPipeline(routedClient(replies)).Run(context.Background(), Request{
		RawText: "Ada", TargetRole: "Backend Engineer", Locale: types.LocaleEN,
	}, nil)
	assert.ErrorIs(t, err, gaps.ErrGapAnalysisFailed)
}

func TestRun_InvalidRequest(t *testing.T) {
	_, err := newPipeline(routedClient(nil)).Run(context.Background(), Request{}, nil)
	var invalid *types.InvalidRequestError
	require.ErrorAs(t, err, &invalid)
}
