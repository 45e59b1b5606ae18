package questions

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/cv-assistant/internal/llm/llmtest"
	"github.com/jonathan/cv-assistant/internal/types"
)

func sampleRequest() Request {
	return Request{
		Gaps: []types.Gap{
			{Path: "experience[0].bullets[0]", Message: "No metric", Severity: "high"},
			{Path: "summary", Message: "Too generic"},
		},
		Locale: types.LocaleEN,
	}
}

func TestStableID(t *testing.T) {
	tests := []struct {
		path, text string
		want       string
	}{
		{"", "", "f90c4a3b"},
		{"", "a", "68590bae"},
		{"summary", "How many users?", "1d555b5"},
		{"skills[0]", "Kaç kullanıcı? 🚀", "f0e6e4b2"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StableID(tt.path, tt.text), "%s|%s", tt.path, tt.text)
	}
	assert.NotEqual(t, StableID("summary", "Why?"), StableID("skills", "Why?"))
}

func TestNext_TrimsECMAScriptWhitespace(t *testing.T) {
	client := llmtest.NewScripted(llmtest.Text(`{"questions": [
		{"path": "summary", "text": "\ufeff\u00a0What is your main stack?\ufeff"}
	]}`))

	qs, err := NewGenerator(client).Next(context.Background(), sampleRequest())
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, "What is your main stack?", qs[0].Text)
	assert.Equal(t, StableID("summary", "What is your main stack?"), qs[0].ID)
}

func TestNext_AssignsIDsAndTrims(t *testing.T) {
	client := llmtest.NewScripted(llmtest.Text(`{"questions": [
		{"path": "experience[0].bullets[0]", "text": "  How many requests per day did the API serve?  "},
		{"path": "summary", "text": "   "},
		{"text": "Which cloud did you use?"}
	]}`))

	qs, err := NewGenerator(client).Next(context.Background(), sampleRequest())
	require.NoError(t, err)
	require.Len(t, qs, 2)
	assert.Equal(t, "How many requests per day did the API serve?", qs[0].Text)
	assert.Equal(t, StableID("experience[0].bullets[0]", qs[0].Text), qs[0].ID)
	assert.Equal(t, StableID("", "Which cloud did you use?"), qs[1].ID)

	calls := client.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, maxTokens, calls[0].Opts.MaxTokens)
	assert.Contains(t, calls[0].User, "[]")
	assert.Contains(t, calls[0].User, `"path": "summary"`)
}

func TestNext_DropsAlreadyAskedAndCaps(t *testing.T) {
	asked := StableID("summary", "What is your focus?")
	client := llmtest.NewScripted(llmtest.Text(`{"questions": [
		{"path": "summary", "text": "What is your focus?"},
		{"path": "a", "text": "One?"},
		{"path": "b", "text": "Two?"},
		{"path": "c", "text": "Three?"},
		{"path": "d", "text": "Four?"}
	]}`))
	req := sampleRequest()
	req.AlreadyAsked = []string{asked}

	qs, err := NewGenerator(client).Next(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, qs, MaxQuestions)
	for _, q := range qs {
		assert.NotEqual(t, asked, q.ID)
	}
	assert.Equal(t, "One?", qs[0].Text)
	assert.Contains(t, client.Calls()[0].User, asked)
}

func TestNext_AllAskedReturnsEmpty(t *testing.T) {
	client := llmtest.NewScripted(llmtest.Text(`{"questions": [{"path": "summary", "text": "Why?"}]}`))
	req := sampleRequest()
	req.AlreadyAsked = []string{StableID("summary", "Why?")}

	qs, err := NewGenerator(client).Next(context.Background(), req)
	require.NoError(t, err)
	assert.NotNil(t, qs)
	assert.Empty(t, qs)
}

func TestNext_RetriesThenFails(t *testing.T) {
	client := llmtest.NewScripted(
		llmtest.Text(`{"questions": [{"path": "summary"}]}`),
		llmtest.Fail(errors.New("upstream 503")),
	)

	_, err := NewGenerator(client).Next(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQuestionGenerationFailed)
	assert.Len(t, client.Calls(), 2)
}

func TestNext_RetryRecovers(t *testing.T) {
	client := llmtest.NewScripted(
		llmtest.Text("```json\n{oops"),
		llmtest.Text(`{"questions": [{"path": "summary", "text": "Who were your users?"}]}`),
	)

	qs, err := NewGenerator(client).Next(context.Background(), sampleRequest())
	require.NoError(t, err)
	require.Len(t, qs, 1)
}

func TestNext_InvalidRequest(t *testing.T) {
	client := llmtest.NewScripted()

	_, err := NewGenerator(client).Next(context.Background(), Request{Locale: "fr"})
	var invalid *types.InvalidRequestError
	require.ErrorAs(t, err, &invalid)
	assert.Empty(t, client.Calls())
}
