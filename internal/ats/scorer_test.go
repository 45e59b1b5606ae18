package ats

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/cv-assistant/internal/llm/llmtest"
	"github.com/jonathan/cv-assistant/internal/types"
)

func scoreRequest() Request {
	return Request{CV: cleanCV(), TargetRole: "Backend Engineer", Locale: types.LocaleEN}
}

func TestScore_CombinesChecksAndRoleFit(t *testing.T) {
	client := llmtest.NewScripted(llmtest.Text(`{"roleFitScore": 72.6, "reasons": ["Add cloud experience"]}`))
	req := scoreRequest()
	req.CV.Summary = ""

	res, err := NewScorer(client).Score(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 100-WeightRequired, res.ATSScore)
	assert.Equal(t, 73, res.RoleFitScore)
	assert.Equal(t, []string{"Missing professional summary", "Add cloud experience"}, res.FixHints)

	calls := client.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, roleFitMaxTokens, calls[0].Opts.MaxTokens)
	assert.Contains(t, calls[0].User, "Target role: Backend Engineer")
}

func TestScore_DefaultsWhenModelFails(t *testing.T) {
	client := llmtest.NewScripted(
		llmtest.Text(`{"roleFitScore": 140, "reasons": []}`),
		llmtest.Fail(errors.New("rate limited")),
	)

	res, err := NewScorer(client).Score(context.Background(), scoreRequest())
	require.NoError(t, err)
	assert.Equal(t, DefaultRoleFitScore, res.RoleFitScore)
	assert.Equal(t, 100, res.ATSScore)
	assert.Equal(t, []string{}, res.FixHints)
	assert.Len(t, client.Calls(), 2)
}

func TestScore_SecondAttemptRecovers(t *testing.T) {
	client := llmtest.NewScripted(
		llmtest.Text("I think it fits well."),
		llmtest.Text(`{"roleFitScore": 90, "reasons": ["Strong Go background"]}`),
	)

	res, err := NewScorer(client).Score(context.Background(), scoreRequest())
	require.NoError(t, err)
	assert.Equal(t, 90, res.RoleFitScore)
	assert.Equal(t, []string{"Strong Go background"}, res.FixHints)
}

func TestScore_NilClientUsesDefault(t *testing.T) {
	res, err := NewScorer(nil).Score(context.Background(), scoreRequest())
	require.NoError(t, err)
	assert.Equal(t, DefaultRoleFitScore, res.RoleFitScore)
}

func TestScore_InvalidRequest(t *testing.T) {
	_, err := NewScorer(nil).Score(context.Background(), Request{Locale: types.LocaleTR})
	var invalid *types.InvalidRequestError
	require.ErrorAs(t, err, &invalid)
}

func TestScore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewScorer(llmtest.NewScripted()).Score(ctx, scoreRequest())
	assert.ErrorIs(t, err, context.Canceled)
}
