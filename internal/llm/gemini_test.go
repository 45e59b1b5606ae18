package llm

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"after":`), genai.Text(` "Led it."}`)}},
		}},
	}
	text, err := geminiText(resp)
	require.NoError(t, err)
	assert.Equal(t, `{"after": "Led it."}`, text)
}

func TestGeminiText_Failures(t *testing.T) {
	tests := []struct {
		name string
		resp *genai.GenerateContentResponse
		want string
	}{
		{name: "nil", resp: nil, want: "empty response"},
		{
			name: "blocked prompt",
			resp: &genai.GenerateContentResponse{PromptFeedback: &genai.PromptFeedback{BlockReason: genai.BlockReasonSafety}},
			want: "prompt blocked",
		},
		{name: "no candidates", resp: &genai.GenerateContentResponse{}, want: "no candidates"},
		{
			name: "safety stop",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}}},
			want: "blocked by safety filters",
		},
		{
			name: "no text parts",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: &genai.Content{}}}},
			want: "no text in response",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := geminiText(tt.resp)
			require.Error(t, err)
			assert.True(t, IsTransport(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(t.Context(), ConfigFor(ProviderOpenAI), "")
	assert.ErrorContains(t, err, "API key is required")

	_, err = NewGeminiClient(t.Context(), DefaultConfig(), "")
	assert.ErrorContains(t, err, "API key is required")
}
