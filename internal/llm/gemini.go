package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient implements Client for Google Gemini
type GeminiClient struct {
	client *genai.Client
	config *Config
}

// NewGeminiClient opens a Gemini client authenticated with apiKey
func NewGeminiClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("API key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{client: client, config: config}, nil
}

func (c *GeminiClient) model(name string, system string, opts GenerateOptions) *genai.GenerativeModel {
	m := c.client.GenerativeModel(name)
	m.SetTemperature(opts.Temperature)
	if opts.MaxTokens > 0 {
		m.SetMaxOutputTokens(int32(opts.MaxTokens))
	}
	if system != "" {
		m.SystemInstruction = genai.NewUserContent(genai.Text(system))
	}
	if opts.JSONMode {
		m.ResponseMIMEType = "application/json"
	}
	return m
}

// Generate calls the model configured for opts.Tier
func (c *GeminiClient) Generate(ctx context.Context, system, user string, opts GenerateOptions) (string, error) {
	name, err := c.config.Model(opts.Tier)
	if err != nil {
		return "", err
	}

	resp, err := c.model(name, system, opts).GenerateContent(ctx, genai.Text(user))
	if err != nil {
		return "", &TransportError{Provider: ProviderGemini, Message: "generate content", Cause: err}
	}
	if resp != nil && resp.UsageMetadata != nil {
		slog.DebugContext(ctx, "gemini generate ok",
			slog.String("model", name),
			slog.Int("prompt_tokens", int(resp.UsageMetadata.PromptTokenCount)),
			slog.Int("completion_tokens", int(resp.UsageMetadata.CandidatesTokenCount)))
	}
	return geminiText(resp)
}

// Provider returns ProviderGemini
func (c *GeminiClient) Provider() Provider { return ProviderGemini }

// Close releases the underlying gRPC connection
func (c *GeminiClient) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// geminiText joins the text parts of the first candidate. Blocked prompts
// and empty candidates are transport failures.
func geminiText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", &TransportError{Provider: ProviderGemini, Message: "empty response"}
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != genai.BlockReasonUnspecified {
		return "", &TransportError{Provider: ProviderGemini, Message: fmt.Sprintf("prompt blocked (%v)", fb.BlockReason)}
	}
	if len(resp.Candidates) == 0 {
		return "", &TransportError{Provider: ProviderGemini, Message: "no candidates in response"}
	}

	cand := resp.Candidates[0]
	var sb strings.Builder
	if cand.Content != nil {
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}
	if sb.Len() == 0 {
		msg := "no text in response"
		if cand.FinishReason == genai.FinishReasonSafety {
			msg = "response blocked by safety filters"
		}
		return "", &TransportError{Provider: ProviderGemini, Message: msg}
	}
	return sb.String(), nil
}
