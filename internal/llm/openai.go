package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const maxErrorSnippet = 512

// OpenAIClient implements Client against any OpenAI-compatible
// /chat/completions endpoint.
type OpenAIClient struct {
	httpClient *http.Client
	config     *Config
	apiKey     string
	baseURL    string
	tokens     *TokenCounter
}

// NewOpenAIClient creates a client for config.BaseURL
func NewOpenAIClient(config *Config, apiKey string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	return &OpenAIClient{
		// per-call deadlines come from the context; this is only a backstop
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		config:     config,
		apiKey:     apiKey,
		baseURL:    baseURL,
		tokens:     NewTokenCounter(),
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Temperature    float32         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Generate sends one chat completion request
func (c *OpenAIClient) Generate(ctx context.Context, system, user string, opts GenerateOptions) (string, error) {
	model, err := c.config.Model(opts.Tier)
	if err != nil {
		return "", err
	}

	body := chatRequest{
		Model:       model,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}
	if opts.JSONMode {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	slog.DebugContext(ctx, "calling chat completions",
		slog.String("provider", string(ProviderOpenAI)),
		slog.String("model", model),
		slog.Int("max_tokens", opts.MaxTokens),
		slog.Int("prompt_tokens_estimate", c.tokens.CountChat(system, user, model)))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &TransportError{Provider: ProviderOpenAI, Message: "chat request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{Provider: ProviderOpenAI, StatusCode: resp.StatusCode, Message: "read response body", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(respBody)
		if len(snippet) > maxErrorSnippet {
			snippet = snippet[:maxErrorSnippet]
		}
		slog.WarnContext(ctx, "chat completions non-2xx",
			slog.String("provider", string(ProviderOpenAI)),
			slog.Int("status", resp.StatusCode),
			slog.String("body", snippet))
		return "", &TransportError{Provider: ProviderOpenAI, StatusCode: resp.StatusCode, Message: "chat completions returned " + http.StatusText(resp.StatusCode)}
	}

	var out chatResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", &TransportError{Provider: ProviderOpenAI, StatusCode: resp.StatusCode, Message: "decode chat response", Cause: err}
	}
	if len(out.Choices) == 0 {
		return "", &TransportError{Provider: ProviderOpenAI, StatusCode: resp.StatusCode, Message: "empty choices"}
	}

	slog.DebugContext(ctx, "chat completions ok",
		slog.String("model", out.Model),
		slog.Int("prompt_tokens", out.Usage.PromptTokens),
		slog.Int("completion_tokens", out.Usage.CompletionTokens))

	return out.Choices[0].Message.Content, nil
}

// Provider returns ProviderOpenAI
func (c *OpenAIClient) Provider() Provider { return ProviderOpenAI }

// Close is a no-op; the HTTP client holds no resources that need releasing
func (c *OpenAIClient) Close() error { return nil }
