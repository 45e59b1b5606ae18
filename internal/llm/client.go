package llm

import (
	"context"
	"time"
)

// GenerateOptions controls a single generation call
type GenerateOptions struct {
	// JSONMode asks the provider for a JSON object response
	JSONMode    bool
	Temperature float32
	// MaxTokens caps the response length; zero leaves the provider default
	MaxTokens int
	// Timeout bounds the call when invoked through Call; zero means no timeout
	Timeout time.Duration
	Tier    ModelTier
}

// Client sends one prompt pair to a model. Implementations make exactly one
// provider request per Generate call; retrying is left to callers.
type Client interface {
	Generate(ctx context.Context, system, user string, opts GenerateOptions) (string, error)
	Provider() Provider
	Close() error
}

// NewClient builds the client for config.Provider. A nil config means
// DefaultConfig.
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Provider == ProviderOpenAI {
		return NewOpenAIClient(config, apiKey)
	}
	return NewGeminiClient(ctx, config, apiKey)
}
