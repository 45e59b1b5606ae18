// Package llm provides the LLM collaborator used by every orchestrator: a
// provider-neutral Client interface, Gemini and OpenAI-compatible
// implementations, per-call timeouts and JSON repair helpers.
package llm

import (
	"fmt"
	"maps"
	"strings"
)

// ModelTier says how much model a call needs
type ModelTier string

const (
	// TierLite is for short structured answers: bullet rewrites, role fit, questions
	TierLite ModelTier = "lite"
	// TierStandard is for moderate reasoning: gap analysis
	TierStandard ModelTier = "standard"
	// TierAdvanced is for long structured output: CV extraction
	TierAdvanced ModelTier = "advanced"
)

// Provider names a model vendor
type Provider string

const (
	ProviderGemini Provider = "gemini"
	// ProviderOpenAI is any OpenAI-compatible chat completions endpoint
	ProviderOpenAI Provider = "openai"
)

// DefaultOpenAIBaseURL is used when no base URL is configured
const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

var defaultModels = map[Provider]map[ModelTier]string{
	ProviderGemini: {
		TierLite:     "gemini-2.5-flash-lite",
		TierStandard: "gemini-2.5-flash",
		TierAdvanced: "gemini-2.5-pro",
	},
	ProviderOpenAI: {
		TierLite:     "gpt-4o-mini",
		TierStandard: "gpt-4o-mini",
		TierAdvanced: "gpt-4o",
	},
}

// tiers tried, in order, when the requested tier has no model
var tierFallback = []ModelTier{TierStandard, TierLite}

// ParseProvider accepts a provider name in any case
func ParseProvider(name string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := defaultModels[p]; !ok {
		return "", fmt.Errorf("unknown LLM provider %q", name)
	}
	return p, nil
}

// Config picks a model per tier for one provider
type Config struct {
	Provider Provider
	Models   map[ModelTier]string
	// BaseURL is only used by OpenAI-compatible providers
	BaseURL string
}

// DefaultConfig is the Gemini configuration
func DefaultConfig() *Config {
	return ConfigFor(ProviderGemini)
}

// ConfigFor returns a fresh copy of the provider's default models. Unknown
// providers get Gemini.
func ConfigFor(p Provider) *Config {
	models, ok := defaultModels[p]
	if !ok {
		p, models = ProviderGemini, defaultModels[ProviderGemini]
	}
	cfg := &Config{Provider: p, Models: maps.Clone(models)}
	if p == ProviderOpenAI {
		cfg.BaseURL = DefaultOpenAIBaseURL
	}
	return cfg
}

// Model resolves the model for tier, falling back to standard then lite
func (c *Config) Model(tier ModelTier) (string, error) {
	if m := c.Models[tier]; m != "" {
		return m, nil
	}
	for _, t := range tierFallback {
		if m := c.Models[t]; m != "" {
			return m, nil
		}
	}
	return "", fmt.Errorf("no model configured for tier %s", tier)
}

// WithModel returns a copy of c that uses model for each of tiers
func (c *Config) WithModel(model string, tiers ...ModelTier) *Config {
	out := &Config{Provider: c.Provider, Models: maps.Clone(c.Models), BaseURL: c.BaseURL}
	if out.Models == nil {
		out.Models = make(map[ModelTier]string, len(tiers))
	}
	for _, t := range tiers {
		out.Models[t] = model
	}
	return out
}
