package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolve(t *testing.T, c *Config, tier ModelTier) string {
	t.Helper()
	m, err := c.Model(tier)
	require.NoError(t, err)
	return m
}

func TestConfigFor(t *testing.T) {
	gemini := DefaultConfig()
	assert.Equal(t, ProviderGemini, gemini.Provider)
	assert.Empty(t, gemini.BaseURL)
	assert.Equal(t, "gemini-2.5-flash-lite", resolve(t, gemini, TierLite))
	assert.Equal(t, "gemini-2.5-pro", resolve(t, gemini, TierAdvanced))

	openai := ConfigFor(ProviderOpenAI)
	assert.Equal(t, DefaultOpenAIBaseURL, openai.BaseURL)
	assert.Equal(t, "gpt-4o-mini", resolve(t, openai, TierLite))

	assert.Equal(t, ProviderGemini, ConfigFor("anthropic").Provider)

	openai.Models[TierLite] = "changed"
	assert.Equal(t, "gpt-4o-mini", resolve(t, ConfigFor(ProviderOpenAI), TierLite))
}

func TestParseProvider(t *testing.T) {
	p, err := ParseProvider(" OpenAI ")
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, p)

	_, err = ParseProvider("anthropic")
	assert.ErrorContains(t, err, `unknown LLM provider "anthropic"`)
}

func TestModel_Fallback(t *testing.T) {
	c := &Config{Models: map[ModelTier]string{TierLite: "small"}}
	assert.Equal(t, "small", resolve(t, c, TierAdvanced))

	c.Models[TierStandard] = "medium"
	assert.Equal(t, "medium", resolve(t, c, TierAdvanced))

	_, err := (&Config{}).Model(TierLite)
	assert.ErrorContains(t, err, "no model configured for tier lite")
}

func TestWithModel(t *testing.T) {
	base := ConfigFor(ProviderOpenAI)
	custom := base.WithModel("local-8b", TierLite, TierStandard)

	assert.Equal(t, "gpt-4o-mini", resolve(t, base, TierLite))
	assert.Equal(t, "local-8b", resolve(t, custom, TierLite))
	assert.Equal(t, "local-8b", resolve(t, custom, TierStandard))
	assert.Equal(t, "gpt-4o", resolve(t, custom, TierAdvanced))
	assert.Equal(t, base.BaseURL, custom.BaseURL)

	assert.Equal(t, "m", resolve(t, (&Config{}).WithModel("m", TierLite), TierAdvanced))
}
