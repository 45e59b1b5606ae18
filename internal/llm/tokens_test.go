package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenCounter_Count(t *testing.T) {
	counter := NewTokenCounter()

	n := counter.Count("Built and shipped a scalable billing API.", "gpt-4o-mini")
	assert.Greater(t, n, 0)
	assert.Less(t, n, 20)

	// unknown models fall back to the default encoding
	assert.Greater(t, counter.Count("hello world", "gemini-2.5-flash"), 0)
}

func TestTokenCounter_CountChatAddsOverhead(t *testing.T) {
	counter := NewTokenCounter()

	plain := counter.Count("system", "gpt-4o") + counter.Count("user", "gpt-4o")
	assert.Greater(t, counter.CountChat("system", "user", "gpt-4o"), plain)
}
