package llm

import (
	"log/slog"
	"strings"
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

const fallbackEncoding = "cl100k_base"

var loaderOnce sync.Once

// TokenCounter estimates prompt sizes for logging. Encodings are loaded from
// the embedded offline BPE files so counting never touches the network.
type TokenCounter struct {
	mu        sync.RWMutex
	encodings map[string]*tiktoken.Tiktoken
}

// NewTokenCounter creates a counter with an empty encoding cache
func NewTokenCounter() *TokenCounter {
	loaderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	})
	return &TokenCounter{encodings: make(map[string]*tiktoken.Tiktoken)}
}

func (c *TokenCounter) encodingFor(model string) (*tiktoken.Tiktoken, error) {
	model = strings.ToLower(model)

	c.mu.RLock()
	enc, ok := c.encodings[model]
	c.mu.RUnlock()
	if ok {
		return enc, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if enc, ok := c.encodings[model]; ok {
		return enc, nil
	}

	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		slog.Debug("falling back to default encoding", slog.String("model", model), slog.Any("error", err))
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			return nil, err
		}
	}
	c.encodings[model] = enc
	return enc, nil
}

// Count returns the number of tokens in text. If no encoding can be loaded it
// falls back to a four-characters-per-token estimate.
func (c *TokenCounter) Count(text, model string) int {
	enc, err := c.encodingFor(model)
	if err != nil {
		return (len(text) + 3) / 4
	}
	return len(enc.Encode(text, nil, nil))
}

// CountChat estimates the prompt tokens of a system+user chat request,
// including the per-message framing overhead.
func (c *TokenCounter) CountChat(system, user, model string) int {
	const perMessage = 4
	return c.Count(system, model) + c.Count(user, model) + 2*perMessage + 3
}
