// Package llmtest provides a scriptable llm.Client for tests.
package llmtest

import (
	"context"
	"errors"
	"sync"

	"github.com/jonathan/cv-assistant/internal/llm"
)

// ErrNoReply is returned when a scripted client runs out of replies
var ErrNoReply = errors.New("llmtest: no scripted reply left")

// Call records the arguments of one Generate call
type Call struct {
	System string
	User   string
	Opts   llm.GenerateOptions
}

// Reply is one scripted response
type Reply struct {
	Text string
	Err  error
}

// Text is a successful reply
func Text(s string) Reply { return Reply{Text: s} }

// Fail is a failed reply
func Fail(err error) Reply { return Reply{Err: err} }

// MockClient implements llm.Client. When GenerateFunc is set it answers
// every call; otherwise scripted replies are consumed in order.
type MockClient struct {
	GenerateFunc func(ctx context.Context, system, user string, opts llm.GenerateOptions) (string, error)

	mu      sync.Mutex
	replies []Reply
	calls   []Call
}

// NewScripted returns a client that answers with replies in order
func NewScripted(replies ...Reply) *MockClient {
	return &MockClient{replies: replies}
}

// Generate implements llm.Client
func (m *MockClient) Generate(ctx context.Context, system, user string, opts llm.GenerateOptions) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, Call{System: system, User: user, Opts: opts})
	if m.GenerateFunc != nil {
		m.mu.Unlock()
		return m.GenerateFunc(ctx, system, user, opts)
	}
	if len(m.replies) == 0 {
		m.mu.Unlock()
		return "", ErrNoReply
	}
	r := m.replies[0]
	m.replies = m.replies[1:]
	m.mu.Unlock()
	return r.Text, r.Err
}

// Provider implements llm.Client
func (m *MockClient) Provider() llm.Provider { return "mock" }

// Close implements llm.Client
func (m *MockClient) Close() error { return nil }

// Calls returns a copy of the recorded calls
func (m *MockClient) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}
