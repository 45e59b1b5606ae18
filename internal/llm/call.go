package llm

import (
	"context"
	"errors"
	"time"
)

// Call invokes client once, bounded by opts.Timeout. Every failure, including
// an expired deadline, is returned as a *TransportError.
func Call(ctx context.Context, client Client, system, user string, opts GenerateOptions) (string, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	text, err := client.Generate(ctx, system, user, opts)
	if err == nil {
		return text, nil
	}

	var te *TransportError
	if errors.As(err, &te) {
		return "", err
	}
	msg := "generate"
	if errors.Is(err, context.DeadlineExceeded) {
		msg = "call timed out"
	}
	return "", &TransportError{Provider: client.Provider(), Message: msg, Cause: err}
}

// CallObserver receives the outcome of every provider call
type CallObserver interface {
	ObserveLLMCall(provider, outcome string, elapsed time.Duration)
}

type instrumentedClient struct {
	Client
	observer CallObserver
}

// Instrument wraps client so each Generate call is reported to observer
func Instrument(client Client, observer CallObserver) Client {
	if observer == nil {
		return client
	}
	return &instrumentedClient{Client: client, observer: observer}
}

func (c *instrumentedClient) Generate(ctx context.Context, system, user string, opts GenerateOptions) (string, error) {
	start := time.Now()
	text, err := c.Client.Generate(ctx, system, user, opts)
	c.observer.ObserveLLMCall(string(c.Client.Provider()), callOutcome(err), time.Since(start))
	return text, err
}

func callOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}
