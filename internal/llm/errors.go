package llm

import "fmt"

// TransportError is returned when a provider call fails: timeout, network
// failure, non-success status or an empty response.
type TransportError struct {
	Provider   Provider
	StatusCode int
	Message    string
	Cause      error
}

func (e *TransportError) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Provider != "" {
		msg = fmt.Sprintf("%s: %s", e.Provider, msg)
	}
	if e.Cause != nil {
		return fmt.Sprintf("llm transport error: %s: %v", msg, e.Cause)
	}
	return "llm transport error: " + msg
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}
