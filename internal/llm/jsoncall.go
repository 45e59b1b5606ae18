package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// OutputError is returned when a reply cannot be turned into the expected
// JSON document
type OutputError struct {
	Raw   string
	Cause error
}

func (e *OutputError) Error() string {
	return "invalid model output: " + e.Cause.Error()
}

func (e *OutputError) Unwrap() error {
	return e.Cause
}

// CallJSON calls client in JSON mode, repairs the reply with ForceJSONObject,
// checks it with validate when non-nil and decodes it into out. The raw reply
// is returned whenever one was received. Provider failures are
// *TransportError; unusable replies are *OutputError.
func CallJSON(ctx context.Context, client Client, system, user string, opts GenerateOptions, validate func(doc []byte) error, out any) (string, error) {
	opts.JSONMode = true
	raw, err := Call(ctx, client, system, user, opts)
	if err != nil {
		return "", err
	}

	body := []byte(ForceJSONObject(raw))
	if validate != nil {
		if err := validate(body); err != nil {
			return raw, &OutputError{Raw: raw, Cause: err}
		}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return raw, &OutputError{Raw: raw, Cause: err}
	}
	return raw, nil
}

// IsTransport reports whether err came from the provider call rather than
// from the content of its reply
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
