package extraction

import (
	"errors"
	"strings"
)

// Outcomes reported when extraction produces no CV
var (
	ErrInvalidModelJSON = errors.New("invalid JSON from model")
	ErrInvalidCVSchema  = errors.New("invalid CV schema")
	ErrExtractionFailed = errors.New("extraction failed")
)

// SchemaError is returned when the model's JSON does not describe a valid CV
type SchemaError struct {
	// Details are "field: message" lines
	Details []string
	Cause   error
}

func (e *SchemaError) Error() string {
	if len(e.Details) == 0 {
		return ErrInvalidCVSchema.Error()
	}
	return ErrInvalidCVSchema.Error() + ": " + strings.Join(e.Details, "; ")
}

func (e *SchemaError) Unwrap() error {
	return e.Cause
}

// Is matches ErrInvalidCVSchema
func (e *SchemaError) Is(target error) bool {
	return target == ErrInvalidCVSchema
}
