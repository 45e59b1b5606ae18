package schemas

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const rootField = "(root)"

// FieldError is one schema violation. Code is the gojsonschema error type,
// e.g. "required" or "invalid_type".
type FieldError struct {
	Field   string
	Code    string
	Message string
}

// ValidationError lists every violation found in a document, ordered by field
type ValidationError struct {
	Errors []FieldError
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:")
	for i, fe := range ve.Errors {
		fmt.Fprintf(&sb, "\n  %d. %s: %s", i+1, fe.Field, fe.Message)
	}
	return sb.String()
}

// Details flattens the field errors into "field: message" strings
func (ve *ValidationError) Details() []string {
	out := make([]string, len(ve.Errors))
	for i, fe := range ve.Errors {
		out[i] = fe.Field + ": " + fe.Message
	}
	return out
}

// SchemaLoadError means the schema itself could not be found or compiled
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

func fromResult(result *gojsonschema.Result) error {
	if result.Valid() {
		return nil
	}
	errs := make([]FieldError, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = rootField
		}
		errs = append(errs, FieldError{Field: field, Code: desc.Type(), Message: desc.Description()})
	}
	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })
	return &ValidationError{Errors: errs}
}
