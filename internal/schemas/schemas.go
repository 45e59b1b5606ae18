// Package schemas provides JSON Schema validation for model replies and CV documents.
package schemas

import (
	"embed"
	"fmt"
	"os"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// Names of the embedded schemas
const (
	RewriteResponse   = "rewrite_response"
	GapsResponse      = "gaps_response"
	QuestionsResponse = "questions_response"
	RoleFitResponse   = "rolefit_response"
	FinalizeResponse  = "finalize_response"
	CV                = "cv"
)

//go:embed *.schema.json
var schemaFS embed.FS

// Schema is a compiled JSON Schema
type Schema struct {
	name   string
	schema *gojsonschema.Schema
}

// Compile parses source as a JSON Schema. name only labels errors.
func Compile(name, source string) (*Schema, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(source))
	if err != nil {
		return nil, &SchemaLoadError{Path: name, Message: "schema does not compile", Cause: err}
	}
	return &Schema{name: name, schema: s}, nil
}

// Validate checks document against the schema. A document that is not JSON
// at all is reported on (root).
func (s *Schema) Validate(document []byte) error {
	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return &ValidationError{Errors: []FieldError{{Field: rootField, Code: "invalid_json", Message: "invalid JSON: " + err.Error()}}}
	}
	return fromResult(result)
}

var embedded = func() map[string]func() (*Schema, error) {
	m := make(map[string]func() (*Schema, error))
	for _, name := range Names() {
		m[name] = sync.OnceValues(func() (*Schema, error) {
			src, err := Source(name)
			if err != nil {
				return nil, err
			}
			return Compile(name, src)
		})
	}
	return m
}()

// Names lists the embedded schema names
func Names() []string {
	return []string{RewriteResponse, GapsResponse, QuestionsResponse, RoleFitResponse, FinalizeResponse, CV}
}

// Source returns the raw text of an embedded schema
func Source(name string) (string, error) {
	data, err := schemaFS.ReadFile(name + ".schema.json")
	if err != nil {
		return "", &SchemaLoadError{Path: name, Message: "unknown schema", Cause: err}
	}
	return string(data), nil
}

// Embedded returns the compiled embedded schema called name
func Embedded(name string) (*Schema, error) {
	get, ok := embedded[name]
	if !ok {
		return nil, &SchemaLoadError{Path: name, Message: "unknown schema"}
	}
	return get()
}

// Validate checks document against the named embedded schema
func Validate(name string, document []byte) error {
	s, err := Embedded(name)
	if err != nil {
		return err
	}
	return s.Validate(document)
}

// ValidateFile validates the JSON file at docPath against the schema file at
// schemaPath. Relative $refs in the schema file are not followed.
func ValidateFile(schemaPath, docPath string) error {
	src, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}
	doc, err := os.ReadFile(docPath)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	s, err := Compile(schemaPath, string(src))
	if err != nil {
		return err
	}
	return s.Validate(doc)
}
