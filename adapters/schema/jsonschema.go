package schema

import (
	"github.com/google/jsonschema-go/jsonschema"

	"routecraft.dev/routecraft"
)

// jsonSchemaAdapter validates against a compiled JSON Schema document,
// for callers who only have a schema (e.g. from config) rather than a Go
// struct type.
type jsonSchemaAdapter struct {
	resolved *jsonschema.Resolved
}

// JSONSchema compiles doc once and returns a StandardSchema backed by it.
func JSONSchema(doc *jsonschema.Schema) (routecraft.StandardSchema, error) {
	resolved, err := doc.Resolve(nil)
	if err != nil {
		return nil, routecraft.WrapError(routecraft.CodeDirectValidation, err)
	}
	return &jsonSchemaAdapter{resolved: resolved}, nil
}

func (a *jsonSchemaAdapter) Validate(value any) (routecraft.SchemaResult, error) {
	if err := a.resolved.Validate(value); err != nil {
		return routecraft.SchemaResult{Issues: []string{err.Error()}}, nil
	}
	return routecraft.SchemaResult{Value: value}, nil
}
