// Package schema provides two StandardSchema adapters used by the validate
// step and the direct adapter's body/header validation:
// struct-tag validation via go-playground/validator/v10, grounded on a
// conventional internal/config/validator.go singleton-instance pattern, and
// free-form JSON Schema via google/jsonschema-go for callers that only have
// a schema document, not a Go struct.
package schema

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"

	"routecraft.dev/routecraft"
)

var (
	instOnce sync.Once
	inst     *validator.Validate
)

func instance() *validator.Validate {
	instOnce.Do(func() { inst = validator.New() })
	return inst
}

// structAdapter validates values by reflecting onto a zero value of T and
// running struct-tag validation against a singleton validator instance.
type structAdapter[T any] struct{}

// Struct builds a StandardSchema backed by struct tags on T (`validate:"..."`).
// The value passed to Validate must already be (or be convertible via a
// prior decode step to) a *T or a T; types that don't match fail with a
// single issue rather than panicking.
func Struct[T any]() routecraft.StandardSchema {
	return &structAdapter[T]{}
}

func (structAdapter[T]) Validate(value any) (routecraft.SchemaResult, error) {
	target, ok := value.(*T)
	if !ok {
		var zero T
		if v, ok := value.(T); ok {
			zero = v
			target = &zero
		} else {
			return routecraft.SchemaResult{Issues: []string{fmt.Sprintf("expected %T, got %T", zero, value)}}, nil
		}
	}

	if err := instance().Struct(target); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return routecraft.SchemaResult{}, err
		}
		issues := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			issues = append(issues, fmt.Sprintf("%s: failed '%s'", fe.Namespace(), fe.Tag()))
		}
		return routecraft.SchemaResult{Issues: issues}, nil
	}
	return routecraft.SchemaResult{Value: target}, nil
}
